package testutil

import (
	"testing"

	"github.com/roach88/scriptblocks/internal/ir"
)

// RootID is the id of the program block in documents built by NewDocument.
const RootID = "root"

// DocBuilder assembles documents with readable ids for tests.
type DocBuilder struct {
	doc *ir.Document
}

// NewDocument starts a document holding only an empty program block.
func NewDocument(name string) *DocBuilder {
	return &DocBuilder{doc: &ir.Document{
		ID:   "doc-" + name,
		Root: RootID,
		Blocks: map[string]*ir.Block{
			RootID: {
				ID:       RootID,
				Kind:     ir.KindProgram,
				Data:     map[string]any{},
				Children: map[string][]string{ir.SlotBody: {}},
			},
		},
		Connections: []ir.Connection{},
		Metadata:    ir.DocumentMetadata{Name: name, CreatedAt: Epoch, UpdatedAt: Epoch},
	}}
}

// Add appends a block of kind to parent's slot. Every slot the kind declares
// is created empty.
func (b *DocBuilder) Add(parent, slot, id, kind string, data map[string]any) *DocBuilder {
	if data == nil {
		data = map[string]any{}
	}
	children := map[string][]string{}
	for _, s := range ir.SlotsFor(kind) {
		children[s] = []string{}
	}
	b.doc.Blocks[id] = &ir.Block{ID: id, Kind: kind, Data: data, Children: children}
	p := b.doc.Blocks[parent]
	p.Children[slot] = append(p.Children[slot], id)
	return b
}

// Body appends a block to the root body.
func (b *DocBuilder) Body(id, kind string, data map[string]any) *DocBuilder {
	return b.Add(RootID, ir.SlotBody, id, kind, data)
}

// Build returns the document.
func (b *DocBuilder) Build() *ir.Document {
	return b.doc
}

// NestedDocument returns a small document used across package tests:
//
//	root.body: [w1, loop, c1]
//	loop.body: [if1]
//	if1.consequent: [p1]
//	if1.alternate: [l1]
func NestedDocument(t testing.TB) *ir.Document {
	t.Helper()
	return NewDocument("nested").
		Body("w1", ir.KindWaitCall, map[string]any{"duration": 1.0, ir.FieldVariable: ""}).
		Body("loop", ir.KindWhile, map[string]any{"condition": "running"}).
		Body("c1", ir.KindClickCall, map[string]any{"target": "#ok", ir.FieldVariable: ""}).
		Add("loop", ir.SlotBody, "if1", ir.KindIf, map[string]any{"condition": "x > 1"}).
		Add("if1", ir.SlotConsequent, "p1", ir.KindPressCall, map[string]any{"key": "Enter", ir.FieldVariable: ""}).
		Add("if1", ir.SlotAlternate, "l1", ir.KindLogCall, map[string]any{"message": "no", ir.FieldVariable: ""}).
		Build()
}
