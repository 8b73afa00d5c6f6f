package ir

import (
	"maps"
	"slices"
	"time"
)

// Block is one node of the graph: a statement or a recognized automation call.
type Block struct {
	ID       string              `json:"id"`
	Kind     string              `json:"kind"`
	Data     map[string]any      `json:"data"`
	Children map[string][]string `json:"children"`
	Metadata *BlockMetadata      `json:"metadata,omitempty"`
}

// BlockMetadata is advisory display information. The generator never reads it.
type BlockMetadata struct {
	SourceLocation *SourceLocation `json:"sourceLocation,omitempty"`
	Comments       []string        `json:"comments,omitempty"`
}

// SourceLocation is the span a block was parsed from.
type SourceLocation struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Position is a 1-based line and 0-based column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Connection is a data-flow edge between block ports. Connections are carried
// through every operation but never interpreted by the parser or generator.
type Connection struct {
	ID       string `json:"id"`
	From     string `json:"from"`
	FromPort string `json:"fromPort"`
	To       string `json:"to"`
	ToPort   string `json:"toPort"`
}

// DocumentMetadata describes a document for listings and persistence.
type DocumentMetadata struct {
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	SourcePath string    `json:"sourcePath,omitempty"`
}

// Document is a workflow: a rooted tree of blocks addressed by id.
type Document struct {
	ID          string            `json:"id"`
	Root        string            `json:"root"`
	Blocks      map[string]*Block `json:"blocks"`
	Connections []Connection      `json:"connections"`
	Metadata    DocumentMetadata  `json:"metadata"`
	Version     int               `json:"version"`
}

// RootBlock returns the program block, or nil if the root id is dangling.
func (d *Document) RootBlock() *Block {
	return d.Blocks[d.Root]
}

// Block returns the block with the given id.
func (d *Document) Block(id string) (*Block, bool) {
	b, ok := d.Blocks[id]
	return b, ok
}

// Clone returns a deep copy of the block. Children slices and data maps are
// never shared between the original and the copy.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	c := &Block{
		ID:       b.ID,
		Kind:     b.Kind,
		Data:     maps.Clone(b.Data),
		Children: make(map[string][]string, len(b.Children)),
	}
	if c.Data == nil {
		c.Data = map[string]any{}
	}
	for slot, ids := range b.Children {
		c.Children[slot] = slices.Clone(ids)
		if c.Children[slot] == nil {
			c.Children[slot] = []string{}
		}
	}
	if b.Metadata != nil {
		md := &BlockMetadata{Comments: slices.Clone(b.Metadata.Comments)}
		if b.Metadata.SourceLocation != nil {
			loc := *b.Metadata.SourceLocation
			md.SourceLocation = &loc
		}
		c.Metadata = md
	}
	return c
}

// Slot returns the ordered child ids of a slot. The result must not be modified.
func (b *Block) Slot(slot string) []string {
	return b.Children[slot]
}

// Clone returns a deep copy of the document, used when a document is loaded
// into a separate editing session.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{
		ID:          d.ID,
		Root:        d.Root,
		Blocks:      make(map[string]*Block, len(d.Blocks)),
		Connections: slices.Clone(d.Connections),
		Metadata:    d.Metadata,
		Version:     d.Version,
	}
	if c.Connections == nil {
		c.Connections = []Connection{}
	}
	for id, b := range d.Blocks {
		c.Blocks[id] = b.Clone()
	}
	return c
}
