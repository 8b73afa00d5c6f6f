package graph

import (
	"maps"
	"slices"

	"github.com/roach88/scriptblocks/internal/ir"
)

// edit is a copy-on-write view of a document. Blocks are cloned the first
// time they are written; everything else stays shared with the source.
type edit struct {
	src     *ir.Document
	blocks  map[string]*ir.Block
	owned   map[string]bool
	removed map[string]bool
}

func beginEdit(doc *ir.Document) *edit {
	return &edit{
		src:     doc,
		blocks:  maps.Clone(doc.Blocks),
		owned:   make(map[string]bool),
		removed: make(map[string]bool),
	}
}

func (e *edit) block(id string) (*ir.Block, bool) {
	b, ok := e.blocks[id]
	return b, ok
}

// writable returns a private copy of block id that may be modified.
func (e *edit) writable(id string) *ir.Block {
	if !e.owned[id] {
		e.blocks[id] = e.blocks[id].Clone()
		e.owned[id] = true
	}
	return e.blocks[id]
}

// add stores a block created by this edit.
func (e *edit) add(b *ir.Block) {
	e.blocks[b.ID] = b
	e.owned[b.ID] = true
}

func (e *edit) delete(id string) {
	delete(e.blocks, id)
	delete(e.owned, id)
	e.removed[id] = true
}

// insertAt puts id into parent's slot at index, clamped to [0, len].
func (e *edit) insertAt(parentID, slotID, id string, index int) {
	parent := e.writable(parentID)
	ids := parent.Children[slotID]
	index = max(0, min(index, len(ids)))
	parent.Children[slotID] = slices.Insert(ids, index, id)
}

// detach removes the occurrence of id at index in parent's slot.
func (e *edit) detach(parentID, slotID string, index int) {
	parent := e.writable(parentID)
	parent.Children[slotID] = slices.Delete(parent.Children[slotID], index, index+1)
}

// commit produces the edited document with its revision advanced.
// Connections touching removed blocks are dropped.
func (e *edit) commit() *ir.Document {
	next := *e.src
	next.Blocks = e.blocks
	next.Version = e.src.Version + 1

	if len(e.removed) > 0 && len(e.src.Connections) > 0 {
		next.Connections = slices.DeleteFunc(slices.Clone(e.src.Connections), func(c ir.Connection) bool {
			return e.removed[c.From] || e.removed[c.To]
		})
	}
	return &next
}

// checkSlot verifies that parentID exists and declares slotID. Slots present
// on a block of an unregistered kind are accepted so foreign documents can
// still be edited.
func (e *edit) checkSlot(parentID, slotID string) (*ir.Block, error) {
	parent, ok := e.block(parentID)
	if !ok {
		return nil, parentNotFound(parentID, slotID)
	}
	if !slotAllowed(parent, slotID) {
		return nil, invalidSlot(parentID, parent.Kind, slotID)
	}
	return parent, nil
}

// checkFits verifies that a block of kind may be placed in slotID.
func checkFits(parentID, slotID, kind string) error {
	if !ir.SlotAccepts(slotID, kind) {
		return misplacedKind(parentID, slotID, kind)
	}
	return nil
}

func slotAllowed(b *ir.Block, slotID string) bool {
	if ir.HasSlot(b.Kind, slotID) {
		return true
	}
	_, ok := b.Children[slotID]
	return ok && !ir.IsKnownKind(b.Kind)
}
