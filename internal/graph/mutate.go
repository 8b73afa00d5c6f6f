package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/scriptblocks/internal/ir"
)

// InsertBlock attaches block to parentID's slot at index, clamped to
// [0, len(slot)].
//
// The block id must be new to the document. Any children the block already
// lists must exist in the document and be detached from every other parent.
func InsertBlock(doc *ir.Document, parentID, slotID string, block *ir.Block, index int) (*ir.Document, error) {
	if block == nil {
		return nil, &StructuralError{Code: ErrCodeBlockNotFound, Message: "nil block", ParentID: parentID, SlotID: slotID}
	}
	e := beginEdit(doc)
	if _, exists := e.block(block.ID); exists {
		return nil, &StructuralError{Code: ErrCodeDuplicateID, Message: "block id already in document", BlockID: block.ID}
	}
	if _, err := e.checkSlot(parentID, slotID); err != nil {
		return nil, err
	}
	if err := checkFits(parentID, slotID, block.Kind); err != nil {
		return nil, err
	}
	if err := ir.ValidateData(block.Data); err != nil {
		return nil, &StructuralError{Code: ErrCodeInvalidData, Message: err.Error(), BlockID: block.ID}
	}

	parents := parentIndex(doc.Blocks)
	for _, slot := range sortedSlots(block) {
		for _, child := range block.Children[slot] {
			c, ok := e.block(child)
			if !ok {
				return nil, &StructuralError{
					Code:    ErrCodeDanglingChild,
					Message: fmt.Sprintf("child %q in slot %q does not exist", child, slot),
					BlockID: block.ID,
				}
			}
			if err := checkFits(block.ID, slot, c.Kind); err != nil {
				return nil, err
			}
			if _, attached := parents[child]; attached || child == doc.Root {
				return nil, &StructuralError{
					Code:    ErrCodeDanglingChild,
					Message: fmt.Sprintf("child %q is already attached elsewhere", child),
					BlockID: block.ID,
				}
			}
		}
	}

	e.add(block.Clone())
	e.insertAt(parentID, slotID, block.ID, index)
	return e.commit(), nil
}

// RemoveBlock detaches blockID from parentID's slot and deletes it together
// with its whole subtree. An empty parentID locates the block first.
func RemoveBlock(doc *ir.Document, blockID, parentID, slotID string) (*ir.Document, error) {
	if blockID == doc.Root {
		return nil, rootImmutable(blockID, "remove")
	}
	if _, ok := doc.Blocks[blockID]; !ok {
		return nil, blockNotFound(blockID)
	}
	loc, err := resolveLocation(doc, blockID, parentID, slotID)
	if err != nil {
		return nil, err
	}

	e := beginEdit(doc)
	doomed := descendantsIn(doc.Blocks, blockID)
	e.detach(loc.ParentID, loc.SlotID, loc.Index)
	e.delete(blockID)
	for _, id := range doomed {
		e.delete(id)
	}
	return e.commit(), nil
}

// MoveBlock detaches blockID and inserts it into parentID's slot at index.
// The index is interpreted after the block has been detached.
//
// A move into the block itself or into any of its descendants is rejected
// before anything is modified.
func MoveBlock(doc *ir.Document, blockID, parentID, slotID string, index int) (*ir.Document, error) {
	if blockID == doc.Root {
		return nil, rootImmutable(blockID, "move")
	}
	if _, ok := doc.Blocks[blockID]; !ok {
		return nil, blockNotFound(blockID)
	}
	e := beginEdit(doc)
	if _, err := e.checkSlot(parentID, slotID); err != nil {
		return nil, err
	}
	if err := checkFits(parentID, slotID, doc.Blocks[blockID].Kind); err != nil {
		return nil, err
	}

	parents := parentIndex(doc.Blocks)
	if parentID == blockID || slices.Contains(ancestorsIn(parents, parentID), blockID) {
		return nil, &StructuralError{
			Code:     ErrCodeCycle,
			Message:  "cannot move a block into itself or its descendants",
			BlockID:  blockID,
			ParentID: parentID,
			SlotID:   slotID,
		}
	}

	loc, ok := parents[blockID]
	if !ok {
		return nil, &StructuralError{Code: ErrCodeNotInSlot, Message: "block is not attached to the tree", BlockID: blockID}
	}
	e.detach(loc.ParentID, loc.SlotID, loc.Index)
	e.insertAt(parentID, slotID, blockID, index)
	return e.commit(), nil
}

// ReorderChild moves the child at fromIndex to toIndex within one slot.
// toIndex is clamped to the slot bounds; fromIndex must address a child.
// Reordering a child onto its own position returns doc unchanged.
func ReorderChild(doc *ir.Document, parentID, slotID string, fromIndex, toIndex int) (*ir.Document, error) {
	e := beginEdit(doc)
	parent, err := e.checkSlot(parentID, slotID)
	if err != nil {
		return nil, err
	}
	ids := parent.Children[slotID]
	if fromIndex < 0 || fromIndex >= len(ids) {
		return nil, &StructuralError{
			Code:     ErrCodeIndexOutOfRange,
			Message:  fmt.Sprintf("index %d outside slot of length %d", fromIndex, len(ids)),
			ParentID: parentID,
			SlotID:   slotID,
		}
	}
	toIndex = max(0, min(toIndex, len(ids)-1))
	if toIndex == fromIndex {
		return doc, nil
	}

	id := ids[fromIndex]
	e.detach(parentID, slotID, fromIndex)
	e.insertAt(parentID, slotID, id, toIndex)
	return e.commit(), nil
}

// DuplicateBlock clones blockID and its subtree with fresh ids and inserts the
// copy directly after the original. It returns the id of the copy.
func DuplicateBlock(doc *ir.Document, blockID string, opts ...Option) (*ir.Document, string, error) {
	if blockID == doc.Root {
		return nil, "", rootImmutable(blockID, "duplicate")
	}
	if _, ok := doc.Blocks[blockID]; !ok {
		return nil, "", blockNotFound(blockID)
	}
	loc, ok := FindBlockLocation(doc, blockID)
	if !ok {
		return nil, "", &StructuralError{Code: ErrCodeNotInSlot, Message: "block is not attached to the tree", BlockID: blockID}
	}

	o := buildOptions(opts)
	subtree := append([]string{blockID}, descendantsIn(doc.Blocks, blockID)...)
	fresh := make(map[string]string, len(subtree))
	used := make(map[string]bool, len(subtree))
	for _, id := range subtree {
		newID := o.ids.Generate()
		if _, clash := doc.Blocks[newID]; clash || used[newID] {
			return nil, "", &StructuralError{Code: ErrCodeDuplicateID, Message: "id source produced an id already in use", BlockID: newID}
		}
		fresh[id] = newID
		used[newID] = true
	}

	e := beginEdit(doc)
	for _, id := range subtree {
		c := doc.Blocks[id].Clone()
		c.ID = fresh[id]
		for slot, ids := range c.Children {
			kept := ids[:0]
			for _, child := range ids {
				if nid, ok := fresh[child]; ok {
					kept = append(kept, nid)
				}
			}
			c.Children[slot] = kept
		}
		e.add(c)
	}
	e.insertAt(loc.ParentID, loc.SlotID, fresh[blockID], loc.Index+1)
	return e.commit(), fresh[blockID], nil
}

// UpdateBlockData merges updates into the block's data. A nil value is stored
// as an explicit null; children are untouched.
func UpdateBlockData(doc *ir.Document, blockID string, updates map[string]any) (*ir.Document, error) {
	if _, ok := doc.Blocks[blockID]; !ok {
		return nil, blockNotFound(blockID)
	}
	if err := ir.ValidateData(updates); err != nil {
		return nil, &StructuralError{Code: ErrCodeInvalidData, Message: err.Error(), BlockID: blockID}
	}
	e := beginEdit(doc)
	b := e.writable(blockID)
	maps.Copy(b.Data, updates)
	return e.commit(), nil
}

// resolveLocation finds blockID in the given parent slot, or anywhere when
// parentID is empty.
func resolveLocation(doc *ir.Document, blockID, parentID, slotID string) (Location, error) {
	if parentID == "" {
		loc, ok := FindBlockLocation(doc, blockID)
		if !ok {
			return Location{}, &StructuralError{Code: ErrCodeNotInSlot, Message: "block is not attached to the tree", BlockID: blockID}
		}
		return loc, nil
	}
	parent, ok := doc.Blocks[parentID]
	if !ok {
		return Location{}, parentNotFound(parentID, slotID)
	}
	if !slotAllowed(parent, slotID) {
		return Location{}, invalidSlot(parentID, parent.Kind, slotID)
	}
	i := slices.Index(parent.Children[slotID], blockID)
	if i < 0 {
		return Location{}, &StructuralError{
			Code:     ErrCodeNotInSlot,
			Message:  "block is not a child of this slot",
			BlockID:  blockID,
			ParentID: parentID,
			SlotID:   slotID,
		}
	}
	return Location{ParentID: parentID, SlotID: slotID, Index: i}, nil
}
