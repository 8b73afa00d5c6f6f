package graph

import (
	"errors"
	"fmt"

	"github.com/roach88/scriptblocks/internal/ir"
)

// Validate checks the tree invariants of doc and returns every violation
// joined into one error, or nil.
//
// Checked: the root exists and is a program; every child id exists; every
// non-root block has exactly one parent; no block is its own descendant;
// block ids match their map keys; data holds only primitives; connections
// reference existing blocks.
func Validate(doc *ir.Document) error {
	var errs []error
	add := func(code StructuralErrorCode, id, format string, args ...any) {
		errs = append(errs, &StructuralError{Code: code, Message: fmt.Sprintf(format, args...), BlockID: id})
	}

	root, ok := doc.Blocks[doc.Root]
	switch {
	case !ok:
		add(ErrCodeBlockNotFound, doc.Root, "root block is missing")
	case root.Kind != ir.KindProgram:
		add(ErrCodeInvalidSlot, doc.Root, "root block has kind %q, want %q", root.Kind, ir.KindProgram)
	}

	parentCount := make(map[string]int, len(doc.Blocks))
	for _, pid := range sortedKeys(doc.Blocks) {
		b := doc.Blocks[pid]
		if b.ID != pid {
			add(ErrCodeDuplicateID, pid, "block stored under %q has id %q", pid, b.ID)
		}
		if err := ir.ValidateData(b.Data); err != nil {
			add(ErrCodeInvalidData, pid, "%v", err)
		}
		for _, slot := range sortedSlots(b) {
			if ir.IsKnownKind(b.Kind) && !ir.HasSlot(b.Kind, slot) {
				add(ErrCodeInvalidSlot, pid, "kind %q has no slot %q", b.Kind, slot)
			}
			for _, child := range b.Children[slot] {
				c, ok := doc.Blocks[child]
				if !ok {
					add(ErrCodeDanglingChild, pid, "slot %q references missing block %q", slot, child)
					continue
				}
				if !ir.SlotAccepts(slot, c.Kind) {
					add(ErrCodeInvalidSlot, child, "slot %q of %q cannot hold kind %q", slot, pid, c.Kind)
				}
				parentCount[child]++
			}
		}
	}

	for _, id := range sortedKeys(doc.Blocks) {
		n := parentCount[id]
		switch {
		case id == doc.Root && n > 0:
			add(ErrCodeCycle, id, "root block is referenced as a child")
		case id != doc.Root && n == 0:
			add(ErrCodeNotInSlot, id, "block is not attached to the tree")
		case n > 1:
			add(ErrCodeDuplicateID, id, "block appears in %d slots", n)
		}
	}

	if ok {
		reachable := descendantsIn(doc.Blocks, doc.Root)
		if len(errs) == 0 && len(reachable) != len(doc.Blocks)-1 {
			// Every block has one parent yet some are unreachable: they form a
			// cycle detached from the root.
			add(ErrCodeCycle, "", "%d blocks are unreachable from the root", len(doc.Blocks)-1-len(reachable))
		}
	}

	for _, c := range doc.Connections {
		if _, ok := doc.Blocks[c.From]; !ok {
			add(ErrCodeDanglingChild, c.From, "connection %q starts at a missing block", c.ID)
		}
		if _, ok := doc.Blocks[c.To]; !ok {
			add(ErrCodeDanglingChild, c.To, "connection %q ends at a missing block", c.ID)
		}
	}

	return errors.Join(errs...)
}
