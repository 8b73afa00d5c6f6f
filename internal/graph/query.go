package graph

import (
	"slices"

	"github.com/roach88/scriptblocks/internal/ir"
)

// Location is the position of a block inside its parent.
type Location struct {
	ParentID string `json:"parentId"`
	SlotID   string `json:"slotId"`
	Index    int    `json:"index"`
}

// FindBlockLocation returns where blockID sits in the tree. The root and
// unknown ids report false.
func FindBlockLocation(doc *ir.Document, blockID string) (Location, bool) {
	return findIn(doc.Blocks, blockID)
}

func findIn(blocks map[string]*ir.Block, blockID string) (Location, bool) {
	// Slot order is visited deterministically so a corrupt document with two
	// parents always reports the same one.
	ids := sortedKeys(blocks)
	for _, pid := range ids {
		parent := blocks[pid]
		for _, slot := range sortedSlots(parent) {
			if i := slices.Index(parent.Children[slot], blockID); i >= 0 {
				return Location{ParentID: pid, SlotID: slot, Index: i}, true
			}
		}
	}
	return Location{}, false
}

// parentIndex maps every child id to its location.
func parentIndex(blocks map[string]*ir.Block) map[string]Location {
	idx := make(map[string]Location, len(blocks))
	for pid, parent := range blocks {
		for slot, ids := range parent.Children {
			for i, id := range ids {
				idx[id] = Location{ParentID: pid, SlotID: slot, Index: i}
			}
		}
	}
	return idx
}

// Descendants returns the ids of every block below blockID in depth-first
// pre-order, not including blockID itself. Ids missing from the document are
// skipped.
func Descendants(doc *ir.Document, blockID string) []string {
	return descendantsIn(doc.Blocks, blockID)
}

func descendantsIn(blocks map[string]*ir.Block, blockID string) []string {
	var out []string
	seen := map[string]bool{blockID: true}
	var walk func(id string)
	walk = func(id string) {
		b, ok := blocks[id]
		if !ok {
			return
		}
		for _, slot := range orderedSlots(b) {
			for _, child := range b.Children[slot] {
				if seen[child] {
					continue
				}
				seen[child] = true
				if _, ok := blocks[child]; !ok {
					continue
				}
				out = append(out, child)
				walk(child)
			}
		}
	}
	walk(blockID)
	return out
}

// Ancestors returns the chain of parent ids from the immediate parent of
// blockID up to the root.
func Ancestors(doc *ir.Document, blockID string) []string {
	return ancestorsIn(parentIndex(doc.Blocks), blockID)
}

func ancestorsIn(parents map[string]Location, blockID string) []string {
	var out []string
	seen := map[string]bool{blockID: true}
	for id := blockID; ; {
		loc, ok := parents[id]
		if !ok || seen[loc.ParentID] {
			return out
		}
		seen[loc.ParentID] = true
		out = append(out, loc.ParentID)
		id = loc.ParentID
	}
}

// orderedSlots lists a block's slots in declaration order followed by any
// undeclared slots sorted by name.
func orderedSlots(b *ir.Block) []string {
	declared := ir.SlotsFor(b.Kind)
	var extra []string
	for slot := range b.Children {
		if !slices.Contains(declared, slot) {
			extra = append(extra, slot)
		}
	}
	slices.Sort(extra)
	return append(declared, extra...)
}

func sortedSlots(b *ir.Block) []string {
	slots := make([]string, 0, len(b.Children))
	for slot := range b.Children {
		slots = append(slots, slot)
	}
	slices.Sort(slots)
	return slots
}

func sortedKeys(blocks map[string]*ir.Block) []string {
	ids := make([]string, 0, len(blocks))
	for id := range blocks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
