package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/scriptblocks/internal/graph"
	"github.com/roach88/scriptblocks/internal/ir"
)

// RootRef names the program block in a step.
const RootRef = "root"

// ResolveRef turns a block reference into an id. A reference without
// brackets is an id, except RootRef. A path that runs past the end of a slot
// is reported as a missing block.
func ResolveRef(doc *ir.Document, ref string) (string, error) {
	if ref == RootRef {
		return doc.Root, nil
	}
	if !strings.Contains(ref, "[") {
		return ref, nil
	}

	cur := doc.Root
	for _, seg := range strings.Split(ref, ".") {
		slot, rest, ok := strings.Cut(seg, "[")
		if !ok || !strings.HasSuffix(rest, "]") || slot == "" {
			return "", fmt.Errorf("bad path segment %q in %q", seg, ref)
		}
		i, err := strconv.Atoi(strings.TrimSuffix(rest, "]"))
		if err != nil {
			return "", fmt.Errorf("bad index in %q: %w", seg, err)
		}
		b, ok := doc.Blocks[cur]
		if !ok {
			return "", &graph.StructuralError{Code: graph.ErrCodeBlockNotFound, Message: "path runs through a missing block", BlockID: cur}
		}
		children := b.Children[slot]
		if i < 0 || i >= len(children) {
			return "", &graph.StructuralError{
				Code:     graph.ErrCodeBlockNotFound,
				Message:  fmt.Sprintf("no block at %s", ref),
				ParentID: cur,
				SlotID:   slot,
			}
		}
		cur = children[i]
	}
	return cur, nil
}

// Apply runs one edit step against doc and returns the new document and, for
// insert and duplicate, the id of the created block. doc is not modified.
func Apply(doc *ir.Document, st EditStep, ids ir.IDSource) (*ir.Document, string, error) {
	var blockID, parentID string
	var err error
	if st.Block != "" {
		if blockID, err = ResolveRef(doc, st.Block); err != nil {
			return nil, "", err
		}
	}
	if st.Parent != "" {
		if parentID, err = ResolveRef(doc, st.Parent); err != nil {
			return nil, "", err
		}
	}

	switch st.Op {
	case OpInsert:
		if st.New == nil {
			return nil, "", fmt.Errorf("insert: no block to create")
		}
		b := graph.CreateBlockInstance(st.New.Kind, NormalizeData(st.New.Data), graph.WithIDs(ids))
		next, err := graph.InsertBlock(doc, parentID, st.Slot, b, st.Index)
		return next, b.ID, err
	case OpRemove:
		next, err := graph.RemoveBlock(doc, blockID, parentID, st.Slot)
		return next, "", err
	case OpMove:
		next, err := graph.MoveBlock(doc, blockID, parentID, st.Slot, st.Index)
		return next, "", err
	case OpReorder:
		next, err := graph.ReorderChild(doc, parentID, st.Slot, st.From, st.To)
		return next, "", err
	case OpDuplicate:
		return graph.DuplicateBlock(doc, blockID, graph.WithIDs(ids))
	case OpUpdate:
		next, err := graph.UpdateBlockData(doc, blockID, NormalizeData(st.Data))
		return next, "", err
	default:
		return nil, "", fmt.Errorf("unknown op %q", st.Op)
	}
}

// NormalizeData converts YAML integers to float64, the type numbers have
// after parsing or a JSON round trip.
func NormalizeData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch n := v.(type) {
		case int:
			out[k] = float64(n)
		case int64:
			out[k] = float64(n)
		case uint64:
			out[k] = float64(n)
		default:
			out[k] = v
		}
	}
	return out
}
