package ir

import "maps"

// Shape is the id-free structure of a block subtree: kind, data and ordered
// children. Two documents denote the same program when their root shapes are
// equal, whatever ids or source locations they carry.
type Shape struct {
	Kind  string             `json:"kind" yaml:"kind"`
	Data  map[string]any     `json:"data,omitempty" yaml:"data,omitempty"`
	Slots map[string][]Shape `json:"slots,omitempty" yaml:"slots,omitempty"`
}

// ShapeOf returns the shape of the subtree rooted at id. Dangling child ids
// are skipped; Validate reports them.
func ShapeOf(doc *Document, id string) Shape {
	return shapeOf(doc, id, map[string]bool{})
}

func shapeOf(doc *Document, id string, seen map[string]bool) Shape {
	b, ok := doc.Blocks[id]
	if !ok || seen[id] {
		return Shape{}
	}
	seen[id] = true
	defer delete(seen, id)

	s := Shape{Kind: b.Kind}
	if len(b.Data) > 0 {
		s.Data = maps.Clone(b.Data)
	}
	for slot, ids := range b.Children {
		if len(ids) == 0 {
			continue
		}
		if s.Slots == nil {
			s.Slots = make(map[string][]Shape)
		}
		children := make([]Shape, 0, len(ids))
		for _, child := range ids {
			if _, ok := doc.Blocks[child]; ok {
				children = append(children, shapeOf(doc, child, seen))
			}
		}
		s.Slots[slot] = children
	}
	return s
}

// RootShape is ShapeOf the document root.
func RootShape(doc *Document) Shape {
	return ShapeOf(doc, doc.Root)
}
