package graph

import (
	"maps"

	"github.com/roach88/scriptblocks/internal/ir"
)

// Option configures block creation and duplication.
type Option func(*options)

type options struct {
	ids ir.IDSource
}

// WithIDs sets the id source for new blocks. Tests pass a deterministic source.
func WithIDs(src ir.IDSource) Option {
	return func(o *options) {
		o.ids = src
	}
}

func buildOptions(opts []Option) options {
	o := options{ids: ir.DefaultIDs}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CreateBlockInstance allocates a block with a fresh id, an empty child list
// for every slot the kind declares, and a copy of initialData.
//
// The block is not attached to any document; pass it to InsertBlock.
func CreateBlockInstance(kind string, initialData map[string]any, opts ...Option) *ir.Block {
	o := buildOptions(opts)

	data := maps.Clone(initialData)
	if data == nil {
		data = map[string]any{}
	}

	children := make(map[string][]string)
	for _, slot := range ir.SlotsFor(kind) {
		children[slot] = []string{}
	}

	return &ir.Block{
		ID:       o.ids.Generate(),
		Kind:     kind,
		Data:     data,
		Children: children,
	}
}

// Clone returns a deep copy of doc sharing no blocks with the original.
func Clone(doc *ir.Document) *ir.Document {
	return doc.Clone()
}
