// Package testutil provides deterministic id sources, clocks and document
// builders for tests.
package testutil

import "github.com/roach88/scriptblocks/internal/ir"

// SequentialIDs generates ids "<prefix>-1", "<prefix>-2", ... in order.
//
// The same test with a fresh SequentialIDs produces byte-identical documents,
// which golden files rely on.
type SequentialIDs = ir.Sequence

// NewSequentialIDs creates a generator. An empty prefix defaults to "b".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "b"
	}
	return ir.NewSequence(prefix)
}

// FixedIDs always returns the same id. Useful for provoking duplicate-id
// failures.
type FixedIDs string

// Generate returns the fixed id.
func (f FixedIDs) Generate() string {
	return string(f)
}
