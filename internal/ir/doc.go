// Package ir provides the block-graph data model shared by every other
// scriptblocks package.
//
// This package contains the document and block types, the closed table of
// block kinds with their child slots, and canonical serialization for
// content hashing. All other internal packages import ir; ir imports nothing
// internal.
//
// Key design constraints:
//   - Blocks are stored flat in Document.Blocks; parent/child relations are
//     expressed only as id lists in Block.Children (arena + index layout)
//   - Block.Data holds primitives only: string, float64, bool or nil
//   - All JSON tags use camelCase so a Document round-trips through any
//     JSON-speaking storage unchanged
package ir
