// Package graph implements structural edits over a block document.
//
// Every operation takes a *ir.Document and returns a new *ir.Document. The
// input is never modified: the block map is copied and only the blocks an
// edit touches are cloned, so untouched blocks are shared between the old and
// new document. Callers that hold an older document (undo stacks, the store)
// keep seeing exactly what they saw before the edit.
//
// Edits preserve the tree invariants of the document:
//
//   - every id in a child slot exists in the block map
//   - each non-root block appears in exactly one slot
//   - no block is its own descendant
//   - the root program block is never removed, moved or duplicated
//
// A rejected edit returns a *StructuralError and leaves nothing changed.
// Successful edits increment Document.Version.
package graph
