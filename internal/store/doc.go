// Package store provides SQLite-backed version history for workflow
// documents.
//
// Each save appends a version row holding the document as JSON together with
// its content hash (ir.DocumentHash). A save whose hash equals the newest
// version of the same document is skipped, so saving an unchanged document is
// idempotent.
//
// # Ordering
//
//   - versions are numbered by seq, starting at 1 per document
//   - all list queries ORDER BY seq ASC or id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
