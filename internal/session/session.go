// Package session owns the document being edited. It applies one structural
// edit at a time, keeps undo and redo stacks, and tells subscribers about each
// new revision.
//
// Thread-safety model:
//   - every exported method is safe from any goroutine
//   - edits are serialized; an edit sees the result of the previous one
//   - subscribers run after the edit is committed, outside the edit lock, in
//     commit order; a subscriber may read the session but must not edit it
//     synchronously
//
// Documents handed out are shared with the session and must be treated as
// read-only. The graph package never modifies a document in place, so a
// snapshot stays valid after later edits.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/roach88/scriptblocks/internal/generator"
	"github.com/roach88/scriptblocks/internal/graph"
	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/parser"
)

// DefaultHistoryLimit is the number of undo steps kept by default.
const DefaultHistoryLimit = 100

// ErrNoDocument is returned by edits made before any document is loaded.
var ErrNoDocument = errors.New("session: no document loaded")

// Op names the edit that produced a revision.
type Op string

const (
	OpLoad      Op = "load"
	OpInsert    Op = "insert"
	OpRemove    Op = "remove"
	OpMove      Op = "move"
	OpReorder   Op = "reorder"
	OpDuplicate Op = "duplicate"
	OpUpdate    Op = "update"
	OpUndo      Op = "undo"
	OpRedo      Op = "redo"
)

// Change describes a committed revision.
type Change struct {
	Op       Op
	Version  int
	Document *ir.Document
	// BlockID is the block the edit targeted, or the new block for insert
	// and duplicate. Empty for load, undo and redo.
	BlockID string
}

// Listener receives committed changes.
type Listener func(Change)

// LoadOptions controls Load.
type LoadOptions struct {
	// Silent suppresses subscriber notification. Used for bulk loads where
	// the caller refreshes its own view afterwards.
	Silent bool

	// KeepHistory keeps the undo stack so the load itself can be undone.
	KeepHistory bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger edits are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithHistoryLimit bounds the undo stack. Zero or negative disables undo.
func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		s.limit = n
	}
}

// WithIDs sets the id source for duplicated blocks.
func WithIDs(src ir.IDSource) Option {
	return func(s *Session) {
		s.ids = src
	}
}

// WithClock sets the source of the UpdatedAt stamp committed edits carry.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithGeneratorOptions sets the options Code passes to the generator.
func WithGeneratorOptions(opts ...generator.Option) Option {
	return func(s *Session) {
		s.genOpts = opts
	}
}

// Session is the serializing owner of one document.
type Session struct {
	mu   sync.Mutex
	doc  *ir.Document
	undo []*ir.Document
	redo []*ir.Document

	// notifyMu keeps deliveries in commit order without holding mu.
	notifyMu sync.Mutex

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int

	limit   int
	ids     ir.IDSource
	genOpts []generator.Option
	now     func() time.Time
	logger  *slog.Logger
}

// New creates an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		listeners: make(map[int]Listener),
		limit:     DefaultHistoryLimit,
		ids:       ir.DefaultIDs,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for every non-silent change and returns a function
// that removes it.
func (s *Session) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

// Load replaces the document with a copy of doc and clears redo. Undo is
// cleared too unless opts.KeepHistory is set.
func (s *Session) Load(doc *ir.Document, opts LoadOptions) error {
	if doc == nil {
		return ErrNoDocument
	}
	loaded := graph.Clone(doc)

	s.mu.Lock()
	if opts.KeepHistory && s.doc != nil {
		s.pushUndo(s.doc)
	} else {
		s.undo = nil
	}
	s.redo = nil
	s.doc = loaded
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.logger.Info("document loaded",
		"document", loaded.ID,
		"blocks", len(loaded.Blocks),
		"silent", opts.Silent,
	)
	s.deliver(Change{Op: OpLoad, Version: loaded.Version, Document: loaded}, opts.Silent)
	return nil
}

// Import parses code and loads the result.
func (s *Session) Import(in parser.Input, opts LoadOptions, parseOpts ...parser.Option) (*ir.Document, error) {
	doc, err := parser.Parse(in, append([]parser.Option{parser.WithIDs(s.ids), parser.WithLogger(s.logger)}, parseOpts...)...)
	if err != nil {
		return nil, err
	}
	if err := s.Load(doc, opts); err != nil {
		return nil, err
	}
	return s.Document(), nil
}

// Document returns the current document, or nil before the first load.
func (s *Session) Document() *ir.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Code regenerates source for the current document.
func (s *Session) Code() (string, error) {
	doc := s.Document()
	if doc == nil {
		return "", ErrNoDocument
	}
	return generator.Generate(doc, s.genOpts...)
}

// CanUndo reports whether Undo has a revision to restore.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether Redo has a revision to restore.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Insert adds block under parentID.slotID at index.
func (s *Session) Insert(parentID, slotID string, block *ir.Block, index int) (*ir.Document, error) {
	return s.apply(OpInsert, func(doc *ir.Document) (*ir.Document, string, error) {
		next, err := graph.InsertBlock(doc, parentID, slotID, block, index)
		if block == nil {
			return next, "", err
		}
		return next, block.ID, err
	})
}

// Remove deletes blockID and its subtree. An empty parentID locates the
// block.
func (s *Session) Remove(blockID, parentID, slotID string) (*ir.Document, error) {
	return s.apply(OpRemove, func(doc *ir.Document) (*ir.Document, string, error) {
		next, err := graph.RemoveBlock(doc, blockID, parentID, slotID)
		return next, blockID, err
	})
}

// Move relocates blockID to parentID.slotID at index.
func (s *Session) Move(blockID, parentID, slotID string, index int) (*ir.Document, error) {
	return s.apply(OpMove, func(doc *ir.Document) (*ir.Document, string, error) {
		next, err := graph.MoveBlock(doc, blockID, parentID, slotID, index)
		return next, blockID, err
	})
}

// Reorder moves a child within one slot.
func (s *Session) Reorder(parentID, slotID string, from, to int) (*ir.Document, error) {
	return s.apply(OpReorder, func(doc *ir.Document) (*ir.Document, string, error) {
		next, err := graph.ReorderChild(doc, parentID, slotID, from, to)
		return next, parentID, err
	})
}

// Duplicate clones blockID next to itself and returns the copy's id.
func (s *Session) Duplicate(blockID string) (*ir.Document, string, error) {
	var copyID string
	doc, err := s.apply(OpDuplicate, func(doc *ir.Document) (*ir.Document, string, error) {
		next, id, err := graph.DuplicateBlock(doc, blockID, graph.WithIDs(s.ids))
		copyID = id
		return next, id, err
	})
	if err != nil {
		return doc, "", err
	}
	return doc, copyID, nil
}

// Update merges updates into the data of blockID.
func (s *Session) Update(blockID string, updates map[string]any) (*ir.Document, error) {
	return s.apply(OpUpdate, func(doc *ir.Document) (*ir.Document, string, error) {
		next, err := graph.UpdateBlockData(doc, blockID, updates)
		return next, blockID, err
	})
}

// EditFunc computes the next revision from the current one and returns the id
// of the block it created or targeted. Returning doc itself means no change.
type EditFunc func(doc *ir.Document) (*ir.Document, string, error)

// Edit commits the revision computed by fn and records it as op. fn runs
// with the session locked and must not call back into the session.
func (s *Session) Edit(op Op, fn EditFunc) (*ir.Document, error) {
	return s.apply(op, fn)
}

// Undo restores the revision before the last edit.
func (s *Session) Undo() (*ir.Document, bool) {
	return s.step(OpUndo)
}

// Redo reapplies the last undone edit.
func (s *Session) Redo() (*ir.Document, bool) {
	return s.step(OpRedo)
}

func (s *Session) step(op Op) (*ir.Document, bool) {
	s.mu.Lock()
	from, to := &s.undo, &s.redo
	if op == OpRedo {
		from, to = to, from
	}
	if len(*from) == 0 || s.doc == nil {
		s.mu.Unlock()
		return s.Document(), false
	}
	prev := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	*to = append(*to, s.doc)
	s.doc = prev
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.logger.Debug("history step", "op", op, "version", prev.Version)
	s.deliver(Change{Op: op, Version: prev.Version, Document: prev}, false)
	return prev, true
}

// apply runs edit against the current document and commits its result,
// stamped with the edit time. A failed edit leaves the session untouched.
// An edit that returns the same document is a no-op and is neither recorded
// nor announced.
func (s *Session) apply(op Op, edit func(*ir.Document) (*ir.Document, string, error)) (*ir.Document, error) {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return nil, ErrNoDocument
	}
	cur := s.doc
	next, blockID, err := edit(cur)
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("edit rejected", "op", op, "block", blockID, "error", err)
		return cur, fmt.Errorf("%s: %w", op, err)
	}
	if next == cur {
		s.mu.Unlock()
		return cur, nil
	}
	stamped := *next
	stamped.Metadata.UpdatedAt = s.now().UTC()
	next = &stamped
	s.pushUndo(cur)
	s.redo = nil
	s.doc = next
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.logger.Debug("edit applied", "op", op, "block", blockID, "version", next.Version)
	s.deliver(Change{Op: op, Version: next.Version, Document: next, BlockID: blockID}, false)
	return next, nil
}

func (s *Session) pushUndo(doc *ir.Document) {
	if s.limit <= 0 {
		s.undo = nil
		return
	}
	s.undo = append(s.undo, doc)
	if over := len(s.undo) - s.limit; over > 0 {
		s.undo = slices.Clone(s.undo[over:])
	}
}

// deliver runs the listeners and releases notifyMu, which the caller took
// while still holding mu so deliveries follow commit order.
func (s *Session) deliver(change Change, silent bool) {
	defer s.notifyMu.Unlock()
	if silent {
		return
	}

	s.listenersMu.Lock()
	ids := slices.Sorted(maps.Keys(s.listeners))
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
