package parser

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dop251/goja/ast"
	jsparser "github.com/dop251/goja/parser"

	"github.com/roach88/scriptblocks/internal/ir"
)

// DefaultName is the document name used when neither a name nor a source
// path is given.
const DefaultName = "Untitled workflow"

// Input is the text to parse and how to describe the resulting document.
type Input struct {
	Code string

	// Name defaults to the base name of SourcePath, then to DefaultName.
	Name       string
	SourcePath string
}

// Option configures Parse.
type Option func(*config)

type config struct {
	ids    ir.IDSource
	now    func() time.Time
	logger *slog.Logger
}

// WithIDs sets the id source for the document and its blocks.
func WithIDs(src ir.IDSource) Option {
	return func(c *config) {
		c.ids = src
	}
}

// WithClock sets the time source for document timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Parse builds a document from source text. A syntax error returns a
// *SyntaxError and no document.
func Parse(in Input, opts ...Option) (*ir.Document, error) {
	cfg := config{ids: ir.DefaultIDs, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	prog, err := jsparser.ParseFile(nil, in.SourcePath, in.Code, 0)
	if err != nil {
		return nil, syntaxError(err)
	}

	b := &builder{
		src:    newSource(in.Code),
		ids:    cfg.ids,
		logger: cfg.logger,
		blocks: make(map[string]*ir.Block),
	}

	docID := b.ids.Generate()
	root := &ir.Block{
		ID:       b.ids.Generate(),
		Kind:     ir.KindProgram,
		Data:     map[string]any{},
		Children: map[string][]string{},
	}
	b.blocks[root.ID] = root
	root.Children[ir.SlotBody] = b.statements(prog.Body)

	now := cfg.now().UTC()
	doc := &ir.Document{
		ID:          docID,
		Root:        root.ID,
		Blocks:      b.blocks,
		Connections: []ir.Connection{},
		Metadata: ir.DocumentMetadata{
			Name:       documentName(in),
			CreatedAt:  now,
			UpdatedAt:  now,
			SourcePath: in.SourcePath,
		},
	}

	cfg.logger.Debug("parsed workflow",
		"name", doc.Metadata.Name,
		"blocks", len(doc.Blocks),
		"raw", b.rawCount)
	return doc, nil
}

func documentName(in Input) string {
	if in.Name != "" {
		return in.Name
	}
	if in.SourcePath != "" {
		base := filepath.Base(in.SourcePath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return DefaultName
}

// syntaxError converts a goja parse failure, keeping the first reported
// position. Columns are converted to 0-based.
func syntaxError(err error) *SyntaxError {
	se := &SyntaxError{Message: err.Error(), Err: err}
	var list jsparser.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		se.Message = first.Message
		se.Line = first.Position.Line
		se.Column = max(first.Position.Column-1, 0)
		return se
	}
	var single *jsparser.Error
	if errors.As(err, &single) {
		se.Message = single.Message
		se.Line = single.Position.Line
		se.Column = max(single.Position.Column-1, 0)
	}
	return se
}

// builder accumulates blocks while walking one program.
type builder struct {
	src      *source
	ids      ir.IDSource
	logger   *slog.Logger
	blocks   map[string]*ir.Block
	rawCount int
}

// newBlock allocates a block for node n with every declared slot empty.
func (b *builder) newBlock(kind string, n ast.Node, data map[string]any) *ir.Block {
	start, end := b.src.statementSpan(n)
	return b.newBlockAt(kind, start, end, data)
}

func (b *builder) newBlockAt(kind string, start, end int, data map[string]any) *ir.Block {
	blk := &ir.Block{
		ID:       b.ids.Generate(),
		Kind:     kind,
		Data:     data,
		Children: make(map[string][]string),
		Metadata: &ir.BlockMetadata{
			SourceLocation: b.src.location(start, end),
			Comments:       b.src.leadingComments(start),
		},
	}
	for _, slot := range ir.SlotsFor(kind) {
		blk.Children[slot] = []string{}
	}
	b.blocks[blk.ID] = blk
	return blk
}
