// Package workflow is the import/export boundary of the translation engine:
// source text in, document out, and back.
package workflow

import (
	"fmt"

	"github.com/roach88/scriptblocks/internal/generator"
	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/parser"
)

// ImportRequest is the source of a workflow.
type ImportRequest struct {
	Code       string
	Name       string
	SourcePath string
}

// ExportRequest names the document to turn back into source.
type ExportRequest struct {
	Document *ir.Document
}

// ImportWorkflow parses code into a document. Syntax errors are returned as
// *parser.SyntaxError.
func ImportWorkflow(req ImportRequest, opts ...parser.Option) (*ir.Document, error) {
	return parser.Parse(parser.Input{Code: req.Code, Name: req.Name, SourcePath: req.SourcePath}, opts...)
}

// ExportWorkflow generates the source of a document.
func ExportWorkflow(req ExportRequest, opts ...generator.Option) (string, error) {
	if req.Document == nil {
		return "", fmt.Errorf("export: no document")
	}
	return generator.Generate(req.Document, opts...)
}

// Fidelity summarizes how much of a document has a structured view.
type Fidelity struct {
	Blocks int `json:"blocks"`
	Raw    int `json:"raw"`
}

// Structured is the fraction of non-root blocks that are not raw statements.
func (f Fidelity) Structured() float64 {
	if f.Blocks == 0 {
		return 1
	}
	return float64(f.Blocks-f.Raw) / float64(f.Blocks)
}

// MeasureFidelity counts the non-root blocks of doc and how many are raw.
func MeasureFidelity(doc *ir.Document) Fidelity {
	var f Fidelity
	for id, b := range doc.Blocks {
		if id == doc.Root {
			continue
		}
		f.Blocks++
		if b.Kind == ir.KindRawStatement {
			f.Raw++
		}
	}
	return f
}

// RoundTrip exports doc and imports the result again, returning the
// regenerated code and the re-parsed document. A document that denotes the
// same program has the same ir.RootShape as the re-parsed one.
func RoundTrip(doc *ir.Document, opts ...parser.Option) (string, *ir.Document, error) {
	code, err := ExportWorkflow(ExportRequest{Document: doc})
	if err != nil {
		return "", nil, err
	}
	again, err := ImportWorkflow(ImportRequest{
		Code:       code,
		Name:       doc.Metadata.Name,
		SourcePath: doc.Metadata.SourcePath,
	}, opts...)
	if err != nil {
		return code, nil, fmt.Errorf("regenerated code does not parse: %w", err)
	}
	return code, again, nil
}
