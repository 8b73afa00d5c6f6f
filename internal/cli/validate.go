package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptblocks/internal/catalog"
	"github.com/roach88/scriptblocks/internal/graph"
	"github.com/roach88/scriptblocks/internal/ir"
)

// ValidationIssue is one problem found in a document.
type ValidationIssue struct {
	Code    string `json:"code"`
	BlockID string `json:"blockId,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"` // source line of the block, if known
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Blocks int               `json:"blocks"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document.json|script>",
		Short: "Validate a document's tree and block data",
		Long: `Validate a block document.

Checks the tree structure (single parent per block, declared slots, no
cycles, no dangling children) and checks each block's data against the
block catalog.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	doc, err := opts.loadDocument(cmd, path, ir.NewSequence("b"))
	if err != nil {
		return formatter.Fail(ExitCommandError, "validate failed", err)
	}
	cat, err := catalog.Builtin()
	if err != nil {
		return formatter.Fail(ExitCommandError, "validate failed", err)
	}

	formatter.VerboseLog("Validating %d block(s) of %s", len(doc.Blocks), path)
	result := ValidationResult{Blocks: len(doc.Blocks)}
	result.Issues = append(result.Issues, validationIssues(doc, graph.Validate(doc))...)
	result.Issues = append(result.Issues, validationIssues(doc, cat.ValidateDocument(doc))...)
	result.Valid = len(result.Issues) == 0

	if !result.Valid {
		return outputValidationIssues(formatter, result)
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Document valid (%d blocks)\n", result.Blocks)
	return nil
}

// validationIssues flattens joined structural and catalog errors.
func validationIssues(doc *ir.Document, err error) []ValidationIssue {
	var issues []ValidationIssue
	for _, e := range flattenErrors(err) {
		issue := ValidationIssue{Message: e.Error()}
		var se *graph.StructuralError
		var ce *catalog.Error
		switch {
		case errors.As(e, &se):
			issue.Code, issue.BlockID, issue.Message = string(se.Code), se.BlockID, se.Message
		case errors.As(e, &ce):
			issue.Code, issue.BlockID, issue.Kind, issue.Message = ce.Code, ce.BlockID, ce.Kind, ce.Message
		default:
			issue.Code = ErrCodeGeneric
		}
		if b, ok := doc.Blocks[issue.BlockID]; ok && b.Metadata != nil && b.Metadata.SourceLocation != nil {
			issue.Line = b.Metadata.SourceLocation.Start.Line
		}
		issues = append(issues, issue)
	}
	return issues
}

func flattenErrors(err error) []error {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, e := range joined.Unwrap() {
		out = append(out, flattenErrors(e)...)
	}
	return out
}

// outputValidationIssues outputs validation failures.
func outputValidationIssues(formatter *OutputFormatter, result ValidationResult) error {
	message := fmt.Sprintf("validation failed with %d issue(s)", len(result.Issues))
	if formatter.Format == "json" {
		if err := formatter.Failure(result.Issues[0].Code, result.Issues[0].Message, result); err != nil {
			return err
		}
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, message)
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range result.Issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		if issue.BlockID != "" {
			fmt.Fprintf(formatter.Writer, "  %s [%s]: %s\n\n", issue.Code, issue.BlockID, issue.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
		}
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, message)
}
