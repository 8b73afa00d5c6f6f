package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/workflow"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Output string
}

// ImportResult is the JSON payload of the import command.
type ImportResult struct {
	Document *ir.Document      `json:"document,omitempty"`
	Output   string            `json:"output,omitempty"`
	Fidelity workflow.Fidelity `json:"fidelity"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <script>",
		Short: "Parse a script into a block document",
		Long: `Parse a script into a block document and print it as JSON.

Statements without a block form become raw-statement blocks holding their
exact source text. Use "-" to read the script from stdin.

Examples:
  scriptblocks import login.js
  scriptblocks import login.js -o login.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the document to a file instead of stdout")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	doc, err := opts.loadDocument(cmd, path, ir.DefaultIDs)
	if err != nil {
		return formatter.Fail(ExitCommandError, "import failed", err)
	}
	fidelity := workflow.MeasureFidelity(doc)
	opts.Logger.Info("script imported", "name", doc.Metadata.Name, "blocks", fidelity.Blocks, "raw", fidelity.Raw)

	if opts.Output != "" {
		data, err := encodeDocument(doc)
		if err != nil {
			return formatter.Fail(ExitCommandError, "import failed", err)
		}
		if err := writeOutput(cmd, opts.Output, data); err != nil {
			return formatter.Fail(ExitCommandError, "import failed", err)
		}
		if opts.Format == "json" {
			return formatter.Success(ImportResult{Output: opts.Output, Fidelity: fidelity})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d block(s), %d raw, to %s\n", fidelity.Blocks, fidelity.Raw, opts.Output)
		return nil
	}

	if opts.Format == "json" {
		return formatter.Success(ImportResult{Document: doc, Fidelity: fidelity})
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return formatter.Fail(ExitCommandError, "import failed", err)
	}
	return writeOutput(cmd, "", data)
}
