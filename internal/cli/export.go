package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/workflow"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// ExportResult is the JSON payload of the export command.
type ExportResult struct {
	Code   string `json:"code,omitempty"`
	Output string `json:"output,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <document.json|script>",
		Short: "Generate a script from a block document",
		Long: `Generate source code from a block document.

A script argument is parsed first, which rewrites it in canonical layout.
The indent unit comes from [generator] indent in the config file.

Examples:
  scriptblocks export login.json
  scriptblocks export login.json -o login.js`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the code to a file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	doc, err := opts.loadDocument(cmd, path, ir.DefaultIDs)
	if err != nil {
		return formatter.Fail(ExitCommandError, "export failed", err)
	}
	code, err := workflow.ExportWorkflow(workflow.ExportRequest{Document: doc}, opts.generatorOptions()...)
	if err != nil {
		return formatter.Fail(ExitCommandError, "export failed", err)
	}

	if opts.Output != "" {
		if err := writeOutput(cmd, opts.Output, []byte(code)); err != nil {
			return formatter.Fail(ExitCommandError, "export failed", err)
		}
		if opts.Format == "json" {
			return formatter.Success(ExportResult{Output: opts.Output})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %s to %s\n", doc.Metadata.Name, opts.Output)
		return nil
	}

	if opts.Format == "json" {
		return formatter.Success(ExportResult{Code: code})
	}
	return writeOutput(cmd, "", []byte(code))
}
