package cli

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/parser"
	"github.com/roach88/scriptblocks/internal/workflow"
)

// CheckResult reports the round trip of one script.
type CheckResult struct {
	Path string `json:"path"`
	// Lossless is true when the regenerated code parses to the same shape.
	Lossless bool `json:"lossless"`
	// Canonical is true when the regenerated code is byte-identical.
	Canonical  bool              `json:"canonical"`
	Fidelity   workflow.Fidelity `json:"fidelity"`
	Structured float64           `json:"structured"`
	Diff       string            `json:"diff,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <script>...",
		Short: "Check that scripts survive a round trip",
		Long: `Parse each script, regenerate it, and parse the result again.

A script is lossless when both parses have the same block shape. It is
canonical when the regenerated code is byte-identical to the input. The
report also counts raw-statement blocks.

Exit codes:
  0 - All scripts are lossless
  1 - A script changed shape
  2 - Command error (unreadable file, syntax error)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	w := cmd.OutOrStdout()

	results := make([]CheckResult, 0, len(paths))
	lossy := 0
	for _, path := range paths {
		result, err := checkScript(opts, cmd, path)
		if err != nil {
			return formatter.Fail(ExitCommandError, "check failed", err)
		}
		results = append(results, result)
		if !result.Lossless {
			lossy++
		}

		if opts.Format == "json" {
			continue
		}
		mark := "✓"
		if !result.Lossless {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s: %d block(s), %d raw, %.0f%% structured", mark, path,
			result.Fidelity.Blocks, result.Fidelity.Raw, result.Structured*100)
		if !result.Canonical {
			fmt.Fprint(w, ", layout changes")
		}
		fmt.Fprintln(w)
		if result.Diff != "" {
			fmt.Fprintln(w, result.Diff)
		}
	}

	if lossy > 0 {
		message := fmt.Sprintf("%d script(s) changed shape", lossy)
		if err := formatter.Failure(ErrCodeRoundTrip, message, results); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}
	if opts.Format == "json" {
		return formatter.Success(results)
	}
	return nil
}

func checkScript(opts *RootOptions, cmd *cobra.Command, path string) (CheckResult, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return CheckResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := workflow.ImportWorkflow(workflow.ImportRequest{Code: string(data), Name: documentName(path)},
		parser.WithIDs(ir.NewSequence("c")), parser.WithLogger(opts.Logger))
	if err != nil {
		return CheckResult{}, err
	}
	code, again, err := workflow.RoundTrip(doc, parser.WithIDs(ir.NewSequence("c")), parser.WithLogger(opts.Logger))
	if err != nil {
		return CheckResult{}, fmt.Errorf("%s: %w", path, err)
	}

	fidelity := workflow.MeasureFidelity(doc)
	diff := cmp.Diff(ir.RootShape(doc), ir.RootShape(again))
	return CheckResult{
		Path:       path,
		Lossless:   diff == "",
		Canonical:  code == string(data),
		Fidelity:   fidelity,
		Structured: fidelity.Structured(),
		Diff:       diff,
	}, nil
}
