package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptblocks/internal/graph"
	"github.com/roach88/scriptblocks/internal/harness"
	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/session"
	"github.com/roach88/scriptblocks/internal/store"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	StoreOptions
	Emit    string
	Output  string
	Save    bool
	ID      string
	Message string
}

// AppliedStep reports one edit of an edit script.
type AppliedStep struct {
	Index   int    `json:"index"`
	Op      string `json:"op"`
	Version int    `json:"version"`
	BlockID string `json:"blockId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ApplyResult is the JSON payload of the apply command.
type ApplyResult struct {
	Steps    []AppliedStep      `json:"steps"`
	Code     string             `json:"code,omitempty"`
	Document *ir.Document       `json:"document,omitempty"`
	Saved    *store.VersionInfo `json:"saved,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{StoreOptions: StoreOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "apply <script|document.json> <edits.yaml>",
		Short: "Apply an edit script to a script or document",
		Long: `Apply the structural edits of a YAML edit script and print the result.

Edit scripts list steps with op insert, remove, move, reorder, duplicate or
update. Blocks are addressed by id, "root", or a slot path such as
"body[1].consequent[0]". A step with expect_error must fail with that code.

Examples:
  scriptblocks apply login.js edits.yaml
  scriptblocks apply login.js edits.yaml --emit document -o login.json
  scriptblocks apply login.js edits.yaml --save -m "add retry"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Emit, "emit", EmitCode, "what to print (code|document)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "save the result as a new version")
	cmd.Flags().StringVar(&opts.ID, "id", "", "document id for --save (default: file name)")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "version message for --save")

	return cmd
}

func runApply(opts *ApplyOptions, path, scriptPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if opts.Emit != EmitCode && opts.Emit != EmitDocument {
		return formatter.Fail(ExitCommandError, "apply failed", fmt.Errorf("invalid --emit %q: must be code or document", opts.Emit))
	}

	steps, err := harness.LoadEditScript(scriptPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to load edit script", err)
	}
	doc, err := opts.loadStored(cmd, path, opts.ID)
	if err != nil {
		return formatter.Fail(ExitCommandError, "apply failed", err)
	}

	ids := ir.DefaultIDs
	sess := session.New(
		session.WithLogger(opts.Logger),
		session.WithIDs(ids),
		session.WithGeneratorOptions(opts.generatorOptions()...),
	)
	if err := sess.Load(doc, session.LoadOptions{Silent: true}); err != nil {
		return formatter.Fail(ExitCommandError, "apply failed", err)
	}

	var last session.Change
	unsubscribe := sess.Subscribe(func(c session.Change) { last = c })
	defer unsubscribe()

	result := ApplyResult{Steps: make([]AppliedStep, 0, len(steps))}
	for i, step := range steps {
		last = session.Change{}
		_, err := sess.Edit(session.Op(step.Op), func(d *ir.Document) (*ir.Document, string, error) {
			return harness.Apply(d, step, ids)
		})
		applied := AppliedStep{Index: i, Op: step.Op, Version: sess.Document().Version, BlockID: last.BlockID}

		switch {
		case step.ExpectError != "" && err == nil:
			return formatter.Fail(ExitFailure, fmt.Sprintf("step %d (%s)", i, step.Op),
				fmt.Errorf("expected %s, got success", step.ExpectError))
		case step.ExpectError != "":
			if code := string(graph.CodeOf(err)); code != step.ExpectError {
				return formatter.Fail(ExitFailure, fmt.Sprintf("step %d (%s)", i, step.Op),
					fmt.Errorf("expected %s, got %w", step.ExpectError, err))
			}
			applied.Error = string(graph.CodeOf(err))
		case err != nil:
			return formatter.Fail(ExitFailure, fmt.Sprintf("step %d (%s) failed", i, step.Op), err)
		}
		opts.Logger.Debug("step applied", "index", i, "op", step.Op, "version", applied.Version, "block", applied.BlockID)
		result.Steps = append(result.Steps, applied)
	}

	final := sess.Document()
	if err := graph.Validate(final); err != nil {
		return formatter.Fail(ExitFailure, "edits left an invalid document", err)
	}

	if opts.Save {
		st, err := opts.open()
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to open database", err)
		}
		defer opts.close(st)
		info, created, err := st.SaveVersion(cmd.Context(), final, opts.Message)
		if err != nil {
			return formatter.Fail(ExitCommandError, "save failed", err)
		}
		result.Saved = &info
		opts.Logger.Info("edits saved", "document", info.DocumentID, "seq", info.Seq, "created", created)
	}

	return emitDocument(opts.RootOptions, cmd, formatter, final, opts.Emit, opts.Output, func(code string, doc *ir.Document) any {
		result.Code, result.Document = code, doc
		return result
	})
}
