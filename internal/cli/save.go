package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptblocks/internal/store"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	StoreOptions
	ID      string
	Message string
}

// SaveResult is the JSON payload of the save command.
type SaveResult struct {
	Version store.VersionInfo `json:"version"`
	Created bool              `json:"created"`
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{StoreOptions: StoreOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "save <script|document.json>",
		Short: "Save a script or document as a new version",
		Long: `Save a script or document to the version history.

A script is stored under --id, or its file name without extension. Saving
content identical to the latest version does not create a new one.

Examples:
  scriptblocks save login.js -m "first draft"
  scriptblocks save edited.json --id login --db ./history.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.ID, "id", "", "document id (default: file name)")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "version message")

	return cmd
}

func runSave(opts *SaveOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	doc, err := opts.loadStored(cmd, path, opts.ID)
	if err != nil {
		return formatter.Fail(ExitCommandError, "save failed", err)
	}
	if doc.ID == "" {
		return formatter.Fail(ExitCommandError, "save failed", fmt.Errorf("no document id: pass --id"))
	}

	st, err := opts.open()
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open database", err)
	}
	defer opts.close(st)

	info, created, err := st.SaveVersion(cmd.Context(), doc, opts.Message)
	if err != nil {
		return formatter.Fail(ExitCommandError, "save failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(SaveResult{Version: info, Created: created})
	}
	w := cmd.OutOrStdout()
	if created {
		fmt.Fprintf(w, "✓ Saved %s version %d\n", info.DocumentID, info.Seq)
	} else {
		fmt.Fprintf(w, "✓ %s unchanged at version %d\n", info.DocumentID, info.Seq)
	}
	return nil
}
