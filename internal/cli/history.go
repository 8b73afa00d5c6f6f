package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [document-id]",
		Short: "List saved documents or the versions of one",
		Long: `Without an argument, list every saved document with its version count.
With a document id, list that document's versions, oldest first.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runListDocuments(opts, cmd)
			}
			return runListVersions(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runListDocuments(opts *StoreOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.open()
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open database", err)
	}
	defer opts.close(st)

	docs, err := st.ListDocuments(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitCommandError, "history failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(docs)
	}
	w := cmd.OutOrStdout()
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents saved.")
		return nil
	}
	for _, d := range docs {
		fmt.Fprintf(w, "%s  %s  %d version(s)  updated %s\n", d.ID, d.Name, d.Versions, d.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func runListVersions(opts *StoreOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.open()
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open database", err)
	}
	defer opts.close(st)

	versions, err := st.ListVersions(cmd.Context(), id)
	if err != nil {
		return formatter.Fail(ExitCommandError, "history failed", err)
	}
	if len(versions) == 0 {
		return formatter.Fail(ExitCommandError, "history failed", fmt.Errorf("document %q has no versions", id))
	}

	if opts.Format == "json" {
		return formatter.Success(versions)
	}
	w := cmd.OutOrStdout()
	for _, v := range versions {
		line := fmt.Sprintf("%3d  %s  %s", v.Seq, v.SavedAt.Format(time.RFC3339), v.Hash[:12])
		if v.Message != "" {
			line += "  " + v.Message
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
