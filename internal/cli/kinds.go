package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptblocks/internal/catalog"
)

// KindsOptions holds flags for the kinds command.
type KindsOptions struct {
	*RootOptions
	Category string
}

// NewKindsCommand creates the kinds command.
func NewKindsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KindsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List the block kinds in the catalog",
		Long: `List every block kind with its fields and child slots, grouped by
category.

Examples:
  scriptblocks kinds
  scriptblocks kinds --category automation
  scriptblocks kinds --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKinds(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Category, "category", "", "only list kinds of this category")

	return cmd
}

func runKinds(opts *KindsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cat, err := catalog.Builtin()
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to load catalog", err)
	}

	var kinds []catalog.KindSchema
	for _, k := range cat.Kinds() {
		if opts.Category == "" || k.Category == opts.Category {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return formatter.Fail(ExitCommandError, "no kinds", fmt.Errorf("unknown category %q: must be one of %v", opts.Category, cat.Categories()))
	}

	if opts.Format == "json" {
		return formatter.Success(kinds)
	}

	w := cmd.OutOrStdout()
	p := newPalette(w)
	for _, category := range cat.Categories() {
		header := false
		for _, k := range kinds {
			if k.Category != category {
				continue
			}
			if !header {
				fmt.Fprintln(w, p.title.Render(category))
				header = true
			}
			line := "  " + p.kind(category, k.Kind) + "  " + k.Label
			if len(k.Fields) > 0 {
				names := make([]string, len(k.Fields))
				for i, f := range k.Fields {
					names[i] = f.Name + ":" + f.Type
				}
				line += "  " + p.value.Render("("+strings.Join(names, ", ")+")")
			}
			if len(k.ChildSlots) > 0 {
				line += "  " + p.slot.Render("["+strings.Join(k.ChildSlots, ", ")+"]")
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}
