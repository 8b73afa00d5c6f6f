package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptblocks/internal/catalog"
	"github.com/roach88/scriptblocks/internal/ir"
)

// TreeNode is the JSON form of a block and its slots.
type TreeNode struct {
	ID    string                `json:"id"`
	Kind  string                `json:"kind"`
	Label string                `json:"label,omitempty"`
	Data  map[string]any        `json:"data,omitempty"`
	Slots map[string][]TreeNode `json:"slots,omitempty"`
}

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <script|document.json>",
		Short: "Show the block tree of a script or document",
		Long: `Print the blocks of a script or document as an indented tree.

Each line shows the block kind, its id and its data. Slot names introduce
the children they hold.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runTree(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	doc, err := opts.loadDocument(cmd, path, ir.NewSequence("b"))
	if err != nil {
		return formatter.Fail(ExitCommandError, "tree failed", err)
	}
	cat, err := catalog.Builtin()
	if err != nil {
		return formatter.Fail(ExitCommandError, "tree failed", err)
	}
	if _, ok := doc.Blocks[doc.Root]; !ok {
		return formatter.Fail(ExitCommandError, "tree failed", fmt.Errorf("root block %q is missing", doc.Root))
	}

	if opts.Format == "json" {
		return formatter.Success(buildTree(doc, cat, doc.Root, map[string]bool{}))
	}

	w := cmd.OutOrStdout()
	p := newPalette(w)
	fmt.Fprintln(w, p.title.Render(doc.Metadata.Name))
	printTree(w, p, doc, cat, doc.Root, 0, map[string]bool{})
	return nil
}

func buildTree(doc *ir.Document, cat *catalog.Catalog, id string, seen map[string]bool) TreeNode {
	b, ok := doc.Blocks[id]
	if !ok || seen[id] {
		return TreeNode{ID: id}
	}
	seen[id] = true

	node := TreeNode{ID: id, Kind: b.Kind, Data: b.Data}
	if schema, ok := cat.Lookup(b.Kind); ok {
		node.Label = schema.Label
	}
	for _, slot := range slotOrder(b) {
		children := make([]TreeNode, 0, len(b.Children[slot]))
		for _, child := range b.Children[slot] {
			children = append(children, buildTree(doc, cat, child, seen))
		}
		if node.Slots == nil {
			node.Slots = make(map[string][]TreeNode)
		}
		node.Slots[slot] = children
	}
	return node
}

func printTree(w io.Writer, p *palette, doc *ir.Document, cat *catalog.Catalog, id string, depth int, seen map[string]bool) {
	indent := strings.Repeat("  ", depth)
	b, ok := doc.Blocks[id]
	if !ok {
		fmt.Fprintf(w, "%s%s %s\n", indent, p.kind("code", "missing"), p.id.Render(id))
		return
	}
	if seen[id] {
		fmt.Fprintf(w, "%s%s %s\n", indent, p.kind("code", "cycle"), p.id.Render(id))
		return
	}
	seen[id] = true

	schema, _ := cat.Lookup(b.Kind)
	line := indent + p.kind(schema.Category, b.Kind) + " " + p.id.Render(id)
	if summary := summarize(b, schema); summary != "" {
		line += " " + p.value.Render(summary)
	}
	fmt.Fprintln(w, line)

	for _, slot := range slotOrder(b) {
		fmt.Fprintf(w, "%s  %s\n", indent, p.slot.Render(slot+":"))
		for _, child := range b.Children[slot] {
			printTree(w, p, doc, cat, child, depth+2, seen)
		}
	}
}

// slotOrder lists the declared slots of b's kind first, then any others.
func slotOrder(b *ir.Block) []string {
	order := ir.SlotsFor(b.Kind)
	var extra []string
	for slot := range b.Children {
		if !slices.Contains(order, slot) {
			extra = append(extra, slot)
		}
	}
	slices.Sort(extra)
	return append(order, extra...)
}

// summarize renders b's data as key=value pairs in key order. Expressions
// and code fields are shown unquoted. Markers, empty bindings and
// continuation lines are left out.
func summarize(b *ir.Block, schema catalog.KindSchema) string {
	code := map[string]bool{ir.FieldCode: true}
	for _, f := range schema.Fields {
		if f.Type == "code" {
			code[f.Name] = true
		}
	}

	keys := make([]string, 0, len(b.Data))
	for k := range b.Data {
		if strings.HasSuffix(k, ir.ExpressionKey("")) {
			continue
		}
		if k == ir.FieldVariable && b.Text(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var v string
		switch val := b.Data[k].(type) {
		case string:
			first, _, more := strings.Cut(val, "\n")
			switch {
			case b.IsExpression(k) || code[k]:
				v = first
			default:
				v = fmt.Sprintf("%q", first)
			}
			if more {
				v += " …"
			}
		default:
			v = fmt.Sprint(val)
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}
