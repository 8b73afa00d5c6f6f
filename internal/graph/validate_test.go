package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/testutil"
)

func TestValidate_AcceptsBuiltDocument(t *testing.T) {
	assert.NoError(t, Validate(testutil.NestedDocument(t)))
	assert.NoError(t, Validate(testutil.NewDocument("empty").Build()))
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name    string
		breakIt func(doc *ir.Document)
		want    string
	}{
		{"missing root", func(d *ir.Document) { d.Root = "gone" }, "root block is missing"},
		{"root kind", func(d *ir.Document) { d.Blocks[d.Root].Kind = ir.KindWhile }, "root block has kind"},
		{"dangling child", func(d *ir.Document) {
			d.Blocks["loop"].Children[ir.SlotBody] = append(d.Blocks["loop"].Children[ir.SlotBody], "ghost")
		}, "references missing block"},
		{"orphan", func(d *ir.Document) { d.Blocks[d.Root].Children[ir.SlotBody] = []string{"w1", "loop"} }, "not attached"},
		{"two parents", func(d *ir.Document) {
			d.Blocks["if1"].Children[ir.SlotAlternate] = append(d.Blocks["if1"].Children[ir.SlotAlternate], "w1")
		}, "appears in 2 slots"},
		{"self parent", func(d *ir.Document) {
			d.Blocks[d.Root].Children[ir.SlotBody] = []string{"w1", "c1"}
			d.Blocks["if1"].Children[ir.SlotConsequent] = []string{"p1", "loop"}
		}, "unreachable from the root"},
		{"undeclared slot", func(d *ir.Document) { d.Blocks["w1"].Children["body"] = []string{} }, `has no slot "body"`},
		{"case outside switch", func(d *ir.Document) { d.Blocks["c1"].Kind = ir.KindSwitchCase }, `cannot hold kind "switch-case"`},
		{"bad data", func(d *ir.Document) { d.Blocks["w1"].Data["x"] = map[string]any{} }, `data["x"]`},
		{"id mismatch", func(d *ir.Document) { d.Blocks["w1"].ID = "other" }, "has id"},
		{"connection", func(d *ir.Document) {
			d.Connections = append(d.Connections, ir.Connection{ID: "k", From: "w1", To: "ghost"})
		}, "ends at a missing block"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testutil.NestedDocument(t)
			tt.breakIt(doc)
			err := Validate(doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
