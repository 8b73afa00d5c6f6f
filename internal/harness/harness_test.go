package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scriptblocks/internal/graph"
	"github.com/roach88/scriptblocks/internal/parser"
	"github.com/roach88/scriptblocks/internal/testutil"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_StepResults(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/edit_login_flow.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Steps, 7)

	// b-1 is the document and b-2 the root; the six parsed blocks follow.
	assert.Equal(t, "b-9", result.Steps[0].BlockID)
	assert.Equal(t, "b-10", result.Steps[3].BlockID)

	versions := make([]int, len(result.Steps))
	for i, sr := range result.Steps {
		versions[i] = sr.Version
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 5, 5}, versions)
	assert.Equal(t, "CYCLE", result.Steps[5].Error)
	assert.Equal(t, "BLOCK_NOT_FOUND", result.Steps[6].Error)
}

func TestRun_FailedAssertions(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "assertions that do not hold",
		Source:      "wait(1);\n",
		Assertions: []Assertion{
			{Type: AssertKindCount, Kind: "wait-call", Count: 2},
			{Type: AssertCodeContains, Text: "click"},
			{Type: AssertCodeEquals, Text: "wait(1);\n"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Assertion failed: kind_count")
	assert.Contains(t, result.Errors[0], "  1 | wait(1);")
	assert.Contains(t, result.Errors[1], "Assertion failed: code_contains")
}

func TestRun_ExpectedErrorNotRaised(t *testing.T) {
	scenario := &Scenario{
		Name:        "no_error",
		Description: "a step that succeeds although it should fail",
		Source:      "wait(1);\n",
		Steps: []EditStep{
			{Op: OpUpdate, Block: "body[0]", Data: map[string]any{"duration": 2}, ExpectError: "CYCLE"},
		},
		Assertions: []Assertion{{Type: AssertCodeEquals, Text: "wait(2);\n"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected CYCLE, got success")
	assert.Equal(t, "wait(2);\n", result.Code)
}

func TestRun_UnexpectedStepError(t *testing.T) {
	scenario := &Scenario{
		Name:        "broken",
		Description: "a step that fails without expect_error",
		Source:      "wait(1);\n",
		Steps:       []EditStep{{Op: OpRemove, Block: "root"}},
		Assertions:  []Assertion{{Type: AssertRoundTrip}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0] remove")
	assert.Equal(t, graph.ErrCodeRootImmutable, graph.CodeOf(err))
}

func TestRun_SyntaxError(t *testing.T) {
	scenario := &Scenario{
		Name:        "syntax",
		Description: "unparseable source",
		Source:      "if (",
		Assertions:  []Assertion{{Type: AssertRoundTrip}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.True(t, parser.IsSyntaxError(err))
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: a\ndescription: b\nsource: x\nassertion: []\n",
			want: "field assertion not found",
		},
		{
			name: "missing name",
			yaml: "description: b\nassertions: [{type: round_trip}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: a\nassertions: [{type: round_trip}]\n",
			want: "description is required",
		},
		{
			name: "no assertions",
			yaml: "name: a\ndescription: b\n",
			want: "assertions list is required",
		},
		{
			name: "source and source_file",
			yaml: "name: a\ndescription: b\nsource: x\nsource_file: y.js\nassertions: [{type: round_trip}]\n",
			want: "mutually exclusive",
		},
		{
			name: "unknown op",
			yaml: "name: a\ndescription: b\nsteps: [{op: rename}]\nassertions: [{type: round_trip}]\n",
			want: `steps[0]: unknown op "rename"`,
		},
		{
			name: "insert without kind",
			yaml: "name: a\ndescription: b\nsteps: [{op: insert, parent: root, slot: body}]\nassertions: [{type: round_trip}]\n",
			want: "new.kind is required",
		},
		{
			name: "move without destination",
			yaml: "name: a\ndescription: b\nsteps: [{op: move, block: x}]\nassertions: [{type: round_trip}]\n",
			want: "parent and slot are required for move",
		},
		{
			name: "update without data",
			yaml: "name: a\ndescription: b\nsteps: [{op: update, block: x}]\nassertions: [{type: round_trip}]\n",
			want: "data is required for update",
		},
		{
			name: "kind_count without kind",
			yaml: "name: a\ndescription: b\nassertions: [{type: kind_count, count: 1}]\n",
			want: "kind is required for kind_count",
		},
		{
			name: "unknown assertion",
			yaml: "name: a\ndescription: b\nassertions: [{type: looks_good}]\n",
			want: `unknown assertion type "looks_good"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_SourceFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.js"), []byte("wait(1);\n"), 0o644))

	scenario, err := ParseScenario([]byte("name: a\ndescription: b\nsource_file: s.js\nassertions: [{type: round_trip}]\n"), dir)
	require.NoError(t, err)
	assert.Equal(t, "wait(1);\n", scenario.Source)

	_, err = ParseScenario([]byte("name: a\ndescription: b\nsource_file: missing.js\nassertions: [{type: round_trip}]\n"), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read source file")
}

func TestLoadEditScript(t *testing.T) {
	steps, err := LoadEditScript("testdata/scripts/edits.yaml")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, OpUpdate, steps[0].Op)
	assert.Equal(t, "log-call", steps[1].New.Kind)

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("steps: []\n"), 0o644))
	_, err = LoadEditScript(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be non-empty")

	_, err = LoadEditScript(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
}

func TestResolveRef(t *testing.T) {
	doc := testutil.NestedDocument(t)

	tests := []struct {
		ref  string
		want string
	}{
		{"root", doc.Root},
		{"w1", "w1"},
		{"body[0]", "w1"},
		{"body[1].body[0]", "if1"},
		{"body[1].body[0].consequent[0]", "p1"},
		{"body[1].body[0].alternate[0]", "l1"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ResolveRef(doc, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRef_Errors(t *testing.T) {
	doc := testutil.NestedDocument(t)

	_, err := ResolveRef(doc, "body[5]")
	assert.Equal(t, graph.ErrCodeBlockNotFound, graph.CodeOf(err))

	_, err = ResolveRef(doc, "body[0].body[0]")
	assert.Equal(t, graph.ErrCodeBlockNotFound, graph.CodeOf(err))

	_, err = ResolveRef(doc, "body[x]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad index")

	_, err = ResolveRef(doc, "body[1]x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad path segment")
}

func TestApply(t *testing.T) {
	doc := testutil.NestedDocument(t)
	ids := testutil.NewSequentialIDs("a")

	next, id, err := Apply(doc, EditStep{
		Op:     OpInsert,
		Parent: "body[1]",
		Slot:   "body",
		Index:  1,
		New:    &NewBlock{Kind: "wait-call", Data: map[string]any{"duration": 3}},
	}, ids)
	require.NoError(t, err)
	assert.Equal(t, "a-1", id)
	assert.Equal(t, []string{"if1", "a-1"}, next.Blocks["loop"].Children["body"])
	assert.Equal(t, 3.0, next.Blocks["a-1"].Data["duration"])
	assert.Len(t, doc.Blocks["loop"].Children["body"], 1, "source document is unchanged")

	next, _, err = Apply(next, EditStep{Op: OpReorder, Parent: "root", Slot: "body", From: 0, To: 2}, ids)
	require.NoError(t, err)
	assert.Equal(t, []string{"loop", "c1", "w1"}, next.Blocks[next.Root].Children["body"])

	_, _, err = Apply(next, EditStep{Op: "rename", Block: "w1"}, ids)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown op "rename"`)

	_, _, err = Apply(next, EditStep{Op: OpInsert, Parent: "root", Slot: "body"}, ids)
	require.Error(t, err)
}

func TestNormalizeData(t *testing.T) {
	assert.Nil(t, NormalizeData(nil))

	got := NormalizeData(map[string]any{"a": 1, "b": int64(2), "c": uint64(3), "d": "x", "e": 1.5})
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0, "c": 3.0, "d": "x", "e": 1.5}, got)
}
