package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginCode = `open("Chrome", true, 5);
wait(2);
if (loggedIn) {
  click("#profile");
} else {
  type(user.name);
}
log("done");
`

const editedCode = `open("Chrome", true, 5);
wait(3);
if (loggedIn) {
  click("#profile");
} else {
  type(user.name);
}
log("done");
log("end");
`

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "scriptblocks", cmd.Use)
	assert.Contains(t, cmd.Long, "raw code")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"import", "export", "check", "tree", "validate", "kinds", "apply", "save", "history", "checkout", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "kinds", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "c.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[generator]\nindent = \"\\t\"\n\n[output]\nformat = \"json\"\n"), 0o644))

	out, err := execute(t, "export", "testdata/login.js", "--config", cfg)
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Contains(t, data["code"], "\n\tclick(\"#profile\");\n")

	// A flag overrides the file.
	out, err = execute(t, "export", "testdata/login.js", "--config", cfg, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "\n\tclick(\"#profile\");\n")
	assert.NotContains(t, out, `"status"`)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[output]\nformat = \"xml\"\n"), 0o644))
	_, err = execute(t, "kinds", "--config", bad)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImport(t *testing.T) {
	out, err := execute(t, "import", "testdata/login.js")
	require.NoError(t, err)
	doc, err := decodeDocument([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "login", doc.Metadata.Name)
	assert.Len(t, doc.Blocks, 7)

	out, err = execute(t, "import", "testdata/login.js", "--format", "json")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, map[string]any{"blocks": 6.0, "raw": 0.0}, data["fidelity"])
	assert.NotNil(t, data["document"])
}

func TestImport_ToFileAndExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")

	out, err := execute(t, "import", "testdata/login.js", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Imported 6 block(s), 0 raw")

	out, err = execute(t, "export", path)
	require.NoError(t, err)
	assert.Equal(t, loginCode, out)

	code := filepath.Join(t.TempDir(), "login.js")
	_, err = execute(t, "export", path, "-o", code)
	require.NoError(t, err)
	written, err := os.ReadFile(code)
	require.NoError(t, err)
	assert.Equal(t, loginCode, string(written))
}

func TestImport_SyntaxError(t *testing.T) {
	out, err := execute(t, "import", "testdata/syntax.js")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")

	out, err = execute(t, "import", "testdata/syntax.js", "--format", "json")
	require.Error(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeSyntax, resp.Error.Code)
}

func TestImport_MissingFile(t *testing.T) {
	out, err := execute(t, "import", "testdata/nope.js")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E001]")
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check", "testdata/login.js")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ testdata/login.js: 6 block(s), 0 raw, 100% structured, layout changes")

	out, err = execute(t, "check", "testdata/login.js", "--format", "json")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	results := resp.Data.([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, true, first["lossless"])
	assert.Equal(t, false, first["canonical"])
}

func TestCheck_Canonical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canonical.js")
	require.NoError(t, os.WriteFile(path, []byte(loginCode), 0o644))

	out, err := execute(t, "check", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "layout changes")
}

func TestTree(t *testing.T) {
	out, err := execute(t, "tree", "testdata/login.js")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Equal(t, "login", lines[0])
	assert.Equal(t, "program b-2", lines[1])
	assert.Equal(t, "  body:", lines[2])
	assert.Contains(t, out, `    open-call b-3 appName="Chrome" bringToFront=true waitSeconds=5`)
	assert.Contains(t, out, "    if-statement b-5 condition=loggedIn\n      consequent:\n")
	assert.Contains(t, out, `        type-call b-7 text=user.name`)
}

func TestTree_JSON(t *testing.T) {
	out, err := execute(t, "tree", "testdata/login.js", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data TreeNode `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	root := resp.Data
	assert.Equal(t, "program", root.Kind)
	assert.Equal(t, "Program", root.Label)
	require.Len(t, root.Slots["body"], 4)
	ifNode := root.Slots["body"][2]
	assert.Equal(t, "if-statement", ifNode.Kind)
	assert.Equal(t, "click-call", ifNode.Slots["consequent"][0].Kind)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "testdata/login.js")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Document valid (7 blocks)")
}

func TestValidate_Invalid(t *testing.T) {
	out, err := execute(t, "validate", "testdata/invalid.json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "DANGLING_CHILD [r]")
	assert.Contains(t, out, "C004 [a]")

	out, err = execute(t, "validate", "testdata/invalid.json", "--format", "json")
	require.Error(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, false, data["valid"])
	assert.GreaterOrEqual(t, len(data["issues"].([]any)), 2)
}

func TestKinds(t *testing.T) {
	out, err := execute(t, "kinds")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "structure\n"))
	assert.Contains(t, out, "  wait-call  ")
	assert.Contains(t, out, "duration:number")
	assert.Contains(t, out, "[consequent, alternate]")

	out, err = execute(t, "kinds", "--category", "automation", "--format", "json")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	for _, k := range resp.Data.([]any) {
		assert.Equal(t, "automation", k.(map[string]any)["category"])
	}

	out, err = execute(t, "kinds", "--category", "bogus")
	require.Error(t, err)
	assert.Contains(t, out, `unknown category "bogus"`)
}

func TestApply(t *testing.T) {
	out, err := execute(t, "apply", "testdata/login.js", "testdata/edits.yaml")
	require.NoError(t, err)
	assert.Equal(t, editedCode, out)

	out, err = execute(t, "apply", "testdata/login.js", "testdata/edits.yaml", "--format", "json")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, editedCode, data["code"])
	steps := data["steps"].([]any)
	require.Len(t, steps, 3)
	assert.Equal(t, 1.0, steps[0].(map[string]any)["version"])
	assert.NotEmpty(t, steps[1].(map[string]any)["blockId"])
	assert.Equal(t, "BLOCK_NOT_FOUND", steps[2].(map[string]any)["error"])
}

func TestApply_EmitDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edited.json")
	_, err := execute(t, "apply", "testdata/login.js", "testdata/edits.yaml", "--emit", "document", "-o", path)
	require.NoError(t, err)

	out, err := execute(t, "export", path)
	require.NoError(t, err)
	assert.Equal(t, editedCode, out)
}

func TestApply_FailingStep(t *testing.T) {
	out, err := execute(t, "apply", "testdata/login.js", "testdata/broken.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]: step 0 (move) failed")

	_, err = execute(t, "apply", "testdata/login.js", "testdata/edits.yaml", "--emit", "ast")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSaveHistoryCheckout(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	out, err := execute(t, "save", "testdata/login.js", "--db", db, "-m", "first")
	require.NoError(t, err)
	assert.Equal(t, "✓ Saved login version 1\n", out)

	// Parsing the same script again yields the same ids and content.
	out, err = execute(t, "save", "testdata/login.js", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "✓ login unchanged at version 1\n", out)

	_, err = execute(t, "apply", "testdata/login.js", "testdata/edits.yaml", "--db", db, "--save", "-m", "edited")
	require.NoError(t, err)

	out, err = execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "login  login  2 version(s)")

	out, err = execute(t, "history", "login", "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "  1  "))
	assert.True(t, strings.HasSuffix(lines[0], "  first"))
	assert.True(t, strings.HasSuffix(lines[1], "  edited"))

	out, err = execute(t, "checkout", "login", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, editedCode, out)

	out, err = execute(t, "checkout", "login", "--seq", "1", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, loginCode, out)

	out, err = execute(t, "checkout", "login", "--seq", "1", "--db", db, "--format", "json", "--emit", "document")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, 1.0, data["version"].(map[string]any)["seq"])
	assert.Equal(t, "login", data["document"].(map[string]any)["id"])
}

func TestCheckout_NotFound(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	out, err := execute(t, "checkout", "nope", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")

	out, err = execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No documents saved.\n", out)
}

func TestTestCommand(t *testing.T) {
	out, err := execute(t, "test", "../harness/testdata/scenarios", "--golden-dir", "../harness/testdata/golden")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ edit_login_flow")
	assert.Contains(t, out, "Test Summary: 3 passed, 0 failed, 3 total")

	out, err = execute(t, "test", "../harness/testdata/scenarios", "--golden-dir", "../harness/testdata/golden",
		"--filter", "raw_*", "--format", "json")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, 1.0, resp.Data.(map[string]any)["total"])
}

func TestTestCommand_GoldenMismatchAndUpdate(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(golden, "raw_fallback.golden"), []byte("stale\n"), 0o644))

	out, err := execute(t, "test", "../harness/testdata/scenarios", "--golden-dir", golden, "--filter", "raw_*")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")

	out, err = execute(t, "test", "../harness/testdata/scenarios", "--golden-dir", golden, "--filter", "raw_*", "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ raw_fallback (golden updated)")

	_, err = execute(t, "test", "../harness/testdata/scenarios", "--golden-dir", golden, "--filter", "raw_*")
	require.NoError(t, err)
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, err := execute(t, "test", "testdata/none")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
