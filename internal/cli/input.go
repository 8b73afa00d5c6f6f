package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/parser"
	"github.com/roach88/scriptblocks/internal/workflow"
)

// stdinPath names standard input as a command argument.
const stdinPath = "-"

// readInput reads path, or standard input for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == stdinPath {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// isDocumentFile reports whether path holds a document rather than a script.
func isDocumentFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// documentName is the file name without its extension.
func documentName(path string) string {
	if path == stdinPath {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// loadDocument reads a document file, or parses a script with ids from src.
func (o *RootOptions) loadDocument(cmd *cobra.Command, path string, src ir.IDSource) (*ir.Document, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if isDocumentFile(path) {
		return decodeDocument(data)
	}

	req := workflow.ImportRequest{Code: string(data), Name: documentName(path)}
	if path != stdinPath {
		req.SourcePath = path
	}
	return workflow.ImportWorkflow(req, parser.WithIDs(src), parser.WithLogger(o.Logger))
}

func decodeDocument(data []byte) (*ir.Document, error) {
	var doc ir.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc.Root == "" || doc.Blocks == nil {
		return nil, fmt.Errorf("failed to decode document: missing root or blocks")
	}
	return &doc, nil
}

// encodeDocument renders doc as indented JSON with a trailing newline.
func encodeDocument(doc *ir.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
