package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a script, the edits to apply
// to its document, and what must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the script to parse.
	Source string `yaml:"source,omitempty"`

	// SourceFile is read into Source when the scenario is loaded.
	// Relative paths are resolved against the scenario file.
	SourceFile string `yaml:"source_file,omitempty"`

	// Steps are applied in order.
	Steps []EditStep `yaml:"steps,omitempty"`

	// Assertions validate the final document and code.
	Assertions []Assertion `yaml:"assertions"`
}

// EditStep is one structural edit. Which fields apply depends on Op.
type EditStep struct {
	// Op is insert, remove, move, reorder, duplicate or update.
	Op string `yaml:"op"`

	// Block references the block being removed, moved, duplicated or
	// updated. See the package documentation for the reference syntax.
	Block string `yaml:"block,omitempty"`

	// Parent and Slot name the destination of insert and move, and the
	// slot reordered by reorder. Remove accepts them to pin the source.
	Parent string `yaml:"parent,omitempty"`
	Slot   string `yaml:"slot,omitempty"`

	// Index is the insert or move position; it is clamped to the slot.
	Index int `yaml:"index,omitempty"`

	// From and To are reorder positions.
	From int `yaml:"from,omitempty"`
	To   int `yaml:"to,omitempty"`

	// New is the block created by insert.
	New *NewBlock `yaml:"new,omitempty"`

	// Data is merged by update.
	Data map[string]any `yaml:"data,omitempty"`

	// ExpectError is the structural error code the step must fail with.
	// A failing step leaves the document unchanged.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// NewBlock describes a block to create.
type NewBlock struct {
	Kind string         `yaml:"kind"`
	Data map[string]any `yaml:"data,omitempty"`
}

// Edit operations.
const (
	OpInsert    = "insert"
	OpRemove    = "remove"
	OpMove      = "move"
	OpReorder   = "reorder"
	OpDuplicate = "duplicate"
	OpUpdate    = "update"
)

// Assertion validates the final document or code.
type Assertion struct {
	// Type specifies the assertion type:
	// - "code_contains": Generated code contains Text
	// - "code_equals": Generated code is exactly Text
	// - "kind_count": Document has Count blocks of Kind
	// - "block_count": Document has Count blocks, root included
	// - "round_trip": Regenerating the code is a fixed point
	// - "catalog_valid": Every block's data matches its catalog schema
	// - "version_count": The edits produced Count distinct versions
	Type string `yaml:"type"`

	Text  string `yaml:"text,omitempty"`
	Kind  string `yaml:"kind,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertCodeContains = "code_contains"
	AssertCodeEquals   = "code_equals"
	AssertKindCount    = "kind_count"
	AssertBlockCount   = "block_count"
	AssertRoundTrip    = "round_trip"
	AssertCatalogValid = "catalog_valid"
	AssertVersionCount = "version_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML. baseDir resolves a relative
// source_file.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	if err := decodeStrict(data, &scenario); err != nil {
		return nil, err
	}

	if scenario.SourceFile != "" {
		if scenario.Source != "" {
			return nil, fmt.Errorf("invalid scenario: source and source_file are mutually exclusive")
		}
		path := scenario.SourceFile
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read source file: %w", err)
		}
		scenario.Source = string(src)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// EditScript is a standalone list of edits, applied by the CLI.
type EditScript struct {
	Steps []EditStep `yaml:"steps"`
}

// LoadEditScript reads an edit script YAML file.
func LoadEditScript(path string) ([]EditStep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edit script: %w", err)
	}
	var script EditScript
	if err := decodeStrict(data, &script); err != nil {
		return nil, err
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("invalid edit script: steps list is required and must be non-empty")
	}
	for i := range script.Steps {
		if err := validateStep(i, &script.Steps[i]); err != nil {
			return nil, fmt.Errorf("invalid edit script: %w", err)
		}
	}
	return script.Steps, nil
}

// decodeStrict rejects unknown fields so typos like "assertion:" fail loudly.
func decodeStrict(data []byte, out any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks the fields each operation needs.
func validateStep(index int, st *EditStep) error {
	needBlock := func() error {
		if st.Block == "" {
			return fmt.Errorf("steps[%d]: block is required for %s", index, st.Op)
		}
		return nil
	}
	needDest := func() error {
		if st.Parent == "" || st.Slot == "" {
			return fmt.Errorf("steps[%d]: parent and slot are required for %s", index, st.Op)
		}
		return nil
	}

	switch st.Op {
	case OpInsert:
		if st.New == nil || st.New.Kind == "" {
			return fmt.Errorf("steps[%d]: new.kind is required for insert", index)
		}
		return needDest()
	case OpRemove, OpDuplicate:
		return needBlock()
	case OpMove:
		if err := needBlock(); err != nil {
			return err
		}
		return needDest()
	case OpReorder:
		return needDest()
	case OpUpdate:
		if err := needBlock(); err != nil {
			return err
		}
		if len(st.Data) == 0 {
			return fmt.Errorf("steps[%d]: data is required for update", index)
		}
		return nil
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertCodeContains, AssertCodeEquals:
		if a.Text == "" && a.Type == AssertCodeContains {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertKindCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for kind_count", index)
		}
		fallthrough
	case AssertBlockCount, AssertVersionCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertRoundTrip, AssertCatalogValid:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
