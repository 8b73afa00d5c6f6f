package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/scriptblocks/internal/catalog"
	"github.com/roach88/scriptblocks/internal/generator"
	"github.com/roach88/scriptblocks/internal/graph"
	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/parser"
	"github.com/roach88/scriptblocks/internal/store"
	"github.com/roach88/scriptblocks/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios with a deterministic clock and id source.
type Harness struct {
	store   *store.Store
	clock   *testutil.DeterministicClock
	ids     *testutil.SequentialIDs
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store for isolation.
//
// Execution flow:
// 1. Parse the source with sequential ids
// 2. Apply each step, checking expected failures and tree validity
// 3. Save every revision as a version (unchanged revisions are skipped)
// 4. Generate code and check that regenerating it is a fixed point
// 5. Evaluate assertions
//
// A returned error means the scenario could not be executed; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	st, err := store.Open(":memory:", store.WithClock(clock.Now), store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	cat, err := catalog.Builtin()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	h := &Harness{
		store:   st,
		clock:   clock,
		ids:     testutil.NewSequentialIDs("b"),
		catalog: cat,
		logger:  logger,
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	doc, err := parser.Parse(
		parser.Input{Code: scenario.Source, Name: scenario.Name},
		parser.WithIDs(h.ids),
		parser.WithClock(h.clock.Now),
		parser.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}

	result := NewResult()
	if err := h.save(ctx, doc, result); err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		next, blockID, err := Apply(doc, step, h.ids)
		sr := StepResult{Index: i, Op: step.Op, BlockID: blockID}

		if step.ExpectError != "" {
			code := string(graph.CodeOf(err))
			switch {
			case err == nil:
				result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, got success", i, step.Op, step.ExpectError))
				doc = next
			case code != step.ExpectError:
				result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, got %v", i, step.Op, step.ExpectError, err))
			}
			sr.Error = code
			sr.Version = doc.Version
			result.Steps = append(result.Steps, sr)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Op, err)
		}

		if err := graph.Validate(next); err != nil {
			result.AddError(fmt.Sprintf("steps[%d] %s: invalid document: %v", i, step.Op, err))
		}
		doc = next
		sr.Version = doc.Version
		result.Steps = append(result.Steps, sr)

		if err := h.save(ctx, doc, result); err != nil {
			return nil, err
		}
	}

	code, err := generator.Generate(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	result.Code = code
	result.Document = doc

	diff, err := roundTripDiff(code)
	if err != nil {
		return nil, err
	}
	result.RoundTripDiff = diff

	for _, msg := range h.evaluate(scenario.Assertions, result) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) save(ctx context.Context, doc *ir.Document, result *Result) error {
	_, created, err := h.store.SaveVersion(ctx, doc, "")
	if err != nil {
		return fmt.Errorf("failed to save version: %w", err)
	}
	if created {
		result.Versions++
	}
	return nil
}

// roundTripDiff parses code, regenerates it, and parses again. It returns a
// diff of the two parsed shapes and of the two code texts, or "" when both
// agree.
func roundTripDiff(code string) (string, error) {
	first, err := parser.Parse(parser.Input{Code: code}, parser.WithIDs(testutil.NewSequentialIDs("r")))
	if err != nil {
		return "", fmt.Errorf("generated code does not parse: %w", err)
	}
	again, err := generator.Generate(first)
	if err != nil {
		return "", fmt.Errorf("failed to regenerate code: %w", err)
	}
	second, err := parser.Parse(parser.Input{Code: again}, parser.WithIDs(testutil.NewSequentialIDs("r")))
	if err != nil {
		return "", fmt.Errorf("regenerated code does not parse: %w", err)
	}

	diff := cmp.Diff(ir.RootShape(first), ir.RootShape(second))
	if code != again {
		diff += cmp.Diff(code, again)
	}
	return diff, nil
}
