package harness

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Code     string // Generated code for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Code != "" {
		fmt.Fprintf(&buf, "\nGenerated code:\n")
		for i, line := range strings.Split(strings.TrimSuffix(e.Code, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %3d | %s\n", i+1, line)
		}
	}

	return buf.String()
}

// evaluate runs every assertion and returns the failure messages.
func (h *Harness) evaluate(assertions []Assertion, result *Result) []string {
	var failures []string
	for _, a := range assertions {
		if err := h.check(a, result); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func (h *Harness) check(a Assertion, result *Result) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Code: result.Code}
	}

	switch a.Type {
	case AssertCodeContains:
		if !strings.Contains(result.Code, a.Text) {
			return fail(fmt.Sprintf("code containing %q", a.Text), "not found")
		}
	case AssertCodeEquals:
		if result.Code != a.Text {
			return fail("exact code", "diff (-want +got):\n"+cmp.Diff(a.Text, result.Code))
		}
	case AssertKindCount:
		n := 0
		for _, b := range result.Document.Blocks {
			if b.Kind == a.Kind {
				n++
			}
		}
		if n != a.Count {
			return fail(fmt.Sprintf("%d %s blocks", a.Count, a.Kind), fmt.Sprintf("%d", n))
		}
	case AssertBlockCount:
		if n := len(result.Document.Blocks); n != a.Count {
			return fail(fmt.Sprintf("%d blocks", a.Count), fmt.Sprintf("%d", n))
		}
	case AssertRoundTrip:
		if result.RoundTripDiff != "" {
			return fail("regenerated code is a fixed point", "diff:\n"+result.RoundTripDiff)
		}
	case AssertCatalogValid:
		if err := h.catalog.ValidateDocument(result.Document); err != nil {
			return fail("data matching the catalog", err.Error())
		}
	case AssertVersionCount:
		if result.Versions != a.Count {
			return fail(fmt.Sprintf("%d versions", a.Count), fmt.Sprintf("%d", result.Versions))
		}
	default:
		return fail("known assertion type", a.Type)
	}
	return nil
}
