package harness

import "github.com/roach88/scriptblocks/internal/ir"

// StepResult records one applied edit.
type StepResult struct {
	Index int    `json:"index"`
	Op    string `json:"op"`
	// Version is the document revision after the step.
	Version int `json:"version"`
	// Error is the structural error code of an expected failure.
	Error string `json:"error,omitempty"`
	// BlockID is the block created by insert or duplicate.
	BlockID string `json:"blockId,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Code is the source generated from the final document.
	Code string `json:"code"`

	// Document is the final document.
	Document *ir.Document `json:"-"`

	// RoundTripDiff is empty when regenerating the code is a fixed point.
	RoundTripDiff string `json:"roundTripDiff,omitempty"`

	// Versions is the number of distinct versions the edits produced,
	// the parsed document included.
	Versions int `json:"versions"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
