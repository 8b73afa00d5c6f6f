package parser

import (
	"errors"
	"fmt"
)

// SyntaxError reports source text that does not parse. No document is
// produced when it is returned.
type SyntaxError struct {
	// Line is 1-based; Column is 0-based.
	Line    int
	Column  int
	Message string

	// Err is the underlying parser error.
	Err error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return "syntax error: " + e.Message
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// IsSyntaxError returns true if err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
