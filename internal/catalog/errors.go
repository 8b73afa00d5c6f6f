package catalog

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for catalog failures.
const (
	ErrCodeCompile     = "C001" // catalog source does not compile
	ErrCodeDecode      = "C002" // a kind entry does not decode
	ErrCodeUnknownKind = "C003" // kind is not in the catalog
	ErrCodeInvalidData = "C004" // block data does not unify with the kind schema
)

// Error is a catalog failure, positioned in the catalog source when the CUE
// evaluator reported one.
type Error struct {
	Code    string
	Kind    string
	BlockID string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	b.WriteString(e.Code)
	if e.BlockID != "" {
		fmt.Fprintf(&b, ": block %q", e.BlockID)
	}
	if e.Kind != "" {
		fmt.Fprintf(&b, ": kind %q", e.Kind)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// IsUnknownKind reports whether err, or any error joined into it, is a
// catalog miss.
func IsUnknownKind(err error) bool {
	return hasCode(err, ErrCodeUnknownKind)
}

// IsInvalidData reports whether err, or any error joined into it, is a schema
// mismatch.
func IsInvalidData(err error) bool {
	return hasCode(err, ErrCodeInvalidData)
}

func hasCode(err error, code string) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if hasCode(e, code) {
				return true
			}
		}
		return false
	}
	var ce *Error
	return errors.As(err, &ce) && ce.Code == code
}

// fromCUE converts a CUE evaluation error, keeping the first message and
// position.
func fromCUE(code, kind string, err error) *Error {
	e := &Error{Code: code, Kind: kind, Message: err.Error()}
	if list := cueerrors.Errors(err); len(list) > 0 {
		format, args := list[0].Msg()
		e.Message = fmt.Sprintf(format, args...)
		if path := list[0].Path(); len(path) > 0 {
			e.Message = strings.Join(path, ".") + ": " + e.Message
		}
		if pos := cueerrors.Positions(list[0]); len(pos) > 0 {
			e.Pos = pos[0]
		}
	}
	return e
}
