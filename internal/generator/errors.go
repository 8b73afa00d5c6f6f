package generator

import (
	"errors"
	"fmt"
)

// UnsupportedBlockKindError is returned for a block whose kind has no
// emission rule, typically a document written by a newer schema.
type UnsupportedBlockKindError struct {
	Kind    string
	BlockID string
}

func (e *UnsupportedBlockKindError) Error() string {
	return fmt.Sprintf("unsupported block kind %q (block=%s)", e.Kind, e.BlockID)
}

// MissingBlockError is returned when a slot references an id that is not in
// the document.
type MissingBlockError struct {
	BlockID  string
	ParentID string
	SlotID   string
}

func (e *MissingBlockError) Error() string {
	if e.ParentID == "" {
		return fmt.Sprintf("root block %q does not exist", e.BlockID)
	}
	return fmt.Sprintf("block %q referenced by %s.%s does not exist", e.BlockID, e.ParentID, e.SlotID)
}

// IsUnsupportedKind returns true if err is or wraps an UnsupportedBlockKindError.
func IsUnsupportedKind(err error) bool {
	var ue *UnsupportedBlockKindError
	return errors.As(err, &ue)
}
