package graph

import (
	"errors"
	"fmt"
)

// StructuralError reports an edit that would break the document tree.
type StructuralError struct {
	// Code identifies the error category.
	Code StructuralErrorCode

	// Message is a human-readable description.
	Message string

	// BlockID is the block the edit targeted, if any.
	BlockID string

	// ParentID and SlotID identify the destination, if any.
	ParentID string
	SlotID   string
}

// StructuralErrorCode categorizes structural errors.
type StructuralErrorCode string

const (
	// ErrCodeBlockNotFound indicates the target block is not in the document.
	ErrCodeBlockNotFound StructuralErrorCode = "BLOCK_NOT_FOUND"

	// ErrCodeParentNotFound indicates the destination parent is not in the document.
	ErrCodeParentNotFound StructuralErrorCode = "PARENT_NOT_FOUND"

	// ErrCodeInvalidSlot indicates the parent's kind does not declare the slot.
	ErrCodeInvalidSlot StructuralErrorCode = "INVALID_SLOT"

	// ErrCodeCycle indicates a block would become its own descendant.
	ErrCodeCycle StructuralErrorCode = "CYCLE"

	// ErrCodeRootImmutable indicates an edit that would remove, move or copy the root.
	ErrCodeRootImmutable StructuralErrorCode = "ROOT_IMMUTABLE"

	// ErrCodeDuplicateID indicates an inserted block reuses an existing id.
	ErrCodeDuplicateID StructuralErrorCode = "DUPLICATE_ID"

	// ErrCodeDanglingChild indicates a block references a child that does not exist.
	ErrCodeDanglingChild StructuralErrorCode = "DANGLING_CHILD"

	// ErrCodeIndexOutOfRange indicates a source index outside the slot.
	ErrCodeIndexOutOfRange StructuralErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeInvalidData indicates block data holding a non-primitive value.
	ErrCodeInvalidData StructuralErrorCode = "INVALID_DATA"

	// ErrCodeNotInSlot indicates the block is not a child of the named slot.
	ErrCodeNotInSlot StructuralErrorCode = "NOT_IN_SLOT"
)

// Error implements the error interface.
func (e *StructuralError) Error() string {
	switch {
	case e.BlockID != "" && e.ParentID != "":
		return fmt.Sprintf("%s: %s (block=%s, parent=%s, slot=%s)", e.Code, e.Message, e.BlockID, e.ParentID, e.SlotID)
	case e.BlockID != "":
		return fmt.Sprintf("%s: %s (block=%s)", e.Code, e.Message, e.BlockID)
	case e.ParentID != "":
		return fmt.Sprintf("%s: %s (parent=%s, slot=%s)", e.Code, e.Message, e.ParentID, e.SlotID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCycleError returns true if the error is a cycle rejection.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	return hasCode(err, ErrCodeCycle)
}

// IsNotFound returns true if the error reports a missing block or parent.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeBlockNotFound) || hasCode(err, ErrCodeParentNotFound)
}

// CodeOf returns the structural error code of err, or "" if err is not a
// *StructuralError.
func CodeOf(err error) StructuralErrorCode {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func hasCode(err error, code StructuralErrorCode) bool {
	return CodeOf(err) == code
}

func blockNotFound(id string) *StructuralError {
	return &StructuralError{Code: ErrCodeBlockNotFound, Message: "block does not exist", BlockID: id}
}

func parentNotFound(parentID, slotID string) *StructuralError {
	return &StructuralError{Code: ErrCodeParentNotFound, Message: "parent block does not exist", ParentID: parentID, SlotID: slotID}
}

func invalidSlot(parentID, kind, slotID string) *StructuralError {
	return &StructuralError{
		Code:     ErrCodeInvalidSlot,
		Message:  fmt.Sprintf("kind %q has no slot %q", kind, slotID),
		ParentID: parentID,
		SlotID:   slotID,
	}
}

func misplacedKind(parentID, slotID, kind string) *StructuralError {
	return &StructuralError{
		Code:     ErrCodeInvalidSlot,
		Message:  fmt.Sprintf("slot %q cannot hold kind %q", slotID, kind),
		ParentID: parentID,
		SlotID:   slotID,
	}
}

func rootImmutable(id, action string) *StructuralError {
	return &StructuralError{Code: ErrCodeRootImmutable, Message: "cannot " + action + " the root block", BlockID: id}
}
