package checklist

import (
	"errors"
	"fmt"
)

var (
	// ErrCommitFailed indicates the commit adapter rejected a record patch.
	ErrCommitFailed = errors.New("checklist commit failed")
	// ErrInvalidInput indicates invalid input for checklist operations.
	ErrInvalidInput = errors.New("invalid checklist input")
	// ErrNotOpen indicates no checklist session is open for the project.
	ErrNotOpen = errors.New("checklist not open")
)

// CommitError describes a failed write of one record's patch. The draft
// keeps the edit and the record stays dirty.
type CommitError struct {
	RecordID string
	Err      error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("committing record %s: %v", e.RecordID, e.Err)
}

// Unwrap exposes both ErrCommitFailed and the underlying cause.
func (e *CommitError) Unwrap() []error {
	return []error{ErrCommitFailed, e.Err}
}
