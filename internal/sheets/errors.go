package sheets

import (
	"errors"
	"fmt"
)

// Typed failures surfaced by every EntryStore implementation. Transport errors
// from the underlying API are classified into one of these before they reach a
// caller; nothing is retried automatically.
var (
	ErrAuth             = errors.New("authentication failure")
	ErrPermissionDenied = errors.New("permission denied")
	ErrStoreNotFound    = errors.New("store not found or not shared")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrRateLimited      = errors.New("rate limited")
	ErrNotFound         = errors.New("row not found")
	ErrProtectedRow     = errors.New("header row is protected")
)

// PartialReplaceError reports a replace whose delete step succeeded but whose
// insert step failed: the original row is gone. Callers must present this as a
// data-loss failure, distinct from a validation or transport error.
type PartialReplaceError struct {
	Row int
	Err error
}

func (e *PartialReplaceError) Error() string {
	return fmt.Sprintf("replace of row %d partially completed, original row deleted: %v", e.Row, e.Err)
}

func (e *PartialReplaceError) Unwrap() error { return e.Err }
