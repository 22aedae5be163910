package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQueryInvalid signals a malformed or contradictory query.
	ErrQueryInvalid = errors.New("query invalid")
	// ErrCursorInvalid signals a malformed, unknown-version or mode-mismatched cursor.
	ErrCursorInvalid = errors.New("cursor invalid")
	// ErrIndexNotReady signals that the backing store cannot serve a query shape yet.
	ErrIndexNotReady = errors.New("index not ready")
)

// IndexNotReadyError wraps ErrIndexNotReady with the affected logical collection.
type IndexNotReadyError struct {
	Collection string
}

func (e *IndexNotReadyError) Error() string {
	return fmt.Sprintf("%s: collection %q", ErrIndexNotReady.Error(), e.Collection)
}

func (e *IndexNotReadyError) Unwrap() error { return ErrIndexNotReady }

// NewIndexNotReady creates an index-not-ready error for a collection.
func NewIndexNotReady(collection string) error {
	return &IndexNotReadyError{Collection: collection}
}
