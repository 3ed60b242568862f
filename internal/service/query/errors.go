package query

import (
	"errors"
	"fmt"
)

// MaxTextBytes is the longest accepted submission. It matches the Comprehend
// per-request document limit, so anything larger would fail upstream anyway.
const MaxTextBytes = 5000

var (
	ErrEmptyText   = errors.New("text must not be empty")
	ErrTextTooLong = fmt.Errorf("text must not exceed %d bytes", MaxTextBytes)
	ErrNotFound    = errors.New("user query not found")
)

// UpstreamError wraps a text-analytics provider failure (network, auth,
// quota, malformed response).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StorageError wraps a key-value store failure other than an absent record.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
