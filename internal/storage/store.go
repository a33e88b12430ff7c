// Package storage locates and fetches invoice documents from an object store.
package storage

import (
	"context"
	"errors"
)

// ObjectStore is the blob-by-key collaborator. Implementations map a missing
// object to (false, nil) from Exists and wrap retryable failures with
// Transient.
type ObjectStore interface {
	Exists(ctx context.Context, container, key string) (bool, error)
	Get(ctx context.Context, container, key string) ([]byte, error)
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with Transient.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}
