package store

import "errors"

var (
	// ErrNotFound is returned by point reads when the document is absent.
	ErrNotFound = errors.New("store: document not found")

	// ErrTimeout marks an operation that exceeded its deadline. The
	// repository maps context deadline expiry on the payment batch to
	// this error so callers can tell a hang from a plain store fault.
	ErrTimeout = errors.New("store: operation timed out")
)
