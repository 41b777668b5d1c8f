package storage

import "errors"

// Error kinds. Every error returned by this package wraps exactly one of
// them, so callers can branch with errors.Is.
var (
	// ErrNotFound means the persisted document does not exist. Load turns it
	// into an empty collection; it only escapes from raw object reads.
	ErrNotFound = errors.New("not found")

	// ErrDecode means the persisted bytes are not a valid station collection.
	ErrDecode = errors.New("decode failed")

	// ErrTransport covers filesystem, network and service failures.
	ErrTransport = errors.New("transport failed")

	// ErrConfig means the backend could not be constructed.
	ErrConfig = errors.New("invalid configuration")
)
