package veriseal

import "errors"

var (
	// ErrNoFile is returned when an upload request carries no file content
	ErrNoFile = errors.New("no file provided")
	// ErrStoreDisabled is returned when the remote store is not configured or unreachable
	ErrStoreDisabled = errors.New("remote store disabled")
	// ErrUploadFailed is returned when the remote store rejects an upload after retry
	ErrUploadFailed = errors.New("upload failed")
	// ErrNotFound is returned when a fingerprint has no usable record
	ErrNotFound = errors.New("not found")
)
