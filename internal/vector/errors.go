package vector

import "errors"

// Configuration-class errors. These are fatal for the operation that raised
// them and are never retried: they indicate a mismatch between the persisted
// index and the running configuration, not a transient condition.
var (
	// ErrDimensionMismatch is returned when a vector's length differs from the
	// store's fixed dimension. Vectors are never truncated or padded.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrDuplicateID is returned by Add when an entry ID already exists.
	// There is no implicit upsert; callers must Remove before re-adding so
	// that replace-on-change stays explicit and auditable.
	ErrDuplicateID = errors.New("duplicate entry id")

	// ErrUnsupportedVersion is returned when loading an index file written by
	// a newer format version than this build supports.
	ErrUnsupportedVersion = errors.New("unsupported index format version")

	// ErrProviderMismatch is returned when the provider recorded in an index
	// file differs from the active embedding provider.
	ErrProviderMismatch = errors.New("embedding provider mismatch")

	// ErrInvalidLimit is returned for k <= 0 in search and query calls.
	ErrInvalidLimit = errors.New("result limit must be positive")
)
