package corpus

import "errors"

var (
	// ErrProjectRepositoryRequired is returned when a project repository is not provided.
	ErrProjectRepositoryRequired = errors.New("project repository required")

	// ErrInvalidSampleSize is returned for a negative sample size.
	ErrInvalidSampleSize = errors.New("sample size must not be negative")
)
