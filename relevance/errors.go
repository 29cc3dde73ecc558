package relevance

import "errors"

var (
	// ErrTableSourceRequired is returned when an idf table source is not provided.
	ErrTableSourceRequired = errors.New("idf table source required")

	// ErrProjectRepositoryRequired is returned when a project repository is not provided.
	ErrProjectRepositoryRequired = errors.New("project repository required")

	// ErrInvalidPercentile is returned for a percentile outside (0, 1].
	ErrInvalidPercentile = errors.New("percentile must be in (0, 1]")
)
