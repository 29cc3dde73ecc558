package ingestion

import "errors"

var (
	// ErrProjectRepositoryRequired is returned when a project repository is not provided.
	ErrProjectRepositoryRequired = errors.New("project repository required")

	// ErrClassifierRequired is returned when a classification processor has no classifier.
	ErrClassifierRequired = errors.New("classifier required")

	// ErrScorerRequired is returned when a relevance processor has no scorer.
	ErrScorerRequired = errors.New("relevance scorer required")

	// ErrInvalidRecord is returned when an import line cannot be decoded.
	ErrInvalidRecord = errors.New("invalid import record")
)
