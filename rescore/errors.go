package rescore

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a retry policy allows no attempts.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrInvalidConfig is returned when batch size or worker count is below 1.
	ErrInvalidConfig = errors.New("batch size and workers must be greater than 0")

	// ErrProjectRepositoryRequired is returned when a project repository is not provided.
	ErrProjectRepositoryRequired = errors.New("project repository required")

	// ErrNothingToDo is returned when neither a scorer nor a classifier is configured.
	ErrNothingToDo = errors.New("rescoring needs a scorer or a classifier")
)
