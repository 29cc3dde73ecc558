package storage

import (
	"context"

	"github.com/poiesic/scicat/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// MatchKind selects how ProjectQuery.Value is compared.
type MatchKind int

const (
	// MatchPackageName matches projects with a package of exactly this name.
	MatchPackageName MatchKind = iota + 1
	// MatchName matches projects whose name equals the value.
	MatchName
	// MatchNamePrefix matches projects whose name starts with the value.
	MatchNamePrefix
	// MatchNameSubstring matches projects whose name contains the value.
	MatchNameSubstring
	// MatchRepoName matches projects whose last URL segment equals the value.
	MatchRepoName
	// MatchRepoNamePrefix matches projects whose last URL segment starts with the value.
	MatchRepoNamePrefix
)

// String returns a readable name for the match kind.
func (k MatchKind) String() string {
	switch k {
	case MatchPackageName:
		return "package_name"
	case MatchName:
		return "name"
	case MatchNamePrefix:
		return "name_prefix"
	case MatchNameSubstring:
		return "name_substring"
	case MatchRepoName:
		return "repo_name"
	case MatchRepoNamePrefix:
		return "repo_name_prefix"
	}
	return "unknown"
}

// ProjectQuery describes a project lookup by name, repository or package.
// All comparisons are case-insensitive.
type ProjectQuery struct {
	Kind    MatchKind
	Value   string
	Exclude map[core.ID]struct{} // Projects to leave out of the result
	Limit   int                  // Maximum results; 0 means no limit
}

// ProjectRepository provides operations for managing cataloged projects.
type ProjectRepository interface {
	Repository

	// AddProjects inserts or replaces projects.
	// IDs are derived from the project URL (core.ProjectIDFromURL).
	// InsertedAt is preserved for projects that already exist.
	AddProjects(ctx context.Context, projects ...*core.Project) ([]*core.Project, error)

	// UpdateProjects updates existing projects.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any project doesn't exist.
	UpdateProjects(ctx context.Context, projects ...*core.Project) ([]*core.Project, error)

	// DeleteProjects removes projects, their indices and their classifications.
	// Returns ErrNotFound if any project doesn't exist.
	DeleteProjects(ctx context.Context, ids ...core.ID) error

	// GetProject retrieves a single project by ID.
	// Returns ErrNotFound if the project doesn't exist.
	GetProject(ctx context.Context, id core.ID) (*core.Project, error)

	// GetProjects retrieves multiple projects by their IDs.
	// Returns only the projects that exist (no error for missing projects).
	GetProjects(ctx context.Context, ids ...core.ID) ([]*core.Project, error)

	// CountProjects returns the number of stored projects.
	CountProjects(ctx context.Context) (int, error)

	// ForEachProject calls fn with every stored project, batchSize at a time.
	// Iteration stops on the first error returned by fn.
	ForEachProject(ctx context.Context, batchSize int, fn func([]*core.Project) error) error

	// CountReference returns the size of the reference corpus: projects
	// flagged as Reference that carry readme text.
	CountReference(ctx context.Context) (int, error)

	// ForEachReferenceBatch calls fn with reference corpus projects, batchSize at a time.
	ForEachReferenceBatch(ctx context.Context, batchSize int, fn func([]*core.Project) error) error

	// SampleReference returns a uniform random subset of n reference corpus projects.
	// Returns the whole corpus when it holds fewer than n projects.
	SampleReference(ctx context.Context, n int) ([]*core.Project, error)

	// ListComparison returns up to limit projects outside the reference corpus
	// that carry readme text.
	ListComparison(ctx context.Context, limit int) ([]*core.Project, error)

	// FindProjects returns projects matching q.
	// Only projects with a positive ScienceScore are returned.
	FindProjects(ctx context.Context, q ProjectQuery) ([]*core.Project, error)
}

// FieldRepository provides operations for managing scientific fields.
type FieldRepository interface {
	Repository

	// AddFields inserts or replaces fields, keyed by name.
	AddFields(ctx context.Context, fields ...*core.Field) ([]*core.Field, error)

	// DeleteFields removes fields by their IDs.
	// Returns ErrNotFound if any field doesn't exist.
	DeleteFields(ctx context.Context, ids ...core.ID) error

	// GetField retrieves a single field by ID.
	// Returns ErrNotFound if the field doesn't exist.
	GetField(ctx context.Context, id core.ID) (*core.Field, error)

	// GetFieldByName retrieves a field by its name.
	// Returns ErrNotFound if the field doesn't exist.
	GetFieldByName(ctx context.Context, name string) (*core.Field, error)

	// GetAllFields returns every field ordered by name.
	GetAllFields(ctx context.Context) ([]*core.Field, error)
}

// ClassificationRepository provides operations for project field classifications.
type ClassificationRepository interface {
	Repository

	// ReplaceClassifications deletes every classification of the project
	// and stores the given ones in a single transaction.
	ReplaceClassifications(ctx context.Context, projectID core.ID, classifications ...*core.Classification) error

	// DeleteClassifications removes every classification of the project.
	DeleteClassifications(ctx context.Context, projectID core.ID) error

	// GetClassifications returns the classifications of a project ordered by
	// confidence, highest first.
	GetClassifications(ctx context.Context, projectID core.ID) ([]*core.Classification, error)

	// GetProjectsByField returns the IDs of projects classified into a field.
	GetProjectsByField(ctx context.Context, fieldID core.ID) ([]core.ID, error)
}
