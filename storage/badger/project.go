package badger

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
)

const defaultBatchSize = 100

// ProjectRepository implements storage.ProjectRepository for BadgerDB.
type ProjectRepository struct {
	backend *Backend
}

var _ storage.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(backend *Backend) (*ProjectRepository, error) {
	return &ProjectRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ProjectRepository has no resources to release.
func (r *ProjectRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ProjectRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddProjects inserts or replaces projects keyed by URL.
func (r *ProjectRepository) AddProjects(ctx context.Context, projects ...*core.Project) ([]*core.Project, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, project := range projects {
			project.Id = core.ProjectIDFromURL(project.URL)
			key := makeIDKey(projectPrefix, project.Id)

			old, err := readProject(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				project.InsertedAt = old.InsertedAt
				if err := deleteProjectIndexes(tx, old); err != nil {
					return err
				}
			} else {
				project.InsertedAt = now
			}
			project.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalProject(project)); err != nil {
				return err
			}
			if err := setProjectIndexes(tx, project); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return projects, err
}

// UpdateProjects updates existing projects.
func (r *ProjectRepository) UpdateProjects(ctx context.Context, projects ...*core.Project) ([]*core.Project, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, project := range projects {
			key := makeIDKey(projectPrefix, project.Id)

			// Read old project to rebuild its indexes
			old, err := readProject(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			project.InsertedAt = old.InsertedAt
			project.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

			if err := deleteProjectIndexes(tx, old); err != nil {
				return err
			}
			if err := tx.Set(key, storage.MarshalProject(project)); err != nil {
				return err
			}
			if err := setProjectIndexes(tx, project); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return projects, err
}

// DeleteProjects removes projects, their indexes and their classifications.
func (r *ProjectRepository) DeleteProjects(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeIDKey(projectPrefix, id)

			project, err := readProject(tx, key)
			if err != nil {
				return err
			}
			if project == nil {
				return storage.ErrNotFound
			}

			if err := deleteProjectIndexes(tx, project); err != nil {
				return err
			}
			if err := deleteProjectClassifications(tx, id); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetProject retrieves a single project by ID.
func (r *ProjectRepository) GetProject(ctx context.Context, id core.ID) (*core.Project, error) {
	var result *core.Project
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readProject(tx, makeIDKey(projectPrefix, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetProjects retrieves multiple projects by their IDs.
func (r *ProjectRepository) GetProjects(ctx context.Context, ids ...core.ID) ([]*core.Project, error) {
	result := make([]*core.Project, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			project, err := readProject(tx, makeIDKey(projectPrefix, id))
			if err != nil {
				return err
			}
			if project != nil {
				result = append(result, project)
			}
		}
		return nil
	}, false)
	return result, err
}

// CountProjects returns the number of stored projects.
func (r *ProjectRepository) CountProjects(ctx context.Context) (int, error) {
	return r.backend.countPrefix(ctx, []byte(projectPrefix))
}

// ForEachProject calls fn with every stored project, batchSize at a time.
func (r *ProjectRepository) ForEachProject(ctx context.Context, batchSize int, fn func([]*core.Project) error) error {
	ids, err := r.backend.scanIDs(ctx, []byte(projectPrefix))
	if err != nil {
		return err
	}
	return r.forEachBatch(ctx, ids, batchSize, fn)
}

// CountReference returns the size of the reference corpus.
func (r *ProjectRepository) CountReference(ctx context.Context) (int, error) {
	return r.backend.countPrefix(ctx, []byte(projectCorpusPrefix))
}

// ForEachReferenceBatch calls fn with reference corpus projects, batchSize at a time.
func (r *ProjectRepository) ForEachReferenceBatch(ctx context.Context, batchSize int, fn func([]*core.Project) error) error {
	ids, err := r.backend.scanIDs(ctx, []byte(projectCorpusPrefix))
	if err != nil {
		return err
	}
	return r.forEachBatch(ctx, ids, batchSize, fn)
}

// SampleReference returns a uniform random subset of n reference corpus projects.
func (r *ProjectRepository) SampleReference(ctx context.Context, n int) ([]*core.Project, error) {
	if n <= 0 {
		return []*core.Project{}, nil
	}
	ids, err := r.backend.scanIDs(ctx, []byte(projectCorpusPrefix))
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return r.GetProjects(ctx, ids...)
}

// errStopScan ends a scan early without reporting an error.
var errStopScan = errors.New("stop scan")

// ListComparison returns up to limit non-reference projects with readme text.
func (r *ProjectRepository) ListComparison(ctx context.Context, limit int) ([]*core.Project, error) {
	var results []*core.Project
	err := r.ForEachProject(ctx, defaultBatchSize, func(batch []*core.Project) error {
		for _, project := range batch {
			if project.Reference || !project.HasReadme() {
				continue
			}
			results = append(results, project)
			if limit > 0 && len(results) >= limit {
				return errStopScan
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return nil, err
	}
	return results, nil
}

// FindProjects returns projects with a positive ScienceScore matching q.
// Results follow index order: matched value, then ID.
func (r *ProjectRepository) FindProjects(ctx context.Context, q storage.ProjectQuery) ([]*core.Project, error) {
	var (
		prefix string
		exact  bool
	)
	switch q.Kind {
	case storage.MatchPackageName:
		prefix, exact = projectPackagePrefix, true
	case storage.MatchName:
		prefix, exact = projectNamePrefix, true
	case storage.MatchNamePrefix:
		prefix, exact = projectNamePrefix, false
	case storage.MatchRepoName:
		prefix, exact = projectRepoPrefix, true
	case storage.MatchRepoNamePrefix:
		prefix, exact = projectRepoPrefix, false
	case storage.MatchNameSubstring:
		return r.findNameSubstring(ctx, q)
	default:
		return nil, storage.ErrInvalidQuery
	}
	if q.Value == "" {
		return []*core.Project{}, nil
	}

	seek := makeValueSeekKey(prefix, q.Value, exact)
	ids, err := r.backend.scanIDs(ctx, seek)
	if err != nil {
		return nil, err
	}
	return r.loadCandidates(ctx, ids, q)
}

// findNameSubstring scans the name index for names containing the value.
func (r *ProjectRepository) findNameSubstring(ctx context.Context, q storage.ProjectQuery) ([]*core.Project, error) {
	if q.Value == "" {
		return []*core.Project{}, nil
	}
	needle := strings.ToLower(q.Value)
	prefix := []byte(projectNamePrefix)

	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := iter.Item().Key()
			if strings.Contains(indexedValue(projectNamePrefix, key), needle) {
				ids = append(ids, idFromKey(key))
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return r.loadCandidates(ctx, ids, q)
}

// loadCandidates reads the projects behind ids, dropping excluded,
// duplicate and unscored ones, up to q.Limit.
func (r *ProjectRepository) loadCandidates(ctx context.Context, ids []core.ID, q storage.ProjectQuery) ([]*core.Project, error) {
	results := []*core.Project{}
	seen := make(map[core.ID]struct{}, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if _, ok := q.Exclude[id]; ok {
				continue
			}
			// A project with two same-named packages appears twice in the package index
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}

			project, err := readProject(tx, makeIDKey(projectPrefix, id))
			if err != nil {
				return err
			}
			if project == nil || !(project.ScienceScore > 0) {
				continue
			}
			results = append(results, project)
			if q.Limit > 0 && len(results) >= q.Limit {
				break
			}
		}
		return nil
	}, false)
	return results, err
}

// forEachBatch loads ids batchSize at a time and hands each batch to fn.
// Context cancellation is checked between batches.
func (r *ProjectRepository) forEachBatch(ctx context.Context, ids []core.ID, batchSize int, fn func([]*core.Project) error) error {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	for i := 0; i < len(ids); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+batchSize, len(ids))
		batch, err := r.GetProjects(ctx, ids[i:end]...)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			continue
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

// Helper methods

// projectIndexKeys returns every secondary index key of a project.
func projectIndexKeys(project *core.Project) [][]byte {
	keys := [][]byte{
		makeValueIndexKey(projectNamePrefix, project.Name, project.Id),
	}
	if repo := project.RepoName(); repo != "" {
		keys = append(keys, makeValueIndexKey(projectRepoPrefix, repo, project.Id))
	}
	for _, pkg := range project.Packages {
		if pkg.Name == "" {
			continue
		}
		keys = append(keys, makeValueIndexKey(projectPackagePrefix, pkg.Name, project.Id))
	}
	if project.InCorpus() {
		keys = append(keys, makeIDKey(projectCorpusPrefix, project.Id))
	}
	return keys
}

func setProjectIndexes(tx *badger.Txn, project *core.Project) error {
	for _, key := range projectIndexKeys(project) {
		if err := tx.Set(key, nil); err != nil {
			return err
		}
	}
	return nil
}

func deleteProjectIndexes(tx *badger.Txn, project *core.Project) error {
	for _, key := range projectIndexKeys(project) {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// readProject reads a project from the transaction.
// Returns nil without error when the key does not exist.
func readProject(tx *badger.Txn, key []byte) (*core.Project, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var project *core.Project
	err = item.Value(func(val []byte) error {
		var err error
		project, err = storage.UnmarshalProject(val)
		return err
	})
	return project, err
}
