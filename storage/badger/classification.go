package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
)

// ClassificationRepository implements storage.ClassificationRepository for BadgerDB.
//
// Primary records live under cls:<project><field>; the clsf:<field><project>
// index answers "which projects belong to this field".
type ClassificationRepository struct {
	backend *Backend
}

var _ storage.ClassificationRepository = (*ClassificationRepository)(nil)

// NewClassificationRepository creates a new ClassificationRepository.
func NewClassificationRepository(backend *Backend) (*ClassificationRepository, error) {
	return &ClassificationRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ClassificationRepository has no resources to release.
func (r *ClassificationRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ClassificationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceClassifications deletes the project's classifications and stores the given ones.
func (r *ClassificationRepository) ReplaceClassifications(ctx context.Context, projectID core.ID, classifications ...*core.Classification) error {
	for _, c := range classifications {
		if err := core.ValidateClassification(c); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteProjectClassifications(tx, projectID); err != nil {
			return err
		}

		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, c := range classifications {
			c.ProjectId = projectID
			if c.ClassifiedAt.IsZero() {
				c.ClassifiedAt = now
			}
			key := makePairKey(classificationPrefix, projectID, c.FieldId)
			if err := tx.Set(key, storage.MarshalClassification(c)); err != nil {
				return err
			}
			if err := tx.Set(makePairKey(classificationFieldPrefix, c.FieldId, projectID), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteClassifications removes every classification of the project.
func (r *ClassificationRepository) DeleteClassifications(ctx context.Context, projectID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteProjectClassifications(tx, projectID); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetClassifications returns the project's classifications, highest confidence first.
func (r *ClassificationRepository) GetClassifications(ctx context.Context, projectID core.ID) ([]*core.Classification, error) {
	results := []*core.Classification{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = readProjectClassifications(tx, projectID)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b *core.Classification) int {
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		}
		return 0
	})
	return results, nil
}

// GetProjectsByField returns the IDs of projects classified into a field.
func (r *ClassificationRepository) GetProjectsByField(ctx context.Context, fieldID core.ID) ([]core.ID, error) {
	return r.backend.scanIDs(ctx, makePartialPairKey(classificationFieldPrefix, fieldID))
}

// readProjectClassifications reads every classification stored for a project.
func readProjectClassifications(tx *badger.Txn, projectID core.ID) ([]*core.Classification, error) {
	results := []*core.Classification{}
	prefix := makePartialPairKey(classificationPrefix, projectID)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		var c *core.Classification
		err := iter.Item().Value(func(val []byte) error {
			var err error
			c, err = storage.UnmarshalClassification(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, nil
}

// deleteProjectClassifications removes a project's classifications and
// their field index entries within tx.
func deleteProjectClassifications(tx *badger.Txn, projectID core.ID) error {
	existing, err := readProjectClassifications(tx, projectID)
	if err != nil {
		return err
	}
	for _, c := range existing {
		if err := tx.Delete(makePairKey(classificationFieldPrefix, c.FieldId, projectID)); err != nil {
			return err
		}
	}
	return deletePrefix(tx, makePartialPairKey(classificationPrefix, projectID))
}
