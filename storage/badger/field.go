package badger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
)

// FieldRepository implements storage.FieldRepository for BadgerDB.
type FieldRepository struct {
	backend *Backend
}

var _ storage.FieldRepository = (*FieldRepository)(nil)

// NewFieldRepository creates a new FieldRepository.
func NewFieldRepository(backend *Backend) (*FieldRepository, error) {
	return &FieldRepository{
		backend: backend,
	}, nil
}

// Close releases resources. FieldRepository has no resources to release.
func (r *FieldRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *FieldRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddFields inserts or replaces fields keyed by name.
func (r *FieldRepository) AddFields(ctx context.Context, fields ...*core.Field) ([]*core.Field, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, field := range fields {
			// Use content-based ID
			field.Id = core.FieldIDFromName(field.Name)
			key := makeIDKey(fieldPrefix, field.Id)

			old, err := readField(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				field.InsertedAt = old.InsertedAt
			} else {
				field.InsertedAt = now
			}
			field.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalField(field)); err != nil {
				return err
			}
			if err := tx.Set(makeFieldNameKey(field.Name), storage.MarshalID(field.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return fields, err
}

// DeleteFields removes fields by their IDs.
// Classifications pointing at a deleted field are left in place; they
// disappear the next time the project is classified.
func (r *FieldRepository) DeleteFields(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeIDKey(fieldPrefix, id)
			field, err := readField(tx, key)
			if err != nil {
				return err
			}
			if field == nil {
				return storage.ErrNotFound
			}
			if err := tx.Delete(makeFieldNameKey(field.Name)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetField retrieves a single field by ID.
func (r *FieldRepository) GetField(ctx context.Context, id core.ID) (*core.Field, error) {
	var result *core.Field
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readField(tx, makeIDKey(fieldPrefix, id))
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

// GetFieldByName retrieves a field by its name.
func (r *FieldRepository) GetFieldByName(ctx context.Context, name string) (*core.Field, error) {
	var result *core.Field
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Look up ID from name index
		item, err := tx.Get(makeFieldNameKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var fieldID core.ID
		err = item.Value(func(val []byte) error {
			fieldID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = readField(tx, makeIDKey(fieldPrefix, fieldID))
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

// GetAllFields returns every field ordered by name.
func (r *FieldRepository) GetAllFields(ctx context.Context) ([]*core.Field, error) {
	var results []*core.Field
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(fieldPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var field *core.Field
			err := iter.Item().Value(func(val []byte) error {
				var err error
				field, err = storage.UnmarshalField(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, field)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Field) int {
		return strings.Compare(a.Name, b.Name)
	})
	return results, nil
}

// readField reads a field from the transaction.
func readField(tx *badger.Txn, key []byte) (*core.Field, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var field *core.Field
	err = item.Value(func(val []byte) error {
		var err error
		field, err = storage.UnmarshalField(val)
		return err
	})
	return field, err
}
