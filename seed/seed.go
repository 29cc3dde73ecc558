// Package seed provides the reference scientific fields used by the classifier.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var fieldsYAML []byte

type fieldFile struct {
	Fields []fieldEntry `yaml:"fields"`
}

type fieldEntry struct {
	Name       string   `yaml:"name"`
	Domain     string   `yaml:"domain"`
	Keywords   []string `yaml:"keywords"`
	Packages   []string `yaml:"packages"`
	Indicators []string `yaml:"indicators"`
}

// Fields returns the embedded reference fields.
func Fields() ([]*core.Field, error) {
	return Parse(fieldsYAML)
}

// Parse decodes and validates a field definition document.
func Parse(data []byte) ([]*core.Field, error) {
	var file fieldFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse field definitions: %w", err)
	}

	fields := make([]*core.Field, 0, len(file.Fields))
	seen := make(map[string]struct{}, len(file.Fields))
	for _, entry := range file.Fields {
		field := &core.Field{
			Name:       entry.Name,
			Domain:     core.Domain(entry.Domain),
			Keywords:   entry.Keywords,
			Packages:   entry.Packages,
			Indicators: entry.Indicators,
		}
		if err := core.ValidateField(field); err != nil {
			return nil, fmt.Errorf("field %q: %w", entry.Name, err)
		}
		if _, dup := seen[field.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", core.ErrInvalidField, field.Name)
		}
		seen[field.Name] = struct{}{}
		fields = append(fields, field)
	}
	return fields, nil
}

// Apply stores fields that are not yet present. With overwrite set,
// existing fields are replaced by the given definitions.
// It returns the fields that were written.
func Apply(ctx context.Context, repo storage.FieldRepository, fields []*core.Field, overwrite bool, logger *slog.Logger) ([]*core.Field, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var pending []*core.Field
	for _, field := range fields {
		if !overwrite {
			_, err := repo.GetFieldByName(ctx, field.Name)
			if err == nil {
				logger.Debug("field exists, skipping", "field", field.Name)
				continue
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
		}
		pending = append(pending, field)
	}

	if len(pending) == 0 {
		return pending, nil
	}
	written, err := repo.AddFields(ctx, pending...)
	if err != nil {
		return nil, fmt.Errorf("failed to store fields: %w", err)
	}
	logger.Info("seeded fields", "count", len(written))
	return written, nil
}
