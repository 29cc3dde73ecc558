package ingestion

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
)

// Classifier assigns fields to a project and stores the result.
type Classifier interface {
	ClassifyAndSave(ctx context.Context, project *core.Project) ([]core.FieldScore, error)
}

// classificationProcessor classifies stored projects.
type classificationProcessor struct {
	projects   storage.ProjectRepository
	classifier Classifier
	logger     *slog.Logger
}

var _ processor = (*classificationProcessor)(nil)

// newClassificationProcessor creates a new classification processor.
func newClassificationProcessor(projects storage.ProjectRepository, classifier Classifier, logger *slog.Logger) (processor, error) {
	if projects == nil {
		return nil, ErrProjectRepositoryRequired
	}
	if classifier == nil {
		return nil, ErrClassifierRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &classificationProcessor{
		projects:   projects,
		classifier: classifier,
		logger:     logger.With("processor", "classification"),
	}, nil
}

func (cp *classificationProcessor) name() string {
	return "classification"
}

// process classifies each project. A failing project does not stop the
// others; the failures are joined into the returned error.
func (cp *classificationProcessor) process(ctx context.Context, ids ...core.ID) error {
	cp.logger.Info("classifying projects", "projects", len(ids))

	projects, err := cp.projects.GetProjects(ctx, ids...)
	if err != nil {
		cp.logger.Error("error retrieving projects", "err", err)
		return err
	}

	var errs []error
	for _, project := range projects {
		if err := ctx.Err(); err != nil {
			return err
		}
		scores, err := cp.classifier.ClassifyAndSave(ctx, project)
		if err != nil {
			cp.logger.Error("error classifying project", "project", project.Name, "err", err)
			errs = append(errs, err)
			continue
		}
		cp.logger.Debug("classified project", "project", project.Name, "fields", len(scores))
	}
	return errors.Join(errs...)
}
