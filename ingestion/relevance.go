package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
)

// Scorer computes the relevance score of a project.
type Scorer interface {
	ScoreProject(ctx context.Context, project *core.Project) (float64, error)
}

// relevanceProcessor stores fresh relevance scores on projects.
type relevanceProcessor struct {
	projects storage.ProjectRepository
	scorer   Scorer
	logger   *slog.Logger
}

var _ processor = (*relevanceProcessor)(nil)

// newRelevanceProcessor creates a new relevance processor.
func newRelevanceProcessor(projects storage.ProjectRepository, scorer Scorer, logger *slog.Logger) (processor, error) {
	if projects == nil {
		return nil, ErrProjectRepositoryRequired
	}
	if scorer == nil {
		return nil, ErrScorerRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &relevanceProcessor{
		projects: projects,
		scorer:   scorer,
		logger:   logger.With("processor", "relevance"),
	}, nil
}

func (rp *relevanceProcessor) name() string {
	return "relevance"
}

// process scores the specified projects and stores the scores.
func (rp *relevanceProcessor) process(ctx context.Context, ids ...core.ID) error {
	rp.logger.Info("scoring projects", "projects", len(ids))

	projects, err := rp.projects.GetProjects(ctx, ids...)
	if err != nil {
		rp.logger.Error("error retrieving projects", "err", err)
		return err
	}

	for _, project := range projects {
		score, err := rp.scorer.ScoreProject(ctx, project)
		if err != nil {
			rp.logger.Error("error scoring project", "project", project.Name, "err", err)
			return err
		}
		project.RelevanceScore = score
	}

	_, err = rp.projects.UpdateProjects(ctx, projects...)
	return err
}
