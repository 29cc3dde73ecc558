package rescore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/scicat/core"
	"github.com/poiesic/scicat/storage"
	"github.com/poiesic/scicat/telemetry"
)

// Scorer computes the relevance score of a project.
type Scorer interface {
	ScoreProject(ctx context.Context, project *core.Project) (float64, error)
}

// Classifier assigns fields to a project and stores the result.
type Classifier interface {
	ClassifyAndSave(ctx context.Context, project *core.Project) ([]core.FieldScore, error)
}

// batchProcessor rescores one batch of projects on a shared pool.
type batchProcessor struct {
	projects   storage.ProjectRepository
	scorer     Scorer
	classifier Classifier
	pool       *ants.Pool
	retry      RetryPolicy
	logger     *slog.Logger
	metrics    *telemetry.Metrics
}

// batchResult counts the outcome of one batch.
type batchResult struct {
	processed int
	failed    int
}

// process scores and classifies every project in the batch. Per-project
// failures are logged and counted; storage failures abort the batch.
func (bp *batchProcessor) process(ctx context.Context, projects []*core.Project) (batchResult, error) {
	result := batchResult{processed: len(projects)}
	if len(projects) == 0 {
		return result, nil
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		scored = make([]*core.Project, 0, len(projects))
	)
	for _, project := range projects {
		wg.Add(1)
		err := bp.pool.Submit(func() {
			defer wg.Done()
			ok := bp.processOne(ctx, project)
			bp.metrics.RecordRescore(ok)

			mu.Lock()
			defer mu.Unlock()
			if !ok {
				result.failed++
			}
			if bp.scorer != nil && ok {
				scored = append(scored, project)
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return result, fmt.Errorf("failed to submit project: %w", err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if len(scored) > 0 {
		_, err := bp.projects.UpdateProjects(ctx, scored...)
		if err != nil {
			return result, fmt.Errorf("failed to update projects: %w", err)
		}
	}
	return result, nil
}

// processOne scores and classifies a single project.
func (bp *batchProcessor) processOne(ctx context.Context, project *core.Project) bool {
	if bp.scorer != nil {
		var score float64
		err := Retry(ctx, bp.retry, bp.logger, func() error {
			var err error
			score, err = bp.scorer.ScoreProject(ctx, project)
			return err
		})
		if err != nil {
			bp.logger.Error("error scoring project", "project", project.Name, "err", err)
			return false
		}
		project.RelevanceScore = score
	}

	if bp.classifier != nil {
		err := Retry(ctx, bp.retry, bp.logger, func() error {
			_, err := bp.classifier.ClassifyAndSave(ctx, project)
			return err
		})
		if err != nil {
			bp.logger.Error("error classifying project", "project", project.Name, "err", err)
			return false
		}
	}
	return true
}
