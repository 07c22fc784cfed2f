package jobs

import (
	"context"
	"fmt"

	"llmdesk/internal/services"
)

// ModelStatsJob refreshes the model gauges from the database
type ModelStatsJob struct {
	models  *services.CloudLLMModelService
	metrics *services.Metrics
}

// NewModelStatsJob creates a new model stats job
func NewModelStatsJob(models *services.CloudLLMModelService, metrics *services.Metrics) *ModelStatsJob {
	return &ModelStatsJob{models: models, metrics: metrics}
}

// Run counts configured and enabled models
func (j *ModelStatsJob) Run(ctx context.Context) error {
	total, enabled, err := j.models.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to count models: %w", err)
	}
	j.metrics.SetModelCounts(total, enabled)
	return nil
}
