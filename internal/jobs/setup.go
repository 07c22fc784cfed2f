package jobs

import (
	"llmdesk/internal/config"
	"llmdesk/internal/database"
	"llmdesk/internal/services"
)

const (
	JobModelStats    = "model-stats"
	JobDBMaintenance = "db-maintenance"
)

// NewDefault registers the built-in jobs on their configured schedules
func NewDefault(cfg config.JobsConfig, db *database.DB, models *services.CloudLLMModelService, redis *services.RedisService, metrics *services.Metrics, instanceID string) (*JobScheduler, error) {
	scheduler, err := NewJobScheduler()
	if err != nil {
		return nil, err
	}

	if err := scheduler.Register(JobModelStats, cfg.ModelStatsSchedule, NewModelStatsJob(models, metrics)); err != nil {
		scheduler.Stop()
		return nil, err
	}
	if err := scheduler.Register(JobDBMaintenance, cfg.MaintenanceSchedule, NewMaintenanceJob(db, redis, instanceID)); err != nil {
		scheduler.Stop()
		return nil, err
	}
	return scheduler, nil
}
