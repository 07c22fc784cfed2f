package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"llmdesk/internal/database"
	"llmdesk/internal/services"
)

const maintenanceLockKey = "llmdesk:lock:db-maintenance"

// MaintenanceJob refreshes the database's query planner statistics.
// When Redis is attached only one instance sharing the database runs it.
type MaintenanceJob struct {
	db         *database.DB
	redis      *services.RedisService
	instanceID string
	lockTTL    time.Duration
}

// NewMaintenanceJob creates a new maintenance job; redis may be nil
func NewMaintenanceJob(db *database.DB, redis *services.RedisService, instanceID string) *MaintenanceJob {
	return &MaintenanceJob{
		db:         db,
		redis:      redis,
		instanceID: instanceID,
		lockTTL:    10 * time.Minute,
	}
}

// Run optimizes the database
func (j *MaintenanceJob) Run(ctx context.Context) error {
	if j.redis != nil {
		acquired, err := j.redis.AcquireLock(ctx, maintenanceLockKey, j.instanceID, j.lockTTL)
		if err != nil {
			log.Printf("⚠️  [MAINTENANCE] Lock unavailable, running locally: %v", err)
		} else if !acquired {
			log.Println("⏭️  [MAINTENANCE] Another instance holds the lock, skipping")
			return nil
		} else {
			defer j.redis.ReleaseLock(context.Background(), maintenanceLockKey, j.instanceID)
		}
	}

	start := time.Now()
	if err := j.db.Optimize(ctx); err != nil {
		return fmt.Errorf("failed to optimize database: %w", err)
	}
	log.Printf("🧹 [MAINTENANCE] Database optimized in %v", time.Since(start))
	return nil
}
