package alerts

import (
	"time"

	"github.com/rs/zerolog"
)

// MaintenanceJob prunes stale APR baselines and persists a snapshot so
// baselines survive restarts.
type MaintenanceJob struct {
	store        *APRStore
	retention    time.Duration
	snapshotPath string // empty disables persistence
	log          zerolog.Logger
}

// NewMaintenanceJob creates the APR store maintenance job.
func NewMaintenanceJob(store *APRStore, retention time.Duration, snapshotPath string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		store:        store,
		retention:    retention,
		snapshotPath: snapshotPath,
		log:          log.With().Str("job", "apr-maintenance").Logger(),
	}
}

// Name implements scheduler.Job
func (j *MaintenanceJob) Name() string {
	return "apr-maintenance"
}

// Run implements scheduler.Job
func (j *MaintenanceJob) Run() error {
	removed := j.store.Prune(j.retention)
	if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("Pruned stale APR baselines")
	}

	if j.snapshotPath == "" {
		return nil
	}
	return j.store.SaveSnapshot(j.snapshotPath)
}
