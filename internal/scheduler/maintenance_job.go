package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/database"
)

// MaintenanceJob keeps the database healthy over long uptimes: it truncates
// the WAL file so it cannot grow unbounded, then runs a full integrity check
// so corruption is caught long before a backup would restore it.
type MaintenanceJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewMaintenanceJob creates a new database maintenance job
func NewMaintenanceJob(db *database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:  db,
		log: log.With().Str("job", "db_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "db_maintenance"
}

// Run checkpoints the WAL and verifies database integrity
func (j *MaintenanceJob) Run(ctx context.Context) error {
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return fmt.Errorf("maintenance checkpoint failed: %w", err)
	}

	if err := j.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("maintenance integrity check failed: %w", err)
	}

	j.log.Debug().Str("db", j.db.Name()).Msg("Database maintenance completed")
	return nil
}
