package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/reliability"
)

// backupRetentionDays controls how long off-site backups are kept
const backupRetentionDays = 30

// BackupJob uploads a nightly database snapshot to the object store and
// rotates out expired ones
type BackupJob struct {
	service *reliability.BackupService
	log     zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *reliability.BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run creates and uploads a backup, then rotates old ones
func (j *BackupJob) Run(ctx context.Context) error {
	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}

	if err := j.service.RotateOldBackups(ctx, backupRetentionDays); err != nil {
		// Rotation failure should not mask a successful backup
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	return nil
}
