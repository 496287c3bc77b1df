package reliability

import (
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/database"
)

const (
	backupPrefix     = "holdwatch-backup-"
	backupTimeLayout = "2006-01-02-150405"
	minBackupsToKeep = 3
)

// BackupInfo describes a backup stored in the object store
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupService snapshots the database and ships compressed copies to the
// object store
type BackupService struct {
	db      *database.DB
	storage *S3Client
	dataDir string
	log     zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, storage *S3Client, dataDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:      db,
		storage: storage,
		dataDir: dataDir,
		log:     log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUploadBackup snapshots the database, compresses the snapshot and
// uploads it. The staging directory is removed afterwards.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) error {
	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	snapshotPath := filepath.Join(stagingDir, s.db.Name()+".db")
	if err := s.snapshotDatabase(snapshotPath); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	if err := s.verifySnapshot(snapshotPath); err != nil {
		return fmt.Errorf("snapshot verification failed: %w", err)
	}

	archiveName := backupPrefix + time.Now().UTC().Format(backupTimeLayout) + ".db.gz"
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := compressFile(snapshotPath, archivePath); err != nil {
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	if err := s.storage.Upload(ctx, archiveName, archive); err != nil {
		return err
	}

	info, _ := os.Stat(archivePath)
	event := s.log.Info().
		Dur("duration", time.Since(startTime)).
		Str("archive", archiveName)
	if info != nil {
		event = event.Int64("size_bytes", info.Size())
	}
	event.Msg("Backup completed")

	return nil
}

// ListBackups lists backups stored in the object store, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.storage.List(ctx, backupPrefix)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}

		// Keys carry the configured storage prefix; the filename is the
		// last path segment
		filename := *obj.Key
		if idx := strings.LastIndex(filename, "/"); idx >= 0 {
			filename = filename[idx+1:]
		}
		if !strings.HasPrefix(filename, backupPrefix) || !strings.HasSuffix(filename, ".db.gz") {
			continue
		}

		timestampStr := strings.TrimSuffix(strings.TrimPrefix(filename, backupPrefix), ".db.gz")
		timestamp, err := time.Parse(backupTimeLayout, timestampStr)
		if err != nil {
			s.log.Warn().Str("filename", filename).Msg("Failed to parse backup timestamp")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, BackupInfo{
			Filename:  filename,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes backups older than the retention period while
// always keeping the newest few regardless of age. retentionDays 0 keeps
// everything.
func (s *BackupService) RotateOldBackups(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return err
	}
	if len(backups) <= minBackupsToKeep {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for i, backup := range backups {
		if i < minBackupsToKeep || !backup.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.storage.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.log.Info().Int("deleted", deleted).Msg("Old backups rotated")
	}
	return nil
}

// snapshotDatabase writes an atomic copy of the live database
func (s *BackupService) snapshotDatabase(path string) error {
	os.Remove(path)
	if _, err := s.db.Conn().Exec(fmt.Sprintf("VACUUM INTO '%s'", path)); err != nil {
		return fmt.Errorf("VACUUM INTO failed: %w", err)
	}
	return nil
}

// verifySnapshot opens the snapshot read-only and runs an integrity check
func (s *BackupService) verifySnapshot(path string) error {
	conn, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return err
	}
	defer conn.Close()

	var result string
	if err := conn.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check returned %q", result)
	}
	return nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
