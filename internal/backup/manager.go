// Package backup manages timestamped on-disk copies of the durable
// store: scheduled VACUUM INTO snapshots, retention pruning, listing,
// and file-level restore.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/donaldgifford/zara-stock-tracker/internal/metrics"
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

const (
	filePrefix = "zara_stock_backup_"
	fileSuffix = ".db"
	timeLayout = "20060102_150405"

	defaultRetention = 5
)

// Source produces a consistent copy of the database at the given path
// while the database is in use. *store.SQLiteStore implements it with
// VACUUM INTO.
type Source interface {
	BackupTo(ctx context.Context, path string) error
}

// Manager writes backups into one directory and keeps only the most
// recent ones.
type Manager struct {
	source    Source
	dir       string
	retention int
	log       *slog.Logger
	nowFunc   func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithNowFunc overrides the clock used for backup filenames, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates a Manager writing into dir, retaining the newest
// retention backups (default 5 when retention is not positive).
func NewManager(source Source, dir string, retention int, opts ...Option) *Manager {
	m := &Manager{
		source:    source,
		dir:       dir,
		retention: retention,
		log:       slog.Default(),
		nowFunc:   time.Now,
	}
	if m.retention <= 0 {
		m.retention = defaultRetention
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run writes one backup and prunes files beyond the retention count.
// Prune failures are logged; the backup itself still counts as written.
func (m *Manager) Run(ctx context.Context) (*domain.BackupRecord, error) {
	rec, err := m.runOnce(ctx)
	if err != nil {
		metrics.BackupsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.BackupsTotal.WithLabelValues("ok").Inc()
	metrics.BackupLastSuccess.SetToCurrentTime()

	m.prune()
	if records, err := m.List(); err == nil {
		metrics.BackupFilesKept.Set(float64(len(records)))
	}

	m.log.Info("backup written", "path", rec.Path, "size_bytes", rec.SizeBytes)
	return rec, nil
}

func (m *Manager) runOnce(ctx context.Context) (*domain.BackupRecord, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	now := m.nowFunc().UTC()
	path := filepath.Join(m.dir, filePrefix+now.Format(timeLayout)+fileSuffix)

	if err := m.source.BackupTo(ctx, path); err != nil {
		return nil, fmt.Errorf("writing backup: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspecting backup: %w", err)
	}

	return &domain.BackupRecord{
		Path:      path,
		CreatedAt: now,
		SizeBytes: info.Size(),
	}, nil
}

// List returns the backups in the directory, newest first. Files that do
// not carry the backup name pattern are ignored. A missing directory is
// an empty list, not an error.
func (m *Manager) List() ([]domain.BackupRecord, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var records []domain.BackupRecord
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		created, ok := parseBackupName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		records = append(records, domain.BackupRecord{
			Path:      filepath.Join(m.dir, e.Name()),
			CreatedAt: created,
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// prune removes backups beyond the retention count, oldest first.
func (m *Manager) prune() {
	records, err := m.List()
	if err != nil {
		m.log.Error("listing backups for prune", "error", err)
		return
	}
	if len(records) <= m.retention {
		return
	}

	for _, rec := range records[m.retention:] {
		if err := os.Remove(rec.Path); err != nil {
			m.log.Error("pruning backup", "path", rec.Path, "error", err)
			continue
		}
		m.log.Info("pruned old backup", "path", rec.Path)
	}
}

// parseBackupName extracts the creation time from a backup filename.
func parseBackupName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	t, err := time.Parse(timeLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Restore replaces the database at dbPath with the backup at backupPath,
// keeping the current database as <dbPath>.before_restore. File-level
// copy: the daemon must not be running.
func Restore(dbPath, backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file: %w", err)
	}

	switch _, err := os.Stat(dbPath); {
	case err == nil:
		if err := copyFile(dbPath, dbPath+".before_restore"); err != nil {
			return fmt.Errorf("saving current database: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Nothing to save.
	default:
		return fmt.Errorf("inspecting current database: %w", err)
	}

	if err := copyFile(backupPath, dbPath); err != nil {
		return fmt.Errorf("restoring backup: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
