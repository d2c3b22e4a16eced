package backup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource writes a canned payload to the backup path.
type fakeSource struct {
	payload []byte
	err     error
	calls   int
}

func (f *fakeSource) BackupTo(_ context.Context, path string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(path, f.payload, 0o644)
}

func TestManager_RunWritesTimestampedBackup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := &fakeSource{payload: []byte("sqlite payload")}
	at := time.Date(2026, 3, 10, 12, 30, 45, 0, time.UTC)

	m := NewManager(src, dir, 5,
		WithLogger(quietLogger()),
		WithNowFunc(func() time.Time { return at }),
	)

	rec, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "zara_stock_backup_20260310_123045.db"), rec.Path)
	assert.Equal(t, at, rec.CreatedAt)
	assert.Equal(t, int64(len(src.payload)), rec.SizeBytes)

	data, err := os.ReadFile(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, src.payload, data)
}

func TestManager_RunCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "backups")
	m := NewManager(&fakeSource{payload: []byte("x")}, dir, 5, WithLogger(quietLogger()))

	rec, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, rec.Path)
}

func TestManager_RunPrunesBeyondRetention(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := &fakeSource{payload: []byte("x")}
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	m := NewManager(src, dir, 2,
		WithLogger(quietLogger()),
		WithNowFunc(func() time.Time { return at }),
	)

	for i := 0; i < 3; i++ {
		_, err := m.Run(context.Background())
		require.NoError(t, err)
		at = at.Add(time.Minute)
	}

	records, err := m.List()
	require.NoError(t, err)
	require.Len(t, records, 2, "retention must cap the files kept")

	assert.Contains(t, records[0].Path, "20260310_120200")
	assert.Contains(t, records[1].Path, "20260310_120100")
	assert.NoFileExists(t, filepath.Join(dir, "zara_stock_backup_20260310_120000.db"))
}

func TestManager_ListNewestFirstIgnoringForeignFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zara_stock_backup_20260101_000000.db"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zara_stock_backup_20260201_000000.db"), []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("unrelated"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zara_stock_backup_garbage.db"), []byte("bad stamp"), 0o644))

	m := NewManager(&fakeSource{}, dir, 5, WithLogger(quietLogger()))

	records, err := m.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].CreatedAt.After(records[1].CreatedAt))
	assert.Equal(t, int64(3), records[0].SizeBytes)
}

func TestManager_ListMissingDirectory(t *testing.T) {
	t.Parallel()

	m := NewManager(&fakeSource{}, filepath.Join(t.TempDir(), "never-created"), 5, WithLogger(quietLogger()))

	records, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestManager_RunSourceFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := &fakeSource{err: errors.New("database is locked")}
	m := NewManager(src, dir, 5, WithLogger(quietLogger()))

	_, err := m.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing backup")

	records, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRestore_KeepsSafetyCopy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tracker.db")
	backupPath := filepath.Join(dir, "zara_stock_backup_20260310_120000.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("live data"), 0o644))
	require.NoError(t, os.WriteFile(backupPath, []byte("backup data"), 0o644))

	require.NoError(t, Restore(dbPath, backupPath))

	restored, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("backup data"), restored)

	saved, err := os.ReadFile(dbPath + ".before_restore")
	require.NoError(t, err)
	assert.Equal(t, []byte("live data"), saved)
}

func TestRestore_MissingDatabaseIsFine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tracker.db")
	backupPath := filepath.Join(dir, "backup.db")
	require.NoError(t, os.WriteFile(backupPath, []byte("backup data"), 0o644))

	require.NoError(t, Restore(dbPath, backupPath))

	restored, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("backup data"), restored)
	assert.NoFileExists(t, dbPath+".before_restore")
}

func TestRestore_MissingBackupFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := Restore(filepath.Join(dir, "tracker.db"), filepath.Join(dir, "nope.db"))
	require.Error(t, err)
}

func TestRetentionDefault(t *testing.T) {
	t.Parallel()

	m := NewManager(&fakeSource{}, t.TempDir(), 0, WithLogger(quietLogger()))
	assert.Equal(t, defaultRetention, m.retention)
}
