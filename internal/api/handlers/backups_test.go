package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/zara-stock-tracker/internal/api/handlers"
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// fakeBackupRunner is a test double for handlers.BackupRunner.
type fakeBackupRunner struct {
	rec     *domain.BackupRecord
	records []domain.BackupRecord
	runErr  error
	listErr error
}

func (f *fakeBackupRunner) Run(context.Context) (*domain.BackupRecord, error) {
	return f.rec, f.runErr
}

func (f *fakeBackupRunner) List() ([]domain.BackupRecord, error) {
	return f.records, f.listErr
}

func newBackupsAPI(t *testing.T, r handlers.BackupRunner) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t)
	handlers.RegisterBackupRoutes(api, handlers.NewBackupsHandler(r))
	return api
}

func TestListBackups(t *testing.T) {
	t.Parallel()

	runner := &fakeBackupRunner{records: []domain.BackupRecord{
		{Path: "/backups/zara_stock_backup_20260310_120100.db", CreatedAt: time.Now().UTC(), SizeBytes: 2048},
		{Path: "/backups/zara_stock_backup_20260310_120000.db", CreatedAt: time.Now().UTC().Add(-time.Minute), SizeBytes: 1024},
	}}
	api := newBackupsAPI(t, runner)

	resp := api.Get("/api/v1/backups")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "20260310_120100")
	assert.Contains(t, resp.Body.String(), "20260310_120000")
}

func TestListBackups_Empty(t *testing.T) {
	t.Parallel()

	api := newBackupsAPI(t, &fakeBackupRunner{})

	resp := api.Get("/api/v1/backups")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "[]")
}

func TestListBackups_Error(t *testing.T) {
	t.Parallel()

	api := newBackupsAPI(t, &fakeBackupRunner{listErr: errors.New("permission denied")})

	resp := api.Get("/api/v1/backups")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestRunBackup(t *testing.T) {
	t.Parallel()

	runner := &fakeBackupRunner{rec: &domain.BackupRecord{
		Path:      "/backups/zara_stock_backup_20260310_123045.db",
		CreatedAt: time.Now().UTC(),
		SizeBytes: 4096,
	}}
	api := newBackupsAPI(t, runner)

	resp := api.Post("/api/v1/backups")
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), "20260310_123045")
}

func TestRunBackup_Failure(t *testing.T) {
	t.Parallel()

	api := newBackupsAPI(t, &fakeBackupRunner{runErr: errors.New("disk full")})

	resp := api.Post("/api/v1/backups")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "backup failed")
}
