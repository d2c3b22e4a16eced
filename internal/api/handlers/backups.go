package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// BackupRunner is the subset of the backup manager the API needs.
type BackupRunner interface {
	Run(ctx context.Context) (*domain.BackupRecord, error)
	List() ([]domain.BackupRecord, error)
}

// BackupsHandler handles backup listing and on-demand backup requests.
type BackupsHandler struct {
	runner BackupRunner
}

// NewBackupsHandler creates a new BackupsHandler.
func NewBackupsHandler(r BackupRunner) *BackupsHandler {
	return &BackupsHandler{runner: r}
}

// BackupListOutput is the response body listing backups, newest first.
type BackupListOutput struct {
	Body []domain.BackupRecord
}

// BackupOutput is the response body for a completed backup run.
type BackupOutput struct {
	Body domain.BackupRecord
}

// List returns the retained backups, newest first.
func (h *BackupsHandler) List(_ context.Context, _ *struct{}) (*BackupListOutput, error) {
	records, err := h.runner.List()
	if err != nil {
		return nil, huma.Error500InternalServerError("listing backups: " + err.Error())
	}
	if records == nil {
		records = []domain.BackupRecord{}
	}
	return &BackupListOutput{Body: records}, nil
}

// Run writes a backup now.
func (h *BackupsHandler) Run(ctx context.Context, _ *struct{}) (*BackupOutput, error) {
	rec, err := h.runner.Run(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("backup failed: " + err.Error())
	}
	return &BackupOutput{Body: *rec}, nil
}

// RegisterBackupRoutes registers backup endpoints with the Huma API.
func RegisterBackupRoutes(api huma.API, h *BackupsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-backups",
		Method:      http.MethodGet,
		Path:        "/api/v1/backups",
		Summary:     "List backups",
		Tags:        []string{"backups"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID:   "run-backup",
		Method:        http.MethodPost,
		Path:          "/api/v1/backups",
		Summary:       "Run a backup now",
		Tags:          []string{"backups"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusInternalServerError},
	}, h.Run)
}
