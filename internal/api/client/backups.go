package client

import (
	"context"

	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// ListBackups returns the backups present on the server, newest first.
func (c *Client) ListBackups(ctx context.Context) ([]domain.BackupRecord, error) {
	var records []domain.BackupRecord
	if err := c.get(ctx, "/api/v1/backups", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// RunBackup creates a database backup on the server immediately.
func (c *Client) RunBackup(ctx context.Context) (*domain.BackupRecord, error) {
	var record domain.BackupRecord
	if err := c.post(ctx, "/api/v1/backups", nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
