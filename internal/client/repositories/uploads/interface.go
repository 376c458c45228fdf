// Package uploads keeps a local history of finished uploads.
package uploads

import (
	"context"

	"github.com/dmitrijs2005/turbouploader/internal/client/models"
)

// Repository stores terminal upload jobs.
type Repository interface {
	// Record inserts job or replaces the row with the same id.
	Record(ctx context.Context, job *models.UploadJob) error

	// Get returns the job with id, or nil if there is none.
	Get(ctx context.Context, id string) (*models.UploadJob, error)

	// List returns up to limit jobs, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*models.UploadJob, error)

	Clear(ctx context.Context) error
}
