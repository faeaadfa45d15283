package storage

import (
	"context"

	"github.com/usbforge/usbforge/internal/model"
)

// Repository is the interface for run-history persistence.
type Repository interface {
	// SaveRun stores the summary record of one finished write or benchmark run.
	SaveRun(ctx context.Context, r model.RunRecord) error
	// GetRun retrieves a run record by id.
	GetRun(ctx context.Context, id string) (*model.RunRecord, error)
	// ListRuns returns all run records, most recent first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
}
