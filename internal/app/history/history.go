// Package history implements the run-history use case over the persisted
// run records.
package history

import (
	"context"
	"fmt"

	"github.com/usbforge/usbforge/internal/log"
	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/storage"
)

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.History"})
	return nil
}

// Service exposes past write and benchmark runs.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// ListRequest filters the history listing.
type ListRequest struct {
	// Kind limits the listing to one task family. Empty means both.
	Kind model.RunKind
	// Limit caps the number of returned records. Zero means no cap.
	Limit int
}

// List returns past runs, most recent first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]model.RunRecord, error) {
	runs, err := s.repo.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	records := make([]model.RunRecord, 0, len(runs))
	for _, r := range runs {
		if req.Kind != "" && r.Kind != req.Kind {
			continue
		}
		records = append(records, r)
		if req.Limit > 0 && len(records) == req.Limit {
			break
		}
	}

	return records, nil
}

// Get retrieves one run record by id.
func (s *Service) Get(ctx context.Context, id string) (*model.RunRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}

	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not get run %q: %w", id, err)
	}

	return run, nil
}
