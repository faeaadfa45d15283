package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/usbforge/usbforge/internal/log"
	"github.com/usbforge/usbforge/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	runs   map[string]model.RunRecord
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		runs:   map[string]model.RunRecord{},
		logger: cfg.Logger,
	}, nil
}

// SaveRun stores a run record, overwriting any previous record with the same id.
func (r *Repository) SaveRun(ctx context.Context, run model.RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID] = run
	r.logger.Debugf("Saved run record %s", run.ID)

	return nil
}

// GetRun retrieves a run record by id.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	runCopy := run
	return &runCopy, nil
}

// ListRuns returns all run records, most recent first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })

	return runs, nil
}
