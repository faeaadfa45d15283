// Package benchmark implements the measurement use case: queue building,
// sequential execution through the backend and aggregate progress reporting.
package benchmark

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/usbforge/usbforge/internal/backend"
	bench "github.com/usbforge/usbforge/internal/benchmark"
	"github.com/usbforge/usbforge/internal/log"
	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/storage"
)

// ServiceConfig is the configuration for the benchmark service.
type ServiceConfig struct {
	Backend    backend.Client
	Repository storage.Repository
	Logger     log.Logger

	// ProgressInterval is how often OnProgress is invoked during a run.
	ProgressInterval time.Duration

	// Now is the clock used for run records, swappable in tests.
	Now func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Backend == nil {
		return fmt.Errorf("backend is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Benchmark"})
	if c.ProgressInterval == 0 {
		c.ProgressInterval = 500 * time.Millisecond
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}

// Service runs benchmark mode queues on a target device.
type Service struct {
	backend  backend.Client
	repo     storage.Repository
	logger   log.Logger
	interval time.Duration
	now      func() time.Time
}

// NewService creates a new benchmark service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		backend:  cfg.Backend,
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		interval: cfg.ProgressInterval,
		now:      cfg.Now,
	}, nil
}

// Request represents one benchmark run request.
type Request struct {
	Target model.TargetDevice
	Mode   model.BenchmarkMode
	Extras []model.BenchmarkMode

	// OnProgress is called periodically with the blended aggregate
	// percentage and the results accumulated so far.
	OnProgress func(pct float64, results map[model.BenchmarkMode]model.BenchmarkResult)
}

// Response is the outcome of one benchmark run.
type Response struct {
	Queue   []model.BenchmarkMode
	Results map[model.BenchmarkMode]model.BenchmarkResult
}

// Run executes the requested modes strictly one after another and returns the
// per-mode results. Cancelling the context requests best-effort cancellation
// of the in-flight mode; results of already-finished modes are still returned.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if err := req.Target.Validate(); err != nil {
		return nil, fmt.Errorf("invalid benchmark target: %w", err)
	}
	if req.Mode == "" {
		return nil, fmt.Errorf("benchmark mode is required: %w", model.ErrNotValid)
	}

	queue := model.NewBenchmarkQueue(req.Mode, req.Extras...)

	seq, err := bench.NewSequencer(bench.SequencerConfig{
		Client: s.backend,
		Logger: s.logger,
		Now:    s.now,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create sequencer: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go s.watchRun(ctx, seq, req.OnProgress, stop, done)

	startedAt := s.now()
	results, runErr := seq.Run(ctx, req.Target, queue)
	close(stop)
	<-done

	if req.OnProgress != nil {
		req.OnProgress(seq.Progress(), results)
	}

	s.saveRecord(ctx, req.Target, queue, runErr, startedAt)

	return &Response{Queue: queue, Results: results}, runErr
}

// watchRun reports aggregate progress on a fixed cadence and relays a context
// cancellation to the sequencer exactly once.
func (s *Service) watchRun(ctx context.Context, seq *bench.Sequencer, onProgress func(float64, map[model.BenchmarkMode]model.BenchmarkResult), stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	ctxDone := ctx.Done()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if onProgress != nil {
				onProgress(seq.Progress(), seq.Results())
			}
		case <-ctxDone:
			ctxDone = nil // Request cancellation only once.
			if err := seq.Cancel(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warningf("Could not cancel benchmark run: %v", err)
			}
		}
	}
}

func (s *Service) saveRecord(ctx context.Context, target model.TargetDevice, queue []model.BenchmarkMode, runErr error, startedAt time.Time) {
	status := model.TaskStatusCompleted
	message := "Benchmark completed"
	switch {
	case model.IsCancel(runErr):
		status = model.TaskStatusCancelled
		message = "Benchmark cancelled by user"
	case runErr != nil:
		status = model.TaskStatusFailed
		message = runErr.Error()
	}

	modes := make([]string, 0, len(queue))
	for _, m := range queue {
		modes = append(modes, string(m))
	}

	record := model.RunRecord{
		ID:         ulid.MustNew(ulid.Timestamp(s.now()), rand.Reader).String(),
		Kind:       model.RunKindBenchmark,
		TargetID:   target.ID,
		TargetName: target.Name,
		Detail:     strings.Join(modes, "+"),
		Status:     status,
		Message:    message,
		StartedAt:  startedAt,
		FinishedAt: s.now(),
	}

	// History is best effort, a failed save never fails the run itself.
	if err := s.repo.SaveRun(context.WithoutCancel(ctx), record); err != nil {
		s.logger.Warningf("Could not save run record %s: %v", record.ID, err)
	}
}
