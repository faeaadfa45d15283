// Package benchmark sequences disk measurement modes through the execution
// backend one at a time and derives a single blended progress percentage from
// a per-mode time budget.
package benchmark

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/usbforge/usbforge/internal/backend"
	"github.com/usbforge/usbforge/internal/log"
	"github.com/usbforge/usbforge/internal/model"
)

// SequencerConfig is the configuration for the benchmark sequencer.
type SequencerConfig struct {
	Client backend.Client
	Logger log.Logger

	// Now is the clock used for elapsed-time estimation, swappable in tests.
	Now func() time.Time
}

func (c *SequencerConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("backend client is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "benchmark.Sequencer"})
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}

// Sequencer runs an ordered queue of measurement modes strictly sequentially.
// Every mode needs exclusive device access, so mode N+1 only starts after
// mode N's command call returns.
type Sequencer struct {
	client backend.Client
	logger log.Logger
	now    func() time.Time

	mu              sync.Mutex
	active          bool
	complete        bool
	cancelRequested bool
	estimate        *Estimate
	finished        []model.BenchmarkMode
	running         model.BenchmarkMode
	runningSince    time.Time
	results         map[model.BenchmarkMode]model.BenchmarkResult
}

// NewSequencer creates a new benchmark sequencer.
func NewSequencer(cfg SequencerConfig) (*Sequencer, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Sequencer{
		client:  cfg.Client,
		logger:  cfg.Logger,
		now:     cfg.Now,
		results: map[model.BenchmarkMode]model.BenchmarkResult{},
	}, nil
}

// Run executes the queue in order, accumulating one result per completed
// mode. Accumulated results from a previous run are cleared at the start.
//
// Cancellation (operator context or backend cancel) stops the loop after the
// in-flight mode returns; queued modes are not attempted. The partial results
// collected so far are returned alongside the error.
func (s *Sequencer) Run(ctx context.Context, target model.TargetDevice, queue []model.BenchmarkMode) (map[model.BenchmarkMode]model.BenchmarkResult, error) {
	if len(queue) == 0 {
		return nil, fmt.Errorf("benchmark queue is empty: %w", model.ErrNotValid)
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil, fmt.Errorf("benchmark run is in flight: %w", model.ErrAlreadyRunning)
	}
	s.active = true
	s.complete = false
	s.cancelRequested = false
	s.finished = nil
	s.running = ""
	s.results = map[model.BenchmarkMode]model.BenchmarkResult{}
	s.estimate = NewEstimate(queue, target)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active = false
		s.running = ""
		s.mu.Unlock()
	}()

	s.logger.Infof("Starting benchmark run on %s: %v (estimated %s)", target.ID, queue, s.estimate.Total())

	for _, mode := range queue {
		s.mu.Lock()
		cancelled := s.cancelRequested
		s.mu.Unlock()
		if cancelled || ctx.Err() != nil {
			return s.Results(), fmt.Errorf("benchmark run stopped: %w", model.ErrCancelled)
		}

		s.mu.Lock()
		s.running = mode
		s.runningSince = s.now()
		s.mu.Unlock()

		result, err := s.client.RunBenchmark(ctx, target, mode)

		s.mu.Lock()
		s.running = ""
		s.mu.Unlock()

		if err != nil {
			if model.IsCancel(err) {
				s.logger.Infof("Benchmark run cancelled during mode %s", mode)
				return s.Results(), fmt.Errorf("benchmark run cancelled: %w", model.ErrCancelled)
			}
			return s.Results(), fmt.Errorf("benchmark mode %s failed: %w", mode, err)
		}

		s.mu.Lock()
		s.finished = append(s.finished, mode)
		s.results[mode] = *result
		s.mu.Unlock()

		s.logger.Infof("Benchmark mode %s finished: %.1f MB/s sequential", mode, result.WriteSeqMBps)
	}

	s.mu.Lock()
	s.complete = true
	s.mu.Unlock()

	return s.Results(), nil
}

// Cancel requests cancellation of the run. The in-flight mode is interrupted
// through the backend, and queued modes are not attempted even when that mode
// still returns a successful result.
func (s *Sequencer) Cancel(ctx context.Context) error {
	if err := s.client.CancelBenchmark(ctx); err != nil {
		return fmt.Errorf("could not cancel benchmark: %w", err)
	}

	s.mu.Lock()
	s.cancelRequested = true
	s.mu.Unlock()

	return nil
}

// Progress returns the blended aggregate percentage. It stays below the
// in-progress ceiling while any mode is outstanding and reports 100 only
// after the run has been recorded as finished.
func (s *Sequencer) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.complete {
		return 100
	}
	if s.estimate == nil {
		return 0
	}

	var elapsed time.Duration
	if s.running != "" {
		elapsed = s.now().Sub(s.runningSince)
	}

	return s.estimate.Progress(s.finished, s.running, elapsed)
}

// Results returns a copy of the accumulated per-mode results.
func (s *Sequencer) Results() map[model.BenchmarkMode]model.BenchmarkResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make(map[model.BenchmarkMode]model.BenchmarkResult, len(s.results))
	for mode, result := range s.results {
		results[mode] = result
	}
	return results
}
