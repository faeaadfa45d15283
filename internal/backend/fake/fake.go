// Package fake implements an in-process simulation of the execution backend.
// It walks write tasks through the real phase sequence and synthesizes
// benchmark measurements, without touching any disk.
package fake

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/usbforge/usbforge/internal/conventions"
	"github.com/usbforge/usbforge/internal/log"
	"github.com/usbforge/usbforge/internal/model"
)

// BackendConfig is the configuration for the fake backend.
type BackendConfig struct {
	Logger log.Logger
	// StepDelay is the simulated duration of each write phase step.
	StepDelay time.Duration
	// Targets are the devices ListTargets returns.
	Targets []model.TargetDevice
	// WritableCheck is what CheckTargetWritable returns. Zero value means
	// the pre-flight check is unsupported.
	WritableCheck model.WritableCheck
}

func (c *BackendConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.Fake"})

	if c.StepDelay == 0 {
		c.StepDelay = 150 * time.Millisecond
	}

	if len(c.Targets) == 0 {
		c.Targets = []model.TargetDevice{
			{ID: "fake-disk-1", Name: "Fake USB 64GB", Device: "/dev/fake1", SizeBytes: 64 << 30, FreeBytes: 60 << 30, Removable: true},
			{ID: "fake-disk-2", Name: "Fake HDD 1TB", Device: "/dev/fake2", SizeBytes: 1 << 40, FreeBytes: 512 << 30, Rotational: true},
		}
	}

	return nil
}

// Backend is a fake implementation of the backend.Backend interface.
type Backend struct {
	cfg    BackendConfig
	logger log.Logger

	mu          sync.Mutex
	runningID   string
	cancelWrite bool
	cancelBench bool
	subscribers map[int]chan model.WriteProgress
	nextSubID   int
}

// NewBackend creates a new fake backend.
func NewBackend(cfg BackendConfig) (*Backend, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Backend{
		cfg:         cfg,
		logger:      cfg.Logger,
		subscribers: map[int]chan model.WriteProgress{},
	}, nil
}

// writePhase is one simulated step of a write task.
type writePhase struct {
	status   model.TaskStatus
	progress float64
	message  string
}

func writePhases(desc model.WriteDescriptor) []writePhase {
	phases := []writePhase{
		{model.TaskStatusPreparing, 5, "Preparing target device"},
		{model.TaskStatusPartitioning, 15, "Partitioning target device"},
		{model.TaskStatusApplyingImage, 40, "Applying image"},
		{model.TaskStatusApplyingImage, 65, "Applying image"},
		{model.TaskStatusWritingBootFiles, 75, "Writing boot files"},
		{model.TaskStatusFixingBootConfig, 82, "Fixing boot configuration"},
	}
	if desc.ApplyMode != model.ApplyModeDirect {
		phases = append(phases, writePhase{model.TaskStatusCopyingVirtualDisk, 88, "Copying virtual disk to target"})
	}
	phases = append(phases,
		writePhase{model.TaskStatusApplyingExtras, 92, "Applying extra features"},
		writePhase{model.TaskStatusVerifying, 97, "Verifying"},
	)
	return phases
}

// StartWrite launches a simulated write task.
func (b *Backend) StartWrite(ctx context.Context, desc model.WriteDescriptor) (*model.WriteProgress, error) {
	b.mu.Lock()
	if b.runningID != "" {
		b.mu.Unlock()
		return nil, fmt.Errorf("write task %s is in flight: %w", b.runningID, model.ErrAlreadyRunning)
	}

	taskID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	b.runningID = taskID
	b.cancelWrite = false
	b.mu.Unlock()

	b.logger.Infof("Started fake write task %s on %s", taskID, desc.Target.ID)

	go b.runWrite(taskID, desc)

	return &model.WriteProgress{
		TaskID:   taskID,
		Status:   model.TaskStatusPreparing,
		Progress: 0,
		Message:  "Preparing target device",
	}, nil
}

func (b *Backend) runWrite(taskID string, desc model.WriteDescriptor) {
	start := time.Now()
	for _, phase := range writePhases(desc) {
		time.Sleep(b.cfg.StepDelay)

		if b.writeCancelled() {
			b.finishWrite(taskID, model.WriteProgress{
				TaskID:   taskID,
				Status:   model.TaskStatusCancelled,
				Progress: phase.progress,
				Message:  "Write cancelled by user",
			})
			return
		}

		b.emit(model.WriteProgress{
			TaskID:         taskID,
			Status:         phase.status,
			Progress:       phase.progress,
			Message:        phase.message,
			SpeedMBps:      120,
			ElapsedSeconds: uint64(time.Since(start).Seconds()),
		})
	}

	time.Sleep(b.cfg.StepDelay)
	b.finishWrite(taskID, model.WriteProgress{
		TaskID:         taskID,
		Status:         model.TaskStatusCompleted,
		Progress:       100,
		Message:        "Write completed",
		ElapsedSeconds: uint64(time.Since(start).Seconds()),
	})
}

func (b *Backend) finishWrite(taskID string, terminal model.WriteProgress) {
	b.emit(terminal)

	b.mu.Lock()
	if b.runningID == taskID {
		b.runningID = ""
	}
	b.mu.Unlock()

	b.logger.Infof("Fake write task %s finished with status %s", taskID, terminal.Status)
}

func (b *Backend) writeCancelled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelWrite
}

// CancelWrite sets the cancellation flag for the in-flight task.
func (b *Backend) CancelWrite(ctx context.Context, taskID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.runningID == "" {
		return fmt.Errorf("no write task running: %w", model.ErrNotFound)
	}
	if taskID != "" && taskID != b.runningID {
		return fmt.Errorf("write task %s: %w", taskID, model.ErrNotFound)
	}

	b.cancelWrite = true
	b.logger.Infof("Cancellation requested for fake write task %s", b.runningID)
	return nil
}

// CheckTargetWritable returns the configured pre-flight result.
func (b *Backend) CheckTargetWritable(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error) {
	check := b.cfg.WritableCheck
	return &check, nil
}

// RemountTargetWritable simulates a successful remount and returns a fresh check.
func (b *Backend) RemountTargetWritable(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error) {
	check := b.cfg.WritableCheck
	check.Writable = true
	check.NeedsRemount = false
	check.Reason = ""
	return &check, nil
}

// RunBenchmark synthesizes a measurement for one mode.
func (b *Backend) RunBenchmark(ctx context.Context, target model.TargetDevice, mode model.BenchmarkMode) (*model.BenchmarkResult, error) {
	// A cancel landing between modes is sticky: consume it here so the next
	// mode is rejected instead of silently starting.
	b.mu.Lock()
	if b.cancelBench {
		b.cancelBench = false
		b.mu.Unlock()
		return nil, fmt.Errorf("benchmark mode %s: %w", mode, model.ErrCancelled)
	}
	b.mu.Unlock()

	b.logger.Debugf("Simulating %s benchmark, writing %s on %s", mode, conventions.BenchmarkFile, target.Device)

	// Simulate the measurement, polling the cancellation flag.
	steps := 4
	if mode == model.BenchmarkModeFull {
		steps = 10
	}
	start := time.Now()
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("benchmark interrupted: %w", ctx.Err())
		case <-time.After(b.cfg.StepDelay):
		}

		b.mu.Lock()
		cancelled := b.cancelBench
		if cancelled {
			b.cancelBench = false
		}
		b.mu.Unlock()
		if cancelled {
			return nil, fmt.Errorf("benchmark mode %s: %w", mode, model.ErrCancelled)
		}
	}

	seq := 310.0
	if target.Rotational {
		seq = 95.0
	}

	result := &model.BenchmarkResult{
		Mode:         mode,
		WriteSeqMBps: seq,
		Write4KMBps:  seq / 12,
		Duration:     time.Since(start),
		Samples: []model.Sample{
			{TMillis: 500, ValueMBps: seq * 0.9, WrittenGB: 0.2},
			{TMillis: 1000, ValueMBps: seq, WrittenGB: 0.5},
		},
	}
	if mode == model.BenchmarkModeMultithread {
		for _, threads := range []int{1, 2, 4, 8, 16, 32} {
			result.ThreadResults = append(result.ThreadResults, model.ThreadResult{
				Threads: threads,
				MBps:    result.Write4KMBps * float64(threads) / 2,
			})
		}
	}
	if mode == model.BenchmarkModeFull {
		result.FullWrittenGB = float64(target.FreeBytes) * 0.8 / float64(1<<30)
	}

	return result, nil
}

// CancelBenchmark sets the benchmark cancellation flag.
func (b *Backend) CancelBenchmark(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelBench = true
	return nil
}

// ListTargets returns the configured fake devices.
func (b *Backend) ListTargets(ctx context.Context) ([]model.TargetDevice, error) {
	targets := make([]model.TargetDevice, len(b.cfg.Targets))
	copy(targets, b.cfg.Targets)
	return targets, nil
}

// SubscribeWriteProgress registers a new subscriber for write progress events.
func (b *Backend) SubscribeWriteProgress(ctx context.Context) (<-chan model.WriteProgress, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSubID
	b.nextSubID++

	ch := make(chan model.WriteProgress, 64)
	b.subscribers[id] = ch

	var once sync.Once
	release := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers, id)
			close(ch)
		})
	}

	return ch, release, nil
}

func (b *Backend) emit(ev model.WriteProgress) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber, drop the event. The next one supersedes it anyway.
		}
	}
}
