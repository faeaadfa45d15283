// Package orchestrator owns the single authoritative view of the in-flight
// write task: it launches tasks, folds backend progress events into the view
// and relays best-effort cancellation requests.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/usbforge/usbforge/internal/backend"
	"github.com/usbforge/usbforge/internal/log"
	"github.com/usbforge/usbforge/internal/model"
)

// View is a read-only snapshot of the current task state. Everything outside
// this package only ever sees copies of it.
type View struct {
	TaskID              string
	Status              model.TaskStatus
	Progress            float64
	Message             string
	SpeedMBps           float64
	ElapsedSeconds      uint64
	EstRemainingSeconds uint64
}

// Config is the configuration for the orchestrator.
type Config struct {
	Backend backend.Backend
	Logger  log.Logger
}

func (c *Config) defaults() error {
	if c.Backend == nil {
		return fmt.Errorf("backend is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "orchestrator.Orchestrator"})
	return nil
}

// Orchestrator drives one write task at a time. The view is mutated only in
// reaction to launch results, inbound progress events and sequencer/terminal
// transitions; callers serialize those reactions through this type.
type Orchestrator struct {
	backend backend.Backend
	logger  log.Logger

	mu         sync.Mutex
	view       View
	subscribed bool
}

// New creates a new orchestrator with an idle view.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Orchestrator{
		backend: cfg.Backend,
		logger:  cfg.Logger,
		view:    View{Status: model.TaskStatusIdle},
	}, nil
}

// Snapshot returns a copy of the current task view.
func (o *Orchestrator) Snapshot() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// Subscribe opens the write-progress subscription. It can be acquired at most
// once per orchestrator lifetime; the returned release function is safe to
// call from any exit path and is idempotent.
func (o *Orchestrator) Subscribe(ctx context.Context) (<-chan model.WriteProgress, func(), error) {
	o.mu.Lock()
	if o.subscribed {
		o.mu.Unlock()
		return nil, nil, fmt.Errorf("progress subscription already acquired: %w", model.ErrAlreadyRunning)
	}
	o.subscribed = true
	o.mu.Unlock()

	events, release, err := o.backend.SubscribeWriteProgress(ctx)
	if err != nil {
		o.mu.Lock()
		o.subscribed = false
		o.mu.Unlock()
		return nil, nil, fmt.Errorf("could not subscribe to write progress: %w", err)
	}

	var once sync.Once
	return events, func() { once.Do(release) }, nil
}

// Launch issues the start command and stores the backend task id as the sole
// correlation key for later events and cancellation.
//
// When the backend rejects the descriptor the view transitions straight to
// failed with the error text as the message and no task id, so no further
// events are expected or accepted.
func (o *Orchestrator) Launch(ctx context.Context, desc model.WriteDescriptor) (View, error) {
	o.mu.Lock()
	if o.view.TaskID != "" && !o.view.Status.IsTerminal() {
		view := o.view
		o.mu.Unlock()
		return view, fmt.Errorf("task %s is in flight: %w", view.TaskID, model.ErrAlreadyRunning)
	}
	o.mu.Unlock()

	initial, err := o.backend.StartWrite(ctx, desc)
	if err != nil {
		o.mu.Lock()
		o.view = View{
			Status:  model.TaskStatusFailed,
			Message: err.Error(),
		}
		view := o.view
		o.mu.Unlock()

		o.logger.Errorf("Write launch failed: %s", err)
		return view, fmt.Errorf("could not start write task: %w", err)
	}

	o.mu.Lock()
	o.view = View{
		TaskID:   initial.TaskID,
		Status:   initial.Status,
		Progress: initial.Progress,
		Message:  initial.Message,
	}
	view := o.view
	o.mu.Unlock()

	o.logger.Infof("Launched write task %s", initial.TaskID)
	return view, nil
}

// Apply folds one inbound progress event into the view, last-received-wins.
// It reports whether the event was accepted.
//
// Events carrying a task id other than the tracked one are discarded, and a
// terminal status is final: nothing mutates the view afterwards.
func (o *Orchestrator) Apply(ev model.WriteProgress) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if ev.TaskID == "" || ev.TaskID != o.view.TaskID {
		o.logger.Debugf("Discarded progress event for stale task %q", ev.TaskID)
		return false
	}
	if o.view.Status.IsTerminal() {
		return false
	}

	o.view.Status = ev.Status
	o.view.Progress = ev.Progress
	o.view.Message = ev.Message
	o.view.SpeedMBps = ev.SpeedMBps
	o.view.ElapsedSeconds = ev.ElapsedSeconds
	o.view.EstRemainingSeconds = ev.EstRemainingSeconds

	return true
}

// Cancel requests best-effort cancellation of the tracked task. The request
// never mutates the view: only the backend's own terminal event does. When
// the request itself fails the error is returned as its own class and the
// task state is left untouched.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	o.mu.Lock()
	taskID := o.view.TaskID
	terminal := o.view.Status.IsTerminal()
	o.mu.Unlock()

	if taskID == "" || terminal {
		return fmt.Errorf("no write task in flight: %w", model.ErrNotFound)
	}

	if err := o.backend.CancelWrite(ctx, taskID); err != nil {
		return fmt.Errorf("could not cancel write task %s: %w", taskID, err)
	}

	o.logger.Infof("Cancellation requested for write task %s", taskID)
	return nil
}
