// Package write implements the deployment use case: descriptor building,
// safety gating, launch, progress consumption and best-effort cancellation.
package write

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/usbforge/usbforge/internal/backend"
	"github.com/usbforge/usbforge/internal/log"
	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/orchestrator"
	"github.com/usbforge/usbforge/internal/storage"
)

// Authorizer gates the destructive launch. Implemented by safety.Gate.
type Authorizer interface {
	Authorize(ctx context.Context, desc model.WriteDescriptor) error
}

// ServiceConfig is the configuration for the write service.
type ServiceConfig struct {
	Backend    backend.Backend
	Authorizer Authorizer
	Repository storage.Repository
	Logger     log.Logger

	// Now is the clock used for run records, swappable in tests.
	Now func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Backend == nil {
		return fmt.Errorf("backend is required")
	}
	if c.Authorizer == nil {
		return fmt.Errorf("authorizer is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Write"})
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}

// Service drives one deployment from user selections to a terminal state.
type Service struct {
	backend    backend.Backend
	authorizer Authorizer
	repo       storage.Repository
	logger     log.Logger
	now        func() time.Time
}

// NewService creates a new write service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		backend:    cfg.Backend,
		authorizer: cfg.Authorizer,
		repo:       cfg.Repository,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}, nil
}

// Request represents one deployment request.
type Request struct {
	Options model.WriteOptions
	// OnUpdate is called after every accepted progress event.
	OnUpdate func(view orchestrator.View)
}

// Run builds the descriptor, runs the safety gate and drives the task to a
// terminal state, consuming progress events as they arrive. Cancelling the
// context requests best-effort task cancellation; the final state still comes
// from the backend's own terminal event.
func (s *Service) Run(ctx context.Context, req Request) (*orchestrator.View, error) {
	desc, err := model.NewWriteDescriptor(req.Options)
	if err != nil {
		return nil, fmt.Errorf("invalid write options: %w", err)
	}

	if err := s.authorizer.Authorize(ctx, *desc); err != nil {
		return nil, fmt.Errorf("write not authorized: %w", err)
	}

	orch, err := orchestrator.New(orchestrator.Config{Backend: s.backend, Logger: s.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create orchestrator: %w", err)
	}

	// Subscribe before launching so no event can be missed.
	events, release, err := orch.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	startedAt := s.now()

	view, err := orch.Launch(ctx, *desc)
	if err != nil {
		s.saveRecord(ctx, *desc, view, startedAt)
		return &view, err
	}
	if req.OnUpdate != nil {
		req.OnUpdate(view)
	}

	view = s.consumeEvents(ctx, orch, events, req.OnUpdate)

	s.saveRecord(ctx, *desc, view, startedAt)

	return &view, nil
}

// consumeEvents folds progress events into the view until a terminal state is
// reached or the stream ends. A context cancellation issues one best-effort
// cancel request and keeps consuming: only the backend decides how the task
// ends.
func (s *Service) consumeEvents(ctx context.Context, orch *orchestrator.Orchestrator, events <-chan model.WriteProgress, onUpdate func(orchestrator.View)) orchestrator.View {
	ctxDone := ctx.Done()

	for {
		view := orch.Snapshot()
		if view.Status.IsTerminal() {
			return view
		}

		select {
		case ev, ok := <-events:
			if !ok {
				s.logger.Warningf("Progress stream closed before a terminal event")
				return orch.Snapshot()
			}
			if orch.Apply(ev) && onUpdate != nil {
				onUpdate(orch.Snapshot())
			}

		case <-ctxDone:
			ctxDone = nil // Request cancellation only once.
			if err := orch.Cancel(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warningf("Could not cancel write task: %v", err)
			}
		}
	}
}

func (s *Service) saveRecord(ctx context.Context, desc model.WriteDescriptor, view orchestrator.View, startedAt time.Time) {
	id := view.TaskID
	if id == "" {
		id = ulid.MustNew(ulid.Timestamp(s.now()), rand.Reader).String()
	}

	record := model.RunRecord{
		ID:         id,
		Kind:       model.RunKindWrite,
		TargetID:   desc.Target.ID,
		TargetName: desc.Target.Name,
		Detail:     fmt.Sprintf("%s -> %s/%s", desc.SourcePath, desc.BootMode, desc.ApplyMode),
		Status:     view.Status,
		Message:    view.Message,
		StartedAt:  startedAt,
		FinishedAt: s.now(),
	}

	// History is best effort, a failed save never fails the run itself.
	if err := s.repo.SaveRun(context.WithoutCancel(ctx), record); err != nil {
		s.logger.Warningf("Could not save run record %s: %v", record.ID, err)
	}
}
