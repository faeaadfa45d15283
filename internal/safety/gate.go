// Package safety gates destructive actions: it runs the platform pre-flight
// writability check and enforces a time-delayed operator confirmation before
// a write task may launch.
package safety

import (
	"context"
	"fmt"
	"time"

	"github.com/usbforge/usbforge/internal/log"
	"github.com/usbforge/usbforge/internal/model"
)

// DefaultCooldown is how long the destructive confirmation stays disabled
// after it opens. It is a UI-side delay only and has no bearing on backend
// state.
const DefaultCooldown = 2 * time.Second

// Prompter asks the operator for explicit consent. Implementations present a
// dialog, a terminal prompt or a test double.
type Prompter interface {
	// ConfirmRemount asks the operator to approve the filesystem remount
	// remediation before the writability check is retried.
	ConfirmRemount(ctx context.Context, check model.WritableCheck) (bool, error)
	// ConfirmDestructive asks the operator to approve the destructive
	// action. It may be asked again when a confirmation arrives while the
	// cooldown is still active.
	ConfirmDestructive(ctx context.Context, desc model.WriteDescriptor) (bool, error)
}

// GateConfig is the configuration for the safety gate.
type GateConfig struct {
	Preflight PreflightProvider
	Prompter  Prompter
	Cooldown  time.Duration
	Logger    log.Logger

	// Now is the clock used for the cooldown, swappable in tests.
	Now func() time.Time
}

func (c *GateConfig) defaults() error {
	if c.Preflight == nil {
		return fmt.Errorf("preflight provider is required")
	}
	if c.Prompter == nil {
		return fmt.Errorf("prompter is required")
	}
	if c.Cooldown == 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "safety.Gate"})
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}

// Gate prevents irreversible actions from firing without deliberate,
// minimally-delayed operator consent.
type Gate struct {
	preflight PreflightProvider
	prompter  Prompter
	cooldown  time.Duration
	logger    log.Logger
	now       func() time.Time
}

// NewGate creates a new safety gate.
func NewGate(cfg GateConfig) (*Gate, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Gate{
		preflight: cfg.Preflight,
		prompter:  cfg.Prompter,
		cooldown:  cfg.Cooldown,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}, nil
}

// Authorize runs the full gate protocol for one descriptor. A nil return
// means the launcher may fire; any error means the destructive action must
// not happen. Operator refusals are reported wrapping model.ErrCancelled.
func (g *Gate) Authorize(ctx context.Context, desc model.WriteDescriptor) error {
	if err := g.runPreflight(ctx, desc); err != nil {
		return err
	}
	return g.confirmDestructive(ctx, desc)
}

// runPreflight verifies the target is writable on platforms that need it. A
// full repartition implies a reformat, which makes the writability of the
// current filesystem irrelevant, so the check is skipped.
func (g *Gate) runPreflight(ctx context.Context, desc model.WriteDescriptor) error {
	if !g.preflight.Supported() || desc.Features.Repartition {
		return nil
	}

	check, err := g.preflight.Check(ctx, desc.Target)
	if err != nil {
		return fmt.Errorf("pre-flight check failed: %w", err)
	}
	if !check.Supported {
		return nil
	}

	if check.NeedsRemount {
		ok, err := g.prompter.ConfirmRemount(ctx, *check)
		if err != nil {
			return fmt.Errorf("remount confirmation failed: %w", err)
		}
		if !ok {
			return fmt.Errorf("remount declined by operator: %w", model.ErrCancelled)
		}

		check, err = g.preflight.Remount(ctx, desc.Target)
		if err != nil {
			return fmt.Errorf("remount failed: %w", err)
		}
	}

	if !check.Writable || check.NeedsRemount {
		reason := check.Reason
		if reason == "" {
			reason = "target is not writable"
		}
		return fmt.Errorf("%s: %w", reason, model.ErrNotValid)
	}

	g.logger.Debugf("Pre-flight check passed for target %s", desc.Target.ID)
	return nil
}

// confirmDestructive opens the destructive confirmation and enforces the
// cooldown: confirmations arriving before it elapses are ignored and the
// operator is asked again. The cooldown restarts each time the gate opens
// the confirmation afresh (each Authorize call).
func (g *Gate) confirmDestructive(ctx context.Context, desc model.WriteDescriptor) error {
	armedAt := g.now()

	for {
		ok, err := g.prompter.ConfirmDestructive(ctx, desc)
		if err != nil {
			return fmt.Errorf("destructive confirmation failed: %w", err)
		}
		if !ok {
			return fmt.Errorf("write declined by operator: %w", model.ErrCancelled)
		}

		if g.now().Sub(armedAt) < g.cooldown {
			g.logger.Debugf("Confirmation arrived during cooldown, ignored")
			continue
		}

		g.logger.Infof("Destructive write on %s confirmed by operator", desc.Target.ID)
		return nil
	}
}
