package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/usbforge/usbforge/internal/backend"
	"github.com/usbforge/usbforge/internal/backend/fake"
	"github.com/usbforge/usbforge/internal/conventions"
	"github.com/usbforge/usbforge/internal/log"
	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/safety"
	"github.com/usbforge/usbforge/internal/storage/sqlite"
)

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults. At minimum, an empty
// Config{} will use ~/.usbforge/usbforge.db for run history and the
// in-process simulator backend.
type Config struct {
	// DBPath is the SQLite run-history database path.
	// Default: ~/.usbforge/usbforge.db.
	DBPath string

	// DataDir is the base directory for usbforge data.
	// Default: ~/.usbforge.
	DataDir string

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger

	// Backend is the execution backend deployments and benchmarks run on.
	// Default: the in-process simulator.
	Backend backend.Backend

	// Prompter asks for consent before destructive actions. The default
	// auto-confirms after waiting out the full safety cooldown.
	Prompter Prompter

	// Cooldown is the safety-gate arming period.
	// Default: [safety.DefaultCooldown].
	Cooldown time.Duration
}

func (c *Config) defaults() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DataDir = filepath.Join(home, conventions.DefaultDataDir)
	}

	if c.DBPath == "" {
		c.DBPath = conventions.DBPath(c.DataDir)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	if c.Cooldown == 0 {
		c.Cooldown = safety.DefaultCooldown
	}

	if c.Prompter == nil {
		c.Prompter = autoConfirmPrompter{delay: c.Cooldown}
	}

	if c.Backend == nil {
		b, err := fake.NewBackend(fake.BackendConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create simulator backend: %w", err)
		}
		c.Backend = b
	}

	return nil
}

// Client is the usbforge SDK entry point. Create one with [New] and release
// it with [Client.Close].
type Client struct {
	backend backend.Backend
	repo    *sqlite.Repository
	gate    *safety.Gate
	logger  log.Logger
}

// New creates a new SDK client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	gate, err := safety.NewGate(safety.GateConfig{
		Preflight: safety.NewPreflightProvider(cfg.Backend),
		Prompter:  cfg.Prompter,
		Cooldown:  cfg.Cooldown,
		Logger:    cfg.Logger,
	})
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("could not create safety gate: %w", err)
	}

	return &Client{
		backend: cfg.Backend,
		repo:    repo,
		gate:    gate,
		logger:  cfg.Logger,
	}, nil
}

// Close releases the client resources.
func (c *Client) Close() error {
	return c.repo.Close()
}

// autoConfirmPrompter approves every prompt after waiting out the safety
// cooldown, so the gate's arming period still applies to unattended runs.
type autoConfirmPrompter struct {
	delay time.Duration
}

func (p autoConfirmPrompter) ConfirmRemount(ctx context.Context, _ model.WritableCheck) (bool, error) {
	return true, nil
}

func (p autoConfirmPrompter) ConfirmDestructive(ctx context.Context, _ model.WriteDescriptor) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(p.delay):
		return true, nil
	}
}
