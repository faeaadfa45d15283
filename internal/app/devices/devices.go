// Package devices implements the target discovery use case.
package devices

import (
	"context"
	"fmt"
	"sort"

	"github.com/usbforge/usbforge/internal/backend"
	"github.com/usbforge/usbforge/internal/log"
	"github.com/usbforge/usbforge/internal/model"
)

// ServiceConfig is the configuration for the devices service.
type ServiceConfig struct {
	Backend backend.Client
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Backend == nil {
		return fmt.Errorf("backend is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Devices"})
	return nil
}

// Service lists and resolves candidate target devices.
type Service struct {
	backend backend.Client
	logger  log.Logger
}

// NewService creates a new devices service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		backend: cfg.Backend,
		logger:  cfg.Logger,
	}, nil
}

// ListRequest filters the device listing.
type ListRequest struct {
	// All includes fixed (non-removable) disks in the listing.
	All bool
}

// List returns the candidate targets reported by the backend, removable-only
// by default, sorted by name for stable output.
func (s *Service) List(ctx context.Context, req ListRequest) ([]model.TargetDevice, error) {
	targets, err := s.backend.ListTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list target devices: %w", err)
	}

	devices := make([]model.TargetDevice, 0, len(targets))
	for _, t := range targets {
		if !req.All && !t.Removable {
			continue
		}
		devices = append(devices, t)
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })

	s.logger.Debugf("Listed %d of %d target devices", len(devices), len(targets))
	return devices, nil
}

// Get resolves one target by its opaque id.
func (s *Service) Get(ctx context.Context, id string) (*model.TargetDevice, error) {
	if id == "" {
		return nil, fmt.Errorf("target device id is required: %w", model.ErrNotValid)
	}

	targets, err := s.backend.ListTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list target devices: %w", err)
	}

	for _, t := range targets {
		if t.ID == id {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("target device %q: %w", id, model.ErrNotFound)
}
