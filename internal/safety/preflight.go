package safety

import (
	"context"
	"fmt"

	"github.com/usbforge/usbforge/internal/backend"
	"github.com/usbforge/usbforge/internal/model"
)

// PreflightProvider runs the platform pre-flight writability check before the
// destructive confirmation is allowed to open. Platforms without the check
// use the unsupported variant and the gate skips straight to the
// confirmation, instead of branching on platform names.
type PreflightProvider interface {
	// Supported reports whether this platform requires the check.
	Supported() bool
	// Check verifies the target is writable.
	Check(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error)
	// Remount remounts the target filesystem writable and re-checks it.
	Remount(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error)
}

// UnsupportedProvider is the pre-flight variant for platforms where direct
// device access needs no extra compatibility step.
type UnsupportedProvider struct{}

func (UnsupportedProvider) Supported() bool { return false }

func (UnsupportedProvider) Check(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error) {
	return nil, fmt.Errorf("pre-flight check is not available on this platform: %w", model.ErrUnsupported)
}

func (UnsupportedProvider) Remount(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error) {
	return nil, fmt.Errorf("remount is not available on this platform: %w", model.ErrUnsupported)
}

// BackendProvider delegates the pre-flight check to the execution backend.
type BackendProvider struct {
	Client backend.Client
}

func (BackendProvider) Supported() bool { return true }

func (p BackendProvider) Check(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error) {
	check, err := p.Client.CheckTargetWritable(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("could not check target writability: %w", err)
	}
	return check, nil
}

func (p BackendProvider) Remount(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error) {
	check, err := p.Client.RemountTargetWritable(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("could not remount target writable: %w", err)
	}
	return check, nil
}
