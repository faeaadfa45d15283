package lib

import (
	"context"

	"github.com/usbforge/usbforge/internal/app/devices"
)

// ListDevices returns the candidate target devices reported by the backend.
// Fixed (non-removable) disks are included only when all is true.
func (c *Client) ListDevices(ctx context.Context, all bool) ([]Device, error) {
	svc, err := devices.NewService(devices.ServiceConfig{
		Backend: c.backend,
		Logger:  c.logger,
	})
	if err != nil {
		return nil, err
	}

	return svc.List(ctx, devices.ListRequest{All: all})
}

// GetDevice resolves one target device by its opaque id.
func (c *Client) GetDevice(ctx context.Context, id string) (*Device, error) {
	svc, err := devices.NewService(devices.ServiceConfig{
		Backend: c.backend,
		Logger:  c.logger,
	})
	if err != nil {
		return nil, err
	}

	return svc.Get(ctx, id)
}
