//go:build !darwin

package safety

import "github.com/usbforge/usbforge/internal/backend"

// NewPreflightProvider returns the pre-flight provider for the current
// platform. Outside macOS no pre-flight check is required.
func NewPreflightProvider(client backend.Client) PreflightProvider {
	return UnsupportedProvider{}
}
