package safety

import "github.com/usbforge/usbforge/internal/backend"

// NewPreflightProvider returns the pre-flight provider for the current
// platform. On macOS writing to an NTFS target needs a remount step first, so
// the backend-delegated check applies.
func NewPreflightProvider(client backend.Client) PreflightProvider {
	return BackendProvider{Client: client}
}
