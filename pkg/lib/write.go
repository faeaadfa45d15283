package lib

import (
	"context"

	appwrite "github.com/usbforge/usbforge/internal/app/write"
	"github.com/usbforge/usbforge/internal/orchestrator"
)

// WriteRequest describes one deployment.
type WriteRequest struct {
	Options WriteOptions

	// OnProgress is called after every accepted progress event.
	OnProgress func(view WriteView)
}

// Write deploys a system image onto a target device and blocks until the task
// reaches a terminal state. Cancelling the context requests best-effort task
// cancellation; the returned view carries the backend's own terminal state.
//
// The safety gate configured on the client runs before anything is launched.
func (c *Client) Write(ctx context.Context, req WriteRequest) (*WriteView, error) {
	svc, err := appwrite.NewService(appwrite.ServiceConfig{
		Backend:    c.backend,
		Authorizer: c.gate,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, err
	}

	var onUpdate func(orchestrator.View)
	if req.OnProgress != nil {
		onUpdate = func(v orchestrator.View) { req.OnProgress(v) }
	}

	return svc.Run(ctx, appwrite.Request{
		Options:  req.Options,
		OnUpdate: onUpdate,
	})
}
