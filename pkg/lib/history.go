package lib

import (
	"context"

	"github.com/usbforge/usbforge/internal/app/history"
)

// HistoryOpts filters the run-history listing.
type HistoryOpts struct {
	// Kind limits the listing to one task family. Empty means both.
	Kind RunKind
	// Limit caps the number of returned records. Zero means no cap.
	Limit int
}

// History returns past write and benchmark runs, most recent first.
func (c *Client) History(ctx context.Context, opts HistoryOpts) ([]RunRecord, error) {
	svc, err := history.NewService(history.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, err
	}

	return svc.List(ctx, history.ListRequest{
		Kind:  opts.Kind,
		Limit: opts.Limit,
	})
}
