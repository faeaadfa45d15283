package lib

import (
	"context"

	appbenchmark "github.com/usbforge/usbforge/internal/app/benchmark"
)

// BenchmarkRequest describes one benchmark run.
type BenchmarkRequest struct {
	Target Device
	Mode   BenchmarkMode
	Extras []BenchmarkMode

	// OnProgress is called periodically with the blended aggregate
	// percentage and the results accumulated so far.
	OnProgress func(pct float64, results map[BenchmarkMode]BenchmarkResult)
}

// Benchmark runs the requested modes strictly one after another on the target
// device and returns the per-mode results. Cancelling the context requests
// best-effort cancellation of the in-flight mode; results of already-finished
// modes are still returned.
func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (map[BenchmarkMode]BenchmarkResult, error) {
	svc, err := appbenchmark.NewService(appbenchmark.ServiceConfig{
		Backend:    c.backend,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, err
	}

	resp, err := svc.Run(ctx, appbenchmark.Request{
		Target:     req.Target,
		Mode:       req.Mode,
		Extras:     req.Extras,
		OnProgress: req.OnProgress,
	})
	if resp == nil {
		return nil, err
	}

	return resp.Results, err
}
