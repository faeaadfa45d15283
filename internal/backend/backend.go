package backend

import (
	"context"

	"github.com/usbforge/usbforge/internal/model"
)

// Client is the request/response command surface of the execution backend.
//
// The backend performs the actual disk work (partitioning, image apply, boot
// repair, measurements) on its own threads; every call here suspends the
// caller until the backend responds.
type Client interface {
	// StartWrite launches a write task and returns its initial progress,
	// including the backend-assigned task id used to correlate later events.
	StartWrite(ctx context.Context, desc model.WriteDescriptor) (*model.WriteProgress, error)

	// CancelWrite requests best-effort cancellation of an in-flight task.
	// It is a request, not a guarantee: the task may still complete
	// naturally before the cancellation takes effect.
	CancelWrite(ctx context.Context, taskID string) error

	// CheckTargetWritable runs the platform pre-flight writability check.
	CheckTargetWritable(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error)

	// RemountTargetWritable remounts the target filesystem writable and
	// returns a fresh check result.
	RemountTargetWritable(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error)

	// RunBenchmark runs one measurement mode to completion. Modes need
	// exclusive device access, so callers must never overlap these calls.
	RunBenchmark(ctx context.Context, target model.TargetDevice, mode model.BenchmarkMode) (*model.BenchmarkResult, error)

	// CancelBenchmark requests cancellation of the in-flight benchmark mode.
	CancelBenchmark(ctx context.Context) error

	// ListTargets enumerates candidate target devices.
	ListTargets(ctx context.Context) ([]model.TargetDevice, error)
}

// ProgressSubscriber is the push side of the backend boundary.
type ProgressSubscriber interface {
	// SubscribeWriteProgress opens the live write-progress subscription.
	// The returned release function must be called exactly once; after it
	// returns, no further events are delivered and the channel is closed.
	SubscribeWriteProgress(ctx context.Context) (events <-chan model.WriteProgress, release func(), err error)
}

// Backend is the full boundary the orchestrator talks through.
type Backend interface {
	Client
	ProgressSubscriber
}
