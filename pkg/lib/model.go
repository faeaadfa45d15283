package lib

import (
	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/orchestrator"
	"github.com/usbforge/usbforge/internal/safety"
)

// Device is a candidate destination disk as enumerated by the backend.
type Device = model.TargetDevice

// WriteOptions are the user selections a deployment is built from.
type WriteOptions = model.WriteOptions

// PartitionOptions holds the partition layout parameters for the target.
type PartitionOptions = model.PartitionConfig

// VirtualDiskOptions holds the container parameters for virtual-disk apply modes.
type VirtualDiskOptions = model.VirtualDiskConfig

// Features is the closed set of independent deployment feature toggles.
type Features = model.ExtraFeatures

// WriteView is a read-only snapshot of the in-flight deployment state.
type WriteView = orchestrator.View

// TaskStatus is the lifecycle state of a write task.
type TaskStatus = model.TaskStatus

// Terminal task statuses.
const (
	StatusCompleted = model.TaskStatusCompleted
	StatusFailed    = model.TaskStatusFailed
	StatusCancelled = model.TaskStatusCancelled
)

// Boot modes.
const (
	BootUEFIGPT = model.BootModeUEFIGPT
	BootUEFIMBR = model.BootModeUEFIMBR
	BootLegacy  = model.BootModeLegacy
)

// BenchmarkMode is one independently-run measurement mode.
type BenchmarkMode = model.BenchmarkMode

// Benchmark modes.
const (
	ModeQuick       = model.BenchmarkModeQuick
	ModeMultithread = model.BenchmarkModeMultithread
	ModeFull        = model.BenchmarkModeFull
)

// BenchmarkResult is the backend's measurement for one completed mode.
type BenchmarkResult = model.BenchmarkResult

// RunRecord is the persisted summary of one finished write or benchmark run.
type RunRecord = model.RunRecord

// RunKind distinguishes the two task families recorded in history.
type RunKind = model.RunKind

// Run kinds.
const (
	RunWrite     = model.RunKindWrite
	RunBenchmark = model.RunKindBenchmark
)

// Prompter asks the operator for explicit consent before destructive actions.
type Prompter = safety.Prompter

// IsCancel reports whether an error classifies as an operator cancellation.
func IsCancel(err error) bool { return model.IsCancel(err) }
