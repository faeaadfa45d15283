package benchmark

import (
	"math"
	"time"

	"github.com/usbforge/usbforge/internal/model"
)

// Time-budget heuristic constants. Progress during a benchmark run is
// estimated from elapsed time against an assumed per-mode duration, because
// the backend does not expose sub-task byte counters for every mode.
const (
	quickEstimate       = 15 * time.Second
	multithreadEstimate = 40 * time.Second

	// runningModeCap stops a running mode's contribution at 92% of its
	// estimate so the bar never appears finished before the backend
	// actually reports completion.
	runningModeCap = 0.92

	// inProgressCeiling is the asymptotic ceiling of the aggregate while
	// any mode is outstanding. The aggregate only resolves to 100 once the
	// sequencer records the run as finished.
	inProgressCeiling = 80.0

	// The full-fill mode writes roughly 80% of the target's free capacity
	// (clamped the same way the backend clamps it), at an assumed
	// throughput that depends on the media classification.
	fullFillShare         = 0.8
	minFullFillBytes      = 4 << 30
	maxFullFillBytes      = 128 << 30
	assumedSolidStateMBps = 200.0
	assumedRotationalMBps = 80.0
	minFullEstimate       = time.Minute
	maxFullEstimate       = 45 * time.Minute
)

// ModeEstimate returns the base time estimate for one mode on the given
// target. Quick and multithread are constants; the large sequential fill is
// derived from the target's free capacity and rotational classification.
func ModeEstimate(mode model.BenchmarkMode, target model.TargetDevice) time.Duration {
	switch mode {
	case model.BenchmarkModeMultithread:
		return multithreadEstimate
	case model.BenchmarkModeFull:
		bytes := float64(target.FreeBytes) * fullFillShare
		bytes = math.Max(bytes, minFullFillBytes)
		bytes = math.Min(bytes, maxFullFillBytes)

		mbps := assumedSolidStateMBps
		if target.Rotational {
			mbps = assumedRotationalMBps
		}

		est := time.Duration(bytes / (mbps * (1 << 20)) * float64(time.Second))
		if est < minFullEstimate {
			est = minFullEstimate
		}
		if est > maxFullEstimate {
			est = maxFullEstimate
		}
		return est
	default:
		return quickEstimate
	}
}

// Estimate is the time budget for one benchmark run.
type Estimate struct {
	perMode map[model.BenchmarkMode]time.Duration
	total   time.Duration
}

// NewEstimate computes the per-mode and total time budget for a mode queue.
func NewEstimate(queue []model.BenchmarkMode, target model.TargetDevice) *Estimate {
	perMode := map[model.BenchmarkMode]time.Duration{}
	var total time.Duration
	for _, mode := range queue {
		est := ModeEstimate(mode, target)
		perMode[mode] = est
		total += est
	}
	return &Estimate{perMode: perMode, total: total}
}

// Total returns the total estimated duration of the run.
func (e *Estimate) Total() time.Duration { return e.total }

// Progress blends fully-finished modes with the running mode's capped elapsed
// time into one aggregate percentage, scaled to the in-progress ceiling.
func (e *Estimate) Progress(finished []model.BenchmarkMode, running model.BenchmarkMode, elapsed time.Duration) float64 {
	if e.total <= 0 {
		return 0
	}

	var done float64
	for _, mode := range finished {
		done += e.perMode[mode].Seconds()
	}

	if running != "" {
		capped := runningModeCap * e.perMode[running].Seconds()
		done += math.Min(elapsed.Seconds(), capped)
	}

	return done / e.total.Seconds() * inProgressCeiling
}
