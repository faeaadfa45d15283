package model

import (
	"fmt"
	"time"
)

// BenchmarkMode is one independently-billed measurement mode.
type BenchmarkMode string

const (
	// BenchmarkModeQuick is a short sequential + random 4K sampling run.
	BenchmarkModeQuick BenchmarkMode = "quick"
	// BenchmarkModeMultithread adds a multi-threaded random 4K ladder.
	BenchmarkModeMultithread BenchmarkMode = "multithread"
	// BenchmarkModeFull is a large sequential fill across the target's free capacity.
	BenchmarkModeFull BenchmarkMode = "full"
)

// ParseBenchmarkMode parses a benchmark mode identifier.
func ParseBenchmarkMode(s string) (BenchmarkMode, error) {
	switch BenchmarkMode(s) {
	case BenchmarkModeQuick, BenchmarkModeMultithread, BenchmarkModeFull:
		return BenchmarkMode(s), nil
	}
	return "", fmt.Errorf("unknown benchmark mode %q: %w", s, ErrNotValid)
}

// NewBenchmarkQueue builds the ordered mode queue for one run: the primary
// mode first, then the extra modes in the order given, with duplicates
// removed.
func NewBenchmarkQueue(primary BenchmarkMode, extras ...BenchmarkMode) []BenchmarkMode {
	queue := []BenchmarkMode{primary}
	seen := map[BenchmarkMode]bool{primary: true}
	for _, m := range extras {
		if seen[m] {
			continue
		}
		seen[m] = true
		queue = append(queue, m)
	}
	return queue
}

// ThreadResult is the random 4K throughput measured at one thread count.
type ThreadResult struct {
	Threads int
	MBps    float64
}

// Sample is one point of a throughput timeline.
type Sample struct {
	TMillis   uint64
	ValueMBps float64
	WrittenGB float64
}

// BenchmarkResult is the backend's measurement for one completed mode.
type BenchmarkResult struct {
	Mode          BenchmarkMode
	WriteSeqMBps  float64
	Write4KMBps   float64
	ThreadResults []ThreadResult
	Samples       []Sample
	Duration      time.Duration
	FullWrittenGB float64
	Score         float64
	Grade         string
}

// RunKind distinguishes the two task families recorded in history.
type RunKind string

const (
	RunKindWrite     RunKind = "write"
	RunKindBenchmark RunKind = "benchmark"
)

// RunRecord is the persisted summary of one finished write or benchmark run.
type RunRecord struct {
	ID         string
	Kind       RunKind
	TargetID   string
	TargetName string
	Detail     string
	Status     TaskStatus
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time
}
