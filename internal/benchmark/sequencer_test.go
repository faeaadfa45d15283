package benchmark_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/usbforge/usbforge/internal/backend/backendmock"
	"github.com/usbforge/usbforge/internal/benchmark"
	"github.com/usbforge/usbforge/internal/model"
)

func TestNewSequencer(t *testing.T) {
	_, err := benchmark.NewSequencer(benchmark.SequencerConfig{})
	require.Error(t, err)

	seq, err := benchmark.NewSequencer(benchmark.SequencerConfig{Client: &backendmock.MockBackend{}})
	require.NoError(t, err)
	require.NotNil(t, seq)
	assert.Equal(t, float64(0), seq.Progress())
}

func TestSequencerRun(t *testing.T) {
	target := model.TargetDevice{ID: "disk-1", FreeBytes: 64 << 30}

	quickResult := &model.BenchmarkResult{Mode: model.BenchmarkModeQuick, WriteSeqMBps: 300}
	fullResult := &model.BenchmarkResult{Mode: model.BenchmarkModeFull, WriteSeqMBps: 280, FullWrittenGB: 48}

	t.Run("runs every queued mode in order and accumulates results", func(t *testing.T) {
		mb := &backendmock.MockBackend{}
		mb.On("RunBenchmark", mock.Anything, target, model.BenchmarkModeQuick).Once().Return(quickResult, nil)
		mb.On("RunBenchmark", mock.Anything, target, model.BenchmarkModeFull).Once().Return(fullResult, nil)

		seq, err := benchmark.NewSequencer(benchmark.SequencerConfig{Client: mb})
		require.NoError(t, err)

		queue := model.NewBenchmarkQueue(model.BenchmarkModeQuick, model.BenchmarkModeFull)
		results, err := seq.Run(context.Background(), target, queue)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, *quickResult, results[model.BenchmarkModeQuick])
		assert.Equal(t, *fullResult, results[model.BenchmarkModeFull])
		assert.Equal(t, float64(100), seq.Progress())

		mb.AssertExpectations(t)
	})

	t.Run("modes never overlap", func(t *testing.T) {
		var mu sync.Mutex
		inFlight, maxInFlight := 0, 0

		mb := &backendmock.MockBackend{}
		mb.On("RunBenchmark", mock.Anything, target, mock.Anything).Times(3).Run(func(args mock.Arguments) {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
		}).Return(quickResult, nil)

		seq, err := benchmark.NewSequencer(benchmark.SequencerConfig{Client: mb})
		require.NoError(t, err)

		queue := model.NewBenchmarkQueue(model.BenchmarkModeQuick, model.BenchmarkModeMultithread, model.BenchmarkModeFull)
		_, err = seq.Run(context.Background(), target, queue)
		require.NoError(t, err)

		assert.Equal(t, 1, maxInFlight)
	})

	t.Run("cancellation-flavored error stops the loop and skips queued modes", func(t *testing.T) {
		mb := &backendmock.MockBackend{}
		mb.On("RunBenchmark", mock.Anything, target, model.BenchmarkModeQuick).Once().Return(quickResult, nil)
		mb.On("RunBenchmark", mock.Anything, target, model.BenchmarkModeMultithread).Once().Return(nil, errors.New("benchmark cancelled by user"))

		seq, err := benchmark.NewSequencer(benchmark.SequencerConfig{Client: mb})
		require.NoError(t, err)

		queue := model.NewBenchmarkQueue(model.BenchmarkModeQuick, model.BenchmarkModeMultithread, model.BenchmarkModeFull)
		results, err := seq.Run(context.Background(), target, queue)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrCancelled)

		// The completed mode's result survives; the full mode was never attempted.
		assert.Len(t, results, 1)
		mb.AssertNotCalled(t, "RunBenchmark", mock.Anything, target, model.BenchmarkModeFull)
	})

	t.Run("cancel during a mode that still succeeds skips queued modes", func(t *testing.T) {
		var seq *benchmark.Sequencer

		mb := &backendmock.MockBackend{}
		mb.On("CancelBenchmark", mock.Anything).Once().Return(nil)
		// The cancel is acknowledged while the quick mode is in flight, but
		// the mode finishes on its own and returns a clean result.
		mb.On("RunBenchmark", mock.Anything, target, model.BenchmarkModeQuick).Once().Run(func(mock.Arguments) {
			require.NoError(t, seq.Cancel(context.Background()))
		}).Return(quickResult, nil)

		seq, err := benchmark.NewSequencer(benchmark.SequencerConfig{Client: mb})
		require.NoError(t, err)

		queue := model.NewBenchmarkQueue(model.BenchmarkModeQuick, model.BenchmarkModeFull)
		results, err := seq.Run(context.Background(), target, queue)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrCancelled)

		assert.Len(t, results, 1)
		mb.AssertNotCalled(t, "RunBenchmark", mock.Anything, target, model.BenchmarkModeFull)
		mb.AssertExpectations(t)
	})

	t.Run("genuine failure is not reported as cancellation", func(t *testing.T) {
		mb := &backendmock.MockBackend{}
		mb.On("RunBenchmark", mock.Anything, target, model.BenchmarkModeQuick).Once().Return(nil, errors.New("io error on /dev/sdb"))

		seq, err := benchmark.NewSequencer(benchmark.SequencerConfig{Client: mb})
		require.NoError(t, err)

		_, err = seq.Run(context.Background(), target, model.NewBenchmarkQueue(model.BenchmarkModeQuick))
		require.Error(t, err)
		assert.False(t, errors.Is(err, model.ErrCancelled))
	})

	t.Run("results from a previous run are cleared at the start", func(t *testing.T) {
		mb := &backendmock.MockBackend{}
		mb.On("RunBenchmark", mock.Anything, target, model.BenchmarkModeQuick).Once().Return(quickResult, nil)
		mb.On("RunBenchmark", mock.Anything, target, model.BenchmarkModeMultithread).Once().Return(nil, errors.New("boom"))

		seq, err := benchmark.NewSequencer(benchmark.SequencerConfig{Client: mb})
		require.NoError(t, err)

		_, err = seq.Run(context.Background(), target, model.NewBenchmarkQueue(model.BenchmarkModeQuick))
		require.NoError(t, err)
		assert.Len(t, seq.Results(), 1)

		_, err = seq.Run(context.Background(), target, model.NewBenchmarkQueue(model.BenchmarkModeMultithread))
		require.Error(t, err)
		assert.Empty(t, seq.Results())
	})

	t.Run("empty queue is rejected", func(t *testing.T) {
		seq, err := benchmark.NewSequencer(benchmark.SequencerConfig{Client: &backendmock.MockBackend{}})
		require.NoError(t, err)

		_, err = seq.Run(context.Background(), target, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotValid)
	})
}

func TestSequencerProgressDuringRun(t *testing.T) {
	target := model.TargetDevice{ID: "disk-1", FreeBytes: 64 << 30}

	// Frozen clock: the running mode always appears 7.5s in.
	base := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	calls := 0
	now := func() time.Time {
		if calls == 0 {
			calls++
			return base
		}
		return base.Add(7500 * time.Millisecond)
	}

	started := make(chan struct{})
	finish := make(chan struct{})

	mb := &backendmock.MockBackend{}
	mb.On("RunBenchmark", mock.Anything, target, model.BenchmarkModeQuick).Once().Run(func(mock.Arguments) {
		close(started)
		<-finish
	}).Return(&model.BenchmarkResult{Mode: model.BenchmarkModeQuick}, nil)

	seq, err := benchmark.NewSequencer(benchmark.SequencerConfig{Client: mb, Now: now})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = seq.Run(context.Background(), target, model.NewBenchmarkQueue(model.BenchmarkModeQuick))
	}()

	<-started
	// min(7.5, 0.92*15)/15 * 80 = 40.
	assert.InDelta(t, 40, seq.Progress(), 0.01)
	assert.Less(t, seq.Progress(), 80.0)

	close(finish)
	<-done
	assert.Equal(t, float64(100), seq.Progress())
}

func TestSequencerCancel(t *testing.T) {
	mb := &backendmock.MockBackend{}
	mb.On("CancelBenchmark", mock.Anything).Once().Return(nil)

	seq, err := benchmark.NewSequencer(benchmark.SequencerConfig{Client: mb})
	require.NoError(t, err)

	require.NoError(t, seq.Cancel(context.Background()))
	mb.AssertExpectations(t)
}
