package benchmark_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appbenchmark "github.com/usbforge/usbforge/internal/app/benchmark"
	"github.com/usbforge/usbforge/internal/backend/backendmock"
	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/storage/storagemock"
)

func testTarget() model.TargetDevice {
	return model.TargetDevice{
		ID:        "disk-1",
		Name:      "SanDisk Extreme",
		Device:    "/dev/sdb",
		SizeBytes: 64 << 30,
		FreeBytes: 60 << 30,
		Removable: true,
	}
}

func newService(t *testing.T, mb *backendmock.MockBackend, mr *storagemock.MockRepository) *appbenchmark.Service {
	t.Helper()

	svc, err := appbenchmark.NewService(appbenchmark.ServiceConfig{
		Backend:          mb,
		Repository:       mr,
		ProgressInterval: time.Hour, // Tests drive progress through the final callback only.
	})
	require.NoError(t, err)
	return svc
}

func TestServiceRunValidation(t *testing.T) {
	tests := map[string]struct {
		request appbenchmark.Request
	}{
		"a target without id should be rejected": {
			request: appbenchmark.Request{Mode: model.BenchmarkModeQuick},
		},
		"a request without mode should be rejected": {
			request: appbenchmark.Request{Target: testTarget()},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mb := &backendmock.MockBackend{}
			mr := &storagemock.MockRepository{}
			svc := newService(t, mb, mr)

			_, err := svc.Run(context.Background(), test.request)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrNotValid)

			mb.AssertNotCalled(t, "RunBenchmark", mock.Anything, mock.Anything, mock.Anything)
			mr.AssertNotCalled(t, "SaveRun", mock.Anything, mock.Anything)
		})
	}
}

func TestServiceRunQueueOrder(t *testing.T) {
	target := testTarget()

	var ran []model.BenchmarkMode
	mb := &backendmock.MockBackend{}
	mb.On("RunBenchmark", mock.Anything, mock.Anything, mock.Anything).Times(3).Run(func(args mock.Arguments) {
		ran = append(ran, args.Get(2).(model.BenchmarkMode))
	}).Return(&model.BenchmarkResult{WriteSeqMBps: 300}, nil)

	mr := &storagemock.MockRepository{}
	mr.On("SaveRun", mock.Anything, mock.MatchedBy(func(r model.RunRecord) bool {
		return r.Kind == model.RunKindBenchmark &&
			r.Status == model.TaskStatusCompleted &&
			r.Detail == "quick+multithread+full" &&
			r.TargetID == target.ID
	})).Once().Return(nil)

	svc := newService(t, mb, mr)

	var lastPct float64
	resp, err := svc.Run(context.Background(), appbenchmark.Request{
		Target: target,
		Mode:   model.BenchmarkModeQuick,
		// Duplicate extras collapse into a single queue entry.
		Extras: []model.BenchmarkMode{model.BenchmarkModeMultithread, model.BenchmarkModeFull, model.BenchmarkModeQuick},
		OnProgress: func(pct float64, _ map[model.BenchmarkMode]model.BenchmarkResult) {
			lastPct = pct
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []model.BenchmarkMode{model.BenchmarkModeQuick, model.BenchmarkModeMultithread, model.BenchmarkModeFull}, resp.Queue)
	assert.Equal(t, resp.Queue, ran)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, float64(100), lastPct)

	mb.AssertExpectations(t)
	mr.AssertExpectations(t)
}

func TestServiceRunModeFailure(t *testing.T) {
	mb := &backendmock.MockBackend{}
	mb.On("RunBenchmark", mock.Anything, mock.Anything, model.BenchmarkModeQuick).Once().Return(&model.BenchmarkResult{WriteSeqMBps: 300}, nil)
	mb.On("RunBenchmark", mock.Anything, mock.Anything, model.BenchmarkModeMultithread).Once().Return(nil, errors.New("device i/o error"))

	mr := &storagemock.MockRepository{}
	mr.On("SaveRun", mock.Anything, mock.MatchedBy(func(r model.RunRecord) bool {
		return r.Status == model.TaskStatusFailed
	})).Once().Return(nil)

	svc := newService(t, mb, mr)

	resp, err := svc.Run(context.Background(), appbenchmark.Request{
		Target: testTarget(),
		Mode:   model.BenchmarkModeQuick,
		Extras: []model.BenchmarkMode{model.BenchmarkModeMultithread, model.BenchmarkModeFull},
	})
	require.Error(t, err)

	// The run stops at the failing mode but keeps the results already measured.
	require.Len(t, resp.Results, 1)
	assert.Contains(t, resp.Results, model.BenchmarkModeQuick)

	mb.AssertExpectations(t)
	mr.AssertExpectations(t)
}

func TestServiceRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mb := &backendmock.MockBackend{}
	mb.On("RunBenchmark", mock.Anything, mock.Anything, model.BenchmarkModeQuick).Once().Run(func(mock.Arguments) {
		cancel()
	}).Return(nil, errors.New("benchmark aborted by user"))
	mb.On("CancelBenchmark", mock.Anything).Maybe().Return(nil)

	mr := &storagemock.MockRepository{}
	mr.On("SaveRun", mock.Anything, mock.MatchedBy(func(r model.RunRecord) bool {
		return r.Status == model.TaskStatusCancelled && r.Message == "Benchmark cancelled by user"
	})).Once().Return(nil)

	svc := newService(t, mb, mr)

	_, err := svc.Run(ctx, appbenchmark.Request{
		Target: testTarget(),
		Mode:   model.BenchmarkModeQuick,
		Extras: []model.BenchmarkMode{model.BenchmarkModeFull},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCancelled)

	// The queued full mode was never attempted.
	mb.AssertNumberOfCalls(t, "RunBenchmark", 1)
	mr.AssertExpectations(t)
}
