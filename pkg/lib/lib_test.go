package lib_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbforge/usbforge/pkg/lib"
)

// newTestClient creates a client with a temp SQLite DB for test isolation.
// The simulator backend and a short cooldown keep the tests fast.
func newTestClient(t *testing.T) *lib.Client {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	client, err := lib.New(ctx, lib.Config{
		DBPath:   dbPath,
		DataDir:  t.TempDir(),
		Cooldown: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestListDevices(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	removable, err := client.ListDevices(ctx, false)
	require.NoError(t, err)
	require.NotEmpty(t, removable)
	for _, d := range removable {
		assert.True(t, d.Removable)
	}

	all, err := client.ListDevices(ctx, true)
	require.NoError(t, err)
	assert.Greater(t, len(all), len(removable))
}

func TestWrite(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	devices, err := client.ListDevices(ctx, false)
	require.NoError(t, err)
	require.NotEmpty(t, devices)

	var seen []lib.TaskStatus
	view, err := client.Write(ctx, lib.WriteRequest{
		Options: lib.WriteOptions{
			SourcePath: "/images/win11.wim",
			Target:     devices[0],
		},
		OnProgress: func(v lib.WriteView) {
			seen = append(seen, v.Status)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, lib.StatusCompleted, view.Status)
	assert.Equal(t, float64(100), view.Progress)
	assert.NotEmpty(t, seen)

	// The run landed in history.
	runs, err := client.History(ctx, lib.HistoryOpts{Kind: lib.RunWrite})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, view.TaskID, runs[0].ID)
	assert.Equal(t, lib.StatusCompleted, runs[0].Status)
}

func TestWriteInvalidOptions(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Write(context.Background(), lib.WriteRequest{
		Options: lib.WriteOptions{SourcePath: "/images/win11.txt"},
	})
	require.Error(t, err)
}

func TestBenchmark(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	devices, err := client.ListDevices(ctx, false)
	require.NoError(t, err)
	require.NotEmpty(t, devices)

	results, err := client.Benchmark(ctx, lib.BenchmarkRequest{
		Target: devices[0],
		Mode:   lib.ModeQuick,
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Greater(t, results[lib.ModeQuick].WriteSeqMBps, 0.0)

	runs, err := client.History(ctx, lib.HistoryOpts{Kind: lib.RunBenchmark})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "quick", runs[0].Detail)
}
