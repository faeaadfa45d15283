package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/storage/memory"
)

func runFixture(id string, startedAt time.Time) model.RunRecord {
	return model.RunRecord{
		ID:         id,
		Kind:       model.RunKindWrite,
		TargetID:   "disk-1",
		TargetName: "SanDisk Extreme",
		Detail:     "win11.wim -> uefi-gpt/direct",
		Status:     model.TaskStatusCompleted,
		Message:    "Write completed",
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(10 * time.Minute),
	}
}

func TestRepositoryRuns(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	t.Run("empty repository lists nothing", func(t *testing.T) {
		runs, err := repo.ListRuns(ctx)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})

	t.Run("missing run is not found", func(t *testing.T) {
		_, err := repo.GetRun(ctx, "nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("run without id is rejected", func(t *testing.T) {
		err := repo.SaveRun(ctx, model.RunRecord{})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotValid)
	})

	t.Run("saved runs round-trip and list most recent first", func(t *testing.T) {
		older := runFixture("run-1", base)
		newer := runFixture("run-2", base.Add(time.Hour))

		require.NoError(t, repo.SaveRun(ctx, older))
		require.NoError(t, repo.SaveRun(ctx, newer))

		got, err := repo.GetRun(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, older, *got)

		runs, err := repo.ListRuns(ctx)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "run-2", runs[0].ID)
		assert.Equal(t, "run-1", runs[1].ID)
	})

	t.Run("saving the same id overwrites", func(t *testing.T) {
		run := runFixture("run-1", base)
		run.Status = model.TaskStatusFailed
		require.NoError(t, repo.SaveRun(ctx, run))

		got, err := repo.GetRun(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, model.TaskStatusFailed, got.Status)
	})
}
