package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-foodfacts-pipeline/internal/store"
)

func TestRunTrackerStageLifecycle(t *testing.T) {
	require.NoError(t, store.InitDB(filepath.Join(t.TempDir(), "tracker.db")))
	t.Cleanup(func() { store.Close() })

	tracker := NewRunTracker("run-track", true)

	tracker.StartStage("ingestion", 0)
	tracker.EndStage(100, 0)

	tracker.StartStage("pruning", 100)
	tracker.EndStage(100, 12)

	tracker.StartStage("deduplication", 100)
	tracker.FailStage(assert.AnError)

	require.Len(t, tracker.Stages, 3)
	assert.Equal(t, "completed", tracker.Stages[0].Status)
	assert.Equal(t, 100, tracker.Stages[0].RowsOut)
	assert.Equal(t, 12, tracker.Stages[1].CellsTouched)
	assert.Equal(t, "failed", tracker.Stages[2].Status)

	metrics := tracker.Metrics("failed", time.Now().Add(-time.Second))
	assert.Equal(t, "run-track", metrics.RunID)
	assert.Len(t, metrics.Stages, 3)
	require.NotNil(t, metrics.EndTime)
}

func TestRunTrackerEndWithoutStartIsNoop(t *testing.T) {
	require.NoError(t, store.InitDB(filepath.Join(t.TempDir(), "tracker2.db")))
	t.Cleanup(func() { store.Close() })

	tracker := NewRunTracker("run-noop", false)
	tracker.EndStage(10, 0)
	tracker.FailStage(assert.AnError)
	assert.Empty(t, tracker.Stages)
}
