package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-foodfacts-pipeline/internal/model"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, InitDB(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { Close() })
}

func TestRunLifecycle(t *testing.T) {
	setupTestDB(t)

	job := model.DefaultJobSpec("products.csv")
	require.NoError(t, SaveRun("run-1", job))

	run, err := GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", run["status"])

	spec, ok := run["spec"].(model.CleaningJobSpec)
	require.True(t, ok)
	assert.Equal(t, "products.csv", spec.Source.URL)
	assert.Equal(t, "code", spec.Dedupe.KeyColumn)

	require.NoError(t, UpdateRunStatus("run-1", "completed"))
	run, err = GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", run["status"])
}

func TestGetRunNotFound(t *testing.T) {
	setupTestDB(t)

	_, err := GetRun("missing")
	assert.Error(t, err)
}

func TestListRuns(t *testing.T) {
	setupTestDB(t)

	job := model.DefaultJobSpec("a.csv")
	require.NoError(t, SaveRun("run-a", job))
	require.NoError(t, SaveRun("run-b", job))

	runs, err := ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSaveRunError(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, SaveRun("run-err", model.DefaultJobSpec("a.csv")))
	require.NoError(t, SaveRunError("run-err", assert.AnError))
	assert.NoError(t, SaveRunError("run-err", nil), "nil errors are ignored")
}

func TestSaveStageProgress(t *testing.T) {
	setupTestDB(t)

	started := time.Now().UTC()
	require.NoError(t, SaveStageProgress("run-1", "ingestion", "started", &started, nil, 0, 0))

	ended := started.Add(time.Second)
	require.NoError(t, SaveStageProgress("run-1", "ingestion", "completed", &started, &ended, 100, 95))
}

func TestSaveImputationReport(t *testing.T) {
	setupTestDB(t)

	report := model.ImputationReport{
		Strategy: "knn",
		K:        5,
		Columns: []model.ColumnImputation{
			{Column: "energy_100g", MissingBefore: 10, Filled: 8, ResidualMissing: 2},
			{Column: "fiber_100g", MissingBefore: 3, Filled: 3, ResidualMissing: 0},
		},
	}
	require.NoError(t, SaveImputationReport("run-1", report))
}

func TestSaveRunLog(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, SaveRunLog("run-1", "pruning", "info", "columns dropped", map[string]interface{}{
		"dropped": 12,
	}))
	require.NoError(t, SaveRunLog("run-1", "pruning", "info", "no details", nil))
}
