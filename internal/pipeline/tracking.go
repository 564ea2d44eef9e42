package pipeline

import (
	"time"

	"go-foodfacts-pipeline/internal/model"
	"go-foodfacts-pipeline/internal/store"
)

// ------------------- Run Tracking -------------------

// RunTracker collects per-stage metrics and mirrors them into the run
// store. A cleaning run is one-shot, so metrics flush synchronously at
// stage boundaries instead of on a background ticker.
type RunTracker struct {
	RunID   string
	Logging bool
	Stages  []model.StageMetrics

	current *model.StageMetrics
}

// NewRunTracker creates a tracker for one cleaning run
func NewRunTracker(runID string, logging bool) *RunTracker {
	return &RunTracker{RunID: runID, Logging: logging}
}

// StartStage marks a stage as running and persists the transition.
func (rt *RunTracker) StartStage(stage string, rowsIn int) {
	now := time.Now()
	rt.current = &model.StageMetrics{
		Stage:     stage,
		StartTime: now,
		RowsIn:    rowsIn,
		Status:    "running",
	}
	store.UpdateRunStatus(rt.RunID, stage)
	store.SaveStageProgress(rt.RunID, stage, "started", &now, nil, rowsIn, 0)
}

// EndStage marks the current stage as completed and persists progress.
func (rt *RunTracker) EndStage(rowsOut, cellsTouched int) {
	if rt.current == nil {
		return
	}
	now := time.Now()
	rt.current.EndTime = &now
	rt.current.Duration = now.Sub(rt.current.StartTime).String()
	rt.current.RowsOut = rowsOut
	rt.current.CellsTouched = cellsTouched
	rt.current.Status = "completed"

	store.SaveStageProgress(rt.RunID, rt.current.Stage, "completed",
		&rt.current.StartTime, &now, rt.current.RowsIn, rowsOut)
	rt.Stages = append(rt.Stages, *rt.current)
	rt.current = nil
}

// FailStage marks the current stage as failed.
func (rt *RunTracker) FailStage(err error) {
	if rt.current == nil {
		return
	}
	now := time.Now()
	rt.current.EndTime = &now
	rt.current.Status = "failed"
	store.SaveStageProgress(rt.RunID, rt.current.Stage, "failed",
		&rt.current.StartTime, &now, rt.current.RowsIn, 0)
	store.SaveRunError(rt.RunID, err)
	rt.Stages = append(rt.Stages, *rt.current)
	rt.current = nil
}

// Metrics snapshots the run's stage history for the run log.
func (rt *RunTracker) Metrics(status string, start time.Time) model.RunMetrics {
	now := time.Now()
	return model.RunMetrics{
		RunID:     rt.RunID,
		StartTime: start,
		EndTime:   &now,
		Status:    status,
		Stages:    rt.Stages,
	}
}

// Log persists a structured log entry when detailed logging is enabled.
func (rt *RunTracker) Log(stage, level, message string, details map[string]interface{}) {
	if !rt.Logging {
		return
	}
	store.SaveRunLog(rt.RunID, stage, level, message, details)
}
