package model

import "time"

// StageMetrics tracks metrics for one pipeline stage
type StageMetrics struct {
	Stage       string     `json:"stage"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Duration    string     `json:"duration,omitempty"`
	RowsIn      int        `json:"rows_in"`
	RowsOut     int        `json:"rows_out"`
	CellsTouched int       `json:"cells_touched"`
	Status      string     `json:"status"` // "running", "completed", "failed"
}

// RunMetrics tracks one cleaning run end to end
type RunMetrics struct {
	RunID     string         `json:"run_id"`
	StartTime time.Time      `json:"start_time"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Status    string         `json:"status"`
	Stages    []StageMetrics `json:"stages"`
}
