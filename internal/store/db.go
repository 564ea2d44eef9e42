package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"go-foodfacts-pipeline/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

var db *sql.DB

// InitDB opens the run-tracking database and creates tables if needed.
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		spec TEXT,
		status TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	stageTable := `
	CREATE TABLE IF NOT EXISTS stage_progress (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		stage TEXT,
		status TEXT,
		started_at DATETIME,
		ended_at DATETIME,
		rows_in INTEGER,
		rows_out INTEGER
	);
	`
	logTable := `
	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		stage TEXT,
		level TEXT,
		message TEXT,
		details TEXT,
		created_at DATETIME
	);
	`
	imputationTable := `
	CREATE TABLE IF NOT EXISTS imputation_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		strategy TEXT,
		column_name TEXT,
		missing_before INTEGER,
		filled INTEGER,
		residual_missing INTEGER,
		created_at DATETIME
	);
	`

	for _, ddl := range []string{runTable, errorTable, stageTable, logTable, imputationTable} {
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database handle.
func Close() error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// SaveRun stores a new cleaning run with its job spec
func SaveRun(runID string, spec model.CleaningJobSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO runs (id, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runID, specJSON, "pending", now, now)
	return err
}

// SaveRunError records an error for a run
func SaveRunError(runID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := db.Exec(`INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, err.Error(), now)
	return e
}

// UpdateRunStatus updates the status of a run
func UpdateRunStatus(runID string, status string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return err
}

// SaveStageProgress records progress for a pipeline stage
func SaveStageProgress(runID, stage, status string, startedAt, endedAt *time.Time, rowsIn, rowsOut int) error {
	_, err := db.Exec(
		`INSERT INTO stage_progress (run_id, stage, status, started_at, ended_at, rows_in, rows_out) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, stage, status, startedAt, endedAt, rowsIn, rowsOut)
	return err
}

// SaveRunLog persists a structured log entry for a run
func SaveRunLog(runID, stage, level, message string, details map[string]interface{}) error {
	var detailsJSON []byte
	if details != nil {
		detailsJSON, _ = json.Marshal(details)
	}
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO run_logs (run_id, stage, level, message, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, level, message, string(detailsJSON), now)
	return err
}

// SaveImputationReport persists per-column imputation outcomes
func SaveImputationReport(runID string, report model.ImputationReport) error {
	now := time.Now().UTC()
	for _, col := range report.Columns {
		_, err := db.Exec(
			`INSERT INTO imputation_reports (run_id, strategy, column_name, missing_before, filled, residual_missing, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, report.Strategy, col.Column, col.MissingBefore, col.Filled, col.ResidualMissing, now)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetRun fetches full run spec and status
func GetRun(runID string) (map[string]interface{}, error) {
	var specJSON, status string
	var createdAt, updatedAt time.Time

	err := db.QueryRow(`SELECT spec, status, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&specJSON, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var spec model.CleaningJobSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":        runID,
		"spec":      spec,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}, nil
}

// ListRuns returns all runs with basic info
func ListRuns() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT id, status, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]interface{}{
			"id":        id,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return runs, rows.Err()
}
