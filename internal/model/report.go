package model

import "time"

// ExportResult represents the result of one export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "json", "parquet", "database"
	Path        string    `json:"path"` // file path or table name
	RecordCount int       `json:"record_count"`
	Bytes       int64     `json:"bytes,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ExportedAt  time.Time `json:"exported_at"`
}

// ColumnImputation reports imputation activity for one target column
type ColumnImputation struct {
	Column          string `json:"column"`
	MissingBefore   int    `json:"missing_before"`
	Filled          int    `json:"filled"`
	ResidualMissing int    `json:"residual_missing"`
}

// ImputationReport aggregates per-column imputation results for a strategy
type ImputationReport struct {
	Strategy string             `json:"strategy"` // "calculation" or "knn"
	K        int                `json:"k,omitempty"`
	Columns  []ColumnImputation `json:"columns"`
}

// TotalResidual returns the residual missing cell count across all columns.
func (r ImputationReport) TotalResidual() int {
	n := 0
	for _, c := range r.Columns {
		n += c.ResidualMissing
	}
	return n
}

// TotalFilled returns the filled cell count across all columns.
func (r ImputationReport) TotalFilled() int {
	n := 0
	for _, c := range r.Columns {
		n += c.Filled
	}
	return n
}

// RunReport is the JSON artifact written next to the exported datasets
type RunReport struct {
	RunID          string             `json:"run_id"`
	Input          string             `json:"input"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	RowsIngested   int                `json:"rows_ingested"`
	RowsExported   int                `json:"rows_exported"`
	ColumnsPruned  []string           `json:"columns_pruned"`
	ColumnsKept    []string           `json:"columns_kept"`
	DuplicatesDrop int                `json:"duplicates_dropped"`
	InvalidKeys    int                `json:"invalid_keys_dropped"`
	OutliersNulled map[string]int     `json:"outliers_nulled"`
	Imputation     []ImputationReport `json:"imputation"`
	Stages         []StageMetrics     `json:"stages"`
	Exports        []ExportResult     `json:"exports"`
}
