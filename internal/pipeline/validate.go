package pipeline

import (
	"fmt"

	"go-foodfacts-pipeline/internal/model"
)

// ------------------- Validation -------------------

// ValidateDataset checks the ingested dataset against the job's schema
// rules. Required columns must exist; cells of numeric-declared columns
// that are neither numeric nor missing are nulled and counted.
func ValidateDataset(ds *model.Dataset, rules *model.ValidationRules, errs chan<- error) (int, error) {
	if rules == nil {
		// No validation rules defined → pass through
		return 0, nil
	}

	for _, col := range rules.RequiredColumns {
		if !ds.HasColumn(col) {
			return 0, fmt.Errorf("missing required column: %s", col)
		}
	}

	nulled := 0
	for _, col := range rules.NumericColumns {
		if !ds.HasColumn(col) {
			continue
		}
		bad := 0
		for _, rec := range ds.Rows {
			if rec.IsMissing(col) {
				continue
			}
			if _, ok := rec.Float(col); !ok {
				rec[col] = nil
				bad++
			}
		}
		if bad > 0 {
			nulled += bad
			errs <- fmt.Errorf("column %s: %d non-numeric cells nulled", col, bad)
		}
	}

	fmt.Printf("🔍 Validation Summary: %d columns checked, %d cells nulled\n", len(rules.NumericColumns), nulled)
	return nulled, nil
}

// CheckStageDependencies verifies that every column a later stage
// references survives pruning. Pruning a column a downstream formula
// depends on is a configuration error, not a data error.
func CheckStageDependencies(job model.CleaningJobSpec) error {
	kept := make(map[string]bool, len(job.Pruning.KeepColumns))
	for _, c := range job.Pruning.KeepColumns {
		kept[c] = true
	}
	for _, c := range job.Pruning.DropColumns {
		// A manual drop overrides the keep list everywhere downstream.
		delete(kept, c)
	}

	require := func(stage, col string) error {
		if col == "" {
			return nil
		}
		if !kept[col] {
			return fmt.Errorf("stage %s depends on column %q which pruning does not retain", stage, col)
		}
		return nil
	}

	if err := require("dedupe", job.Dedupe.KeyColumn); err != nil {
		return err
	}
	for col := range job.Bounds {
		if err := require("outliers", col); err != nil {
			return err
		}
	}
	if err := require("imputation", job.Imputation.ScoreColumn); err != nil {
		return err
	}
	if err := require("imputation", job.Imputation.GradeColumn); err != nil {
		return err
	}
	for _, col := range model.NutrientColumns {
		if err := require("imputation", col); err != nil {
			return err
		}
	}
	for _, col := range job.Imputation.FeatureColumns {
		if err := require("knn", col); err != nil {
			return err
		}
	}
	for _, col := range job.Imputation.TargetColumns {
		if err := require("knn", col); err != nil {
			return err
		}
	}
	return nil
}
