package pipeline

import (
	"fmt"

	"go-foodfacts-pipeline/internal/model"
)

// ------------------- Calculation-Based Imputation -------------------

// ImputeByCalculation fills missing nutrition score and grade cells by
// evaluating the Nutri-Score formula when all six nutrient inputs are
// present. Rows with any missing input are left untouched: those nulls
// fall through to the KNN stage or remain in the report.
func ImputeByCalculation(ds *model.Dataset, cfg model.Imputation) model.ImputationReport {
	report := model.ImputationReport{Strategy: "calculation"}

	scoreBefore := ds.MissingCount(cfg.ScoreColumn)
	gradeBefore := ds.MissingCount(cfg.GradeColumn)
	scoreFilled, gradeFilled := 0, 0

	for _, rec := range ds.Rows {
		needScore := cfg.ScoreColumn != "" && rec.IsMissing(cfg.ScoreColumn)
		needGrade := cfg.GradeColumn != "" && rec.IsMissing(cfg.GradeColumn)
		if !needScore && !needGrade {
			continue
		}

		inputs, ok := nutrientInputs(rec)
		if !ok {
			continue
		}
		score := CalculateNutriScore(inputs[0], inputs[1], inputs[2], inputs[3], inputs[4], inputs[5])

		if needScore {
			rec[cfg.ScoreColumn] = float64(score)
			scoreFilled++
		}
		if needGrade {
			rec[cfg.GradeColumn] = NutriGradeFromScore(score)
			gradeFilled++
		}
	}

	if cfg.ScoreColumn != "" {
		report.Columns = append(report.Columns, model.ColumnImputation{
			Column:          cfg.ScoreColumn,
			MissingBefore:   scoreBefore,
			Filled:          scoreFilled,
			ResidualMissing: scoreBefore - scoreFilled,
		})
	}
	if cfg.GradeColumn != "" {
		report.Columns = append(report.Columns, model.ColumnImputation{
			Column:          cfg.GradeColumn,
			MissingBefore:   gradeBefore,
			Filled:          gradeFilled,
			ResidualMissing: gradeBefore - gradeFilled,
		})
	}

	fmt.Printf("🧮 Calculation Imputation Summary: %d scores, %d grades filled\n", scoreFilled, gradeFilled)
	return report
}

// nutrientInputs extracts the six Nutri-Score inputs in formula order:
// energy, saturated fat, sugars, fiber, proteins, sodium.
func nutrientInputs(rec model.Record) ([6]float64, bool) {
	var out [6]float64
	order := []string{
		"energy_100g", "saturated_fat_100g", "sugars_100g",
		"fiber_100g", "proteins_100g", "sodium_100g",
	}
	for i, col := range order {
		v, ok := rec.Float(col)
		if !ok {
			return out, false
		}
		out[i] = v
	}
	// Open Food Facts stores sodium in grams; the points table is in mg.
	out[5] *= 1000
	return out, true
}
