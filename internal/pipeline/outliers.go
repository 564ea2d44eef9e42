package pipeline

import (
	"fmt"

	"go-foodfacts-pipeline/internal/model"
)

// ------------------- Outlier Correction -------------------

// CorrectOutliers applies hard plausibility bounds to the configured
// numeric columns. Values outside a bound are data-entry defects: they
// are set to missing for the imputation stage, never dropped. Returns the
// number of nulled cells per column.
func CorrectOutliers(ds *model.Dataset, bounds map[string]model.Bound) map[string]int {
	nulled := make(map[string]int, len(bounds))
	for col, bound := range bounds {
		if !ds.HasColumn(col) {
			continue
		}
		count := 0
		for _, rec := range ds.Rows {
			v, ok := rec.Float(col)
			if !ok {
				continue
			}
			if v < bound.Min || v > bound.Max {
				rec[col] = nil
				count++
			}
		}
		if count > 0 {
			nulled[col] = count
		}
	}

	total := 0
	for _, n := range nulled {
		total += n
	}
	fmt.Printf("📏 Outlier Summary: %d implausible values nulled across %d columns\n", total, len(nulled))
	return nulled
}
