package pipeline

import (
	"fmt"
	"sort"

	"go-foodfacts-pipeline/internal/model"
)

// ------------------- Column Pruning -------------------

// PruneResult lists what the pruning stage did to the column set
type PruneResult struct {
	Dropped      []string           `json:"dropped"`
	Kept         []string           `json:"kept"`
	MissingRates map[string]float64 `json:"missing_rates"` // percentages, raw dataset
}

// MissingRateByColumn returns the percentage of missing cells per column.
func MissingRateByColumn(ds *model.Dataset) map[string]float64 {
	rates := make(map[string]float64, len(ds.Columns))
	for _, col := range ds.Columns {
		rates[col] = ds.MissingRate(col) * 100.0
	}
	return rates
}

// CountColumnsAboveThreshold returns how many columns exceed the missing
// rate threshold (percentage).
func CountColumnsAboveThreshold(ds *model.Dataset, threshold float64) int {
	count := 0
	for _, rate := range MissingRateByColumn(ds) {
		if rate > threshold {
			count++
		}
	}
	return count
}

// PruneColumns drops columns whose missing rate exceeds the threshold,
// then applies the manual keep/drop overrides. Kept columns keep their
// original order.
func PruneColumns(ds *model.Dataset, cfg model.Pruning) PruneResult {
	rates := MissingRateByColumn(ds)

	keep := make(map[string]bool, len(cfg.KeepColumns))
	for _, c := range cfg.KeepColumns {
		keep[c] = true
	}
	forceDrop := make(map[string]bool, len(cfg.DropColumns))
	for _, c := range cfg.DropColumns {
		forceDrop[c] = true
	}

	var dropped []string
	for _, col := range ds.Columns {
		switch {
		case forceDrop[col]:
			dropped = append(dropped, col)
		case keep[col]:
			// manual allow list wins over the threshold
		case rates[col] > cfg.MaxMissingRate:
			dropped = append(dropped, col)
		case len(cfg.KeepColumns) > 0:
			// A curated keep list makes retention explicit: columns
			// outside it go even when they pass the threshold.
			dropped = append(dropped, col)
		}
	}

	ds.DropColumns(dropped...)
	sort.Strings(dropped)

	kept := make([]string, len(ds.Columns))
	copy(kept, ds.Columns)

	fmt.Printf("✂️ Pruning Summary: %d columns dropped, %d kept (threshold %.1f%%)\n",
		len(dropped), len(kept), cfg.MaxMissingRate)

	return PruneResult{Dropped: dropped, Kept: kept, MissingRates: rates}
}
