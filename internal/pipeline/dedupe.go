package pipeline

import (
	"fmt"

	"go-foodfacts-pipeline/internal/model"
)

// ------------------- Deduplication -------------------

// DedupeResult reports what deduplication removed
type DedupeResult struct {
	DuplicatesDropped int `json:"duplicates_dropped"`
	InvalidKeysDropped int `json:"invalid_keys_dropped"`
}

// DedupeRows enforces the barcode column as a primary key: one row per
// key. Policy "most-complete" keeps the row with the fewest missing cells
// (first occurrence wins ties); policy "first" keeps the first occurrence.
// Rows with a missing key are unrecoverable and dropped. Surviving rows
// keep their original relative order.
func DedupeRows(ds *model.Dataset, cfg model.Dedupe) (DedupeResult, error) {
	if !ds.HasColumn(cfg.KeyColumn) {
		return DedupeResult{}, fmt.Errorf("dedupe key column %q not present", cfg.KeyColumn)
	}
	policy := cfg.Policy
	if policy == "" {
		policy = "most-complete"
	}
	if policy != "most-complete" && policy != "first" {
		return DedupeResult{}, fmt.Errorf("unknown dedupe policy: %s", policy)
	}

	// chosen maps key -> index into ds.Rows of the retained row
	chosen := make(map[string]int, len(ds.Rows))
	order := make([]string, 0, len(ds.Rows))
	res := DedupeResult{}

	for i, rec := range ds.Rows {
		if rec.IsMissing(cfg.KeyColumn) {
			res.InvalidKeysDropped++
			continue
		}
		key := keyString(rec[cfg.KeyColumn])

		prev, seen := chosen[key]
		if !seen {
			chosen[key] = i
			order = append(order, key)
			continue
		}
		res.DuplicatesDropped++
		if policy == "most-complete" && completeness(ds.Columns, rec) > completeness(ds.Columns, ds.Rows[prev]) {
			// Strictly more complete replaces the earlier pick; an equal
			// count keeps the first occurrence.
			chosen[key] = i
		}
	}

	deduped := make([]model.Record, 0, len(order))
	for _, key := range order {
		deduped = append(deduped, ds.Rows[chosen[key]])
	}
	ds.Rows = deduped

	fmt.Printf("🔑 Dedupe Summary: %d duplicates dropped, %d invalid keys dropped, %d rows kept\n",
		res.DuplicatesDropped, res.InvalidKeysDropped, len(ds.Rows))
	return res, nil
}

// completeness counts non-missing cells over the dataset's columns.
func completeness(columns []string, rec model.Record) int {
	n := 0
	for _, col := range columns {
		if !rec.IsMissing(col) {
			n++
		}
	}
	return n
}

// keyString renders a barcode cell as a stable string key. Barcodes parse
// as integers in most rows but may carry leading zeros as strings.
func keyString(v interface{}) string {
	return fmt.Sprintf("%v", v)
}
