package model

import "sort"

// Record is a schema-agnostic map for one product row. Cell values are
// float64, int or string; a missing cell is stored as nil (or absent).
type Record map[string]interface{}

// IsMissing reports whether a cell is absent, nil or an empty string.
func (r Record) IsMissing(col string) bool {
	v, ok := r[col]
	if !ok || v == nil {
		return true
	}
	if s, isStr := v.(string); isStr && s == "" {
		return true
	}
	return false
}

// Float returns the cell as float64. ok is false for missing or
// non-numeric cells.
func (r Record) Float(col string) (float64, bool) {
	switch v := r[col].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}

// String returns the cell as a string, "" when missing.
func (r Record) String(col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered tabular snapshot: a fixed column list plus rows in
// a stable order. Row order is the tie-break authority for deduplication
// and neighbor selection, so stages must preserve it.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// NewDataset creates an empty dataset with the given column order.
func NewDataset(columns []string) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{Columns: cols, Rows: make([]Record, 0)}
}

// Clone deep-copies the dataset (records are cloned, values are scalars).
func (d *Dataset) Clone() *Dataset {
	out := NewDataset(d.Columns)
	out.Rows = make([]Record, len(d.Rows))
	for i, r := range d.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// HasColumn reports whether the dataset retains the given column.
func (d *Dataset) HasColumn(col string) bool {
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// MissingRate returns the fraction (0..1) of rows with a missing cell in
// the given column.
func (d *Dataset) MissingRate(col string) float64 {
	if len(d.Rows) == 0 {
		return 0
	}
	return float64(d.MissingCount(col)) / float64(len(d.Rows))
}

// MissingCount returns the number of missing cells in the given column.
func (d *Dataset) MissingCount(col string) int {
	n := 0
	for _, r := range d.Rows {
		if r.IsMissing(col) {
			n++
		}
	}
	return n
}

// DropColumns removes the given columns from the column list and from
// every row.
func (d *Dataset) DropColumns(cols ...string) {
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	kept := d.Columns[:0]
	for _, c := range d.Columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	d.Columns = kept
	for _, r := range d.Rows {
		for c := range drop {
			delete(r, c)
		}
	}
}

// NumericValues returns the non-missing numeric values of a column, in row
// order.
func (d *Dataset) NumericValues(col string) []float64 {
	out := make([]float64, 0, len(d.Rows))
	for _, r := range d.Rows {
		if v, ok := r.Float(col); ok {
			out = append(out, v)
		}
	}
	return out
}

// SortedColumns returns the column names in lexical order (stable output
// for reports).
func (d *Dataset) SortedColumns() []string {
	out := make([]string, len(d.Columns))
	copy(out, d.Columns)
	sort.Strings(out)
	return out
}
