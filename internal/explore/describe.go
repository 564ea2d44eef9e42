package explore

import (
	"fmt"
	"math"
	"sort"

	"go-foodfacts-pipeline/internal/model"
)

// ------------------- Univariate Description -------------------

// NumericSummary holds the summary statistics of one numeric column
type NumericSummary struct {
	Column  string  `json:"column"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Min     float64 `json:"min"`
	Q25     float64 `json:"q25"`
	Median  float64 `json:"median"`
	Q75     float64 `json:"q75"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
}

// ValueCount is one entry of a categorical frequency table
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalSummary holds the frequency distribution of one categorical
// column, most frequent first.
type CategoricalSummary struct {
	Column      string       `json:"column"`
	UniqueCount int          `json:"unique_count"`
	Mode        string       `json:"mode"`
	Frequencies []ValueCount `json:"frequencies"`
}

// DescribeNumeric computes summary statistics for the given numeric
// columns.
func DescribeNumeric(ds *model.Dataset, columns []string) []NumericSummary {
	out := make([]NumericSummary, 0, len(columns))
	for _, col := range columns {
		values := ds.NumericValues(col)
		summary := NumericSummary{
			Column:  col,
			Count:   len(values),
			Missing: len(ds.Rows) - len(values),
		}
		if len(values) > 0 {
			sorted := make([]float64, len(values))
			copy(sorted, values)
			sort.Float64s(sorted)

			summary.Min = sorted[0]
			summary.Max = sorted[len(sorted)-1]
			summary.Q25 = Quantile(sorted, 0.25)
			summary.Median = Quantile(sorted, 0.5)
			summary.Q75 = Quantile(sorted, 0.75)
			summary.Mean = Mean(values)
			summary.StdDev = StdDev(values, summary.Mean)
		}
		out = append(out, summary)
	}
	return out
}

// DescribeCategorical computes the frequency table of a categorical
// column. Missing cells are excluded; ties sort by value for stable
// output.
func DescribeCategorical(ds *model.Dataset, col string) CategoricalSummary {
	counts := make(map[string]int)
	for _, rec := range ds.Rows {
		if rec.IsMissing(col) {
			continue
		}
		counts[fmt.Sprintf("%v", rec[col])]++
	}

	freqs := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		freqs = append(freqs, ValueCount{Value: v, Count: c})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].Value < freqs[j].Value
	})

	summary := CategoricalSummary{
		Column:      col,
		UniqueCount: len(freqs),
		Frequencies: freqs,
	}
	if len(freqs) > 0 {
		summary.Mode = freqs[0].Value
	}
	return summary
}

// NumericColumns returns the dataset columns where every non-missing cell
// is numeric and at least one value is present.
func NumericColumns(ds *model.Dataset) []string {
	var out []string
	for _, col := range ds.Columns {
		seen := 0
		numeric := true
		for _, rec := range ds.Rows {
			if rec.IsMissing(col) {
				continue
			}
			if _, ok := rec.Float(col); !ok {
				numeric = false
				break
			}
			seen++
		}
		if numeric && seen > 0 {
			out = append(out, col)
		}
	}
	return out
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation around the given mean.
func StdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// Quantile returns the q-quantile of a sorted slice with linear
// interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
