package explore

import (
	"fmt"
	"math"

	"go-foodfacts-pipeline/internal/model"
)

// ------------------- Bivariate Analysis -------------------

// Pearson returns the Pearson correlation coefficient of two equal-length
// samples. NaN when either sample has zero variance or fewer than two
// points.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	mx, my := Mean(x), Mean(y)
	var cov, vx, vy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(vx*vy)
}

// CorrelationMatrix computes the pairwise Pearson matrix over the given
// numeric columns, using pairwise-complete observations.
func CorrelationMatrix(ds *model.Dataset, columns []string) [][]float64 {
	matrix := make([][]float64, len(columns))
	for i := range columns {
		matrix[i] = make([]float64, len(columns))
		matrix[i][i] = 1
	}
	for i := 0; i < len(columns); i++ {
		for j := i + 1; j < len(columns); j++ {
			x, y := pairwiseComplete(ds, columns[i], columns[j])
			r := Pearson(x, y)
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return matrix
}

// pairwiseComplete extracts the rows where both columns are observed.
func pairwiseComplete(ds *model.Dataset, colA, colB string) ([]float64, []float64) {
	var x, y []float64
	for _, rec := range ds.Rows {
		a, okA := rec.Float(colA)
		b, okB := rec.Float(colB)
		if okA && okB {
			x = append(x, a)
			y = append(y, b)
		}
	}
	return x, y
}

// CorrelationRatio computes η² (eta squared) of a numeric column grouped
// by a categorical column: the share of the numeric variance explained by
// group membership. 0 means no association, 1 means fully determined.
func CorrelationRatio(ds *model.Dataset, catCol, numCol string) float64 {
	groups := make(map[string][]float64)
	var all []float64
	for _, rec := range ds.Rows {
		v, ok := rec.Float(numCol)
		if !ok || rec.IsMissing(catCol) {
			continue
		}
		key := fmt.Sprintf("%v", rec[catCol])
		groups[key] = append(groups[key], v)
		all = append(all, v)
	}
	if len(all) == 0 {
		return math.NaN()
	}

	grandMean := Mean(all)
	var between, total float64
	for _, vs := range groups {
		gm := Mean(vs)
		between += float64(len(vs)) * (gm - grandMean) * (gm - grandMean)
	}
	for _, v := range all {
		total += (v - grandMean) * (v - grandMean)
	}
	if total == 0 {
		return math.NaN()
	}
	return between / total
}

// StrongestPair returns the column pair with the highest absolute Pearson
// correlation in the matrix, ignoring the diagonal and NaN cells.
func StrongestPair(columns []string, matrix [][]float64) (string, string, float64) {
	bestA, bestB := "", ""
	bestR := 0.0
	for i := 0; i < len(columns); i++ {
		for j := i + 1; j < len(columns); j++ {
			r := matrix[i][j]
			if math.IsNaN(r) {
				continue
			}
			if math.Abs(r) > math.Abs(bestR) || bestA == "" {
				bestA, bestB, bestR = columns[i], columns[j], r
			}
		}
	}
	return bestA, bestB, bestR
}
