package explore

import (
	"fmt"
	"math"
	"sort"

	"go-foodfacts-pipeline/internal/model"
)

// ------------------- Principal Component Analysis -------------------

// PCAResult holds a principal component decomposition of the complete
// rows of a numeric column set.
type PCAResult struct {
	Columns           []string    `json:"columns"`
	RowIndexes        []int       `json:"row_indexes"`        // dataset indexes of the projected rows
	ExplainedVariance []float64   `json:"explained_variance"` // ratio per component, descending
	Components        [][]float64 `json:"components"`         // eigenvectors, one per component
	Projections       [][]float64 `json:"projections"`        // rows × components
}

// PCA computes a principal component decomposition over the rows fully
// observed on the given columns. Features are standardized (z-score), so
// the decomposition runs on the correlation matrix. Component signs
// follow a fixed convention (largest-magnitude loading positive) to keep
// repeated runs byte-identical.
func PCA(ds *model.Dataset, columns []string, nComponents int) (*PCAResult, error) {
	if len(columns) < 2 {
		return nil, fmt.Errorf("pca needs at least two columns, got %d", len(columns))
	}
	if nComponents <= 0 || nComponents > len(columns) {
		nComponents = len(columns)
	}

	// Rows fully observed on every requested column.
	var rowIdx []int
	var data [][]float64
	for i, rec := range ds.Rows {
		row := make([]float64, len(columns))
		complete := true
		for j, col := range columns {
			v, ok := rec.Float(col)
			if !ok {
				complete = false
				break
			}
			row[j] = v
		}
		if complete {
			rowIdx = append(rowIdx, i)
			data = append(data, row)
		}
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("pca needs at least two complete rows, got %d", len(data))
	}

	standardize(data)
	cov := covarianceMatrix(data)
	eigenvalues, eigenvectors := jacobiEigen(cov)

	// Order components by descending eigenvalue; equal values keep their
	// original axis order.
	order := make([]int, len(eigenvalues))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return eigenvalues[order[a]] > eigenvalues[order[b]]
	})

	total := 0.0
	for _, ev := range eigenvalues {
		if ev > 0 {
			total += ev
		}
	}

	res := &PCAResult{Columns: columns, RowIndexes: rowIdx}
	for c := 0; c < nComponents; c++ {
		k := order[c]
		component := make([]float64, len(columns))
		for j := range columns {
			component[j] = eigenvectors[j][k]
		}
		fixComponentSign(component)
		res.Components = append(res.Components, component)
		if total > 0 {
			res.ExplainedVariance = append(res.ExplainedVariance, math.Max(eigenvalues[k], 0)/total)
		} else {
			res.ExplainedVariance = append(res.ExplainedVariance, 0)
		}
	}

	res.Projections = make([][]float64, len(data))
	for i, row := range data {
		proj := make([]float64, nComponents)
		for c, component := range res.Components {
			dot := 0.0
			for j := range row {
				dot += row[j] * component[j]
			}
			proj[c] = dot
		}
		res.Projections[i] = proj
	}
	return res, nil
}

// standardize converts each column of the row-major matrix to z-scores in
// place. Constant columns become all zeros.
func standardize(data [][]float64) {
	if len(data) == 0 {
		return
	}
	cols := len(data[0])
	for j := 0; j < cols; j++ {
		col := make([]float64, len(data))
		for i := range data {
			col[i] = data[i][j]
		}
		mean := Mean(col)
		std := StdDev(col, mean)
		for i := range data {
			if std == 0 {
				data[i][j] = 0
			} else {
				data[i][j] = (data[i][j] - mean) / std
			}
		}
	}
}

// covarianceMatrix computes the covariance of standardized row-major data.
func covarianceMatrix(data [][]float64) [][]float64 {
	n := len(data)
	cols := len(data[0])
	cov := make([][]float64, cols)
	for i := range cov {
		cov[i] = make([]float64, cols)
	}
	for a := 0; a < cols; a++ {
		for b := a; b < cols; b++ {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += data[i][a] * data[i][b]
			}
			c := sum / float64(n)
			cov[a][b] = c
			cov[b][a] = c
		}
	}
	return cov
}

// jacobiEigen diagonalizes a symmetric matrix with cyclic Jacobi
// rotations. Returns eigenvalues and a matrix whose columns are the
// matching eigenvectors.
func jacobiEigen(m [][]float64) ([]float64, [][]float64) {
	n := len(m)
	a := make([][]float64, n)
	v := make([][]float64, n)
	for i := 0; i < n; i++ {
		a[i] = make([]float64, n)
		v[i] = make([]float64, n)
		copy(a[i], m[i])
		v[i][i] = 1
	}

	const maxSweeps = 100
	const eps = 1e-12
	for sweep := 0; sweep < maxSweeps; sweep++ {
		off := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				off += a[i][j] * a[i][j]
			}
		}
		if off < eps {
			break
		}
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				if math.Abs(a[p][q]) < eps/float64(n*n) {
					continue
				}
				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				for i := 0; i < n; i++ {
					aip := a[i][p]
					aiq := a[i][q]
					a[i][p] = c*aip - s*aiq
					a[i][q] = s*aip + c*aiq
				}
				for i := 0; i < n; i++ {
					api := a[p][i]
					aqi := a[q][i]
					a[p][i] = c*api - s*aqi
					a[q][i] = s*api + c*aqi
				}
				for i := 0; i < n; i++ {
					vip := v[i][p]
					viq := v[i][q]
					v[i][p] = c*vip - s*viq
					v[i][q] = s*vip + c*viq
				}
			}
		}
	}

	eigenvalues := make([]float64, n)
	for i := 0; i < n; i++ {
		eigenvalues[i] = a[i][i]
	}
	return eigenvalues, v
}

// fixComponentSign enforces a deterministic sign: the loading with the
// largest magnitude is positive.
func fixComponentSign(component []float64) {
	maxAbs, maxIdx := 0.0, 0
	for j, c := range component {
		if math.Abs(c) > maxAbs {
			maxAbs = math.Abs(c)
			maxIdx = j
		}
	}
	if component[maxIdx] < 0 {
		for j := range component {
			component[j] = -component[j]
		}
	}
}
