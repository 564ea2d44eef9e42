package explore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-foodfacts-pipeline/internal/model"
)

func TestPCAPerfectlyCorrelatedColumns(t *testing.T) {
	// y = 2x: after standardization both columns are identical, so the
	// first component carries all the variance along the diagonal
	ds := model.NewDataset([]string{"x", "y"})
	for _, v := range []float64{1, 2, 3, 4, 5} {
		ds.Rows = append(ds.Rows, model.Record{"x": v, "y": 2 * v})
	}

	res, err := PCA(ds, []string{"x", "y"}, 2)
	require.NoError(t, err)

	require.Len(t, res.ExplainedVariance, 2)
	assert.InDelta(t, 1.0, res.ExplainedVariance[0], 1e-9)
	assert.InDelta(t, 0.0, res.ExplainedVariance[1], 1e-9)

	// equal loadings, positive by the sign convention
	inv := 1 / math.Sqrt2
	assert.InDelta(t, inv, res.Components[0][0], 1e-9)
	assert.InDelta(t, inv, res.Components[0][1], 1e-9)
}

func TestPCASkipsIncompleteRows(t *testing.T) {
	ds := model.NewDataset([]string{"x", "y"})
	ds.Rows = []model.Record{
		{"x": 1.0, "y": 1.0},
		{"x": 2.0, "y": nil},
		{"x": 3.0, "y": 3.0},
		{"x": 4.0, "y": 4.0},
	}

	res, err := PCA(ds, []string{"x", "y"}, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 3}, res.RowIndexes)
	assert.Len(t, res.Projections, 3)
}

func TestPCAIsDeterministic(t *testing.T) {
	build := func() *model.Dataset {
		ds := model.NewDataset([]string{"x", "y", "z"})
		vals := [][]float64{
			{1, 9, 2}, {2, 7, 5}, {3, 8, 3}, {4, 3, 8}, {5, 1, 9},
		}
		for _, v := range vals {
			ds.Rows = append(ds.Rows, model.Record{"x": v[0], "y": v[1], "z": v[2]})
		}
		return ds
	}

	a, err := PCA(build(), []string{"x", "y", "z"}, 3)
	require.NoError(t, err)
	b, err := PCA(build(), []string{"x", "y", "z"}, 3)
	require.NoError(t, err)

	assert.Equal(t, a.Components, b.Components)
	assert.Equal(t, a.Projections, b.Projections)
	assert.Equal(t, a.ExplainedVariance, b.ExplainedVariance)
}

func TestPCAExplainedVarianceSumsToOne(t *testing.T) {
	ds := model.NewDataset([]string{"x", "y", "z"})
	vals := [][]float64{
		{2, 4, 1}, {3, 1, 7}, {5, 8, 2}, {7, 3, 9}, {11, 6, 4}, {13, 2, 8},
	}
	for _, v := range vals {
		ds.Rows = append(ds.Rows, model.Record{"x": v[0], "y": v[1], "z": v[2]})
	}

	res, err := PCA(ds, []string{"x", "y", "z"}, 3)
	require.NoError(t, err)

	sum := 0.0
	for _, ev := range res.ExplainedVariance {
		sum += ev
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// components come out in descending variance order
	for i := 1; i < len(res.ExplainedVariance); i++ {
		assert.GreaterOrEqual(t, res.ExplainedVariance[i-1], res.ExplainedVariance[i])
	}
}

func TestPCAErrors(t *testing.T) {
	ds := model.NewDataset([]string{"x", "y"})
	ds.Rows = []model.Record{{"x": 1.0, "y": 1.0}}

	_, err := PCA(ds, []string{"x"}, 1)
	assert.Error(t, err, "one column is not enough")

	_, err = PCA(ds, []string{"x", "y"}, 2)
	assert.Error(t, err, "one complete row is not enough")
}

func TestJacobiEigenRecoversKnownValues(t *testing.T) {
	// [[2,1],[1,2]] has eigenvalues 3 and 1
	m := [][]float64{{2, 1}, {1, 2}}
	values, vectors := jacobiEigen(m)

	got := []float64{values[0], values[1]}
	assert.InDelta(t, 4.0, got[0]+got[1], 1e-9)
	assert.InDelta(t, 3.0, math.Max(got[0], got[1]), 1e-9)
	assert.InDelta(t, 1.0, math.Min(got[0], got[1]), 1e-9)

	// eigenvector columns stay unit length
	for k := 0; k < 2; k++ {
		norm := vectors[0][k]*vectors[0][k] + vectors[1][k]*vectors[1][k]
		assert.InDelta(t, 1.0, norm, 1e-9)
	}
}
