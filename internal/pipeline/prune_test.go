package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-foodfacts-pipeline/internal/model"
)

func sparseDataset() *model.Dataset {
	// "mostly_empty" is missing in 3 of 4 rows (75%), "half" in 2 of 4
	ds := model.NewDataset([]string{"code", "half", "mostly_empty"})
	ds.Rows = []model.Record{
		{"code": 1, "half": 1.0, "mostly_empty": nil},
		{"code": 2, "half": nil, "mostly_empty": nil},
		{"code": 3, "half": 2.0, "mostly_empty": 5.0},
		{"code": 4, "half": nil, "mostly_empty": nil},
	}
	return ds
}

func TestMissingRateByColumn(t *testing.T) {
	rates := MissingRateByColumn(sparseDataset())

	assert.InDelta(t, 0.0, rates["code"], 1e-9)
	assert.InDelta(t, 50.0, rates["half"], 1e-9)
	assert.InDelta(t, 75.0, rates["mostly_empty"], 1e-9)
}

func TestPruneColumnsThreshold(t *testing.T) {
	ds := sparseDataset()
	res := PruneColumns(ds, model.Pruning{MaxMissingRate: 50.0})

	assert.Equal(t, []string{"mostly_empty"}, res.Dropped)
	assert.Equal(t, []string{"code", "half"}, res.Kept)
	assert.False(t, ds.HasColumn("mostly_empty"))

	// exactly at the threshold is kept, only strictly above goes
	assert.True(t, ds.HasColumn("half"))
}

func TestPruneColumnsKeepOverridesThreshold(t *testing.T) {
	ds := sparseDataset()
	res := PruneColumns(ds, model.Pruning{
		MaxMissingRate: 50.0,
		KeepColumns:    []string{"code", "half", "mostly_empty"},
	})

	assert.Empty(t, res.Dropped)
	assert.True(t, ds.HasColumn("mostly_empty"))
}

func TestPruneColumnsKeepListIsExclusive(t *testing.T) {
	// a curated keep list drops everything outside it, even dense columns
	ds := sparseDataset()
	res := PruneColumns(ds, model.Pruning{
		MaxMissingRate: 50.0,
		KeepColumns:    []string{"code"},
	})

	assert.Equal(t, []string{"code"}, res.Kept)
	assert.ElementsMatch(t, []string{"half", "mostly_empty"}, res.Dropped)
}

func TestPruneColumnsForceDropWins(t *testing.T) {
	ds := sparseDataset()
	res := PruneColumns(ds, model.Pruning{
		MaxMissingRate: 50.0,
		KeepColumns:    []string{"code", "half"},
		DropColumns:    []string{"half"},
	})

	assert.Contains(t, res.Dropped, "half")
	assert.False(t, ds.HasColumn("half"))
}

func TestCountColumnsAboveThreshold(t *testing.T) {
	ds := sparseDataset()
	assert.Equal(t, 1, CountColumnsAboveThreshold(ds, 50.0))
	assert.Equal(t, 2, CountColumnsAboveThreshold(ds, 25.0))
	assert.Equal(t, 0, CountColumnsAboveThreshold(ds, 80.0))
}
