package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-foodfacts-pipeline/internal/model"
)

func drainErrors() (chan error, func() []error) {
	ch := make(chan error, 64)
	return ch, func() []error {
		close(ch)
		var out []error
		for e := range ch {
			out = append(out, e)
		}
		return out
	}
}

func TestValidateDatasetRequiredColumns(t *testing.T) {
	ds := model.NewDataset([]string{"product_name"})
	errCh, _ := drainErrors()

	_, err := ValidateDataset(ds, &model.ValidationRules{RequiredColumns: []string{"code"}}, errCh)
	assert.Error(t, err)
}

func TestValidateDatasetNullsNonNumericCells(t *testing.T) {
	ds := model.NewDataset([]string{"code", "energy_100g"})
	ds.Rows = []model.Record{
		{"code": 1, "energy_100g": 100.0},
		{"code": 2, "energy_100g": "12 kJ"},
		{"code": 3, "energy_100g": nil},
	}
	errCh, drained := drainErrors()

	nulled, err := ValidateDataset(ds, &model.ValidationRules{
		RequiredColumns: []string{"code"},
		NumericColumns:  []string{"energy_100g"},
	}, errCh)
	require.NoError(t, err)

	assert.Equal(t, 1, nulled)
	assert.Nil(t, ds.Rows[1]["energy_100g"])
	assert.Equal(t, 100.0, ds.Rows[0]["energy_100g"])
	assert.Len(t, drained(), 1)
}

func TestValidateDatasetNilRulesPassThrough(t *testing.T) {
	ds := model.NewDataset([]string{"anything"})
	nulled, err := ValidateDataset(ds, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, nulled)
}

func TestCheckStageDependencies(t *testing.T) {
	job := model.DefaultJobSpec("products.csv")
	assert.NoError(t, CheckStageDependencies(job))

	// pruning away a column the formula needs is a config error
	broken := model.DefaultJobSpec("products.csv")
	var keep []string
	for _, c := range broken.Pruning.KeepColumns {
		if c != "fiber_100g" {
			keep = append(keep, c)
		}
	}
	broken.Pruning.KeepColumns = keep
	assert.Error(t, CheckStageDependencies(broken))

	// a manual drop overrides the keep list
	dropped := model.DefaultJobSpec("products.csv")
	dropped.Pruning.DropColumns = append(dropped.Pruning.DropColumns, "code")
	assert.Error(t, CheckStageDependencies(dropped))
}
