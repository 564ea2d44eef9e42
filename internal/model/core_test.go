package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordIsMissing(t *testing.T) {
	rec := Record{"a": 1.5, "b": nil, "c": "", "d": "x", "e": 0}

	assert.False(t, rec.IsMissing("a"))
	assert.True(t, rec.IsMissing("b"))
	assert.True(t, rec.IsMissing("c"))
	assert.False(t, rec.IsMissing("d"))
	assert.False(t, rec.IsMissing("e"), "zero is a value, not a gap")
	assert.True(t, rec.IsMissing("absent"))
}

func TestRecordFloat(t *testing.T) {
	rec := Record{"f": 1.5, "i": 3, "s": "12"}

	v, ok := rec.Float("f")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	v, ok = rec.Float("i")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = rec.Float("s")
	assert.False(t, ok, "stringly-typed numbers are not numeric cells")

	_, ok = rec.Float("absent")
	assert.False(t, ok)
}

func TestDatasetCloneIsIndependent(t *testing.T) {
	ds := NewDataset([]string{"code", "energy_100g"})
	ds.Rows = append(ds.Rows, Record{"code": 1, "energy_100g": 100.0})

	clone := ds.Clone()
	clone.Rows[0]["energy_100g"] = 999.0

	v, _ := ds.Rows[0].Float("energy_100g")
	assert.Equal(t, 100.0, v, "mutating the clone must not touch the original")
}

func TestDatasetDropColumns(t *testing.T) {
	ds := NewDataset([]string{"a", "b", "c"})
	ds.Rows = append(ds.Rows, Record{"a": 1, "b": 2, "c": 3})

	ds.DropColumns("b")

	assert.Equal(t, []string{"a", "c"}, ds.Columns)
	_, present := ds.Rows[0]["b"]
	assert.False(t, present)
}

func TestDatasetMissingRate(t *testing.T) {
	ds := NewDataset([]string{"a"})
	ds.Rows = []Record{{"a": 1}, {"a": nil}, {"a": ""}, {"a": 2}}

	assert.Equal(t, 2, ds.MissingCount("a"))
	assert.InDelta(t, 0.5, ds.MissingRate("a"), 1e-9)
}

func TestDefaultJobSpec(t *testing.T) {
	job := DefaultJobSpec("products.csv")

	require.NotNil(t, job.Export)
	assert.Equal(t, "products.csv", job.Source.URL)
	assert.Equal(t, "\t", job.Source.Separator)
	assert.Equal(t, "code", job.Dedupe.KeyColumn)
	assert.Equal(t, 5, job.Imputation.K)

	// every bound and imputation column must survive pruning
	kept := make(map[string]bool)
	for _, c := range job.Pruning.KeepColumns {
		kept[c] = true
	}
	for col := range job.Bounds {
		assert.True(t, kept[col], "bounded column %s must be kept", col)
	}
	for _, col := range NutrientColumns {
		assert.True(t, kept[col], "nutrient column %s must be kept", col)
	}
}
