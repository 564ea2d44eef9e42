package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-foodfacts-pipeline/internal/model"
	"go-foodfacts-pipeline/internal/store"
)

// rawProducts is a miniature tab-separated product export: one duplicate
// barcode, one row without score and grade, one row with a missing
// nutrient and one implausible energy value.
const rawProducts = "code\tproduct_name\tnutrition_grade_fr\tenergy_100g\tfat_100g\tsaturated_fat_100g\tcarbohydrates_100g\tsugars_100g\tfiber_100g\tproteins_100g\tsalt_100g\tsodium_100g\tnutrition_score_fr_100g\tallergens\n" +
	"1001\tDark chocolate\te\t2200\t31\t19\t45\t38\t7\t5\t0.02\t0.008\t23\t\n" +
	"1002\tMuesli\t\t1500\t8\t5\t60\t20\t2.5\t7\t1\t0.4\t\t\n" +
	"1003\tLentil soup\tb\t\t1.2\t0.3\t10\t1.5\t2.1\t4.5\t0.6\t0.24\t1\t\n" +
	"1002\tMuesli duplicate\t\t\t\t\t\t\t\t\t\t\t\t\n" +
	"1004\tEnergy drink\td\t5000\t0\t0\t11\t11\t0\t0\t0.1\t0.04\t14\t\n"

func setupRunTest(t *testing.T) (model.CleaningJobSpec, string) {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, store.InitDB(filepath.Join(dir, "runs.db")))
	t.Cleanup(func() { store.Close() })

	input := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(input, []byte(rawProducts), 0644))

	job := model.DefaultJobSpec(input)
	job.Imputation.K = 3
	job.Export.Dir = filepath.Join(dir, "exports")
	return job, dir
}

func TestRunEndToEnd(t *testing.T) {
	job, _ := setupRunTest(t)
	runID := "run-e2e"
	require.NoError(t, store.SaveRun(runID, job))

	report, err := Run(context.Background(), runID, job)
	require.NoError(t, err)

	assert.Equal(t, 5, report.RowsIngested)
	assert.Equal(t, 4, report.RowsExported)
	assert.Equal(t, 1, report.DuplicatesDrop)
	assert.Equal(t, 0, report.InvalidKeys)
	assert.Equal(t, 1, report.OutliersNulled["energy_100g"], "5000 kJ is implausible")
	assert.Contains(t, report.ColumnsPruned, "allergens")
	assert.NotContains(t, report.ColumnsKept, "allergens")

	// all three variants, the parquet snapshot and the report
	require.Len(t, report.Exports, 5)
	for _, exp := range report.Exports {
		assert.True(t, exp.Success, "export %s: %s", exp.Path, exp.Error)
		assert.FileExists(t, exp.Path)
	}

	run, err := store.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, "completed", run["status"])
}

func TestRunAutoVariantHasNoMissingTargets(t *testing.T) {
	job, _ := setupRunTest(t)
	require.NoError(t, store.SaveRun("run-auto", job))

	report, err := Run(context.Background(), "run-auto", job)
	require.NoError(t, err)

	errCh, _ := drainErrors()
	auto, err := IngestCSV(context.Background(), model.Source{
		Type: "csv", URL: filepath.Join(job.Export.Dir, job.Export.AutoFile), Separator: ",",
	}, errCh)
	require.NoError(t, err)
	require.Len(t, auto.Rows, 4)

	for _, col := range job.Imputation.TargetColumns {
		assert.Zero(t, auto.MissingCount(col), "column %s still has gaps", col)
	}
	assert.Zero(t, auto.MissingCount(job.Imputation.ScoreColumn))
	assert.Zero(t, auto.MissingCount(job.Imputation.GradeColumn))
	assert.Equal(t, 4, report.RowsExported)
}

func TestRunCalculationVariantFillsMuesli(t *testing.T) {
	job, _ := setupRunTest(t)
	require.NoError(t, store.SaveRun("run-calc", job))

	_, err := Run(context.Background(), "run-calc", job)
	require.NoError(t, err)

	errCh, _ := drainErrors()
	byCalc, err := IngestCSV(context.Background(), model.Source{
		Type: "csv", URL: filepath.Join(job.Export.Dir, job.Export.CalculationFile), Separator: ",",
	}, errCh)
	require.NoError(t, err)

	var muesli model.Record
	for _, rec := range byCalc.Rows {
		if rec["code"] == 1002 {
			muesli = rec
		}
	}
	require.NotNil(t, muesli)

	// 1500 kJ, 5 g sat fat, 20 g sugars, 0.4 g sodium, 2.5 g fiber,
	// 7 g proteins is 9 points, grade c
	score, ok := muesli.Float("nutrition_score_fr_100g")
	require.True(t, ok)
	assert.Equal(t, 9.0, score)
	assert.Equal(t, "c", muesli["nutrition_grade_fr"])

	// the soup's missing energy is out of reach for the formula here
	for _, rec := range byCalc.Rows {
		if rec["code"] == 1003 {
			assert.True(t, rec.IsMissing("energy_100g"))
		}
	}
}

func TestRunRelevantVariantKeepsNulls(t *testing.T) {
	job, _ := setupRunTest(t)
	require.NoError(t, store.SaveRun("run-rel", job))

	_, err := Run(context.Background(), "run-rel", job)
	require.NoError(t, err)

	errCh, _ := drainErrors()
	relevant, err := IngestCSV(context.Background(), model.Source{
		Type: "csv", URL: filepath.Join(job.Export.Dir, job.Export.RelevantFile), Separator: ",",
	}, errCh)
	require.NoError(t, err)

	// no imputation on the relevant variant: the soup's energy and the
	// nulled outlier stay missing
	assert.Equal(t, 2, relevant.MissingCount("energy_100g"))
}

func TestRunRejectsBrokenConfiguration(t *testing.T) {
	job, _ := setupRunTest(t)
	job.Pruning.DropColumns = append(job.Pruning.DropColumns, "code")
	require.NoError(t, store.SaveRun("run-bad", job))

	_, err := Run(context.Background(), "run-bad", job)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "configuration"))

	run, err := store.GetRun("run-bad")
	require.NoError(t, err)
	assert.Equal(t, "failed", run["status"])
}

func TestRunMissingInputFails(t *testing.T) {
	job, _ := setupRunTest(t)
	job.Source.URL = "/does/not/exist.csv"
	require.NoError(t, store.SaveRun("run-noinput", job))

	_, err := Run(context.Background(), "run-noinput", job)
	require.Error(t, err)

	run, err := store.GetRun("run-noinput")
	require.NoError(t, err)
	assert.Equal(t, "failed", run["status"])
}
