package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go-foodfacts-pipeline/internal/model"
	"go-foodfacts-pipeline/internal/store"
)

// ------------------- Pipeline Runner -------------------

// Run executes one cleaning run end to end: ingest → validate → prune →
// dedupe → outlier correction → imputation → export. Stages run
// sequentially over the in-memory dataset because deduplication and the
// KNN tie-break both depend on stable row order.
func Run(ctx context.Context, runID string, job model.CleaningJobSpec) (report *model.RunReport, err error) {
	start := time.Now()
	fmt.Printf("🚀 Starting cleaning run: %s\n", runID)

	store.UpdateRunStatus(runID, "running")
	defer func() {
		if err != nil {
			store.UpdateRunStatus(runID, "failed")
			store.SaveRunError(runID, err)
		}
	}()

	// Configuration errors surface before any data is touched.
	if err := CheckStageDependencies(job); err != nil {
		return nil, fmt.Errorf("job configuration invalid: %w", err)
	}

	errCh := make(chan error, 256)
	var wg sync.WaitGroup

	// --- ERROR LOGGER ---
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range errCh {
			log.Printf("❌ Error in run %s: %v\n", runID, e)
		}
	}()

	tracker := NewRunTracker(runID, job.Logging)
	report = &model.RunReport{RunID: runID, Input: job.Source.URL, StartedAt: start}

	// --- INGESTION STAGE ---
	tracker.StartStage("ingestion", 0)
	tracker.Log("ingestion", "info", "Starting ingestion stage", map[string]interface{}{
		"source": job.Source.URL,
	})
	ds, err := IngestCSV(ctx, job.Source, errCh)
	if err != nil {
		tracker.FailStage(err)
		close(errCh)
		wg.Wait()
		return nil, fmt.Errorf("ingestion failed: %w", err)
	}
	report.RowsIngested = len(ds.Rows)
	tracker.EndStage(len(ds.Rows), 0)

	// --- VALIDATION STAGE ---
	tracker.StartStage("validation", len(ds.Rows))
	nulled, err := ValidateDataset(ds, job.Validation, errCh)
	if err != nil {
		tracker.FailStage(err)
		close(errCh)
		wg.Wait()
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	tracker.EndStage(len(ds.Rows), nulled)

	// --- PRUNING STAGE ---
	tracker.StartStage("pruning", len(ds.Rows))
	pruneRes := PruneColumns(ds, job.Pruning)
	report.ColumnsPruned = pruneRes.Dropped
	report.ColumnsKept = pruneRes.Kept
	tracker.Log("pruning", "info", "Pruning stage completed", map[string]interface{}{
		"dropped": len(pruneRes.Dropped),
		"kept":    len(pruneRes.Kept),
	})
	tracker.EndStage(len(ds.Rows), len(pruneRes.Dropped))

	// --- DEDUPLICATION STAGE ---
	tracker.StartStage("deduplication", len(ds.Rows))
	dedupeRes, err := DedupeRows(ds, job.Dedupe)
	if err != nil {
		tracker.FailStage(err)
		close(errCh)
		wg.Wait()
		return nil, fmt.Errorf("deduplication failed: %w", err)
	}
	report.DuplicatesDrop = dedupeRes.DuplicatesDropped
	report.InvalidKeys = dedupeRes.InvalidKeysDropped
	tracker.EndStage(len(ds.Rows), dedupeRes.DuplicatesDropped+dedupeRes.InvalidKeysDropped)

	// --- OUTLIER CORRECTION STAGE ---
	tracker.StartStage("outliers", len(ds.Rows))
	report.OutliersNulled = CorrectOutliers(ds, job.Bounds)
	cells := 0
	for _, n := range report.OutliersNulled {
		cells += n
	}
	tracker.EndStage(len(ds.Rows), cells)

	// ds is now the "relevant" variant. The two cleaned variants derive
	// from independent copies of it.
	relevant := ds
	byCalculation := relevant.Clone()
	auto := relevant.Clone()

	// --- CALCULATION IMPUTATION STAGE ---
	tracker.StartStage("impute-calculation", len(byCalculation.Rows))
	calcReport := ImputeByCalculation(byCalculation, job.Imputation)
	report.Imputation = append(report.Imputation, calcReport)
	tracker.Log("impute-calculation", "info", "Calculation imputation completed", map[string]interface{}{
		"filled":   calcReport.TotalFilled(),
		"residual": calcReport.TotalResidual(),
	})
	tracker.EndStage(len(byCalculation.Rows), calcReport.TotalFilled())

	// --- KNN IMPUTATION STAGE ---
	tracker.StartStage("impute-knn", len(auto.Rows))
	knnReport, err := ImputeKNN(auto, job.Imputation)
	if err != nil {
		tracker.FailStage(err)
		close(errCh)
		wg.Wait()
		return nil, fmt.Errorf("knn imputation failed: %w", err)
	}
	// With the numeric space filled in, the formula can now cover rows the
	// first pass had to skip.
	autoCalcReport := ImputeByCalculation(auto, job.Imputation)
	report.Imputation = append(report.Imputation, knnReport, autoCalcReport)
	tracker.Log("impute-knn", "info", "KNN imputation completed", map[string]interface{}{
		"filled":   knnReport.TotalFilled(),
		"residual": knnReport.TotalResidual(),
		"k":        knnReport.K,
	})
	tracker.EndStage(len(auto.Rows), knnReport.TotalFilled())

	// --- EXPORT STAGE ---
	if job.Export != nil {
		tracker.StartStage("export", len(relevant.Rows))
		em := NewExportManager(runID, job.Export)

		report.Exports = append(report.Exports, em.ExportDataset(job.Export.RelevantFile, relevant))
		report.Exports = append(report.Exports, em.ExportDataset(job.Export.CalculationFile, byCalculation))
		report.Exports = append(report.Exports, em.ExportDataset(job.Export.AutoFile, auto))
		if job.Export.Parquet {
			report.Exports = append(report.Exports, em.ExportParquet(auto))
		}

		report.RowsExported = len(relevant.Rows)
		report.FinishedAt = time.Now()
		report.Stages = tracker.Stages

		if reportRes, repErr := em.WriteRunReport(*report); repErr != nil {
			errCh <- repErr
		} else {
			report.Exports = append(report.Exports, reportRes)
		}

		for _, res := range report.Exports {
			if !res.Success {
				errCh <- fmt.Errorf("export %s (%s): %s", res.Path, res.Type, res.Error)
			}
		}
		tracker.EndStage(len(relevant.Rows), len(report.Exports))
	} else {
		report.RowsExported = len(relevant.Rows)
		report.FinishedAt = time.Now()
		report.Stages = tracker.Stages
	}

	metrics := tracker.Metrics("completed", start)
	tracker.Log("run", "info", "Run finished", map[string]interface{}{
		"stages":   len(metrics.Stages),
		"rows_in":  report.RowsIngested,
		"rows_out": report.RowsExported,
	})

	close(errCh)
	wg.Wait()

	duration := time.Since(start)
	fmt.Printf("🏁 Cleaning run completed: %s in %v (%d rows in, %d rows out)\n",
		runID, duration, report.RowsIngested, report.RowsExported)

	store.UpdateRunStatus(runID, "completed")
	return report, nil
}
