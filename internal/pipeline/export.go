package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-foodfacts-pipeline/internal/model"
	"go-foodfacts-pipeline/internal/store"
	"go-foodfacts-pipeline/pkg/utils"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// ------------------- Export -------------------

// ExportManager handles writes of the cleaned dataset variants
type ExportManager struct {
	RunID string
	Spec  *model.Export

	out *utils.OutputManager
}

// NewExportManager creates the export manager for one run.
func NewExportManager(runID string, spec *model.Export) *ExportManager {
	return &ExportManager{RunID: runID, Spec: spec, out: utils.NewOutputManager(spec.Dir)}
}

// ProductParquet is the flat schema of the parquet snapshot. The snapshot
// covers the auto-cleaned variant, whose designated numeric columns carry
// no nulls.
type ProductParquet struct {
	Code           string  `parquet:"name=code, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProductName    string  `parquet:"name=product_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	PnnsGroup1     string  `parquet:"name=pnns_groups_1, type=BYTE_ARRAY, convertedtype=UTF8"`
	PnnsGroup2     string  `parquet:"name=pnns_groups_2, type=BYTE_ARRAY, convertedtype=UTF8"`
	NutritionGrade string  `parquet:"name=nutrition_grade_fr, type=BYTE_ARRAY, convertedtype=UTF8"`
	Energy         float64 `parquet:"name=energy_100g, type=DOUBLE"`
	Fat            float64 `parquet:"name=fat_100g, type=DOUBLE"`
	SaturatedFat   float64 `parquet:"name=saturated_fat_100g, type=DOUBLE"`
	Carbohydrates  float64 `parquet:"name=carbohydrates_100g, type=DOUBLE"`
	Sugars         float64 `parquet:"name=sugars_100g, type=DOUBLE"`
	Fiber          float64 `parquet:"name=fiber_100g, type=DOUBLE"`
	Proteins       float64 `parquet:"name=proteins_100g, type=DOUBLE"`
	Salt           float64 `parquet:"name=salt_100g, type=DOUBLE"`
	Sodium         float64 `parquet:"name=sodium_100g, type=DOUBLE"`
	NutritionScore float64 `parquet:"name=nutrition_score_fr_100g, type=DOUBLE"`
}

// WriteDatasetCSV writes a dataset to a CSV file, header first, missing
// cells as empty strings.
func WriteDatasetCSV(path string, ds *model.Dataset) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write(ds.Columns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	count := 0
	row := make([]string, len(ds.Columns))
	for _, rec := range ds.Rows {
		for i, col := range ds.Columns {
			row[i] = utils.FormatCell(rec[col])
		}
		if err := w.Write(row); err != nil {
			return count, fmt.Errorf("failed to write row: %w", err)
		}
		count++
	}
	return count, w.Error()
}

// ExportDataset writes one dataset variant and returns the result record.
func (em *ExportManager) ExportDataset(name string, ds *model.Dataset) model.ExportResult {
	path := filepath.Join(em.Spec.Dir, name)
	count, err := WriteDatasetCSV(path, ds)

	result := model.ExportResult{
		Type:        em.out.GetFileType(name),
		Path:        path,
		RecordCount: count,
		Success:     err == nil,
		ExportedAt:  time.Now(),
	}
	if err != nil {
		result.Error = err.Error()
		fmt.Printf("❌ Export to %s failed: %v\n", path, err)
	} else {
		result.Bytes, _ = em.out.GetFileSize(path)
		fmt.Printf("✅ Export successful: %d records exported to %s\n", count, path)
	}
	return result
}

// ExportParquet writes the parquet snapshot of the auto-cleaned dataset.
func (em *ExportManager) ExportParquet(ds *model.Dataset) model.ExportResult {
	path := filepath.Join(em.Spec.Dir, "data_cleaned_auto.parquet")
	result := model.ExportResult{Type: "parquet", Path: path, ExportedAt: time.Now()}

	count, err := writeParquet(path, ds)
	result.RecordCount = count
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
		fmt.Printf("❌ Export to parquet failed: %v\n", err)
	} else {
		result.Bytes, _ = em.out.GetFileSize(path)
		fmt.Printf("✅ Parquet snapshot: %d records exported to %s\n", count, path)
	}
	return result
}

func writeParquet(path string, ds *model.Dataset) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(ProductParquet), 2)
	if err != nil {
		return 0, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	count := 0
	for _, rec := range ds.Rows {
		row := ProductParquet{
			Code:           keyString(rec["code"]),
			ProductName:    rec.String("product_name"),
			PnnsGroup1:     rec.String("pnns_groups_1"),
			PnnsGroup2:     rec.String("pnns_groups_2"),
			NutritionGrade: rec.String("nutrition_grade_fr"),
		}
		row.Energy, _ = rec.Float("energy_100g")
		row.Fat, _ = rec.Float("fat_100g")
		row.SaturatedFat, _ = rec.Float("saturated_fat_100g")
		row.Carbohydrates, _ = rec.Float("carbohydrates_100g")
		row.Sugars, _ = rec.Float("sugars_100g")
		row.Fiber, _ = rec.Float("fiber_100g")
		row.Proteins, _ = rec.Float("proteins_100g")
		row.Salt, _ = rec.Float("salt_100g")
		row.Sodium, _ = rec.Float("sodium_100g")
		row.NutritionScore, _ = rec.Float("nutrition_score_fr_100g")

		if err := pw.Write(row); err != nil {
			return count, fmt.Errorf("failed to write parquet row: %w", err)
		}
		count++
	}
	if err := pw.WriteStop(); err != nil {
		return count, fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return count, nil
}

// WriteRunReport writes the JSON run report next to the exported datasets
// and persists the imputation outcomes to the run store.
func (em *ExportManager) WriteRunReport(report model.RunReport) (model.ExportResult, error) {
	path := filepath.Join(em.Spec.Dir, em.Spec.ReportFile)
	result := model.ExportResult{Type: "json", Path: path, ExportedAt: time.Now()}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("failed to encode report: %w", err)
	}

	for _, imp := range report.Imputation {
		if err := store.SaveImputationReport(em.RunID, imp); err != nil {
			fmt.Printf("❌ Failed to persist imputation report: %v\n", err)
		}
	}

	result.Success = true
	result.RecordCount = 1
	fmt.Printf("📝 Run report written to %s\n", path)
	return result, nil
}
