package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"go-foodfacts-pipeline/internal/model"
	"go-foodfacts-pipeline/internal/pipeline"
	"go-foodfacts-pipeline/internal/store"
)

func main() {
	// .env is optional, flags win over env
	_ = godotenv.Load()

	input := flag.String("input", envOr("PIPELINE_INPUT", "data/en.openfoodfacts.org.products.csv"), "input CSV file")
	jobFile := flag.String("job", os.Getenv("PIPELINE_JOB"), "optional job spec JSON file")
	outDir := flag.String("out", envOr("PIPELINE_OUT", "output"), "output directory")
	dbPath := flag.String("db", envOr("PIPELINE_DB", "pipeline.db"), "sqlite database file")
	flag.Parse()

	if err := store.InitDB(*dbPath); err != nil {
		fmt.Printf("❌ Failed to init database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	job := model.DefaultJobSpec(*input)
	job.Export.Dir = *outDir
	if *jobFile != "" {
		if err := loadJobSpec(*jobFile, &job); err != nil {
			fmt.Printf("❌ Failed to load job spec: %v\n", err)
			os.Exit(1)
		}
	}

	runID := uuid.New().String()
	if err := store.SaveRun(runID, job); err != nil {
		fmt.Printf("❌ Failed to register run: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("🚀 Starting cleaning run %s on %s\n", runID, job.Source.URL)
	start := time.Now()

	report, err := pipeline.Run(context.Background(), runID, job)
	if err != nil {
		fmt.Printf("❌ Run %s failed: %v\n", runID, err)
		os.Exit(1)
	}

	fmt.Printf("✅ Run %s completed in %s\n", runID, time.Since(start).Round(time.Millisecond))
	fmt.Printf("   Rows: %d ingested, %d exported (%d duplicates dropped)\n",
		report.RowsIngested, report.RowsExported, report.DuplicatesDrop)
	fmt.Printf("   Columns kept: %d (dropped %d)\n", len(report.ColumnsKept), len(report.ColumnsPruned))
	for _, exp := range report.Exports {
		fmt.Printf("   📄 %s (%d records)\n", exp.Path, exp.RecordCount)
	}
}

func loadJobSpec(path string, job *model.CleaningJobSpec) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read job spec: %w", err)
	}
	if err := json.Unmarshal(raw, job); err != nil {
		return fmt.Errorf("failed to parse job spec: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
