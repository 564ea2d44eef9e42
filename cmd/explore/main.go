package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"

	"go-foodfacts-pipeline/internal/explore"
	"go-foodfacts-pipeline/internal/model"
	"go-foodfacts-pipeline/internal/pipeline"
)

// chartWorkers bounds the parallel PNG renders.
const chartWorkers = 4

func main() {
	_ = godotenv.Load()

	input := flag.String("input", envOr("EXPLORE_INPUT", "output/data_cleaned_auto.csv"), "cleaned CSV file")
	outDir := flag.String("out", envOr("EXPLORE_OUT", "output/exploration"), "output directory")
	gradeCol := flag.String("grade", "nutrition_grade_fr", "categorical grade column")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Printf("❌ Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	// cleaned exports are comma separated, unlike the raw dump
	source := model.Source{Type: "csv", URL: *input, Separator: ","}
	errCh := make(chan error, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range errCh {
			fmt.Printf("⚠️ %v\n", err)
		}
	}()

	ds, err := pipeline.IngestCSV(context.Background(), source, errCh)
	close(errCh)
	wg.Wait()
	if err != nil {
		fmt.Printf("❌ Failed to load %s: %v\n", *input, err)
		os.Exit(1)
	}
	fmt.Printf("🔍 Exploring %d rows, %d columns from %s\n", len(ds.Rows), len(ds.Columns), *input)

	numericCols := explore.NumericColumns(ds)
	if len(numericCols) == 0 {
		fmt.Println("❌ No numeric columns found")
		os.Exit(1)
	}

	// univariate tables
	summaries := explore.DescribeNumeric(ds, numericCols)
	if err := writeNumericSummaries(filepath.Join(*outDir, "describe_numeric.csv"), summaries); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	categoricalCols := []string{*gradeCol, "pnns_groups_1", "pnns_groups_2"}
	for _, col := range categoricalCols {
		if !ds.HasColumn(col) {
			continue
		}
		summary := explore.DescribeCategorical(ds, col)
		path := filepath.Join(*outDir, "frequencies_"+col+".csv")
		if err := writeFrequencies(path, summary); err != nil {
			fmt.Printf("⚠️ %v\n", err)
		}
	}

	// bivariate tables
	matrix := explore.CorrelationMatrix(ds, numericCols)
	if err := writeMatrix(filepath.Join(*outDir, "correlations.csv"), numericCols, matrix); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	if ds.HasColumn(*gradeCol) {
		if err := writeCorrelationRatios(filepath.Join(*outDir, "correlation_ratio.csv"), ds, *gradeCol, numericCols); err != nil {
			fmt.Printf("⚠️ %v\n", err)
		}
	}

	// multivariate
	pcaCols := intersect(numericCols, model.NutrientColumns)
	var pcaRes *explore.PCAResult
	if len(pcaCols) >= 2 {
		pcaRes, err = explore.PCA(ds, pcaCols, 2)
		if err != nil {
			fmt.Printf("⚠️ PCA skipped: %v\n", err)
		} else if err := writePCA(filepath.Join(*outDir, "pca.csv"), pcaRes); err != nil {
			fmt.Printf("⚠️ %v\n", err)
		}
	}

	rendered, failed := renderCharts(ds, *outDir, *gradeCol, numericCols, matrix, pcaRes)
	fmt.Printf("✅ Exploration done: %d charts rendered, %d failed, tables in %s\n", rendered, failed, *outDir)
	if failed > 0 {
		os.Exit(1)
	}
}

// renderCharts fans the PNG renders out over a small worker pool.
func renderCharts(ds *model.Dataset, outDir, gradeCol string, numericCols []string, matrix [][]float64, pcaRes *explore.PCAResult) (rendered, failed int) {
	renderer, err := explore.NewRenderer(filepath.Join(outDir, "charts"))
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return 0, 1
	}

	type job func() (string, error)
	var jobs []job

	for _, col := range numericCols {
		col := col
		jobs = append(jobs, func() (string, error) {
			values := ds.NumericValues(col)
			return renderer.Histogram(values, 30, "Distribution of "+col, "hist_"+col+".png")
		})
	}
	if ds.HasColumn(gradeCol) {
		jobs = append(jobs, func() (string, error) {
			summary := explore.DescribeCategorical(ds, gradeCol)
			return renderer.BarChart(summary.Frequencies, "Nutrition grades", "grades.png")
		})
	}
	jobs = append(jobs, func() (string, error) {
		return renderer.Heatmap(numericCols, matrix, "Pearson correlations", "correlations.png")
	})
	if a, b, r := explore.StrongestPair(numericCols, matrix); a != "" {
		jobs = append(jobs, func() (string, error) {
			xs, ys := pairedValues(ds, a, b)
			title := fmt.Sprintf("%s vs %s (r=%.2f)", a, b, r)
			return renderer.Scatter(xs, ys, a, b, title, "scatter_strongest.png")
		})
	}
	if pcaRes != nil {
		jobs = append(jobs, func() (string, error) {
			labels := make([]string, len(pcaRes.RowIndexes))
			for i, idx := range pcaRes.RowIndexes {
				labels[i] = ds.Rows[idx].String(gradeCol)
			}
			return renderer.PCAScatter(pcaRes, labels, "PCA of nutrient profiles", "pca.png")
		})
	}

	jobCh := make(chan job)
	results := make(chan error, len(jobs))
	var wg sync.WaitGroup
	for w := 0; w < chartWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				path, err := j()
				if err == nil {
					fmt.Printf("   🖼️ %s\n", path)
				}
				results <- err
			}
		}()
	}
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			fmt.Printf("⚠️ %v\n", err)
			failed++
		} else {
			rendered++
		}
	}
	return rendered, failed
}

func writeNumericSummaries(path string, summaries []explore.NumericSummary) error {
	rows := [][]string{{"column", "count", "missing", "min", "q25", "median", "q75", "max", "mean", "std_dev"}}
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Column, strconv.Itoa(s.Count), strconv.Itoa(s.Missing),
			formatFloat(s.Min), formatFloat(s.Q25), formatFloat(s.Median),
			formatFloat(s.Q75), formatFloat(s.Max), formatFloat(s.Mean), formatFloat(s.StdDev),
		})
	}
	return writeCSV(path, rows)
}

func writeFrequencies(path string, summary explore.CategoricalSummary) error {
	rows := [][]string{{"value", "count"}}
	for _, f := range summary.Frequencies {
		rows = append(rows, []string{f.Value, strconv.Itoa(f.Count)})
	}
	return writeCSV(path, rows)
}

func writeMatrix(path string, labels []string, matrix [][]float64) error {
	header := append([]string{""}, labels...)
	rows := [][]string{header}
	for i, label := range labels {
		row := []string{label}
		for j := range labels {
			row = append(row, formatFloat(matrix[i][j]))
		}
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

func writeCorrelationRatios(path string, ds *model.Dataset, catCol string, numericCols []string) error {
	rows := [][]string{{"column", "eta_squared"}}
	for _, col := range numericCols {
		eta := explore.CorrelationRatio(ds, catCol, col)
		rows = append(rows, []string{col, formatFloat(eta)})
	}
	return writeCSV(path, rows)
}

func writePCA(path string, res *explore.PCAResult) error {
	rows := [][]string{{"component", "explained_variance"}}
	for i, ev := range res.ExplainedVariance {
		rows = append(rows, []string{fmt.Sprintf("PC%d", i+1), formatFloat(ev)})
	}
	rows = append(rows, append([]string{"loadings"}, res.Columns...))
	for i, comp := range res.Components {
		row := []string{fmt.Sprintf("PC%d", i+1)}
		for _, v := range comp {
			row = append(row, formatFloat(v))
		}
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func pairedValues(ds *model.Dataset, colA, colB string) ([]float64, []float64) {
	var xs, ys []float64
	for _, row := range ds.Rows {
		a, okA := row.Float(colA)
		b, okB := row.Float(colB)
		if okA && okB {
			xs = append(xs, a)
			ys = append(ys, b)
		}
	}
	return xs, ys
}

func intersect(have, want []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, c := range have {
		set[c] = struct{}{}
	}
	var out []string
	for _, c := range want {
		if _, ok := set[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
