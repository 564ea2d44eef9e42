package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go-foodfacts-pipeline/internal/model"
	"go-foodfacts-pipeline/pkg/utils"
)

// ------------------- Ingestion -------------------

// IngestCSV loads the raw product file into a Dataset. Row order follows
// file order; later stages rely on it staying stable.
func IngestCSV(ctx context.Context, source model.Source, errs chan<- error) (*model.Dataset, error) {
	fmt.Printf("➡️ Starting ingestion for source: %s (%s)\n", source.URL, source.Type)

	if strings.ToLower(source.Type) != "csv" {
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}

	file, err := os.Open(source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	csvReader := csv.NewReader(file)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1
	if sep := separatorRune(source.Separator); sep != 0 {
		csvReader.Comma = sep
	}

	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		// Clean header names: trim whitespace and remove ALL quotes
		clean := strings.TrimSpace(h)
		headers[i] = strings.ReplaceAll(clean, `"`, "")
	}

	dataset := model.NewDataset(headers)
	recordCount := 0
	skipped := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			errs <- fmt.Errorf("CSV read error at row %d: %w", recordCount+skipped, err)
			continue
		}

		rec := make(model.Record, len(headers))
		for i, h := range headers {
			if i < len(record) {
				rec[h] = utils.ParseValue(record[i])
			} else {
				rec[h] = nil
			}
		}
		dataset.Rows = append(dataset.Rows, rec)
		recordCount++
		if recordCount%10000 == 0 {
			fmt.Printf("📄 CSV: Processed %d records from %s\n", recordCount, source.URL)
		}
	}

	fmt.Printf("📄 CSV ingestion done: %d records read, %d skipped from %s\n", recordCount, skipped, source.URL)
	return dataset, nil
}

func separatorRune(s string) rune {
	switch s {
	case "", ",":
		return ','
	case "\t", "tab":
		return '\t'
	case ";":
		return ';'
	default:
		return rune(s[0])
	}
}
