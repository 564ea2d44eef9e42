package model

// Source describes where the raw dataset comes from
type Source struct {
	Type      string `json:"type"`      // csv
	URL       string `json:"url"`       // file path
	Separator string `json:"separator"` // "\t" for Open Food Facts exports, "," by default
}

// ValidationRules defines schema requirements checked before cleaning
type ValidationRules struct {
	RequiredColumns []string `json:"requiredColumns"` // columns that must exist in the raw file
	NumericColumns  []string `json:"numericColumns"`  // columns whose cells must be numeric or missing
}

// Pruning defines the column-pruning stage
type Pruning struct {
	MaxMissingRate float64  `json:"maxMissingRate"` // percentage, e.g. 50.0
	KeepColumns    []string `json:"keepColumns"`    // always kept, regardless of missing rate
	DropColumns    []string `json:"dropColumns"`    // always dropped, e.g. free-text columns
}

// Dedupe defines the duplicate-key resolution stage
type Dedupe struct {
	KeyColumn string `json:"keyColumn"` // product barcode
	Policy    string `json:"policy"`    // "most-complete" (default) or "first"
}

// Bound is a closed plausibility interval for one numeric column
type Bound struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Imputation configures both imputation strategies
type Imputation struct {
	ScoreColumn    string   `json:"scoreColumn"`    // nutrition_score_fr_100g
	GradeColumn    string   `json:"gradeColumn"`    // nutrition_grade_fr
	K              int      `json:"k"`              // neighbor count for KNN
	FeatureColumns []string `json:"featureColumns"` // numeric feature space for distances
	TargetColumns  []string `json:"targetColumns"`  // columns whose nulls KNN fills
}

// Export defines output targets for the cleaned dataset variants
type Export struct {
	Dir             string `json:"dir"`             // output directory
	RelevantFile    string `json:"relevantFile"`    // data_relevant.csv
	CalculationFile string `json:"calculationFile"` // data_cleaned_by_calculation.csv
	AutoFile        string `json:"autoFile"`        // data_cleaned_auto.csv
	Parquet         bool   `json:"parquet"`         // also write a parquet snapshot of the auto variant
	ReportFile      string `json:"reportFile"`      // JSON run report
}

// CleaningJobSpec defines the entire cleaning run configuration
type CleaningJobSpec struct {
	Source     Source           `json:"source"`
	Validation *ValidationRules `json:"validation,omitempty"`
	Pruning    Pruning          `json:"pruning"`
	Dedupe     Dedupe           `json:"dedupe"`
	Bounds     map[string]Bound `json:"bounds,omitempty"` // per-column plausibility bounds
	Imputation Imputation       `json:"imputation"`
	Export     *Export          `json:"export,omitempty"`
	Logging    bool             `json:"logging"` // persist detailed run logs to the store
}

// NutrientColumns are the six inputs of the Nutri-Score points model.
var NutrientColumns = []string{
	"energy_100g",
	"saturated_fat_100g",
	"sugars_100g",
	"fiber_100g",
	"proteins_100g",
	"sodium_100g",
}

// DefaultJobSpec returns the configuration used for the Open Food Facts
// export when no job file is supplied.
func DefaultJobSpec(input string) CleaningJobSpec {
	keep := []string{
		"code", "product_name", "created_datetime", "brands",
		"pnns_groups_1", "pnns_groups_2", "origins", "countries_fr",
		"ingredients_text", "additives_n", "nutrition_grade_fr",
		"energy_100g", "fat_100g", "saturated_fat_100g",
		"carbohydrates_100g", "sugars_100g", "fiber_100g",
		"proteins_100g", "salt_100g", "sodium_100g",
		"nutrition_score_fr_100g",
	}
	numeric := []string{
		"additives_n", "energy_100g", "fat_100g", "saturated_fat_100g",
		"carbohydrates_100g", "sugars_100g", "fiber_100g", "proteins_100g",
		"salt_100g", "sodium_100g", "nutrition_score_fr_100g",
	}
	return CleaningJobSpec{
		Source: Source{Type: "csv", URL: input, Separator: "\t"},
		Validation: &ValidationRules{
			RequiredColumns: []string{"code"},
			NumericColumns:  numeric,
		},
		Pruning: Pruning{
			MaxMissingRate: 50.0,
			KeepColumns:    keep,
			// Retained for inspection only in the source project; the
			// exploration stage never touches them.
			DropColumns: []string{"ingredients_text"},
		},
		Dedupe: Dedupe{KeyColumn: "code", Policy: "most-complete"},
		Bounds: map[string]Bound{
			// Pure fat is about 3700 kJ per 100 g, so anything above
			// 3800 kJ is a data-entry defect.
			"energy_100g":             {Min: 0, Max: 3800},
			"fat_100g":                {Min: 0, Max: 100},
			"saturated_fat_100g":      {Min: 0, Max: 100},
			"carbohydrates_100g":      {Min: 0, Max: 100},
			"sugars_100g":             {Min: 0, Max: 100},
			"fiber_100g":              {Min: 0, Max: 100},
			"proteins_100g":           {Min: 0, Max: 100},
			"salt_100g":               {Min: 0, Max: 100},
			"sodium_100g":             {Min: 0, Max: 100},
			"nutrition_score_fr_100g": {Min: -15, Max: 40},
		},
		Imputation: Imputation{
			ScoreColumn: "nutrition_score_fr_100g",
			GradeColumn: "nutrition_grade_fr",
			K:           5,
			FeatureColumns: []string{
				"energy_100g", "fat_100g", "saturated_fat_100g",
				"carbohydrates_100g", "sugars_100g", "fiber_100g",
				"proteins_100g", "sodium_100g",
			},
			TargetColumns: []string{
				"energy_100g", "fat_100g", "saturated_fat_100g",
				"carbohydrates_100g", "sugars_100g", "fiber_100g",
				"proteins_100g", "salt_100g", "sodium_100g",
			},
		},
		Export: &Export{
			Dir:             "exports",
			RelevantFile:    "data_relevant.csv",
			CalculationFile: "data_cleaned_by_calculation.csv",
			AutoFile:        "data_cleaned_auto.csv",
			Parquet:         true,
			ReportFile:      "run_report.json",
		},
		Logging: true,
	}
}
