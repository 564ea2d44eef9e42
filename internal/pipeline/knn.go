package pipeline

import (
	"fmt"
	"math"
	"sort"

	"go-foodfacts-pipeline/internal/model"
)

// ------------------- KNN Imputation -------------------

// knnCandidate is a donor row with its distance to the recipient
type knnCandidate struct {
	rowIndex int
	distance float64
}

// knnSpace is the fixed numeric feature space a KNN run works over. All
// estimates are computed against this snapshot, so imputed cells never
// become donors within the same run and the imputer stays a pure function
// of the input dataset.
type knnSpace struct {
	features []string
	values   [][]float64 // row-major, NaN = missing
	min, max []float64   // per-feature observed range for normalization
}

func newKNNSpace(ds *model.Dataset, features []string) *knnSpace {
	sp := &knnSpace{
		features: features,
		values:   make([][]float64, len(ds.Rows)),
		min:      make([]float64, len(features)),
		max:      make([]float64, len(features)),
	}
	for j := range features {
		sp.min[j] = math.Inf(1)
		sp.max[j] = math.Inf(-1)
	}
	for i, rec := range ds.Rows {
		row := make([]float64, len(features))
		for j, col := range features {
			v, ok := rec.Float(col)
			if !ok {
				row[j] = math.NaN()
				continue
			}
			row[j] = v
			if v < sp.min[j] {
				sp.min[j] = v
			}
			if v > sp.max[j] {
				sp.max[j] = v
			}
		}
		sp.values[i] = row
	}
	return sp
}

// normalized maps a raw feature value into [0,1] over the observed range.
// A constant feature contributes zero distance.
func (sp *knnSpace) normalized(j int, v float64) float64 {
	span := sp.max[j] - sp.min[j]
	if span <= 0 || math.IsInf(span, 0) {
		return 0
	}
	return (v - sp.min[j]) / span
}

// fullyObserved reports whether a row has every feature present.
func (sp *knnSpace) fullyObserved(i int) bool {
	for _, v := range sp.values[i] {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// distance is the Euclidean distance over the normalized features observed
// in the recipient. ok is false when the recipient observes no feature at
// all.
func (sp *knnSpace) distance(recipient, donor int) (float64, bool) {
	sum := 0.0
	used := 0
	for j := range sp.features {
		rv := sp.values[recipient][j]
		if math.IsNaN(rv) {
			continue
		}
		dv := sp.values[donor][j]
		d := sp.normalized(j, rv) - sp.normalized(j, dv)
		sum += d * d
		used++
	}
	if used == 0 {
		return 0, false
	}
	return math.Sqrt(sum / float64(used)), true
}

// ImputeKNN fills missing cells of the target columns with a
// distance-weighted aggregate of the K nearest fully-observed rows in the
// numeric feature space. Ties in distance break toward the lower original
// row index, so output is deterministic for a fixed dataset and K. Cells
// with no eligible donor stay null and are counted in the report.
func ImputeKNN(ds *model.Dataset, cfg model.Imputation) (model.ImputationReport, error) {
	k := cfg.K
	if k <= 0 {
		k = 5
	}
	for _, col := range append(append([]string{}, cfg.FeatureColumns...), cfg.TargetColumns...) {
		if !ds.HasColumn(col) {
			return model.ImputationReport{}, fmt.Errorf("knn column %q not present", col)
		}
	}

	sp := newKNNSpace(ds, cfg.FeatureColumns)
	report := model.ImputationReport{Strategy: "knn", K: k}

	// pending estimates: applied only after every cell is computed
	type fill struct {
		rowIndex int
		column   string
		value    float64
	}
	var fills []fill

	for _, target := range cfg.TargetColumns {
		before := ds.MissingCount(target)
		filled := 0

		// Donors must be fully observed in the feature space and carry a
		// value for the target column itself.
		donors := make([]int, 0, len(ds.Rows))
		for i := range ds.Rows {
			if !sp.fullyObserved(i) {
				continue
			}
			if _, ok := ds.Rows[i].Float(target); !ok {
				continue
			}
			donors = append(donors, i)
		}

		for i, rec := range ds.Rows {
			if !rec.IsMissing(target) {
				continue
			}
			estimate, ok := sp.estimate(ds, donors, i, target, k)
			if !ok {
				continue
			}
			fills = append(fills, fill{rowIndex: i, column: target, value: estimate})
			filled++
		}

		report.Columns = append(report.Columns, model.ColumnImputation{
			Column:          target,
			MissingBefore:   before,
			Filled:          filled,
			ResidualMissing: before - filled,
		})
	}

	for _, f := range fills {
		ds.Rows[f.rowIndex][f.column] = f.value
	}

	fmt.Printf("🤝 KNN Imputation Summary: %d cells filled, %d residual missing (k=%d)\n",
		report.TotalFilled(), report.TotalResidual(), k)
	return report, nil
}

// estimate computes one KNN estimate. ok is false when the recipient row
// observes no features or no eligible donor exists.
func (sp *knnSpace) estimate(ds *model.Dataset, donors []int, recipient int, target string, k int) (float64, bool) {
	candidates := make([]knnCandidate, 0, len(donors))
	for _, d := range donors {
		if d == recipient {
			continue
		}
		dist, ok := sp.distance(recipient, d)
		if !ok {
			return 0, false
		}
		candidates = append(candidates, knnCandidate{rowIndex: d, distance: dist})
	}
	if len(candidates) == 0 {
		return 0, false
	}

	// Stable nearest-first order: distance, then original row index.
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].distance != candidates[b].distance {
			return candidates[a].distance < candidates[b].distance
		}
		return candidates[a].rowIndex < candidates[b].rowIndex
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	// Exact matches short-circuit to their unweighted mean; otherwise the
	// neighbors vote with inverse-distance weights.
	exactSum, exactCount := 0.0, 0
	weightedSum, weightTotal := 0.0, 0.0
	for _, c := range candidates {
		v, _ := ds.Rows[c.rowIndex].Float(target)
		if c.distance == 0 {
			exactSum += v
			exactCount++
			continue
		}
		w := 1.0 / c.distance
		weightedSum += w * v
		weightTotal += w
	}
	if exactCount > 0 {
		return exactSum / float64(exactCount), true
	}
	return weightedSum / weightTotal, true
}
