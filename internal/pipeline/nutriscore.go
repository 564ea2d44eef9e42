package pipeline

// ------------------- Nutri-Score Calculation -------------------

// Point thresholds per 100g. A nutrient earns one point for every
// threshold its value strictly exceeds.
var (
	energyThresholds    = []float64{335, 670, 1005, 1340, 1675, 2010, 2345, 2680, 3015, 3350} // kJ
	sugarsThresholds    = []float64{4.5, 9, 13.5, 18, 22.5, 27, 31, 36, 40, 45}               // g
	satFatThresholds    = []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}                            // g
	sodiumThresholds    = []float64{90, 180, 270, 360, 450, 540, 630, 720, 810, 900}          // mg
	fiberThresholds     = []float64{0.7, 1.4, 2.1, 2.8, 3.5}                                  // g
	proteinsThresholds  = []float64{1.6, 3.2, 4.8, 6.4, 8.0}                                  // g
)

func pointsAbove(value float64, thresholds []float64) int {
	points := 0
	for _, t := range thresholds {
		if value > t {
			points++
		}
	}
	return points
}

// CalculateNutriScore computes the Nutri-Score from the six nutritional
// inputs per 100g: points for nutrients to limit (energy, sugars,
// saturated fat, sodium) minus points for nutrients to favor (fiber,
// proteins).
func CalculateNutriScore(energy, saturatedFat, sugars, fiber, proteins, sodium float64) int {
	limiting := pointsAbove(energy, energyThresholds) +
		pointsAbove(sugars, sugarsThresholds) +
		pointsAbove(saturatedFat, satFatThresholds) +
		pointsAbove(sodium, sodiumThresholds)

	favorable := pointsAbove(fiber, fiberThresholds) +
		pointsAbove(proteins, proteinsThresholds)

	return limiting - favorable
}

// NutriGradeFromScore maps a Nutri-Score to its letter grade.
func NutriGradeFromScore(score int) string {
	switch {
	case score <= -1:
		return "a"
	case score <= 2:
		return "b"
	case score <= 10:
		return "c"
	case score <= 18:
		return "d"
	default:
		return "e"
	}
}
