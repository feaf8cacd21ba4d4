package nutrition

import "math"

// Round rounds half up: 2.5 -> 3, -2.5 -> -2.
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// Round1 rounds to one decimal place.
func Round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

func finitePositive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}

// MaxTarget bounds every integer the calculator reports.
const MaxTarget = math.MaxInt32

// toCount converts x to a non-negative int, saturating at MaxTarget. NaN
// gives 0.
func toCount(x float64) int {
	if !(x > 0) {
		return 0
	}
	return toInt(x)
}

// toInt converts x to an int within ±MaxTarget. NaN gives 0.
func toInt(x float64) int {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= MaxTarget:
		return MaxTarget
	case x <= -MaxTarget:
		return -MaxTarget
	}
	return int(x)
}
