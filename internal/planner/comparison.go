package planner

import (
	"slices"
	"time"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/nutrition"
)

// Trend classifies the weight change between consecutive weeks.
type Trend string

const (
	TrendNone    Trend = ""
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// trendThreshold is the weekly average change in kg below which weight is
// considered stable.
const trendThreshold = 0.5

// WeekComparison is one completed week compared with the one before it.
type WeekComparison struct {
	Week          int       `json:"week"` // 1-based, oldest first
	CompletedAt   time.Time `json:"completedAt"`
	AverageWeight *float64  `json:"averageWeight"`
	Diff          *float64  `json:"diff"`
	Trend         Trend     `json:"trend,omitempty"`
	WeeklyKcal    float64   `json:"weeklyKcal"`
}

// WeeklyComparisons lists fully completed weeks oldest first with their
// average weight, the change from the previous week and the weekly kcal.
// Weeks recorded without kcal use the stored plan macros, then
// fallbackDailyKcal, times seven.
func WeeklyComparisons(history []domain.WeekRecord, fallbackDailyKcal float64) []WeekComparison {
	var weeks []domain.WeekRecord
	for _, w := range history {
		if w.FullyComplete() {
			weeks = append(weeks, w)
		}
	}
	slices.SortStableFunc(weeks, func(a, b domain.WeekRecord) int {
		return a.CompletedAt.Compare(b.CompletedAt)
	})

	out := make([]WeekComparison, 0, len(weeks))
	var prev *float64
	for i, w := range weeks {
		avg := averageWeight(w.Weights)
		c := WeekComparison{
			Week:          i + 1,
			CompletedAt:   w.CompletedAt,
			AverageWeight: avg,
			WeeklyKcal:    weeklyKcal(w, fallbackDailyKcal),
		}
		if i > 0 && prev != nil && avg != nil {
			d := nutrition.Round2(*avg - *prev)
			c.Diff = &d
			switch {
			case d > trendThreshold:
				c.Trend = TrendRising
			case d < -trendThreshold:
				c.Trend = TrendFalling
			default:
				c.Trend = TrendStable
			}
		}
		out = append(out, c)
		prev = avg
	}
	return out
}

func weeklyKcal(w domain.WeekRecord, fallbackDaily float64) float64 {
	switch {
	case w.WeeklyKcal > 0:
		return w.WeeklyKcal
	case w.PlanMacros.Kcal > 0:
		return nutrition.Round(w.PlanMacros.Kcal * domain.DaysPerWeek)
	}
	return nutrition.Round(fallbackDaily * domain.DaysPerWeek)
}
