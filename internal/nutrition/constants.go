// Package nutrition derives daily calorie and macro targets from a profile
// and turns them into per-slot portion budgets.
package nutrition

import (
	"maps"

	"alcyxob/nutrition-app/internal/domain"
)

// PortionSizes are the grams of a macro that make one portion.
type PortionSizes struct {
	Protein float64
	Carbs   float64
	Fat     float64
}

// Of returns the portion size of m.
func (p PortionSizes) Of(m domain.Macro) float64 {
	switch m {
	case domain.MacroProtein:
		return p.Protein
	case domain.MacroCarbs:
		return p.Carbs
	case domain.MacroFat:
		return p.Fat
	}
	return 0
}

// Constants are the tables and multipliers used by the calculator.
type Constants struct {
	// ActivityFactors is keyed by tier then training days per week.
	ActivityFactors map[string]map[int]float64
	// LegacyFactors is keyed by the whole activity key.
	LegacyFactors map[string]float64
	DefaultFactor float64

	Thermogenesis float64
	Deficit       float64
	ProteinPerKg  float64
	FatPerKg      float64

	Portions PortionSizes
}

// DefaultConstants returns a fresh copy of the stock tables.
func DefaultConstants() Constants {
	return Constants{
		ActivityFactors: map[string]map[int]float64{
			"sedentary": {3: 1.3, 4: 1.4, 5: 1.5, 6: 1.6},
			"light":     {3: 1.5, 4: 1.6, 5: 1.7, 6: 1.8},
		},
		LegacyFactors: map[string]float64{
			"sedentary": 1.2,
			"light":     1.375,
			"moderate":  1.55,
			"high":      1.725,
			"athlete":   1.9,
		},
		DefaultFactor: 1.3,
		Thermogenesis: 1.10,
		Deficit:       0.70,
		ProteinPerKg:  2.2,
		FatPerKg:      0.9,
		Portions:      PortionSizes{Protein: 10, Carbs: 15, Fat: 5},
	}
}

func (c Constants) clone() Constants {
	out := c
	out.ActivityFactors = make(map[string]map[int]float64, len(c.ActivityFactors))
	for tier, days := range c.ActivityFactors {
		out.ActivityFactors[tier] = maps.Clone(days)
	}
	out.LegacyFactors = maps.Clone(c.LegacyFactors)
	return out
}
