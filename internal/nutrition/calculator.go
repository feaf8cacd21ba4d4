package nutrition

import (
	"math"
	"strconv"
	"strings"

	"alcyxob/nutrition-app/internal/domain"
)

// Profile defaults used for missing or unusable inputs.
const (
	DefaultAge           = 30
	DefaultWeight        = 70
	DefaultHeight        = 170
	DefaultActivityLevel = "sedentary_3"
	DefaultTrainingDays  = 3
)

// Calculator computes PlanTargets from a profile. It is safe for concurrent
// use; its constants are copied at construction and never change.
type Calculator struct {
	c Constants
}

// NewCalculator returns a calculator bound to a copy of c.
func NewCalculator(c Constants) *Calculator {
	return &Calculator{c: c.clone()}
}

// Constants returns a copy of the constants in use.
func (calc *Calculator) Constants() Constants {
	return calc.c.clone()
}

// Compute derives the daily targets. It never fails: unusable inputs fall back
// to the defaults. Targets saturate at MaxTarget and never go below zero.
func (calc *Calculator) Compute(p domain.Profile) domain.PlanTargets {
	age := orDefault(p.Age, DefaultAge)
	weight := orDefault(p.Weight, DefaultWeight)
	height := orDefault(p.Height, DefaultHeight)
	female := p.Sex == domain.SexFemale

	mifflin := 10*weight + 6.25*height - 5*age + 5
	harris := 88.362 + 13.397*weight + 4.799*height - 5.677*age
	if female {
		mifflin = 10*weight + 6.25*height - 5*age - 161
		harris = 447.593 + 9.247*weight + 3.098*height - 4.33*age
	}
	avg := (mifflin + harris) / 2

	factor := calc.ActivityFactor(p.ActivityLevel, p.TrainingDays)
	activity := avg * factor
	thermo := activity * calc.c.Thermogenesis
	final := thermo * calc.c.Deficit

	kcal := Round(final)
	protein := Round(weight * calc.c.ProteinPerKg)
	fat := Round(weight * calc.c.FatPerKg)
	carbs := math.Max(0, Round((kcal-(protein*4+fat*9))/4))

	return domain.PlanTargets{
		Kcal:                 toCount(kcal),
		Carbs:                toCount(carbs),
		Protein:              toCount(protein),
		Fat:                  toCount(fat),
		BMRMifflin:           toInt(Round(mifflin)),
		BMRHarrisBenedict:    toInt(Round(harris)),
		BMRAverage:           toInt(Round(avg)),
		ActivityFactor:       factor,
		ActivityAdjustedKcal: toInt(Round(activity)),
		ThermogenesisKcal:    toInt(Round(thermo)),
		FinalPlanKcal:        toInt(Round(final)),
	}
}

// ActivityFactor resolves an activity key. "<tier>_<days>" keys are looked up
// in the two-key table, with days taken from the key when numeric and from
// trainingDays otherwise. Keys missing from that table fall back to the legacy
// single-key table and then to the default factor.
func (calc *Calculator) ActivityFactor(level string, trainingDays int) float64 {
	level = strings.TrimSpace(level)
	if level == "" {
		level = DefaultActivityLevel
	}
	if trainingDays <= 0 {
		trainingDays = DefaultTrainingDays
	}

	tier, daysPart, _ := strings.Cut(level, "_")
	days := trainingDays
	if n, err := strconv.Atoi(daysPart); err == nil {
		days = n
	}

	table, ok := calc.c.ActivityFactors[tier]
	if !ok {
		table = calc.c.ActivityFactors[level]
	}
	if f, ok := table[days]; ok {
		return f
	}
	if f, ok := calc.c.LegacyFactors[level]; ok {
		return f
	}
	return calc.c.DefaultFactor
}

func orDefault(v, def float64) float64 {
	if finitePositive(v) {
		return v
	}
	return def
}
