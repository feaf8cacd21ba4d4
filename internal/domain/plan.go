package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Slot is one of the fixed meal times of the base day.
type Slot string

const (
	SlotBreakfast  Slot = "breakfast"
	SlotMidMorning Slot = "mid_morning"
	SlotLunch      Slot = "lunch"
	SlotSnack      Slot = "snack"
	SlotDinner     Slot = "dinner"
)

// Slots lists the meal slots in canonical order.
var Slots = []Slot{SlotBreakfast, SlotMidMorning, SlotLunch, SlotSnack, SlotDinner}

var slotLabels = map[Slot]string{
	SlotBreakfast:  "Breakfast",
	SlotMidMorning: "Mid-morning",
	SlotLunch:      "Lunch",
	SlotSnack:      "Snack",
	SlotDinner:     "Dinner",
}

// Valid reports whether s is one of the canonical slots.
func (s Slot) Valid() bool {
	_, ok := slotLabels[s]
	return ok
}

// Label returns the default display label.
func (s Slot) Label() string {
	return slotLabels[s]
}

// Macro names a macronutrient bucket.
type Macro string

const (
	MacroProtein Macro = "protein"
	MacroCarbs   Macro = "carbs"
	MacroFat     Macro = "fat"
)

// Macros lists the tracked macronutrients.
var Macros = []Macro{MacroProtein, MacroCarbs, MacroFat}

// ParseMacro accepts "protein", "carbs" and "fat" (or "fats").
func ParseMacro(s string) (Macro, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "protein":
		return MacroProtein, true
	case "carbs":
		return MacroCarbs, true
	case "fat", "fats":
		return MacroFat, true
	}
	return "", false
}

// MacroGrams are grams of each macronutrient.
type MacroGrams struct {
	Protein float64 `bson:"protein" json:"protein"`
	Carbs   float64 `bson:"carbs" json:"carbs"`
	Fat     float64 `bson:"fat" json:"fat"`
}

// Get returns the grams for m.
func (g MacroGrams) Get(m Macro) float64 {
	switch m {
	case MacroProtein:
		return g.Protein
	case MacroCarbs:
		return g.Carbs
	case MacroFat:
		return g.Fat
	}
	return 0
}

// Totals is a kcal + macro rollup.
type Totals struct {
	Kcal    float64 `bson:"kcal" json:"kcal"`
	Carbs   float64 `bson:"carbs" json:"carbs"`
	Protein float64 `bson:"protein" json:"protein"`
	Fat     float64 `bson:"fat" json:"fat"`
}

// Add returns t + o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Kcal:    t.Kcal + o.Kcal,
		Carbs:   t.Carbs + o.Carbs,
		Protein: t.Protein + o.Protein,
		Fat:     t.Fat + o.Fat,
	}
}

// Scale returns t multiplied by n.
func (t Totals) Scale(n float64) Totals {
	return Totals{Kcal: t.Kcal * n, Carbs: t.Carbs * n, Protein: t.Protein * n, Fat: t.Fat * n}
}

// Macros drops the kcal component.
func (t Totals) Macros() MacroGrams {
	return MacroGrams{Protein: t.Protein, Carbs: t.Carbs, Fat: t.Fat}
}

// PlanTargets is the daily calorie/macro target with the intermediate values
// the calculator went through.
type PlanTargets struct {
	Kcal    int `bson:"kcal" json:"kcal"`
	Carbs   int `bson:"carbs" json:"carbs"`
	Protein int `bson:"protein" json:"protein"`
	Fat     int `bson:"fat" json:"fat"`

	BMRMifflin           int     `bson:"bmrMifflin" json:"bmrMifflin"`
	BMRHarrisBenedict    int     `bson:"bmrHarrisBenedict" json:"bmrHarrisBenedict"`
	BMRAverage           int     `bson:"bmrAverage" json:"bmrAverage"`
	ActivityFactor       float64 `bson:"activityFactor" json:"activityFactor"`
	ActivityAdjustedKcal int     `bson:"activityAdjustedKcal" json:"activityAdjustedKcal"`
	ThermogenesisKcal    int     `bson:"thermogenesisKcal" json:"thermogenesisKcal"`
	FinalPlanKcal        int     `bson:"finalPlanKcal" json:"finalPlanKcal"`
}

// Grams returns the day target for m in grams.
func (p PlanTargets) Grams(m Macro) float64 {
	switch m {
	case MacroProtein:
		return float64(p.Protein)
	case MacroCarbs:
		return float64(p.Carbs)
	case MacroFat:
		return float64(p.Fat)
	}
	return 0
}

// PortionBudget is the advisory number of portions per macro class for one slot.
type PortionBudget struct {
	Key          Slot   `bson:"key" json:"key"`
	Label        string `bson:"label" json:"label"`
	LeanProtein  int    `bson:"leanProtein" json:"leanProtein"`
	FattyProtein int    `bson:"fattyProtein" json:"fattyProtein"`
	Carbs        int    `bson:"carbs" json:"carbs"`
	Fats         int    `bson:"fats" json:"fats"` // extra fat only; fatty protein is counted separately
}

// Target returns the effective portion target for m. A fatty-protein portion
// counts against both protein and fat.
func (b PortionBudget) Target(m Macro) int {
	switch m {
	case MacroProtein:
		return b.LeanProtein + b.FattyProtein
	case MacroCarbs:
		return b.Carbs
	case MacroFat:
		return b.Fats + b.FattyProtein
	}
	return 0
}

// Plan is the persisted 1:1 plan record of a user.
type Plan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	PlanTargets  `bson:",inline"`
	MealPortions []PortionBudget `bson:"mealPortions" json:"mealPortions"`
	CreatedAt    time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt" json:"updatedAt"`
}
