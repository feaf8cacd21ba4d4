package nutrition

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/spf13/cast"

	"alcyxob/nutrition-app/internal/domain"
)

// RawPortion is an unvalidated per-slot budget as submitted by a client.
// Counts may be numbers, numeric strings or garbage.
type RawPortion struct {
	Key          domain.Slot `json:"key"`
	Label        string      `json:"label,omitempty"`
	LeanProtein  any         `json:"leanProtein,omitempty"`
	FattyProtein any         `json:"fattyProtein,omitempty"`
	Carbs        any         `json:"carbs,omitempty"`
	Fats         any         `json:"fats,omitempty"`
}

// MaxPortionCount bounds a single slot count. Larger requests are treated as
// unusable input.
const MaxPortionCount = math.MaxInt32

// DefaultPortions returns the five canonical slots with zero counts.
func DefaultPortions() []domain.PortionBudget {
	out := make([]domain.PortionBudget, 0, len(domain.Slots))
	for _, s := range domain.Slots {
		out = append(out, domain.PortionBudget{Key: s, Label: s.Label()})
	}
	return out
}

// NormalizePortions validates raw overrides on top of previous budgets and
// always returns the five canonical slots in order. Unknown slot keys are
// ignored. A count that is not a finite number in 0..MaxPortionCount keeps
// the base value; fractional counts round up. Normalizing an already normalized list is a
// no-op.
func NormalizePortions(raw []RawPortion, previous []domain.PortionBudget) []domain.PortionBudget {
	base := make(map[domain.Slot]domain.PortionBudget, len(domain.Slots))
	for _, b := range DefaultPortions() {
		base[b.Key] = b
	}
	for _, prev := range previous {
		b, ok := base[prev.Key]
		if !ok {
			continue
		}
		b.LeanProtein = boundCount(prev.LeanProtein)
		b.FattyProtein = boundCount(prev.FattyProtein)
		b.Carbs = boundCount(prev.Carbs)
		b.Fats = boundCount(prev.Fats)
		if strings.TrimSpace(prev.Label) != "" {
			b.Label = prev.Label
		}
		base[prev.Key] = b
	}

	for _, r := range raw {
		b, ok := base[r.Key]
		if !ok {
			continue
		}
		b.LeanProtein = ceilOrBase(r.LeanProtein, b.LeanProtein)
		b.FattyProtein = ceilOrBase(r.FattyProtein, b.FattyProtein)
		b.Carbs = ceilOrBase(r.Carbs, b.Carbs)
		b.Fats = ceilOrBase(r.Fats, b.Fats)
		if strings.TrimSpace(r.Label) != "" {
			b.Label = r.Label
		}
		base[r.Key] = b
	}

	out := make([]domain.PortionBudget, 0, len(domain.Slots))
	for _, s := range domain.Slots {
		out = append(out, base[s])
	}
	return out
}

func ceilOrBase(v any, base int) int {
	switch t := v.(type) {
	case nil, bool:
		return base
	case string:
		if strings.TrimSpace(t) == "" {
			return base
		}
		v = strings.TrimSpace(t)
	case json.Number:
		v = t.String()
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return base
	}
	c := math.Ceil(f)
	if c > MaxPortionCount {
		return base
	}
	return int(c)
}

func boundCount(n int) int {
	return min(max(n, 0), MaxPortionCount)
}

// PortionField names an editable count on a PortionBudget.
type PortionField string

const (
	FieldLeanProtein  PortionField = "leanProtein"
	FieldFattyProtein PortionField = "fattyProtein"
	FieldCarbs        PortionField = "carbs"
	FieldFats         PortionField = "fats"
)

// ParsePortionField validates a field name.
func ParsePortionField(s string) (PortionField, bool) {
	switch f := PortionField(s); f {
	case FieldLeanProtein, FieldFattyProtein, FieldCarbs, FieldFats:
		return f, true
	}
	return "", false
}

func fieldValue(b domain.PortionBudget, f PortionField) int {
	switch f {
	case FieldLeanProtein:
		return b.LeanProtein
	case FieldFattyProtein:
		return b.FattyProtein
	case FieldCarbs:
		return b.Carbs
	case FieldFats:
		return b.Fats
	}
	return 0
}

// SetField returns b with field f set to v.
func SetField(b domain.PortionBudget, f PortionField, v int) domain.PortionBudget {
	switch f {
	case FieldLeanProtein:
		b.LeanProtein = v
	case FieldFattyProtein:
		b.FattyProtein = v
	case FieldCarbs:
		b.Carbs = v
	case FieldFats:
		b.Fats = v
	}
	return b
}

// MacroPortions is an amount of each macro expressed in portions.
type MacroPortions struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// Get returns the portions of m.
func (p MacroPortions) Get(m domain.Macro) float64 {
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

// DayTargetPortions converts the day gram targets into portions.
func DayTargetPortions(t domain.PlanTargets, sizes PortionSizes) MacroPortions {
	var out MacroPortions
	if sizes.Protein > 0 {
		out.Protein = float64(t.Protein) / sizes.Protein
	}
	if sizes.Carbs > 0 {
		out.Carbs = float64(t.Carbs) / sizes.Carbs
	}
	if sizes.Fat > 0 {
		out.Fat = float64(t.Fat) / sizes.Fat
	}
	return out
}

// BudgetTotals sums effective per-macro portions over all slots. Fatty protein
// counts toward both protein and fat.
func BudgetTotals(budgets []domain.PortionBudget) MacroPortions {
	var out MacroPortions
	for _, b := range budgets {
		out.Protein += float64(b.Target(domain.MacroProtein))
		out.Carbs += float64(b.Target(domain.MacroCarbs))
		out.Fat += float64(b.Target(domain.MacroFat))
	}
	return out
}

// ClampPortion bounds a requested change to one slot field so the budgets
// never sum past the day target in portions. Decreases pass through, floored
// at zero. An increase that would exceed the target is cut to what is left,
// but never below the current value.
func ClampPortion(budgets []domain.PortionBudget, t domain.PlanTargets, sizes PortionSizes, slot domain.Slot, field PortionField, desired int) int {
	desired = max(desired, 0)
	idx := -1
	for i, b := range budgets {
		if b.Key == slot {
			idx = i
			break
		}
	}
	if idx < 0 {
		return desired
	}
	cur := budgets[idx]
	current := fieldValue(cur, field)
	if desired <= current {
		return desired
	}

	targets := DayTargetPortions(t, sizes)
	totals := BudgetTotals(budgets)

	var allowed float64
	switch field {
	case FieldLeanProtein:
		others := totals.Protein - float64(cur.LeanProtein+cur.FattyProtein)
		allowed = targets.Protein - others - float64(cur.FattyProtein)
	case FieldFattyProtein:
		others := totals.Protein - float64(cur.LeanProtein+cur.FattyProtein)
		allowed = targets.Protein - others - float64(cur.LeanProtein)
	case FieldCarbs:
		others := totals.Carbs - float64(cur.Carbs)
		allowed = targets.Carbs - others
	case FieldFats:
		others := totals.Fat - float64(cur.Fats+cur.FattyProtein)
		allowed = targets.Fat - others - float64(cur.FattyProtein)
	default:
		return desired
	}

	limit := int(math.Floor(math.Max(0, allowed)))
	if limit <= current {
		return current
	}
	return min(desired, limit)
}

// SlotBudgetSummary is one slot of a BudgetSummary.
type SlotBudgetSummary struct {
	Key      domain.Slot       `json:"key"`
	Label    string            `json:"label"`
	Portions MacroPortions     `json:"portions"`
	Grams    domain.MacroGrams `json:"grams"`
	Kcal     float64           `json:"kcal"`
}

// BudgetSummary reports how much of the day target the budgets cover.
type BudgetSummary struct {
	Slots   []SlotBudgetSummary `json:"slots"`
	Totals  MacroPortions       `json:"totals"`
	Targets MacroPortions       `json:"targets"`
	Diff    MacroPortions       `json:"diff"` // targets minus totals
	Kcal    float64             `json:"kcal"`
}

// SummarizeBudgets computes grams and kcal per slot plus the gap to the day
// targets.
func SummarizeBudgets(budgets []domain.PortionBudget, t domain.PlanTargets, sizes PortionSizes) BudgetSummary {
	sum := BudgetSummary{
		Targets: DayTargetPortions(t, sizes),
		Totals:  BudgetTotals(budgets),
	}
	for _, b := range budgets {
		p := MacroPortions{
			Protein: float64(b.Target(domain.MacroProtein)),
			Carbs:   float64(b.Target(domain.MacroCarbs)),
			Fat:     float64(b.Target(domain.MacroFat)),
		}
		g := domain.MacroGrams{
			Protein: p.Protein * sizes.Protein,
			Carbs:   p.Carbs * sizes.Carbs,
			Fat:     p.Fat * sizes.Fat,
		}
		kcal := g.Protein*4 + g.Carbs*4 + g.Fat*9
		sum.Slots = append(sum.Slots, SlotBudgetSummary{
			Key:      b.Key,
			Label:    b.Label,
			Portions: p,
			Grams:    g,
			Kcal:     kcal,
		})
		sum.Kcal += kcal
	}
	sum.Diff = MacroPortions{
		Protein: Round1(sum.Targets.Protein - sum.Totals.Protein),
		Carbs:   Round1(sum.Targets.Carbs - sum.Totals.Carbs),
		Fat:     Round1(sum.Targets.Fat - sum.Totals.Fat),
	}
	return sum
}
