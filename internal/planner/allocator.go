// Package planner allocates food against per-slot portion budgets and runs
// the weekly adherence checklist.
package planner

import (
	"math"

	"alcyxob/nutrition-app/internal/apperr"
	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/nutrition"
)

var (
	ErrPlanLocked     = apperr.Precondition("PLAN_LOCKED", "day plan is locked")
	ErrPlanIncomplete = apperr.Precondition("PLAN_INCOMPLETE", "every slot must be complete before locking")
	ErrMacroSaturated = apperr.Precondition("MACRO_SATURATED", "no portions left for this macro in this slot")
	ErrUnknownSlot    = apperr.Validation("UNKNOWN_SLOT", "unknown meal slot")
	ErrUnknownMacro   = apperr.Validation("UNKNOWN_MACRO", "unknown macro")
	ErrInvalidItem    = apperr.Validation("INVALID_ITEM", "entry item is missing")
	ErrEntryNotFound  = apperr.New(apperr.TypeNotFound, "ENTRY_NOT_FOUND", "entry not found in slot")
)

// Remaining is the capacity left for one macro in one slot.
type Remaining struct {
	Portions int     `json:"portions"` // whole portions still available
	Exact    float64 `json:"exact"`    // portions, one decimal
	Grams    float64 `json:"grams"`    // one decimal
}

// Allocator places entries into meal slots against the slot budgets. It is
// not safe for concurrent use; callers serialize access per user.
type Allocator struct {
	sizes   nutrition.PortionSizes
	targets domain.PlanTargets
	budgets map[domain.Slot]domain.PortionBudget
	plan    domain.DayPlan
	locked  bool
}

// NewAllocator builds an allocator over a copy of plan. Slots that have no
// entry in budgets use the whole day target divided by the portion size.
func NewAllocator(sizes nutrition.PortionSizes, targets domain.PlanTargets, budgets []domain.PortionBudget, plan domain.DayPlan, locked bool) *Allocator {
	a := &Allocator{
		sizes:   sizes,
		targets: targets,
		budgets: make(map[domain.Slot]domain.PortionBudget, len(budgets)),
		plan:    plan.Clone(),
		locked:  locked,
	}
	for _, b := range budgets {
		a.budgets[b.Key] = b
	}
	for _, s := range domain.Slots {
		if _, ok := a.plan[s]; !ok {
			a.plan[s] = nil
		}
	}
	return a
}

// Plan returns a copy of the current day plan.
func (a *Allocator) Plan() domain.DayPlan { return a.plan.Clone() }

// Locked reports the lock flag.
func (a *Allocator) Locked() bool { return a.locked }

// Usage sums the portions consumed in slot.
func (a *Allocator) Usage(slot domain.Slot) nutrition.MacroPortions {
	var u nutrition.MacroPortions
	for _, e := range a.plan[slot] {
		m := e.Item.UnitMacros()
		n := float64(e.Count)
		u.Protein += portionsOf(m.Protein*n, a.sizes.Protein)
		u.Carbs += portionsOf(m.Carbs*n, a.sizes.Carbs)
		u.Fat += portionsOf(m.Fat*n, a.sizes.Fat)
	}
	return u
}

func portionsOf(grams, size float64) float64 {
	if size <= 0 {
		return 0
	}
	return grams / size
}

// Target returns the portion target of macro in slot.
func (a *Allocator) Target(slot domain.Slot, macro domain.Macro) float64 {
	if b, ok := a.budgets[slot]; ok {
		return float64(b.Target(macro))
	}
	return portionsOf(a.targets.Grams(macro), a.sizes.Of(macro))
}

// Remaining returns what is left of macro in slot. Values never go negative.
func (a *Allocator) Remaining(slot domain.Slot, macro domain.Macro) Remaining {
	exact := math.Max(0, nutrition.Round1(a.Target(slot, macro)-a.Usage(slot).Get(macro)))
	return Remaining{
		Portions: int(math.Floor(exact)),
		Exact:    exact,
		Grams:    nutrition.Round1(exact * a.sizes.Of(macro)),
	}
}

// MacroComplete reports whether no whole portion of macro is left in slot.
func (a *Allocator) MacroComplete(slot domain.Slot, macro domain.Macro) bool {
	return a.Remaining(slot, macro).Portions <= 0
}

// SlotComplete reports whether every macro with a positive target is
// complete in slot.
func (a *Allocator) SlotComplete(slot domain.Slot) bool {
	for _, m := range domain.Macros {
		if a.Target(slot, m) <= 0 {
			continue
		}
		if !a.MacroComplete(slot, m) {
			return false
		}
	}
	return true
}

// Lockable reports whether all slots are complete.
func (a *Allocator) Lockable() bool {
	for _, s := range domain.Slots {
		if !a.SlotComplete(s) {
			return false
		}
	}
	return true
}

// Lock freezes the day plan. Locking an already locked plan is a no-op.
func (a *Allocator) Lock() error {
	if a.locked {
		return nil
	}
	if !a.Lockable() {
		return ErrPlanIncomplete
	}
	a.locked = true
	return nil
}

func (a *Allocator) unlock() { a.locked = false }

func (a *Allocator) checkMutable(slot domain.Slot) error {
	if !slot.Valid() {
		return ErrUnknownSlot.With("slot", string(slot))
	}
	if a.locked {
		return ErrPlanLocked
	}
	return nil
}

// AddEntry places item in slot, bumping the count when the same item is
// already there. Capacity is not checked.
func (a *Allocator) AddEntry(slot domain.Slot, item domain.EntryItem) error {
	if err := a.checkMutable(slot); err != nil {
		return err
	}
	if item == nil {
		return ErrInvalidItem
	}
	a.add(slot, item)
	return nil
}

// AddWithinMacro is the macro-picker path: the add is rejected once the slot
// has no whole portion of macro left.
func (a *Allocator) AddWithinMacro(slot domain.Slot, item domain.EntryItem, macro domain.Macro) error {
	if err := a.checkMutable(slot); err != nil {
		return err
	}
	if item == nil {
		return ErrInvalidItem
	}
	if a.Remaining(slot, macro).Portions <= 0 {
		return ErrMacroSaturated.With("slot", string(slot)).With("macro", string(macro))
	}
	a.add(slot, item)
	return nil
}

func (a *Allocator) add(slot domain.Slot, item domain.EntryItem) {
	ref := domain.DayPlanEntry{Item: item}.Ref()
	entries := a.plan[slot]
	for i := range entries {
		if entries[i].Ref() == ref {
			entries[i].Count++
			return
		}
	}
	a.plan[slot] = append(entries, domain.DayPlanEntry{Count: 1, Item: item})
}

func (a *Allocator) find(slot domain.Slot, ref string) int {
	for i, e := range a.plan[slot] {
		if e.Ref() == ref {
			return i
		}
	}
	return -1
}

// RemoveEntry drops the entry identified by ref from slot.
func (a *Allocator) RemoveEntry(slot domain.Slot, ref string) error {
	if err := a.checkMutable(slot); err != nil {
		return err
	}
	i := a.find(slot, ref)
	if i < 0 {
		return ErrEntryNotFound.With("entry", ref)
	}
	entries := a.plan[slot]
	a.plan[slot] = append(entries[:i:i], entries[i+1:]...)
	return nil
}

// UpdateCount adds delta to the entry count, never going below 1. It is not
// capacity-gated.
func (a *Allocator) UpdateCount(slot domain.Slot, ref string, delta int) error {
	if err := a.checkMutable(slot); err != nil {
		return err
	}
	i := a.find(slot, ref)
	if i < 0 {
		return ErrEntryNotFound.With("entry", ref)
	}
	a.plan[slot][i].Count = max(1, a.plan[slot][i].Count+delta)
	return nil
}

// DayTotals sums kcal and macros over all slots.
func (a *Allocator) DayTotals() domain.Totals {
	var t domain.Totals
	for _, s := range domain.Slots {
		for _, e := range a.plan[s] {
			t = t.Add(e.Totals())
		}
	}
	return t
}

// MenuTotals scales the day totals to a menu of days.
func (a *Allocator) MenuTotals(days int) domain.Totals {
	return a.DayTotals().Scale(float64(days))
}

// TargetDiff compares one day total with its plan target. Key is "kcal" or a
// macro name.
type TargetDiff struct {
	Key    string     `json:"key"`
	Actual float64    `json:"actual"`
	Target float64    `json:"target"`
	Diff   float64    `json:"diff"`
	Status DiffStatus `json:"status"`
}

// TargetDiffs compares the day totals with the plan targets, kcal first.
func (a *Allocator) TargetDiffs() []TargetDiff {
	totals := a.DayTotals()
	pairs := []struct {
		key            string
		actual, target float64
	}{
		{"kcal", totals.Kcal, float64(a.targets.Kcal)},
		{string(domain.MacroProtein), totals.Protein, float64(a.targets.Protein)},
		{string(domain.MacroCarbs), totals.Carbs, float64(a.targets.Carbs)},
		{string(domain.MacroFat), totals.Fat, float64(a.targets.Fat)},
	}
	out := make([]TargetDiff, 0, len(pairs))
	for _, p := range pairs {
		status, diff := DescribeDiff(p.actual, p.target)
		out = append(out, TargetDiff{
			Key:    p.key,
			Actual: nutrition.Round1(p.actual),
			Target: p.target,
			Diff:   diff,
			Status: status,
		})
	}
	return out
}

// MacroStatus is the per-macro state of a slot.
type MacroStatus struct {
	Macro     domain.Macro `json:"macro"`
	Usage     float64      `json:"usage"`
	Target    float64      `json:"target"`
	Remaining Remaining    `json:"remaining"`
	Complete  bool         `json:"complete"`
}

// SlotView is a read model of one slot.
type SlotView struct {
	Slot     domain.Slot           `json:"slot"`
	Label    string                `json:"label"`
	Entries  []domain.DayPlanEntry `json:"entries"`
	Macros   []MacroStatus         `json:"macros"`
	Complete bool                  `json:"complete"`
}

// SlotView describes slot for display.
func (a *Allocator) SlotView(slot domain.Slot) SlotView {
	label := slot.Label()
	if b, ok := a.budgets[slot]; ok && b.Label != "" {
		label = b.Label
	}
	usage := a.Usage(slot)
	v := SlotView{
		Slot:     slot,
		Label:    label,
		Entries:  append([]domain.DayPlanEntry{}, a.plan[slot]...),
		Complete: a.SlotComplete(slot),
	}
	for _, m := range domain.Macros {
		v.Macros = append(v.Macros, MacroStatus{
			Macro:     m,
			Usage:     nutrition.Round1(usage.Get(m)),
			Target:    nutrition.Round1(a.Target(slot, m)),
			Remaining: a.Remaining(slot, m),
			Complete:  a.MacroComplete(slot, m),
		})
	}
	return v
}

// DominantMacro classifies an item by its largest macro. ok is false when
// the item carries no macros.
func DominantMacro(item domain.EntryItem) (domain.Macro, bool) {
	m := item.UnitMacros()
	best, val := domain.MacroProtein, m.Protein
	if m.Carbs > val {
		best, val = domain.MacroCarbs, m.Carbs
	}
	if m.Fat > val {
		best, val = domain.MacroFat, m.Fat
	}
	return best, val > 0
}

// FilterByMacro keeps the ingredients that carry macro and nothing else.
func FilterByMacro(items []domain.IngredientItem, macro domain.Macro) []domain.IngredientItem {
	var out []domain.IngredientItem
	for _, it := range items {
		m := it.Macros
		var keep bool
		switch macro {
		case domain.MacroProtein:
			keep = m.Protein > 0 && m.Carbs == 0 && m.Fat == 0
		case domain.MacroCarbs:
			keep = m.Carbs > 0 && m.Protein == 0 && m.Fat == 0
		case domain.MacroFat:
			keep = m.Fat > 0 && m.Protein == 0 && m.Carbs == 0
		}
		if keep {
			out = append(out, it)
		}
	}
	return out
}

// DiffStatus compares an actual gram amount with a target.
type DiffStatus string

const (
	DiffInRange DiffStatus = "in_range"
	DiffBelow   DiffStatus = "below"
	DiffAbove   DiffStatus = "above"
)

// DescribeDiff reports the gap between actual and target, one decimal.
// Differences under one gram count as in range.
func DescribeDiff(actual, target float64) (DiffStatus, float64) {
	diff := nutrition.Round1(actual - target)
	switch {
	case math.Abs(diff) < 1:
		return DiffInRange, diff
	case diff < 0:
		return DiffBelow, diff
	}
	return DiffAbove, diff
}
