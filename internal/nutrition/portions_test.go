package nutrition_test

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/nutrition"
)

func TestNormalizePortionsCanonicalShape(t *testing.T) {
	t.Parallel()

	got := nutrition.NormalizePortions([]nutrition.RawPortion{
		{Key: "dinner", Carbs: 2},
		{Key: "brunch", Carbs: 9},
	}, nil)

	if len(got) != len(domain.Slots) {
		t.Fatalf("expected %d slots, got %d", len(domain.Slots), len(got))
	}
	for i, s := range domain.Slots {
		if got[i].Key != s {
			t.Fatalf("slot %d: expected %s, got %s", i, s, got[i].Key)
		}
		if got[i].Label == "" {
			t.Fatalf("slot %s has no label", s)
		}
	}
	if got[4].Carbs != 2 {
		t.Fatalf("expected dinner carbs 2, got %d", got[4].Carbs)
	}
}

func TestNormalizePortionsCeilingOrFallback(t *testing.T) {
	t.Parallel()

	previous := []domain.PortionBudget{{Key: domain.SlotLunch, LeanProtein: 3, FattyProtein: 1, Carbs: 4, Fats: 2}}
	got := nutrition.NormalizePortions([]nutrition.RawPortion{{
		Key:          domain.SlotLunch,
		LeanProtein:  "2.1",
		FattyProtein: -1,
		Carbs:        math.NaN(),
		Fats:         "lots",
	}}, previous)

	lunch := got[2]
	want := domain.PortionBudget{Key: domain.SlotLunch, Label: domain.SlotLunch.Label(), LeanProtein: 3, FattyProtein: 1, Carbs: 4, Fats: 2}
	if lunch != want {
		t.Fatalf("unexpected lunch budget:\n got %+v\nwant %+v", lunch, want)
	}

	got = nutrition.NormalizePortions([]nutrition.RawPortion{{
		Key:          domain.SlotLunch,
		LeanProtein:  true,
		FattyProtein: "",
		Carbs:        0.2,
		Fats:         nil,
	}}, previous)
	lunch = got[2]
	if lunch.LeanProtein != 3 || lunch.FattyProtein != 1 || lunch.Carbs != 1 || lunch.Fats != 2 {
		t.Fatalf("unexpected lunch budget: %+v", lunch)
	}
}

func TestNormalizePortionsFromJSON(t *testing.T) {
	t.Parallel()

	var raw []nutrition.RawPortion
	body := `[{"key":"breakfast","label":"Early","leanProtein":1.5,"carbs":"3","fats":null}]`
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := nutrition.NormalizePortions(raw, nil)
	want := domain.PortionBudget{Key: domain.SlotBreakfast, Label: "Early", LeanProtein: 2, Carbs: 3}
	if got[0] != want {
		t.Fatalf("got %+v want %+v", got[0], want)
	}
}

func rawOf(budgets []domain.PortionBudget) []nutrition.RawPortion {
	out := make([]nutrition.RawPortion, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, nutrition.RawPortion{
			Key:          b.Key,
			Label:        b.Label,
			LeanProtein:  b.LeanProtein,
			FattyProtein: b.FattyProtein,
			Carbs:        b.Carbs,
			Fats:         b.Fats,
		})
	}
	return out
}

func TestNormalizePortionsRejectsOversizedCounts(t *testing.T) {
	t.Parallel()

	previous := []domain.PortionBudget{{Key: domain.SlotLunch, Carbs: 4, Fats: math.MaxInt}}
	got := nutrition.NormalizePortions([]nutrition.RawPortion{{
		Key:          domain.SlotLunch,
		LeanProtein:  float64(nutrition.MaxPortionCount),
		FattyProtein: 1e300,
		Carbs:        "1e30",
	}}, previous)

	lunch := got[2]
	if lunch.LeanProtein != nutrition.MaxPortionCount {
		t.Fatalf("expected lean protein at the cap, got %d", lunch.LeanProtein)
	}
	if lunch.FattyProtein != 0 || lunch.Carbs != 4 {
		t.Fatalf("oversized counts should keep the base value, got %+v", lunch)
	}
	if lunch.Fats != nutrition.MaxPortionCount {
		t.Fatalf("stored fats should be bounded, got %d", lunch.Fats)
	}
	for _, b := range got {
		if b.LeanProtein < 0 || b.FattyProtein < 0 || b.Carbs < 0 || b.Fats < 0 {
			t.Fatalf("negative count in %+v", b)
		}
	}
}

func TestNormalizePortionsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := [][]nutrition.RawPortion{
		nil,
		{{Key: "snack", LeanProtein: 1.2, Carbs: "7.9", Fats: -3}},
		{{Key: "breakfast", FattyProtein: 2}, {Key: "dinner", Label: "Late", Carbs: 5}},
	}
	for _, raw := range inputs {
		once := nutrition.NormalizePortions(raw, nil)
		twice := nutrition.NormalizePortions(rawOf(once), nil)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("not idempotent:\n once %+v\ntwice %+v", once, twice)
		}
		kept := nutrition.NormalizePortions(nil, once)
		if !reflect.DeepEqual(once, kept) {
			t.Fatalf("previous not preserved:\n once %+v\n kept %+v", once, kept)
		}
	}
}

func TestClampPortion(t *testing.T) {
	t.Parallel()

	sizes := nutrition.DefaultConstants().Portions
	targets := domain.PlanTargets{Protein: 100, Carbs: 150, Fat: 50} // 10, 10, 10 portions
	budgets := nutrition.NormalizePortions([]nutrition.RawPortion{
		{Key: "breakfast", LeanProtein: 3, FattyProtein: 1, Carbs: 4, Fats: 2},
		{Key: "lunch", LeanProtein: 4, Carbs: 4, Fats: 3},
	}, nil)

	// Protein used: 3+1+4 = 8, so breakfast lean may grow to 3 + 2 = 5.
	if got := nutrition.ClampPortion(budgets, targets, sizes, domain.SlotBreakfast, nutrition.FieldLeanProtein, 9); got != 5 {
		t.Fatalf("lean clamp: expected 5, got %d", got)
	}
	// Carbs used 8 of 10.
	if got := nutrition.ClampPortion(budgets, targets, sizes, domain.SlotLunch, nutrition.FieldCarbs, 7); got != 6 {
		t.Fatalf("carbs clamp: expected 6, got %d", got)
	}
	// Fat used: breakfast 2+1, lunch 3 -> 6 of 10; lunch fats may reach 7.
	if got := nutrition.ClampPortion(budgets, targets, sizes, domain.SlotLunch, nutrition.FieldFats, 20); got != 7 {
		t.Fatalf("fats clamp: expected 7, got %d", got)
	}
	// Decreases pass through.
	if got := nutrition.ClampPortion(budgets, targets, sizes, domain.SlotLunch, nutrition.FieldCarbs, 1); got != 1 {
		t.Fatalf("decrease: expected 1, got %d", got)
	}
	if got := nutrition.ClampPortion(budgets, targets, sizes, domain.SlotLunch, nutrition.FieldCarbs, -5); got != 0 {
		t.Fatalf("negative: expected 0, got %d", got)
	}
}

func TestClampPortionNeverBelowCurrent(t *testing.T) {
	t.Parallel()

	sizes := nutrition.DefaultConstants().Portions
	targets := domain.PlanTargets{Protein: 20} // 2 portions
	budgets := nutrition.NormalizePortions([]nutrition.RawPortion{{Key: "dinner", LeanProtein: 4}}, nil)
	if got := nutrition.ClampPortion(budgets, targets, sizes, domain.SlotDinner, nutrition.FieldLeanProtein, 6); got != 4 {
		t.Fatalf("expected current value 4, got %d", got)
	}
}

func TestSummarizeBudgets(t *testing.T) {
	t.Parallel()

	sizes := nutrition.DefaultConstants().Portions
	targets := domain.PlanTargets{Protein: 100, Carbs: 150, Fat: 50}
	budgets := nutrition.NormalizePortions([]nutrition.RawPortion{
		{Key: "breakfast", LeanProtein: 1, FattyProtein: 1, Carbs: 2, Fats: 1},
	}, nil)

	sum := nutrition.SummarizeBudgets(budgets, targets, sizes)
	b := sum.Slots[0]
	if b.Grams != (domain.MacroGrams{Protein: 20, Carbs: 30, Fat: 10}) {
		t.Fatalf("unexpected grams: %+v", b.Grams)
	}
	// 20*4 + 30*4 + 10*9
	if b.Kcal != 290 || sum.Kcal != 290 {
		t.Fatalf("unexpected kcal: slot %v total %v", b.Kcal, sum.Kcal)
	}
	if sum.Diff != (nutrition.MacroPortions{Protein: 8, Carbs: 8, Fat: 8}) {
		t.Fatalf("unexpected diff: %+v", sum.Diff)
	}
}
