package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"alcyxob/nutrition-app/internal/adherence"
	"alcyxob/nutrition-app/internal/apperr"
	"alcyxob/nutrition-app/internal/config"
	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/nutrition"
	"alcyxob/nutrition-app/internal/planner"
	"alcyxob/nutrition-app/internal/repository"
	"alcyxob/nutrition-app/internal/service"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type harness struct {
	users     *memUsers
	profiles  *memProfiles
	plans     *memPlans
	templates *memTemplates
	meals     *memMeals
	storage   *memStorage
	limits    *memRestrictions

	auth      service.AuthService
	plan      service.PlanService
	meal      service.MealService
	dayPlan   service.DayPlanService
	checklist service.ChecklistService
	admin     service.AdminService
	restrict  service.RestrictionService
}

func newHarness() *harness {
	h := &harness{
		users:     newMemUsers(),
		profiles:  newMemProfiles(),
		plans:     newMemPlans(),
		templates: newMemTemplates(),
		meals:     newMemMeals(),
		storage:   newMemStorage(),
		limits:    newMemRestrictions(),
	}
	calc := nutrition.NewCalculator(nutrition.DefaultConstants())
	sizes := calc.Constants().Portions
	h.auth = service.NewAuthService(h.users, config.AdminConfig{Emails: []string{"Boss@Example.com"}}, "secret", time.Hour)
	h.plan = service.NewPlanService(h.profiles, h.plans, calc)
	h.meal = service.NewMealService(h.meals, testCatalog())
	h.dayPlan = service.NewDayPlanService(h.templates, h.plans, h.meal, sizes)
	h.checklist = service.NewChecklistService(h.templates, h.plans, sizes)
	h.admin = service.NewAdminService(h.users, h.profiles, h.plans, h.templates, h.storage,
		config.AdherenceConfig{RiskThreshold: 0.4, DefaultRangeDays: 7, DetailRangeDays: 30}, 10*time.Minute)
	h.restrict = service.NewRestrictionService(h.limits)
	return h
}

func referenceProfile() domain.Profile {
	return domain.Profile{Age: 30, Weight: 70, Height: 170, Sex: domain.SexMale, ActivityLevel: "sedentary_3", TrainingDays: 3}
}

func intp(v int) *int { return &v }

// lunchOnly gives lunch two protein, one carb and one fat portion and leaves
// every other slot empty.
func lunchOnly() []nutrition.RawPortion {
	return []nutrition.RawPortion{{Key: domain.SlotLunch, LeanProtein: 2, Carbs: 1, Fats: 1}}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()

	user, err := h.auth.Register(ctx, " Ana@Example.com ", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ana@example.com" || user.Role != domain.RoleUser || user.PasswordHash != "" {
		t.Fatalf("unexpected user %+v", user)
	}
	if _, err := h.auth.Register(ctx, "ana@example.com", "other"); !errors.Is(err, service.ErrUserAlreadyExists) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if apperr.TypeOf(service.ErrUserAlreadyExists) != apperr.TypeConflict {
		t.Fatalf("duplicate registration must be a conflict")
	}

	admin, err := h.auth.Register(ctx, "boss@example.com", "password1")
	if err != nil || admin.Role != domain.RoleAdmin {
		t.Fatalf("configured email must become admin, got %+v, %v", admin, err)
	}

	if _, _, err := h.auth.Login(ctx, "ana@example.com", "wrong"); !errors.Is(err, service.ErrAuthenticationFailed) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	token, logged, err := h.auth.Login(ctx, "ANA@example.com", "password1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID {
		t.Fatalf("login returned another user")
	}
	claims := &service.Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(h.auth.GetJWTSecret()), nil
	}); err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.UserID != user.ID.Hex() || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestSaveProfileComputesPlan(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	if _, err := h.plan.GetPlan(ctx, userID); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found before onboarding, got %v", err)
	}
	_, plan, err := h.plan.SaveProfile(ctx, userID, referenceProfile())
	if err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if plan.Kcal != 1646 || plan.Protein != 154 || plan.Carbs != 116 || plan.Fat != 63 {
		t.Fatalf("unexpected targets %+v", plan.PlanTargets)
	}
	if len(plan.MealPortions) != len(domain.Slots) {
		t.Fatalf("expected %d budgets, got %d", len(domain.Slots), len(plan.MealPortions))
	}

	picky := referenceProfile()
	picky.Preferences.RestrictionsDetail = domain.RestrictionsDetail{
		Medical:      []string{" celiac", "celiac", ""},
		Intolerances: []string{"lactose"},
	}
	saved, _, err := h.plan.SaveProfile(ctx, userID, picky)
	if err != nil {
		t.Fatalf("save profile with restrictions: %v", err)
	}
	detail := saved.Preferences.RestrictionsDetail
	if len(detail.Medical) != 1 || detail.Medical[0] != "celiac" || len(detail.Intolerances) != 1 || detail.Ethical == nil {
		t.Fatalf("unexpected restrictions %+v", detail)
	}
	stored, err := h.plan.GetProfile(ctx, userID)
	if err != nil || len(stored.Preferences.RestrictionsDetail.Medical) != 1 {
		t.Fatalf("stored profile %+v, %v", stored, err)
	}

	bad := referenceProfile()
	bad.Weight = -1
	if _, _, err := h.plan.SaveProfile(ctx, userID, bad); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateKeepsBudgetsAndManualOverride(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	plan, err := h.plan.Generate(ctx, userID, nil, lunchOnly())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if plan.Kcal != 1646 {
		t.Fatalf("defaults must apply without a profile, got %d", plan.Kcal)
	}

	p := referenceProfile()
	p.Weight = 80
	plan, err = h.plan.Generate(ctx, userID, &p, nil)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if plan.Protein != 176 {
		t.Fatalf("expected protein 176, got %d", plan.Protein)
	}
	if plan.MealPortions[2].LeanProtein != 2 {
		t.Fatalf("budgets must survive regeneration, got %+v", plan.MealPortions[2])
	}

	plan, err = h.plan.UpdatePlan(ctx, userID, service.ManualPlan{Kcal: intp(2000), Fat: intp(70)})
	if err != nil {
		t.Fatalf("manual update: %v", err)
	}
	if plan.Kcal != 2000 || plan.FinalPlanKcal != 2000 || plan.Fat != 70 || plan.Protein != 176 {
		t.Fatalf("unexpected manual plan %+v", plan.PlanTargets)
	}
	if _, err := h.plan.UpdatePlan(ctx, userID, service.ManualPlan{Carbs: intp(-5)}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdatePortionClampsToDayTarget(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	if _, err := h.plan.Generate(ctx, userID, nil, lunchOnly()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	plan, err := h.plan.UpdatePortion(ctx, userID, domain.SlotLunch, "carbs", 100)
	if err != nil {
		t.Fatalf("update portion: %v", err)
	}
	// 116 g of carbs at 15 g a portion leaves room for 7 whole portions.
	if got := plan.MealPortions[2].Carbs; got != 7 {
		t.Fatalf("expected carbs clamped to 7, got %d", got)
	}
	plan, err = h.plan.UpdatePortion(ctx, userID, domain.SlotLunch, "carbs", 3)
	if err != nil || plan.MealPortions[2].Carbs != 3 {
		t.Fatalf("decreases pass through, got %+v, %v", plan.MealPortions[2], err)
	}

	if _, err := h.plan.UpdatePortion(ctx, userID, "brunch", "carbs", 1); !errors.Is(err, planner.ErrUnknownSlot) {
		t.Fatalf("expected unknown slot, got %v", err)
	}
	if _, err := h.plan.UpdatePortion(ctx, userID, domain.SlotLunch, "sugar", 1); !errors.Is(err, service.ErrUnknownField) {
		t.Fatalf("expected unknown field, got %v", err)
	}

	sum, err := h.plan.PortionSummary(ctx, userID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Totals.Carbs != 3 || sum.Totals.Protein != 2 {
		t.Fatalf("unexpected summary totals %+v", sum.Totals)
	}
}

func TestCreateMealTotals(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	meal, err := h.meal.CreateMeal(ctx, userID, "bowl", []domain.MealIngredient{
		{Name: "rice", Kcal: 200, Carbs: 45, Protein: 4},
		{Name: "tuna", Kcal: 120, Protein: 26, Fat: 1},
	})
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}
	if meal.Totals != (domain.Totals{Kcal: 320, Carbs: 45, Protein: 30, Fat: 1}) {
		t.Fatalf("unexpected totals %+v", meal.Totals)
	}
	if _, err := h.meal.CreateMeal(ctx, userID, "  ", nil); !errors.Is(err, service.ErrMealNameRequired) {
		t.Fatalf("expected name error, got %v", err)
	}
	if _, err := h.meal.GetMeal(ctx, primitive.NewObjectID(), meal.ID); !errors.Is(err, service.ErrMealNotFound) {
		t.Fatalf("meals of other users must not be visible, got %v", err)
	}
	if _, err := h.meal.Ingredient(ctx, "carbs-rice"); err != nil {
		t.Fatalf("catalog lookup: %v", err)
	}
}

func TestReplaceMealIngredients(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	meal, err := h.meal.CreateMeal(ctx, userID, "bowl", []domain.MealIngredient{{Name: "rice", Kcal: 200, Carbs: 45}})
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}
	updated, err := h.meal.ReplaceIngredients(ctx, userID, meal.ID, []domain.MealIngredient{
		{Name: "quinoa", Kcal: 180, Carbs: 30, Protein: 6, Fat: 3},
		{Name: "egg", Kcal: 70, Protein: 6, Fat: 5},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	want := domain.Totals{Kcal: 250, Carbs: 30, Protein: 12, Fat: 8}
	if updated.Totals != want || len(updated.Ingredients) != 2 {
		t.Fatalf("unexpected meal %+v", updated)
	}
	stored, err := h.meal.GetMeal(ctx, userID, meal.ID)
	if err != nil || stored.Totals != want {
		t.Fatalf("stored meal %+v, %v", stored, err)
	}

	cleared, err := h.meal.ReplaceIngredients(ctx, userID, meal.ID, nil)
	if err != nil || cleared.Ingredients == nil || cleared.Totals != (domain.Totals{}) {
		t.Fatalf("clearing: %+v, %v", cleared, err)
	}
	if _, err := h.meal.ReplaceIngredients(ctx, primitive.NewObjectID(), meal.ID, nil); !errors.Is(err, service.ErrMealNotFound) {
		t.Fatalf("foreign meal: got %v", err)
	}
	_, err = h.meal.ReplaceIngredients(ctx, userID, meal.ID, []domain.MealIngredient{{Name: "oil", Fat: -1}})
	if !errors.Is(err, service.ErrNegativeIngredient) {
		t.Fatalf("expected negative ingredient error, got %v", err)
	}
}

func TestRestrictionCatalog(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()

	for _, r := range []domain.Restriction{
		{Name: " lactose ", Category: domain.RestrictionIntolerances},
		{Name: "celiac", Category: domain.RestrictionMedical},
		{Name: "diabetes", Category: domain.RestrictionMedical},
		{Name: "no sugar"},
	} {
		if _, err := h.restrict.Upsert(ctx, r); err != nil {
			t.Fatalf("upsert %q: %v", r.Name, err)
		}
	}
	if _, err := h.restrict.Upsert(ctx, domain.Restriction{Name: "  "}); !errors.Is(err, service.ErrRestrictionNameRequired) {
		t.Fatalf("blank name: got %v", err)
	}
	if _, err := h.restrict.Upsert(ctx, domain.Restriction{Name: "x", Category: "diet"}); !errors.Is(err, service.ErrInvalidRestrictionCategory) {
		t.Fatalf("bad category: got %v", err)
	}

	medical, err := h.restrict.List(ctx, "medical")
	if err != nil || len(medical) != 2 || medical[0].Name != "celiac" {
		t.Fatalf("medical: %+v, %v", medical, err)
	}
	all, err := h.restrict.List(ctx, "")
	if err != nil || len(all) != 4 {
		t.Fatalf("all: %+v, %v", all, err)
	}
	other, _ := h.restrict.List(ctx, "other")
	if len(other) != 1 || other[0].Name != "no sugar" {
		t.Fatalf("missing category should default to other: %+v", other)
	}
	lactose, _ := h.restrict.List(ctx, "intolerances")
	if len(lactose) != 1 || lactose[0].Name != "lactose" {
		t.Fatalf("names should be trimmed: %+v", lactose)
	}
	if _, err := h.restrict.List(ctx, "diet"); !errors.Is(err, service.ErrInvalidRestrictionCategory) {
		t.Fatalf("unknown filter: got %v", err)
	}
}

func TestDayPlanGatedAddAndLock(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	if _, err := h.plan.Generate(ctx, userID, nil, lunchOnly()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	for i := range 2 {
		if _, err := h.dayPlan.AddWithinMacro(ctx, userID, domain.SlotLunch, "protein", "protein-chicken"); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	_, err := h.dayPlan.AddWithinMacro(ctx, userID, domain.SlotLunch, "protein", "protein-chicken")
	if !errors.Is(err, planner.ErrMacroSaturated) {
		t.Fatalf("expected saturation, got %v", err)
	}

	opts, err := h.dayPlan.MacroOptions(ctx, userID, domain.SlotLunch, "protein")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if len(opts) != 1 || opts[0].Item.Key != "protein-chicken" || opts[0].Remaining.Portions != 0 {
		t.Fatalf("unexpected options %+v", opts)
	}

	if _, err := h.dayPlan.Lock(ctx, userID); !errors.Is(err, planner.ErrPlanIncomplete) {
		t.Fatalf("expected incomplete plan, got %v", err)
	}
	for _, key := range []string{"carbs-rice", "fat-oil"} {
		if _, err := h.dayPlan.AddEntry(ctx, userID, domain.SlotLunch, service.EntryRef{Type: domain.KindIngredient, ID: key}); err != nil {
			t.Fatalf("add %s: %v", key, err)
		}
	}
	view, err := h.dayPlan.Lock(ctx, userID)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !view.Locked || view.DayTotals.Kcal != 185 || view.MenuTotals.Kcal != 185*7 {
		t.Fatalf("unexpected view %+v", view)
	}
	if len(view.TargetDiffs) != 4 {
		t.Fatalf("expected four target diffs, got %+v", view.TargetDiffs)
	}
	if d := view.TargetDiffs[0]; d.Key != "kcal" || d.Actual != 185 || d.Target != 1646 || d.Status != planner.DiffBelow {
		t.Fatalf("unexpected kcal diff %+v", d)
	}

	_, err = h.dayPlan.AddEntry(ctx, userID, domain.SlotDinner, service.EntryRef{Type: domain.KindIngredient, ID: "fat-oil"})
	if !errors.Is(err, planner.ErrPlanLocked) {
		t.Fatalf("locked plan must reject edits, got %v", err)
	}
	if _, err := h.dayPlan.SetMenuDays(ctx, userID, 15); !errors.Is(err, planner.ErrPlanLocked) {
		t.Fatalf("locked plan must reject menu days, got %v", err)
	}
}

func TestDayPlanMealEntries(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	if _, err := h.plan.Generate(ctx, userID, nil, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}
	meal, err := h.meal.CreateMeal(ctx, userID, "bowl", []domain.MealIngredient{{Name: "rice", Kcal: 200, Carbs: 45}})
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}
	ref := service.EntryRef{Type: domain.KindMeal, ID: meal.ID.Hex()}
	if _, err := h.dayPlan.AddEntry(ctx, userID, domain.SlotDinner, ref); err != nil {
		t.Fatalf("add meal: %v", err)
	}
	entryRef := "meal:" + meal.ID.Hex()
	view, err := h.dayPlan.UpdateEntryCount(ctx, userID, domain.SlotDinner, entryRef, 2)
	if err != nil {
		t.Fatalf("update count: %v", err)
	}
	if view.DayTotals.Kcal != 600 {
		t.Fatalf("expected 600 kcal, got %v", view.DayTotals.Kcal)
	}
	view, err = h.dayPlan.RemoveEntry(ctx, userID, domain.SlotDinner, entryRef)
	if err != nil || view.DayTotals.Kcal != 0 {
		t.Fatalf("remove: %+v, %v", view, err)
	}
	if _, err := h.dayPlan.RemoveEntry(ctx, userID, domain.SlotDinner, entryRef); !errors.Is(err, planner.ErrEntryNotFound) {
		t.Fatalf("expected missing entry, got %v", err)
	}
	if _, err := h.dayPlan.AddEntry(ctx, userID, domain.SlotDinner, service.EntryRef{Type: domain.KindMeal, ID: "nope"}); !errors.Is(err, service.ErrInvalidMealID) {
		t.Fatalf("expected invalid id, got %v", err)
	}
	view, err = h.dayPlan.SetMenuDays(ctx, userID, 15)
	if err != nil || view.MenuDays != 15 {
		t.Fatalf("menu days: %+v, %v", view, err)
	}
}

func TestDayPlanConflictIsReported(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	if _, err := h.plan.Generate(ctx, userID, nil, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}
	h.templates.failNext = repository.ErrConflict
	_, err := h.dayPlan.AddEntry(ctx, userID, domain.SlotLunch, service.EntryRef{Type: domain.KindIngredient, ID: "fat-oil"})
	if !errors.Is(err, service.ErrTemplateConflict) || !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("conflict must wrap the repository error")
	}
}

func TestChecklistWeek(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	if _, err := h.plan.Generate(ctx, userID, nil, lunchOnly()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, key := range []string{"protein-chicken", "protein-chicken", "carbs-rice", "fat-oil"} {
		if _, err := h.dayPlan.AddEntry(ctx, userID, domain.SlotLunch, service.EntryRef{Type: domain.KindIngredient, ID: key}); err != nil {
			t.Fatalf("add %s: %v", key, err)
		}
	}
	if _, err := h.dayPlan.Lock(ctx, userID); err != nil {
		t.Fatalf("lock: %v", err)
	}

	if _, err := h.checklist.MarkDay(ctx, userID, 0, 70); !errors.Is(err, planner.ErrStartDayRequired) {
		t.Fatalf("expected start day required, got %v", err)
	}
	view, err := h.checklist.SetStartDay(ctx, userID, domain.Weekday("wednesday"))
	if err != nil {
		t.Fatalf("start day: %v", err)
	}
	if view.Days[0].Day != "wednesday" || view.Phase != domain.PhaseRunning {
		t.Fatalf("unexpected view %+v", view)
	}
	if _, err := h.checklist.ResetWeek(ctx, userID); !errors.Is(err, planner.ErrWeekIncomplete) {
		t.Fatalf("expected incomplete week, got %v", err)
	}
	for i := range domain.DaysPerWeek {
		if view, err = h.checklist.MarkDay(ctx, userID, i, 70+float64(i)/10); err != nil {
			t.Fatalf("mark %d: %v", i, err)
		}
	}
	if view.Phase != domain.PhaseComplete || view.Progress.Percent != 100 {
		t.Fatalf("unexpected complete view %+v", view)
	}
	if _, err := h.checklist.SetStartDay(ctx, userID, "monday"); !errors.Is(err, planner.ErrStartDayLocked) {
		t.Fatalf("expected locked start day, got %v", err)
	}

	rec, err := h.checklist.ResetWeek(ctx, userID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if rec.WeeklyKcal != 185*7 || rec.PlanMacros.Kcal != 185 {
		t.Fatalf("unexpected record %+v", rec)
	}
	dp, err := h.dayPlan.GetDayPlan(ctx, userID)
	if err != nil || dp.Locked {
		t.Fatalf("reset must unlock the day plan: %+v, %v", dp, err)
	}
	view, err = h.checklist.GetChecklist(ctx, userID)
	if err != nil || view.Phase != domain.PhaseEmpty || view.WeeksArchived != 1 {
		t.Fatalf("unexpected view after reset %+v, %v", view, err)
	}
	weeks, err := h.checklist.Comparisons(ctx, userID)
	if err != nil || len(weeks) != 1 || weeks[0].WeeklyKcal != 1295 {
		t.Fatalf("unexpected comparisons %+v, %v", weeks, err)
	}
}

func TestAdminSummaryDetailAndExport(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()

	active, err := h.auth.Register(ctx, "active@example.com", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	idle, err := h.auth.Register(ctx, "idle@example.com", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, id := range []primitive.ObjectID{active.ID, idle.ID} {
		if _, err := h.plan.Generate(ctx, id, nil, nil); err != nil {
			t.Fatalf("generate: %v", err)
		}
	}
	if _, err := h.checklist.SetStartDay(ctx, active.ID, "monday"); err != nil {
		t.Fatalf("start day: %v", err)
	}
	for i := range 5 {
		if _, err := h.checklist.MarkDay(ctx, active.ID, i, 70); err != nil {
			t.Fatalf("mark: %v", err)
		}
	}

	report, err := h.admin.Summary(ctx, service.WindowQuery{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if report.Users != 2 || report.AtRisk != 1 || report.AverageAdherence != 0.71 {
		t.Fatalf("unexpected report %+v", report)
	}

	detail, err := h.admin.UserDetail(ctx, active.ID, service.WindowQuery{})
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Band != adherence.BandHigh || detail.AtRisk || len(detail.Activity) != 1 || detail.Activity[0].Done != 5 {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if detail.User.PasswordHash != "" {
		t.Fatalf("password hash leaked")
	}
	detail, err = h.admin.UserDetail(ctx, idle.ID, service.WindowQuery{})
	if err != nil || !detail.AtRisk || detail.Sample.Source != adherence.SourceNone {
		t.Fatalf("idle user must be at risk: %+v, %v", detail, err)
	}
	if _, err := h.admin.UserDetail(ctx, primitive.NewObjectID(), service.WindowQuery{}); !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	if _, err := h.admin.Summary(ctx, service.WindowQuery{DateFrom: "yesterday"}); !errors.Is(err, adherence.ErrInvalidWindow) {
		t.Fatalf("expected invalid window, got %v", err)
	}

	export, err := h.admin.ExportReport(ctx, service.WindowQuery{Range: "30"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(export.ObjectKey, "reports/") || !strings.HasSuffix(export.DownloadURL, export.ObjectKey) {
		t.Fatalf("unexpected export %+v", export)
	}
	var stored adherence.CohortReport
	if err := json.Unmarshal(h.storage.objects[export.ObjectKey], &stored); err != nil {
		t.Fatalf("stored report is not json: %v", err)
	}
	if stored.Users != 2 {
		t.Fatalf("unexpected stored report %+v", stored)
	}
}

func TestAdminListUsersFiltersAndPages(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()

	active, err := h.auth.Register(ctx, "Active@Example.com", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	idle, err := h.auth.Register(ctx, "idle@other.org", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	profile := referenceProfile()
	profile.Goal = domain.GoalFatLoss
	if _, _, err := h.plan.SaveProfile(ctx, active.ID, profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if _, err := h.plan.Generate(ctx, idle.ID, nil, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := h.checklist.SetStartDay(ctx, active.ID, "monday"); err != nil {
		t.Fatalf("start day: %v", err)
	}
	for i := range 6 {
		if _, err := h.checklist.MarkDay(ctx, active.ID, i, 70); err != nil {
			t.Fatalf("mark: %v", err)
		}
	}

	page, err := h.admin.ListUsers(ctx, service.UserQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || page.Page != 1 || len(page.Users) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	for _, m := range page.Users {
		if m.Email == "" || m.PlanKcal <= 0 {
			t.Fatalf("member missing email or kcal: %+v", m)
		}
	}

	cases := []struct {
		name string
		q    service.UserQuery
		want string
	}{
		{"search", service.UserQuery{Search: "example"}, "active@example.com"},
		{"goal", service.UserQuery{Goal: "fat_loss"}, "active@example.com"},
		{"band", service.UserQuery{Band: "lt40"}, "idle@other.org"},
		{"high band", service.UserQuery{Band: "gt70"}, "active@example.com"},
	}
	for _, tc := range cases {
		page, err := h.admin.ListUsers(ctx, tc.q)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if page.Total != 1 || page.Users[0].Email != tc.want {
			t.Fatalf("%s: got %+v", tc.name, page.Users)
		}
	}

	page, err = h.admin.ListUsers(ctx, service.UserQuery{Page: "2", Limit: "1"})
	if err != nil || page.Total != 2 || len(page.Users) != 1 || page.Limit != 1 {
		t.Fatalf("second page: %+v, %v", page, err)
	}
	if _, err := h.admin.ListUsers(ctx, service.UserQuery{WindowQuery: service.WindowQuery{DateTo: "soon"}}); !errors.Is(err, adherence.ErrInvalidWindow) {
		t.Fatalf("expected invalid window, got %v", err)
	}
}

func TestExportRemovesReportWhenPresignFails(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.storage.failURL = errors.New("presign down")

	if _, err := h.admin.ExportReport(context.Background(), service.WindowQuery{}); err == nil {
		t.Fatalf("expected export error")
	}
	if len(h.storage.objects) != 0 || len(h.storage.deleted) != 1 {
		t.Fatalf("report must be cleaned up, objects=%d deleted=%v", len(h.storage.objects), h.storage.deleted)
	}
}
