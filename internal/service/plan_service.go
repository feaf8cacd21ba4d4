package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"alcyxob/nutrition-app/internal/apperr"
	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/nutrition"
	"alcyxob/nutrition-app/internal/planner"
	"alcyxob/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProfileNotFound = apperr.New(apperr.TypeNotFound, "PROFILE_NOT_FOUND", "profile not found")
	ErrPlanNotFound    = apperr.New(apperr.TypeNotFound, "PLAN_NOT_FOUND", "no plan yet, complete the profile first")
	ErrUnknownField    = apperr.Validation("UNKNOWN_PORTION_FIELD", "unknown portion field")
	ErrNegativeValue   = apperr.Validation("NEGATIVE_VALUE", "values cannot be negative")
)

// ManualPlan overrides the computed targets. Nil fields keep the stored value.
type ManualPlan struct {
	Kcal         *int
	Protein      *int
	Carbs        *int
	Fat          *int
	MealPortions []nutrition.RawPortion
}

type PlanService interface {
	// Profile
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.Profile, error)
	SaveProfile(ctx context.Context, userID primitive.ObjectID, profile domain.Profile) (*domain.Profile, *domain.Plan, error)

	// Plan
	GetPlan(ctx context.Context, userID primitive.ObjectID) (*domain.Plan, error)
	Generate(ctx context.Context, userID primitive.ObjectID, profile *domain.Profile, portions []nutrition.RawPortion) (*domain.Plan, error)
	UpdatePlan(ctx context.Context, userID primitive.ObjectID, update ManualPlan) (*domain.Plan, error)
	UpdatePortion(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, field string, value int) (*domain.Plan, error)
	PortionSummary(ctx context.Context, userID primitive.ObjectID) (*nutrition.BudgetSummary, error)
	PortionSizes() nutrition.PortionSizes
}

type planService struct {
	profileRepo repository.ProfileRepository
	planRepo    repository.PlanRepository
	calc        *nutrition.Calculator
	now         func() time.Time
}

// NewPlanService creates the service that owns profiles and the plans computed
// from them.
func NewPlanService(profileRepo repository.ProfileRepository, planRepo repository.PlanRepository, calc *nutrition.Calculator) PlanService {
	return &planService{
		profileRepo: profileRepo,
		planRepo:    planRepo,
		calc:        calc,
		now:         time.Now,
	}
}

func (s *planService) PortionSizes() nutrition.PortionSizes {
	return s.calc.Constants().Portions
}

func (s *planService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return profile, err
}

// SaveProfile upserts the profile and recomputes the plan from it. Existing
// portion budgets are kept.
func (s *planService) SaveProfile(ctx context.Context, userID primitive.ObjectID, profile domain.Profile) (*domain.Profile, *domain.Plan, error) {
	if profile.Age < 0 || profile.Weight < 0 || profile.Height < 0 || profile.TrainingDays < 0 {
		return nil, nil, ErrNegativeValue
	}
	profile.UserID = userID
	profile.UpdatedAt = s.now()
	profile.Preferences.RestrictionsDetail = profile.Preferences.RestrictionsDetail.Normalize()
	if err := s.profileRepo.Upsert(ctx, &profile); err != nil {
		return nil, nil, err
	}

	plan, err := s.recompute(ctx, userID, profile, nil)
	if err != nil {
		return nil, nil, err
	}
	return &profile, plan, nil
}

func (s *planService) GetPlan(ctx context.Context, userID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	return plan, err
}

// Generate computes the plan from profile, or from the stored profile when
// profile is nil. Users without a profile get the calculator defaults.
func (s *planService) Generate(ctx context.Context, userID primitive.ObjectID, profile *domain.Profile, portions []nutrition.RawPortion) (*domain.Plan, error) {
	var p domain.Profile
	switch {
	case profile != nil:
		p = *profile
	default:
		stored, err := s.profileRepo.GetByUserID(ctx, userID)
		switch {
		case err == nil:
			p = *stored
		case errors.Is(err, repository.ErrNotFound):
			slog.DebugContext(ctx, "generating plan from defaults", "userId", userID.Hex())
		default:
			return nil, err
		}
	}
	return s.recompute(ctx, userID, p, portions)
}

func (s *planService) recompute(ctx context.Context, userID primitive.ObjectID, profile domain.Profile, portions []nutrition.RawPortion) (*domain.Plan, error) {
	existing, err := s.planRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	plan := &domain.Plan{UserID: userID}
	var previous []domain.PortionBudget
	if existing != nil {
		plan.ID = existing.ID
		plan.CreatedAt = existing.CreatedAt
		previous = existing.MealPortions
	}
	plan.PlanTargets = s.calc.Compute(profile)
	plan.MealPortions = nutrition.NormalizePortions(portions, previous)
	return s.save(ctx, plan)
}

func (s *planService) save(ctx context.Context, plan *domain.Plan) (*domain.Plan, error) {
	now := s.now()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	if err := s.planRepo.Upsert(ctx, plan); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "plan saved", "userId", plan.UserID.Hex(), "kcal", plan.Kcal)
	return plan, nil
}

// UpdatePlan applies manual target overrides. Derived fields such as the BMRs
// are left as computed.
func (s *planService) UpdatePlan(ctx context.Context, userID primitive.ObjectID, update ManualPlan) (*domain.Plan, error) {
	plan, err := s.GetPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, v := range []*int{update.Kcal, update.Protein, update.Carbs, update.Fat} {
		if v != nil && *v < 0 {
			return nil, ErrNegativeValue
		}
	}
	if update.Kcal != nil {
		plan.Kcal = *update.Kcal
		plan.FinalPlanKcal = *update.Kcal
	}
	if update.Protein != nil {
		plan.Protein = *update.Protein
	}
	if update.Carbs != nil {
		plan.Carbs = *update.Carbs
	}
	if update.Fat != nil {
		plan.Fat = *update.Fat
	}
	plan.MealPortions = nutrition.NormalizePortions(update.MealPortions, plan.MealPortions)
	return s.save(ctx, plan)
}

// UpdatePortion sets one field of one slot budget. Increases are clamped so
// the budgets never exceed the day target.
func (s *planService) UpdatePortion(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, field string, value int) (*domain.Plan, error) {
	if !slot.Valid() {
		return nil, planner.ErrUnknownSlot.With("slot", slot)
	}
	f, ok := nutrition.ParsePortionField(field)
	if !ok {
		return nil, ErrUnknownField.With("field", field)
	}
	plan, err := s.GetPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	budgets := nutrition.NormalizePortions(nil, plan.MealPortions)
	clamped := nutrition.ClampPortion(budgets, plan.PlanTargets, s.PortionSizes(), slot, f, value)
	for i := range budgets {
		if budgets[i].Key == slot {
			budgets[i] = nutrition.SetField(budgets[i], f, clamped)
		}
	}
	plan.MealPortions = budgets
	return s.save(ctx, plan)
}

func (s *planService) PortionSummary(ctx context.Context, userID primitive.ObjectID) (*nutrition.BudgetSummary, error) {
	plan, err := s.GetPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := nutrition.SummarizeBudgets(plan.MealPortions, plan.PlanTargets, s.PortionSizes())
	return &summary, nil
}
