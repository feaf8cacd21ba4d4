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
	ErrTemplateConflict = apperr.New(apperr.TypeConflict, "TEMPLATE_CONFLICT", "day plan was changed concurrently, reload and retry")
	ErrInvalidMealID    = apperr.Validation("INVALID_MEAL_ID", "invalid meal id")
	ErrInvalidMenuDays  = apperr.Validation("INVALID_MENU_DAYS", "menu days must be between 1 and 31")
	ErrInvalidEntry     = apperr.Validation("INVALID_ENTRY", "entry needs a meal id or an ingredient key")
)

const maxMenuDays = 31

// EntryRef names the item to place in a slot: a composed meal or a catalog
// ingredient.
type EntryRef struct {
	Type domain.EntryKind
	ID   string // meal id or ingredient key
}

// DayPlanView is the day plan as shown to the user.
type DayPlanView struct {
	Slots       []planner.SlotView   `json:"slots"`
	DayTotals   domain.Totals        `json:"dayTotals"`
	MenuDays    int                  `json:"menuDays"`
	MenuTotals  domain.Totals        `json:"menuTotals"`
	// TargetDiffs compares the day totals with the plan targets.
	TargetDiffs []planner.TargetDiff `json:"targetDiffs"`
	Locked      bool                 `json:"locked"`
	Lockable    bool                 `json:"lockable"`
	Version     int64                `json:"version"`
}

// IngredientOption is a macro-picker candidate.
type IngredientOption struct {
	Item      domain.IngredientItem `json:"item"`
	Ref       string                `json:"ref"`
	Remaining planner.Remaining     `json:"remaining"`
}

type DayPlanService interface {
	GetDayPlan(ctx context.Context, userID primitive.ObjectID) (*DayPlanView, error)
	AddEntry(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, ref EntryRef) (*DayPlanView, error)
	AddWithinMacro(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, macro, ingredientKey string) (*DayPlanView, error)
	MacroOptions(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, macro string) ([]IngredientOption, error)
	UpdateEntryCount(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, entryRef string, delta int) (*DayPlanView, error)
	RemoveEntry(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, entryRef string) (*DayPlanView, error)
	SetMenuDays(ctx context.Context, userID primitive.ObjectID, days int) (*DayPlanView, error)
	Lock(ctx context.Context, userID primitive.ObjectID) (*DayPlanView, error)
}

// workspace is one user's template loaded together with the allocator built
// over it.
type workspace struct {
	tpl   *domain.Template
	plan  *domain.Plan
	alloc *planner.Allocator
}

// templateStore loads and saves workspaces. Saves are conditional on the
// template version, so a concurrent writer makes the later save fail.
type templateStore struct {
	templateRepo repository.TemplateRepository
	planRepo     repository.PlanRepository
	sizes        nutrition.PortionSizes
	now          func() time.Time
}

func (s *templateStore) load(ctx context.Context, userID primitive.ObjectID) (*workspace, error) {
	plan, err := s.planRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	tpl, err := s.templateRepo.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		tpl = domain.NewTemplate(userID)
	case err != nil:
		return nil, err
	}
	if tpl.DayPlan == nil {
		tpl.DayPlan = domain.DayPlan{}
	}
	alloc := planner.NewAllocator(s.sizes, plan.PlanTargets, plan.MealPortions, tpl.DayPlan, tpl.Locked)
	return &workspace{tpl: tpl, plan: plan, alloc: alloc}, nil
}

func (s *templateStore) save(ctx context.Context, ws *workspace) error {
	now := s.now()
	ws.tpl.DayPlan = ws.alloc.Plan()
	ws.tpl.Locked = ws.alloc.Locked()
	if ws.tpl.CreatedAt.IsZero() {
		ws.tpl.CreatedAt = now
	}
	ws.tpl.UpdatedAt = now
	if err := s.templateRepo.Save(ctx, ws.tpl); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			slog.WarnContext(ctx, "template save lost a race", "userId", ws.tpl.UserID.Hex(), "version", ws.tpl.Version)
			return apperr.Wrap(err, apperr.TypeConflict, ErrTemplateConflict.Code, ErrTemplateConflict.Message)
		}
		return err
	}
	return nil
}

// mutate loads the workspace, applies fn and saves the result. Nothing is
// written when fn fails.
func (s *templateStore) mutate(ctx context.Context, userID primitive.ObjectID, fn func(ws *workspace) error) (*workspace, error) {
	ws, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(ws); err != nil {
		return nil, err
	}
	if err := s.save(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

type dayPlanService struct {
	store *templateStore
	meals MealService
}

// NewDayPlanService creates the day plan service. Meals and catalog
// ingredients are resolved through meals.
func NewDayPlanService(templateRepo repository.TemplateRepository, planRepo repository.PlanRepository, meals MealService, sizes nutrition.PortionSizes) DayPlanService {
	return &dayPlanService{
		store: &templateStore{
			templateRepo: templateRepo,
			planRepo:     planRepo,
			sizes:        sizes,
			now:          time.Now,
		},
		meals: meals,
	}
}

func (s *dayPlanService) view(ws *workspace) *DayPlanView {
	v := &DayPlanView{
		DayTotals:   ws.alloc.DayTotals(),
		MenuDays:    ws.tpl.MenuDays,
		MenuTotals:  ws.alloc.MenuTotals(ws.tpl.MenuDays),
		TargetDiffs: ws.alloc.TargetDiffs(),
		Locked:      ws.alloc.Locked(),
		Lockable:    ws.alloc.Lockable(),
		Version:     ws.tpl.Version,
	}
	for _, slot := range domain.Slots {
		v.Slots = append(v.Slots, ws.alloc.SlotView(slot))
	}
	return v
}

func (s *dayPlanService) GetDayPlan(ctx context.Context, userID primitive.ObjectID) (*DayPlanView, error) {
	ws, err := s.store.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ws), nil
}

func (s *dayPlanService) resolve(ctx context.Context, userID primitive.ObjectID, ref EntryRef) (domain.EntryItem, error) {
	if ref.ID == "" {
		return nil, ErrInvalidEntry
	}
	switch ref.Type {
	case domain.KindMeal:
		id, err := primitive.ObjectIDFromHex(ref.ID)
		if err != nil {
			return nil, ErrInvalidMealID.With("id", ref.ID)
		}
		meal, err := s.meals.GetMeal(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		return meal.AsItem(), nil
	case domain.KindIngredient:
		ing, err := s.meals.Ingredient(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return *ing, nil
	}
	return nil, ErrInvalidEntry.With("type", string(ref.Type))
}

// AddEntry places a meal or ingredient directly. Capacity is not checked on
// this path.
func (s *dayPlanService) AddEntry(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, ref EntryRef) (*DayPlanView, error) {
	item, err := s.resolve(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	ws, err := s.store.mutate(ctx, userID, func(ws *workspace) error {
		return ws.alloc.AddEntry(slot, item)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ws), nil
}

func (s *dayPlanService) AddWithinMacro(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, macro, ingredientKey string) (*DayPlanView, error) {
	m, ok := domain.ParseMacro(macro)
	if !ok {
		return nil, planner.ErrUnknownMacro.With("macro", macro)
	}
	item, err := s.resolve(ctx, userID, EntryRef{Type: domain.KindIngredient, ID: ingredientKey})
	if err != nil {
		return nil, err
	}
	ws, err := s.store.mutate(ctx, userID, func(ws *workspace) error {
		return ws.alloc.AddWithinMacro(slot, item, m)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ws), nil
}

// MacroOptions lists the catalog ingredients offered by the macro picker of
// slot, with the capacity left for that macro.
func (s *dayPlanService) MacroOptions(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, macro string) ([]IngredientOption, error) {
	if !slot.Valid() {
		return nil, planner.ErrUnknownSlot.With("slot", string(slot))
	}
	m, ok := domain.ParseMacro(macro)
	if !ok {
		return nil, planner.ErrUnknownMacro.With("macro", macro)
	}
	ws, err := s.store.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.meals.Ingredients(ctx)
	if err != nil {
		return nil, err
	}
	remaining := ws.alloc.Remaining(slot, m)
	options := []IngredientOption{}
	for _, it := range planner.FilterByMacro(items, m) {
		options = append(options, IngredientOption{
			Item:      it,
			Ref:       domain.DayPlanEntry{Item: it}.Ref(),
			Remaining: remaining,
		})
	}
	return options, nil
}

func (s *dayPlanService) UpdateEntryCount(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, entryRef string, delta int) (*DayPlanView, error) {
	ws, err := s.store.mutate(ctx, userID, func(ws *workspace) error {
		return ws.alloc.UpdateCount(slot, entryRef, delta)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ws), nil
}

func (s *dayPlanService) RemoveEntry(ctx context.Context, userID primitive.ObjectID, slot domain.Slot, entryRef string) (*DayPlanView, error) {
	ws, err := s.store.mutate(ctx, userID, func(ws *workspace) error {
		return ws.alloc.RemoveEntry(slot, entryRef)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ws), nil
}

// SetMenuDays sets how many days the base day is repeated for. It is lock-gated
// like every other edit of the template.
func (s *dayPlanService) SetMenuDays(ctx context.Context, userID primitive.ObjectID, days int) (*DayPlanView, error) {
	if days < 1 || days > maxMenuDays {
		return nil, ErrInvalidMenuDays.With("days", days)
	}
	ws, err := s.store.mutate(ctx, userID, func(ws *workspace) error {
		if ws.alloc.Locked() {
			return planner.ErrPlanLocked
		}
		ws.tpl.MenuDays = days
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ws), nil
}

func (s *dayPlanService) Lock(ctx context.Context, userID primitive.ObjectID) (*DayPlanView, error) {
	ws, err := s.store.mutate(ctx, userID, func(ws *workspace) error {
		return ws.alloc.Lock()
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "day plan locked", "userId", userID.Hex())
	return s.view(ws), nil
}
