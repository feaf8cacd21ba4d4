package service

import (
	"context"
	"log/slog"
	"time"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/nutrition"
	"alcyxob/nutrition-app/internal/planner"
	"alcyxob/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChecklistView is the live week with its derived figures.
type ChecklistView struct {
	Phase          domain.Phase                 `json:"phase"`
	StartDay       domain.Weekday               `json:"startDay"`
	StartDayLocked bool                         `json:"startDayLocked"`
	Days           []planner.DayStatus          `json:"days"`
	Weights        [domain.DaysPerWeek]*float64 `json:"weights"`
	Progress       planner.Progress             `json:"progress"`
	LastUpdated    time.Time                    `json:"lastUpdated"`
	WeeksArchived  int                          `json:"weeksArchived"`
}

type ChecklistService interface {
	GetChecklist(ctx context.Context, userID primitive.ObjectID) (*ChecklistView, error)
	SetStartDay(ctx context.Context, userID primitive.ObjectID, day domain.Weekday) (*ChecklistView, error)
	MarkDay(ctx context.Context, userID primitive.ObjectID, idx int, weight float64) (*ChecklistView, error)
	// ResetWeek archives a complete week and unlocks the day plan.
	ResetWeek(ctx context.Context, userID primitive.ObjectID) (*domain.WeekRecord, error)
	Comparisons(ctx context.Context, userID primitive.ObjectID) ([]planner.WeekComparison, error)
}

type checklistService struct {
	store *templateStore
	now   func() time.Time
}

func NewChecklistService(templateRepo repository.TemplateRepository, planRepo repository.PlanRepository, sizes nutrition.PortionSizes) ChecklistService {
	return &checklistService{
		store: &templateStore{
			templateRepo: templateRepo,
			planRepo:     planRepo,
			sizes:        sizes,
			now:          time.Now,
		},
		now: time.Now,
	}
}

func (s *checklistService) tracker(ws *workspace) *planner.Tracker {
	return planner.NewTracker(ws.tpl.Checklist, ws.tpl.History, planner.WithClock(s.now))
}

func checklistView(t *planner.Tracker) *ChecklistView {
	state := t.State()
	return &ChecklistView{
		Phase:          state.Phase,
		StartDay:       state.StartDay,
		StartDayLocked: t.StartDayLocked(),
		Days:           t.OrderedDays(),
		Weights:        state.Weights,
		Progress:       t.Progress(),
		LastUpdated:    state.LastUpdated,
		WeeksArchived:  len(t.History()),
	}
}

func (s *checklistService) GetChecklist(ctx context.Context, userID primitive.ObjectID) (*ChecklistView, error) {
	ws, err := s.store.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return checklistView(s.tracker(ws)), nil
}

// update runs fn against the tracker and persists the resulting state.
func (s *checklistService) update(ctx context.Context, userID primitive.ObjectID, fn func(ws *workspace, t *planner.Tracker) error) (*planner.Tracker, error) {
	var t *planner.Tracker
	_, err := s.store.mutate(ctx, userID, func(ws *workspace) error {
		t = s.tracker(ws)
		if err := fn(ws, t); err != nil {
			return err
		}
		ws.tpl.Checklist = t.State()
		ws.tpl.History = t.History()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *checklistService) SetStartDay(ctx context.Context, userID primitive.ObjectID, day domain.Weekday) (*ChecklistView, error) {
	t, err := s.update(ctx, userID, func(_ *workspace, t *planner.Tracker) error {
		return t.SetStartDay(day)
	})
	if err != nil {
		return nil, err
	}
	return checklistView(t), nil
}

func (s *checklistService) MarkDay(ctx context.Context, userID primitive.ObjectID, idx int, weight float64) (*ChecklistView, error) {
	t, err := s.update(ctx, userID, func(_ *workspace, t *planner.Tracker) error {
		return t.MarkDay(idx, weight)
	})
	if err != nil {
		return nil, err
	}
	return checklistView(t), nil
}

func (s *checklistService) ResetWeek(ctx context.Context, userID primitive.ObjectID) (*domain.WeekRecord, error) {
	var rec domain.WeekRecord
	_, err := s.update(ctx, userID, func(ws *workspace, t *planner.Tracker) error {
		var err error
		rec, err = t.ResetWeek(ws.alloc)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "week archived", "userId", userID.Hex(), "weeklyKcal", rec.WeeklyKcal)
	return &rec, nil
}

// Comparisons lists the completed weeks. Weeks archived without kcal fall back
// to the current day plan, then to the plan target.
func (s *checklistService) Comparisons(ctx context.Context, userID primitive.ObjectID) ([]planner.WeekComparison, error) {
	ws, err := s.store.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	fallback := ws.alloc.DayTotals().Kcal
	if fallback <= 0 {
		fallback = float64(ws.plan.Kcal)
	}
	weeks := planner.WeeklyComparisons(ws.tpl.History, fallback)
	if weeks == nil {
		weeks = []planner.WeekComparison{}
	}
	return weeks, nil
}
