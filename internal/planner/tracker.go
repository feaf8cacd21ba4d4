package planner

import (
	"math"
	"slices"
	"time"

	"alcyxob/nutrition-app/internal/apperr"
	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/nutrition"
)

var (
	ErrStartDayLocked   = apperr.Precondition("START_DAY_LOCKED", "start day cannot change once a day is marked")
	ErrStartDayRequired = apperr.Precondition("START_DAY_REQUIRED", "choose a start day before marking days")
	ErrWeekIncomplete   = apperr.Precondition("WEEK_INCOMPLETE", "all seven days must be marked before resetting")
	ErrInvalidWeekday   = apperr.Validation("INVALID_WEEKDAY", "unknown weekday")
	ErrInvalidDayIndex  = apperr.Validation("INVALID_DAY_INDEX", "day index must be between 0 and 6")
	ErrInvalidWeight    = apperr.Validation("INVALID_WEIGHT", "weight must be a positive number")
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Tracker runs the weekly checklist:
//
//	empty --SetStartDay--> running --MarkDay x7--> complete --ResetWeek--> empty
//
// It is not safe for concurrent use.
type Tracker struct {
	state   domain.ChecklistState
	history []domain.WeekRecord
	now     func() time.Time
}

// NewTracker resumes a checklist from persisted state. The phase is derived
// from the statuses and start day, so stale phase values are corrected.
func NewTracker(state domain.ChecklistState, history []domain.WeekRecord, opts ...Option) *Tracker {
	t := &Tracker{
		state:   state,
		history: slices.Clone(history),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.state.Phase = derivePhase(t.state)
	return t
}

func derivePhase(s domain.ChecklistState) domain.Phase {
	switch marked := s.Marked(); {
	case marked == domain.DaysPerWeek:
		return domain.PhaseComplete
	case s.StartDay != "" || marked > 0:
		return domain.PhaseRunning
	}
	return domain.PhaseEmpty
}

// State returns the live week.
func (t *Tracker) State() domain.ChecklistState { return t.state }

// History returns a copy of the archived weeks.
func (t *Tracker) History() []domain.WeekRecord { return slices.Clone(t.history) }

// StartDayLocked reports whether the start day can no longer change.
func (t *Tracker) StartDayLocked() bool {
	return t.state.Marked() > 0
}

// SetStartDay picks the first day of the week, or clears it with "". Only
// allowed while no day is marked.
func (t *Tracker) SetStartDay(day domain.Weekday) error {
	if day != "" && day.Index() < 0 {
		return ErrInvalidWeekday.With("day", string(day))
	}
	if t.StartDayLocked() {
		return ErrStartDayLocked
	}
	t.state.StartDay = day
	t.state.Phase = derivePhase(t.state)
	t.state.LastUpdated = t.now()
	return nil
}

// MarkDay records day idx as done together with the weight of that day.
// Marking an already marked day does nothing.
func (t *Tracker) MarkDay(idx int, weight float64) error {
	if idx < 0 || idx >= domain.DaysPerWeek {
		return ErrInvalidDayIndex.With("index", idx)
	}
	if t.state.StartDay == "" {
		return ErrStartDayRequired
	}
	if t.state.Statuses[idx] {
		return nil
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return ErrInvalidWeight
	}
	w := weight
	t.state.Statuses[idx] = true
	t.state.Weights[idx] = &w
	t.state.Phase = derivePhase(t.state)
	t.state.LastUpdated = t.now()
	return nil
}

// Streak returns the longest run of consecutive marked days. The week does
// not wrap around.
func (t *Tracker) Streak() int {
	best, run := 0, 0
	for _, done := range t.state.Statuses {
		if done {
			run++
			best = max(best, run)
			continue
		}
		run = 0
	}
	return best
}

// Progress summarizes the live week.
type Progress struct {
	Completed     int      `json:"completed"`
	Percent       int      `json:"percent"`
	AverageWeight *float64 `json:"averageWeight"`
	Streak        int      `json:"streak"`
}

// Progress returns completion and weight figures for the live week.
func (t *Tracker) Progress() Progress {
	done := t.state.Marked()
	return Progress{
		Completed:     done,
		Percent:       int(nutrition.Round(float64(done) / domain.DaysPerWeek * 100)),
		AverageWeight: averageWeight(t.state.Weights[:]),
		Streak:        t.Streak(),
	}
}

// DayStatus is one row of the checklist as displayed.
type DayStatus struct {
	Day   domain.Weekday `json:"day"`
	Index int            `json:"index"`
	Done  bool           `json:"done"`
}

// OrderedDays labels the seven checklist slots with weekdays, starting at
// the start day, or at Monday when none is set.
func (t *Tracker) OrderedDays() []DayStatus {
	start := max(t.state.StartDay.Index(), 0)
	out := make([]DayStatus, 0, domain.DaysPerWeek)
	for i := range domain.DaysPerWeek {
		out = append(out, DayStatus{
			Day:   domain.Weekdays[(start+i)%domain.DaysPerWeek],
			Index: i,
			Done:  t.state.Statuses[i],
		})
	}
	return out
}

// ResetWeek archives a complete week and starts a new one. The day plan
// used for the week is unlocked so it can be edited again.
func (t *Tracker) ResetWeek(alloc *Allocator) (domain.WeekRecord, error) {
	if t.state.Phase != domain.PhaseComplete {
		return domain.WeekRecord{}, ErrWeekIncomplete
	}
	var day domain.Totals
	if alloc != nil {
		day = alloc.DayTotals()
	}
	rec := domain.WeekRecord{
		StartDay:   t.state.StartDay,
		Statuses:   slices.Clone(t.state.Statuses[:]),
		Weights:    slices.Clone(t.state.Weights[:]),
		WeeklyKcal: nutrition.Round(day.Kcal * domain.DaysPerWeek),
		PlanMacros: domain.Totals{
			Kcal:    nutrition.Round(day.Kcal),
			Carbs:   nutrition.Round(day.Carbs),
			Protein: nutrition.Round(day.Protein),
			Fat:     nutrition.Round(day.Fat),
		},
		CompletedAt: t.now(),
	}
	t.history = append(t.history, rec)
	t.state = domain.ChecklistState{Phase: domain.PhaseEmpty, LastUpdated: rec.CompletedAt}
	if alloc != nil {
		alloc.unlock()
	}
	return rec, nil
}

func averageWeight(weights []*float64) *float64 {
	var sum float64
	n := 0
	for _, w := range weights {
		if w == nil || math.IsNaN(*w) {
			continue
		}
		sum += *w
		n++
	}
	if n == 0 {
		return nil
	}
	avg := nutrition.Round2(sum / float64(n))
	return &avg
}
