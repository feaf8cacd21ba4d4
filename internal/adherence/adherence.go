// Package adherence computes checklist adherence for one user or a cohort
// over a time window.
package adherence

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"

	"alcyxob/nutrition-app/internal/apperr"
	"alcyxob/nutrition-app/internal/domain"
)

// DefaultRiskThreshold is the adherence ratio below which a user is at risk.
const DefaultRiskThreshold = 0.4

// DefaultRangeDays is the lookback used when no window is given.
const DefaultRangeDays = 7

var ErrInvalidWindow = apperr.Validation("INVALID_WINDOW", "invalid date range")

// Window is an inclusive time range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.IsZero() && !t.Before(w.Start) && !t.After(w.End)
}

// DefaultWindow is the window ending at now and starting days before.
func DefaultWindow(now time.Time, days int) Window {
	if days <= 0 {
		days = DefaultRangeDays
	}
	return Window{Start: now.AddDate(0, 0, -days), End: now}
}

// ParseWindow builds a window from query values. from and to are RFC 3339
// timestamps or YYYY-MM-DD dates; when from is empty the window starts
// rangeDays before the end. Unparseable ranges fall back to defaultDays.
func ParseWindow(now time.Time, rangeDays, from, to string, defaultDays int) (Window, error) {
	end := now
	if to = strings.TrimSpace(to); to != "" {
		t, err := parseTime(to)
		if err != nil {
			return Window{}, ErrInvalidWindow.With("dateTo", to)
		}
		end = t
	}
	if from = strings.TrimSpace(from); from != "" {
		start, err := parseTime(from)
		if err != nil {
			return Window{}, ErrInvalidWindow.With("dateFrom", from)
		}
		if start.After(end) {
			return Window{}, ErrInvalidWindow.With("dateFrom", from)
		}
		return Window{Start: start, End: end}, nil
	}
	days, err := cast.ToIntE(strings.TrimSpace(rangeDays))
	if err != nil || days <= 0 {
		days = defaultDays
	}
	w := DefaultWindow(now, days)
	w.End = end
	return w, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// Source tells where a sample came from.
type Source string

const (
	SourceHistory Source = "history" // archived weeks completed in the window
	SourceLive    Source = "live"    // the current week, updated in the window
	SourceNone    Source = "none"
)

// Sample is the adherence of one user over a window.
type Sample struct {
	Ratio          float64    `json:"ratio"`
	LastActivityAt *time.Time `json:"lastActivityAt"`
	Done           int        `json:"done"`
	Total          int        `json:"total"`
	Source         Source     `json:"source"`
}

// Summarize computes adherence from the weeks completed in the window. When
// none qualify, the live week counts if it was updated in the window.
func Summarize(history []domain.WeekRecord, live domain.ChecklistState, w Window) Sample {
	var s Sample
	var last time.Time
	for _, rec := range history {
		if !w.Contains(rec.CompletedAt) {
			continue
		}
		s.Done += rec.Done()
		s.Total += len(rec.Statuses)
		if rec.CompletedAt.After(last) {
			last = rec.CompletedAt
		}
		s.Source = SourceHistory
	}
	if s.Source == "" && w.Contains(live.LastUpdated) {
		s.Done = live.Marked()
		s.Total = len(live.Statuses)
		last = live.LastUpdated
		s.Source = SourceLive
	}
	if s.Source == "" {
		s.Source = SourceNone
		return s
	}
	s.LastActivityAt = &last
	if s.Total > 0 {
		s.Ratio = float64(s.Done) / float64(s.Total)
	}
	return s
}

// Band is a coarse adherence bucket.
type Band string

const (
	BandLow    Band = "lt40"
	BandMedium Band = "40-70"
	BandHigh   Band = "gt70"
)

// BandOf buckets a ratio. Both bounds of the middle band are inclusive.
func BandOf(ratio float64) Band {
	switch {
	case ratio < 0.4:
		return BandLow
	case ratio <= 0.7:
		return BandMedium
	}
	return BandHigh
}

// Activity is one row of a user's activity log.
type Activity struct {
	Date    time.Time `json:"date"`
	Done    int       `json:"done"`
	Skipped int       `json:"skipped"`
	Pending int       `json:"pending"`
	Total   int       `json:"total"`
}

// WeeklyActivity lists up to limit weeks completed in the window, newest
// first. With no such week, the live week is reported when it was updated in
// the window.
func WeeklyActivity(history []domain.WeekRecord, live domain.ChecklistState, w Window, limit int) []Activity {
	var in []domain.WeekRecord
	for _, rec := range history {
		if w.Contains(rec.CompletedAt) {
			in = append(in, rec)
		}
	}
	if len(in) == 0 {
		if !w.Contains(live.LastUpdated) {
			return []Activity{}
		}
		done := live.Marked()
		return []Activity{{
			Date:    live.LastUpdated,
			Done:    done,
			Skipped: len(live.Statuses) - done,
			Total:   len(live.Statuses),
		}}
	}
	slices.SortStableFunc(in, func(a, b domain.WeekRecord) int {
		return b.CompletedAt.Compare(a.CompletedAt)
	})
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	out := make([]Activity, 0, len(in))
	for _, rec := range in {
		done := rec.Done()
		out = append(out, Activity{
			Date:    rec.CompletedAt,
			Done:    done,
			Skipped: len(rec.Statuses) - done,
			Total:   len(rec.Statuses),
		})
	}
	return out
}

// Member is one user of a cohort. HasTemplate is false for users who have a
// plan but never saved a day plan.
type Member struct {
	UserID      string
	Email       string
	Goal        domain.Goal
	PlanKcal    int
	HasTemplate bool
	Locked      bool
	History     []domain.WeekRecord
	Live        domain.ChecklistState
}

// Policy holds the cohort thresholds.
type Policy struct {
	RiskThreshold float64
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{RiskThreshold: DefaultRiskThreshold}
}

// MemberReport is the per-user line of a cohort report.
type MemberReport struct {
	UserID   string      `json:"userId"`
	Email    string      `json:"email"`
	Goal     domain.Goal `json:"goal,omitempty"`
	PlanKcal int         `json:"planKcal"`
	Sample   Sample      `json:"sample"`
	Band     Band        `json:"band"`
	AtRisk   bool        `json:"atRisk"`
	Locked   bool        `json:"locked"`
}

// CohortReport aggregates adherence over a set of users.
type CohortReport struct {
	Window           Window         `json:"window"`
	Users            int            `json:"users"`
	LockedPlans      int            `json:"lockedPlans"`
	AverageAdherence float64        `json:"averageAdherence"` // two decimals
	AtRisk           int            `json:"atRisk"`
	Members          []MemberReport `json:"members"`
}

// Cohort summarizes every member over the window. Members without recent
// activity are at risk. The average covers members that have a template.
func Cohort(members []Member, w Window, p Policy) CohortReport {
	if p.RiskThreshold <= 0 {
		p.RiskThreshold = DefaultRiskThreshold
	}
	rep := CohortReport{Window: w, Users: len(members), Members: make([]MemberReport, 0, len(members))}
	var sum float64
	n := 0
	for _, m := range members {
		var s Sample
		if m.HasTemplate {
			s = Summarize(m.History, m.Live, w)
			sum += s.Ratio
			n++
		} else {
			s = Sample{Source: SourceNone}
		}
		atRisk := s.Source == SourceNone || s.Ratio < p.RiskThreshold
		if atRisk {
			rep.AtRisk++
		}
		if m.Locked {
			rep.LockedPlans++
		}
		rep.Members = append(rep.Members, MemberReport{
			UserID:   m.UserID,
			Email:    m.Email,
			Goal:     m.Goal,
			PlanKcal: m.PlanKcal,
			Sample:   s,
			Band:     BandOf(s.Ratio),
			AtRisk:   atRisk,
			Locked:   m.Locked,
		})
	}
	if n > 0 {
		rep.AverageAdherence = math.Floor(sum/float64(n)*100+0.5) / 100
	}
	return rep
}
