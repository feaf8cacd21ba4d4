package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Weekday is a checklist start day. The empty value means unset.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the days in calendar order starting on Monday.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Index returns the position of d in Weekdays, or -1.
func (d Weekday) Index() int {
	for i, w := range Weekdays {
		if w == d {
			return i
		}
	}
	return -1
}

// DaysPerWeek is the checklist length.
const DaysPerWeek = 7

// Phase is the checklist lifecycle state.
type Phase string

const (
	PhaseEmpty    Phase = "empty"    // no start day
	PhaseRunning  Phase = "running"  // start day set, fewer than 7 days marked
	PhaseComplete Phase = "complete" // all 7 days marked, waiting for reset
)

// ChecklistState is the live week.
type ChecklistState struct {
	Phase       Phase                 `bson:"phase" json:"phase"`
	StartDay    Weekday               `bson:"startDay,omitempty" json:"startDay,omitempty"`
	Statuses    [DaysPerWeek]bool     `bson:"statuses" json:"statuses"`
	Weights     [DaysPerWeek]*float64 `bson:"weights" json:"weights"`
	LastUpdated time.Time             `bson:"lastUpdated,omitempty" json:"lastUpdated,omitempty"`
}

// Marked returns the number of days marked done.
func (c ChecklistState) Marked() int {
	n := 0
	for _, s := range c.Statuses {
		if s {
			n++
		}
	}
	return n
}

// WeekRecord is an archived week. Records are appended and never edited.
type WeekRecord struct {
	StartDay    Weekday    `bson:"startDay" json:"startDay"`
	Statuses    []bool     `bson:"statuses" json:"statuses"`
	Weights     []*float64 `bson:"weights" json:"weights"`
	WeeklyKcal  float64    `bson:"weeklyKcal" json:"weeklyKcal"`
	PlanMacros  Totals     `bson:"planMacros" json:"planMacros"`
	CompletedAt time.Time  `bson:"completedAt" json:"completedAt"`
}

// Done counts true statuses.
func (w WeekRecord) Done() int {
	n := 0
	for _, s := range w.Statuses {
		if s {
			n++
		}
	}
	return n
}

// FullyComplete reports whether every one of the 7 days was marked.
func (w WeekRecord) FullyComplete() bool {
	return len(w.Statuses) == DaysPerWeek && w.Done() == DaysPerWeek
}

// Template is the per-user planning aggregate: base day, lock flag, live
// checklist and history. Version guards concurrent read-modify-write.
type Template struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	DayPlan   DayPlan            `bson:"dayPlan" json:"dayPlan"`
	Locked    bool               `bson:"locked" json:"locked"`
	MenuDays  int                `bson:"menuDays" json:"menuDays"`
	Checklist ChecklistState     `bson:"checklist" json:"checklist"`
	History   []WeekRecord       `bson:"history" json:"history"`
	Version   int64              `bson:"version" json:"version"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewTemplate returns an empty template for a user.
func NewTemplate(userID primitive.ObjectID) *Template {
	return &Template{
		UserID:    userID,
		DayPlan:   DayPlan{},
		MenuDays:  DaysPerWeek,
		Checklist: ChecklistState{Phase: PhaseEmpty},
	}
}
