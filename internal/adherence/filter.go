package adherence

import (
	"strings"

	"github.com/spf13/cast"

	"alcyxob/nutrition-app/internal/domain"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Filter narrows a cohort listing. Zero fields match everything.
type Filter struct {
	Search string // case-insensitive substring of the email
	Goal   domain.Goal
	Locked *bool
	Band   Band
}

// ParseFilter builds a filter from query values. Unknown bands and lock
// values other than "true" or "false" are ignored.
func ParseFilter(search, goal, locked, band string) Filter {
	f := Filter{
		Search: strings.ToLower(strings.TrimSpace(search)),
		Goal:   domain.Goal(strings.TrimSpace(goal)),
	}
	switch strings.TrimSpace(locked) {
	case "true":
		v := true
		f.Locked = &v
	case "false":
		v := false
		f.Locked = &v
	}
	switch b := Band(strings.TrimSpace(band)); b {
	case BandLow, BandMedium, BandHigh:
		f.Band = b
	}
	return f
}

// Match reports whether m passes every set criterion.
func (f Filter) Match(m MemberReport) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(m.Email), f.Search) {
		return false
	}
	if f.Goal != "" && m.Goal != f.Goal {
		return false
	}
	if f.Locked != nil && m.Locked != *f.Locked {
		return false
	}
	if f.Band != "" && m.Band != f.Band {
		return false
	}
	return true
}

// Apply returns the members that match, keeping their order.
func (f Filter) Apply(members []MemberReport) []MemberReport {
	out := make([]MemberReport, 0, len(members))
	for _, m := range members {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}

// Page is one page of a filtered listing.
type Page struct {
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Users []MemberReport `json:"users"`
}

// Paginate slices members into the requested page. Pages start at 1; the
// limit is clamped to 1..MaxPageLimit and defaults to DefaultPageLimit.
func Paginate(members []MemberReport, page, limit string) Page {
	p, err := cast.ToIntE(strings.TrimSpace(page))
	if err != nil || p < 1 {
		p = 1
	}
	l, err := cast.ToIntE(strings.TrimSpace(limit))
	if err != nil || l < 1 {
		l = DefaultPageLimit
	}
	l = min(l, MaxPageLimit)

	out := Page{Total: len(members), Page: p, Limit: l, Users: []MemberReport{}}
	if p-1 >= (len(members)+l-1)/l {
		return out
	}
	start := (p - 1) * l
	out.Users = members[start:min(start+l, len(members))]
	return out
}
