package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Kind represents the scope of a holiday
type Kind string

const (
	KindNational Kind = "nacional"
	KindRegional Kind = "autonomico"
	KindLocal    Kind = "local"
)

// ParseKind accepts both the stored names and their English equivalents
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nacional", "national":
		return KindNational, nil
	case "autonomico", "autonómico", "regional":
		return KindRegional, nil
	case "local":
		return KindLocal, nil
	default:
		return "", fmt.Errorf("unknown holiday kind %q", s)
	}
}

// Holiday represents a single holiday record.
// Year 0 means the holiday applies to every year.
type Holiday struct {
	Day         int        `json:"day"`
	Month       time.Month `json:"month"`
	Description string     `json:"description"`
	Kind        Kind       `json:"kind"`
	Year        int        `json:"year,omitempty"`
}

// AppliesTo reports whether the holiday is active in year
func (h Holiday) AppliesTo(year int) bool {
	return h.Year == 0 || h.Year == year
}

// SameDay reports whether the holiday falls on day/month
func (h Holiday) SameDay(day int, month time.Month) bool {
	return h.Day == day && h.Month == month
}

// Deletion suppresses a fixed or computed holiday.
// Year 0 suppresses it in every year.
type Deletion struct {
	Day   int        `json:"day"`
	Month time.Month `json:"month"`
	Year  int        `json:"year,omitempty"`
}

// Suppresses reports whether the deletion hides h when resolving year
func (d Deletion) Suppresses(h Holiday, year int) bool {
	return d.Day == h.Day && d.Month == h.Month && (d.Year == 0 || d.Year == year)
}

type dayKey struct {
	month time.Month
	day   int
}

// HolidaySet indexes holidays by day for O(1) lookups while rendering a year
type HolidaySet struct {
	byDay map[dayKey][]Holiday
}

// NewHolidaySet builds a set from a holiday list (duplicates are kept)
func NewHolidaySet(holidays []Holiday) *HolidaySet {
	set := &HolidaySet{byDay: make(map[dayKey][]Holiday, len(holidays))}
	for _, h := range holidays {
		key := dayKey{month: h.Month, day: h.Day}
		set.byDay[key] = append(set.byDay[key], h)
	}
	return set
}

// Lookup returns the first holiday matching date (day+month, year-scoped or global)
func (s *HolidaySet) Lookup(date time.Time) (Holiday, bool) {
	if s == nil {
		return Holiday{}, false
	}
	for _, h := range s.byDay[dayKey{month: date.Month(), day: date.Day()}] {
		if h.AppliesTo(date.Year()) {
			return h, true
		}
	}
	return Holiday{}, false
}

// IsHoliday checks if the given date is a holiday
func (s *HolidaySet) IsHoliday(date time.Time) bool {
	_, ok := s.Lookup(date)
	return ok
}

// Len returns the number of records in the set
func (s *HolidaySet) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, hs := range s.byDay {
		n += len(hs)
	}
	return n
}
