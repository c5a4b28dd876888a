package stats

import (
	"sort"
	"time"

	"github.com/username/shift-calendar/internal/calendar"
	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/rotation"
	"github.com/username/shift-calendar/pkg/dateutil"
)

// ShiftTally counts the days and hours worked under one letter
type ShiftTally struct {
	Count int     `json:"count"`
	Hours float64 `json:"hours"`
}

// YearStatistics is the rolled-up hour count of a year
type YearStatistics struct {
	Year          int                                 `json:"year"`
	HoursByMonth  map[time.Month]float64              `json:"hoursByMonth"`
	ShiftsByMonth map[time.Month]map[string]ShiftTally `json:"shiftsByMonth"`
	TotalHours    float64                             `json:"totalHours"`
	ExpectedHours float64                             `json:"expectedHours"`
}

// Difference returns worked minus expected hours
func (s YearStatistics) Difference() float64 {
	return s.TotalHours - s.ExpectedHours
}

// ShiftTotals sums the per-letter tallies over the whole year
func (s YearStatistics) ShiftTotals() map[string]ShiftTally {
	totals := make(map[string]ShiftTally)
	for _, byLetter := range s.ShiftsByMonth {
		for letter, tally := range byLetter {
			t := totals[letter]
			t.Count += tally.Count
			t.Hours += tally.Hours
			totals[letter] = t
		}
	}
	return totals
}

// Letters returns every letter that appears in the year, sorted
func (s YearStatistics) Letters() []string {
	totals := s.ShiftTotals()
	letters := make([]string, 0, len(totals))
	for letter := range totals {
		letters = append(letters, letter)
	}
	sort.Strings(letters)
	return letters
}

func empty(year int, expected float64) YearStatistics {
	s := YearStatistics{
		Year:          year,
		HoursByMonth:  make(map[time.Month]float64, 12),
		ShiftsByMonth: make(map[time.Month]map[string]ShiftTally, 12),
		ExpectedHours: expected,
	}
	for m := time.January; m <= time.December; m++ {
		s.HoursByMonth[m] = 0
		s.ShiftsByMonth[m] = make(map[string]ShiftTally)
	}
	return s
}

// Compute scans every day of year and tallies hours per month and letter.
// A nil configuration yields zeroed statistics with all twelve months present.
func Compute(year int, cfg *rotation.Config, holidays *calendar.HolidaySet, overrides map[string]grid.Override, expectedHours float64) YearStatistics {
	s := empty(year, expectedHours)
	if cfg == nil {
		return s
	}

	for m := time.January; m <= time.December; m++ {
		for day := 1; day <= dateutil.DaysInMonth(m, year); day++ {
			in := grid.Input{
				Date:     dateutil.Date(year, m, day),
				Config:   cfg,
				Holidays: holidays,
			}
			if ov, ok := overrides[grid.CellKey(m, day)]; ok {
				in.Override = &ov
			}

			cell := grid.Resolve(in)
			if cell.Letter == "" {
				continue
			}

			tally := s.ShiftsByMonth[m][cell.Letter]
			tally.Count++
			tally.Hours += cell.Hours
			s.ShiftsByMonth[m][cell.Letter] = tally
			s.HoursByMonth[m] += cell.Hours
		}
		s.TotalHours += s.HoursByMonth[m]
	}

	return s
}
