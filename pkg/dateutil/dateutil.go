package dateutil

import (
	"fmt"
	"time"
)

// ISODateLayout is the layout of anchor dates and CLI date arguments
const ISODateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

var weekdayLetters = [7]string{"d", "l", "m", "x", "j", "v", "s"}

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// NormalizeUTC returns the same calendar day at midnight UTC.
// The date's own year/month/day fields are kept, so a late-evening local time
// never rolls over into the next UTC day.
func NormalizeUTC(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC midnight date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from `from` to `to`.
// Negative when `to` is before `from`.
func DaysBetween(from, to time.Time) int64 {
	// both sides are UTC midnights, so the difference is an exact multiple of a day
	return (NormalizeUTC(to).Unix() - NormalizeUTC(from).Unix()) / secondsPerDay
}

// IsLeapYear reports whether year is a Gregorian leap year
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month of year
func DaysInMonth(month time.Month, year int) int {
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// DaysInYear returns 366 for leap years and 365 otherwise
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// IsWeekday returns true if the date is Monday-Friday
func IsWeekday(date time.Time) bool {
	weekday := date.Weekday()
	return weekday >= time.Monday && weekday <= time.Friday
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	return !IsWeekday(date)
}

// WeekdayLetter returns the one-letter weekday abbreviation, Sunday first:
// d l m x j v s
func WeekdayLetter(date time.Time) string {
	return weekdayLetters[date.Weekday()]
}

// WeekdayLetters returns the header row d..s
func WeekdayLetters() []string {
	letters := make([]string, len(weekdayLetters))
	copy(letters, weekdayLetters[:])
	return letters
}

// ParseISODate parses a YYYY-MM-DD date into UTC midnight
func ParseISODate(dateStr string) (time.Time, error) {
	t, err := time.Parse(ISODateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", dateStr, err)
	}
	return t, nil
}

// FormatISODate formats date as YYYY-MM-DD
func FormatISODate(date time.Time) string {
	return date.Format(ISODateLayout)
}

// Today returns today's date (start of day)
func Today() time.Time {
	return StartOfDay(time.Now())
}
