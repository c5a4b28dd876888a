package grid

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/username/shift-calendar/pkg/dateutil"
)

var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish month name used in stored cell keys
func MonthName(month time.Month) string {
	if month < time.January || month > time.December {
		return ""
	}
	return monthNames[month-1]
}

// CellKey returns the override key of day in month, e.g. "Enero-1"
func CellKey(month time.Month, day int) string {
	return fmt.Sprintf("%s-%d", MonthName(month), day)
}

// DateKey returns the override key of date
func DateKey(date time.Time) string {
	return CellKey(date.Month(), date.Day())
}

// ParseCellKey parses "<MonthName>-<day>" back into month and day
func ParseCellKey(key string) (time.Month, int, error) {
	name, dayStr, found := strings.Cut(key, "-")
	if !found {
		return 0, 0, fmt.Errorf("invalid cell key %q", key)
	}

	var month time.Month
	for i, n := range monthNames {
		if strings.EqualFold(n, name) {
			month = time.Month(i + 1)
			break
		}
	}
	if month == 0 {
		return 0, 0, fmt.Errorf("invalid month in cell key %q", key)
	}

	day, err := strconv.Atoi(dayStr)
	// 29 is kept for February so leap-day keys survive a non-leap year
	if err != nil || day < 1 || day > dateutil.DaysInMonth(month, 2024) {
		return 0, 0, fmt.Errorf("invalid day in cell key %q", key)
	}

	return month, day, nil
}
