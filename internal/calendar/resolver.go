package calendar

import "time"

// ActiveHolidays returns the holiday set for year.
//
// Fixed and moving-feast records are stamped with year and dropped when a
// deletion matches them. Custom records are kept when global or scoped to
// year; a global one is hidden in a year that has a deletion scoped to it.
// No de-duplication happens across sources: a custom holiday on the same
// day as a fixed one yields two records.
func ActiveHolidays(year int, fixed, custom []Holiday, deletions []Deletion) []Holiday {
	feasts := MovingFeasts(year)
	out := make([]Holiday, 0, len(fixed)+len(feasts)+len(custom))

	for _, h := range fixed {
		h.Year = year
		if !isDeleted(h, year, deletions) {
			out = append(out, h)
		}
	}

	for _, h := range feasts {
		if !isDeleted(h, year, deletions) {
			out = append(out, h)
		}
	}

	for _, h := range custom {
		if !h.AppliesTo(year) {
			continue
		}
		if h.Year == 0 && isDeletedIn(h, year, deletions) {
			continue
		}
		out = append(out, h)
	}

	return out
}

func isDeleted(h Holiday, year int, deletions []Deletion) bool {
	for _, d := range deletions {
		if d.Suppresses(h, year) {
			return true
		}
	}
	return false
}

// isDeletedIn only considers deletions scoped to year
func isDeletedIn(h Holiday, year int, deletions []Deletion) bool {
	for _, d := range deletions {
		if d.Year == year && d.Suppresses(h, year) {
			return true
		}
	}
	return false
}

// AddDeletion appends d unless an identical record already exists
func AddDeletion(list []Deletion, d Deletion) []Deletion {
	for _, existing := range list {
		if existing == d {
			return list
		}
	}
	out := make([]Deletion, len(list), len(list)+1)
	copy(out, list)
	return append(out, d)
}

// RestoreDeletion removes deletions of day/month. With year 0 every deletion
// of that day goes; otherwise only the one scoped to year. Restoring a holiday
// that was never deleted returns an equal list.
func RestoreDeletion(list []Deletion, day int, month time.Month, year int) []Deletion {
	out := make([]Deletion, 0, len(list))
	for _, d := range list {
		if d.Day == day && d.Month == month && (year == 0 || d.Year == year) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// AddCustom appends a custom holiday
func AddCustom(list []Holiday, h Holiday) []Holiday {
	out := make([]Holiday, len(list), len(list)+1)
	copy(out, list)
	return append(out, h)
}

// RemoveCustom removes custom holidays on day/month whose scope is exactly
// year (0 matches only global records)
func RemoveCustom(list []Holiday, day int, month time.Month, year int) []Holiday {
	out := make([]Holiday, 0, len(list))
	for _, h := range list {
		if h.Day == day && h.Month == month && h.Year == year {
			continue
		}
		out = append(out, h)
	}
	return out
}

// DeleteCustom removes the custom holidays on day/month that a deletion
// scoped to year covers: with year 0 every record of that day goes, otherwise
// only the one stored for year. Global records survive a year-scoped delete.
func DeleteCustom(list []Holiday, day int, month time.Month, year int) []Holiday {
	out := make([]Holiday, 0, len(list))
	for _, h := range list {
		if h.SameDay(day, month) && (year == 0 || h.Year == year) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// FindCustom returns the custom holiday on day/month that applies to year
func FindCustom(list []Holiday, day int, month time.Month, year int) (Holiday, bool) {
	for _, h := range list {
		if h.Day == day && h.Month == month && h.AppliesTo(year) {
			return h, true
		}
	}
	return Holiday{}, false
}

// EditCustom replaces the record identified by (day, month, originalYear)
// with updated
func EditCustom(list []Holiday, day int, month time.Month, originalYear int, updated Holiday) []Holiday {
	return AddCustom(RemoveCustom(list, day, month, originalYear), updated)
}
