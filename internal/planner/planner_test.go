package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/username/shift-calendar/internal/calendar"
	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/rotation"
	"github.com/username/shift-calendar/internal/state"
	"github.com/username/shift-calendar/internal/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	repo := state.NewRepository(storage.NewMemoryStore(), zap.NewNop())
	m := NewManager(repo, calendar.BuiltinCatalog{}, grid.DefaultPalette(), zap.NewNop())

	require.NoError(t, m.SetRotation(context.Background(), &rotation.Config{
		Shifts: []rotation.Shift{
			{Letter: "A", Name: "Mañana", Color: "#ff0000", Hours: 8},
			{Letter: "B", Name: "Tarde", Color: "#0000ff", Hours: 8},
			{Letter: "N", Name: "Noche", Color: "#111111", Hours: 10},
		},
		Sequence: "ABAB",
		Anchor:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	return m
}

func date(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func TestManager_Year(t *testing.T) {
	m := newTestManager(t)

	view, err := m.Year(context.Background(), 2024)
	require.NoError(t, err)
	assert.Len(t, view.Months[time.February-1], 29)
	assert.Len(t, view.Holidays, len(calendar.DefaultCatalog())+2)
	assert.Equal(t, []string{"d", "l", "m", "x", "j", "v", "s"}, view.Weekdays)

	christmas := view.Months[time.December-1][24]
	require.NotNil(t, christmas.Holiday)
	assert.Equal(t, "#fca5a5", christmas.Color)
}

func TestManager_AssignShift(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	day := date(2024, 3, 5) // Tuesday, rotation A

	require.NoError(t, m.AssignShift(ctx, day, "N"))
	cell, err := m.Day(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "N", cell.Letter)
	assert.Equal(t, "#111111", cell.Color)
	assert.Equal(t, 10.0, cell.Hours)
	assert.True(t, cell.Manual)

	assert.ErrorIs(t, m.AssignShift(ctx, day, "Z"), ErrUnknownShift)

	require.NoError(t, m.AssignShift(ctx, day, ""))
	cell, err = m.Day(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "A", cell.Letter)
	assert.False(t, cell.Manual)
}

func TestManager_Statistics(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.SetExpectedHours(ctx, 2000))
	assert.Error(t, m.SetExpectedHours(ctx, -1))

	base, err := m.Statistics(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 366*8.0, base.TotalHours)
	assert.Equal(t, 2000.0, base.ExpectedHours)
	assert.Equal(t, 366*8.0-2000, base.Difference())

	require.NoError(t, m.AssignShift(ctx, date(2024, 6, 10), "N"))
	changed, err := m.Statistics(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, base.TotalHours+2, changed.TotalHours)

	cached, err := m.Repository().LoadStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, changed.HoursByMonth[time.June], cached.HoursByMonth[time.June])
	assert.Equal(t, 2000.0, cached.ExpectedHours)
}

func TestManager_HolidayLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	isHoliday := func(d time.Time) bool {
		t.Helper()
		hs, err := m.Holidays(ctx, d.Year())
		require.NoError(t, err)
		return calendar.NewHolidaySet(hs).IsHoliday(d)
	}

	// fixed holiday deleted for one year only
	require.NoError(t, m.DeleteHoliday(ctx, date(2024, 12, 25), true))
	assert.False(t, isHoliday(date(2024, 12, 25)))
	assert.True(t, isHoliday(date(2025, 12, 25)))

	require.NoError(t, m.RestoreHoliday(ctx, date(2024, 12, 25), true))
	assert.True(t, isHoliday(date(2024, 12, 25)))

	// custom holiday for every year, edited, then deleted everywhere
	require.NoError(t, m.AddHoliday(ctx, calendar.Holiday{Day: 2, Month: time.February, Description: "Candelaria", Kind: calendar.KindLocal}))
	assert.True(t, isHoliday(date(2026, 2, 2)))

	require.NoError(t, m.EditHoliday(ctx, 2, time.February, 2026, calendar.Holiday{Day: 3, Month: time.February, Description: "San Blas", Kind: calendar.KindLocal}))
	assert.False(t, isHoliday(date(2026, 2, 2)))
	assert.True(t, isHoliday(date(2026, 2, 3)))

	assert.ErrorIs(t, m.EditHoliday(ctx, 9, time.March, 2026, calendar.Holiday{}), ErrHolidayNotFound)
	assert.ErrorIs(t, m.AddHoliday(ctx, calendar.Holiday{Day: 31, Month: time.April}), state.ErrInvalidDate)

	require.NoError(t, m.DeleteHoliday(ctx, date(2026, 2, 3), false))
	assert.False(t, isHoliday(date(2026, 2, 3)))
	assert.False(t, isHoliday(date(2027, 2, 3)))

	// restoring what was never deleted changes nothing
	require.NoError(t, m.RestoreHoliday(ctx, date(2026, 8, 15), false))
	assert.True(t, isHoliday(date(2026, 8, 15)))
}

func TestManager_DeleteCustomHolidayAcrossScopes(t *testing.T) {
	ctx := context.Background()

	holidayOn := func(t *testing.T, m *Manager, d time.Time) bool {
		t.Helper()
		hs, err := m.Holidays(ctx, d.Year())
		require.NoError(t, err)
		return calendar.NewHolidaySet(hs).IsHoliday(d)
	}

	t.Run("year-scoped holiday deleted for all years", func(t *testing.T) {
		m := newTestManager(t)
		require.NoError(t, m.AddHoliday(ctx, calendar.Holiday{Day: 10, Month: time.March, Description: "Fiesta", Kind: calendar.KindLocal, Year: 2025}))
		require.True(t, holidayOn(t, m, date(2025, 3, 10)))

		require.NoError(t, m.DeleteHoliday(ctx, date(2025, 3, 10), false))
		assert.False(t, holidayOn(t, m, date(2025, 3, 10)))

		custom, err := m.Repository().LoadCustomHolidays(ctx)
		require.NoError(t, err)
		assert.Empty(t, custom)
	})

	t.Run("global holiday deleted for one year", func(t *testing.T) {
		m := newTestManager(t)
		require.NoError(t, m.AddHoliday(ctx, calendar.Holiday{Day: 10, Month: time.March, Description: "Fiesta", Kind: calendar.KindLocal}))

		require.NoError(t, m.DeleteHoliday(ctx, date(2025, 3, 10), true))
		assert.False(t, holidayOn(t, m, date(2025, 3, 10)))
		assert.True(t, holidayOn(t, m, date(2026, 3, 10)))

		require.NoError(t, m.RestoreHoliday(ctx, date(2025, 3, 10), true))
		assert.True(t, holidayOn(t, m, date(2025, 3, 10)))
	})

	t.Run("global deletion does not hide a later custom holiday", func(t *testing.T) {
		m := newTestManager(t)
		require.NoError(t, m.DeleteHoliday(ctx, date(2025, 12, 25), false))
		require.NoError(t, m.AddHoliday(ctx, calendar.Holiday{Day: 25, Month: time.December, Description: "Navidad (local)", Kind: calendar.KindLocal}))
		assert.True(t, holidayOn(t, m, date(2025, 12, 25)))
	})
}
