package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/username/shift-calendar/internal/calendar"
	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/rotation"
	"github.com/username/shift-calendar/internal/state"
	"github.com/username/shift-calendar/internal/stats"
	"github.com/username/shift-calendar/pkg/dateutil"
)

// ErrUnknownShift is returned when assigning a letter with no registered shift
var ErrUnknownShift = errors.New("unknown shift letter")

// ErrHolidayNotFound is returned when editing a custom holiday that does not exist
var ErrHolidayNotFound = errors.New("custom holiday not found")

// Manager loads snapshots from the repository, runs the calendar engine on
// them and writes user changes back. Each call works on a fresh snapshot.
type Manager struct {
	repo    *state.Repository
	catalog calendar.Catalog
	palette grid.Palette
	logger  *zap.Logger
}

// NewManager creates a new planner
func NewManager(
	repo *state.Repository,
	catalog calendar.Catalog,
	palette grid.Palette,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		repo:    repo,
		catalog: catalog,
		palette: palette,
		logger:  logger,
	}
}

// Repository returns the underlying repository
func (m *Manager) Repository() *state.Repository {
	return m.repo
}

// YearView is a resolved year grid
type YearView struct {
	Year     int                `json:"year"`
	Weekdays []string           `json:"weekdays"`
	Months   [12][]grid.Cell    `json:"months"`
	Holidays []calendar.Holiday `json:"holidays"`
	Rotation *rotation.Config   `json:"rotation,omitempty"`
}

// activeHolidays resolves the holiday list of a snapshot
func (m *Manager) activeHolidays(snap *state.Snapshot) ([]calendar.Holiday, error) {
	fixed, err := m.catalog.FixedHolidays()
	if err != nil {
		return nil, fmt.Errorf("failed to load holiday catalog: %w", err)
	}
	return calendar.ActiveHolidays(snap.Year, fixed, snap.Custom, snap.Deletions), nil
}

// Year resolves every day of year
func (m *Manager) Year(ctx context.Context, year int) (*YearView, error) {
	snap, err := m.repo.LoadSnapshot(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	holidays, err := m.activeHolidays(snap)
	if err != nil {
		return nil, err
	}

	view := &YearView{
		Year:     year,
		Weekdays: dateutil.WeekdayLetters(),
		Months:   grid.Year(year, snap.Config, calendar.NewHolidaySet(holidays), snap.Overrides, m.palette),
		Holidays: holidays,
		Rotation: snap.Config,
	}

	m.logger.Debug("Year resolved",
		zap.Int("year", year),
		zap.Int("holidays", len(holidays)),
		zap.Int("overrides", len(snap.Overrides)))

	return view, nil
}

// Day resolves a single date
func (m *Manager) Day(ctx context.Context, date time.Time) (grid.Cell, error) {
	snap, err := m.repo.LoadSnapshot(ctx, date.Year())
	if err != nil {
		return grid.Cell{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	holidays, err := m.activeHolidays(snap)
	if err != nil {
		return grid.Cell{}, err
	}

	in := grid.Input{
		Date:     date,
		Config:   snap.Config,
		Holidays: calendar.NewHolidaySet(holidays),
		Palette:  m.palette,
	}
	if ov, ok := snap.Overrides[grid.DateKey(date)]; ok {
		in.Override = &ov
	}
	return grid.Resolve(in), nil
}

// Statistics computes the statistics of year and caches the month totals
func (m *Manager) Statistics(ctx context.Context, year int) (stats.YearStatistics, error) {
	snap, err := m.repo.LoadSnapshot(ctx, year)
	if err != nil {
		return stats.YearStatistics{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	holidays, err := m.activeHolidays(snap)
	if err != nil {
		return stats.YearStatistics{}, err
	}

	s := stats.Compute(year, snap.Config, calendar.NewHolidaySet(holidays), snap.Overrides, snap.Stats.ExpectedHours)

	cached := state.Statistics{
		ExpectedHours: snap.Stats.ExpectedHours,
		HoursByMonth:  s.HoursByMonth,
	}
	if err := m.repo.SaveStatistics(ctx, cached); err != nil {
		return stats.YearStatistics{}, fmt.Errorf("failed to save statistics: %w", err)
	}

	m.logger.Info("Statistics computed",
		zap.Int("year", year),
		zap.Float64("total_hours", s.TotalHours),
		zap.Float64("expected_hours", s.ExpectedHours),
		zap.Float64("difference", s.Difference()))

	return s, nil
}

// SetExpectedHours stores the expected yearly hours
func (m *Manager) SetExpectedHours(ctx context.Context, hours float64) error {
	if hours < 0 {
		return fmt.Errorf("expected hours must not be negative: %v", hours)
	}

	s, err := m.repo.LoadStatistics(ctx)
	if err != nil {
		return err
	}
	s.ExpectedHours = hours
	if err := m.repo.SaveStatistics(ctx, s); err != nil {
		return err
	}

	m.logger.Info("Expected hours updated", zap.Float64("hours", hours))
	return nil
}

// Rotation returns the stored rotation, or nil when none is configured
func (m *Manager) Rotation(ctx context.Context) (*rotation.Config, error) {
	return m.repo.LoadConfig(ctx)
}

// SetRotation replaces the rotation
func (m *Manager) SetRotation(ctx context.Context, cfg *rotation.Config) error {
	if cfg == nil {
		return errors.New("rotation is required")
	}
	return m.repo.SaveConfig(ctx, cfg)
}

// SetOverride stores a manual assignment for date
func (m *Manager) SetOverride(ctx context.Context, date time.Time, o grid.Override) error {
	return m.repo.SetOverride(ctx, date, o)
}

// ClearOverride removes the manual assignment of date
func (m *Manager) ClearOverride(ctx context.Context, date time.Time) error {
	return m.repo.ClearOverride(ctx, date)
}

// AssignShift overrides date with a registered shift, copying its color and
// hours. The empty letter clears the override.
func (m *Manager) AssignShift(ctx context.Context, date time.Time, letter string) error {
	if letter == "" {
		return m.repo.ClearOverride(ctx, date)
	}

	cfg, err := m.repo.LoadConfig(ctx)
	if err != nil {
		return err
	}
	shift, ok := cfg.ShiftByLetter(letter)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownShift, letter)
	}

	hours := shift.Hours
	return m.repo.SetOverride(ctx, date, grid.Override{
		Content: shift.Letter,
		Color:   shift.Color,
		Hours:   &hours,
	})
}

// Holidays returns the active holidays of year
func (m *Manager) Holidays(ctx context.Context, year int) ([]calendar.Holiday, error) {
	snap, err := m.repo.LoadSnapshot(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return m.activeHolidays(snap)
}

// AddHoliday adds a custom holiday. Year 0 applies it to every year.
func (m *Manager) AddHoliday(ctx context.Context, h calendar.Holiday) error {
	if h.Day < 1 || h.Day > dateutil.DaysInMonth(h.Month, 2024) {
		return fmt.Errorf("%w: day %d of %v", state.ErrInvalidDate, h.Day, h.Month)
	}

	custom, err := m.repo.LoadCustomHolidays(ctx)
	if err != nil {
		return err
	}
	if err := m.repo.SaveCustomHolidays(ctx, calendar.AddCustom(custom, h)); err != nil {
		return err
	}

	m.logger.Info("Custom holiday added",
		zap.Int("day", h.Day),
		zap.Int("month", int(h.Month)),
		zap.Int("year", h.Year),
		zap.String("description", h.Description))
	return nil
}

// EditHoliday replaces the custom holiday on day/month that applies to year
func (m *Manager) EditHoliday(ctx context.Context, day int, month time.Month, year int, updated calendar.Holiday) error {
	custom, err := m.repo.LoadCustomHolidays(ctx)
	if err != nil {
		return err
	}

	existing, ok := calendar.FindCustom(custom, day, month, year)
	if !ok {
		return fmt.Errorf("%w: %d/%d", ErrHolidayNotFound, day, month)
	}

	if err := m.repo.SaveCustomHolidays(ctx, calendar.EditCustom(custom, day, month, existing.Year, updated)); err != nil {
		return err
	}

	m.logger.Info("Custom holiday edited",
		zap.Int("day", day),
		zap.Int("month", int(month)),
		zap.Int("original_year", existing.Year),
		zap.Int("year", updated.Year))
	return nil
}

// DeleteHoliday removes the holiday on date. With thisYearOnly the removal
// is scoped to date's year; otherwise it applies to every year. Custom
// holidays in that scope are removed; the deletion record hides the fixed or
// computed one and, for a single year, a global custom one.
func (m *Manager) DeleteHoliday(ctx context.Context, date time.Time, thisYearOnly bool) error {
	scope := 0
	if thisYearOnly {
		scope = date.Year()
	}

	custom, err := m.repo.LoadCustomHolidays(ctx)
	if err != nil {
		return err
	}
	if err := m.repo.SaveCustomHolidays(ctx, calendar.DeleteCustom(custom, date.Day(), date.Month(), scope)); err != nil {
		return err
	}

	deletions, err := m.repo.LoadDeletions(ctx)
	if err != nil {
		return err
	}
	d := calendar.Deletion{Day: date.Day(), Month: date.Month(), Year: scope}
	if err := m.repo.SaveDeletions(ctx, calendar.AddDeletion(deletions, d)); err != nil {
		return err
	}

	m.logger.Info("Holiday deleted",
		zap.String("date", dateutil.FormatISODate(date)),
		zap.Bool("this_year_only", thisYearOnly))
	return nil
}

// RestoreHoliday lifts soft deletions of the holiday on date
func (m *Manager) RestoreHoliday(ctx context.Context, date time.Time, thisYearOnly bool) error {
	scope := 0
	if thisYearOnly {
		scope = date.Year()
	}

	deletions, err := m.repo.LoadDeletions(ctx)
	if err != nil {
		return err
	}
	if err := m.repo.SaveDeletions(ctx, calendar.RestoreDeletion(deletions, date.Day(), date.Month(), scope)); err != nil {
		return err
	}

	m.logger.Info("Holiday restored",
		zap.String("date", dateutil.FormatISODate(date)),
		zap.Bool("this_year_only", thisYearOnly))
	return nil
}
