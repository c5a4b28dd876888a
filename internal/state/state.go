package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/shift-calendar/internal/calendar"
	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/rotation"
	"github.com/username/shift-calendar/internal/storage"
	"github.com/username/shift-calendar/pkg/dateutil"
)

// Store keys
const (
	KeyConfig         = "configuracionTurnos"
	KeyCellsPrefix    = "celdasTurnos_"
	KeyCustomHolidays = "festivosPersonalizados"
	KeyDeletions      = "festivosEliminados"
	KeyStatistics     = "estadisticasTurnos"
)

// ErrInvalidDate is returned for dates that are not YYYY-MM-DD
var ErrInvalidDate = errors.New("invalid date")

// CellsKey returns the store key holding the overrides of year
func CellsKey(year int) string {
	return KeyCellsPrefix + strconv.Itoa(year)
}

// ParseCellsKey extracts the year from a cells key
func ParseCellsKey(key string) (int, bool) {
	rest, found := strings.CutPrefix(key, KeyCellsPrefix)
	if !found {
		return 0, false
	}
	year, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return year, true
}

// ParseDate parses a YYYY-MM-DD date argument
func ParseDate(s string) (time.Time, error) {
	date, err := dateutil.ParseISODate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return date, nil
}

// Statistics is the persisted statistics record: the user's expected hours
// and the last computed per-month totals
type Statistics struct {
	ExpectedHours float64
	HoursByMonth  map[time.Month]float64
}

// Repository reads and writes typed records through a key-value store.
// Reads fail open: malformed records are logged and treated as absent.
type Repository struct {
	store  storage.Store
	logger *zap.Logger
}

// NewRepository creates a new repository over store
func NewRepository(store storage.Store, logger *zap.Logger) *Repository {
	return &Repository{
		store:  store,
		logger: logger,
	}
}

// Store returns the underlying key-value store
func (r *Repository) Store() storage.Store {
	return r.store
}

// read returns the raw record at key; ok is false when it is absent
func (r *Repository) read(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" || raw == "null" {
		return nil, false, nil
	}
	return []byte(raw), true, nil
}

func (r *Repository) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (r *Repository) malformed(key string, err error) {
	r.logger.Warn("Ignoring malformed record",
		zap.String("key", key),
		zap.Error(err))
}

// LoadConfig returns the rotation configuration, or nil when none is stored
func (r *Repository) LoadConfig(ctx context.Context) (*rotation.Config, error) {
	raw, ok, err := r.read(ctx, KeyConfig)
	if err != nil || !ok {
		return nil, err
	}

	cfg, err := DecodeConfig(raw)
	if err != nil {
		r.malformed(KeyConfig, err)
	}
	// with a bad anchor the shifts stay usable for manual assignment
	return cfg, nil
}

// DecodeConfig parses a serialized rotation in either key set. When only the
// anchor is unparseable the config is returned with a zero anchor alongside
// the error.
func DecodeConfig(raw []byte) (*rotation.Config, error) {
	var w wireConfigIn
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}

	shifts := w.Turnos
	if len(shifts) == 0 {
		shifts = w.Shifts
	}
	cfg := &rotation.Config{
		Shifts:   make([]rotation.Shift, 0, len(shifts)),
		Sequence: firstNonEmpty(w.Secuencia, w.Sequence),
	}
	for _, s := range shifts {
		cfg.Shifts = append(cfg.Shifts, s.shift())
	}

	anchor, err := rotation.ParseAnchor(firstNonEmpty(w.FechaInicio, w.AnchorDate, w.StartDate))
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	cfg.Anchor = anchor

	return cfg, nil
}

// SaveConfig validates and replaces the rotation configuration
func (r *Repository) SaveConfig(ctx context.Context, cfg *rotation.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid rotation: %w", err)
	}
	if unknown := cfg.UnknownLetters(); len(unknown) > 0 {
		r.logger.Warn("Sequence references unregistered letters",
			zap.Strings("letters", unknown))
	}
	if err := r.write(ctx, KeyConfig, configToWire(cfg)); err != nil {
		return err
	}

	r.logger.Info("Rotation saved",
		zap.Int("shifts", len(cfg.Shifts)),
		zap.String("sequence", cfg.Sequence))
	return nil
}

// LoadOverrides returns the override map of year, keyed by grid.CellKey.
// Entries with unparseable keys are dropped.
func (r *Repository) LoadOverrides(ctx context.Context, year int) (map[string]grid.Override, error) {
	key := CellsKey(year)
	overrides := make(map[string]grid.Override)

	raw, ok, err := r.read(ctx, key)
	if err != nil || !ok {
		return overrides, err
	}

	parsed, err := DecodeOverrides(raw)
	if err != nil {
		r.malformed(key, err)
		return overrides, nil
	}
	for k, o := range parsed {
		if _, _, err := grid.ParseCellKey(k); err != nil {
			r.malformed(key, err)
			continue
		}
		if o.IsZero() {
			continue
		}
		overrides[k] = o
	}
	return overrides, nil
}

// DecodeOverrides parses a stored override map without validating its keys
func DecodeOverrides(raw []byte) (map[string]grid.Override, error) {
	var w map[string]wireOverrideIn
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	overrides := make(map[string]grid.Override, len(w))
	for k, o := range w {
		overrides[k] = o.override()
	}
	return overrides, nil
}

// EncodeOverrides renders an override map in the stored format
func EncodeOverrides(overrides map[string]grid.Override) ([]byte, error) {
	w := make(map[string]wireOverride, len(overrides))
	for k, o := range overrides {
		w[k] = overrideToWire(o)
	}
	return json.Marshal(w)
}

// SaveOverrides replaces the override map of year
func (r *Repository) SaveOverrides(ctx context.Context, year int, overrides map[string]grid.Override) error {
	w := make(map[string]wireOverride, len(overrides))
	for k, o := range overrides {
		w[k] = overrideToWire(o)
	}
	return r.write(ctx, CellsKey(year), w)
}

// SetOverride stores the override of a single day. A zero override clears it.
func (r *Repository) SetOverride(ctx context.Context, date time.Time, o grid.Override) error {
	overrides, err := r.LoadOverrides(ctx, date.Year())
	if err != nil {
		return err
	}

	key := grid.DateKey(date)
	if o.IsZero() {
		delete(overrides, key)
	} else {
		overrides[key] = o
	}

	if err := r.SaveOverrides(ctx, date.Year(), overrides); err != nil {
		return err
	}

	r.logger.Info("Override saved",
		zap.String("date", dateutil.FormatISODate(date)),
		zap.String("letter", o.Content),
		zap.Bool("cleared", o.IsZero()))
	return nil
}

// ClearOverride removes the override of a single day
func (r *Repository) ClearOverride(ctx context.Context, date time.Time) error {
	return r.SetOverride(ctx, date, grid.Override{})
}

// OverrideYears lists every year with a stored override map
func (r *Repository) OverrideYears(ctx context.Context) ([]int, error) {
	keys, err := r.store.Keys(ctx, KeyCellsPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list override years: %w", err)
	}
	years := make([]int, 0, len(keys))
	for _, k := range keys {
		if year, ok := ParseCellsKey(k); ok {
			years = append(years, year)
		}
	}
	return years, nil
}

// decodeHolidays parses a stored holiday list, skipping records with an
// invalid day or month
func (r *Repository) decodeHolidays(key string, raw []byte) []wireHolidayIn {
	var w []wireHolidayIn
	if err := json.Unmarshal(raw, &w); err != nil {
		r.malformed(key, err)
		return nil
	}
	return w
}

// LoadCustomHolidays returns the user-defined holidays
func (r *Repository) LoadCustomHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	raw, ok, err := r.read(ctx, KeyCustomHolidays)
	if err != nil || !ok {
		return nil, err
	}

	var holidays []calendar.Holiday
	for _, w := range r.decodeHolidays(KeyCustomHolidays, raw) {
		day, month, year, ok := w.fields()
		if !ok {
			r.malformed(KeyCustomHolidays, fmt.Errorf("invalid day or month in %+v", w))
			continue
		}
		kind, err := calendar.ParseKind(firstNonEmpty(w.Tipo, w.Kind))
		if err != nil {
			kind = calendar.KindLocal
		}
		holidays = append(holidays, calendar.Holiday{
			Day:         day,
			Month:       month,
			Description: firstNonEmpty(w.Descripcion, w.Description),
			Kind:        kind,
			Year:        year,
		})
	}
	return holidays, nil
}

// SaveCustomHolidays replaces the user-defined holidays
func (r *Repository) SaveCustomHolidays(ctx context.Context, holidays []calendar.Holiday) error {
	w := make([]wireHoliday, 0, len(holidays))
	for _, h := range holidays {
		w = append(w, holidayToWire(h))
	}
	return r.write(ctx, KeyCustomHolidays, w)
}

// LoadDeletions returns the soft-deleted fixed and computed holidays
func (r *Repository) LoadDeletions(ctx context.Context) ([]calendar.Deletion, error) {
	raw, ok, err := r.read(ctx, KeyDeletions)
	if err != nil || !ok {
		return nil, err
	}

	var deletions []calendar.Deletion
	for _, w := range r.decodeHolidays(KeyDeletions, raw) {
		day, month, year, ok := w.fields()
		if !ok {
			r.malformed(KeyDeletions, fmt.Errorf("invalid day or month in %+v", w))
			continue
		}
		deletions = append(deletions, calendar.Deletion{Day: day, Month: month, Year: year})
	}
	return deletions, nil
}

// SaveDeletions replaces the soft-deleted holiday list
func (r *Repository) SaveDeletions(ctx context.Context, deletions []calendar.Deletion) error {
	w := make([]wireDeletion, 0, len(deletions))
	for _, d := range deletions {
		w = append(w, deletionToWire(d))
	}
	return r.write(ctx, KeyDeletions, w)
}

// LoadStatistics returns the persisted statistics record
func (r *Repository) LoadStatistics(ctx context.Context) (Statistics, error) {
	s := Statistics{HoursByMonth: make(map[time.Month]float64)}

	raw, ok, err := r.read(ctx, KeyStatistics)
	if err != nil || !ok {
		return s, err
	}

	var w wireStatisticsIn
	if err := json.Unmarshal(raw, &w); err != nil {
		r.malformed(KeyStatistics, err)
		return s, nil
	}

	s.ExpectedHours = w.HorasRealesEsperadas
	if s.ExpectedHours == 0 && w.ExpectedHours != nil {
		s.ExpectedHours = *w.ExpectedHours
	}

	byMonth := w.HorasPorMes
	if len(byMonth) == 0 {
		byMonth = w.HoursByMonth
	}
	for k, h := range byMonth {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx > 11 {
			continue
		}
		s.HoursByMonth[time.Month(idx+1)] = h
	}
	return s, nil
}

// SaveStatistics replaces the statistics record
func (r *Repository) SaveStatistics(ctx context.Context, s Statistics) error {
	return r.write(ctx, KeyStatistics, statisticsToWire(s))
}

// Snapshot is everything the core needs to resolve one year
type Snapshot struct {
	Year      int
	Config    *rotation.Config
	Overrides map[string]grid.Override
	Custom    []calendar.Holiday
	Deletions []calendar.Deletion
	Stats     Statistics
}

// LoadSnapshot reads every record that affects year
func (r *Repository) LoadSnapshot(ctx context.Context, year int) (*Snapshot, error) {
	snap := &Snapshot{Year: year}
	var err error

	if snap.Config, err = r.LoadConfig(ctx); err != nil {
		return nil, err
	}
	if snap.Overrides, err = r.LoadOverrides(ctx, year); err != nil {
		return nil, err
	}
	if snap.Custom, err = r.LoadCustomHolidays(ctx); err != nil {
		return nil, err
	}
	if snap.Deletions, err = r.LoadDeletions(ctx); err != nil {
		return nil, err
	}
	if snap.Stats, err = r.LoadStatistics(ctx); err != nil {
		return nil, err
	}

	return snap, nil
}
