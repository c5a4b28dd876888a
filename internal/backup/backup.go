package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/username/shift-calendar/internal/state"
	"github.com/username/shift-calendar/internal/storage"
)

// ErrEmptyBundle is returned when an import carries no recognised data
var ErrEmptyBundle = errors.New("bundle contains no data")

// ErrMalformedBundle is returned when the bundle or one of its fields is not valid JSON
var ErrMalformedBundle = errors.New("malformed bundle")

var yearKey = regexp.MustCompile(`^\d{4}$`)

// Bundle is the export document. Payload fields hold the stored JSON text of
// each record, as strings.
type Bundle struct {
	Config         *string `json:"configuracionTurnos"`
	CustomHolidays *string `json:"festivosPersonalizados"`
	Deletions      *string `json:"festivosEliminados"`
	Statistics     *string `json:"estadisticasTurnos"`
	Cells          *string `json:"celdas"`
	ExportedAt     string  `json:"fechaExportacion"`
}

// Summary reports what an import wrote
type Summary struct {
	Config         bool
	CustomHolidays bool
	Deletions      bool
	Statistics     bool
	CellYears      []int
	Legacy         bool
}

// Empty reports whether nothing was imported
func (s Summary) Empty() bool {
	return !s.Config && !s.CustomHolidays && !s.Deletions && !s.Statistics && len(s.CellYears) == 0
}

// Service moves whole store contents in and out as a bundle
type Service struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new backup service
func NewService(store storage.Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Export collects every record into a bundle
func (s *Service) Export(ctx context.Context) (*Bundle, error) {
	b := &Bundle{ExportedAt: s.now().UTC().Format("2006-01-02T15:04:05.000Z")}

	fields := []struct {
		key string
		dst **string
	}{
		{state.KeyConfig, &b.Config},
		{state.KeyCustomHolidays, &b.CustomHolidays},
		{state.KeyDeletions, &b.Deletions},
		{state.KeyStatistics, &b.Statistics},
	}
	for _, f := range fields {
		v, ok, err := s.store.Get(ctx, f.key)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", f.key, err)
		}
		if ok {
			*f.dst = &v
		}
	}

	keys, err := s.store.Keys(ctx, state.KeyCellsPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list cells: %w", err)
	}

	cells := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		year, ok := state.ParseCellsKey(key)
		if !ok {
			continue
		}
		v, found, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", key, err)
		}
		if !found || !json.Valid([]byte(v)) {
			s.logger.Warn("Skipping malformed cells record", zap.String("key", key))
			continue
		}
		cells[strconv.Itoa(year)] = json.RawMessage(v)
	}

	data, err := json.Marshal(cells)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cells: %w", err)
	}
	encoded := string(data)
	b.Cells = &encoded

	s.logger.Info("Data exported",
		zap.Int("cell_years", len(cells)))

	return b, nil
}

// ExportJSON renders the bundle as indented JSON
func (s *Service) ExportJSON(ctx context.Context) ([]byte, error) {
	b, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(b, "", "  ")
}

// rawBundle accepts payload fields as JSON strings or inline values
type rawBundle struct {
	Config         json.RawMessage `json:"configuracionTurnos"`
	CustomHolidays json.RawMessage `json:"festivosPersonalizados"`
	Deletions      json.RawMessage `json:"festivosEliminados"`
	Statistics     json.RawMessage `json:"estadisticasTurnos"`
	Cells          json.RawMessage `json:"celdas"`
	ExportedAt     string          `json:"fechaExportacion"`
}

// payload unwraps a field that is either a JSON string holding JSON text or
// an inline JSON value. Absent, null and empty values yield nil.
func payload(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '"' {
		return raw, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	if !json.Valid([]byte(text)) {
		return nil, errors.New("field does not contain JSON")
	}
	return []byte(text), nil
}

// Import writes every present bundle field into the store. Year-keyed cells
// go to their own years; a legacy flat cell map goes to currentYear.
func (s *Service) Import(ctx context.Context, data []byte, currentYear int) (Summary, error) {
	var summary Summary

	var b rawBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return summary, fmt.Errorf("%w: %v", ErrMalformedBundle, err)
	}

	fields := []struct {
		key  string
		raw  json.RawMessage
		flag *bool
	}{
		{state.KeyConfig, b.Config, &summary.Config},
		{state.KeyCustomHolidays, b.CustomHolidays, &summary.CustomHolidays},
		{state.KeyDeletions, b.Deletions, &summary.Deletions},
		{state.KeyStatistics, b.Statistics, &summary.Statistics},
	}
	for _, f := range fields {
		value, err := payload(f.raw)
		if err != nil {
			return summary, fmt.Errorf("%w: %s: %v", ErrMalformedBundle, f.key, err)
		}
		if value == nil {
			continue
		}
		if err := s.store.Set(ctx, f.key, string(value)); err != nil {
			return summary, fmt.Errorf("failed to import %s: %w", f.key, err)
		}
		*f.flag = true
	}

	cells, err := payload(b.Cells)
	if err != nil {
		return summary, fmt.Errorf("%w: celdas: %v", ErrMalformedBundle, err)
	}
	if cells != nil {
		if err := s.importCells(ctx, cells, currentYear, &summary); err != nil {
			return summary, err
		}
	}

	if summary.Empty() {
		return summary, ErrEmptyBundle
	}

	s.logger.Info("Data imported",
		zap.Bool("config", summary.Config),
		zap.Bool("custom_holidays", summary.CustomHolidays),
		zap.Bool("deletions", summary.Deletions),
		zap.Bool("statistics", summary.Statistics),
		zap.Ints("cell_years", summary.CellYears),
		zap.Bool("legacy", summary.Legacy))

	return summary, nil
}

func (s *Service) importCells(ctx context.Context, data []byte, currentYear int, summary *Summary) error {
	var byKey map[string]json.RawMessage
	if err := json.Unmarshal(data, &byKey); err != nil {
		return fmt.Errorf("%w: celdas: %v", ErrMalformedBundle, err)
	}
	if len(byKey) == 0 {
		return nil
	}

	yearKeyed := false
	for k := range byKey {
		if yearKey.MatchString(k) {
			yearKeyed = true
			break
		}
	}

	if !yearKeyed {
		if err := s.store.Set(ctx, state.CellsKey(currentYear), string(data)); err != nil {
			return fmt.Errorf("failed to import cells: %w", err)
		}
		summary.CellYears = []int{currentYear}
		summary.Legacy = true
		return nil
	}

	for k, v := range byKey {
		year, err := strconv.Atoi(k)
		if err != nil || !yearKey.MatchString(k) {
			s.logger.Warn("Skipping non-year cells entry", zap.String("key", k))
			continue
		}
		if err := s.store.Set(ctx, state.CellsKey(year), string(v)); err != nil {
			return fmt.Errorf("failed to import cells for %d: %w", year, err)
		}
		summary.CellYears = append(summary.CellYears, year)
	}
	sort.Ints(summary.CellYears)
	return nil
}
