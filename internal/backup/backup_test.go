package backup

import (
	"context"
	"encoding/json"
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

func seed(t *testing.T, repo *state.Repository) {
	t.Helper()
	ctx := context.Background()
	eight := 8.0

	require.NoError(t, repo.SaveConfig(ctx, &rotation.Config{
		Shifts: []rotation.Shift{
			{Letter: "M", Name: "Mañana", Color: "#fde68a", Hours: 7},
			{Letter: "L", Name: "Libre", Color: "#ffffff", Hours: 0},
		},
		Sequence: "MML",
		Anchor:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, repo.SetOverride(ctx, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), grid.Override{Content: "L"}))
	require.NoError(t, repo.SetOverride(ctx, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), grid.Override{Content: "M", Color: "#000000", Hours: &eight}))
	require.NoError(t, repo.SaveCustomHolidays(ctx, []calendar.Holiday{
		{Day: 2, Month: time.February, Description: "Candelaria", Kind: calendar.KindLocal},
	}))
	require.NoError(t, repo.SaveDeletions(ctx, []calendar.Deletion{{Day: 25, Month: time.December, Year: 2024}}))
	require.NoError(t, repo.SaveStatistics(ctx, state.Statistics{
		ExpectedHours: 1600,
		HoursByMonth:  map[time.Month]float64{time.March: 140},
	}))
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	src := state.NewRepository(storage.NewMemoryStore(), logger)
	seed(t, src)

	data, err := NewService(src.Store(), logger).ExportJSON(ctx)
	require.NoError(t, err)

	// payloads are JSON strings, as the stored records were
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.IsType(t, "", doc["configuracionTurnos"])
	assert.IsType(t, "", doc["celdas"])
	assert.NotEmpty(t, doc["fechaExportacion"])

	dst := state.NewRepository(storage.NewMemoryStore(), logger)
	summary, err := NewService(dst.Store(), logger).Import(ctx, data, 2030)
	require.NoError(t, err)
	assert.True(t, summary.Config)
	assert.True(t, summary.CustomHolidays)
	assert.True(t, summary.Deletions)
	assert.True(t, summary.Statistics)
	assert.False(t, summary.Legacy)
	assert.Equal(t, []int{2024, 2025}, summary.CellYears)

	for _, year := range []int{2024, 2025} {
		want, err := src.LoadSnapshot(ctx, year)
		require.NoError(t, err)
		got, err := dst.LoadSnapshot(ctx, year)
		require.NoError(t, err)
		assert.Equal(t, want, got, "snapshot %d", year)
	}

	empty, err := dst.LoadOverrides(ctx, 2030)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestImport_LegacyCells(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := state.NewRepository(store, zap.NewNop())

	bundle := `{"celdas": "{\"Enero-1\":{\"contenido\":\"M\"},\"Enero-2\":{\"contenido\":\"L\"}}"}`
	summary, err := NewService(store, zap.NewNop()).Import(ctx, []byte(bundle), 2024)
	require.NoError(t, err)
	assert.True(t, summary.Legacy)
	assert.Equal(t, []int{2024}, summary.CellYears)

	overrides, err := repo.LoadOverrides(ctx, 2024)
	require.NoError(t, err)
	assert.Len(t, overrides, 2)
	assert.Equal(t, "L", overrides["Enero-2"].Content)
}

func TestImport_InlineValues(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := state.NewRepository(store, zap.NewNop())

	bundle := `{
		"configuracionTurnos": {"turnos": [{"letra": "A", "horas": 8}], "secuencia": "A", "fechaInicio": "2024-01-01"},
		"festivosEliminados": [{"dia": 6, "mes": 0}],
		"celdas": {"2024": {"Junio-1": {"contenido": "A"}}}
	}`
	summary, err := NewService(store, zap.NewNop()).Import(ctx, []byte(bundle), 2025)
	require.NoError(t, err)
	assert.True(t, summary.Config)
	assert.False(t, summary.CustomHolidays)
	assert.Equal(t, []int{2024}, summary.CellYears)

	cfg, err := repo.LoadConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "A", cfg.Sequence)

	deletions, err := repo.LoadDeletions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []calendar.Deletion{{Day: 6, Month: time.January}}, deletions)
}

func TestImport_Errors(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), zap.NewNop())

	_, err := svc.Import(ctx, []byte(`{"fechaExportacion": "2024-01-01T00:00:00.000Z"}`), 2024)
	assert.ErrorIs(t, err, ErrEmptyBundle)

	_, err = svc.Import(ctx, []byte(`{"configuracionTurnos": null, "celdas": "{}"}`), 2024)
	assert.ErrorIs(t, err, ErrEmptyBundle)

	_, err = svc.Import(ctx, []byte(`not json`), 2024)
	assert.ErrorIs(t, err, ErrMalformedBundle)

	_, err = svc.Import(ctx, []byte(`{"configuracionTurnos": "{broken"}`), 2024)
	assert.ErrorIs(t, err, ErrMalformedBundle)
}
