package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/username/shift-calendar/internal/calendar"
	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/planner"
	"github.com/username/shift-calendar/internal/rotation"
	"github.com/username/shift-calendar/internal/state"
	"github.com/username/shift-calendar/internal/stats"
	"github.com/username/shift-calendar/internal/storage"
)

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	repo := state.NewRepository(storage.NewMemoryStore(), zap.NewNop())
	m := planner.NewManager(repo, calendar.BuiltinCatalog{}, grid.DefaultPalette(), zap.NewNop())

	require.NoError(t, m.SetRotation(ctx, &rotation.Config{
		Shifts:   []rotation.Shift{{Letter: "A", Color: "#f00", Hours: 8}, {Letter: "B", Color: "#0000ff", Hours: 6}},
		Sequence: "AB",
		Anchor:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	view, err := m.Year(ctx, 2025)
	require.NoError(t, err)
	s, err := m.Statistics(ctx, 2025)
	require.NoError(t, err)

	data, err := Generate(view, s)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"2025", "Estadísticas"}, f.GetSheetList())

	month, err := f.GetCellValue("2025", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Enero", month)

	first, err := f.GetCellValue("2025", "B2")
	require.NoError(t, err)
	assert.Equal(t, "A", first)

	// February has no 30th
	missing, err := f.GetCellValue("2025", "AE3")
	require.NoError(t, err)
	assert.Empty(t, missing)

	label, err := f.GetCellValue("Estadísticas", "A15")
	require.NoError(t, err)
	assert.Equal(t, "Total", label)

	comments, err := f.GetComments("2025")
	require.NoError(t, err)
	require.NotEmpty(t, comments)
	assert.Equal(t, "B2", comments[0].Cell)
}

func TestWritersReportSheetErrors(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	view := &planner.YearView{Year: 2025}
	err := writeGrid(f, "Missing", view, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing!A1")

	err = writeStatistics(f, "Missing", stats.YearStatistics{Year: 2025}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing!A1")
}

func TestFillColor(t *testing.T) {
	assert.Equal(t, "FCA5A5", fillColor("#fca5a5"))
	assert.Equal(t, "FF0000", fillColor("#f00"))
	assert.Equal(t, "FFFFFF", fillColor("red"))
}
