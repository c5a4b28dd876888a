package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/planner"
	"github.com/username/shift-calendar/internal/stats"
)

const statsSheet = "Estadísticas"

// Generate renders the year grid and its statistics as an XLSX workbook
func Generate(view *planner.YearView, s stats.YearStatistics) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := strconv.Itoa(view.Year)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := writeGrid(f, sheet, view, headerStyle); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(statsSheet); err != nil {
		return nil, fmt.Errorf("create statistics sheet: %w", err)
	}
	if err := writeStatistics(f, statsSheet, s, headerStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeGrid(f *excelize.File, sheet string, view *planner.YearView, headerStyle int) error {
	if err := setCell(f, sheet, 1, 1, "Mes"); err != nil {
		return err
	}
	for day := 1; day <= 31; day++ {
		if err := setCell(f, sheet, day+1, 1, day); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", cellName(32, 1), headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	styles := make(map[string]int)
	for i, cells := range view.Months {
		row := i + 2
		if err := setCell(f, sheet, 1, row, grid.MonthName(time.Month(i+1))); err != nil {
			return err
		}

		for _, cell := range cells {
			col := cell.Date.Day() + 1
			ref := cellName(col, row)
			if err := setCell(f, sheet, col, row, cell.Letter); err != nil {
				return err
			}

			styleID, ok := styles[cell.Color]
			if !ok {
				var err error
				styleID, err = f.NewStyle(&excelize.Style{
					Fill:      excelize.Fill{Type: "pattern", Color: []string{fillColor(cell.Color)}, Pattern: 1},
					Alignment: &excelize.Alignment{Horizontal: "center"},
				})
				if err != nil {
					return fmt.Errorf("cell style %q: %w", cell.Color, err)
				}
				styles[cell.Color] = styleID
			}
			if err := f.SetCellStyle(sheet, ref, ref, styleID); err != nil {
				return fmt.Errorf("style %s: %w", ref, err)
			}

			if cell.Holiday != nil {
				err := f.AddComment(sheet, excelize.Comment{
					Cell:   ref,
					Author: "shiftcal",
					Text:   cell.Holiday.Description,
				})
				if err != nil {
					return fmt.Errorf("comment %s: %w", ref, err)
				}
			}
		}
	}

	err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})
	if err != nil {
		return fmt.Errorf("freeze panes: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 14); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "AF", 4); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	return nil
}

func writeStatistics(f *excelize.File, sheet string, s stats.YearStatistics, headerStyle int) error {
	letters := s.Letters()

	headers := []string{"Mes", "Horas"}
	headers = append(headers, letters...)
	for i, name := range headers {
		if err := setCell(f, sheet, i+1, 1, name); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", cellName(len(headers), 1), headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for m := time.January; m <= time.December; m++ {
		row := int(m) + 1
		values := []any{grid.MonthName(m), s.HoursByMonth[m]}
		for _, letter := range letters {
			values = append(values, s.ShiftsByMonth[m][letter].Count)
		}
		if err := setRow(f, sheet, row, values...); err != nil {
			return err
		}
	}

	summary := []struct {
		label string
		value float64
	}{
		{"Total", s.TotalHours},
		{"Esperadas", s.ExpectedHours},
		{"Diferencia", s.Difference()},
	}
	for i, line := range summary {
		if err := setRow(f, sheet, 15+i, line.label, line.value); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 14); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	ref := cellName(col, row)
	if err := f.SetCellValue(sheet, ref, value); err != nil {
		return fmt.Errorf("set %s!%s: %w", sheet, ref, err)
	}
	return nil
}

// setRow writes values left to right starting at column A
func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		if err := setCell(f, sheet, i+1, row, v); err != nil {
			return err
		}
	}
	return nil
}

// fillColor converts #rgb / #rrggbb to the RRGGBB form excelize expects
func fillColor(color string) string {
	hex := strings.TrimPrefix(color, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return "FFFFFF"
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return "FFFFFF"
	}
	return strings.ToUpper(hex)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
