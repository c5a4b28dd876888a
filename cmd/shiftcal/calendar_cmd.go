package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/planner"
	"github.com/username/shift-calendar/internal/rotation"
	"github.com/username/shift-calendar/internal/state"
	"github.com/username/shift-calendar/internal/stats"
	"github.com/username/shift-calendar/pkg/dateutil"
)

func gridCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the shift grid of a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initializeApp()
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.planner.Year(cmd.Context(), year)
			if err != nil {
				return fmt.Errorf("failed to build grid: %w", err)
			}

			printGrid(cmd.OutOrStdout(), view)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", dateutil.Today().Year(), "Calendar year")

	return cmd
}

func printGrid(w io.Writer, view *planner.YearView) {
	fmt.Fprintf(w, "%d\n", view.Year)
	fmt.Fprintf(w, "%-11s", "")
	for day := 1; day <= 31; day++ {
		fmt.Fprintf(w, "%3d", day)
	}
	fmt.Fprintln(w)

	for i, cells := range view.Months {
		fmt.Fprintf(w, "%-11s", grid.MonthName(time.Month(i+1)))
		for _, cell := range cells {
			fmt.Fprintf(w, "%3s", cellLabel(cell))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "\nLegend: * holiday, . weekend, ! manual, - no shift")
	if len(view.Holidays) > 0 {
		fmt.Fprintln(w, "\nHolidays:")
		for _, h := range view.Holidays {
			fmt.Fprintf(w, "  %2d %-11s %-10s %s\n", h.Day, grid.MonthName(h.Month), h.Kind, h.Description)
		}
	}
}

func cellLabel(cell grid.Cell) string {
	label := cell.Letter
	if label == "" {
		label = "-"
	}
	switch {
	case cell.Manual:
		label += "!"
	case cell.Holiday != nil:
		label += "*"
	case cell.Weekend:
		label += "."
	}
	return label
}

func statsCmd() *cobra.Command {
	var year int
	var expected float64

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show hours per month and shift tallies",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initializeApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("expected") {
				if err := a.planner.SetExpectedHours(cmd.Context(), expected); err != nil {
					return fmt.Errorf("failed to set expected hours: %w", err)
				}
			}

			s, err := a.planner.Statistics(cmd.Context(), year)
			if err != nil {
				return fmt.Errorf("failed to compute statistics: %w", err)
			}

			printStatistics(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", dateutil.Today().Year(), "Calendar year")
	cmd.Flags().Float64Var(&expected, "expected", 0, "Set the expected yearly hours")

	return cmd
}

func printStatistics(w io.Writer, s stats.YearStatistics) {
	letters := s.Letters()

	fmt.Fprintf(w, "📊 Statistics %d\n", s.Year)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %-11s %8s", "Month", "Hours")
	for _, letter := range letters {
		fmt.Fprintf(w, " %5s", letter)
	}
	fmt.Fprintln(w)

	for m := time.January; m <= time.December; m++ {
		fmt.Fprintf(w, "  %-11s %7.1fh", grid.MonthName(m), s.HoursByMonth[m])
		for _, letter := range letters {
			fmt.Fprintf(w, " %5d", s.ShiftsByMonth[m][letter].Count)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "───────────────────────────────────────────────────────")
	totals := s.ShiftTotals()
	for _, letter := range letters {
		fmt.Fprintf(w, "  %-5s %4d days  %7.1fh\n", letter, totals[letter].Count, totals[letter].Hours)
	}
	fmt.Fprintf(w, "  Total:      %7.1fh\n", s.TotalHours)
	fmt.Fprintf(w, "  Expected:   %7.1fh\n", s.ExpectedHours)
	fmt.Fprintf(w, "  Difference: %+7.1fh\n", s.Difference())
}

func rotationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotation",
		Short: "Show or replace the shift rotation",
	}
	cmd.AddCommand(rotationShowCmd())
	cmd.AddCommand(rotationSetCmd())
	return cmd
}

func rotationShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current rotation",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initializeApp()
			if err != nil {
				return err
			}
			defer a.Close()

			cfg, err := a.planner.Rotation(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load rotation: %w", err)
			}

			w := cmd.OutOrStdout()
			if cfg == nil {
				fmt.Fprintln(w, "No rotation configured")
				return nil
			}

			anchor := "unset"
			if !cfg.Anchor.IsZero() {
				anchor = dateutil.FormatISODate(cfg.Anchor)
			}
			fmt.Fprintf(w, "Sequence: %s\n", cfg.Sequence)
			fmt.Fprintf(w, "Anchor:   %s\n", anchor)
			fmt.Fprintln(w, "Shifts:")
			for _, s := range cfg.Shifts {
				fmt.Fprintf(w, "  %-3s %-20s %-8s %5.1fh\n", s.Letter, s.Name, s.Color, s.Hours)
			}
			if unknown := cfg.UnknownLetters(); len(unknown) > 0 {
				fmt.Fprintf(w, "Warning: sequence uses unregistered letters %s\n", strings.Join(unknown, ", "))
			}
			return nil
		},
	}
}

func rotationSetCmd() *cobra.Command {
	var file, sequence, anchor string
	var shifts []string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the rotation",
		Example: `  shiftcal rotation set --file rotation.json
  shiftcal rotation set --sequence MMTTNNLL --anchor 2025-01-06 \
    --shift "M:Mañana:#fde68a:7" --shift "T:Tarde:#a7f3d0:7" \
    --shift "N:Noche:#1e3a8a:10" --shift "L:Libre:#ffffff:0"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *rotation.Config
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read rotation file: %w", err)
				}
				if cfg, err = state.DecodeConfig(raw); err != nil {
					return fmt.Errorf("failed to parse rotation file: %w", err)
				}
			} else {
				start, err := rotation.ParseAnchor(anchor)
				if err != nil {
					return fmt.Errorf("invalid --anchor: %w", err)
				}
				cfg = &rotation.Config{Sequence: sequence, Anchor: start}
				for _, raw := range shifts {
					s, err := parseShiftFlag(raw)
					if err != nil {
						return err
					}
					cfg.Shifts = append(cfg.Shifts, s)
				}
			}

			a, err := initializeApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.planner.SetRotation(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("failed to save rotation: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Rotation saved: %d shifts, sequence %q\n", len(cfg.Shifts), cfg.Sequence)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Rotation JSON file")
	cmd.Flags().StringVar(&sequence, "sequence", "", "Repeating letter sequence")
	cmd.Flags().StringVar(&anchor, "anchor", "", "Date of the first sequence position (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&shifts, "shift", nil, "Shift as LETTER:Name:#color:hours (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("file", "sequence")
	cmd.MarkFlagsMutuallyExclusive("file", "shift")

	return cmd
}

// parseShiftFlag parses LETTER:Name:#color:hours; trailing parts are optional
func parseShiftFlag(raw string) (rotation.Shift, error) {
	parts := strings.SplitN(raw, ":", 4)
	s := rotation.Shift{Letter: parts[0]}
	if len(parts) > 1 {
		s.Name = parts[1]
	}
	if len(parts) > 2 {
		s.Color = parts[2]
	}
	if len(parts) > 3 && parts[3] != "" {
		hours, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return rotation.Shift{}, fmt.Errorf("invalid hours in --shift %q: %w", raw, err)
		}
		s.Hours = hours
	}
	return s, nil
}

func overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manually assign or clear a day",
	}
	cmd.AddCommand(overrideSetCmd())
	cmd.AddCommand(overrideAssignCmd())
	cmd.AddCommand(overrideClearCmd())
	return cmd
}

func overrideSetCmd() *cobra.Command {
	var date, letter, color string
	var hours float64

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set a day's content, color and hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := state.ParseDate(date)
			if err != nil {
				return err
			}
			o := grid.Override{Content: letter, Color: color}
			if cmd.Flags().Changed("hours") {
				if hours < 0 {
					return fmt.Errorf("--hours must not be negative")
				}
				o.Hours = &hours
			}
			if color != "" && !rotation.IsColor(color) {
				return fmt.Errorf("--color must be #rgb or #rrggbb, got %q", color)
			}

			return withApp(func(ctx context.Context, a *app, w io.Writer) error {
				if err := a.planner.SetOverride(ctx, day, o); err != nil {
					return fmt.Errorf("failed to set override: %w", err)
				}
				fmt.Fprintf(w, "✅ %s set to %q\n", date, letter)
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&letter, "letter", "", "Cell content")
	cmd.Flags().StringVar(&color, "color", "", "Cell color (#rrggbb)")
	cmd.Flags().Float64Var(&hours, "hours", 0, "Hours worked that day")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func overrideAssignCmd() *cobra.Command {
	var date, letter string

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a registered shift to a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := state.ParseDate(date)
			if err != nil {
				return err
			}

			return withApp(func(ctx context.Context, a *app, w io.Writer) error {
				if err := a.planner.AssignShift(ctx, day, letter); err != nil {
					return fmt.Errorf("failed to assign shift: %w", err)
				}
				fmt.Fprintf(w, "✅ %s assigned %q\n", date, letter)
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&letter, "letter", "", "Shift letter (empty clears the day)")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func overrideClearCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove a day's manual assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := state.ParseDate(date)
			if err != nil {
				return err
			}

			return withApp(func(ctx context.Context, a *app, w io.Writer) error {
				if err := a.planner.ClearOverride(ctx, day); err != nil {
					return fmt.Errorf("failed to clear override: %w", err)
				}
				fmt.Fprintf(w, "✅ %s cleared\n", date)
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

// withApp runs fn against a freshly initialized app
func withApp(fn func(ctx context.Context, a *app, w io.Writer) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := initializeApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := fn(cmd.Context(), a, cmd.OutOrStdout()); err != nil {
			logger.Debug("Command failed", zap.String("command", cmd.CommandPath()), zap.Error(err))
			return err
		}
		return nil
	}
}
