package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/username/shift-calendar/internal/calendar"
	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/state"
	"github.com/username/shift-calendar/pkg/dateutil"
)

func holidayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holiday",
		Short: "List and customise holidays",
	}
	cmd.AddCommand(holidayListCmd())
	cmd.AddCommand(holidayAddCmd())
	cmd.AddCommand(holidayEditCmd())
	cmd.AddCommand(holidayDeleteCmd())
	cmd.AddCommand(holidayRestoreCmd())
	return cmd
}

func holidayListCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the holidays active in a year",
		RunE: withApp(func(ctx context.Context, a *app, w io.Writer) error {
			holidays, err := a.planner.Holidays(ctx, year)
			if err != nil {
				return fmt.Errorf("failed to list holidays: %w", err)
			}

			printHolidays(w, year, holidays)
			return nil
		}),
	}

	cmd.Flags().IntVar(&year, "year", dateutil.Today().Year(), "Calendar year")

	return cmd
}

func printHolidays(w io.Writer, year int, holidays []calendar.Holiday) {
	fmt.Fprintf(w, "📅 Holidays %d\n", year)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	for _, h := range holidays {
		// an every-year 29 February has no day in common years
		if h.Day > dateutil.DaysInMonth(h.Month, year) {
			continue
		}
		scope := "every year"
		if h.Year != 0 {
			scope = fmt.Sprintf("%d only", h.Year)
		}
		date := dateutil.Date(year, h.Month, h.Day)
		fmt.Fprintf(w, "  %s %s  %-10s %-30s %s\n",
			dateutil.FormatISODate(date), dateutil.WeekdayLetter(date), h.Kind, h.Description, scope)
	}
}

// holidayFlags are shared by add and edit
type holidayFlags struct {
	date     string
	desc     string
	kind     string
	allYears bool
}

func (f *holidayFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "Holiday date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.desc, "desc", "", "Description")
	cmd.Flags().StringVar(&f.kind, "kind", string(calendar.KindLocal), "nacional, autonomico or local")
	cmd.Flags().BoolVar(&f.allYears, "all-years", false, "Repeat every year")
}

func (f *holidayFlags) holiday() (calendar.Holiday, error) {
	date, err := state.ParseDate(f.date)
	if err != nil {
		return calendar.Holiday{}, err
	}
	kind, err := calendar.ParseKind(f.kind)
	if err != nil {
		return calendar.Holiday{}, err
	}

	h := calendar.Holiday{
		Day:         date.Day(),
		Month:       date.Month(),
		Description: f.desc,
		Kind:        kind,
	}
	if !f.allYears {
		h.Year = date.Year()
	}
	return h, nil
}

func holidayAddCmd() *cobra.Command {
	var flags holidayFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a custom holiday",
		RunE: withApp(func(ctx context.Context, a *app, w io.Writer) error {
			h, err := flags.holiday()
			if err != nil {
				return err
			}
			if err := a.planner.AddHoliday(ctx, h); err != nil {
				return fmt.Errorf("failed to add holiday: %w", err)
			}
			fmt.Fprintf(w, "✅ Added %s %d: %s\n", grid.MonthName(h.Month), h.Day, h.Description)
			return nil
		}),
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func holidayEditCmd() *cobra.Command {
	var original string
	var flags holidayFlags

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Replace a custom holiday",
		Example: `  shiftcal holiday edit --original 2025-05-15 --date 2025-05-16 --desc "San Isidro (traslado)"`,
		RunE: withApp(func(ctx context.Context, a *app, w io.Writer) error {
			from, err := state.ParseDate(original)
			if err != nil {
				return err
			}
			if flags.date == "" {
				flags.date = original
			}
			h, err := flags.holiday()
			if err != nil {
				return err
			}
			if err := a.planner.EditHoliday(ctx, from.Day(), from.Month(), from.Year(), h); err != nil {
				return fmt.Errorf("failed to edit holiday: %w", err)
			}
			fmt.Fprintf(w, "✅ Updated %s\n", original)
			return nil
		}),
	}

	cmd.Flags().StringVar(&original, "original", "", "Date of the holiday to edit (YYYY-MM-DD)")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("original")

	return cmd
}

func holidayDeleteCmd() *cobra.Command {
	var date string
	var thisYear bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a holiday, for one year or for all years",
		RunE: withApp(func(ctx context.Context, a *app, w io.Writer) error {
			day, err := state.ParseDate(date)
			if err != nil {
				return err
			}
			if err := a.planner.DeleteHoliday(ctx, day, thisYear); err != nil {
				return fmt.Errorf("failed to delete holiday: %w", err)
			}
			fmt.Fprintf(w, "✅ Deleted %s (%s)\n", date, scopeLabel(day, thisYear))
			return nil
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "Holiday date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&thisYear, "this-year", false, "Only delete it in the date's year")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func holidayRestoreCmd() *cobra.Command {
	var date string
	var thisYear bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore a deleted holiday",
		RunE: withApp(func(ctx context.Context, a *app, w io.Writer) error {
			day, err := state.ParseDate(date)
			if err != nil {
				return err
			}
			if err := a.planner.RestoreHoliday(ctx, day, thisYear); err != nil {
				return fmt.Errorf("failed to restore holiday: %w", err)
			}
			fmt.Fprintf(w, "✅ Restored %s (%s)\n", date, scopeLabel(day, thisYear))
			return nil
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "Holiday date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&thisYear, "this-year", false, "Only restore the date's year")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func scopeLabel(date time.Time, thisYear bool) string {
	if thisYear {
		return fmt.Sprintf("%d only", date.Year())
	}
	return "all years"
}
