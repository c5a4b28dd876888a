package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/shift-calendar/internal/api"
	"github.com/username/shift-calendar/internal/report"
	"github.com/username/shift-calendar/pkg/dateutil"
)

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored record to a backup file",
		RunE: withApp(func(ctx context.Context, a *app, w io.Writer) error {
			data, err := a.backup.ExportJSON(ctx)
			if err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}

			if out == "" || out == "-" {
				_, err := w.Write(append(data, '\n'))
				return err
			}
			if err := writeOutput(out, data); err != nil {
				return err
			}
			fmt.Fprintf(w, "✅ Backup written to %s\n", out)
			return nil
		}),
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")

	return cmd
}

func importCmd() *cobra.Command {
	var in string
	var year int

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a backup file, replacing the records it contains",
		RunE: withApp(func(ctx context.Context, a *app, w io.Writer) error {
			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}

			summary, err := a.backup.Import(ctx, data, year)
			if err != nil {
				return fmt.Errorf("failed to import: %w", err)
			}

			var parts []string
			if summary.Config {
				parts = append(parts, "rotation")
			}
			if summary.CustomHolidays {
				parts = append(parts, "custom holidays")
			}
			if summary.Deletions {
				parts = append(parts, "holiday deletions")
			}
			if summary.Statistics {
				parts = append(parts, "statistics")
			}
			for _, y := range summary.CellYears {
				parts = append(parts, fmt.Sprintf("cells %d", y))
			}
			fmt.Fprintf(w, "✅ Imported: %s\n", strings.Join(parts, ", "))
			if summary.Legacy {
				fmt.Fprintf(w, "   Cells without a year were assigned to %d\n", year)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&in, "in", "", "Backup file")
	cmd.Flags().IntVar(&year, "year", dateutil.Today().Year(), "Year for cells in the single-year format")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func reportCmd() *cobra.Command {
	var year int
	var out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the year grid and statistics as an XLSX workbook",
		RunE: withApp(func(ctx context.Context, a *app, w io.Writer) error {
			view, err := a.planner.Year(ctx, year)
			if err != nil {
				return fmt.Errorf("failed to build grid: %w", err)
			}
			s, err := a.planner.Statistics(ctx, year)
			if err != nil {
				return fmt.Errorf("failed to compute statistics: %w", err)
			}

			data, err := report.Generate(view, s)
			if err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}

			if out == "" {
				out = fmt.Sprintf("turnos-%d.xlsx", year)
			}
			if err := writeOutput(out, data); err != nil {
				return err
			}
			fmt.Fprintf(w, "✅ Report written to %s\n", out)
			return nil
		}),
	}

	cmd.Flags().IntVar(&year, "year", dateutil.Today().Year(), "Calendar year")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default turnos-<year>.xlsx)")

	return cmd
}

func serveCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar over HTTP",
		RunE: withApp(func(ctx context.Context, a *app, w io.Writer) error {
			if address == "" {
				address = a.cfg.Server.Address
			}

			server := api.NewServer(a.planner, a.backup, api.Config{
				Address:        address,
				Timeout:        a.cfg.Server.GetTimeout(),
				IdleTimeout:    a.cfg.Server.GetIdleTimeout(),
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
			}, logger)

			logger.Info("Starting HTTP API",
				zap.String("address", address),
				zap.String("storage", a.cfg.Storage.Driver))

			return server.Run(ctx)
		}),
	}

	cmd.Flags().StringVar(&address, "address", "", "Listen address (overrides server.address)")

	return cmd
}
