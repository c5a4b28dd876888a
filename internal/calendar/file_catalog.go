package calendar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileCatalog implements Catalog using a local text file
type FileCatalog struct {
	filePath string
	logger   *zap.Logger
	holidays []Holiday
	loaded   bool
}

// NewFileCatalog creates a new FileCatalog instance
func NewFileCatalog(filePath string, logger *zap.Logger) *FileCatalog {
	return &FileCatalog{
		filePath: filePath,
		logger:   logger,
	}
}

// Load loads the holiday table from file
func (fc *FileCatalog) Load() error {
	file, err := os.Open(fc.filePath)
	if err != nil {
		return fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	holidays, err := fc.parse(file)
	if err != nil {
		return err
	}

	fc.holidays = holidays
	fc.loaded = true

	fc.logger.Info("Holiday catalog loaded",
		zap.String("file", fc.filePath),
		zap.Int("holidays", len(holidays)))

	return nil
}

func (fc *FileCatalog) parse(r io.Reader) ([]Holiday, error) {
	scanner := bufio.NewScanner(r)
	var holidays []Holiday

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Format: DD-MM kind description
		// Example: 25-12 nacional Navidad
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 3 {
			fc.logger.Warn("Invalid line format", zap.String("line", line))
			continue
		}

		day, month, err := parseDayMonth(parts[0])
		if err != nil {
			fc.logger.Warn("Failed to parse day", zap.String("day", parts[0]), zap.Error(err))
			continue
		}

		kind, err := ParseKind(parts[1])
		if err != nil {
			fc.logger.Warn("Unknown holiday kind", zap.String("kind", parts[1]))
			continue
		}

		holidays = append(holidays, Holiday{
			Day:         day,
			Month:       month,
			Description: strings.TrimSpace(parts[2]),
			Kind:        kind,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}

	return holidays, nil
}

// FixedHolidays implements Catalog
func (fc *FileCatalog) FixedHolidays() ([]Holiday, error) {
	if !fc.loaded {
		return nil, fmt.Errorf("catalog not loaded: %s", fc.filePath)
	}
	out := make([]Holiday, len(fc.holidays))
	copy(out, fc.holidays)
	return out, nil
}

func parseDayMonth(s string) (int, time.Month, error) {
	dayStr, monthStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("expected DD-MM, got %q", s)
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid day: %w", err)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month: %w", err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month out of range: %d", month)
	}
	// 29-02 is accepted: it only matches in leap years
	if day < 1 || day > maxDays[month-1] {
		return 0, 0, fmt.Errorf("day out of range: %d", day)
	}
	return day, time.Month(month), nil
}

var maxDays = [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
