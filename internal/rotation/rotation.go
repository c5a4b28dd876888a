package rotation

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/username/shift-calendar/pkg/dateutil"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsColor reports whether s is a #rgb or #rrggbb color
func IsColor(s string) bool {
	return hexColor.MatchString(s)
}

// Shift represents a named, colored, hour-valued shift category
type Shift struct {
	Letter string  `json:"letter"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Hours  float64 `json:"hours"`
}

// Config represents a rotation: a cyclic sequence of shift letters repeating
// from Anchor (offset 0). A zero Anchor means the rotation is not configured.
type Config struct {
	Shifts   []Shift   `json:"shifts"`
	Sequence string    `json:"sequence"`
	Anchor   time.Time `json:"anchorDate"`
}

// ShiftByLetter finds the shift registered under letter
func (c *Config) ShiftByLetter(letter string) (Shift, bool) {
	if c == nil || letter == "" {
		return Shift{}, false
	}
	for _, s := range c.Shifts {
		if s.Letter == letter {
			return s, true
		}
	}
	return Shift{}, false
}

// Letters returns the sequence split into one letter per rune
func (c *Config) Letters() []string {
	if c == nil {
		return nil
	}
	runes := []rune(c.Sequence)
	letters := make([]string, len(runes))
	for i, r := range runes {
		letters[i] = string(r)
	}
	return letters
}

// ShiftForDate returns the shift the rotation assigns to date.
//
// Both dates are compared as calendar days at midnight UTC, so time of day
// and time zone never shift the offset. Dates before the anchor have no shift.
// Letters in the sequence that are not registered shifts resolve to no shift.
func ShiftForDate(date time.Time, cfg *Config) (Shift, bool) {
	letter, ok := LetterForDate(date, cfg)
	if !ok {
		return Shift{}, false
	}
	return cfg.ShiftByLetter(letter)
}

// LetterForDate returns the raw sequence letter for date, registered or not
func LetterForDate(date time.Time, cfg *Config) (string, bool) {
	if cfg == nil || cfg.Sequence == "" || cfg.Anchor.IsZero() {
		return "", false
	}

	offset := dateutil.DaysBetween(cfg.Anchor, date)
	if offset < 0 {
		return "", false
	}

	sequence := []rune(cfg.Sequence)
	index := offset % int64(len(sequence))
	return string(sequence[index]), true
}

// ParseAnchor parses a YYYY-MM-DD anchor date; the empty string means unset
func ParseAnchor(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return dateutil.ParseISODate(s)
}

// Validation errors
var (
	ErrDuplicateLetter = errors.New("duplicate shift letter")
	ErrEmptyLetter     = errors.New("shift letter is required")
	ErrNegativeHours   = errors.New("shift hours must not be negative")
	ErrInvalidColor    = errors.New("shift color must be #rgb or #rrggbb")
)

// Validate checks the configuration before it is saved.
// Computation never requires a valid config; this guards the save path only.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Shifts))
	for _, s := range c.Shifts {
		if s.Letter == "" {
			return ErrEmptyLetter
		}
		if seen[s.Letter] {
			return fmt.Errorf("%w: %q", ErrDuplicateLetter, s.Letter)
		}
		seen[s.Letter] = true

		if s.Hours < 0 {
			return fmt.Errorf("%w: %q has %v", ErrNegativeHours, s.Letter, s.Hours)
		}
		if s.Color != "" && !hexColor.MatchString(s.Color) {
			return fmt.Errorf("%w: %q has %q", ErrInvalidColor, s.Letter, s.Color)
		}
	}
	return nil
}

// UnknownLetters lists sequence letters with no registered shift
func (c *Config) UnknownLetters() []string {
	var unknown []string
	seen := make(map[string]bool)
	for _, letter := range c.Letters() {
		if seen[letter] {
			continue
		}
		seen[letter] = true
		if _, ok := c.ShiftByLetter(letter); !ok {
			unknown = append(unknown, letter)
		}
	}
	return unknown
}
