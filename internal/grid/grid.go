package grid

import (
	"time"

	"github.com/username/shift-calendar/internal/calendar"
	"github.com/username/shift-calendar/internal/rotation"
	"github.com/username/shift-calendar/pkg/dateutil"
)

// Override is a manual per-day assignment. Empty strings and a nil Hours
// mean the field is unset.
type Override struct {
	Content string   `json:"content,omitempty"`
	Color   string   `json:"color,omitempty"`
	Hours   *float64 `json:"hours,omitempty"`
}

// IsZero reports whether no field of the override is set
func (o Override) IsZero() bool {
	return o.Content == "" && o.Color == "" && o.Hours == nil
}

// Palette holds the fixed display colors
type Palette struct {
	Holiday string `mapstructure:"holiday" json:"holiday"`
	Weekend string `mapstructure:"weekend" json:"weekend"`
	Default string `mapstructure:"default" json:"default"`
}

// DefaultPalette returns the stock colors
func DefaultPalette() Palette {
	return Palette{
		Holiday: "#fca5a5",
		Weekend: "#e5e7eb",
		Default: "#ffffff",
	}
}

// withDefaults fills unset palette entries from DefaultPalette
func (p Palette) withDefaults() Palette {
	def := DefaultPalette()
	if p.Holiday == "" {
		p.Holiday = def.Holiday
	}
	if p.Weekend == "" {
		p.Weekend = def.Weekend
	}
	if p.Default == "" {
		p.Default = def.Default
	}
	return p
}

// Input is everything needed to resolve one day
type Input struct {
	Date     time.Time
	Config   *rotation.Config
	Holidays *calendar.HolidaySet
	Override *Override
	Palette  Palette
}

// Cell is the resolved display state of one day
type Cell struct {
	Date    time.Time         `json:"date"`
	Weekday string            `json:"weekday"`
	Letter  string            `json:"letter"`
	Color   string            `json:"color"`
	Hours   float64           `json:"hours"`
	Weekend bool              `json:"weekend"`
	Holiday *calendar.Holiday `json:"holiday,omitempty"`
	Rule    string            `json:"rule"`
	Manual  bool              `json:"manual"`
}

// facts is what the color rules look at
type facts struct {
	override  *Override
	holiday   bool
	weekend   bool
	shift     rotation.Shift
	haveShift bool
	palette   Palette
}

// ColorRule yields a color when it applies
type ColorRule struct {
	Name  string
	Apply func(f facts) (string, bool)
}

// ColorRules is evaluated top to bottom; the first rule that applies wins
var ColorRules = []ColorRule{
	{Name: "override", Apply: func(f facts) (string, bool) {
		if f.override != nil && f.override.Color != "" {
			return f.override.Color, true
		}
		return "", false
	}},
	{Name: "holiday", Apply: func(f facts) (string, bool) {
		return f.palette.Holiday, f.holiday
	}},
	{Name: "weekend", Apply: func(f facts) (string, bool) {
		return f.palette.Weekend, f.weekend
	}},
	{Name: "shift", Apply: func(f facts) (string, bool) {
		if f.haveShift && f.shift.Color != "" {
			return f.shift.Color, true
		}
		return "", false
	}},
	{Name: "default", Apply: func(f facts) (string, bool) {
		return f.palette.Default, true
	}},
}

// Resolve computes the display state of a single day. It never fails:
// missing configuration, unknown letters and dates before the anchor all
// degrade to an empty, default-colored cell.
func Resolve(in Input) Cell {
	date := dateutil.NormalizeUTC(in.Date)
	cell := Cell{
		Date:    date,
		Weekday: dateutil.WeekdayLetter(date),
		Weekend: dateutil.IsWeekend(date),
	}

	holiday, isHoliday := in.Holidays.Lookup(date)
	if isHoliday {
		cell.Holiday = &holiday
	}

	rotated, haveRotated := rotation.ShiftForDate(date, in.Config)

	ov := in.Override
	if ov != nil && ov.IsZero() {
		ov = nil
	}
	cell.Manual = ov != nil

	// effective shift: the override letter wins over the rotation
	shift, haveShift := rotated, haveRotated
	switch {
	case ov != nil && ov.Content != "":
		cell.Letter = ov.Content
		shift, haveShift = in.Config.ShiftByLetter(ov.Content)
	case haveRotated:
		cell.Letter = rotated.Letter
	}

	// only letter-bearing days carry hours
	switch {
	case cell.Letter == "":
	case ov != nil && ov.Hours != nil:
		cell.Hours = *ov.Hours
	case haveShift:
		cell.Hours = shift.Hours
	}

	f := facts{
		override:  ov,
		holiday:   isHoliday,
		weekend:   cell.Weekend,
		shift:     shift,
		haveShift: haveShift,
		palette:   in.Palette.withDefaults(),
	}
	for _, rule := range ColorRules {
		if color, ok := rule.Apply(f); ok {
			cell.Color = color
			cell.Rule = rule.Name
			break
		}
	}

	return cell
}

// Month resolves every day of month in year
func Month(year int, month time.Month, cfg *rotation.Config, holidays *calendar.HolidaySet, overrides map[string]Override, palette Palette) []Cell {
	days := dateutil.DaysInMonth(month, year)
	cells := make([]Cell, 0, days)
	for day := 1; day <= days; day++ {
		in := Input{
			Date:     dateutil.Date(year, month, day),
			Config:   cfg,
			Holidays: holidays,
			Palette:  palette,
		}
		if ov, ok := overrides[CellKey(month, day)]; ok {
			in.Override = &ov
		}
		cells = append(cells, Resolve(in))
	}
	return cells
}

// Year resolves all twelve months of year, indexed January first
func Year(year int, cfg *rotation.Config, holidays *calendar.HolidaySet, overrides map[string]Override, palette Palette) [12][]Cell {
	var months [12][]Cell
	for m := time.January; m <= time.December; m++ {
		months[m-1] = Month(year, m, cfg, holidays, overrides, palette)
	}
	return months
}
