package state

import (
	"strconv"
	"time"

	"github.com/username/shift-calendar/internal/calendar"
	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/rotation"
	"github.com/username/shift-calendar/pkg/dateutil"
)

// Records are written with the Spanish keys of the stored format and read
// accepting either the Spanish or the English key of each field.

type wireShift struct {
	Letra  string  `json:"letra"`
	Nombre string  `json:"nombre"`
	Color  string  `json:"color"`
	Horas  float64 `json:"horas"`
}

type wireShiftIn struct {
	wireShift
	Letter *string  `json:"letter"`
	Name   *string  `json:"name"`
	Hours  *float64 `json:"hours"`
}

func (w wireShiftIn) shift() rotation.Shift {
	s := rotation.Shift{Letter: w.Letra, Name: w.Nombre, Color: w.Color, Hours: w.Horas}
	if s.Letter == "" && w.Letter != nil {
		s.Letter = *w.Letter
	}
	if s.Name == "" && w.Name != nil {
		s.Name = *w.Name
	}
	if w.Hours != nil && s.Hours == 0 {
		s.Hours = *w.Hours
	}
	return s
}

type wireConfig struct {
	Turnos      []wireShift `json:"turnos"`
	Secuencia   string      `json:"secuencia"`
	FechaInicio string      `json:"fechaInicio"`
}

type wireConfigIn struct {
	Turnos      []wireShiftIn `json:"turnos"`
	Secuencia   string        `json:"secuencia"`
	FechaInicio string        `json:"fechaInicio"`
	Shifts      []wireShiftIn `json:"shifts"`
	Sequence    string        `json:"sequence"`
	AnchorDate  string        `json:"anchorDate"`
	StartDate   string        `json:"startDate"`
}

func configToWire(cfg *rotation.Config) wireConfig {
	w := wireConfig{
		Turnos:    make([]wireShift, 0, len(cfg.Shifts)),
		Secuencia: cfg.Sequence,
	}
	for _, s := range cfg.Shifts {
		w.Turnos = append(w.Turnos, wireShift{Letra: s.Letter, Nombre: s.Name, Color: s.Color, Horas: s.Hours})
	}
	if !cfg.Anchor.IsZero() {
		w.FechaInicio = dateutil.FormatISODate(cfg.Anchor)
	}
	return w
}

// firstNonEmpty returns the first non-empty string
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type wireOverride struct {
	Contenido string   `json:"contenido,omitempty"`
	Color     string   `json:"color,omitempty"`
	Horas     *float64 `json:"horas,omitempty"`
}

type wireOverrideIn struct {
	wireOverride
	Content *string  `json:"content"`
	Hours   *float64 `json:"hours"`
}

func (w wireOverrideIn) override() grid.Override {
	o := grid.Override{Content: w.Contenido, Color: w.Color, Hours: w.Horas}
	if o.Content == "" && w.Content != nil {
		o.Content = *w.Content
	}
	if o.Hours == nil {
		o.Hours = w.Hours
	}
	return o
}

func overrideToWire(o grid.Override) wireOverride {
	return wireOverride{Contenido: o.Content, Color: o.Color, Horas: o.Hours}
}

type wireHoliday struct {
	Dia         int    `json:"dia"`
	Mes         int    `json:"mes"`
	Descripcion string `json:"descripcion"`
	Tipo        string `json:"tipo"`
	Año         int    `json:"año,omitempty"`
}

type wireHolidayIn struct {
	Dia         *int   `json:"dia"`
	Mes         *int   `json:"mes"`
	Descripcion string `json:"descripcion"`
	Tipo        string `json:"tipo"`
	Año         int    `json:"año"`
	Day         *int   `json:"day"`
	Month       *int   `json:"month"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Year        int    `json:"year"`
}

// fields resolves the Spanish/English alternatives; ok is false when the day
// or month is missing or out of range
func (w wireHolidayIn) fields() (day int, month time.Month, year int, ok bool) {
	d, m := w.Dia, w.Mes
	if d == nil {
		d = w.Day
	}
	if m == nil {
		m = w.Month
	}
	if d == nil || m == nil || *d < 1 || *d > 31 || *m < 0 || *m > 11 {
		return 0, 0, 0, false
	}
	year = w.Año
	if year == 0 {
		year = w.Year
	}
	return *d, time.Month(*m + 1), year, true
}

func holidayToWire(h calendar.Holiday) wireHoliday {
	return wireHoliday{
		Dia:         h.Day,
		Mes:         int(h.Month) - 1,
		Descripcion: h.Description,
		Tipo:        string(h.Kind),
		Año:         h.Year,
	}
}

type wireDeletion struct {
	Dia int `json:"dia"`
	Mes int `json:"mes"`
	Año int `json:"año,omitempty"`
}

func deletionToWire(d calendar.Deletion) wireDeletion {
	return wireDeletion{Dia: d.Day, Mes: int(d.Month) - 1, Año: d.Year}
}

type wireStatistics struct {
	HorasRealesEsperadas float64            `json:"horasRealesEsperadas"`
	HorasPorMes          map[string]float64 `json:"horasPorMes"`
}

type wireStatisticsIn struct {
	wireStatistics
	ExpectedHours *float64           `json:"expectedHours"`
	HoursByMonth  map[string]float64 `json:"hoursByMonth"`
}

func statisticsToWire(s Statistics) wireStatistics {
	w := wireStatistics{
		HorasRealesEsperadas: s.ExpectedHours,
		HorasPorMes:          make(map[string]float64, len(s.HoursByMonth)),
	}
	for m, h := range s.HoursByMonth {
		w.HorasPorMes[strconv.Itoa(int(m)-1)] = h
	}
	return w
}
