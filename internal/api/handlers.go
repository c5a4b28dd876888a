package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/username/shift-calendar/internal/backup"
	"github.com/username/shift-calendar/internal/calendar"
	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/planner"
	"github.com/username/shift-calendar/internal/report"
	"github.com/username/shift-calendar/internal/rotation"
	"github.com/username/shift-calendar/internal/state"
	"github.com/username/shift-calendar/pkg/dateutil"
)

const maxBodySize = 10 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

var badRequestErrors = []error{
	state.ErrInvalidDate,
	planner.ErrUnknownShift,
	rotation.ErrDuplicateLetter,
	rotation.ErrEmptyLetter,
	rotation.ErrNegativeHours,
	rotation.ErrInvalidColor,
	backup.ErrEmptyBundle,
	backup.ErrMalformedBundle,
	errBadRequest,
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// fail maps err onto a status code and writes the error body
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, planner.ErrHolidayNotFound):
		status = http.StatusNotFound
	default:
		for _, target := range badRequestErrors {
			if errors.Is(err, target) {
				status = http.StatusBadRequest
				break
			}
		}
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("op", op), zap.Error(err))
	} else {
		s.logger.Info("Request rejected", zap.String("op", op), zap.Error(err))
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}

func yearParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		return 0, badRequest("invalid year %q", raw)
	}
	return year, nil
}

func dateParam(r *http.Request) (time.Time, error) {
	return state.ParseDate(chi.URLParam(r, "date"))
}

// thisYearOnly reads ?scope=year|all; the default is year
func thisYearOnly(r *http.Request) (bool, error) {
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "year":
		return true, nil
	case "all":
		return false, nil
	default:
		return false, badRequest("invalid scope %q", scope)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) getGrid(w http.ResponseWriter, r *http.Request) {
	const op = "api.getGrid"

	year, err := yearParam(r)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	view, err := s.planner.Year(r.Context(), year)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	render.JSON(w, r, view)
}

// StatsResponse is the JSON form of a year's statistics
type StatsResponse struct {
	Year          int                                  `json:"year"`
	HoursByMonth  map[string]float64                   `json:"hoursByMonth"`
	ShiftsByMonth map[string]map[string]shiftTallyJSON `json:"shiftsByMonth"`
	ShiftTotals   map[string]shiftTallyJSON            `json:"shiftTotals"`
	TotalHours    float64                              `json:"totalHours"`
	ExpectedHours float64                              `json:"expectedHours"`
	Difference    float64                              `json:"difference"`
}

type shiftTallyJSON struct {
	Count int     `json:"count"`
	Hours float64 `json:"hours"`
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.getStats"

	year, err := yearParam(r)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	st, err := s.planner.Statistics(r.Context(), year)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	resp := StatsResponse{
		Year:          st.Year,
		HoursByMonth:  make(map[string]float64, 12),
		ShiftsByMonth: make(map[string]map[string]shiftTallyJSON, 12),
		ShiftTotals:   make(map[string]shiftTallyJSON),
		TotalHours:    st.TotalHours,
		ExpectedHours: st.ExpectedHours,
		Difference:    st.Difference(),
	}
	for m := time.January; m <= time.December; m++ {
		name := grid.MonthName(m)
		resp.HoursByMonth[name] = st.HoursByMonth[m]
		byLetter := make(map[string]shiftTallyJSON, len(st.ShiftsByMonth[m]))
		for letter, tally := range st.ShiftsByMonth[m] {
			byLetter[letter] = shiftTallyJSON(tally)
		}
		resp.ShiftsByMonth[name] = byLetter
	}
	for letter, tally := range st.ShiftTotals() {
		resp.ShiftTotals[letter] = shiftTallyJSON(tally)
	}

	render.JSON(w, r, resp)
}

func (s *Server) getHolidays(w http.ResponseWriter, r *http.Request) {
	const op = "api.getHolidays"

	year, err := yearParam(r)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	holidays, err := s.planner.Holidays(r.Context(), year)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	if holidays == nil {
		holidays = []calendar.Holiday{}
	}
	render.JSON(w, r, holidays)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.getReport"

	year, err := yearParam(r)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	view, err := s.planner.Year(r.Context(), year)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	st, err := s.planner.Statistics(r.Context(), year)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	data, err := report.Generate(view, st)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="turnos-%d.xlsx"`, year))
	w.Write(data)
}

// RotationRequest is the JSON form of a rotation
type RotationRequest struct {
	Shifts     []rotation.Shift `json:"shifts"`
	Sequence   string           `json:"sequence"`
	AnchorDate string           `json:"anchorDate"`
}

func (s *Server) getRotation(w http.ResponseWriter, r *http.Request) {
	const op = "api.getRotation"

	cfg, err := s.planner.Rotation(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	resp := RotationRequest{Shifts: []rotation.Shift{}}
	if cfg != nil {
		resp.Shifts = cfg.Shifts
		resp.Sequence = cfg.Sequence
		if !cfg.Anchor.IsZero() {
			resp.AnchorDate = dateutil.FormatISODate(cfg.Anchor)
		}
	}
	render.JSON(w, r, resp)
}

func (s *Server) putRotation(w http.ResponseWriter, r *http.Request) {
	const op = "api.putRotation"

	var req RotationRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), &req); err != nil {
		s.fail(w, r, op, badRequest("invalid JSON: %v", err))
		return
	}

	anchor, err := rotation.ParseAnchor(req.AnchorDate)
	if err != nil {
		s.fail(w, r, op, fmt.Errorf("%w: %q", state.ErrInvalidDate, req.AnchorDate))
		return
	}

	cfg := &rotation.Config{Shifts: req.Shifts, Sequence: req.Sequence, Anchor: anchor}
	if err := s.planner.SetRotation(r.Context(), cfg); err != nil {
		s.fail(w, r, op, err)
		return
	}

	render.JSON(w, r, req)
}

// OverrideRequest sets a manual assignment. With Assign the shift's color
// and hours are copied and Color/Hours are ignored.
type OverrideRequest struct {
	Letter string   `json:"letter"`
	Color  string   `json:"color"`
	Hours  *float64 `json:"hours"`
	Assign bool     `json:"assign"`
}

func (s *Server) putOverride(w http.ResponseWriter, r *http.Request) {
	const op = "api.putOverride"

	date, err := dateParam(r)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	var req OverrideRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), &req); err != nil {
		s.fail(w, r, op, badRequest("invalid JSON: %v", err))
		return
	}

	if req.Color != "" && !rotation.IsColor(req.Color) {
		s.fail(w, r, op, badRequest("invalid color %q", req.Color))
		return
	}
	if req.Hours != nil && *req.Hours < 0 {
		s.fail(w, r, op, badRequest("hours must not be negative"))
		return
	}

	if req.Assign {
		err = s.planner.AssignShift(r.Context(), date, req.Letter)
	} else {
		err = s.planner.SetOverride(r.Context(), date, grid.Override{
			Content: req.Letter,
			Color:   req.Color,
			Hours:   req.Hours,
		})
	}
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteOverride(w http.ResponseWriter, r *http.Request) {
	const op = "api.deleteOverride"

	date, err := dateParam(r)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	if err := s.planner.ClearOverride(r.Context(), date); err != nil {
		s.fail(w, r, op, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HolidayRequest adds or edits a custom holiday
type HolidayRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	AllYears    bool   `json:"allYears"`
}

func (req HolidayRequest) holiday() (calendar.Holiday, error) {
	date, err := state.ParseDate(req.Date)
	if err != nil {
		return calendar.Holiday{}, err
	}
	kind := calendar.KindLocal
	if req.Kind != "" {
		if kind, err = calendar.ParseKind(req.Kind); err != nil {
			return calendar.Holiday{}, badRequest("%v", err)
		}
	}

	h := calendar.Holiday{
		Day:         date.Day(),
		Month:       date.Month(),
		Description: req.Description,
		Kind:        kind,
	}
	if !req.AllYears {
		h.Year = date.Year()
	}
	return h, nil
}

func (s *Server) postHoliday(w http.ResponseWriter, r *http.Request) {
	const op = "api.postHoliday"

	var req HolidayRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), &req); err != nil {
		s.fail(w, r, op, badRequest("invalid JSON: %v", err))
		return
	}

	h, err := req.holiday()
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	if err := s.planner.AddHoliday(r.Context(), h); err != nil {
		s.fail(w, r, op, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h)
}

func (s *Server) putHoliday(w http.ResponseWriter, r *http.Request) {
	const op = "api.putHoliday"

	date, err := dateParam(r)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	var req HolidayRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), &req); err != nil {
		s.fail(w, r, op, badRequest("invalid JSON: %v", err))
		return
	}
	if req.Date == "" {
		req.Date = dateutil.FormatISODate(date)
	}

	h, err := req.holiday()
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	if err := s.planner.EditHoliday(r.Context(), date.Day(), date.Month(), date.Year(), h); err != nil {
		s.fail(w, r, op, err)
		return
	}

	render.JSON(w, r, h)
}

func (s *Server) deleteHoliday(w http.ResponseWriter, r *http.Request) {
	const op = "api.deleteHoliday"

	date, err := dateParam(r)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	only, err := thisYearOnly(r)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	if err := s.planner.DeleteHoliday(r.Context(), date, only); err != nil {
		s.fail(w, r, op, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restoreHoliday(w http.ResponseWriter, r *http.Request) {
	const op = "api.restoreHoliday"

	date, err := dateParam(r)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	only, err := thisYearOnly(r)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	if err := s.planner.RestoreHoliday(r.Context(), date, only); err != nil {
		s.fail(w, r, op, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExpectedHoursRequest sets the expected yearly hours
type ExpectedHoursRequest struct {
	Hours float64 `json:"hours"`
}

func (s *Server) putExpectedHours(w http.ResponseWriter, r *http.Request) {
	const op = "api.putExpectedHours"

	var req ExpectedHoursRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), &req); err != nil {
		s.fail(w, r, op, badRequest("invalid JSON: %v", err))
		return
	}
	if req.Hours < 0 {
		s.fail(w, r, op, badRequest("expected hours must not be negative"))
		return
	}
	if err := s.planner.SetExpectedHours(r.Context(), req.Hours); err != nil {
		s.fail(w, r, op, err)
		return
	}

	render.JSON(w, r, req)
}

func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.getExport"

	data, err := s.backup.ExportJSON(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="turnos-backup-%s.json"`, s.now().Format(dateutil.ISODateLayout)))
	w.Write(data)
}

// ImportResponse reports what an import wrote
type ImportResponse struct {
	Config         bool  `json:"config"`
	CustomHolidays bool  `json:"customHolidays"`
	Deletions      bool  `json:"deletions"`
	Statistics     bool  `json:"statistics"`
	CellYears      []int `json:"cellYears"`
	Legacy         bool  `json:"legacy"`
}

func (s *Server) postImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.postImport"

	year := s.now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 9999 {
			s.fail(w, r, op, badRequest("invalid year %q", raw))
			return
		}
		year = parsed
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.fail(w, r, op, badRequest("failed to read body: %v", err))
		return
	}

	summary, err := s.backup.Import(r.Context(), data, year)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	render.JSON(w, r, ImportResponse(summary))
}
