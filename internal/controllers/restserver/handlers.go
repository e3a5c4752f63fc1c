package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/chrissnell/wxsummary/internal/pipeline"
	"github.com/chrissnell/wxsummary/internal/types"
	"github.com/chrissnell/wxsummary/pkg/responseformat"
)

const maxRunsLimit = 500

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// Health reports liveness and, when storage is configured, database reachability.
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "disabled"}
	status := http.StatusOK

	if store := h.controller.deps.Store; store != nil {
		if err := store.Ping(req.Context()); err != nil {
			h.controller.logger.Warnf("health check: database unreachable: %v", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	h.formatter.WriteStatus(w, req, status, resp, nil)
}

// GetHourly handles requests for the local hourly listing of a date range
func (h *Handlers) GetHourly(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	station := stationFromContext(req)

	readings, err := h.controller.deps.Pipeline.HourlyReadings(req.Context(), vars["start"], vars["end"], station)
	if err != nil {
		h.writeFailure(w, req, err)
		return
	}

	h.formatter.WriteResponse(w, req, HourlyResponse{
		StationCode: station,
		Start:       vars["start"],
		End:         vars["end"],
		Readings:    readings,
	}, nil)
}

// GetDaily handles requests for the processed daily records of a date range
func (h *Handlers) GetDaily(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	station := stationFromContext(req)

	days, err := h.controller.deps.Pipeline.ProcessedDays(req.Context(), vars["start"], vars["end"], station)
	if err != nil {
		h.writeFailure(w, req, err)
		return
	}

	h.formatter.WriteResponse(w, req, DailyResponse{
		StationCode: station,
		Start:       vars["start"],
		End:         vars["end"],
		Days:        days,
	}, nil)
}

// GetMonthly returns the summary of one calendar month, or null when the
// provider had no data for it.
func (h *Handlers) GetMonthly(w http.ResponseWriter, req *http.Request) {
	year, month, ok := h.yearMonth(w, req)
	if !ok {
		return
	}

	data, err := h.controller.deps.Pipeline.Month(req.Context(), year, month, stationFromContext(req))
	if err != nil {
		h.writeFailure(w, req, err)
		return
	}

	h.formatter.WriteResponse(w, req, data.Summary, nil)
}

// GetYearly returns the summary of one calendar year, or null when no month had data.
func (h *Handlers) GetYearly(w http.ResponseWriter, req *http.Request) {
	year, ok := h.year(w, req)
	if !ok {
		return
	}

	data, err := h.controller.deps.Pipeline.Year(req.Context(), year, stationFromContext(req))
	if err != nil {
		h.writeFailure(w, req, err)
		return
	}

	h.formatter.WriteResponse(w, req, data.Summary, nil)
}

// GetYearMonths returns the monthly summaries of a year that had data.
func (h *Handlers) GetYearMonths(w http.ResponseWriter, req *http.Request) {
	year, ok := h.year(w, req)
	if !ok {
		return
	}
	station := stationFromContext(req)

	data, err := h.controller.deps.Pipeline.Year(req.Context(), year, station)
	if err != nil {
		h.writeFailure(w, req, err)
		return
	}

	months := data.Months
	if months == nil {
		months = []types.MonthlySummary{}
	}
	h.formatter.WriteResponse(w, req, YearMonthsResponse{StationCode: station, Year: year, Months: months}, nil)
}

// PopulatePeriod stores the processed days and hourly readings of a date range.
func (h *Handlers) PopulatePeriod(w http.ResponseWriter, req *http.Request) {
	populator, ok := h.populator(w, req)
	if !ok {
		return
	}
	vars := mux.Vars(req)

	run, err := populator.Period(req.Context(), vars["start"], vars["end"], stationFromContext(req))
	h.writeRun(w, req, run, err)
}

// PopulateMonth stores one month and its summary.
func (h *Handlers) PopulateMonth(w http.ResponseWriter, req *http.Request) {
	populator, ok := h.populator(w, req)
	if !ok {
		return
	}
	year, month, ok := h.yearMonth(w, req)
	if !ok {
		return
	}

	run, err := populator.Month(req.Context(), year, month, stationFromContext(req))
	h.writeRun(w, req, run, err)
}

// PopulateYear stores twelve months and the yearly summary.
func (h *Handlers) PopulateYear(w http.ResponseWriter, req *http.Request) {
	populator, ok := h.populator(w, req)
	if !ok {
		return
	}
	year, ok := h.year(w, req)
	if !ok {
		return
	}

	run, err := populator.Year(req.Context(), year, stationFromContext(req))
	h.writeRun(w, req, run, err)
}

// ListRuns returns the most recent populate runs.
func (h *Handlers) ListRuns(w http.ResponseWriter, req *http.Request) {
	store := h.controller.deps.Store
	if store == nil {
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "storage_unavailable",
			"no database is configured")
		return
	}

	limit := 0
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRunsLimit {
			h.formatter.WriteError(w, req, http.StatusBadRequest, "invalid_limit",
				fmt.Sprintf("limit must be an integer between 1 and %d", maxRunsLimit))
			return
		}
		limit = n
	}

	runs, err := store.ListRuns(req.Context(), limit)
	if err != nil {
		h.writeFailure(w, req, err)
		return
	}
	if runs == nil {
		runs = []types.IngestRun{}
	}
	h.formatter.WriteResponse(w, req, runs, nil)
}

func (h *Handlers) populator(w http.ResponseWriter, req *http.Request) (Populator, bool) {
	p := h.controller.deps.Populator
	if p == nil {
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "storage_unavailable",
			"populate requires a configured database")
		return nil, false
	}
	return p, true
}

func (h *Handlers) writeRun(w http.ResponseWriter, req *http.Request, run types.IngestRun, err error) {
	if err != nil {
		h.writeFailure(w, req, err)
		return
	}
	h.formatter.WriteResponse(w, req, run, nil)
}

func (h *Handlers) year(w http.ResponseWriter, req *http.Request) (int, bool) {
	year, err := strconv.Atoi(mux.Vars(req)["year"])
	if err == nil {
		err = pipeline.ValidateYear(year)
	}
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, errorCode(pipeline.ErrInvalidYear), err.Error())
		return 0, false
	}
	return year, true
}

func (h *Handlers) yearMonth(w http.ResponseWriter, req *http.Request) (int, int, bool) {
	year, ok := h.year(w, req)
	if !ok {
		return 0, 0, false
	}

	month, err := strconv.Atoi(mux.Vars(req)["month"])
	if err == nil {
		err = pipeline.ValidateMonth(month)
	}
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, errorCode(pipeline.ErrInvalidMonth), err.Error())
		return 0, 0, false
	}
	return year, month, true
}

// writeFailure maps validation errors to 400 and everything else to 500.
func (h *Handlers) writeFailure(w http.ResponseWriter, req *http.Request, err error) {
	if pipeline.IsValidationError(err) {
		h.formatter.WriteError(w, req, http.StatusBadRequest, errorCode(err), err.Error())
		return
	}

	h.controller.logger.Errorf("error serving %s %s: %v", req.Method, req.URL.Path, err)
	h.formatter.WriteError(w, req, http.StatusInternalServerError, "internal_error", err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrInvalidYear):
		return "invalid_year"
	case errors.Is(err, pipeline.ErrInvalidMonth):
		return "invalid_month"
	case errors.Is(err, pipeline.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, pipeline.ErrInvalidRange):
		return "invalid_range"
	default:
		return "invalid_request"
	}
}
