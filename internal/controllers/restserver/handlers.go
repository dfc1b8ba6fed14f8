package restserver

import (
	"net/http"

	"github.com/chrissnell/tankwatch/internal/constants"
	"github.com/chrissnell/tankwatch/internal/pipeline"
	"github.com/chrissnell/tankwatch/internal/types"
	"github.com/chrissnell/tankwatch/pkg/responseformat"
)

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

// run performs a pipeline run for the request.  On failure it writes a 500
// and returns nil.
func (h *Handlers) run(w http.ResponseWriter, req *http.Request) *pipeline.Run {
	run, err := h.controller.newRun(req.Context())
	if err != nil {
		h.controller.logger.Errorw("pipeline run failed", "path", req.URL.Path, "error", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, err.Error())
		return nil
	}
	return run
}

// GetStatus reports liveness without touching the data source
func (h *Handlers) GetStatus(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, http.StatusOK, StatusResponse{
		Status:  "ok",
		Version: constants.Version,
		Source:  h.controller.loader.Source(),
	})
}

func (h *Handlers) GetReadings(w http.ResponseWriter, req *http.Request) {
	run := h.run(w, req)
	if run == nil {
		return
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, ReadingsResponse{
		Source:   run.Source,
		Rows:     run.Table.Len(),
		Readings: emptyIfNil(run.Table.Readings),
		Notices:  notices(run.Notices),
	})
}

func (h *Handlers) GetOptions(w http.ResponseWriter, req *http.Request) {
	run := h.run(w, req)
	if run == nil {
		return
	}

	dates, times := run.Options()
	resp := OptionsResponse{
		Dates:   emptyIfNil(dates),
		Times:   emptyIfNil(times),
		Notices: notices(run.Notices),
	}
	if sel, ok := run.DefaultSelection(); ok {
		resp.Default = &sel
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, resp)
}

// GetFilter answers /api/filter?date=YYYY-MM-DD&time=HH:MM:SS.  A missing
// parameter falls back to the default selection.
func (h *Handlers) GetFilter(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()

	var (
		date    types.Date
		tod     types.TimeOfDay
		hasDate bool
		hasTime bool
		err     error
	)
	if v := query.Get("date"); v != "" {
		if date, err = types.ParseDate(v); err != nil {
			h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
			return
		}
		hasDate = true
	}
	if v := query.Get("time"); v != "" {
		if tod, err = types.ParseTimeOfDay(v); err != nil {
			h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
			return
		}
		hasTime = true
	}

	run := h.run(w, req)
	if run == nil {
		return
	}

	resp := FilterResponse{
		Readings: []types.SensorReading{},
		Notices:  notices(run.Notices),
	}

	def, ok := run.DefaultSelection()
	if !hasDate {
		date = def.Date
	}
	if !hasTime {
		tod = def.Time
	}

	if !ok && (!hasDate || !hasTime) {
		// nothing to default to
		resp.Empty = true
		resp.Message = constants.NoDataMessage
		resp.Summary = run.SelectionSummary(types.FilterSelection{})
		h.formatter.WriteResponse(w, req, http.StatusOK, resp)
		return
	}

	sel := types.FilterSelection{Date: date, Time: tod}
	filtered := run.Select(sel)

	resp.Selection = &sel
	resp.Rows = len(filtered.Readings)
	resp.Readings = emptyIfNil(filtered.Readings)
	resp.Summary = run.SelectionSummary(sel)
	if filtered.Empty() {
		resp.Empty = true
		resp.Message = constants.NoDataMessage
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, resp)
}

func (h *Handlers) GetSummary(w http.ResponseWriter, req *http.Request) {
	run := h.run(w, req)
	if run == nil {
		return
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, SummaryResponse{
		Summary: run.Summary(),
		Notices: notices(run.Notices),
	})
}
