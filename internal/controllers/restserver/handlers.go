package restserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/skywatchwx/skywatch/internal/constants"
	"github.com/skywatchwx/skywatch/internal/log"
	"github.com/skywatchwx/skywatch/internal/provider"
	"github.com/skywatchwx/skywatch/internal/service"
	"github.com/skywatchwx/skywatch/pkg/responseformat"
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

// GetWeatherReport handles POST /weather. The request carries city and
// unit either as a JSON body or as form fields.
func (h *Handlers) GetWeatherReport(w http.ResponseWriter, req *http.Request) {
	var sreq service.Request

	if strings.HasPrefix(req.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(req.Body).Decode(&sreq); err != nil {
			h.formatter.WriteError(w, req, http.StatusBadRequest, "malformed request body")
			return
		}
	} else {
		if err := req.ParseForm(); err != nil {
			h.formatter.WriteError(w, req, http.StatusBadRequest, "malformed form data")
			return
		}
		sreq.City = req.PostFormValue("city")
		sreq.Unit = req.PostFormValue("unit")
	}

	report, err := h.controller.svc.Report(req.Context(), sreq)
	if err != nil {
		h.writeServiceError(w, req, err)
		return
	}

	h.formatter.WriteResponse(w, req, report, nil)
}

// GetAlerts handles GET /alerts?city=NAME and returns the evaluation
func (h *Handlers) GetAlerts(w http.ResponseWriter, req *http.Request) {
	evt, err := h.controller.svc.CheckAlerts(req.Context(), req.URL.Query().Get("city"))
	if err != nil {
		h.writeServiceError(w, req, err)
		return
	}

	h.formatter.WriteResponse(w, req, evt, nil)
}

// GetHealth handles GET /health
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, map[string]string{
		"status":  "ok",
		"version": constants.Version,
	}, nil)
}

// writeServiceError maps pipeline errors onto HTTP status codes:
// validation failures to 400, unknown cities to 404, the rest to 500.
func (h *Handlers) writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		h.formatter.WriteError(w, req, http.StatusBadRequest, verr.Error())
	case errors.Is(err, provider.ErrCityNotFound):
		h.formatter.WriteError(w, req, http.StatusNotFound, "city not found")
	default:
		log.Errorf("request %s failed: %v", requestIDFrom(req), err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "internal error")
	}
}
