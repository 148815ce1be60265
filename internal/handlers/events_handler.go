package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/interfaces"
	"github.com/ternarybob/kabuka/internal/models"
)

// EventsHandler serves event-date lookups and upcoming-date alerts.
type EventsHandler struct {
	service interfaces.EventService
	logger  arbor.ILogger
	now     func() time.Time
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(service interfaces.EventService, logger arbor.ILogger) *EventsHandler {
	return &EventsHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// EventsResponse is the body of GET /api/events.
type EventsResponse struct {
	Mode    string                         `json:"mode,omitempty"`
	Codes   []string                       `json:"codes"`
	Results map[string]*models.EventRecord `json:"results"`
}

// AlertsResponse is the body of GET /api/alerts/{code}.
type AlertsResponse struct {
	Code   string              `json:"code"`
	Today  string              `json:"today"`
	Alerts []models.EventAlert `json:"alerts"`
	Record *models.EventRecord `json:"record"`
}

// ListHandler handles GET /api/events?codes=7203,6758&mode=cache_first.
// A text parameter (for example OCR output of a watchlist screenshot) is scanned
// for codes, which are appended after any explicit codes.
func (h *EventsHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query()
	requested := common.SplitCodes(query.Get("codes"))
	if text := query.Get("text"); text != "" {
		requested = append(requested, common.ExtractCodes(text)...)
	}
	codes := common.NormalizeCodes(requested)
	if len(codes) == 0 {
		WriteError(w, http.StatusBadRequest, "codes or text query parameter is required")
		return
	}
	mode := query.Get("mode")

	results := h.service.FetchEventsInfoForCodes(r.Context(), codes, mode)

	h.logger.Debug().
		Int("codes", len(codes)).
		Str("mode", mode).
		Msg("Events fetched")

	WriteJSON(w, http.StatusOK, EventsResponse{
		Mode:    mode,
		Codes:   codes,
		Results: results,
	})
}

// ItemHandler handles GET /api/events/{code}?mode=cache_first
func (h *EventsHandler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code := PathParam(r, "/api/events/")
	rec := h.service.GetEventsInfo(r.Context(), code, r.URL.Query().Get("mode"))
	if rec.ErrorCode == models.ErrorCodeInvalidCode {
		WriteJSON(w, http.StatusBadRequest, rec)
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

// AlertsHandler handles GET /api/alerts/{code}. Without a mode it reads the
// cache only, so checking alerts never triggers an external lookup.
func (h *EventsHandler) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code := common.NormalizeCode(PathParam(r, "/api/alerts/"))
	if code == "" {
		WriteError(w, http.StatusBadRequest, common.MsgInvalidCode)
		return
	}
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "cache_only"
	}

	rec := h.service.GetEventsInfo(r.Context(), code, mode)
	today := h.now()
	alerts := h.service.UpcomingAlerts(rec, today)
	if alerts == nil {
		alerts = []models.EventAlert{}
	}

	WriteJSON(w, http.StatusOK, AlertsResponse{
		Code:   code,
		Today:  today.Format("2006-01-02"),
		Alerts: alerts,
		Record: rec,
	})
}
