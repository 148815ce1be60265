package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/interfaces"
	"github.com/ternarybob/kabuka/internal/services/market"
)

// PricesHandler serves daily price history.
type PricesHandler struct {
	provider interfaces.PriceHistoryProvider
	logger   arbor.ILogger
}

// NewPricesHandler creates a new PricesHandler
func NewPricesHandler(provider interfaces.PriceHistoryProvider, logger arbor.ILogger) *PricesHandler {
	return &PricesHandler{
		provider: provider,
		logger:   logger,
	}
}

// HistoryHandler handles GET /api/prices/{code}?period=1mo
func (h *PricesHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	code := PathParam(r, "/api/prices/")
	history, err := h.provider.GetPriceHistory(r.Context(), code, r.URL.Query().Get("period"))
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, common.ErrInvalidCode), errors.Is(err, market.ErrUnsupportedPeriod):
			status = http.StatusBadRequest
		case errors.Is(err, common.ErrPriceUnavailable):
			status = http.StatusNotFound
		}

		h.logger.Warn().
			Str("code", code).
			Int("status", status).
			Err(err).
			Msg("Price history request failed")

		WriteError(w, status, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, history)
}
