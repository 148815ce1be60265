package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Event dates
	mux.HandleFunc("/api/events", s.app.EventsHandler.ListHandler)  // GET ?codes=7203,6758&mode=
	mux.HandleFunc("/api/events/", s.app.EventsHandler.ItemHandler) // GET /{code}?mode=
	mux.HandleFunc("/api/alerts/", s.app.EventsHandler.AlertsHandler)

	// Price history
	mux.HandleFunc("/api/prices/", s.app.PricesHandler.HistoryHandler) // GET /{code}?period=

	// System
	mux.HandleFunc("/api/version", s.app.SystemHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.SystemHandler.HealthHandler)

	mux.HandleFunc("/", s.app.SystemHandler.NotFoundHandler)

	return mux
}
