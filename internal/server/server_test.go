package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/app"
	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/handlers"
	"github.com/ternarybob/kabuka/internal/models"
)

type stubEvents struct {
	panicOn string
}

func (s *stubEvents) GetEventsInfo(ctx context.Context, code string, mode string) *models.EventRecord {
	if code == s.panicOn {
		panic("boom")
	}
	return &models.EventRecord{EventData: models.NewEventData()}
}

func (s *stubEvents) FetchEventsInfoForCodes(ctx context.Context, codes []string, mode string) map[string]*models.EventRecord {
	out := make(map[string]*models.EventRecord, len(codes))
	for _, c := range codes {
		out[c] = &models.EventRecord{EventData: models.NewEventData()}
	}
	return out
}

func (s *stubEvents) UpcomingAlerts(record *models.EventRecord, today time.Time) []models.EventAlert {
	return nil
}

type stubPrices struct{}

func (stubPrices) GetPriceHistory(ctx context.Context, code string, period string) (*models.PriceHistory, error) {
	return nil, common.ErrPriceUnavailable
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := arbor.NewLogger()
	config := common.NewDefaultConfig()
	events := &stubEvents{panicOn: "9999"}

	application := &app.App{
		Config:        config,
		Logger:        logger,
		EventsHandler: handlers.NewEventsHandler(events, logger),
		PricesHandler: handlers.NewPricesHandler(stubPrices{}, logger),
		SystemHandler: handlers.NewSystemHandler(config, true, logger),
	}
	return New(application)
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"events list", http.MethodGet, "/api/events?codes=7203", http.StatusOK},
		{"events item", http.MethodGet, "/api/events/7203", http.StatusOK},
		{"alerts", http.MethodGet, "/api/alerts/7203", http.StatusOK},
		{"prices", http.MethodGet, "/api/prices/7203", http.StatusNotFound},
		{"health", http.MethodGet, "/api/health", http.StatusOK},
		{"version", http.MethodGet, "/api/version", http.StatusOK},
		{"unknown", http.MethodGet, "/nope", http.StatusNotFound},
		{"preflight", http.MethodOptions, "/api/events", http.StatusOK},
		{"panic recovered", http.MethodGet, "/api/events/9999", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", rec.Header().Get("X-Request-ID"))
}

func TestWriteTimeoutCoversLookup(t *testing.T) {
	srv := newTestServer(t)
	assert.Greater(t, srv.server.WriteTimeout, srv.app.Config.Events.LookupTimeoutDuration())
	assert.Equal(t, "localhost:8080", srv.Address())
}
