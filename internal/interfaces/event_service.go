package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/kabuka/internal/models"
)

// EventLookup asks the external source for event dates.
// Failures are returned as records carrying Error/ErrorCode, never as Go errors.
type EventLookup interface {
	// Lookup queries a single code.
	Lookup(ctx context.Context, code string) *models.EventRecord

	// LookupBatch queries many codes in one request. Every requested code is present in the result.
	LookupBatch(ctx context.Context, codes []string) map[string]*models.EventRecord
}

// EventService applies the retrieval policy over the cache and the lookup.
type EventService interface {
	GetEventsInfo(ctx context.Context, code string, mode string) *models.EventRecord
	FetchEventsInfoForCodes(ctx context.Context, codes []string, mode string) map[string]*models.EventRecord
	UpcomingAlerts(record *models.EventRecord, today time.Time) []models.EventAlert
}

// PriceHistoryProvider supplies daily price history for a Tokyo ticker.
type PriceHistoryProvider interface {
	GetPriceHistory(ctx context.Context, code string, period string) (*models.PriceHistory, error)
}
