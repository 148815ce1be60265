package interfaces

import (
	"context"

	"github.com/ternarybob/kabuka/internal/models"
)

// EventCacheStorage persists one EventRecord per normalized ticker code.
// Implementations hand out copies only; FromCache is stamped on read and never trusted from disk.
type EventCacheStorage interface {
	// Get returns the record for code when it is younger than maxAgeDays.
	// Absent, expired or undated entries yield common.ErrCacheMiss.
	Get(ctx context.Context, code string, maxAgeDays int) (*models.EventRecord, error)

	// Set overwrites the entry for code, stamping LastUpdated with the current UTC time,
	// and returns the stored record with FromCache=false.
	Set(ctx context.Context, code string, record *models.EventRecord) (*models.EventRecord, error)

	// Close releases any underlying resources.
	Close() error
}
