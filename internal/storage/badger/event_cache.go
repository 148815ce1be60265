package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/interfaces"
	"github.com/ternarybob/kabuka/internal/models"
)

// EventCache stores one badgerhold record per normalized code. Upserts are
// per key, so concurrent refreshes of different codes never lose updates.
type EventCache struct {
	db     *BadgerDB
	logger arbor.ILogger
	now    func() time.Time
}

// Compile-time assertion
var _ interfaces.EventCacheStorage = (*EventCache)(nil)

// NewEventCache creates a badger-backed event cache.
func NewEventCache(db *BadgerDB, logger arbor.ILogger) *EventCache {
	return &EventCache{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the time source used for stamping and expiry.
func (s *EventCache) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns the entry for code when it is no older than maxAgeDays.
func (s *EventCache) Get(ctx context.Context, code string, maxAgeDays int) (*models.EventRecord, error) {
	normalized := common.NormalizeCode(code)
	if normalized == "" {
		return nil, common.ErrInvalidCode
	}

	var entry models.CacheEntry
	err := s.db.Store().Get(normalized, &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, common.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	expired, err := entry.IsExpired(s.now(), maxAgeDays)
	if err != nil || expired {
		return nil, common.ErrCacheMiss
	}

	rec, err := entry.Record()
	if err != nil {
		return nil, common.ErrCacheMiss
	}
	return rec, nil
}

// Set overwrites the entry for code and returns the stored record.
func (s *EventCache) Set(ctx context.Context, code string, record *models.EventRecord) (*models.EventRecord, error) {
	normalized := common.NormalizeCode(code)
	if normalized == "" {
		return nil, common.ErrInvalidCode
	}

	entry := models.NewCacheEntry(normalized, record, s.now())
	if err := s.db.Store().Upsert(normalized, entry); err != nil {
		return nil, fmt.Errorf("failed to upsert cache entry: %w", err)
	}

	s.logger.Debug().Str("code", normalized).Msg("Event cache entry written")

	return entry.Record()
}

// Close closes the underlying database.
func (s *EventCache) Close() error {
	return s.db.Close()
}
