// Package calendar applies the retrieval policy that decides when event dates
// come from the local cache and when the external lookup is asked.
package calendar

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/interfaces"
	"github.com/ternarybob/kabuka/internal/models"
)

// Service implements interfaces.EventService over a cache and a lookup.
type Service struct {
	cache       interfaces.EventCacheStorage
	lookup      interfaces.EventLookup
	config      common.EventsConfig
	defaultMode string
	logger      arbor.ILogger
}

// Compile-time assertion
var _ interfaces.EventService = (*Service)(nil)

// NewService creates a retrieval-policy service.
func NewService(cache interfaces.EventCacheStorage, lookup interfaces.EventLookup, config common.EventsConfig, logger arbor.ILogger) *Service {
	return &Service{
		cache:       cache,
		lookup:      lookup,
		config:      config,
		defaultMode: config.DefaultMode,
		logger:      logger,
	}
}

// GetEventsInfo returns the record for one code under the given mode.
// An empty mode falls back to the configured default.
func (s *Service) GetEventsInfo(ctx context.Context, code string, mode string) *models.EventRecord {
	normalized := common.NormalizeCode(code)
	if normalized == "" {
		return cacheErrorRecord(models.ErrorCodeInvalidCode, common.MsgInvalidCode)
	}

	m, err := s.parseMode(mode)
	if err != nil {
		return cacheErrorRecord(models.ErrorCodeUnknownMode, common.MsgUnknownMode)
	}

	switch m {
	case ModeCacheOnly:
		if rec, ok := s.cached(ctx, normalized, s.config.CacheMaxAgeDays); ok {
			return rec
		}
		return cacheErrorRecord(models.ErrorCodeCacheMiss, common.MsgCacheMiss)

	case ModeCacheFirst:
		if rec, ok := s.cached(ctx, normalized, s.config.RecentCacheDays); ok {
			return rec
		}
		return s.refresh(ctx, []string{normalized})[normalized]

	default:
		return s.refresh(ctx, []string{normalized})[normalized]
	}
}

// FetchEventsInfoForCodes returns records for many codes, keyed by normalized code.
// At most one external call is made per invocation.
func (s *Service) FetchEventsInfoForCodes(ctx context.Context, codes []string, mode string) map[string]*models.EventRecord {
	normalized := common.NormalizeCodes(codes)
	results := make(map[string]*models.EventRecord, len(normalized))
	if len(normalized) == 0 {
		return results
	}

	m, err := s.parseMode(mode)
	if err != nil {
		for _, code := range normalized {
			results[code] = cacheErrorRecord(models.ErrorCodeUnknownMode, common.MsgUnknownMode)
		}
		return results
	}

	switch m {
	case ModeCacheOnly:
		for _, code := range normalized {
			results[code] = s.GetEventsInfo(ctx, code, string(ModeCacheOnly))
		}
		return results

	case ModeCacheFirst:
		var misses []string
		for _, code := range normalized {
			if rec, ok := s.cached(ctx, code, s.config.RecentCacheDays); ok {
				results[code] = rec
				continue
			}
			misses = append(misses, code)
		}

		s.logger.Debug().
			Int("codes", len(normalized)).
			Int("cache_hits", len(normalized)-len(misses)).
			Msg("Cache-first partition")

		if len(misses) > 0 {
			for code, rec := range s.refresh(ctx, misses) {
				results[code] = rec
			}
		}
		return results

	default:
		return s.refresh(ctx, normalized)
	}
}

func (s *Service) parseMode(mode string) (Mode, error) {
	if mode == "" {
		mode = s.defaultMode
	}
	m, err := ParseMode(mode)
	if err != nil {
		s.logger.Warn().Str("mode", mode).Msg("Unknown retrieval mode")
	}
	return m, err
}

// cached reads one entry and stamps FromCache.
func (s *Service) cached(ctx context.Context, code string, maxAgeDays int) (*models.EventRecord, bool) {
	if s.cache == nil {
		return nil, false
	}
	rec, err := s.cache.Get(ctx, code, maxAgeDays)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			s.logger.Warn().Str("code", code).Err(err).Msg("Cache read failed, treating as miss")
		}
		return nil, false
	}
	rec.FromCache = true
	return rec, true
}

// refresh performs one external call for codes and stores every result.
// A single code uses the single lookup; several codes share one batch request.
func (s *Service) refresh(ctx context.Context, codes []string) map[string]*models.EventRecord {
	var fetched map[string]*models.EventRecord
	if s.lookup == nil {
		fetched = make(map[string]*models.EventRecord, len(codes))
		for _, code := range codes {
			fetched[code] = models.NewErrorRecord(models.ErrorCodeExternalUnavailable, common.MsgExternalNotConfig)
		}
	} else if len(codes) == 1 {
		fetched = map[string]*models.EventRecord{codes[0]: s.lookup.Lookup(ctx, codes[0])}
	} else {
		fetched = s.lookup.LookupBatch(ctx, codes)
	}

	results := make(map[string]*models.EventRecord, len(codes))
	for _, code := range codes {
		rec, ok := fetched[code]
		if !ok || rec == nil {
			rec = models.NewErrorRecord(models.ErrorCodeMalformedResponse, fmt.Sprintf(common.MsgNotInBatchFmt, code))
		}
		results[common.NormalizeCode(code)] = s.store(ctx, code, rec)
	}
	return results
}

// store writes a fresh record to the cache. Transient collaborator failures are
// not written so they never overwrite a good entry.
func (s *Service) store(ctx context.Context, code string, rec *models.EventRecord) *models.EventRecord {
	rec.FromCache = false
	if s.cache == nil || isTransient(rec.ErrorCode) {
		return rec
	}

	stored, err := s.cache.Set(ctx, code, rec)
	if err != nil {
		s.logger.Error().Str("code", code).Err(err).Msg("Failed to write event cache")
		return rec
	}
	stored.FromCache = false
	return stored
}

func isTransient(code models.ErrorCode) bool {
	return code == models.ErrorCodeExternalTransport || code == models.ErrorCodeExternalUnavailable
}

// cacheErrorRecord builds an error record that did not involve the external lookup.
func cacheErrorRecord(code models.ErrorCode, message string) *models.EventRecord {
	rec := models.NewErrorRecord(code, message)
	rec.FromCache = true
	return rec
}
