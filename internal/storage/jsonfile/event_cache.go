// Package jsonfile implements the event cache as a single versioned JSON document.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/interfaces"
	"github.com/ternarybob/kabuka/internal/models"
)

// SchemaVersion is the on-disk document version written by this package.
const SchemaVersion = 2

// document is the versioned on-disk layout.
type document struct {
	SchemaVersion int                           `json:"schema_version"`
	Entries       map[string]*models.CacheEntry `json:"entries"`
}

// EventCache stores every entry in one JSON file. Each call reads the whole
// table; Set rewrites it through a temp file and rename. Writers within the
// process are serialised. Separate processes still race last-writer-wins.
type EventCache struct {
	path   string
	logger arbor.ILogger
	now    func() time.Time
	mu     sync.Mutex
}

// Compile-time assertion
var _ interfaces.EventCacheStorage = (*EventCache)(nil)

// Option configures the EventCache.
type Option func(*EventCache)

// WithClock overrides the time source used for stamping and expiry.
func WithClock(now func() time.Time) Option {
	return func(c *EventCache) {
		c.now = now
	}
}

// NewEventCache creates a cache backed by the file at path. The file and its
// directory are created on first write.
func NewEventCache(path string, logger arbor.ILogger, opts ...Option) *EventCache {
	c := &EventCache{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry for code when it is no older than maxAgeDays.
func (c *EventCache) Get(ctx context.Context, code string, maxAgeDays int) (*models.EventRecord, error) {
	normalized := common.NormalizeCode(code)
	if normalized == "" {
		return nil, common.ErrInvalidCode
	}

	c.mu.Lock()
	entries := c.load()
	c.mu.Unlock()

	entry, ok := entries[normalized]
	if !ok || entry == nil {
		return nil, common.ErrCacheMiss
	}

	expired, err := entry.IsExpired(c.now(), maxAgeDays)
	if err != nil {
		c.logger.Debug().Str("code", normalized).Err(err).Msg("Cache entry has no usable timestamp")
		return nil, common.ErrCacheMiss
	}
	if expired {
		return nil, common.ErrCacheMiss
	}

	rec, err := entry.Record()
	if err != nil {
		return nil, common.ErrCacheMiss
	}
	return rec, nil
}

// Set overwrites the entry for code and returns the stored record.
func (c *EventCache) Set(ctx context.Context, code string, record *models.EventRecord) (*models.EventRecord, error) {
	normalized := common.NormalizeCode(code)
	if normalized == "" {
		return nil, common.ErrInvalidCode
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.load()
	entry := models.NewCacheEntry(normalized, record, c.now())
	entries[normalized] = entry

	if err := c.save(entries); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("code", normalized).Str("path", c.path).Msg("Event cache entry written")

	return entry.Record()
}

// Close is a no-op; the file is opened per call.
func (c *EventCache) Close() error {
	return nil
}

// load reads the table. A missing or unreadable file is an empty table.
func (c *EventCache) load() map[string]*models.CacheEntry {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn().Str("path", c.path).Err(err).Msg("Failed to read event cache, treating as empty")
		}
		return map[string]*models.CacheEntry{}
	}

	entries, err := decodeDocument(data)
	if err != nil {
		c.logger.Warn().Str("path", c.path).Err(err).Msg("Corrupt event cache, treating as empty")
		return map[string]*models.CacheEntry{}
	}
	return entries
}

// decodeDocument accepts the versioned layout and the legacy flat map of
// code to entry.
func decodeDocument(data []byte) (map[string]*models.CacheEntry, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	if _, versioned := probe["schema_version"]; versioned {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if doc.SchemaVersion > SchemaVersion {
			return nil, fmt.Errorf("unsupported schema_version %d", doc.SchemaVersion)
		}
		return keyEntries(doc.Entries), nil
	}

	legacy := make(map[string]*models.CacheEntry, len(probe))
	for code, raw := range probe {
		var entry models.CacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			// One bad legacy row does not discard the rest.
			continue
		}
		legacy[code] = &entry
	}
	return keyEntries(legacy), nil
}

func keyEntries(entries map[string]*models.CacheEntry) map[string]*models.CacheEntry {
	out := make(map[string]*models.CacheEntry, len(entries))
	for code, entry := range entries {
		if entry == nil {
			continue
		}
		normalized := common.NormalizeCode(code)
		entry.Code = normalized
		entry.NormalizeLabels()
		out[normalized] = entry
	}
	return out
}

// save writes the table to a temp file in the same directory and renames it
// over the target.
func (c *EventCache) save(entries map[string]*models.CacheEntry) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(document{SchemaVersion: SchemaVersion, Entries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode event cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace event cache: %w", err)
	}
	return nil
}
