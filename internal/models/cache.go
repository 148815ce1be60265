package models

import (
	"fmt"
	"time"
)

// CacheEntry is the persisted form of an EventRecord. FromCache is never stored.
// LastUpdated stays a string so timestamps written by older tools
// (naive ISO forms, microsecond fractions) still load.
type CacheEntry struct {
	Code string `json:"-" badgerhold:"key"`
	EventData
	RawResponse string    `json:"raw_response,omitempty"`
	Error       string    `json:"error,omitempty"`
	ErrorCode   ErrorCode `json:"error_code,omitempty"`
	LastUpdated string    `json:"last_updated,omitempty"`
}

// NewCacheEntry converts a record into its stored form, stamped at now.
func NewCacheEntry(code string, rec *EventRecord, now time.Time) *CacheEntry {
	entry := &CacheEntry{
		Code:        code,
		EventData:   NewEventData(),
		LastUpdated: FormatCacheTimestamp(now),
	}
	if rec != nil {
		entry.EventData = rec.EventData.Copy()
		entry.RawResponse = rec.RawResponse
		entry.Error = rec.Error
		entry.ErrorCode = rec.ErrorCode
	}
	if entry.QuarterDates == nil {
		entry.QuarterDates = map[QuarterLabel]string{}
	}
	return entry
}

// Record converts the entry back into an EventRecord. FromCache is left false;
// callers stamp it.
func (e *CacheEntry) Record() (*EventRecord, error) {
	updated, err := ParseCacheTimestamp(e.LastUpdated)
	if err != nil {
		return nil, err
	}
	rec := &EventRecord{
		EventData:   e.EventData.Copy(),
		RawResponse: e.RawResponse,
		Error:       e.Error,
		ErrorCode:   e.ErrorCode,
		LastUpdated: &updated,
	}
	if rec.QuarterDates == nil {
		rec.QuarterDates = map[QuarterLabel]string{}
	}
	return rec, nil
}

// IsExpired reports whether the entry is older than maxAgeDays at now.
// Age is truncated to whole seconds; an entry from the future is fresh.
func (e *CacheEntry) IsExpired(now time.Time, maxAgeDays int) (bool, error) {
	updated, err := ParseCacheTimestamp(e.LastUpdated)
	if err != nil {
		return true, err
	}
	age := now.Sub(updated).Truncate(time.Second)
	return age > time.Duration(maxAgeDays)*24*time.Hour, nil
}

var cacheTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// FormatCacheTimestamp renders t as RFC3339 in UTC with sub-second precision.
func FormatCacheTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseCacheTimestamp accepts RFC3339 and ISO forms with or without zone.
// A timestamp without zone is read as UTC.
func ParseCacheTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing last_updated")
	}
	for _, layout := range cacheTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable last_updated %q", s)
}
