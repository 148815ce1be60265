package models

import (
	"fmt"
	"time"
)

// QuarterLabel identifies one of the four earnings announcements tracked per ticker.
type QuarterLabel string

const (
	QuarterQ1       QuarterLabel = "Q1"
	QuarterQ2       QuarterLabel = "Q2"
	QuarterQ3       QuarterLabel = "Q3"
	QuarterFullYear QuarterLabel = "FY"
)

// QuarterLabels is the fixed order used for prompts, strict payloads and display.
var QuarterLabels = []QuarterLabel{QuarterQ1, QuarterQ2, QuarterQ3, QuarterFullYear}

var quarterJapaneseNames = map[QuarterLabel]string{
	QuarterQ1:       "第1四半期",
	QuarterQ2:       "第2四半期",
	QuarterQ3:       "第3四半期",
	QuarterFullYear: "通期",
}

// Japanese returns the label as it appears in Japanese disclosures and model replies.
func (q QuarterLabel) Japanese() string {
	return quarterJapaneseNames[q]
}

// ParseQuarterLabel accepts either the short form (Q1..FY) or the Japanese name.
func ParseQuarterLabel(s string) (QuarterLabel, bool) {
	for _, label := range QuarterLabels {
		if s == string(label) || s == label.Japanese() {
			return label, true
		}
	}
	return "", false
}

// RightsLabel is the Japanese label for the last day to hold shares with dividend/benefit rights.
const RightsLabel = "権利付き最終日"

// NotAvailableSentinel is the token the lookup returns when it has no information.
const NotAvailableSentinel = "情報未取得"

// EventKind distinguishes an announced future date from the most recent past one.
type EventKind string

const (
	EventKindScheduled EventKind = "scheduled"
	EventKindPrevious  EventKind = "previous"
)

// ParseEventKind maps the Japanese surface words 予定 / 前回 to an EventKind.
func ParseEventKind(s string) (EventKind, bool) {
	switch s {
	case "予定", string(EventKindScheduled):
		return EventKindScheduled, true
	case "前回", string(EventKindPrevious):
		return EventKindPrevious, true
	}
	return "", false
}

// Japanese returns the surface word used in model payloads and display strings.
func (k EventKind) Japanese() string {
	switch k {
	case EventKindScheduled:
		return "予定"
	case EventKindPrevious:
		return "前回"
	}
	return string(k)
}

// QuarterEvent is one earnings announcement date.
// Date is ISO yyyy-mm-dd when the text could be parsed, otherwise the surface text.
type QuarterEvent struct {
	Date      string    `json:"date,omitempty"`
	DateText  string    `json:"date_text,omitempty"`
	Kind      EventKind `json:"kind,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
}

// Validate checks that provenance is never recorded without the text it describes.
func (e *QuarterEvent) Validate() error {
	if e == nil {
		return nil
	}
	if (e.Kind != "" || e.SourceURL != "") && e.DateText == "" {
		return fmt.Errorf("quarter event has kind or source without date text")
	}
	return nil
}

// IsEmpty reports whether the event carries no information.
func (e *QuarterEvent) IsEmpty() bool {
	return e == nil || (e.Date == "" && e.DateText == "" && e.Kind == "" && e.SourceURL == "")
}

// RightsEvent is the rights-entitlement cutoff date. It never carries a kind.
type RightsEvent struct {
	Date      string `json:"date,omitempty"`
	DateText  string `json:"date_text,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
}

// Validate checks that a source URL is never recorded without date text.
func (e *RightsEvent) Validate() error {
	if e == nil {
		return nil
	}
	if e.SourceURL != "" && e.DateText == "" {
		return fmt.Errorf("rights event has source without date text")
	}
	return nil
}

// IsEmpty reports whether the event carries no information.
func (e *RightsEvent) IsEmpty() bool {
	return e == nil || (e.Date == "" && e.DateText == "" && e.SourceURL == "")
}

// EventData is the extracted content of a lookup reply.
// QuarterDates is the flat display form kept for older consumers, QuarterEvents the structured form.
type EventData struct {
	QuarterDates  map[QuarterLabel]string        `json:"quarter_dates"`
	QuarterEvents map[QuarterLabel]*QuarterEvent `json:"quarter_events,omitempty"`
	RightsDate    string                         `json:"rights_date,omitempty"`
	RightsEvent   *RightsEvent                   `json:"rights_event,omitempty"`
}

// NewEventData returns EventData with initialised maps.
func NewEventData() EventData {
	return EventData{
		QuarterDates:  map[QuarterLabel]string{},
		QuarterEvents: map[QuarterLabel]*QuarterEvent{},
	}
}

// IsEmpty reports whether no quarter or rights information was found.
func (d *EventData) IsEmpty() bool {
	for _, v := range d.QuarterDates {
		if v != "" {
			return false
		}
	}
	for _, ev := range d.QuarterEvents {
		if !ev.IsEmpty() {
			return false
		}
	}
	return d.RightsDate == "" && d.RightsEvent.IsEmpty()
}

// Validate checks the provenance invariants of every event.
func (d *EventData) Validate() error {
	for label, ev := range d.QuarterEvents {
		if err := ev.Validate(); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
	}
	return d.RightsEvent.Validate()
}

// Copy returns a deep copy.
func (d EventData) Copy() EventData {
	out := EventData{RightsDate: d.RightsDate}
	if d.QuarterDates != nil {
		out.QuarterDates = make(map[QuarterLabel]string, len(d.QuarterDates))
		for k, v := range d.QuarterDates {
			out.QuarterDates[k] = v
		}
	}
	if d.QuarterEvents != nil {
		out.QuarterEvents = make(map[QuarterLabel]*QuarterEvent, len(d.QuarterEvents))
		for k, v := range d.QuarterEvents {
			if v == nil {
				out.QuarterEvents[k] = nil
				continue
			}
			ev := *v
			out.QuarterEvents[k] = &ev
		}
	}
	if d.RightsEvent != nil {
		ev := *d.RightsEvent
		out.RightsEvent = &ev
	}
	return out
}

// NormalizeLabels rewrites map keys written with Japanese quarter names
// (as older caches did) to the short labels. Unknown keys are dropped.
func (d *EventData) NormalizeLabels() {
	if d.QuarterDates != nil {
		dates := make(map[QuarterLabel]string, len(d.QuarterDates))
		for k, v := range d.QuarterDates {
			if label, ok := ParseQuarterLabel(string(k)); ok {
				dates[label] = v
			}
		}
		d.QuarterDates = dates
	}
	if d.QuarterEvents != nil {
		events := make(map[QuarterLabel]*QuarterEvent, len(d.QuarterEvents))
		for k, v := range d.QuarterEvents {
			if label, ok := ParseQuarterLabel(string(k)); ok {
				events[label] = v
			}
		}
		d.QuarterEvents = events
	}
}

// ErrorCode classifies a per-record failure. Failures travel as data, never as aborts.
type ErrorCode string

const (
	ErrorCodeInvalidCode         ErrorCode = "invalid_code"
	ErrorCodeCacheMiss           ErrorCode = "cache_miss"
	ErrorCodeUnknownMode         ErrorCode = "unknown_mode"
	ErrorCodeExternalUnavailable ErrorCode = "external_unavailable"
	ErrorCodeExternalTransport   ErrorCode = "external_transport"
	ErrorCodeMalformedResponse   ErrorCode = "malformed_response"
)

// EventRecord is the per-ticker aggregate served to callers and persisted in the cache.
type EventRecord struct {
	EventData
	RawResponse string     `json:"raw_response,omitempty"`
	Error       string     `json:"error,omitempty"`
	ErrorCode   ErrorCode  `json:"error_code,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	FromCache   bool       `json:"from_cache"`
}

// NewErrorRecord builds a record carrying only an error.
func NewErrorRecord(code ErrorCode, message string) *EventRecord {
	return &EventRecord{
		EventData: NewEventData(),
		Error:     message,
		ErrorCode: code,
	}
}

// HasError reports whether the record carries a diagnostic.
func (r *EventRecord) HasError() bool {
	return r != nil && r.Error != ""
}

// Copy returns a deep copy so callers can never mutate cached state.
func (r *EventRecord) Copy() *EventRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.EventData = r.EventData.Copy()
	if r.LastUpdated != nil {
		ts := *r.LastUpdated
		out.LastUpdated = &ts
	}
	return &out
}
