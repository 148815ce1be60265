package eventdates

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/models"
)

// Stage names the extraction strategy that produced a result.
type Stage string

const (
	StageEmpty  Stage = "empty"  // blank reply or the not-available sentinel
	StageStrict Stage = "strict" // five comma-separated fields with kind and source URL
	StageLegacy Stage = "legacy" // five comma-separated raw values
	StageJSON   Stage = "json"   // {"quarter_dates": {...}, "rights_date": ...}
	StageLabels Stage = "labels" // line scan for 第N四半期決算 / 権利付き最終日
	StageNone   Stage = "none"   // nothing usable found
)

// Extraction is the result of Extract.
type Extraction struct {
	Data  models.EventData
	Stage Stage
	Err   error
}

const ws = `[\s\x{3000}]*`

var (
	quarterValuePattern = regexp.MustCompile(`^` + ws + `([^（(]+?)` + ws + `[（(]` + ws + `(予定|前回)` + ws + `[｜|]` + ws + `(https?://[^）)]+?)` + ws + `[）)]` + ws + `$`)
	bareURLPattern      = regexp.MustCompile(`^` + ws + `([^（(]+?)` + ws + `[（(]` + ws + `(https?://[^）)]+?)` + ws + `[）)]` + ws + `$`)
	rightsRescuePattern = regexp.MustCompile(models.RightsLabel + ws + `[:：]?` + ws + `(\d{4}-\d{2}-\d{2})`)
	fencePattern        = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	rightsLabelPattern  = labelPattern(models.RightsLabel)
)

// quarterLabelPatterns match "<第N四半期|通期>決算" followed by an optional colon.
var quarterLabelPatterns = func() map[models.QuarterLabel]*regexp.Regexp {
	patterns := make(map[models.QuarterLabel]*regexp.Regexp, len(models.QuarterLabels))
	for _, label := range models.QuarterLabels {
		patterns[label] = labelPattern(label.Japanese() + "決算")
	}
	return patterns
}()

func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(label) + ws + `(?:[：:]` + ws + `)?(.*)`)
}

// Extract runs the prioritized extraction chain over a lookup reply:
// strict five-field format, legacy five-field format, JSON object, then a
// per-label line scan. The first stage that yields data wins.
func Extract(content string) Extraction {
	content = strings.TrimSpace(content)
	if content == "" || content == models.NotAvailableSentinel {
		return Extraction{Data: models.NewEventData(), Stage: StageEmpty}
	}

	if data, ok := extractStrict(content); ok {
		return Extraction{Data: data, Stage: StageStrict}
	}
	// A JSON object always has enough commas to pass the legacy split.
	jsonBody, isJSON := jsonObjectBody(content)
	if !isJSON {
		if data, ok := extractLegacy(content); ok {
			return Extraction{Data: data, Stage: StageLegacy}
		}
	}
	if data, ok := extractJSON(jsonBody, isJSON); ok {
		return Extraction{Data: data, Stage: StageJSON}
	}
	if data, ok := extractLabels(content); ok {
		return Extraction{Data: data, Stage: StageLabels}
	}

	return Extraction{
		Data:  models.NewEventData(),
		Stage: StageNone,
		Err:   fmt.Errorf("no extraction stage matched: %w", common.ErrMalformedResponse),
	}
}

// SplitFields splits a payload on half-width or full-width commas, trimming and dropping empty parts.
func SplitFields(content string) []string {
	raw := strings.FieldsFunc(content, func(r rune) bool { return r == ',' || r == '，' })
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func extractStrict(content string) (models.EventData, bool) {
	parts := SplitFields(content)
	if len(parts) < 5 {
		return models.EventData{}, false
	}

	data := models.NewEventData()
	for i, label := range models.QuarterLabels {
		ev, ok := parseQuarterValue(parts[i])
		if !ok {
			return models.EventData{}, false
		}
		data.QuarterEvents[label] = ev
		data.QuarterDates[label] = fmt.Sprintf("%s（%s, %s）", ev.DateText, ev.Kind.Japanese(), ev.SourceURL)
	}

	if rights := parseRightsValue(parts[4]); rights != nil {
		data.RightsEvent = rights
		data.RightsDate = rights.Date
	}
	return data, true
}

func parseQuarterValue(value string) (*models.QuarterEvent, bool) {
	m := quarterValuePattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return nil, false
	}
	kind, _ := models.ParseEventKind(m[2])
	dateText := strings.TrimSpace(m[1])
	return &models.QuarterEvent{
		Date:      dateOrText(dateText),
		DateText:  dateText,
		Kind:      kind,
		SourceURL: strings.TrimSpace(m[3]),
	}, true
}

// parseRightsValue accepts the full quarter grammar (kind dropped), a bare
// "<date>（<url>）" pair or plain text. The sentinel yields nil.
func parseRightsValue(value string) *models.RightsEvent {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, models.NotAvailableSentinel) {
		return nil
	}

	if ev, ok := parseQuarterValue(value); ok {
		return &models.RightsEvent{Date: ev.Date, DateText: ev.DateText, SourceURL: ev.SourceURL}
	}

	if m := bareURLPattern.FindStringSubmatch(value); m != nil {
		dateText := strings.TrimSpace(m[1])
		return &models.RightsEvent{Date: dateOrText(dateText), DateText: dateText, SourceURL: strings.TrimSpace(m[2])}
	}

	return &models.RightsEvent{Date: dateOrText(value), DateText: value}
}

func dateOrText(text string) string {
	if iso, ok := ParseDateText(text); ok {
		return iso
	}
	return text
}

func extractLegacy(content string) (models.EventData, bool) {
	parts := SplitFields(content)
	if len(parts) < 5 {
		return models.EventData{}, false
	}

	data := models.NewEventData()
	for i, label := range models.QuarterLabels {
		data.QuarterDates[label] = parts[i]
	}
	data.RightsDate = parts[4]
	return data, true
}

type jsonPayload struct {
	QuarterDates map[string]interface{} `json:"quarter_dates"`
	RightsDate   interface{}            `json:"rights_date"`
}

// jsonObjectBody strips an optional ``` fence and reports whether the remainder opens a JSON object.
func jsonObjectBody(content string) (string, bool) {
	if m := fencePattern.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}
	return content, strings.HasPrefix(content, "{")
}

func extractJSON(body string, isJSON bool) (models.EventData, bool) {
	if !isJSON {
		return models.EventData{}, false
	}

	repaired, err := jsonrepair.JSONRepair(body)
	if err != nil {
		return models.EventData{}, false
	}

	var payload jsonPayload
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return models.EventData{}, false
	}

	data := models.NewEventData()
	for key, value := range payload.QuarterDates {
		label, ok := models.ParseQuarterLabel(strings.TrimSpace(key))
		if !ok {
			continue
		}
		if s := scalarString(value); s != "" {
			data.QuarterDates[label] = s
		}
	}
	data.RightsDate = scalarString(payload.RightsDate)

	if data.IsEmpty() {
		return models.EventData{}, false
	}
	return data, true
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

func extractLabels(content string) (models.EventData, bool) {
	lines := strings.Split(content, "\n")
	data := models.NewEventData()

	for _, label := range models.QuarterLabels {
		if iso, ok := dateAfterLabel(lines, quarterLabelPatterns[label]); ok {
			data.QuarterDates[label] = iso
		}
	}

	if iso, ok := dateAfterLabel(lines, rightsLabelPattern); ok {
		data.RightsDate = iso
	} else if m := rightsRescuePattern.FindStringSubmatch(content); m != nil {
		data.RightsDate = m[1]
	}

	if data.IsEmpty() {
		return models.EventData{}, false
	}
	return data, true
}

// dateAfterLabel finds the first line matching pattern and parses a date from
// the rest of that line or, failing that, from the following line.
func dateAfterLabel(lines []string, pattern *regexp.Regexp) (string, bool) {
	for idx, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if remainder := strings.TrimSpace(m[1]); remainder != "" {
			if iso, ok := ParseDateText(remainder); ok {
				return iso, true
			}
		}
		if idx+1 < len(lines) {
			if iso, ok := ParseDateText(lines[idx+1]); ok {
				return iso, true
			}
		}
	}
	return "", false
}
