package lookup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/models"
	"github.com/ternarybob/kabuka/internal/services/eventdates"
)

var listMarkerPattern = regexp.MustCompile(`^(?:[-*・•]\s*|\d+[.)]\s+)`)

// ParseBatchResponse splits a batched reply into per-code records.
// Every code in codes is present in the result. A code without a usable line
// carries a malformed_response error; a line with fewer than five fields does too.
// When a code appears on several lines the first well-formed one wins.
func ParseBatchResponse(content string, codes []string) map[string]*models.EventRecord {
	results := make(map[string]*models.EventRecord, len(codes))
	parsed := make(map[string]bool, len(codes))
	for _, code := range codes {
		rec := models.NewErrorRecord(models.ErrorCodeMalformedResponse, fmt.Sprintf(common.MsgNotInBatchFmt, code))
		rec.RawResponse = content
		results[code] = rec
	}

	for _, line := range strings.Split(content, "\n") {
		code, values, ok := splitBatchLine(line)
		if !ok || parsed[code] {
			continue
		}
		if _, wanted := results[code]; !wanted {
			continue
		}

		fields := eventdates.SplitFields(values)
		if len(fields) < 5 {
			rec := models.NewErrorRecord(models.ErrorCodeMalformedResponse, fmt.Sprintf(common.MsgInsufficientFmt, code))
			rec.RawResponse = content
			results[code] = rec
			continue
		}

		extraction := eventdates.Extract(strings.Join(fields[:5], ","))
		rec := &models.EventRecord{EventData: extraction.Data, RawResponse: content}
		if extraction.Err != nil {
			rec.Error = fmt.Sprintf(common.MsgUnreadableFmt, code)
			rec.ErrorCode = models.ErrorCodeMalformedResponse
		} else {
			parsed[code] = true
		}
		results[code] = rec
	}

	return results
}

// splitBatchLine splits "code: values" on the first half-width or full-width colon.
func splitBatchLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}
	line = listMarkerPattern.ReplaceAllString(line, "")

	idx := strings.IndexAny(line, ":：")
	if idx <= 0 {
		return "", "", false
	}
	sepLen := 1
	if strings.HasPrefix(line[idx:], "：") {
		sepLen = len("：")
	}

	code := common.NormalizeCode(strings.Trim(line[:idx], "*`# "))
	if code == "" {
		return "", "", false
	}
	return code, line[idx+sepLen:], true
}
