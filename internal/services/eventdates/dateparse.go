// Package eventdates turns free-text lookup replies into structured earnings and rights dates.
package eventdates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// ISODateLayout is the canonical output layout of ParseDateText.
const ISODateLayout = "2006-01-02"

var dashReplacer = strings.NewReplacer(
	"―", "-",
	"ー", "-",
	"‐", "-",
	"−", "-",
	"年", "/",
	"月", "/",
	"日", "",
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})\s*-\s*(\d{1,2})\s*-\s*(\d{1,2})`),
	regexp.MustCompile(`(\d{4})\s*/\s*(\d{1,2})\s*/\s*(\d{1,2})`),
	regexp.MustCompile(`(\d{4})\s*\.\s*(\d{1,2})\s*\.\s*(\d{1,2})`),
	regexp.MustCompile(`(\d{4})\s+(\d{1,2})\s+(\d{1,2})`),
	regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`),
}

// ParseDateText extracts a calendar date from Japanese or ISO-like text and
// returns it as yyyy-mm-dd. Full-width digits and punctuation are accepted,
// as are 年/月/日 separators. The first pattern whose first match forms a valid
// calendar date wins. Text without an explicit date (早期, 上旬, ...) yields false.
func ParseDateText(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	text = dashReplacer.Replace(width.Fold.String(text))

	for _, pattern := range datePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if iso, ok := toISODate(m[1], m[2], m[3]); ok {
			return iso, true
		}
	}
	return "", false
}

func toISODate(y, m, d string) (string, bool) {
	year, err1 := strconv.Atoi(y)
	month, err2 := strconv.Atoi(m)
	day, err3 := strconv.Atoi(d)
	if err1 != nil || err2 != nil || err3 != nil || year < 1 {
		return "", false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// ParseISODate parses a yyyy-mm-dd string produced by ParseDateText.
func ParseISODate(s string) (time.Time, bool) {
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
