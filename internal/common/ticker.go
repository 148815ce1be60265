// Package common provides shared utilities across the application.
package common

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// TokyoSuffix is the Yahoo Finance suffix for Tokyo Stock Exchange listings.
const TokyoSuffix = ".T"

// NormalizeCode canonicalises a Tokyo ticker code.
// Full-width characters are folded to half-width, surrounding whitespace is
// trimmed and purely numeric codes are left-padded with zeros to four digits.
// Idempotent.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(width.Fold.String(code))
	if code == "" {
		return ""
	}
	if isASCIIDigits(code) && len(code) < 4 {
		code = strings.Repeat("0", 4-len(code)) + code
	}
	return code
}

// NormalizeCodes normalises every code, drops empties and removes duplicates
// while keeping first-seen order.
func NormalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := NormalizeCode(c)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// SplitCodes splits a comma or whitespace separated list of codes.
func SplitCodes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '，' || r == '、' || r == ' ' || r == '\t' || r == '\n' || r == '　'
	})
}

// YahooSymbol returns the Yahoo Finance symbol for a Tokyo code, e.g. 7203 -> 7203.T.
func YahooSymbol(code string) string {
	code = NormalizeCode(code)
	if code == "" || strings.HasSuffix(strings.ToUpper(code), TokyoSuffix) {
		return code
	}
	return code + TokyoSuffix
}

// ForumURL returns the Yahoo!ファイナンス message board URL for a code.
func ForumURL(code string) string {
	return fmt.Sprintf("https://finance.yahoo.co.jp/quote/%s/forum", YahooSymbol(code))
}

var (
	codeWordPattern  = regexp.MustCompile(`\b(?:\d{4}|[0-9A-Z]{4})\b`)
	codeLoosePattern = regexp.MustCompile(`\d{4}`)
)

// ExtractCodes pulls four-character ticker codes out of free text such as OCR output.
// Codes are normalised and de-duplicated in order of appearance.
func ExtractCodes(text string) []string {
	upper := strings.ToUpper(text)
	var found []string
	found = append(found, codeWordPattern.FindAllString(upper, -1)...)

	compact := strings.Join(strings.Fields(upper), "")
	found = append(found, codeLoosePattern.FindAllString(compact, -1)...)

	out := NormalizeCodes(found)
	filtered := out[:0]
	for _, c := range out {
		if hasDigit(c) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func isASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}
