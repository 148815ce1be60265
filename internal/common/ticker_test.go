package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"7203", "7203"},
		{" 7203 ", "7203"},
		{"72", "0072"},
		{"1", "0001"},
		{"７２０３", "7203"},
		{"　6758　", "6758"},
		{"130A", "130A"},
		{"", ""},
		{"   ", ""},
		{"12345", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeCode(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeCode(got), "normalization must be idempotent")
		})
	}
}

func TestNormalizeCodes(t *testing.T) {
	got := NormalizeCodes([]string{"7203", " 6758", "", "7203", "72", "0072"})
	assert.Equal(t, []string{"7203", "6758", "0072"}, got)
}

func TestSplitCodes(t *testing.T) {
	assert.Equal(t, []string{"7203", "6758", "9984"}, SplitCodes("7203, 6758，9984"))
	assert.Empty(t, SplitCodes(" , "))
}

func TestYahooSymbolAndForumURL(t *testing.T) {
	assert.Equal(t, "7203.T", YahooSymbol("7203"))
	assert.Equal(t, "0072.T", YahooSymbol("72"))
	assert.Equal(t, "7203.T", YahooSymbol("7203.T"))
	assert.Equal(t, "https://finance.yahoo.co.jp/quote/7203.T/forum", ForumURL("7203"))
}

func TestExtractCodes(t *testing.T) {
	text := "トヨタ 7203\nソニー 6758 / 7203\n新コード 130a\nABCD"
	got := ExtractCodes(text)
	assert.Equal(t, []string{"7203", "6758", "130A"}, got)
}
