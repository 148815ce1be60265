package market

import (
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/ternarybob/kabuka/internal/models"
)

var hundred = decimal.NewFromInt(100)

// barsFromChart converts the parallel quote arrays into bars, skipping rows
// with any missing OHLCV value.
func barsFromChart(result *chartResult) []models.PriceBar {
	if result == nil || len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]

	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open, okO := floatAt(quote.Open, i)
		high, okH := floatAt(quote.High, i)
		low, okL := floatAt(quote.Low, i)
		closePrice, okC := floatAt(quote.Close, i)
		if !okO || !okH || !okL || !okC || i >= len(quote.Volume) || quote.Volume[i] == nil {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   decimal.NewFromFloat(open),
			High:   decimal.NewFromFloat(high),
			Low:    decimal.NewFromFloat(low),
			Close:  decimal.NewFromFloat(closePrice),
			Volume: *quote.Volume[i],
		})
	}
	return bars
}

func floatAt(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

// summarize reports the latest bar and its change against the previous close.
// DiffPercent stays zero when the previous close is zero.
func summarize(bars []models.PriceBar) models.PriceSummary {
	if len(bars) == 0 {
		return models.PriceSummary{}
	}
	summary := models.PriceSummary{Latest: bars[len(bars)-1]}
	if len(bars) < 2 {
		return summary
	}

	prev := bars[len(bars)-2].Close
	summary.Diff = summary.Latest.Close.Sub(prev)
	if !prev.IsZero() {
		summary.DiffPercent = summary.Diff.Div(prev).Mul(hundred)
	}
	return summary
}

// movingAverages computes simple moving averages on closes. Positions before a
// full window are nil.
func movingAverages(bars []models.PriceBar, windows []int) map[int][]*decimal.Decimal {
	out := make(map[int][]*decimal.Decimal, len(windows))
	for _, w := range windows {
		series := make([]*decimal.Decimal, len(bars))
		if w <= 0 {
			out[w] = series
			continue
		}
		sum := decimal.Zero
		divisor := decimal.NewFromInt(int64(w))
		for i, bar := range bars {
			sum = sum.Add(bar.Close)
			if i >= w {
				sum = sum.Sub(bars[i-w].Close)
			}
			if i >= w-1 {
				avg := sum.Div(divisor)
				series[i] = &avg
			}
		}
		out[w] = series
	}
	return out
}

// preferJapaneseName returns the first candidate containing kana or kanji,
// otherwise the first non-empty candidate.
func preferJapaneseName(candidates ...string) string {
	for _, c := range candidates {
		if containsJapanese(c) {
			return c
		}
	}
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func containsJapanese(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}
