package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one daily OHLCV row.
type PriceBar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// PriceSummary condenses the latest bar and its change against the previous close.
type PriceSummary struct {
	Latest      PriceBar        `json:"latest"`
	Diff        decimal.Decimal `json:"diff"`
	DiffPercent decimal.Decimal `json:"diff_percent"`
}

// PriceHistory is the consumed price-history view for one ticker.
type PriceHistory struct {
	Code      string                     `json:"code"`
	Symbol    string                     `json:"symbol"`
	Name      string                     `json:"name,omitempty"`
	Currency  string                     `json:"currency,omitempty"`
	Period    string                     `json:"period"`
	Bars      []PriceBar                 `json:"bars"`
	Summary   PriceSummary               `json:"summary"`
	MovingAvg map[int][]*decimal.Decimal `json:"moving_averages,omitempty"`
	ForumURL  string                     `json:"forum_url,omitempty"`
	FetchedAt time.Time                  `json:"fetched_at"`
}
