// Package market fetches daily price history for Tokyo-listed tickers from the
// Yahoo Finance chart API.
package market

import (
	"fmt"
)

// chartResponse maps the v8 chart endpoint. Quote arrays hold nulls for
// sessions without trades.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency     string `json:"currency"`
		Symbol       string `json:"symbol"`
		ExchangeName string `json:"exchangeName"`
		LongName     string `json:"longName"`
		ShortName    string `json:"shortName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// APIError represents a non-200 reply from the chart endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo chart API error: %s (status: %d, symbol: %s)", e.Message, e.StatusCode, e.Symbol)
}
