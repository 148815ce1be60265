package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/models"
)

const chartFixture = `{"chart":{"result":[{
	"meta":{"currency":"JPY","symbol":"7203.T","exchangeName":"JPX","longName":"Toyota Motor Corporation","shortName":"トヨタ自動車"},
	"timestamp":[1767571200,1767657600,1767744000,1767830400],
	"indicators":{"quote":[{
		"open":[2900,2950,null,3000],
		"high":[2960,3010,null,3100],
		"low":[2890,2940,null,2990],
		"close":[2950,3000,null,3090],
		"volume":[1000,2000,null,3000]
	}]}
}],"error":null}}`

func newTestServer(t *testing.T, status int, body string, seen *http.Request) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = *r.Clone(context.Background())
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(baseURL string) *Client {
	fixed := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	return NewClient(
		WithBaseURL(baseURL),
		WithLogger(arbor.NewLogger()),
		WithRateLimit(0),
		WithUserAgent("kabuka-test"),
		WithClock(func() time.Time { return fixed }),
	)
}

func TestGetPriceHistory(t *testing.T) {
	var seen http.Request
	server := newTestServer(t, http.StatusOK, chartFixture, &seen)

	history, err := newTestClient(server.URL).GetPriceHistory(context.Background(), "7203", "3mo")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/7203.T", seen.URL.Path)
	assert.Equal(t, "3mo", seen.URL.Query().Get("range"))
	assert.Equal(t, "1d", seen.URL.Query().Get("interval"))
	assert.Equal(t, "kabuka-test", seen.Header.Get("User-Agent"))

	assert.Equal(t, "7203", history.Code)
	assert.Equal(t, "7203.T", history.Symbol)
	assert.Equal(t, "トヨタ自動車", history.Name)
	assert.Equal(t, "JPY", history.Currency)
	assert.Equal(t, "https://finance.yahoo.co.jp/quote/7203.T/forum", history.ForumURL)
	require.Len(t, history.Bars, 3, "null row skipped")

	assert.Equal(t, "3090", history.Summary.Latest.Close.String())
	assert.Equal(t, "90", history.Summary.Diff.String())
	assert.True(t, history.Summary.DiffPercent.Equal(decimal.NewFromInt(3)))

	require.Contains(t, history.MovingAvg, 5)
	assert.Len(t, history.MovingAvg[5], 3)
	assert.Nil(t, history.MovingAvg[5][2], "window not yet full")
}

func TestGetPriceHistory_DefaultPeriodAndCodePadding(t *testing.T) {
	var seen http.Request
	server := newTestServer(t, http.StatusOK, chartFixture, &seen)

	history, err := newTestClient(server.URL).GetPriceHistory(context.Background(), "72", "")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/0072.T", seen.URL.Path)
	assert.Equal(t, DefaultPeriod, history.Period)
}

func TestGetPriceHistory_Errors(t *testing.T) {
	tooShort := `{"chart":{"result":[{"meta":{"symbol":"1301.T"},"timestamp":[1767571200,1767657600],
		"indicators":{"quote":[{"open":[1,2],"high":[1,2],"low":[1,2],"close":[1,2],"volume":[1,2]}]}}],"error":null}}`
	chartErr := `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		period  string
		wantErr error
	}{
		{"too few rows", http.StatusOK, tooShort, "1301", "1mo", common.ErrPriceUnavailable},
		{"chart error", http.StatusOK, chartErr, "9999", "1mo", common.ErrPriceUnavailable},
		{"not found", http.StatusNotFound, `{}`, "9999", "1mo", common.ErrPriceUnavailable},
		{"bad period", http.StatusOK, chartFixture, "7203", "2w", ErrUnsupportedPeriod},
		{"empty code", http.StatusOK, chartFixture, " ", "1mo", common.ErrInvalidCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.status, tt.body, nil)
			_, err := newTestClient(server.URL).GetPriceHistory(context.Background(), tt.code, tt.period)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetPriceHistory_ServerError(t *testing.T) {
	server := newTestServer(t, http.StatusTooManyRequests, "Too Many Requests", nil)

	_, err := newTestClient(server.URL).GetPriceHistory(context.Background(), "7203", "1mo")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "7203.T", apiErr.Symbol)
}

func TestMovingAverages(t *testing.T) {
	closes := []int64{10, 20, 30, 40, 50, 60}
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{Close: decimal.NewFromInt(c)}
	}

	sma := movingAverages(bars, []int{5, 25})

	require.Len(t, sma[5], 6)
	assert.Nil(t, sma[5][3])
	assert.Equal(t, "30", sma[5][4].String())
	assert.Equal(t, "40", sma[5][5].String())
	for _, v := range sma[25] {
		assert.Nil(t, v)
	}
}

func TestSummarizeZeroPreviousClose(t *testing.T) {
	bars := []models.PriceBar{
		{Close: decimal.Zero},
		{Close: decimal.NewFromInt(5)},
	}
	summary := summarize(bars)
	assert.Equal(t, "5", summary.Diff.String())
	assert.True(t, summary.DiffPercent.IsZero())
}

func TestPreferJapaneseName(t *testing.T) {
	assert.Equal(t, "ソニーグループ", preferJapaneseName("SONY GROUP CORP", "ソニーグループ"))
	assert.Equal(t, "SONY GROUP CORP", preferJapaneseName("", "SONY GROUP CORP"))
	assert.Equal(t, "", preferJapaneseName("", ""))
}
