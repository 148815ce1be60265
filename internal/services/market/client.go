package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/httpclient"
	"github.com/ternarybob/kabuka/internal/interfaces"
	"github.com/ternarybob/kabuka/internal/models"
)

const (
	// DefaultBaseURL is the Yahoo Finance query host.
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 2

	// DefaultPeriod is used when the caller passes no period.
	DefaultPeriod = "1mo"

	// minRows is the shortest history worth returning.
	minRows = 3
)

// Periods lists the supported history ranges.
var Periods = []string{"1mo", "3mo", "6mo", "1y", "5y"}

// MovingAverageWindows are the SMA windows computed on closes.
var MovingAverageWindows = []int{5, 25, 75}

// ErrUnsupportedPeriod is returned for a period outside Periods.
var ErrUnsupportedPeriod = errors.New("unsupported period")

// Client is a Yahoo Finance chart client.
type Client struct {
	baseURL       string
	userAgent     string
	defaultPeriod string
	httpClient    *http.Client
	logger        arbor.ILogger
	limiter       *rate.Limiter
	now           func() time.Time
}

// Compile-time assertion
var _ interfaces.PriceHistoryProvider = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent sets the User-Agent header. Yahoo rejects requests without a browser-like agent.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRateLimit sets a custom rate limit. Zero or less disables limiting.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithDefaultPeriod sets the period used when GetPriceHistory receives none.
func WithDefaultPeriod(period string) ClientOption {
	return func(c *Client) {
		if period != "" {
			c.defaultPeriod = period
		}
	}
}

// WithClock overrides the time source used for FetchedAt.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new chart client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		userAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		defaultPeriod: DefaultPeriod,
		httpClient:    httpclient.NewDefaultHTTPClient(DefaultTimeout),
		limiter:       rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromConfig creates a chart client from the market configuration.
func NewClientFromConfig(config common.MarketConfig, logger arbor.ILogger) *Client {
	httpClient, err := httpclient.NewSessionClient(config.RequestTimeoutDuration())
	if err != nil {
		logger.Warn().Err(err).Msg("Falling back to a client without cookie jar")
		httpClient = httpclient.NewDefaultHTTPClient(config.RequestTimeoutDuration())
	}

	opts := []ClientOption{
		WithLogger(logger),
		WithRateLimit(config.RateLimit),
		WithDefaultPeriod(config.DefaultPeriod),
		WithHTTPClient(httpClient),
	}
	if config.BaseURL != "" {
		opts = append(opts, WithBaseURL(config.BaseURL))
	}
	if config.UserAgent != "" {
		opts = append(opts, WithUserAgent(config.UserAgent))
	}
	return NewClient(opts...)
}

// GetPriceHistory fetches daily bars for code over period and derives the summary
// and moving averages. Fewer than three complete rows yields common.ErrPriceUnavailable.
func (c *Client) GetPriceHistory(ctx context.Context, code string, period string) (*models.PriceHistory, error) {
	normalized := common.NormalizeCode(code)
	if normalized == "" {
		return nil, common.ErrInvalidCode
	}
	if period == "" {
		period = c.defaultPeriod
	}
	if !isSupportedPeriod(period) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPeriod, period)
	}

	symbol := common.YahooSymbol(normalized)
	result, err := c.fetchChart(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	bars := barsFromChart(result)
	if len(bars) < minRows {
		return nil, fmt.Errorf("%s returned %d rows: %w", symbol, len(bars), common.ErrPriceUnavailable)
	}

	history := &models.PriceHistory{
		Code:      normalized,
		Symbol:    symbol,
		Name:      preferJapaneseName(result.Meta.ShortName, result.Meta.LongName),
		Currency:  result.Meta.Currency,
		Period:    period,
		Bars:      bars,
		Summary:   summarize(bars),
		MovingAvg: movingAverages(bars, MovingAverageWindows),
		ForumURL:  common.ForumURL(normalized),
		FetchedAt: c.now().UTC(),
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("symbol", symbol).
			Str("period", period).
			Int("rows", len(bars)).
			Msg("Price history fetched")
	}

	return history, nil
}

// fetchChart performs the chart request and returns the first result.
func (c *Client) fetchChart(ctx context.Context, symbol, period string) (*chartResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", "1d")
	params.Set("lang", "ja-JP")
	params.Set("region", "JP")
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("symbol", symbol).
			Str("range", period).
			Msg("Yahoo chart request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s not found: %w", symbol, common.ErrPriceUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Symbol:     symbol,
		}
	}

	var decoded chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if decoded.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error %s: %s: %w", decoded.Chart.Error.Code, decoded.Chart.Error.Description, common.ErrPriceUnavailable)
	}
	if len(decoded.Chart.Result) == 0 {
		return nil, fmt.Errorf("no results returned for symbol %s: %w", symbol, common.ErrPriceUnavailable)
	}

	return &decoded.Chart.Result[0], nil
}

func isSupportedPeriod(period string) bool {
	for _, p := range Periods {
		if p == period {
			return true
		}
	}
	return false
}
