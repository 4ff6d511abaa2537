package finnhub

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"Heatmap/internal/domain/models"
	drepo "Heatmap/internal/domain/repository"
	xhttp "Heatmap/pkg/http"
)

const backoffCap = 5 * time.Second

// usMICs are the market identifier codes accepted when a US exchange filter
// is requested on search.
var usMICs = map[string]struct{}{
	"XNYS": {}, "XNAS": {}, "ARCX": {}, "BATS": {}, "IEXG": {}, "FINN": {},
}

// Client implements MarketData against the Finnhub REST API with retry and
// typed error classification.
type Client struct {
	apiKey     string
	baseURL    string
	maxRetries int
	backoff    float64

	http  *xhttp.Client
	sleep func(time.Duration)
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry sets the retry budget and backoff factor (seconds).
func WithRetry(maxRetries int, backoff float64) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// New creates a Finnhub MarketData client.
func New(apiKey, baseURL string, timeout time.Duration, opts ...Option) drepo.MarketData {
	c := NewClient(apiKey, baseURL, timeout, opts...)
	return c
}

// NewClient is New returning the concrete type.
func NewClient(apiKey, baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: 3,
		backoff:    0.75,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(timeout))
	}
	return c
}

// request performs one authenticated GET with retry/backoff and decodes the
// JSON body into dest. Every error it returns is a *Error.
func (c *Client) request(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	if c.apiKey == "" {
		return noAPIKeyError()
	}

	query := map[string][]string{"token": {c.apiKey}}
	for k, v := range params {
		query[k] = v
	}

	var lastErr *Error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(c.backoff * float64(int64(1)<<uint(attempt-1)) * float64(time.Second))
			if delay > backoffCap {
				delay = backoffCap
			}
			c.sleep(delay)
		}

		resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         c.baseURL + path,
			Headers:     map[string]string{"User-Agent": "HeatmapApp/1.0"},
			QueryParams: query,
		})
		if err != nil {
			lastErr = networkError(err)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			err := json.NewDecoder(resp.Body).Decode(dest)
			resp.Body.Close()
			if err != nil {
				lastErr = networkError(err)
				continue
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized:
			drain(resp.Body)
			return invalidKeyError()
		case resp.StatusCode == http.StatusTooManyRequests:
			drain(resp.Body)
			lastErr = rateLimitError()
		case resp.StatusCode >= 500 && resp.StatusCode < 600:
			drain(resp.Body)
			lastErr = serverError(resp.StatusCode)
		default:
			drain(resp.Body)
			return httpError(resp.StatusCode)
		}
	}
	return lastErr
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

type quoteBody struct {
	C  *float64 `json:"c"`
	PC *float64 `json:"pc"`
	H  *float64 `json:"h"`
	L  *float64 `json:"l"`
	DP *float64 `json:"dp"`
	D  *float64 `json:"d"`
	T  *int64   `json:"t"`
}

// Quote fetches the current snapshot for one symbol. Finnhub's quote
// endpoint carries no pre/post-market prices; those stay nil.
func (c *Client) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	var body quoteBody
	if err := c.request(ctx, "/quote", map[string][]string{"symbol": {symbol}}, &body); err != nil {
		return models.Quote{}, err
	}
	return models.Quote{
		Symbol:        symbol,
		Current:       body.C,
		PrevClose:     body.PC,
		High:          body.H,
		Low:           body.L,
		PercentChange: body.DP,
		Change:        body.D,
		Timestamp:     body.T,
	}, nil
}

type metricBody struct {
	Metric struct {
		Week52High *float64 `json:"52WeekHigh"`
		Week52Low  *float64 `json:"52WeekLow"`
	} `json:"metric"`
}

// Metrics fetches valuation metrics and keeps only the 52-week range.
func (c *Client) Metrics(ctx context.Context, symbol string) (models.MetricsSnapshot, error) {
	var body metricBody
	params := map[string][]string{"symbol": {symbol}, "metric": {"all"}}
	if err := c.request(ctx, "/stock/metric", params, &body); err != nil {
		return models.MetricsSnapshot{}, err
	}
	return models.MetricsSnapshot{
		Week52High: body.Metric.Week52High,
		Week52Low:  body.Metric.Week52Low,
	}, nil
}

type searchBody struct {
	Result []searchEntry `json:"result"`
}

type searchEntry struct {
	Symbol          string `json:"symbol"`
	DisplaySymbol   string `json:"displaySymbol"`
	Description     string `json:"description"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	MIC             string `json:"mic"`
	PrimaryExchange string `json:"primaryExchange"`
}

// Search looks up symbols and filters the raw result set to common-stock
// instruments, restricted to US exchanges when an exchange filter is given.
func (c *Client) Search(ctx context.Context, query, exchange string) ([]models.SearchResult, error) {
	var body searchBody
	if err := c.request(ctx, "/search", map[string][]string{"q": {query}}, &body); err != nil {
		return nil, err
	}

	out := make([]models.SearchResult, 0, len(body.Result))
	for _, r := range body.Result {
		typ := strings.ToLower(r.Type)
		mic := strings.ToUpper(r.MIC)
		if mic == "" {
			mic = strings.ToUpper(r.PrimaryExchange)
		}
		isCommon := strings.Contains(typ, "common") || strings.Contains(typ, "equity") ||
			strings.Contains(typ, "stock") || typ == "e" || typ == "cs"
		_, isUS := usMICs[mic]
		if exchange == "US" {
			isUS = true
		}
		if !isCommon || (exchange != "" && !isUS) {
			continue
		}
		sym := r.Symbol
		if sym == "" {
			sym = r.DisplaySymbol
		}
		desc := r.Description
		if desc == "" {
			desc = r.Name
		}
		out = append(out, models.SearchResult{Symbol: sym, Description: desc, Type: r.Type})
	}
	return out, nil
}
