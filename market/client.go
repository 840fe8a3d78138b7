package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	defaultMaxRetries = 3
	baseRetryDelay    = 500 * time.Millisecond
)

// RateLimitError indicates the API returned 429. RetryAfter is zero when the
// server did not say how long to back off.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// APIError is a non-2xx response other than 404 and 429.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the CoinGecko REST API. Transient failures (5xx, network
// errors) on these idempotent GETs are retried with exponential backoff; 429
// surfaces as a typed RateLimitError without retrying, and a 404 on a lookup
// yields a nil result rather than an error.
type Client struct {
	BaseURL    string
	APIKey     string // Optional: demo/pro API key sent in the request header
	HTTPClient *http.Client
	Logger     *log.Logger
	MaxRetries int
}

func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

func (c *Client) maxRetries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return defaultMaxRetries
}

// get fetches path with query params and decodes the JSON body into out.
// Returns (false, nil) when the resource does not exist.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) (bool, error) {
	endpoint := c.baseURL() + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries(); attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * baseRetryDelay
			c.logger().Printf("coingecko: retrying %s in %s (attempt %d)", path, delay, attempt+1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}

		found, retryable, err := c.doOnce(ctx, endpoint, out)
		if err == nil {
			return found, nil
		}
		if !retryable {
			return false, err
		}
		lastErr = err
	}

	return false, fmt.Errorf("coingecko request failed after %d attempts: %w", c.maxRetries(), lastErr)
}

// doOnce performs a single request. The second return value reports whether
// the failure is worth retrying.
func (c *Client) doOnce(ctx context.Context, endpoint string, out interface{}) (found bool, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return false, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, false, ctx.Err()
		}
		return false, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		rlErr := &RateLimitError{}
		if after := resp.Header.Get("Retry-After"); after != "" {
			if secs, parseErr := strconv.Atoi(after); parseErr == nil {
				rlErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return false, false, rlErr

	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(resp.Body)
		return false, true, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}

	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return false, false, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, false, nil
}

// Markets returns market rows for the given coin ids, or the top coins by
// market cap when ids is empty.
func (c *Client) Markets(ctx context.Context, vsCurrency string, ids []string, page, perPage int) ([]Coin, error) {
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("order", "market_cap_desc")
	params.Set("sparkline", "true")
	if len(ids) > 0 {
		params.Set("ids", strings.Join(ids, ","))
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}

	var coins []Coin
	if _, err := c.get(ctx, "/coins/markets", params, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// Search looks up coins matching the query.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var result SearchResult
	if _, err := c.get(ctx, "/search", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Global returns aggregate market statistics.
func (c *Client) Global(ctx context.Context) (*GlobalData, error) {
	var data GlobalData
	if _, err := c.get(ctx, "/global", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CoinDetail fetches the full detail for one coin. Returns (nil, nil) when
// the coin id does not exist.
func (c *Client) CoinDetail(ctx context.Context, id string) (*CoinDetail, error) {
	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("community_data", "true")
	params.Set("developer_data", "true")

	var detail CoinDetail
	found, err := c.get(ctx, "/coins/"+url.PathEscape(id), params, &detail)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &detail, nil
}

// OHLC returns candle data for the coin over the given number of days.
// Returns (nil, nil) when the coin id does not exist.
func (c *Client) OHLC(ctx context.Context, id, vsCurrency string, days int) ([]OHLCEntry, error) {
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("days", strconv.Itoa(days))

	var raw [][]float64
	found, err := c.get(ctx, "/coins/"+url.PathEscape(id)+"/ohlc", params, &raw)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	entries := make([]OHLCEntry, 0, len(raw))
	for _, row := range raw {
		if len(row) < 5 {
			continue
		}
		entries = append(entries, OHLCEntry{
			Time:  time.UnixMilli(int64(row[0])),
			Open:  row[1],
			High:  row[2],
			Low:   row[3],
			Close: row[4],
		})
	}
	return entries, nil
}

// MarketChartRange returns price, market cap and volume series between two
// points in time. Returns (nil, nil) when the coin id does not exist.
func (c *Client) MarketChartRange(ctx context.Context, id, vsCurrency string, from, to time.Time) (*MarketChart, error) {
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("from", strconv.FormatInt(from.Unix(), 10))
	params.Set("to", strconv.FormatInt(to.Unix(), 10))

	var chart MarketChart
	found, err := c.get(ctx, "/coins/"+url.PathEscape(id)+"/market_chart/range", params, &chart)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &chart, nil
}

// Categories returns coin categories ordered by market cap.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	params := url.Values{}
	params.Set("order", "market_cap_desc")

	var categories []Category
	if _, err := c.get(ctx, "/coins/categories", params, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// StatusUpdates returns recent project status updates.
func (c *Client) StatusUpdates(ctx context.Context, page, perPage int) ([]StatusUpdate, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}

	var payload struct {
		StatusUpdates []StatusUpdate `json:"status_updates"`
	}
	if _, err := c.get(ctx, "/status_updates", params, &payload); err != nil {
		return nil, err
	}
	return payload.StatusUpdates, nil
}
