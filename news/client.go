package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Article is one crypto news item, normalized across providers.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Client fetches crypto news. Providers are tried in order: the primary
// endpoint first, then the secondary when the primary fails or returns
// nothing. Callers that still get an error can fall back to SampleArticles.
type Client struct {
	PrimaryURL   string // NewsAPI-compatible endpoint
	SecondaryURL string // CryptoCompare-compatible endpoint
	APIKey       string
	HTTPClient   *http.Client
	Logger       *log.Logger
}

func NewClient(primaryURL, secondaryURL, apiKey string) *Client {
	return &Client{
		PrimaryURL:   primaryURL,
		SecondaryURL: secondaryURL,
		APIKey:       apiKey,
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

// Latest returns recent articles about the query (or general crypto news
// when empty), trying each configured provider in turn.
func (c *Client) Latest(ctx context.Context, query string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 10
	}

	var lastErr error
	if c.PrimaryURL != "" {
		articles, err := c.fetchPrimary(ctx, query, limit)
		if err == nil && len(articles) > 0 {
			return articles, nil
		}
		if err != nil {
			c.logger().Printf("news: primary provider failed: %v", err)
			lastErr = err
		}
	}

	if c.SecondaryURL != "" {
		articles, err := c.fetchSecondary(ctx, query, limit)
		if err == nil && len(articles) > 0 {
			return articles, nil
		}
		if err != nil {
			c.logger().Printf("news: secondary provider failed: %v", err)
			lastErr = err
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all news providers failed: %w", lastErr)
	}
	return nil, fmt.Errorf("no news providers configured or no articles found")
}

// primaryResponse is the NewsAPI-style payload shape.
type primaryResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (c *Client) fetchPrimary(ctx context.Context, query string, limit int) ([]Article, error) {
	params := url.Values{}
	if query == "" {
		query = "cryptocurrency"
	}
	params.Set("q", query)
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("sortBy", "publishedAt")

	body, err := c.fetch(ctx, c.PrimaryURL+"?"+params.Encode(), map[string]string{"X-Api-Key": c.APIKey})
	if err != nil {
		return nil, err
	}

	var payload primaryResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse primary news response: %w", err)
	}

	articles := make([]Article, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			ImageURL:    a.URLToImage,
			PublishedAt: published,
		})
	}
	return articles, nil
}

// secondaryResponse is the CryptoCompare-style payload shape.
type secondaryResponse struct {
	Data []struct {
		Title       string `json:"title"`
		Body        string `json:"body"`
		URL         string `json:"url"`
		ImageURL    string `json:"imageurl"`
		PublishedOn int64  `json:"published_on"`
		SourceInfo  struct {
			Name string `json:"name"`
		} `json:"source_info"`
	} `json:"Data"`
}

func (c *Client) fetchSecondary(ctx context.Context, query string, limit int) ([]Article, error) {
	params := url.Values{}
	if query != "" {
		params.Set("categories", query)
	}

	endpoint := c.SecondaryURL
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	body, err := c.fetch(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var payload secondaryResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse secondary news response: %w", err)
	}

	articles := make([]Article, 0, limit)
	for _, item := range payload.Data {
		if len(articles) >= limit {
			break
		}
		articles = append(articles, Article{
			Title:       item.Title,
			Description: item.Body,
			URL:         item.URL,
			Source:      item.SourceInfo.Name,
			ImageURL:    item.ImageURL,
			PublishedAt: time.Unix(item.PublishedOn, 0),
		})
	}
	return articles, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("news provider returned status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// SampleArticles returns placeholder articles for when no provider is
// reachable, so the dashboard never renders an empty news panel.
func SampleArticles() []Article {
	now := time.Now()
	return []Article{
		{
			Title:       "Bitcoin Holds Above Key Support as ETF Inflows Continue",
			Description: "Institutional demand keeps BTC rangebound while derivatives markets show declining volatility.",
			URL:         "https://example.com/news/bitcoin-etf-inflows",
			Source:      "Sample Wire",
			PublishedAt: now.Add(-2 * time.Hour),
		},
		{
			Title:       "Ethereum Developers Set Date for Next Network Upgrade",
			Description: "The upgrade bundles several EIPs aimed at reducing layer-2 data costs.",
			URL:         "https://example.com/news/ethereum-upgrade-date",
			Source:      "Sample Wire",
			PublishedAt: now.Add(-5 * time.Hour),
		},
	}
}
