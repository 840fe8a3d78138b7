package social

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

// Post is one social media post about a crypto topic.
type Post struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Handle    string    `json:"handle"`
	Content   string    `json:"content"`
	Likes     int       `json:"likes"`
	Reposts   int       `json:"reposts"`
	CreatedAt time.Time `json:"created_at"`
}

// Client fetches crypto-related social posts from a bearer-authenticated
// timeline API.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Logger      *log.Logger
}

func NewClient(baseURL, bearerToken string) *Client {
	return &Client{
		BaseURL:     baseURL,
		BearerToken: bearerToken,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// ListTimeline returns recent posts about a topic.
func (c *Client) ListTimeline(ctx context.Context, topic string, limit int) ([]Post, error) {
	params := url.Values{}
	if topic != "" {
		params.Set("topic", topic)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return c.getPosts(ctx, "/timeline", params)
}

// SearchPosts returns posts matching the query.
func (c *Client) SearchPosts(ctx context.Context, query string, limit int) ([]Post, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return c.getPosts(ctx, "/search", params)
}

func (c *Client) getPosts(ctx context.Context, path string, params url.Values) ([]Post, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("no social provider configured")
	}

	endpoint := c.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("social provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Posts []Post `json:"posts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse social response: %w", err)
	}
	return payload.Posts, nil
}

// SamplePosts returns placeholder posts for when no provider is reachable.
func SamplePosts() []Post {
	now := time.Now()
	return []Post{
		{
			ID:        "sample-1",
			Author:    "Chart Watcher",
			Handle:    "@chartwatcher",
			Content:   "BTC consolidating in a tight range. Volume drying up, expecting a decisive move this week.",
			Likes:     412,
			Reposts:   87,
			CreatedAt: now.Add(-45 * time.Minute),
		},
		{
			ID:        "sample-2",
			Author:    "DeFi Daily",
			Handle:    "@defidaily",
			Content:   "ETH staking yields ticking back up as restaking narratives gain steam.",
			Likes:     256,
			Reposts:   31,
			CreatedAt: now.Add(-3 * time.Hour),
		},
		{
			ID:        "sample-3",
			Author:    "Macro Crypto",
			Handle:    "@macrocrypto",
			Content:   "Dollar strength cooling off, historically constructive for risk assets including crypto.",
			Likes:     198,
			Reposts:   22,
			CreatedAt: now.Add(-6 * time.Hour),
		},
	}
}
