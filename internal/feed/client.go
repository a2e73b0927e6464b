package feed

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
)

// ErrUnavailable signals a transient feed failure. Callers skip the affected
// unit of work for the current tick and try again on the next one.
var ErrUnavailable = errors.New("feed unavailable")

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.dexscreener.com"
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0

	// maxBatchTokens is the feed's limit on addresses per pair-lookup call.
	maxBatchTokens = 30
)

// Client is an HTTP client for the market-data feed.
type Client struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new feed client. An empty baseURL uses the default
// public endpoint.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TrendingTokens returns the current trending (boosted) token list.
func (c *Client) TrendingTokens(ctx context.Context) ([]TokenBoost, error) {
	var boosts []TokenBoost
	if err := c.getJSON(ctx, "/token-boosts/latest/v1", &boosts); err != nil {
		return nil, err
	}
	return boosts, nil
}

// TokenPairs returns all pairs for the given token addresses on one chain.
// Addresses beyond the feed's per-call batch limit are fetched in chunks.
func (c *Client) TokenPairs(ctx context.Context, chainID string, addresses []string) ([]Pair, error) {
	var pairs []Pair
	for start := 0; start < len(addresses); start += maxBatchTokens {
		end := start + maxBatchTokens
		if end > len(addresses) {
			end = len(addresses)
		}
		path := fmt.Sprintf("/tokens/v1/%s/%s", chainID, strings.Join(addresses[start:end], ","))

		var chunk []Pair
		if err := c.getJSON(ctx, path, &chunk); err != nil {
			return nil, err
		}
		pairs = append(pairs, chunk...)
	}
	return pairs, nil
}

// SearchPairs returns pairs matching a free-text query.
func (c *Client) SearchPairs(ctx context.Context, query string) ([]Pair, error) {
	var resp struct {
		Pairs []Pair `json:"pairs"`
	}
	path := "/latest/dex/search?q=" + url.QueryEscape(query)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

// PairsForToken returns all known pairs quoting the given token address.
func (c *Client) PairsForToken(ctx context.Context, address string) ([]Pair, error) {
	var resp struct {
		Pairs []Pair `json:"pairs"`
	}
	if err := c.getJSON(ctx, "/latest/dex/tokens/"+address, &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

// getJSON performs a GET with bounded retries and exponential backoff.
func (c *Client) getJSON(ctx context.Context, path string, result interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			// Client errors won't improve on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				break
			}
			continue
		}

		if err := json.Unmarshal(body, result); err != nil {
			lastErr = fmt.Errorf("decode response: %w", err)
			continue
		}
		return nil
	}

	return fmt.Errorf("%w: GET %s: %v", ErrUnavailable, path, lastErr)
}
