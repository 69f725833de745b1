// Package coingecko is the REST client for the CoinGecko coins API, which
// provides token discovery and per-token exchange tickers.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"arbwatch/internal/domain"
)

// StableTarget is the quote currency liquidity pools are filtered to. Tickers
// against any other target are discarded during fetch.
const StableTarget = "USDT"

// Client is the REST client for the provider's coins API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new coins API client.
//
// baseURL is the coins API root, e.g. "https://api.coingecko.com/api/v3/coins".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchTokens calls the coin-list endpoint once and returns token candidates.
// When slug is non-empty the single entry matching it case-insensitively is
// selected (the provider list is slug-unique); otherwise the first limit
// entries are taken in provider order.
func (c *Client) FetchTokens(ctx context.Context, limit int, slug string) ([]domain.Token, error) {
	body, err := c.doGet(ctx, "/list")
	if err != nil {
		return nil, fmt.Errorf("coingecko: list coins: %w", err)
	}

	var coins []APICoin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("coingecko: decode coin list: %w", err)
	}

	if slug != "" {
		for _, coin := range coins {
			if strings.EqualFold(coin.ID, slug) {
				return []domain.Token{coin.ToDomainToken()}, nil
			}
		}
		return nil, nil
	}

	if limit > len(coins) {
		limit = len(coins)
	}
	tokens := make([]domain.Token, 0, limit)
	for _, coin := range coins[:limit] {
		tokens = append(tokens, coin.ToDomainToken())
	}
	return tokens, nil
}

// FetchTickersForToken calls the per-coin tickers endpoint for the token's
// slug and maps every ticker quoted against StableTarget onto a liquidity-
// pool entry carrying the token's ticker symbol.
func (c *Client) FetchTickersForToken(ctx context.Context, token domain.TokenSnapshot) ([]domain.LiquidityPool, error) {
	body, err := c.doGet(ctx, "/"+url.PathEscape(token.Slug)+"/tickers")
	if err != nil {
		return nil, fmt.Errorf("coingecko: tickers for %s: %w", token.Slug, err)
	}

	var resp APITickersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("coingecko: decode tickers for %s: %w", token.Slug, err)
	}

	var pools []domain.LiquidityPool
	for _, ticker := range resp.Tickers {
		if ticker.Target != StableTarget {
			continue
		}
		pools = append(pools, ticker.ToDomainPool(token.Ticker))
	}
	return pools, nil
}

// doGet sends an unauthenticated GET request to the coins API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
