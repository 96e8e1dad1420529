// Package coingecko implements a minimal CoinGecko REST client covering the
// /simple/price and /ping endpoints.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	publicBaseURL = "https://api.coingecko.com/api/v3"
	proBaseURL    = "https://pro-api.coingecko.com/api/v3"

	userAgent = "DYA-PriceService/1.0"
)

// Config holds CoinGecko client configuration.
type Config struct {
	BaseURL   string // optional override; chosen from keys when empty
	DemoKey   string
	ProKey    string
	ProxyHost string
	ProxyPort int
	Timeout   time.Duration
}

// Client is a CoinGecko API client.
type Client struct {
	baseURL string
	demoKey string
	proKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new CoinGecko client. A pro key selects the pro API
// host; an explicit BaseURL overrides either default.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	base := publicBaseURL
	if cfg.ProKey != "" {
		base = proBaseURL
	}
	if cfg.BaseURL != "" {
		base = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ProxyHost != "" && cfg.ProxyPort > 0 {
		proxyURL := &url.URL{
			Scheme: "http",
			Host:   fmt.Sprintf("%s:%d", cfg.ProxyHost, cfg.ProxyPort),
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		demoKey: cfg.DemoKey,
		proKey:  cfg.ProKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		log: log.With().Str("client", "coingecko").Logger(),
	}
}

// FetchUSDPricesByIDs fetches USD quotes for the given CoinGecko coin IDs in
// a single /simple/price call. The response maps coin ID to currency to
// price; IDs unknown to CoinGecko are simply absent.
func (c *Client) FetchUSDPricesByIDs(ctx context.Context, ids []string) (map[string]map[string]decimal.Decimal, error) {
	if len(ids) == 0 {
		return map[string]map[string]decimal.Decimal{}, nil
	}

	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	query := url.Values{}
	query.Set("ids", strings.Join(sorted, ","))
	query.Set("vs_currencies", "usd")
	c.addKeyParam(query)

	var result map[string]map[string]decimal.Decimal
	if err := c.getJSON(ctx, "/simple/price", query, &result); err != nil {
		return nil, fmt.Errorf("coingecko: fetch prices: %w", err)
	}

	c.log.Debug().Int("requested", len(sorted)).Int("returned", len(result)).Msg("Fetched USD prices")
	return result, nil
}

// Ping checks upstream availability and returns the raw response body.
func (c *Client) Ping(ctx context.Context) (string, error) {
	query := url.Values{}
	c.addKeyParam(query)

	req, err := c.newRequest(ctx, "/ping", query)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("coingecko: ping: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("coingecko: read ping response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("coingecko: ping status %d: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

// addKeyParam mirrors the header auth as a query parameter, which CoinGecko
// accepts for both the demo and pro tiers.
func (c *Client) addKeyParam(query url.Values) {
	if c.proKey != "" {
		query.Set("x_cg_pro_api_key", c.proKey)
	} else if c.demoKey != "" {
		query.Set("x_cg_demo_api_key", c.demoKey)
	}
}

func (c *Client) newRequest(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("coingecko: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.proKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.proKey)
	} else if c.demoKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.demoKey)
	}
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, path, query)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
