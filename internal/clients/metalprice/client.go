// Package metalprice provides spot rates for gold and silver.
package metalprice

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.metalpriceapi.com/v1"

// Symbols accepted by the provider
const (
	SymbolGold   = "XAU"
	SymbolSilver = "XAG"
)

// GramsPerTroyOunce converts the provider's per-troy-ounce USD rate to a
// per-gram price. The upstream application uses 28.34; kept as observed
// behavior pending confirmation of the constant and rounding policy.
const GramsPerTroyOunce = 28.34

// ratesResponse is the provider's latest-rates payload
type ratesResponse struct {
	Success bool               `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
}

// Client fetches precious metal spot rates
type Client struct {
	http   *resty.Client
	apiKey string
	log    zerolog.Logger
}

// NewClient creates a new metal price client
func NewClient(apiKey string, log zerolog.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(defaultBaseURL)
	client.SetTimeout(10 * time.Second)

	return &Client{
		http:   client,
		apiKey: apiKey,
		log:    log.With().Str("component", "metalprice").Logger(),
	}
}

// SetBaseURL overrides the provider URL. Test helper.
func (c *Client) SetBaseURL(baseURL string) {
	c.http.SetBaseURL(baseURL)
}

// SpotRate returns the USD rate per troy ounce for a metal symbol (XAU or XAG)
func (c *Client) SpotRate(ctx context.Context, symbol string) (float64, error) {
	var result ratesResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":    c.apiKey,
			"base":       "USD",
			"currencies": symbol,
		}).
		SetResult(&result).
		Get("/latest")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s rate: %w", symbol, err)
	}

	if resp.IsError() {
		return 0, fmt.Errorf("metal price request for %s returned status %d", symbol, resp.StatusCode())
	}

	// The provider keys rates as USD<symbol> (e.g. USDXAU)
	rate, ok := result.Rates["USD"+symbol]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("no %s rate in response", symbol)
	}

	return rate, nil
}

// GramPrice returns the USD price per gram for a metal symbol
func (c *Client) GramPrice(ctx context.Context, symbol string) (float64, error) {
	rate, err := c.SpotRate(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return rate / GramsPerTroyOunce, nil
}
