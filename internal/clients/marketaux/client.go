// Package marketaux provides the market news feed client.
package marketaux

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.marketaux.com/v1"

// defaultSymbols matches the dashboard's headline feed
const defaultSymbols = "TSLA,AMZN,MSFT"

// newsResponse wraps the provider payload; only the data array is forwarded
type newsResponse struct {
	Data json.RawMessage `json:"data"`
}

// Client fetches financial news articles
type Client struct {
	http   *resty.Client
	apiKey string
	log    zerolog.Logger
}

// NewClient creates a new marketaux client
func NewClient(apiKey string, log zerolog.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(defaultBaseURL)
	client.SetTimeout(10 * time.Second)

	return &Client{
		http:   client,
		apiKey: apiKey,
		log:    log.With().Str("component", "marketaux").Logger(),
	}
}

// SetBaseURL overrides the provider URL. Test helper.
func (c *Client) SetBaseURL(baseURL string) {
	c.http.SetBaseURL(baseURL)
}

// LatestNews fetches recent English-language articles for the given
// comma-separated symbols, defaulting to the dashboard feed
func (c *Client) LatestNews(ctx context.Context, symbols string) (json.RawMessage, error) {
	if symbols == "" {
		symbols = defaultSymbols
	}

	var result newsResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbols":         symbols,
			"filter_entities": "true",
			"language":        "en",
			"api_token":       c.apiKey,
		}).
		SetResult(&result).
		Get("/news/all")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("news request returned status %d", resp.StatusCode())
	}

	return result.Data, nil
}
