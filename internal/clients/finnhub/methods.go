package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ErrQuoteUnavailable indicates the provider returned no usable price for a
// symbol. Callers must treat this as "quote unavailable" and never persist a
// zero price as a market price.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// ErrNoData indicates the provider reported an empty historical series
var ErrNoData = errors.New("no historical data available")

// GetQuote fetches the latest quote for a symbol. A response without a
// positive current price is treated as unavailable.
func (c *Client) GetQuote(ctx context.Context, ticker string) (*Quote, error) {
	query := url.Values{}
	query.Set("symbol", ticker)

	body, err := c.get(ctx, "/quote", query)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrQuoteUnavailable, err)
	}

	var quote Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("%w: malformed quote response: %s", ErrQuoteUnavailable, err)
	}

	if quote.Current <= 0 {
		return nil, fmt.Errorf("%w: no price for %s", ErrQuoteUnavailable, ticker)
	}

	return &quote, nil
}

// GetCandles fetches daily or intraday closes for a symbol over [from, to].
// Returns ErrNoData when the provider reports an empty series.
func (c *Client) GetCandles(ctx context.Context, ticker, resolution string, from, to int64) ([]PricePoint, error) {
	query := url.Values{}
	query.Set("symbol", ticker)
	query.Set("resolution", resolution)
	query.Set("from", strconv.FormatInt(from, 10))
	query.Set("to", strconv.FormatInt(to, 10))

	body, err := c.get(ctx, "/stock/candle", query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", ticker, err)
	}

	var candles candleResponse
	if err := json.Unmarshal(body, &candles); err != nil {
		return nil, fmt.Errorf("malformed candle response for %s: %w", ticker, err)
	}

	if candles.Status == "no_data" {
		return nil, ErrNoData
	}
	if candles.Status != "ok" {
		return nil, fmt.Errorf("candle request for %s returned status %q", ticker, candles.Status)
	}

	points := make([]PricePoint, 0, len(candles.Timestamps))
	for i, ts := range candles.Timestamps {
		if i >= len(candles.Closes) {
			break
		}
		points = append(points, PricePoint{
			Timestamp: time.Unix(ts, 0).UTC().Format(time.RFC3339),
			Price:     candles.Closes[i],
		})
	}

	return points, nil
}

// GetDailyHistory fetches daily closes over the trailing 30 days
func (c *Client) GetDailyHistory(ctx context.Context, ticker string) ([]PricePoint, error) {
	to := time.Now().Unix()
	from := to - 30*24*60*60
	return c.GetCandles(ctx, ticker, "D", from, to)
}

// Search performs a symbol lookup
func (c *Client) Search(ctx context.Context, q string) (*SearchResponse, error) {
	query := url.Values{}
	query.Set("q", q)

	body, err := c.get(ctx, "/search", query)
	if err != nil {
		return nil, fmt.Errorf("symbol search failed: %w", err)
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed search response: %w", err)
	}

	return &resp, nil
}

// proxyGet executes a request and returns the raw provider payload for
// passthrough endpoints
func (c *Client) proxyGet(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Profile fetches company profile information
func (c *Client) Profile(ctx context.Context, ticker string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("symbol", ticker)
	return c.proxyGet(ctx, "/stock/profile2", query)
}

// Metrics fetches fundamental metrics (P/E, P/B, ...)
func (c *Client) Metrics(ctx context.Context, ticker string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("symbol", ticker)
	query.Set("metric", "all")
	return c.proxyGet(ctx, "/stock/metric", query)
}

// CompanyNews fetches news articles for a symbol in a date range (YYYY-MM-DD)
func (c *Client) CompanyNews(ctx context.Context, ticker, from, to string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("symbol", ticker)
	query.Set("from", from)
	query.Set("to", to)
	return c.proxyGet(ctx, "/company-news", query)
}

// Recommendations fetches analyst recommendation trends
func (c *Client) Recommendations(ctx context.Context, ticker string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("symbol", ticker)
	return c.proxyGet(ctx, "/stock/recommendation", query)
}

// EarningsCalendar fetches the earnings calendar, optionally scoped to a symbol
func (c *Client) EarningsCalendar(ctx context.Context, ticker, from, to string) (json.RawMessage, error) {
	query := url.Values{}
	if ticker != "" {
		query.Set("symbol", ticker)
	}
	query.Set("from", from)
	query.Set("to", to)
	return c.proxyGet(ctx, "/calendar/earnings", query)
}

// IPOCalendar fetches upcoming IPOs in a date range
func (c *Client) IPOCalendar(ctx context.Context, from, to string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("from", from)
	query.Set("to", to)
	return c.proxyGet(ctx, "/calendar/ipo", query)
}

// Peers fetches competitor symbols
func (c *Client) Peers(ctx context.Context, ticker string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("symbol", ticker)
	return c.proxyGet(ctx, "/stock/peers", query)
}

// Dividends fetches dividend history in a date range
func (c *Client) Dividends(ctx context.Context, ticker, from, to string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("symbol", ticker)
	query.Set("from", from)
	query.Set("to", to)
	return c.proxyGet(ctx, "/stock/dividend", query)
}

// MarketStatus fetches the open/closed state of an exchange
func (c *Client) MarketStatus(ctx context.Context, exchange string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("exchange", exchange)
	return c.proxyGet(ctx, "/stock/market-status", query)
}
