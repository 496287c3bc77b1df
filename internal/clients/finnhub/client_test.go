package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Pacing:  time.Millisecond,
	}, zerolog.New(nil).Level(zerolog.Disabled))
	t.Cleanup(client.Close)

	return client
}

func TestGetQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))
		w.Write([]byte(`{"c":175.5,"h":176,"l":174,"o":175,"pc":173.2,"t":1700000000}`))
	})

	quote, err := client.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 175.5, quote.Current, 1e-9)
	assert.InDelta(t, 173.2, quote.PrevClose, 1e-9)
}

func TestGetQuoteZeroPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Finnhub returns all zeros for unknown symbols
		w.Write([]byte(`{"c":0,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
	})

	_, err := client.GetQuote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestGetQuoteServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"API limit reached"}`))
	})

	_, err := client.GetQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestGetCandles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/candle", r.URL.Path)
		assert.Equal(t, "D", r.URL.Query().Get("resolution"))
		w.Write([]byte(`{"s":"ok","t":[1700000000,1700086400],"c":[175.5,176.2]}`))
	})

	points, err := client.GetCandles(context.Background(), "AAPL", "D", 1699900000, 1700100000)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.InDelta(t, 175.5, points[0].Price, 1e-9)
	assert.NotEmpty(t, points[0].Timestamp)
}

func TestGetCandlesNoData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"no_data"}`))
	})

	_, err := client.GetCandles(context.Background(), "AAPL", "D", 0, 1)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("q"))
		w.Write([]byte(`{"count":1,"result":[{"symbol":"AAPL","description":"APPLE INC","type":"Common Stock","primaryExchange":"NASDAQ"}]}`))
	})

	resp, err := client.Search(context.Background(), "apple")
	require.NoError(t, err)
	require.Len(t, resp.Result, 1)
	assert.Equal(t, "AAPL", resp.Result[0].Symbol)
}

func TestRequestPacing(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"c":10,"pc":9}`))
	}))
	defer server.Close()

	pacing := 50 * time.Millisecond
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Pacing: pacing},
		zerolog.New(nil).Level(zerolog.Disabled))
	defer client.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)
	}

	// Three sequential requests carry at least two pacing delays
	assert.GreaterOrEqual(t, time.Since(start), 2*pacing)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetAfterClose(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":10}`))
	})
	client.Close()

	_, err := client.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"c":10}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.GetQuote(ctx, "AAPL")
	require.Error(t, err)
}
