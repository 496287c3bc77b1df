package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holdwatch/holdwatch/internal/clients/finnhub"
)

type stubMarketData struct {
	quote     *finnhub.Quote
	search    *finnhub.SearchResponse
	raw       json.RawMessage
	err       error
	lastCalls []string
}

func (s *stubMarketData) GetQuote(ctx context.Context, ticker string) (*finnhub.Quote, error) {
	s.lastCalls = append(s.lastCalls, "quote:"+ticker)
	return s.quote, s.err
}

func (s *stubMarketData) GetDailyHistory(ctx context.Context, ticker string) ([]finnhub.PricePoint, error) {
	return []finnhub.PricePoint{{Timestamp: "2023-11-14T22:13:20Z", Price: 150}}, s.err
}

func (s *stubMarketData) Search(ctx context.Context, q string) (*finnhub.SearchResponse, error) {
	s.lastCalls = append(s.lastCalls, "search:"+q)
	return s.search, s.err
}

func (s *stubMarketData) Profile(ctx context.Context, ticker string) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubMarketData) Metrics(ctx context.Context, ticker string) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubMarketData) CompanyNews(ctx context.Context, ticker, from, to string) (json.RawMessage, error) {
	s.lastCalls = append(s.lastCalls, "news:"+ticker+":"+from+":"+to)
	return s.raw, s.err
}

func (s *stubMarketData) Recommendations(ctx context.Context, ticker string) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubMarketData) EarningsCalendar(ctx context.Context, ticker, from, to string) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubMarketData) IPOCalendar(ctx context.Context, from, to string) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubMarketData) Peers(ctx context.Context, ticker string) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubMarketData) Dividends(ctx context.Context, ticker, from, to string) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubMarketData) MarketStatus(ctx context.Context, exchange string) (json.RawMessage, error) {
	s.lastCalls = append(s.lastCalls, "status:"+exchange)
	return s.raw, s.err
}

type stubNews struct {
	raw json.RawMessage
	err error
}

func (s *stubNews) LatestNews(ctx context.Context, symbols string) (json.RawMessage, error) {
	return s.raw, s.err
}

func setupTestRouter(t *testing.T) (chi.Router, *stubMarketData, *stubNews) {
	t.Helper()
	data := &stubMarketData{
		quote: &finnhub.Quote{Current: 150},
		raw:   json.RawMessage(`{"ok":true}`),
		search: &finnhub.SearchResponse{Result: []finnhub.SearchResult{
			{Symbol: "AAPL", Description: "APPLE INC", Type: "Common Stock", PrimaryExchange: "NASDAQ"},
			{Symbol: "AAPL.MX", Description: "APPLE INC", Type: "Common Stock", PrimaryExchange: "BMV"},
		}},
	}
	news := &stubNews{raw: json.RawMessage(`[{"title":"headline"}]`)}

	log := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewHandler(data, news, log)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router, data, news
}

func get(router chi.Router, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleSearch(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := get(router, "/market/search?q=apple")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []finnhub.SearchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "AAPL", envelope.Data[0].Symbol)
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := get(router, "/market/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQuote(t *testing.T) {
	router, data, _ := setupTestRouter(t)

	rec := get(router, "/market/AAPL/quote")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, data.lastCalls, "quote:AAPL")

	var envelope struct {
		Data finnhub.Quote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 150.0, envelope.Data.Current)
}

func TestHandleProxy_UpstreamFailureMasked(t *testing.T) {
	router, data, _ := setupTestRouter(t)
	data.err = errors.New("finnhub 502: secret internals")

	rec := get(router, "/market/AAPL/profile")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var envelope map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Unable to fetch profile", envelope["error"])
	assert.NotContains(t, rec.Body.String(), "secret internals")
}

func TestHandleMarketStatus_DefaultsToUS(t *testing.T) {
	router, data, _ := setupTestRouter(t)

	rec := get(router, "/market/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, data.lastCalls, "status:US")
}

func TestHandleNews(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := get(router, "/market/news?symbols=TSLA")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "headline")
}

func TestHandleCompanyNews_DefaultsRange(t *testing.T) {
	router, data, _ := setupTestRouter(t)

	rec := get(router, "/market/AAPL/news")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, data.lastCalls, 1)
	assert.Regexp(t, `^news:AAPL:\d{4}-\d{2}-\d{2}:\d{4}-\d{2}-\d{2}$`, data.lastCalls[0])
}
