package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holdwatch/holdwatch/internal/clients/finnhub"
	"github.com/holdwatch/holdwatch/internal/config"
	"github.com/holdwatch/holdwatch/internal/database"
	"github.com/holdwatch/holdwatch/internal/modules/assets"
	assetshandlers "github.com/holdwatch/holdwatch/internal/modules/assets/handlers"
	"github.com/holdwatch/holdwatch/internal/modules/holdings"
	holdingshandlers "github.com/holdwatch/holdwatch/internal/modules/holdings/handlers"
	markethandlers "github.com/holdwatch/holdwatch/internal/modules/market/handlers"
)

const testSecret = "test-secret"

type staticQuotes struct{}

func (staticQuotes) GetQuote(ctx context.Context, ticker string) (*finnhub.Quote, error) {
	return &finnhub.Quote{Current: 100}, nil
}

func (staticQuotes) GetDailyHistory(ctx context.Context, ticker string) ([]finnhub.PricePoint, error) {
	return []finnhub.PricePoint{{Timestamp: "2023-11-14T22:13:20Z", Price: 99}}, nil
}

func (staticQuotes) Search(ctx context.Context, q string) (*finnhub.SearchResponse, error) {
	return &finnhub.SearchResponse{}, nil
}

func (staticQuotes) Profile(ctx context.Context, ticker string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (staticQuotes) Metrics(ctx context.Context, ticker string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (staticQuotes) CompanyNews(ctx context.Context, ticker, from, to string) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (staticQuotes) Recommendations(ctx context.Context, ticker string) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (staticQuotes) EarningsCalendar(ctx context.Context, ticker, from, to string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (staticQuotes) IPOCalendar(ctx context.Context, from, to string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (staticQuotes) Peers(ctx context.Context, ticker string) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (staticQuotes) Dividends(ctx context.Context, ticker, from, to string) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (staticQuotes) MarketStatus(ctx context.Context, exchange string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

type staticMetals struct{}

func (staticMetals) GramPrice(ctx context.Context, symbol string) (float64, error) {
	return 75, nil
}

type staticNews struct{}

func (staticNews) LatestNews(ctx context.Context, symbols string) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
		Name: "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(database.Schema))

	log := zerolog.New(nil).Level(zerolog.Disabled)
	quotes := staticQuotes{}

	holdingsRepo := holdings.NewRepository(db.Conn(), log)
	holdingsService := holdings.NewService(holdingsRepo, quotes, log)

	assetsRepo := assets.NewRepository(db.Conn(), log)
	assetsService := assets.NewService(assetsRepo, staticMetals{}, log)

	cfg := &config.Config{
		Port:           0,
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"*"},
		DevMode:        true,
	}

	return New(Config{
		Log:              log,
		Config:           cfg,
		DB:               db,
		HoldingsHandlers: holdingshandlers.NewHandler(holdingsService, quotes, log),
		AssetsHandlers:   assetshandlers.NewHandler(assetsService, log),
		MarketHandlers:   markethandlers.NewHandler(quotes, staticNews{}, log),
	})
}

func signToken(t *testing.T, userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAPIRequiresAuth(t *testing.T) {
	s := setupTestServer(t)

	for _, path := range []string{"/api/stocks", "/api/watchlist", "/api/assets", "/api/market/status"} {
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAuthenticatedRequestFlow(t *testing.T) {
	s := setupTestServer(t)
	token := signToken(t, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/api/stocks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotNil(t, envelope["data"])
}

func TestSystemStatusEndpoint(t *testing.T) {
	s := setupTestServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.GreaterOrEqual(t, status.Goroutines, 1)
}
