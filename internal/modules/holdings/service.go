package holdings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/apierr"
	"github.com/holdwatch/holdwatch/internal/clients/finnhub"
	"github.com/holdwatch/holdwatch/internal/domain"
)

// tickerPattern validates US stock tickers on the watchlist path
var tickerPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// watchlistTargetMarkup is the default target price margin applied when
// syncing portfolio rows without a target onto the watchlist
const watchlistTargetMarkup = 1.10

// QuoteProvider supplies current prices for tickers
type QuoteProvider interface {
	GetQuote(ctx context.Context, ticker string) (*finnhub.Quote, error)
}

// Service is the reconciliation engine. It governs every transition on
// holding rows and maintains the invariant that a row is a portfolio
// position (shares > 0), a watchlist entry (is_in_watchlist), or both -
// never neither.
type Service struct {
	repo   *Repository
	quotes QuoteProvider
	log    zerolog.Logger
}

// NewService creates a new holdings service
func NewService(repo *Repository, quotes QuoteProvider, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		quotes: quotes,
		log:    log.With().Str("service", "holdings").Logger(),
	}
}

// AddPositionInput carries the fields for creating a portfolio position
type AddPositionInput struct {
	Name        string  `json:"name"`
	Ticker      string  `json:"ticker"`
	Shares      float64 `json:"shares"`
	BuyPrice    float64 `json:"buy_price"`
	TargetPrice float64 `json:"target_price"`
}

// UpdatePositionInput carries the fields for a partial position update.
// Nil pointers leave the stored value untouched.
type UpdatePositionInput struct {
	Name     *string  `json:"name"`
	Ticker   *string  `json:"ticker"`
	Shares   *float64 `json:"shares"`
	BuyPrice *float64 `json:"buy_price"`
}

// AddWatchlistInput carries the fields for adding a watchlist entry
type AddWatchlistInput struct {
	Name        string  `json:"name"`
	Ticker      string  `json:"ticker"`
	TargetPrice float64 `json:"target_price"`
}

// ListPortfolio returns the user's portfolio positions ordered by name.
// Rows that are also on the watchlist are excluded, matching the dashboard's
// split between the two views.
func (s *Service) ListPortfolio(ctx context.Context, userID string) ([]domain.Holding, error) {
	return s.repo.FindAll([]Filter{
		{Column: "user_id", Op: OpEq, Value: userID},
		{Column: "shares", Op: OpGt, Value: 0},
		{Column: "is_in_watchlist", Op: OpEq, Value: 0},
	}, "name")
}

// ListWatchlist returns the user's watchlist entries ordered by name
func (s *Service) ListWatchlist(ctx context.Context, userID string) ([]domain.Holding, error) {
	return s.repo.FindAll([]Filter{
		{Column: "user_id", Op: OpEq, Value: userID},
		{Column: "is_in_watchlist", Op: OpEq, Value: 1},
	}, "name")
}

// Summary aggregates the user's portfolio positions
func (s *Service) Summary(ctx context.Context, userID string) (domain.PortfolioSummary, error) {
	positions, err := s.ListPortfolio(ctx, userID)
	if err != nil {
		return domain.PortfolioSummary{}, err
	}
	return domain.Summarize(positions), nil
}

// GetHolding returns one of the caller's rows
func (s *Service) GetHolding(ctx context.Context, userID, id string) (*domain.Holding, error) {
	return s.getOwned(userID, id)
}

// AddPosition creates a portfolio position. The quote fetch is mandatory:
// a row is never created with a missing market price.
func (s *Service) AddPosition(ctx context.Context, userID string, input AddPositionInput) (*domain.Holding, error) {
	name := strings.TrimSpace(input.Name)
	ticker := normalizeTicker(input.Ticker)

	if name == "" || ticker == "" {
		return nil, apierr.Validation("Missing required fields")
	}
	if !positiveFinite(input.Shares) {
		return nil, apierr.Validation("Invalid number of shares")
	}
	if !positiveFinite(input.BuyPrice) {
		return nil, apierr.Validation("Invalid buy price")
	}

	targetPrice := input.TargetPrice
	if targetPrice == 0 {
		targetPrice = input.BuyPrice
	}
	if !positiveFinite(targetPrice) {
		return nil, apierr.Validation("Invalid target price")
	}

	quote, err := s.quotes.GetQuote(ctx, ticker)
	if err != nil {
		return nil, apierr.QuoteUnavailable("Unable to fetch current price for ticker", err)
	}

	holding, err := s.repo.Create(domain.Holding{
		UserID:        userID,
		Name:          name,
		Ticker:        ticker,
		Shares:        input.Shares,
		BuyPrice:      input.BuyPrice,
		CurrentPrice:  quote.Current,
		TargetPrice:   targetPrice,
		IsInWatchlist: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create position: %w", err)
	}

	s.log.Info().Str("ticker", ticker).Str("user", userID).Msg("Position added")
	return holding, nil
}

// UpdatePosition applies a partial update to one of the caller's positions.
// Changing the ticker requires a fresh quote so the stored price always
// matches the stored symbol. Shares must stay positive: exiting a position
// is DeletePosition's job, which keeps the no-orphan invariant intact.
func (s *Service) UpdatePosition(ctx context.Context, userID, id string, input UpdatePositionInput) (*domain.Holding, error) {
	holding, err := s.getOwned(userID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apierr.Validation("Invalid name")
		}
		fields["name"] = name
	}
	if input.Shares != nil {
		if !positiveFinite(*input.Shares) {
			return nil, apierr.Validation("Invalid number of shares")
		}
		fields["shares"] = *input.Shares
	}
	if input.BuyPrice != nil {
		if !positiveFinite(*input.BuyPrice) {
			return nil, apierr.Validation("Invalid buy price")
		}
		fields["buy_price"] = *input.BuyPrice
	}
	if input.Ticker != nil {
		ticker := normalizeTicker(*input.Ticker)
		if ticker == "" {
			return nil, apierr.Validation("Invalid ticker")
		}
		if ticker != holding.Ticker {
			quote, err := s.quotes.GetQuote(ctx, ticker)
			if err != nil {
				return nil, apierr.QuoteUnavailable("Unable to fetch current price for ticker", err)
			}
			fields["ticker"] = ticker
			fields["current_price"] = quote.Current
		}
	}

	if len(fields) == 0 {
		return holding, nil
	}
	fields["last_updated"] = time.Now().UTC()

	updated, err := s.repo.Update(id, fields)
	if err != nil {
		return nil, mapRepoErr(err, "Stock not found")
	}

	return updated, nil
}

// DeletePosition hard-deletes one of the caller's rows
func (s *Service) DeletePosition(ctx context.Context, userID, id string) error {
	if _, err := s.getOwned(userID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return mapRepoErr(err, "Stock not found")
	}

	s.log.Info().Str("id", id).Str("user", userID).Msg("Position deleted")
	return nil
}

// AddToWatchlist adds a ticker to the caller's watchlist. When the user
// already holds the ticker, the existing row gains the watchlist flag and the
// new target price; shares and cost basis are untouched. Otherwise a fresh
// watchlist-only row is created, which requires a successful quote.
func (s *Service) AddToWatchlist(ctx context.Context, userID string, input AddWatchlistInput) (*domain.Holding, error) {
	ticker := normalizeTicker(input.Ticker)
	if !tickerPattern.MatchString(ticker) {
		return nil, apierr.Validation(
			"Invalid ticker format. Please use a valid US stock ticker (1-5 letters, e.g., AAPL, GOOG, MSFT)")
	}
	if !positiveFinite(input.TargetPrice) {
		return nil, apierr.Validation("Invalid target price")
	}

	existing, err := s.repo.FindByUserAndTicker(userID, ticker)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to look up existing holding: %w", err)
	}

	if existing != nil {
		updated, err := s.repo.Update(existing.ID, map[string]interface{}{
			"is_in_watchlist": true,
			"target_price":    input.TargetPrice,
			"last_updated":    time.Now().UTC(),
		})
		if err != nil {
			return nil, mapRepoErr(err, "Stock not found")
		}

		s.log.Info().Str("ticker", ticker).Str("user", userID).Msg("Existing holding added to watchlist")
		return updated, nil
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apierr.Validation("Missing required fields")
	}

	quote, err := s.quotes.GetQuote(ctx, ticker)
	if err != nil {
		return nil, apierr.QuoteUnavailable(fmt.Sprintf(
			"Unable to fetch current price for %s. This ticker may not be available in your current plan or may not exist. Please try a different ticker (e.g., GOOG instead of GOOG.MX).",
			ticker), err)
	}

	holding, err := s.repo.Create(domain.Holding{
		UserID:        userID,
		Name:          name,
		Ticker:        ticker,
		Shares:        0,
		BuyPrice:      0,
		CurrentPrice:  quote.Current,
		TargetPrice:   input.TargetPrice,
		IsInWatchlist: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create watchlist entry: %w", err)
	}

	s.log.Info().Str("ticker", ticker).Str("user", userID).Msg("Watchlist entry added")
	return holding, nil
}

// RemoveFromWatchlist removes a row from the caller's watchlist. Rows that
// are also portfolio positions only lose the flag; watchlist-only rows are
// deleted entirely so no orphan survives.
func (s *Service) RemoveFromWatchlist(ctx context.Context, userID, id string) error {
	holding, err := s.getOwned(userID, id)
	if err != nil {
		return err
	}

	if holding.Shares > 0 {
		if _, err := s.repo.Update(id, map[string]interface{}{"is_in_watchlist": false}); err != nil {
			return mapRepoErr(err, "Stock not found")
		}
		s.log.Info().Str("id", id).Msg("Watchlist flag removed, position kept")
		return nil
	}

	if err := s.repo.Delete(id); err != nil {
		return mapRepoErr(err, "Stock not found")
	}

	s.log.Info().Str("id", id).Msg("Watchlist entry deleted")
	return nil
}

// SyncPortfolioToWatchlist puts every portfolio position of the caller onto
// the watchlist in one transaction. Positions without a target price default
// to the current price plus ten percent.
func (s *Service) SyncPortfolioToWatchlist(ctx context.Context, userID string) (int, error) {
	positions, err := s.repo.FindAll([]Filter{
		{Column: "user_id", Op: OpEq, Value: userID},
		{Column: "shares", Op: OpGt, Value: 0},
	}, "")
	if err != nil {
		return 0, err
	}

	updates := make([]WatchlistSync, 0, len(positions))
	for _, position := range positions {
		update := WatchlistSync{ID: position.ID}
		if position.TargetPrice == 0 {
			update.TargetPrice = position.CurrentPrice * watchlistTargetMarkup
		}
		updates = append(updates, update)
	}

	if err := s.repo.SyncToWatchlist(updates); err != nil {
		return 0, fmt.Errorf("failed to sync portfolio to watchlist: %w", err)
	}

	s.log.Info().Int("count", len(positions)).Str("user", userID).Msg("Portfolio synced to watchlist")
	return len(positions), nil
}

// UpdateTargetPrice sets the alert threshold on one of the caller's rows
func (s *Service) UpdateTargetPrice(ctx context.Context, userID, id string, targetPrice float64) (*domain.Holding, error) {
	if !positiveFinite(targetPrice) {
		return nil, apierr.Validation("Invalid target price")
	}

	if _, err := s.getOwned(userID, id); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(id, map[string]interface{}{
		"target_price": targetPrice,
		"last_updated": time.Now().UTC(),
	})
	if err != nil {
		return nil, mapRepoErr(err, "Stock not found")
	}

	return updated, nil
}

// RefreshResult summarizes a bulk price refresh sweep
type RefreshResult struct {
	Total   int
	Updated int
	Failed  int
}

// RefreshAllPrices refreshes current_price for every tracked row across all
// users. Per-symbol failures are isolated: the row is left unchanged and the
// sweep moves on. Rows deleted mid-sweep are skipped the same way. Pacing
// between quote fetches is handled by the quote client itself.
func (s *Service) RefreshAllPrices(ctx context.Context) (RefreshResult, error) {
	tracked, err := s.repo.FindTracked()
	if err != nil {
		return RefreshResult{}, fmt.Errorf("failed to load tracked holdings: %w", err)
	}

	result := RefreshResult{Total: len(tracked)}
	if len(tracked) == 0 {
		s.log.Debug().Msg("No tracked holdings, skipping price refresh")
		return result, nil
	}

	for _, holding := range tracked {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		quote, err := s.quotes.GetQuote(ctx, holding.Ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", holding.Ticker).Msg("Failed to refresh price")
			result.Failed++
			continue
		}

		_, err = s.repo.Update(holding.ID, map[string]interface{}{
			"current_price": quote.Current,
			"last_updated":  time.Now().UTC(),
		})
		if err != nil {
			// Row may have been deleted while the sweep was running
			s.log.Warn().Err(err).Str("ticker", holding.Ticker).Msg("Failed to store refreshed price")
			result.Failed++
			continue
		}

		s.log.Debug().Str("ticker", holding.Ticker).Float64("price", quote.Current).Msg("Price refreshed")
		result.Updated++
	}

	s.log.Info().
		Int("total", result.Total).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Msg("Price refresh sweep finished")

	return result, nil
}

// OverlapReport describes rows that are both portfolio positions and
// watchlist entries
type OverlapReport struct {
	TotalStocks     int              `json:"totalStocks"`
	PortfolioStocks int              `json:"portfolioStocks"`
	WatchlistStocks int              `json:"watchlistStocks"`
	OverlapStocks   int              `json:"overlapStocks"`
	OverlapDetails  []domain.Holding `json:"overlapDetails"`
}

// DiagnoseOverlap reports rows holding both roles at once
func (s *Service) DiagnoseOverlap(ctx context.Context) (*OverlapReport, error) {
	total, err := s.repo.Count(nil)
	if err != nil {
		return nil, err
	}
	portfolio, err := s.repo.Count([]Filter{{Column: "shares", Op: OpGt, Value: 0}})
	if err != nil {
		return nil, err
	}
	watchlist, err := s.repo.Count([]Filter{{Column: "is_in_watchlist", Op: OpEq, Value: 1}})
	if err != nil {
		return nil, err
	}
	overlap, err := s.repo.FindAll([]Filter{
		{Column: "shares", Op: OpGt, Value: 0},
		{Column: "is_in_watchlist", Op: OpEq, Value: 1},
	}, "")
	if err != nil {
		return nil, err
	}

	return &OverlapReport{
		TotalStocks:     total,
		PortfolioStocks: portfolio,
		WatchlistStocks: watchlist,
		OverlapStocks:   len(overlap),
		OverlapDetails:  overlap,
	}, nil
}

// FixOverlap clears the watchlist flag on rows that are also portfolio
// positions, in one transaction, and returns the affected tickers.
// Maintenance operation kept from the original dashboard.
func (s *Service) FixOverlap(ctx context.Context) ([]string, error) {
	overlap, err := s.repo.FindAll([]Filter{
		{Column: "shares", Op: OpGt, Value: 0},
		{Column: "is_in_watchlist", Op: OpEq, Value: 1},
	}, "")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(overlap))
	fixed := make([]string, 0, len(overlap))
	for _, holding := range overlap {
		ids = append(ids, holding.ID)
		fixed = append(fixed, holding.Ticker)
	}

	if err := s.repo.ClearWatchlistFlags(ids); err != nil {
		return nil, fmt.Errorf("failed to fix overlapping rows: %w", err)
	}

	return fixed, nil
}

// getOwned loads a row and verifies it belongs to the caller. Ownership
// mismatches surface as NotFound so callers cannot probe other users' rows.
func (s *Service) getOwned(userID, id string) (*domain.Holding, error) {
	holding, err := s.repo.FindByID(id)
	if err != nil {
		return nil, mapRepoErr(err, "Stock not found")
	}

	if holding.UserID != userID {
		return nil, apierr.NotFound("Stock not found")
	}

	return holding, nil
}

func mapRepoErr(err error, notFoundMsg string) error {
	if errors.Is(err, ErrNotFound) {
		return apierr.NotFound(notFoundMsg)
	}
	return err
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
