package assets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/apierr"
	"github.com/holdwatch/holdwatch/internal/clients/metalprice"
	"github.com/holdwatch/holdwatch/internal/domain"
)

// MetalProvider supplies per-gram USD prices for precious metals
type MetalProvider interface {
	GramPrice(ctx context.Context, symbol string) (float64, error)
}

// Service manages commodity holdings. Prices are stored per gram; the
// upstream spot rate is quoted per troy ounce and converted on fetch.
type Service struct {
	repo   *Repository
	metals MetalProvider
	log    zerolog.Logger
}

// NewService creates a new assets service
func NewService(repo *Repository, metals MetalProvider, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		metals: metals,
		log:    log.With().Str("service", "assets").Logger(),
	}
}

// AddAssetInput carries the fields for creating an asset
type AddAssetInput struct {
	Name     string  `json:"name"`
	Grams    float64 `json:"grams"`
	BuyPrice float64 `json:"buy_price"`
}

// UpdateAssetInput carries the fields for a partial asset update
type UpdateAssetInput struct {
	Grams    *float64 `json:"grams"`
	BuyPrice *float64 `json:"buy_price"`
}

// List returns the user's assets ordered by name
func (s *Service) List(ctx context.Context, userID string) ([]domain.Asset, error) {
	return s.repo.FindAllByUser(userID)
}

// Add creates a commodity holding. The metal spot fetch is mandatory so a
// row is never stored without a market price.
func (s *Service) Add(ctx context.Context, userID string, input AddAssetInput) (*domain.Asset, error) {
	name := strings.TrimSpace(input.Name)
	symbol, err := symbolForName(name)
	if err != nil {
		return nil, err
	}
	if !positiveFinite(input.Grams) {
		return nil, apierr.Validation("Invalid weight in grams")
	}
	if !positiveFinite(input.BuyPrice) {
		return nil, apierr.Validation("Invalid buy price")
	}

	gramPrice, err := s.metals.GramPrice(ctx, symbol)
	if err != nil {
		return nil, apierr.QuoteUnavailable("Unable to fetch current metal price", err)
	}

	asset, err := s.repo.Create(domain.Asset{
		UserID:       userID,
		Name:         name,
		Grams:        input.Grams,
		BuyPrice:     input.BuyPrice,
		CurrentPrice: gramPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	s.log.Info().Str("name", name).Str("user", userID).Msg("Asset added")
	return asset, nil
}

// Update applies a partial update to one of the caller's assets
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateAssetInput) (*domain.Asset, error) {
	if _, err := s.getOwned(userID, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Grams != nil {
		if !positiveFinite(*input.Grams) {
			return nil, apierr.Validation("Invalid weight in grams")
		}
		fields["grams"] = *input.Grams
	}
	if input.BuyPrice != nil {
		if !positiveFinite(*input.BuyPrice) {
			return nil, apierr.Validation("Invalid buy price")
		}
		fields["buy_price"] = *input.BuyPrice
	}

	updated, err := s.repo.Update(id, fields)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	return updated, nil
}

// Delete removes one of the caller's assets
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.getOwned(userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return mapRepoErr(err)
	}
	s.log.Info().Str("id", id).Str("user", userID).Msg("Asset deleted")
	return nil
}

// RefreshResult summarizes a bulk asset price refresh
type RefreshResult struct {
	Total   int
	Updated int
	Failed  int
}

// RefreshAllPrices refreshes current_price for every asset row across all
// users. The spot rate per metal is fetched once and applied to all rows of
// that metal; a failed fetch leaves those rows unchanged.
func (s *Service) RefreshAllPrices(ctx context.Context) (RefreshResult, error) {
	rows, err := s.repo.FindAll()
	if err != nil {
		return RefreshResult{}, fmt.Errorf("failed to load assets: %w", err)
	}

	result := RefreshResult{Total: len(rows)}
	if len(rows) == 0 {
		return result, nil
	}

	gramPrices := map[string]float64{}
	for _, asset := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		symbol, err := symbolForName(asset.Name)
		if err != nil {
			s.log.Warn().Str("name", asset.Name).Msg("Skipping asset with unknown metal")
			result.Failed++
			continue
		}

		gramPrice, ok := gramPrices[symbol]
		if !ok {
			gramPrice, err = s.metals.GramPrice(ctx, symbol)
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to refresh metal price")
				result.Failed++
				continue
			}
			gramPrices[symbol] = gramPrice
		}

		_, err = s.repo.Update(asset.ID, map[string]interface{}{
			"current_price": gramPrice,
			"last_updated":  time.Now().UTC(),
		})
		if err != nil {
			s.log.Warn().Err(err).Str("id", asset.ID).Msg("Failed to store refreshed metal price")
			result.Failed++
			continue
		}
		result.Updated++
	}

	s.log.Info().
		Int("total", result.Total).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Msg("Asset price refresh finished")

	return result, nil
}

func (s *Service) getOwned(userID, id string) (*domain.Asset, error) {
	asset, err := s.repo.FindByID(id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if asset.UserID != userID {
		return nil, apierr.NotFound("Asset not found")
	}
	return asset, nil
}

// symbolForName maps the asset's display name to its metal symbol
func symbolForName(name string) (string, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "gold"):
		return metalprice.SymbolGold, nil
	case strings.Contains(lower, "silver"):
		return metalprice.SymbolSilver, nil
	default:
		return "", apierr.Validation("Asset name must be Gold or Silver")
	}
}

func mapRepoErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apierr.NotFound("Asset not found")
	}
	return err
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
