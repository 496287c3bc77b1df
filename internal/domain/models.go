// Package domain provides core domain models and types.
package domain

import "time"

// HoldingState classifies a holding row. The state is derived from the row,
// never stored.
type HoldingState string

const (
	// StatePortfolioOnly - shares > 0, not on the watchlist
	StatePortfolioOnly HoldingState = "portfolio"
	// StateWatchlistOnly - shares == 0, on the watchlist
	StateWatchlistOnly HoldingState = "watchlist"
	// StateBoth - shares > 0 and on the watchlist
	StateBoth HoldingState = "both"
	// StateOrphaned - shares == 0 and not on the watchlist.
	// Invalid resting state: no completed operation may leave a row here.
	StateOrphaned HoldingState = "orphaned"
)

// Holding represents a row in the stocks table. It is a portfolio position,
// a watchlist entry, or both.
type Holding struct {
	LastUpdated   time.Time `json:"last_updated"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Ticker        string    `json:"ticker"`
	Shares        float64   `json:"shares"`
	BuyPrice      float64   `json:"buy_price"`
	CurrentPrice  float64   `json:"current_price"`
	TargetPrice   float64   `json:"target_price"`
	IsInWatchlist bool      `json:"is_in_watchlist"`
}

// State derives the holding classification from shares and the watchlist flag
func (h Holding) State() HoldingState {
	switch {
	case h.Shares > 0 && h.IsInWatchlist:
		return StateBoth
	case h.Shares > 0:
		return StatePortfolioOnly
	case h.IsInWatchlist:
		return StateWatchlistOnly
	default:
		return StateOrphaned
	}
}

// MarketValue returns shares valued at the last fetched price
func (h Holding) MarketValue() float64 {
	return h.Shares * h.CurrentPrice
}

// CostBasis returns shares valued at the recorded buy price
func (h Holding) CostBasis() float64 {
	return h.Shares * h.BuyPrice
}

// Asset represents a commodity position (gold or silver) valued by weight
type Asset struct {
	LastUpdated  time.Time `json:"last_updated"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Grams        float64   `json:"grams"`
	BuyPrice     float64   `json:"buy_price"`
	CurrentPrice float64   `json:"current_price"`
}

// MarketValue returns grams valued at the last fetched per-gram price
func (a Asset) MarketValue() float64 {
	return a.Grams * a.CurrentPrice
}
