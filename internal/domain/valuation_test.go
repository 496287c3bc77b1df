package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHoldingState(t *testing.T) {
	tests := []struct {
		name     string
		holding  Holding
		expected HoldingState
	}{
		{name: "portfolio only", holding: Holding{Shares: 10}, expected: StatePortfolioOnly},
		{name: "watchlist only", holding: Holding{IsInWatchlist: true}, expected: StateWatchlistOnly},
		{name: "both", holding: Holding{Shares: 5, IsInWatchlist: true}, expected: StateBoth},
		{name: "orphaned", holding: Holding{}, expected: StateOrphaned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.holding.State())
		})
	}
}

func TestGainLossPercent(t *testing.T) {
	tests := []struct {
		name     string
		buy      float64
		current  float64
		expected float64
	}{
		{name: "gain", buy: 100, current: 120, expected: 20},
		{name: "loss", buy: 50, current: 40, expected: -20},
		{name: "flat", buy: 75, current: 75, expected: 0},
		{name: "no cost basis", buy: 0, current: 250, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, GainLossPercent(tt.buy, tt.current), 1e-9)
		})
	}
}

func TestSummarize(t *testing.T) {
	holdings := []Holding{
		{Shares: 2, BuyPrice: 100, CurrentPrice: 120},
		{Shares: 1, BuyPrice: 50, CurrentPrice: 40},
	}

	summary := Summarize(holdings)

	assert.InDelta(t, 280.0, summary.TotalValue, 1e-9)
	assert.InDelta(t, 30.0, summary.TotalGain, 1e-9)
	// 30 / (280 - 30) * 100
	assert.InDelta(t, 12.0, summary.TotalGainPercent, 1e-9)
	assert.Equal(t, 2, summary.StockCount)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	assert.Zero(t, summary.TotalValue)
	assert.Zero(t, summary.TotalGain)
	assert.Zero(t, summary.TotalGainPercent)
	assert.Zero(t, summary.StockCount)
}

func TestSummarizeZeroCost(t *testing.T) {
	// Watchlist-style rows carry no cost basis; the percentage must not
	// divide by zero.
	holdings := []Holding{{Shares: 3, BuyPrice: 0, CurrentPrice: 10}}

	summary := Summarize(holdings)

	assert.InDelta(t, 30.0, summary.TotalValue, 1e-9)
	assert.InDelta(t, 30.0, summary.TotalGain, 1e-9)
	assert.Zero(t, summary.TotalGainPercent)
}
