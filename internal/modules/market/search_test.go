package market

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holdwatch/holdwatch/internal/clients/finnhub"
)

func TestFilterSearchResults_PrefersMajorExchanges(t *testing.T) {
	results := []finnhub.SearchResult{
		{Symbol: "AAPL", Description: "APPLE INC", Type: "Common Stock", PrimaryExchange: "NASDAQ"},
		{Symbol: "AAPL.MX", Description: "APPLE INC", Type: "Common Stock", PrimaryExchange: "BMV"},
		{Symbol: "APC.BE", Description: "APPLE INC", Type: "Common Stock", PrimaryExchange: "BER"},
	}

	filtered := FilterSearchResults(results)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "AAPL", filtered[0].Symbol)
}

func TestFilterSearchResults_ExchangeTierRequiresSymbolAndDescription(t *testing.T) {
	// A preferred-exchange listing with no description must not satisfy the
	// first tier on its own
	results := []finnhub.SearchResult{
		{Symbol: "AAPL", Description: "", Type: "Common Stock", PrimaryExchange: "NASDAQ"},
		{Symbol: "AAPL.MX", Description: "APPLE INC", Type: "Common Stock", PrimaryExchange: "BMV"},
	}

	filtered := FilterSearchResults(results)
	assert.Len(t, filtered, 2, "tier 1 empty, falls through to common stock")
}

func TestFilterSearchResults_FallsBackToCommonStock(t *testing.T) {
	results := []finnhub.SearchResult{
		{Symbol: "AAPL.MX", Description: "APPLE INC", Type: "Common Stock", PrimaryExchange: "BMV"},
		{Symbol: "AAPL5.SA", Description: "APPLE DRN", Type: "DR", PrimaryExchange: "SAO"},
	}

	filtered := FilterSearchResults(results)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "AAPL.MX", filtered[0].Symbol)
}

func TestFilterSearchResults_FallsBackToAnyWithSymbol(t *testing.T) {
	results := []finnhub.SearchResult{
		{Symbol: "AAPL5.SA", Description: "APPLE DRN", Type: "DR", PrimaryExchange: "SAO"},
		{Symbol: "", Description: "NO SYMBOL", Type: "DR"},
		{Symbol: "XYZ", Description: "", Type: "DR"},
	}

	filtered := FilterSearchResults(results)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "AAPL5.SA", filtered[0].Symbol)
}

func TestFilterSearchResults_CapsAtTen(t *testing.T) {
	results := make([]finnhub.SearchResult, 25)
	for i := range results {
		results[i] = finnhub.SearchResult{
			Symbol:          fmt.Sprintf("SYM%d", i),
			Description:     "COMPANY",
			Type:            "Common Stock",
			PrimaryExchange: "NYSE",
		}
	}

	assert.Len(t, FilterSearchResults(results), 10)
}

func TestFilterSearchResults_Empty(t *testing.T) {
	filtered := FilterSearchResults(nil)
	assert.NotNil(t, filtered)
	assert.Empty(t, filtered)
}
