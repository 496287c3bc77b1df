// Package market shapes market-data provider responses for the dashboard.
package market

import "github.com/holdwatch/holdwatch/internal/clients/finnhub"

// maxSearchResults caps the number of symbols returned to the dashboard
const maxSearchResults = 10

// preferredExchanges is the allow-list applied in the first filter tier.
// Kept as a package variable so deployments tracking other markets can
// extend it.
var preferredExchanges = map[string]bool{
	"NASDAQ": true,
	"NYSE":   true,
	"BATS":   true,
	"ARCA":   true,
}

// FilterSearchResults narrows raw symbol-search results in three tiers,
// falling through to the next tier whenever the current one matches nothing:
// major US exchanges first, then common stock listings, then anything with a
// symbol and a description. At most maxSearchResults entries are returned.
func FilterSearchResults(results []finnhub.SearchResult) []finnhub.SearchResult {
	tiers := []func(finnhub.SearchResult) bool{
		func(r finnhub.SearchResult) bool {
			return r.Symbol != "" && r.Description != "" && preferredExchanges[r.PrimaryExchange]
		},
		func(r finnhub.SearchResult) bool {
			return r.Type == "Common Stock"
		},
		func(r finnhub.SearchResult) bool {
			return r.Symbol != "" && r.Description != ""
		},
	}

	for _, match := range tiers {
		filtered := []finnhub.SearchResult{}
		for _, result := range results {
			if match(result) {
				filtered = append(filtered, result)
			}
		}
		if len(filtered) > 0 {
			if len(filtered) > maxSearchResults {
				filtered = filtered[:maxSearchResults]
			}
			return filtered
		}
	}

	return []finnhub.SearchResult{}
}
