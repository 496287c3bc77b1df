package domain

// GainLossPercent returns the unrealized gain of a position as a percentage
// of its cost. Returns 0 when no cost basis is recorded (buyPrice == 0) to
// avoid dividing by zero; callers that need to distinguish "no basis" from
// "flat" should check BuyPrice themselves.
func GainLossPercent(buyPrice, currentPrice float64) float64 {
	if buyPrice == 0 {
		return 0
	}
	return (currentPrice - buyPrice) / buyPrice * 100
}

// PortfolioSummary aggregates portfolio positions
type PortfolioSummary struct {
	TotalValue       float64 `json:"totalValue"`
	TotalGain        float64 `json:"totalGain"`
	TotalGainPercent float64 `json:"totalGainPercent"`
	StockCount       int     `json:"stockCount"`
}

// Summarize computes total value, total gain and gain percentage over a set
// of holdings. Gain percentage is gain relative to cost, expressed as
// totalGain / (totalValue - totalGain); when cost is zero the percentage is
// reported as 0.
func Summarize(holdings []Holding) PortfolioSummary {
	summary := PortfolioSummary{StockCount: len(holdings)}

	for _, h := range holdings {
		value := h.MarketValue()
		summary.TotalValue += value
		summary.TotalGain += value - h.CostBasis()
	}

	if summary.TotalValue > 0 && summary.TotalValue != summary.TotalGain {
		summary.TotalGainPercent = summary.TotalGain / (summary.TotalValue - summary.TotalGain) * 100
	}

	return summary
}
