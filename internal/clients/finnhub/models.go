package finnhub

// Quote is the latest traded price snapshot for a symbol
type Quote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// PricePoint is a single observation in a historical price series
type PricePoint struct {
	Timestamp string  `json:"timestamp"`
	Price     float64 `json:"price"`
}

// candleResponse is the provider's raw candle payload
type candleResponse struct {
	Status     string    `json:"s"`
	Timestamps []int64   `json:"t"`
	Closes     []float64 `json:"c"`
}

// SearchResult is a single symbol lookup entry
type SearchResult struct {
	Symbol          string `json:"symbol"`
	DisplaySymbol   string `json:"displaySymbol"`
	Description     string `json:"description"`
	Type            string `json:"type"`
	PrimaryExchange string `json:"primaryExchange"`
}

// SearchResponse is the provider's symbol lookup payload
type SearchResponse struct {
	Count  int            `json:"count"`
	Result []SearchResult `json:"result"`
}
