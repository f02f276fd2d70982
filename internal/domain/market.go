package domain

import "time"

// MarketDataPoint is one immutable tick.
// Feeds hand these out by value so strategies and the engine cannot alter them.
type MarketDataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}
