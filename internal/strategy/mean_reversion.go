package strategy

import (
	"fmt"

	"backtest_go/internal/domain"
)

// MeanReversionStrategy trades against the rolling z-score of the price:
// SELL when the price sits more than zEntry standard deviations above the
// window mean, BUY when it sits more than zEntry below.
type MeanReversionStrategy struct {
	symbol string
	window int
	zEntry float64
	qty    int64

	prices *priceWindow
}

// NewMeanReversionStrategy creates a new instance.
func NewMeanReversionStrategy(symbol string, window int, zEntry float64, qty int64) (*MeanReversionStrategy, error) {
	if symbol == "" {
		return nil, fmt.Errorf("mean_reversion: symbol is required")
	}
	if window < 1 {
		return nil, fmt.Errorf("mean_reversion: window must be >= 1, got %d", window)
	}
	if zEntry < 0 {
		return nil, fmt.Errorf("mean_reversion: z_entry must be >= 0, got %v", zEntry)
	}
	if qty < 1 {
		return nil, fmt.Errorf("mean_reversion: qty must be >= 1, got %d", qty)
	}
	return &MeanReversionStrategy{
		symbol: symbol,
		window: window,
		zEntry: zEntry,
		qty:    qty,
		prices: newPriceWindow(window),
	}, nil
}

// Name implements Strategy.
func (s *MeanReversionStrategy) Name() string {
	return fmt.Sprintf("mean_reversion(%s,%d,%g)", s.symbol, s.window, s.zEntry)
}

// GenerateSignals implements Strategy.
func (s *MeanReversionStrategy) GenerateSignals(tick domain.MarketDataPoint) []Signal {
	if tick.Symbol != s.symbol {
		return nil
	}

	s.prices.push(tick.Price)
	if !s.prices.full() {
		return nil
	}

	z := s.zScore(tick.Price)
	switch {
	case z > s.zEntry:
		return []Signal{{Action: ActionSell, Symbol: tick.Symbol, Quantity: s.qty, Price: tick.Price}}
	case z < -s.zEntry:
		return []Signal{{Action: ActionBuy, Symbol: tick.Symbol, Quantity: s.qty, Price: tick.Price}}
	}
	return nil
}

// zScore is 0 when fewer than two prices are held or the window has no spread.
func (s *MeanReversionStrategy) zScore(price float64) float64 {
	n := s.prices.len()
	if n < 2 || s.flat() {
		return 0
	}
	mu := s.prices.mean(n)
	sigma := s.prices.pstdev(mu)
	if sigma == 0 {
		return 0
	}
	return (price - mu) / sigma
}

// flat reports whether every retained price is identical. Float rounding in
// the mean can otherwise produce a tiny non-zero sigma for a constant window.
func (s *MeanReversionStrategy) flat() bool {
	first := s.prices.at(0)
	for i := 1; i < s.prices.len(); i++ {
		if s.prices.at(i) != first {
			return false
		}
	}
	return true
}
