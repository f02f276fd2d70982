package strategy

import (
	"fmt"

	"backtest_go/internal/domain"
)

// MomentumStrategy compares the current price with the price `lookback`
// ticks ago and trades in the direction of the move when it exceeds the threshold.
type MomentumStrategy struct {
	symbol    string
	lookback  int
	qty       int64
	threshold float64

	prices *priceWindow // last lookback+1 prices
}

// NewMomentumStrategy creates a new instance.
func NewMomentumStrategy(symbol string, lookback int, qty int64, threshold float64) (*MomentumStrategy, error) {
	if symbol == "" {
		return nil, fmt.Errorf("momentum: symbol is required")
	}
	if lookback < 1 {
		return nil, fmt.Errorf("momentum: lookback must be >= 1, got %d", lookback)
	}
	if qty < 1 {
		return nil, fmt.Errorf("momentum: qty must be >= 1, got %d", qty)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("momentum: threshold must be >= 0, got %v", threshold)
	}
	return &MomentumStrategy{
		symbol:    symbol,
		lookback:  lookback,
		qty:       qty,
		threshold: threshold,
		prices:    newPriceWindow(lookback + 1),
	}, nil
}

// Name implements Strategy.
func (s *MomentumStrategy) Name() string {
	return fmt.Sprintf("momentum(%s,%d,%g)", s.symbol, s.lookback, s.threshold)
}

// GenerateSignals implements Strategy.
func (s *MomentumStrategy) GenerateSignals(tick domain.MarketDataPoint) []Signal {
	if tick.Symbol != s.symbol {
		return nil
	}

	s.prices.push(tick.Price)
	if !s.prices.full() {
		return nil
	}

	diff := tick.Price - s.prices.oldest()
	switch {
	case diff > s.threshold:
		return []Signal{{Action: ActionBuy, Symbol: tick.Symbol, Quantity: s.qty, Price: tick.Price}}
	case diff < -s.threshold:
		return []Signal{{Action: ActionSell, Symbol: tick.Symbol, Quantity: s.qty, Price: tick.Price}}
	}
	return nil
}
