package strategy

import (
	"fmt"

	"backtest_go/internal/domain"
)

// SMACrossStrategy implements a simple SMA Crossover strategy.
// It is stateful and deterministic.
type SMACrossStrategy struct {
	symbol      string
	shortPeriod int
	longPeriod  int
	qty         int64

	prices *priceWindow // sized for the long period

	primed       bool // prev SMAs hold a full-window value
	prevShortSMA float64
	prevLongSMA  float64
}

// NewSMACrossStrategy creates a new instance.
func NewSMACrossStrategy(symbol string, shortPeriod, longPeriod int, qty int64) (*SMACrossStrategy, error) {
	if symbol == "" {
		return nil, fmt.Errorf("sma_cross: symbol is required")
	}
	if shortPeriod < 1 || shortPeriod >= longPeriod {
		return nil, fmt.Errorf("sma_cross: need 1 <= short < long, got %d/%d", shortPeriod, longPeriod)
	}
	if qty < 1 {
		return nil, fmt.Errorf("sma_cross: qty must be >= 1, got %d", qty)
	}
	return &SMACrossStrategy{
		symbol:      symbol,
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		qty:         qty,
		prices:      newPriceWindow(longPeriod),
	}, nil
}

// Name implements Strategy.
func (s *SMACrossStrategy) Name() string {
	return fmt.Sprintf("sma_cross(%s,%d,%d)", s.symbol, s.shortPeriod, s.longPeriod)
}

// GenerateSignals emits BUY on a golden cross and SELL on a dead cross.
func (s *SMACrossStrategy) GenerateSignals(tick domain.MarketDataPoint) []Signal {
	// 1. Filter by symbol
	if tick.Symbol != s.symbol {
		return nil
	}

	// 2. Update Price History
	s.prices.push(tick.Price)

	// 3. Check if we have enough data
	if !s.prices.full() {
		return nil
	}

	// 4. Calculate SMAs
	currLongSMA := s.prices.mean(s.longPeriod)
	currShortSMA := s.prices.mean(s.shortPeriod)

	var signals []Signal

	// 5. Check for Cross
	if s.primed {
		// Golden Cross: Short goes above Long
		if s.prevShortSMA <= s.prevLongSMA && currShortSMA > currLongSMA {
			signals = append(signals, Signal{Action: ActionBuy, Symbol: s.symbol, Quantity: s.qty, Price: tick.Price})
		}

		// Dead Cross: Short goes below Long
		if s.prevShortSMA >= s.prevLongSMA && currShortSMA < currLongSMA {
			signals = append(signals, Signal{Action: ActionSell, Symbol: s.symbol, Quantity: s.qty, Price: tick.Price})
		}
	}

	// 6. Update State
	s.prevShortSMA = currShortSMA
	s.prevLongSMA = currLongSMA
	s.primed = true

	return signals
}
