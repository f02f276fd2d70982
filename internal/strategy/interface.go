package strategy

import (
	"backtest_go/internal/domain"
)

// ActionType defines the type of trading action
type ActionType int

const (
	ActionBuy  ActionType = iota + 1
	ActionSell
)

// String returns the string representation of ActionType
func (a ActionType) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Side maps the action onto an order side. Unknown actions map to the zero
// Side, which order validation rejects.
func (a ActionType) Side() domain.Side {
	switch a {
	case ActionBuy:
		return domain.SideBuy
	case ActionSell:
		return domain.SideSell
	default:
		return 0
	}
}

// Signal is a proposed trade, not yet validated or executed.
type Signal struct {
	Action   ActionType
	Symbol   string
	Quantity int64
	Price    float64
}

// ToOrder converts the signal into a NEW order with the given id.
func (s Signal) ToOrder(id string) *domain.Order {
	return domain.NewOrder(id, s.Symbol, s.Action.Side(), s.Quantity, s.Price)
}

// Strategy is the interface that all trading strategies must implement.
// It is called synchronously by the Runner, once per tick, in feed order.
type Strategy interface {
	// Name identifies the strategy instance in logs.
	Name() string

	// GenerateSignals consumes one tick and returns zero or more signals.
	// Ticks for symbols the strategy does not track return nil.
	GenerateSignals(tick domain.MarketDataPoint) []Signal
}
