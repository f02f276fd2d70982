package execution

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"backtest_go/internal/domain"
)

// DefaultSuccessRate is the probability that a valid order fills.
const DefaultSuccessRate = 0.9

const failureReason = "Simulated failure"

// RandSource draws uniform values in [0, 1).
// *rand.Rand satisfies it; tests plug in fixed sequences.
type RandSource interface {
	Float64() float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithSuccessRate sets the fill probability. 1 always fills, 0 always fails.
func WithSuccessRate(p float64) Option {
	return func(e *Engine) { e.successRate = p }
}

// WithRandSource injects the outcome generator.
func WithRandSource(r RandSource) Option {
	return func(e *Engine) { e.rng = r }
}

// WithSeed uses a seeded math/rand generator.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// Engine is the simulated execution venue. It owns cash, positions, mark
// prices and the execution/failure/equity histories.
// Not safe for concurrent use: one backtest run owns one Engine.
type Engine struct {
	startingCash float64
	cash         float64
	successRate  float64
	rng          RandSource

	positions map[string]*domain.Position
	marks     map[string]float64

	executed []domain.FillRecord
	failed   []domain.FailureRecord
	equity   []domain.EquityPoint
}

var _ domain.Execution = (*Engine)(nil)

// NewEngine creates an engine holding startingCash and no positions.
func NewEngine(startingCash float64, opts ...Option) *Engine {
	e := &Engine{
		startingCash: startingCash,
		cash:         startingCash,
		successRate:  DefaultSuccessRate,
		positions:    make(map[string]*domain.Position),
		marks:        make(map[string]float64),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// Execute validates the order and simulates a fill or a failure.
//
// An *domain.OrderError is returned before any state changes. An
// *domain.ExecutionError is returned after the order was marked FAILED and
// a failure record appended; cash and positions are untouched in that case.
func (e *Engine) Execute(order *domain.Order, now time.Time) error {
	if err := order.Validate(); err != nil {
		return err
	}

	pos := e.position(order.Symbol)
	if order.Side == domain.SideSell && order.Quantity > pos.Quantity {
		return domain.NewOrderError("execute", order.Symbol, fmt.Errorf("%w: cannot sell %d > current position %d",
			domain.ErrInsufficientPosition, order.Quantity, pos.Quantity))
	}
	if order.Side == domain.SideBuy && order.Quantity > math.MaxInt64-pos.Quantity {
		return domain.NewOrderError("execute", order.Symbol, fmt.Errorf("%w: cannot buy %d on top of position %d",
			domain.ErrPositionOverflow, order.Quantity, pos.Quantity))
	}

	if e.rng.Float64() < e.successRate {
		return e.fill(order, pos, now)
	}
	return e.fail(order, now)
}

func (e *Engine) fill(order *domain.Order, pos *domain.Position, now time.Time) error {
	if err := order.Fill(); err != nil {
		return err
	}

	switch order.Side {
	case domain.SideBuy:
		pos.ApplyBuy(order.Quantity, order.Price)
		e.cash -= order.Notional()
	case domain.SideSell:
		pos.ApplySell(order.Quantity)
		e.cash += order.Notional()
	}

	e.executed = append(e.executed, domain.FillRecord{
		OrderID:       order.ID,
		Timestamp:     now,
		Symbol:        order.Symbol,
		Price:         order.Price,
		Quantity:      order.Quantity,
		Side:          order.Side,
		Status:        order.Status,
		CashAfter:     e.cash,
		PositionAfter: pos.Quantity,
	})
	pos.VerifyInvariant()
	return nil
}

func (e *Engine) fail(order *domain.Order, now time.Time) error {
	if err := order.Fail(); err != nil {
		return err
	}

	e.failed = append(e.failed, domain.FailureRecord{
		OrderID:   order.ID,
		Timestamp: now,
		Symbol:    order.Symbol,
		Price:     order.Price,
		Quantity:  order.Quantity,
		Side:      order.Side,
		Status:    order.Status,
		Reason:    failureReason,
	})
	return &domain.ExecutionError{
		OrderID: order.ID,
		Symbol:  order.Symbol,
		Side:    order.Side,
		Qty:     order.Quantity,
		Price:   order.Price,
		Err:     domain.ErrSimulatedFailure,
	}
}

// OnTick records the tick's price as the symbol's mark and appends the
// post-trade portfolio value to the equity curve. It must be called once per
// tick, after every order generated from that tick has been executed.
func (e *Engine) OnTick(tick domain.MarketDataPoint) {
	e.marks[tick.Symbol] = tick.Price
	e.equity = append(e.equity, domain.EquityPoint{
		Timestamp: tick.Timestamp,
		Value:     e.PortfolioValue(),
	})
}

// PortfolioValue is cash plus every open position valued at its last mark,
// falling back to the average cost for symbols that have no mark yet.
func (e *Engine) PortfolioValue() float64 {
	value := e.cash
	for _, sym := range e.symbols() {
		pos := e.positions[sym]
		if pos.IsFlat() {
			continue
		}
		px, ok := e.Mark(sym)
		if !ok {
			px = pos.AvgPrice
		}
		value += float64(pos.Quantity) * px
	}
	return value
}

// position returns the symbol's position, creating an empty one if needed.
func (e *Engine) position(symbol string) *domain.Position {
	pos, ok := e.positions[symbol]
	if !ok {
		pos = &domain.Position{Symbol: symbol}
		e.positions[symbol] = pos
	}
	return pos
}

// symbols returns position symbols in sorted order so valuation sums are deterministic.
func (e *Engine) symbols() []string {
	syms := make([]string, 0, len(e.positions))
	for s := range e.positions {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}

// Cash returns the current cash balance.
func (e *Engine) Cash() float64 {
	return e.cash
}

// StartingCash returns the cash the engine was created with.
func (e *Engine) StartingCash() float64 {
	return e.startingCash
}

// SuccessRate returns the configured fill probability.
func (e *Engine) SuccessRate() float64 {
	return e.successRate
}

// Position returns a copy of the symbol's position (zero if never traded).
func (e *Engine) Position(symbol string) domain.Position {
	if pos, ok := e.positions[symbol]; ok {
		return *pos
	}
	return domain.Position{Symbol: symbol}
}

// Positions returns a copy of all positions.
func (e *Engine) Positions() map[string]domain.Position {
	result := make(map[string]domain.Position, len(e.positions))
	for k, v := range e.positions {
		result[k] = *v
	}
	return result
}

// Mark returns the last observed price for symbol.
func (e *Engine) Mark(symbol string) (float64, bool) {
	px, ok := e.marks[symbol]
	return px, ok
}

// PortfolioValues returns a copy of the equity curve.
func (e *Engine) PortfolioValues() []domain.EquityPoint {
	return append([]domain.EquityPoint(nil), e.equity...)
}

// ExecutedHistory returns a copy of the fill records.
func (e *Engine) ExecutedHistory() []domain.FillRecord {
	return append([]domain.FillRecord(nil), e.executed...)
}

// FailedHistory returns a copy of the failure records.
func (e *Engine) FailedHistory() []domain.FailureRecord {
	return append([]domain.FailureRecord(nil), e.failed...)
}

// VerifyInvariants panics if any position is in an impossible state.
func (e *Engine) VerifyInvariants() {
	for _, pos := range e.positions {
		pos.VerifyInvariant()
	}
}

// State is a point-in-time dump of the engine for post-mortem analysis.
type State struct {
	Cash      float64                    `json:"cash"`
	Positions map[string]domain.Position `json:"positions"`
	Marks     map[string]float64         `json:"marks"`
	Executed  int                        `json:"executed"`
	Failed    int                        `json:"failed"`
	Ticks     int                        `json:"ticks"`
}

// Snapshot returns the current State.
func (e *Engine) Snapshot() State {
	marks := make(map[string]float64, len(e.marks))
	for k, v := range e.marks {
		marks[k] = v
	}
	return State{
		Cash:      e.cash,
		Positions: e.Positions(),
		Marks:     marks,
		Executed:  len(e.executed),
		Failed:    len(e.failed),
		Ticks:     len(e.equity),
	}
}
