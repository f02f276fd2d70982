package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/execution"
	"backtest_go/internal/infra"
	"backtest_go/internal/strategy"

	"github.com/google/uuid"
)

// ErrOutOfOrder is returned when the feed hands over a tick older than the previous one.
var ErrOutOfOrder = errors.New("tick out of order")

// Executor is the execution venue driven by the Runner.
type Executor interface {
	domain.Execution
	StartingCash() float64
	PortfolioValue() float64
	Snapshot() execution.State
}

// Summary describes a finished (or aborted) run.
type Summary struct {
	Ticks         int
	Signals       int
	Filled        int
	Failed        int
	Rejected      int
	StartingValue float64
	EndingValue   float64
	Elapsed       time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records counters into m instead of infra.GlobalMetrics.
func WithMetrics(m *infra.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithIDGenerator replaces the uuid order id generator.
func WithIDGenerator(next func() string) Option {
	return func(r *Runner) { r.newID = next }
}

// WithDumpFile sets where engine state is written if the loop panics.
func WithDumpFile(path string) Option {
	return func(r *Runner) { r.dumpFile = path }
}

// WithStepHook is called after each tick has been marked.
func WithStepHook(fn func(tick domain.MarketDataPoint)) Option {
	return func(r *Runner) { r.onStep = fn }
}

// Runner is the single-threaded backtest loop.
// For every tick it runs each strategy in registration order, executes the
// resulting orders, and only then marks the tick on the executor so the
// equity curve reflects post-trade state.
type Runner struct {
	exec       Executor
	strategies []strategy.Strategy
	metrics    *infra.Metrics
	newID      func() string
	dumpFile   string
	onStep     func(domain.MarketDataPoint)

	lastTs  time.Time
	summary Summary
}

// NewRunner creates a Runner. Strategies must be fresh instances owned by this run.
func NewRunner(exec Executor, strategies []strategy.Strategy, opts ...Option) *Runner {
	r := &Runner{
		exec:       exec,
		strategies: strategies,
		metrics:    infra.GlobalMetrics,
		newID:      uuid.NewString,
		dumpFile:   "panic_dump.json",
	}
	for _, opt := range opts {
		opt(r)
	}
	r.summary.StartingValue = exec.StartingCash()
	r.summary.EndingValue = exec.StartingCash()
	return r
}

// Run replays ticks in order. Simulated fill failures and rejected orders are
// logged and counted; any other error stops the run and is returned together
// with the summary so far. Cancellation is checked between ticks.
func (r *Runner) Run(ctx context.Context, ticks []domain.MarketDataPoint) (Summary, error) {
	slog.InfoContext(ctx, "Backtest started",
		slog.Int("ticks", len(ticks)),
		slog.Int("strategies", len(r.strategies)),
		slog.Float64("starting_cash", r.exec.StartingCash()))

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", rec))
			r.DumpState(r.dumpFile)
			panic(fmt.Sprintf("HALTED: %v", rec))
		}
	}()

	start := time.Now()
	for _, tick := range ticks {
		if err := ctx.Err(); err != nil {
			r.summary.Elapsed = time.Since(start)
			slog.WarnContext(ctx, "Backtest cancelled", slog.Int("processed", r.summary.Ticks))
			return r.summary, err
		}
		if err := r.Step(tick); err != nil {
			r.metrics.RecordError()
			r.summary.Elapsed = time.Since(start)
			return r.summary, err
		}
	}
	r.summary.Elapsed = time.Since(start)

	slog.InfoContext(ctx, "Backtest finished",
		slog.Int("ticks", r.summary.Ticks),
		slog.Int("signals", r.summary.Signals),
		slog.Int("filled", r.summary.Filled),
		slog.Int("failed", r.summary.Failed),
		slog.Int("rejected", r.summary.Rejected),
		slog.Float64("ending_value", r.summary.EndingValue))
	return r.summary, nil
}

// Step processes a single tick.
func (r *Runner) Step(tick domain.MarketDataPoint) error {
	start := time.Now()

	// 1. Ordering check (Halt Policy)
	if r.summary.Ticks > 0 && tick.Timestamp.Before(r.lastTs) {
		return fmt.Errorf("%w: %s %s before %s", ErrOutOfOrder, tick.Symbol,
			tick.Timestamp.Format(time.RFC3339Nano), r.lastTs.Format(time.RFC3339Nano))
	}

	// 2. Strategies -> orders -> execution
	for _, strat := range r.strategies {
		for _, sig := range strat.GenerateSignals(tick) {
			r.summary.Signals++
			r.metrics.RecordSignal()
			if err := r.execute(strat, sig, tick.Timestamp); err != nil {
				return err
			}
		}
	}

	// 3. Mark to market after this tick's orders
	r.exec.OnTick(tick)

	r.lastTs = tick.Timestamp
	r.summary.Ticks++
	r.summary.EndingValue = r.exec.PortfolioValue()
	r.metrics.RecordTick(time.Since(start).Nanoseconds())

	if r.onStep != nil {
		r.onStep(tick)
	}
	return nil
}

func (r *Runner) execute(strat strategy.Strategy, sig strategy.Signal, now time.Time) error {
	order := sig.ToOrder(r.newID())

	err := r.exec.Execute(order, now)
	switch {
	case err == nil:
		r.summary.Filled++
		r.metrics.RecordOrderFilled()
		slog.Debug("ORDER_FILLED",
			slog.String("strategy", strat.Name()),
			slog.String("order_id", order.ID),
			slog.String("side", order.Side.String()),
			slog.String("symbol", order.Symbol),
			slog.Int64("qty", order.Quantity),
			slog.Float64("price", order.Price))
		return nil
	case domain.IsExecutionError(err):
		r.summary.Failed++
		r.metrics.RecordOrderFailed()
		slog.Warn("ORDER_FAILED", slog.String("strategy", strat.Name()), slog.Any("error", err))
		return nil
	case domain.IsOrderError(err):
		r.summary.Rejected++
		r.metrics.RecordOrderRejected()
		slog.Info("ORDER_REJECTED", slog.String("strategy", strat.Name()), slog.Any("error", err))
		return nil
	default:
		return fmt.Errorf("execute order %s from %s: %w", order.ID, strat.Name(), err)
	}
}

// Summary returns the counters accumulated so far.
func (r *Runner) Summary() Summary {
	return r.summary
}

// DumpState writes the executor state to a file (for post-mortem).
func (r *Runner) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		LastTick time.Time       `json:"last_tick"`
		Summary  Summary         `json:"summary"`
		Engine   execution.State `json:"engine"`
	}{
		LastTick: r.lastTs,
		Summary:  r.summary,
		Engine:   r.exec.Snapshot(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
