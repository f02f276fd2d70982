package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"backtest_go/internal/domain"
	"backtest_go/internal/engine"
	"backtest_go/internal/execution"
	"backtest_go/internal/feed"
	"backtest_go/internal/infra"
	"backtest_go/internal/infra/storage"
	"backtest_go/internal/report"
	"backtest_go/internal/strategy"
)

// Bootstrap wires configuration, logging, storage and the backtest loop.
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
	Metrics *infra.Metrics
}

// Result is what a finished run hands back to the caller.
type Result struct {
	Summary    engine.Summary
	Engine     *execution.Engine
	ReportPath string
}

// NewBootstrap creates a new Bootstrap instance for cfg
func NewBootstrap(cfg *infra.Config) *Bootstrap {
	return &Bootstrap{Config: cfg, Metrics: infra.GlobalMetrics}
}

// Initialize installs the logger and opens storage when the feed needs it.
func (b *Bootstrap) Initialize() error {
	logger := infra.NewLogger(b.Config)
	slog.SetDefault(logger)
	slog.Info("🚀 Bootstrapping backtest...",
		slog.String("name", b.Config.App.Name),
		slog.String("version", b.Config.App.Version))

	if b.Config.Feed.Kind == infra.FeedSQLite {
		if err := b.openStorage(); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bootstrap) openStorage() error {
	if b.Storage != nil {
		return nil
	}
	store, err := storage.NewStorage(b.Config.Feed.DBPath)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized", slog.String("path", b.Config.Feed.DBPath))
	return nil
}

// Close releases storage.
func (b *Bootstrap) Close() error {
	if b.Storage == nil {
		return nil
	}
	return b.Storage.Close()
}

// Source builds the tick source selected by feed.kind.
func (b *Bootstrap) Source() (feed.Source, error) {
	f := b.Config.Feed
	switch f.Kind {
	case infra.FeedCSV:
		return feed.CSVSource{Path: f.Path}, nil
	case infra.FeedSQLite:
		if err := b.openStorage(); err != nil {
			return nil, err
		}
		return feed.StoreSource{Store: b.Storage, Symbols: f.Symbols}, nil
	case infra.FeedWS:
		return feed.WSSource{URL: f.WSURL, MaxTicks: f.MaxTicks, Symbols: f.Symbols}, nil
	default:
		return nil, fmt.Errorf("unknown feed kind %q", f.Kind)
	}
}

// NewEngine builds a fresh execution engine from the backtest section.
func (b *Bootstrap) NewEngine() *execution.Engine {
	bt := b.Config.Backtest
	opts := []execution.Option{execution.WithSuccessRate(bt.SuccessRate)}
	if bt.Seed != nil {
		opts = append(opts, execution.WithSeed(*bt.Seed))
	}
	return execution.NewEngine(bt.StartingCash.InexactFloat64(), opts...)
}

// Run loads the feed, replays it through fresh strategies and a fresh engine,
// and writes the report. The Result is returned even when the loop aborts.
func (b *Bootstrap) Run(ctx context.Context) (*Result, error) {
	src, err := b.Source()
	if err != nil {
		return nil, err
	}
	ticks, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	if len(ticks) == 0 {
		slog.Warn("Feed is empty", slog.String("kind", b.Config.Feed.Kind))
	}

	strategies, err := BuildStrategies(b.Config.Strategies)
	if err != nil {
		return nil, err
	}

	eng := b.NewEngine()
	runner := engine.NewRunner(eng, strategies,
		engine.WithMetrics(b.Metrics),
		engine.WithDumpFile(b.Config.Backtest.DumpFile),
		engine.WithStepHook(progressHook(len(ticks))))

	res := &Result{Engine: eng}
	res.Summary, err = runner.Run(ctx, ticks)
	b.logMetrics()
	if err != nil {
		return res, err
	}

	rc := b.Config.Report
	res.ReportPath, err = report.Generate(rc.OutputDir, eng, report.Options{
		RiskFree:       rc.RiskFree,
		PeriodsPerYear: rc.PeriodsPerYear,
		SparklineWidth: rc.SparklineWidth,
		ChartWidth:     rc.ChartWidth,
		ChartHeight:    rc.ChartHeight,
	})
	if err != nil {
		return res, fmt.Errorf("generate report: %w", err)
	}
	return res, nil
}

// Import copies a CSV feed into the tick store and returns the number of ticks saved.
func (b *Bootstrap) Import(ctx context.Context, csvPath string) (int, error) {
	if err := b.openStorage(); err != nil {
		return 0, err
	}
	ticks, err := feed.LoadCSV(csvPath)
	if err != nil {
		return 0, err
	}
	if err := b.Storage.SaveTicks(ctx, ticks); err != nil {
		return 0, err
	}
	if err := b.Storage.SaveConfig("last_import", csvPath); err != nil {
		slog.Warn("Failed to record import source", slog.Any("error", err))
	}

	total, _ := b.Storage.CountTicks(ctx)
	slog.Info("✅ Ticks imported",
		slog.String("file", csvPath),
		slog.Int("imported", len(ticks)),
		slog.Int64("total", total))
	return len(ticks), nil
}

// LastImport returns the CSV path recorded by the most recent Import, or ""
// if the store has never been loaded.
func (b *Bootstrap) LastImport() (string, error) {
	if err := b.openStorage(); err != nil {
		return "", err
	}
	settings, err := b.Storage.LoadConfigMap()
	if err != nil {
		return "", err
	}
	return settings["last_import"], nil
}

// ClearTicks empties the tick store for symbols, or entirely when none are given.
func (b *Bootstrap) ClearTicks(ctx context.Context, symbols ...string) (int64, error) {
	if err := b.openStorage(); err != nil {
		return 0, err
	}
	n, err := b.Storage.DeleteTicks(ctx, symbols...)
	if err != nil {
		return 0, err
	}
	slog.Info("🗑️ Ticks cleared", slog.Int64("deleted", n), slog.Any("symbols", symbols))
	return n, nil
}

// Export writes the configured feed to outPath as CSV. Pointed at a ws feed
// it records a live session for later replay.
func (b *Bootstrap) Export(ctx context.Context, outPath string) (int, error) {
	src, err := b.Source()
	if err != nil {
		return 0, err
	}
	ticks, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load feed: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return 0, err
	}
	if err := feed.WriteCSV(f, ticks); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	slog.Info("✅ Ticks exported",
		slog.String("kind", b.Config.Feed.Kind),
		slog.String("file", outPath),
		slog.Int("ticks", len(ticks)))
	return len(ticks), nil
}

// progressHook logs replay progress at debug level roughly every tenth of the feed.
func progressHook(total int) func(domain.MarketDataPoint) {
	every := total / 10
	if every == 0 {
		every = 1
	}
	seen := 0
	return func(tick domain.MarketDataPoint) {
		seen++
		if seen%every == 0 || seen == total {
			slog.Debug("Replay progress",
				slog.Int("ticks", seen),
				slog.Int("total", total),
				slog.String("symbol", tick.Symbol),
				slog.Time("ts", tick.Timestamp))
		}
	}
}

func (b *Bootstrap) logMetrics() {
	snap := b.Metrics.Snapshot()
	slog.Info("📊 Run metrics",
		slog.Uint64("ticks", snap.TicksProcessed),
		slog.Uint64("signals", snap.SignalsGenerated),
		slog.Uint64("filled", snap.OrdersFilled),
		slog.Uint64("failed", snap.OrdersFailed),
		slog.Uint64("rejected", snap.OrdersRejected),
		slog.Uint64("errors", snap.ErrorsTotal),
		slog.Int64("avg_step_ns", snap.AvgLatencyNs))
}

// BuildStrategies instantiates one fresh strategy per config entry, filling
// unset parameters with defaults.
func BuildStrategies(cfgs []infra.StrategyConfig) ([]strategy.Strategy, error) {
	if len(cfgs) == 0 {
		return nil, errors.New("no strategies configured")
	}
	out := make([]strategy.Strategy, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := buildStrategy(c)
		if err != nil {
			return nil, fmt.Errorf("strategies[%d] (%s): %w", i, c.Type, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func buildStrategy(c infra.StrategyConfig) (strategy.Strategy, error) {
	qty := c.Qty
	if qty == 0 {
		qty = 1
	}
	switch c.Type {
	case infra.StrategyMomentum:
		lookback := c.Lookback
		if lookback == 0 {
			lookback = 3
		}
		return strategy.NewMomentumStrategy(c.Symbol, lookback, qty, c.Threshold)
	case infra.StrategyMeanReversion:
		window := c.Window
		if window == 0 {
			window = 20
		}
		zEntry := 1.0
		if c.ZEntry != nil {
			zEntry = *c.ZEntry
		}
		return strategy.NewMeanReversionStrategy(c.Symbol, window, zEntry, qty)
	case infra.StrategySMACross:
		short, long := c.Short, c.Long
		if short == 0 {
			short = 3
		}
		if long == 0 {
			long = 5
		}
		return strategy.NewSMACrossStrategy(c.Symbol, short, long, qty)
	default:
		return nil, fmt.Errorf("unknown strategy type %q", c.Type)
	}
}

// ExitCode maps a run error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, os.ErrNotExist):
		return 2
	default:
		return 1
	}
}
