package report

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"backtest_go/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	MarkdownFile = "performance.md"
	ChartFile    = "equity.png"

	firstExecutions = 5
)

// History is the read-only view of a finished run that reports are built from.
type History interface {
	PortfolioValues() []domain.EquityPoint
	ExecutedHistory() []domain.FillRecord
	FailedHistory() []domain.FailureRecord
}

// Options tunes report generation. Zero values fall back to defaults.
type Options struct {
	RiskFree       float64
	PeriodsPerYear float64
	SparklineWidth int
	ChartWidth     int
	ChartHeight    int
}

func (o Options) withDefaults() Options {
	if o.PeriodsPerYear <= 0 {
		o.PeriodsPerYear = DefaultPeriodsPerYear
	}
	if o.SparklineWidth <= 0 {
		o.SparklineWidth = 60
	}
	if o.ChartWidth <= 0 {
		o.ChartWidth = 800
	}
	if o.ChartHeight <= 0 {
		o.ChartHeight = 400
	}
	return o
}

// Generate writes equity.png and performance.md into outputDir and returns the
// markdown path. A run without equity points still gets a report, minus the chart.
func Generate(outputDir string, h History, opts Options) (string, error) {
	opts = opts.withDefaults()
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	curve := h.PortfolioValues()
	hasChart := len(curve) > 0
	if hasChart {
		if err := RenderEquityChart(curve, filepath.Join(outputDir, ChartFile), opts.ChartWidth, opts.ChartHeight); err != nil {
			return "", err
		}
	}

	stats := ComputeStats(curve, opts.RiskFree, opts.PeriodsPerYear)
	md := Markdown(stats, curve, h.ExecutedHistory(), h.FailedHistory(), hasChart, opts.SparklineWidth)

	out := filepath.Join(outputDir, MarkdownFile)
	if err := os.WriteFile(out, []byte(md), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	slog.Info("Report written",
		slog.String("file", out),
		slog.String("total_return", percent(stats.TotalReturn)),
		slog.String("sharpe", fixed(stats.Sharpe)),
		slog.String("max_drawdown", percent(stats.MaxDrawdown)))
	return out, nil
}

// Markdown renders the report body.
func Markdown(stats Stats, curve []domain.EquityPoint, fills []domain.FillRecord,
	failures []domain.FailureRecord, withChart bool, sparkWidth int) string {
	var b strings.Builder

	b.WriteString("# Performance Report\n\n")
	b.WriteString("## Summary Metrics\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Starting Equity | %s |\n", fixed(stats.StartingEquity))
	fmt.Fprintf(&b, "| Ending Equity | %s |\n", fixed(stats.EndingEquity))
	fmt.Fprintf(&b, "| Total Return | %s |\n", percent(stats.TotalReturn))
	fmt.Fprintf(&b, "| Sharpe (per-tick scaled) | %s |\n", fixed(stats.Sharpe))
	fmt.Fprintf(&b, "| Max Drawdown | %s |\n", percent(stats.MaxDrawdown))

	b.WriteString("\n## Equity Curve\n\n")
	if withChart {
		fmt.Fprintf(&b, "![Equity](%s)\n", ChartFile)
	} else {
		b.WriteString("_No equity points recorded._\n")
	}

	b.WriteString("\n## ASCII Sparkline\n\n```\n")
	b.WriteString(Sparkline(Values(curve), sparkWidth))
	b.WriteString("\n```\n\n")

	b.WriteString("## Executions\n\n")
	fmt.Fprintf(&b, "- Executed orders: %d\n", len(fills))
	fmt.Fprintf(&b, "- Failed orders: %d\n", len(failures))

	b.WriteString("\n### First 5 Executions\n\n```\n")
	for i, f := range fills {
		if i == firstExecutions {
			break
		}
		b.WriteString(formatFill(f))
		b.WriteByte('\n')
	}
	b.WriteString("```\n")
	return b.String()
}

func formatFill(f domain.FillRecord) string {
	return fmt.Sprintf("%s %s %d %s @ %s cash=%s position=%d id=%s",
		f.Timestamp.Format(time.RFC3339Nano), f.Side, f.Quantity, f.Symbol,
		fixed(f.Price), fixed(f.CashAfter), f.PositionAfter, f.OrderID)
}

// fixed formats v with two decimals; NaN and infinities print as n/a.
func fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}
