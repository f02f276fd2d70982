package report_test

import (
	"math"
	"testing"
	"time"
	"unicode/utf8"

	"backtest_go/internal/domain"
	"backtest_go/internal/report"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 9, 21, 9, 30, 0, 0, time.UTC)

func curve(values ...float64) []domain.EquityPoint {
	out := make([]domain.EquityPoint, len(values))
	for i, v := range values {
		out[i] = domain.EquityPoint{Timestamp: t0.Add(time.Duration(i) * time.Minute), Value: v}
	}
	return out
}

func TestComputeReturns(t *testing.T) {
	rets := report.ComputeReturns(curve(100, 110, 99))
	assert.Len(t, rets, 2)
	assert.InDelta(t, 0.1, rets[0], 1e-12)
	assert.InDelta(t, -0.1, rets[1], 1e-12)

	assert.Equal(t, []float64{0, 0}, report.ComputeReturns(curve(0, 5, 5)))
	assert.Empty(t, report.ComputeReturns(curve(100)))
	assert.Empty(t, report.ComputeReturns(nil))
}

func TestSharpeRatio(t *testing.T) {
	assert.InDelta(t, 2.0, report.SharpeRatio([]float64{0.01, 0.03}, 0, 1), 1e-9)
	assert.InDelta(t, 1.0, report.SharpeRatio([]float64{0.01, 0.03}, 0.01, 1), 1e-9)
	assert.InDelta(t, 2.0*math.Sqrt(4), report.SharpeRatio([]float64{0.01, 0.03}, 0, 4), 1e-9)

	assert.Zero(t, report.SharpeRatio([]float64{0.05}, 0, 252), "single sample")
	assert.Zero(t, report.SharpeRatio(nil, 0, 252))
	assert.Zero(t, report.SharpeRatio([]float64{0.5, 0.5, 0.5}, 0, 252), "no dispersion")
}

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, -0.25, report.MaxDrawdown(curve(100, 120, 90, 130, 117)), 1e-12)
	assert.Zero(t, report.MaxDrawdown(curve(1, 2, 3)))
	assert.Zero(t, report.MaxDrawdown(nil))
	assert.Zero(t, report.MaxDrawdown(curve(0, -1, -2)), "no positive peak")
	assert.LessOrEqual(t, report.MaxDrawdown(curve(5, 1, 5, 0.5)), 0.0)
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "▁▂▃▄▅▆▇█", report.Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 60))
	assert.Equal(t, "▁▄█", report.Sparkline([]float64{0, 5, 10}, 60))
	assert.Equal(t, "▁▁▁", report.Sparkline([]float64{7, 7, 7}, 60))
	assert.Equal(t, "", report.Sparkline(nil, 60))

	long := make([]float64, 120)
	for i := range long {
		long[i] = float64(i)
	}
	assert.Equal(t, 60, utf8.RuneCountInString(report.Sparkline(long, 60)))
	assert.Equal(t, 119, utf8.RuneCountInString(report.Sparkline(long[:119], 60)), "stride stays 1 below twice the width")
}

func TestComputeStats(t *testing.T) {
	s := report.ComputeStats(curve(100, 120, 90, 110), 0, report.DefaultPeriodsPerYear)
	assert.Equal(t, 100.0, s.StartingEquity)
	assert.Equal(t, 110.0, s.EndingEquity)
	assert.InDelta(t, 0.1, s.TotalReturn, 1e-12)
	assert.InDelta(t, -0.25, s.MaxDrawdown, 1e-12)
	assert.NotZero(t, s.Sharpe)

	empty := report.ComputeStats(nil, 0, report.DefaultPeriodsPerYear)
	assert.True(t, math.IsNaN(empty.StartingEquity))
	assert.Zero(t, empty.TotalReturn)
}
