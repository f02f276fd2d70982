// Package report turns a finished run into performance statistics,
// an equity chart and a markdown summary.
package report

import (
	"math"
	"strings"

	"backtest_go/internal/domain"
)

// DefaultPeriodsPerYear annualizes per-tick returns as 78 five-minute bars over 252 sessions.
const DefaultPeriodsPerYear = 252 * 78

const sparkBlocks = "▁▂▃▄▅▆▇█"

// ComputeReturns returns the simple return between consecutive equity points.
// A non-positive previous value yields 0.
func ComputeReturns(curve []domain.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev, curr := curve[i-1].Value, curve[i].Value
		if prev > 0 {
			rets = append(rets, (curr-prev)/prev)
		} else {
			rets = append(rets, 0)
		}
	}
	return rets
}

// SharpeRatio annualizes mean excess return over population standard deviation.
// Returns 0 with fewer than two samples or zero dispersion.
func SharpeRatio(returns []float64, riskFree, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(returns)))
	if sd == 0 {
		return 0
	}
	return (mean - riskFree/periodsPerYear) / sd * math.Sqrt(periodsPerYear)
}

// MaxDrawdown returns the worst peak-to-trough decline as a non-positive fraction.
func MaxDrawdown(curve []domain.EquityPoint) float64 {
	peak := math.Inf(-1)
	var mdd float64
	for _, p := range curve {
		peak = math.Max(peak, p.Value)
		if peak > 0 {
			mdd = math.Min(mdd, (p.Value-peak)/peak)
		}
	}
	return mdd
}

// Sparkline renders values as block glyphs, sampling every len/width-th value.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}
	if width <= 0 {
		width = 60
	}
	stride := max(1, len(values)/width)

	var sampled []float64
	for i := 0; i < len(values); i += stride {
		sampled = append(sampled, values[i])
	}
	lo, hi := sampled[0], sampled[0]
	for _, v := range sampled {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	blocks := []rune(sparkBlocks)
	var sb strings.Builder
	for _, v := range sampled {
		idx := 0
		if hi != lo {
			idx = int((v - lo) / (hi - lo) * float64(len(blocks)-1))
		}
		sb.WriteRune(blocks[idx])
	}
	return sb.String()
}

// Values extracts the value column of an equity curve.
func Values(curve []domain.EquityPoint) []float64 {
	out := make([]float64, len(curve))
	for i, p := range curve {
		out[i] = p.Value
	}
	return out
}

// Stats summarizes an equity curve.
type Stats struct {
	StartingEquity float64
	EndingEquity   float64
	TotalReturn    float64
	Sharpe         float64
	MaxDrawdown    float64
}

// ComputeStats derives Stats from a curve. An empty curve yields NaN equities and zero ratios.
func ComputeStats(curve []domain.EquityPoint, riskFree, periodsPerYear float64) Stats {
	if len(curve) == 0 {
		return Stats{StartingEquity: math.NaN(), EndingEquity: math.NaN()}
	}
	s := Stats{
		StartingEquity: curve[0].Value,
		EndingEquity:   curve[len(curve)-1].Value,
		Sharpe:         SharpeRatio(ComputeReturns(curve), riskFree, periodsPerYear),
		MaxDrawdown:    MaxDrawdown(curve),
	}
	s.TotalReturn = s.EndingEquity/s.StartingEquity - 1
	return s
}
