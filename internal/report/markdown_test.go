package report_test

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"backtest_go/internal/domain"
	"backtest_go/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	curve    []domain.EquityPoint
	fills    []domain.FillRecord
	failures []domain.FailureRecord
}

func (f fakeHistory) PortfolioValues() []domain.EquityPoint { return f.curve }
func (f fakeHistory) ExecutedHistory() []domain.FillRecord  { return f.fills }
func (f fakeHistory) FailedHistory() []domain.FailureRecord { return f.failures }

func fills(n int) []domain.FillRecord {
	out := make([]domain.FillRecord, n)
	for i := range out {
		out[i] = domain.FillRecord{
			OrderID:       "o-" + string(rune('a'+i)),
			Timestamp:     t0.Add(time.Duration(i) * time.Second),
			Symbol:        "X",
			Price:         101.5,
			Quantity:      1,
			Side:          domain.SideBuy,
			Status:        domain.OrderStatusFilled,
			CashAfter:     898,
			PositionAfter: int64(i + 1),
		}
	}
	return out
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	h := fakeHistory{
		curve:    curve(100000, 100000, 100000, 99998, 99998),
		fills:    fills(7),
		failures: []domain.FailureRecord{{OrderID: "f-1", Reason: "Simulated failure"}},
	}

	path, err := report.Generate(dir, h, report.Options{ChartWidth: 320, ChartHeight: 200})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, report.MarkdownFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	md := string(data)

	assert.True(t, strings.HasPrefix(md, "# Performance Report\n"))
	assert.Contains(t, md, "| Starting Equity | 100000.00 |")
	assert.Contains(t, md, "| Ending Equity | 99998.00 |")
	assert.Contains(t, md, "| Total Return | 0.00% |")
	assert.Contains(t, md, "| Max Drawdown | 0.00% |")
	assert.Contains(t, md, "![Equity](equity.png)")
	assert.Contains(t, md, "███▁▁")
	assert.Contains(t, md, "- Executed orders: 7")
	assert.Contains(t, md, "- Failed orders: 1")
	assert.Contains(t, md, "BUY 1 X @ 101.50 cash=898.00 position=1 id=o-a")
	assert.Contains(t, md, "id=o-e")
	assert.NotContains(t, md, "id=o-f", "only the first five executions are listed")

	f, err := os.Open(filepath.Join(dir, report.ChartFile))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestGenerate_EmptyRun(t *testing.T) {
	dir := t.TempDir()
	path, err := report.Generate(dir, fakeHistory{}, report.Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "| Starting Equity | n/a |")
	assert.Contains(t, string(data), "| Total Return | 0.00% |")
	assert.Contains(t, string(data), "_No equity points recorded._")

	_, err = os.Stat(filepath.Join(dir, report.ChartFile))
	assert.True(t, os.IsNotExist(err))
}

func TestMarkdown_Percentages(t *testing.T) {
	md := report.Markdown(report.Stats{
		StartingEquity: 1000,
		EndingEquity:   1234.567,
		TotalReturn:    0.234567,
		Sharpe:         1.23456,
		MaxDrawdown:    -0.0512,
	}, nil, nil, nil, false, 60)

	assert.Contains(t, md, "| Ending Equity | 1234.57 |")
	assert.Contains(t, md, "| Total Return | 23.46% |")
	assert.Contains(t, md, "| Sharpe (per-tick scaled) | 1.23 |")
	assert.Contains(t, md, "| Max Drawdown | -5.12% |")
}

func TestEquityImage(t *testing.T) {
	img, err := report.EquityImage(curve(1, 3, 2), 200, 100)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	_, err = report.EquityImage(curve(5), 200, 100)
	assert.NoError(t, err, "single point renders")

	_, err = report.EquityImage(nil, 200, 100)
	assert.ErrorIs(t, err, report.ErrEmptyCurve)

	_, err = report.EquityImage(curve(1, 2), 10, 10)
	assert.Error(t, err)
}
