package strategy_test

import (
	"testing"

	"backtest_go/internal/strategy"
)

func TestMeanReversionStrategy_ZeroVariance(t *testing.T) {
	strat, err := strategy.NewMeanReversionStrategy("X", 4, 0, 1)
	if err != nil {
		t.Fatalf("NewMeanReversionStrategy: %v", err)
	}

	for i := 0; i < 10; i++ {
		if signals := strat.GenerateSignals(tick("X", 10)); len(signals) != 0 {
			t.Fatalf("tick %d: zero variance must never signal, got %v", i+1, signals)
		}
	}
}

func TestMeanReversionStrategy_ConstantFractionalWindow(t *testing.T) {
	strat, _ := strategy.NewMeanReversionStrategy("X", 3, 0, 1)
	for i := 0; i < 6; i++ {
		if signals := strat.GenerateSignals(tick("X", 0.1)); len(signals) != 0 {
			t.Fatalf("tick %d: constant window must never signal, got %v", i+1, signals)
		}
	}
}

func TestMeanReversionStrategy_Signals(t *testing.T) {
	t.Run("spike above mean sells", func(t *testing.T) {
		// [10, 10, 10, 20]: mean 12.5, pstdev 4.33, z(20) = 1.73
		strat, _ := strategy.NewMeanReversionStrategy("X", 4, 1.5, 3)
		for _, p := range []float64{10, 10, 10} {
			if signals := strat.GenerateSignals(tick("X", p)); len(signals) != 0 {
				t.Fatalf("window not full yet, got %v", signals)
			}
		}
		signals := strat.GenerateSignals(tick("X", 20))
		if len(signals) != 1 || signals[0].Action != strategy.ActionSell {
			t.Fatalf("expected SELL, got %v", signals)
		}
		if signals[0].Quantity != 3 || signals[0].Price != 20 {
			t.Errorf("unexpected signal %+v", signals[0])
		}
	})

	t.Run("drop below mean buys", func(t *testing.T) {
		strat, _ := strategy.NewMeanReversionStrategy("X", 4, 1.5, 1)
		var signals []strategy.Signal
		for _, p := range []float64{20, 20, 20, 10} {
			signals = strat.GenerateSignals(tick("X", p))
		}
		if len(signals) != 1 || signals[0].Action != strategy.ActionBuy {
			t.Fatalf("expected BUY, got %v", signals)
		}
	})

	t.Run("z below entry is ignored", func(t *testing.T) {
		strat, _ := strategy.NewMeanReversionStrategy("X", 4, 2, 1)
		var signals []strategy.Signal
		for _, p := range []float64{10, 10, 10, 20} {
			signals = strat.GenerateSignals(tick("X", p))
		}
		if len(signals) != 0 {
			t.Fatalf("z=1.73 < 2 should not signal, got %v", signals)
		}
	})

	t.Run("window rolls", func(t *testing.T) {
		// After [10,10,10,20] the next tick 20 sees [10,10,20,20]: mean 15, pstdev 5, z = 1.
		strat, _ := strategy.NewMeanReversionStrategy("X", 4, 0.5, 1)
		for _, p := range []float64{10, 10, 10, 20} {
			strat.GenerateSignals(tick("X", p))
		}
		signals := strat.GenerateSignals(tick("X", 20))
		if len(signals) != 1 || signals[0].Action != strategy.ActionSell {
			t.Fatalf("expected SELL on rolled window, got %v", signals)
		}
	})
}

func TestMeanReversionStrategy_ZAtThreshold(t *testing.T) {
	// window 2: [1, 3] has mean 2, pstdev 1, z(3) = 1; rolling to [3, 1] gives z(1) = -1.
	t.Run("z equal to entry does not signal", func(t *testing.T) {
		strat, _ := strategy.NewMeanReversionStrategy("X", 2, 1, 1)
		for i, p := range []float64{1, 3, 1} {
			if signals := strat.GenerateSignals(tick("X", p)); len(signals) != 0 {
				t.Fatalf("tick %d: |z| == z_entry must not signal, got %v", i+1, signals)
			}
		}
	})

	t.Run("entry just below z signals", func(t *testing.T) {
		strat, _ := strategy.NewMeanReversionStrategy("X", 2, 0.99, 1)
		strat.GenerateSignals(tick("X", 1))
		signals := strat.GenerateSignals(tick("X", 3))
		if len(signals) != 1 || signals[0].Action != strategy.ActionSell {
			t.Fatalf("expected SELL, got %v", signals)
		}
		signals = strat.GenerateSignals(tick("X", 1))
		if len(signals) != 1 || signals[0].Action != strategy.ActionBuy {
			t.Fatalf("expected BUY, got %v", signals)
		}
	})
}

func TestMeanReversionStrategy_IgnoresOtherSymbols(t *testing.T) {
	strat, _ := strategy.NewMeanReversionStrategy("X", 2, 0, 1)
	strat.GenerateSignals(tick("X", 10))
	if signals := strat.GenerateSignals(tick("Y", 1000)); signals != nil {
		t.Errorf("expected nil for untracked symbol, got %v", signals)
	}
}

func TestMeanReversionStrategy_InvalidParams(t *testing.T) {
	if _, err := strategy.NewMeanReversionStrategy("X", 0, 1, 1); err == nil {
		t.Error("expected error for zero window")
	}
	if _, err := strategy.NewMeanReversionStrategy("X", 3, -1, 1); err == nil {
		t.Error("expected error for negative z_entry")
	}
}
