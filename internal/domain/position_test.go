package domain

import "testing"

func TestPosition_AverageCost(t *testing.T) {
	p := &Position{Symbol: "X"}

	p.ApplyBuy(10, 100)
	p.ApplyBuy(10, 200)
	if p.Quantity != 20 || p.AvgPrice != 150 {
		t.Fatalf("after two buys got qty=%d avg=%f, want 20/150", p.Quantity, p.AvgPrice)
	}

	p.ApplySell(5)
	if p.Quantity != 15 || p.AvgPrice != 150 {
		t.Errorf("partial sell changed avg: qty=%d avg=%f", p.Quantity, p.AvgPrice)
	}

	p.ApplySell(15)
	if !p.IsFlat() || p.AvgPrice != 0 {
		t.Errorf("closing sell must reset avg: qty=%d avg=%f", p.Quantity, p.AvgPrice)
	}
	p.VerifyInvariant()
}

func TestPosition_VerifyInvariant(t *testing.T) {
	cases := map[string]Position{
		"negative qty": {Symbol: "X", Quantity: -1},
		"stale avg":    {Symbol: "X", Quantity: 0, AvgPrice: 3},
		"negative avg": {Symbol: "X", Quantity: 1, AvgPrice: -3},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("expected panic")
				}
			}()
			p.VerifyInvariant()
		})
	}
}
