package domain

import (
	"errors"
	"math"
	"testing"
)

func TestOrder_Validate(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  error
	}{
		{"valid buy", Order{Symbol: "X", Side: SideBuy, Quantity: 1, Price: 10}, nil},
		{"valid sell", Order{Symbol: "X", Side: SideSell, Quantity: 5, Price: 0.01}, nil},
		{"zero side", Order{Symbol: "X", Quantity: 1, Price: 10}, ErrInvalidSide},
		{"unknown side", Order{Symbol: "X", Side: Side(7), Quantity: 1, Price: 10}, ErrInvalidSide},
		{"zero quantity", Order{Symbol: "X", Side: SideBuy, Price: 10}, ErrInvalidQuantity},
		{"negative quantity", Order{Symbol: "X", Side: SideBuy, Quantity: -2, Price: 10}, ErrInvalidQuantity},
		{"zero price", Order{Symbol: "X", Side: SideBuy, Quantity: 1}, ErrInvalidPrice},
		{"negative price", Order{Symbol: "X", Side: SideSell, Quantity: 1, Price: -1}, ErrInvalidPrice},
		{"NaN price", Order{Symbol: "X", Side: SideSell, Quantity: 1, Price: math.NaN()}, ErrInvalidPrice},
		{"infinite price", Order{Symbol: "X", Side: SideBuy, Quantity: 1, Price: math.Inf(1)}, ErrInvalidPrice},
		{"negative infinite price", Order{Symbol: "X", Side: SideSell, Quantity: 1, Price: math.Inf(-1)}, ErrInvalidPrice},
		{"empty symbol", Order{Side: SideBuy, Quantity: 1, Price: 1}, ErrEmptySymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.order
			err := tt.order.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
			if !IsOrderError(err) {
				t.Errorf("expected OrderError, got %T", err)
			}
			if tt.order.Status != before.Status {
				t.Error("Validate must not mutate status")
			}
		})
	}
}

func TestOrder_StatusTransitions(t *testing.T) {
	t.Run("NEW to FILLED", func(t *testing.T) {
		o := NewOrder("1", "X", SideBuy, 1, 1)
		if err := o.Fill(); err != nil {
			t.Fatalf("Fill() = %v", err)
		}
		if o.Status != OrderStatusFilled {
			t.Errorf("status = %s, want FILLED", o.Status)
		}
		if err := o.Fail(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("second transition = %v, want ErrInvalidTransition", err)
		}
		if o.Status != OrderStatusFilled {
			t.Error("terminal status must not change")
		}
	})

	t.Run("NEW to FAILED", func(t *testing.T) {
		o := NewOrder("2", "X", SideSell, 1, 1)
		if err := o.Fail(); err != nil {
			t.Fatalf("Fail() = %v", err)
		}
		if !o.Status.IsTerminal() {
			t.Error("FAILED should be terminal")
		}
		if err := o.Fill(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Fill after Fail = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("reserved statuses are not reachable", func(t *testing.T) {
		o := NewOrder("3", "X", SideBuy, 1, 1)
		if err := o.transition(OrderStatusPartiallyFilled); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("transition to PARTIALLY_FILLED = %v", err)
		}
		if err := o.transition(OrderStatusRejected); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("transition to REJECTED = %v", err)
		}
		if o.Status != OrderStatusNew {
			t.Errorf("status = %s, want NEW", o.Status)
		}
	})
}

func TestSide_String(t *testing.T) {
	if SideBuy.String() != "BUY" || SideSell.String() != "SELL" {
		t.Errorf("sides print as %s/%s", SideBuy, SideSell)
	}
	if Side(0).Valid() {
		t.Error("zero side must be invalid")
	}
	if Side(0).String() != "UNKNOWN" {
		t.Error("zero side should print UNKNOWN")
	}
}
