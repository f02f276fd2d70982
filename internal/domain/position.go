package domain

import "fmt"

// Position represents a long-only holding in one symbol.
// AvgPrice is only meaningful while Quantity > 0.
type Position struct {
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

// IsFlat reports whether nothing is held.
func (p *Position) IsFlat() bool {
	return p.Quantity == 0
}

// ApplyBuy adds qty at price and recomputes the quantity-weighted average cost.
func (p *Position) ApplyBuy(qty int64, price float64) {
	totalCost := p.AvgPrice*float64(p.Quantity) + price*float64(qty)
	newQty := p.Quantity + qty
	p.Quantity = newQty
	if newQty > 0 {
		p.AvgPrice = totalCost / float64(newQty)
	} else {
		p.AvgPrice = 0
	}
}

// ApplySell removes qty. The average cost is untouched unless the position closes.
// Callers must check qty <= Quantity first.
func (p *Position) ApplySell(qty int64) {
	p.Quantity -= qty
	if p.IsFlat() {
		p.AvgPrice = 0
	}
}

// VerifyInvariant panics if the position is in an impossible state.
func (p *Position) VerifyInvariant() {
	if p.Quantity < 0 {
		panic(fmt.Sprintf("POSITION_INVARIANT_NEGATIVE_QTY: %s = %d", p.Symbol, p.Quantity))
	}
	if p.AvgPrice < 0 {
		panic(fmt.Sprintf("POSITION_INVARIANT_NEGATIVE_AVG: %s = %f", p.Symbol, p.AvgPrice))
	}
	if p.Quantity == 0 && p.AvgPrice != 0 {
		panic(fmt.Sprintf("POSITION_INVARIANT_STALE_AVG: %s avg=%f with zero quantity", p.Symbol, p.AvgPrice))
	}
}
