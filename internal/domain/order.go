package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Side is the direction of an order.
type Side int

const (
	SideBuy Side = iota + 1
	SideSell
)

// String returns the string representation of Side
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether s is BUY or SELL.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// OrderStatus is the lifecycle state of an order.
// PARTIALLY_FILLED and REJECTED are part of the taxonomy but are never
// produced by the simulated engine.
type OrderStatus int

const (
	OrderStatusNew OrderStatus = iota
	OrderStatusFilled
	OrderStatusPartiallyFilled
	OrderStatusRejected
	OrderStatusFailed
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusNew:
		return "NEW"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case OrderStatusRejected:
		return "REJECTED"
	case OrderStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s != OrderStatusNew
}

// Order represents a trading order request.
type Order struct {
	ID       string
	Symbol   string
	Quantity int64
	Price    float64
	Side     Side
	Status   OrderStatus
}

// NewOrder creates an order in the NEW state.
func NewOrder(id, symbol string, side Side, qty int64, price float64) *Order {
	return &Order{
		ID:       id,
		Symbol:   symbol,
		Quantity: qty,
		Price:    price,
		Side:     side,
		Status:   OrderStatusNew,
	}
}

// Validate checks the order shape. It never mutates the order.
func (o *Order) Validate() error {
	if !o.Side.Valid() {
		return NewOrderError("validate", o.Symbol, fmt.Errorf("%w: %d", ErrInvalidSide, o.Side))
	}
	if o.Quantity <= 0 {
		return NewOrderError("validate", o.Symbol, fmt.Errorf("%w: %d", ErrInvalidQuantity, o.Quantity))
	}
	if !(o.Price > 0) || math.IsInf(o.Price, 1) {
		return NewOrderError("validate", o.Symbol, fmt.Errorf("%w: %s", ErrInvalidPrice, formatPrice(o.Price)))
	}
	if o.Symbol == "" {
		return NewOrderError("validate", o.Symbol, ErrEmptySymbol)
	}
	return nil
}

// Fill moves the order from NEW to FILLED.
func (o *Order) Fill() error {
	return o.transition(OrderStatusFilled)
}

// Fail moves the order from NEW to FAILED.
func (o *Order) Fail() error {
	return o.transition(OrderStatusFailed)
}

func (o *Order) transition(to OrderStatus) error {
	if o.Status.IsTerminal() || (to != OrderStatusFilled && to != OrderStatusFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	return nil
}

// Notional returns price * quantity.
func (o *Order) Notional() float64 {
	return o.Price * float64(o.Quantity)
}

func formatQty(q int64) string {
	return strconv.FormatInt(q, 10)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
