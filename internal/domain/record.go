package domain

import "time"

// FillRecord is the snapshot appended to the executed history on a fill.
type FillRecord struct {
	OrderID       string      `json:"order_id"`
	Timestamp     time.Time   `json:"timestamp"`
	Symbol        string      `json:"symbol"`
	Price         float64     `json:"price"`
	Quantity      int64       `json:"quantity"`
	Side          Side        `json:"side"`
	Status        OrderStatus `json:"status"`
	CashAfter     float64     `json:"cash_after"`
	PositionAfter int64       `json:"position_after"`
}

// FailureRecord is the snapshot appended to the failed history.
type FailureRecord struct {
	OrderID   string      `json:"order_id"`
	Timestamp time.Time   `json:"timestamp"`
	Symbol    string      `json:"symbol"`
	Price     float64     `json:"price"`
	Quantity  int64       `json:"quantity"`
	Side      Side        `json:"side"`
	Status    OrderStatus `json:"status"`
	Reason    string      `json:"reason"`
}
