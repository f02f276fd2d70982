package domain

import (
	"time"
)

// TickRecord is the persisted form of a MarketDataPoint.
// Time is stored as unix nanoseconds so ordering in SQL matches ordering in Go.
type TickRecord struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol    string    `gorm:"index:idx_tick_symbol_ts,priority:1;not null" json:"symbol"`
	TsNano    int64     `gorm:"index:idx_tick_symbol_ts,priority:2;index;not null" json:"ts_nano"`
	Price     float64   `gorm:"not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the table name independent of gorm's pluralizer.
func (TickRecord) TableName() string { return "ticks" }

// NewTickRecord converts a tick into its persisted form.
func NewTickRecord(p MarketDataPoint) TickRecord {
	return TickRecord{
		Symbol: p.Symbol,
		TsNano: p.Timestamp.UnixNano(),
		Price:  p.Price,
	}
}

// Point converts the record back into a tick (UTC).
func (r TickRecord) Point() MarketDataPoint {
	return MarketDataPoint{
		Timestamp: time.Unix(0, r.TsNano).UTC(),
		Symbol:    r.Symbol,
		Price:     r.Price,
	}
}

// AppConfig is a key-value setting kept alongside recorded ticks
// (e.g. which source a dataset was imported from).
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
