// Package feed loads finite, time-ordered tick sequences for the backtest loop.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"backtest_go/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Source produces a finite tick sequence sorted ascending by timestamp.
// Loading twice yields the same sequence for file and store sources.
type Source interface {
	Load(ctx context.Context) ([]domain.MarketDataPoint, error)
}

// CSVSource reads ticks from a CSV file.
type CSVSource struct {
	Path string
}

func (s CSVSource) Load(ctx context.Context) ([]domain.MarketDataPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadCSV(s.Path)
}

// StoreSource replays ticks previously saved to a TickRepository.
type StoreSource struct {
	Store   domain.TickRepository
	Symbols []string // empty: all symbols
}

func (s StoreSource) Load(ctx context.Context) ([]domain.MarketDataPoint, error) {
	ticks, err := s.Store.LoadTicks(ctx, s.Symbols...)
	if err != nil {
		return nil, fmt.Errorf("store source: %w", err)
	}
	return ticks, nil
}

const (
	wsHandshakeTimeout = 10 * time.Second
	wsReadTimeout      = 60 * time.Second
)

// WSSource records ticks from a WebSocket stream until MaxTicks have arrived,
// the server closes, or the context ends. Each text message is one JSON tick:
//
//	{"timestamp": "2025-09-21T12:00:00Z" | 1758456000000, "symbol": "X", "price": "101.5" | 101.5}
//
// The recording is returned sorted so it can be replayed like any other feed.
type WSSource struct {
	URL      string
	MaxTicks int
	Symbols  []string // sent as a subscribe message when non-empty
	Header   http.Header
}

type wsSubscribe struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

func (s WSSource) Load(ctx context.Context) ([]domain.MarketDataPoint, error) {
	if s.MaxTicks <= 0 {
		return nil, errors.New("ws source: MaxTicks must be positive")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: wsHandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, s.URL, s.Header)
	if err != nil {
		return nil, fmt.Errorf("ws source: dial failed: %w", err)
	}
	defer conn.Close()

	if len(s.Symbols) > 0 {
		if err := conn.WriteJSON(wsSubscribe{Type: "subscribe", Symbols: s.Symbols}); err != nil {
			return nil, fmt.Errorf("ws source: subscribe failed: %w", err)
		}
	}

	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	slog.Info("Recording ticks", slog.String("url", s.URL), slog.Int("max_ticks", s.MaxTicks))

	ticks := make([]domain.MarketDataPoint, 0, s.MaxTicks)
	for len(ticks) < s.MaxTicks {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				SortTicks(ticks)
				return ticks, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			return nil, fmt.Errorf("ws source: read failed after %d ticks: %w", len(ticks), err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		tick, err := DecodeTick(data)
		if err != nil {
			slog.Warn("Skipping malformed tick", slog.Any("error", err))
			continue
		}
		ticks = append(ticks, tick)
	}

	// Best effort close handshake
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))

	SortTicks(ticks)
	slog.Info("Recording finished", slog.Int("ticks", len(ticks)))
	return ticks, nil
}

// DecodeTick parses one JSON tick message.
func DecodeTick(data []byte) (domain.MarketDataPoint, error) {
	if !gjson.ValidBytes(data) {
		return domain.MarketDataPoint{}, errors.New("invalid json")
	}
	res := gjson.GetManyBytes(data, "timestamp", "symbol", "price")
	tsRes, symRes, pxRes := res[0], res[1], res[2]

	var ts time.Time
	switch tsRes.Type {
	case gjson.Number:
		ts = time.UnixMilli(tsRes.Int()).UTC()
	case gjson.String:
		parsed, err := ParseTimestamp(tsRes.Str)
		if err != nil {
			return domain.MarketDataPoint{}, err
		}
		ts = parsed
	default:
		return domain.MarketDataPoint{}, errors.New("missing timestamp")
	}

	if symRes.Type != gjson.String || symRes.Str == "" {
		return domain.MarketDataPoint{}, domain.ErrEmptySymbol
	}

	var raw string
	switch pxRes.Type {
	case gjson.Number:
		raw = pxRes.Raw
	case gjson.String:
		raw = pxRes.Str
	default:
		return domain.MarketDataPoint{}, errors.New("missing price")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.MarketDataPoint{}, fmt.Errorf("invalid price %q: %w", raw, err)
	}

	return domain.MarketDataPoint{
		Timestamp: ts,
		Symbol:    symRes.Str,
		Price:     price.InexactFloat64(),
	}, nil
}
