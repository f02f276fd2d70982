package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// OrderError reports an order that cannot be executed as requested:
// bad shape (side, quantity, price) or a position constraint (overselling).
// It is always returned before any engine state is touched.
type OrderError struct {
	Op     string // "validate", "execute"
	Symbol string
	Err    error
}

func (e *OrderError) Error() string {
	if e.Symbol == "" {
		return "order " + e.Op + ": " + e.Err.Error()
	}
	return "order " + e.Op + " [" + e.Symbol + "]: " + e.Err.Error()
}

// IsRetriable is false: the same order will be rejected again.
func (e *OrderError) IsRetriable() bool {
	return false
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates an OrderError for the given operation.
func NewOrderError(op, symbol string, err error) *OrderError {
	return &OrderError{Op: op, Symbol: symbol, Err: err}
}

// ExecutionError reports a simulated fill failure. Unlike OrderError it is
// returned after the order status was set and a failure record appended.
type ExecutionError struct {
	OrderID string
	Symbol  string
	Side    Side
	Qty     int64
	Price   float64
	Err     error
}

func (e *ExecutionError) Error() string {
	return "execution failed for " + e.Side.String() + " " + formatQty(e.Qty) + " " + e.Symbol +
		" @ " + formatPrice(e.Price) + ": " + e.Err.Error()
}

// IsRetriable is true: a resubmitted order draws a fresh outcome.
func (e *ExecutionError) IsRetriable() bool {
	return true
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsOrderError reports whether err is (or wraps) an OrderError.
func IsOrderError(err error) bool {
	var oe *OrderError
	return errors.As(err, &oe)
}

// IsExecutionError reports whether err is (or wraps) an ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrInvalidSide is returned when an order side is neither BUY nor SELL.
	ErrInvalidSide = errors.New("invalid side")

	// ErrInvalidQuantity is returned when an order quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidPrice is returned when an order price is not positive.
	ErrInvalidPrice = errors.New("price must be positive")

	// ErrEmptySymbol is returned when an order has no symbol.
	ErrEmptySymbol = errors.New("symbol is empty")

	// ErrInsufficientPosition is returned when a SELL exceeds the held quantity.
	ErrInsufficientPosition = errors.New("insufficient position")

	// ErrPositionOverflow means a BUY would push the held quantity past int64.
	ErrPositionOverflow = errors.New("position quantity overflow")

	// ErrSimulatedFailure is the cause carried by every ExecutionError.
	ErrSimulatedFailure = errors.New("simulated failure")

	// ErrInvalidTransition is returned when an order status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
