package strategy

import "math"

// priceWindow is a fixed-capacity ring buffer of the most recent prices.
// Once full, each push overwrites the oldest value.
type priceWindow struct {
	prices []float64
	head   int // next write position; the oldest value when full
	count  int
}

func newPriceWindow(size int) *priceWindow {
	return &priceWindow{prices: make([]float64, size)}
}

func (w *priceWindow) push(price float64) {
	w.prices[w.head] = price
	w.head = (w.head + 1) % len(w.prices)
	if w.count < len(w.prices) {
		w.count++
	}
}

func (w *priceWindow) len() int {
	return w.count
}

func (w *priceWindow) full() bool {
	return w.count == len(w.prices)
}

// at returns the i-th value in chronological order (0 = oldest retained).
func (w *priceWindow) at(i int) float64 {
	start := 0
	if w.full() {
		start = w.head
	}
	return w.prices[(start+i)%len(w.prices)]
}

func (w *priceWindow) oldest() float64 {
	return w.at(0)
}

// mean of the last n values.
func (w *priceWindow) mean(n int) float64 {
	var sum float64
	for i := w.count - n; i < w.count; i++ {
		sum += w.at(i)
	}
	return sum / float64(n)
}

// pstdev is the population standard deviation of all retained values.
func (w *priceWindow) pstdev(mu float64) float64 {
	var ss float64
	for i := 0; i < w.count; i++ {
		d := w.at(i) - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(w.count))
}
