package market

import "time"

// SpreadSample is one observed two-sided quote.
type SpreadSample struct {
	Timestamp time.Time
	Bid       float64
	Offer     float64
	Spread    float64
}

const (
	// The estimator stays on the static fallback until the history holds
	// more than this many samples.
	warmupSamples = 5
	// Rolling mean span once the estimator is warm.
	rollingSpan = 2
)

// SpreadWindow keeps a bounded history of observed bid/offer spreads and
// derives an adaptive minimum-spread threshold from the most recent ones.
type SpreadWindow struct {
	capacity int
	samples  []SpreadSample
}

// NewSpreadWindow creates a window holding at most capacity samples.
func NewSpreadWindow(capacity int) *SpreadWindow {
	if capacity <= warmupSamples {
		capacity = 32
	}
	return &SpreadWindow{
		capacity: capacity,
		samples:  make([]SpreadSample, 0, capacity),
	}
}

// Observe appends a sample, evicting the oldest on overflow.
func (w *SpreadWindow) Observe(s SpreadSample) {
	w.samples = append(w.samples, s)
	if len(w.samples) > w.capacity {
		w.samples = w.samples[1:]
	}
}

// Threshold returns the mean spread of the most recent samples once the
// window is past warmup, otherwise the static fallback.
func (w *SpreadWindow) Threshold(fallback float64) float64 {
	if len(w.samples) <= warmupSamples {
		return fallback
	}
	sum := 0.0
	for _, s := range w.samples[len(w.samples)-rollingSpan:] {
		sum += s.Spread
	}
	return sum / rollingSpan
}

// Len returns the number of samples currently held.
func (w *SpreadWindow) Len() int {
	return len(w.samples)
}
