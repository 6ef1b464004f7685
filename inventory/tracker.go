package inventory

import "sync"

// Tracker keeps the remaining quotable size per side. Both counters start at
// the configured initial size and re-arm back to it only in the step where
// both reach zero together, starting a new inventory cycle.
type Tracker struct {
	mu      sync.RWMutex
	initial int64
	buy     int64
	sell    int64
}

// NewTracker creates a tracker with both sides armed at initial.
func NewTracker(initial int64) *Tracker {
	if initial < 0 {
		initial = 0
	}
	return &Tracker{initial: initial, buy: initial, sell: initial}
}

// ApplyFill subtracts qty from the given side's remaining size, clamped at
// zero. It returns true when this application re-armed both counters.
func (t *Tracker) ApplyFill(buy bool, qty int64) bool {
	if qty <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if buy {
		t.buy -= qty
		if t.buy < 0 {
			t.buy = 0
		}
	} else {
		t.sell -= qty
		if t.sell < 0 {
			t.sell = 0
		}
	}
	if t.buy == 0 && t.sell == 0 && t.initial > 0 {
		t.buy = t.initial
		t.sell = t.initial
		return true
	}
	return false
}

// Remaining returns the side's remaining size.
func (t *Tracker) Remaining(buy bool) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if buy {
		return t.buy
	}
	return t.sell
}

func (t *Tracker) BuyRemaining() int64 { return t.Remaining(true) }

func (t *Tracker) SellRemaining() int64 { return t.Remaining(false) }

// Initial returns the configured cycle size.
func (t *Tracker) Initial() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.initial
}
