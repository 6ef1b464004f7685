package market

import (
	"math"
	"testing"
	"time"
)

func sample(spread float64) SpreadSample {
	return SpreadSample{Timestamp: time.Now(), Bid: 100, Offer: 100 + spread, Spread: spread}
}

func TestSpreadWindowFallbackDuringWarmup(t *testing.T) {
	w := NewSpreadWindow(32)
	for i := 0; i < 5; i++ {
		w.Observe(sample(0.20))
		if got := w.Threshold(0.05); got != 0.05 {
			t.Fatalf("after %d samples Threshold = %v, want fallback 0.05", i+1, got)
		}
	}
}

func TestSpreadWindowAdaptiveThreshold(t *testing.T) {
	w := NewSpreadWindow(32)
	spreads := []float64{0.10, 0.10, 0.10, 0.10, 0.06, 0.04}
	for _, s := range spreads {
		w.Observe(sample(s))
	}
	// Six samples: mean of the last two (0.06, 0.04) regardless of fallback.
	if got := w.Threshold(0.50); math.Abs(got-0.05) > 1e-9 {
		t.Fatalf("Threshold = %v, want 0.05", got)
	}
	if got := w.Threshold(0.001); math.Abs(got-0.05) > 1e-9 {
		t.Fatalf("Threshold = %v, want 0.05", got)
	}
}

func TestSpreadWindowEvictsOldest(t *testing.T) {
	w := NewSpreadWindow(8)
	for i := 0; i < 20; i++ {
		w.Observe(sample(float64(i)))
	}
	if w.Len() != 8 {
		t.Fatalf("Len = %d, want capacity 8", w.Len())
	}
	// Last two observed spreads are 18 and 19.
	if got := w.Threshold(0); got != 18.5 {
		t.Fatalf("Threshold = %v, want 18.5", got)
	}
}
