package market

import "time"

// Quote is one side of the top of book.
type Quote struct {
	Price float64
	Size  int64
}

// Snapshot is a top-of-book view delivered by the gateway, one per tick.
// Bid/Offer are nil when the corresponding side of the book is empty.
type Snapshot struct {
	Symbol    string
	Timestamp time.Time
	Bid       *Quote
	Offer     *Quote
	Last      float64
}

// TwoSided reports whether both sides of the book are present.
func (s Snapshot) TwoSided() bool {
	return s.Bid != nil && s.Offer != nil
}

// Spread returns offer minus bid, or 0 when either side is missing.
func (s Snapshot) Spread() float64 {
	if !s.TwoSided() {
		return 0
	}
	return s.Offer.Price - s.Bid.Price
}
