package order

// Side of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Status mirrors the exchange order lifecycle.
type Status string

const (
	StatusPendingNew Status = "PENDING_NEW"
	StatusNew        Status = "NEW"
	StatusPartial    Status = "PARTIALLY_FILLED"
	StatusFilled     Status = "FILLED"
	StatusCancelled  Status = "CANCELLED"
	StatusRejected   Status = "REJECTED"
)

// Terminal reports whether the status ends the order's life at the exchange.
func (s Status) Terminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingNew, StatusNew, StatusPartial, StatusFilled, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// Entry is the engine's record of one working order.
type Entry struct {
	ClientOrderID string
	Side          Side
	Price         float64
	Size          int64
	Status        Status
	FilledQty     int64
}

// Report is one execution report delivered by the gateway.
type Report struct {
	ClientOrderID string
	Side          Side
	Price         float64
	Status        Status
	LastFillQty   int64
}
