package strategy

// State is the quoting cycle phase. Exactly one value holds at any time and
// only the quoter mutates it.
type State int

const (
	// StateAwaitingMarketData accepts and processes snapshots.
	StateAwaitingMarketData State = iota
	// StateAwaitingOrderConfirm waits for reports on submitted orders.
	StateAwaitingOrderConfirm
	// StateAwaitingCancelConfirm waits for the ledger to drain after a
	// cancel-all.
	StateAwaitingCancelConfirm
)

func (s State) String() string {
	switch s {
	case StateAwaitingMarketData:
		return "AWAITING_MARKET_DATA"
	case StateAwaitingOrderConfirm:
		return "AWAITING_ORDER_CONFIRM"
	case StateAwaitingCancelConfirm:
		return "AWAITING_CANCEL_CONFIRM"
	default:
		return "UNKNOWN"
	}
}
