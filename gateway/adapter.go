package gateway

import (
	"quoting-engine-go/market"
	"quoting-engine-go/order"
)

// OrderGateway submits and cancels orders at the exchange. SendOrder returns
// the gateway-assigned client order id with status PENDING_NEW; later
// statuses arrive on the report stream. Cancellation failures are delivered
// as CANCELLED or REJECTED reports, not as synchronous errors.
type OrderGateway interface {
	SendOrder(side order.Side, price float64, size int64) (order.Entry, error)
	CancelOrder(clientOrderID string) error
}

// Session is a full exchange connection: order entry plus both event
// streams. The engine owns consumption of the channels.
type Session interface {
	OrderGateway
	Snapshots() <-chan market.Snapshot
	Reports() <-chan order.Report
	Close() error
}
