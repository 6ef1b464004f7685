package gateway

import (
	"quoting-engine-go/market"
	"quoting-engine-go/order"
)

// PrimarySession bundles REST order entry with the websocket event stream
// into one Session.
type PrimarySession struct {
	rest   *RESTClient
	stream *Stream
}

// NewPrimarySession wires an authenticated REST client to a dialed stream.
func NewPrimarySession(rest *RESTClient, stream *Stream) *PrimarySession {
	return &PrimarySession{rest: rest, stream: stream}
}

func (s *PrimarySession) SendOrder(side order.Side, price float64, size int64) (order.Entry, error) {
	return s.rest.SendOrder(side, price, size)
}

func (s *PrimarySession) CancelOrder(clientOrderID string) error {
	return s.rest.CancelOrder(clientOrderID)
}

func (s *PrimarySession) Snapshots() <-chan market.Snapshot {
	return s.stream.Snapshots()
}

func (s *PrimarySession) Reports() <-chan order.Report {
	return s.stream.Reports()
}

func (s *PrimarySession) Close() error {
	return s.stream.Close()
}
