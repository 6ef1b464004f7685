package gateway

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"quoting-engine-go/market"
	"quoting-engine-go/order"
)

// Wire shapes for the streaming feed. Market data and order reports share
// one websocket; the envelope type tells them apart.
type wsEnvelope struct {
	Type string `json:"type"`
}

type wsBookEntry struct {
	Price *float64 `json:"price"`
	Size  *float64 `json:"size"`
}

type wsMarketData struct {
	Timestamp    int64 `json:"timestamp"`
	InstrumentID struct {
		Symbol string `json:"symbol"`
	} `json:"instrumentId"`
	MarketData *struct {
		BI []wsBookEntry `json:"BI"`
		OF []wsBookEntry `json:"OF"`
		LA *wsBookEntry  `json:"LA"`
	} `json:"marketData"`
}

type wsOrderReport struct {
	OrderReport *struct {
		ClOrdID string   `json:"clOrdId"`
		Side    string   `json:"side"`
		Price   float64  `json:"price"`
		Status  string   `json:"status"`
		LastQty *float64 `json:"lastQty"`
	} `json:"orderReport"`
}

// Event is one decoded stream message. Exactly one field is set; both nil
// means the message type is not one the engine consumes.
type Event struct {
	Snapshot *market.Snapshot
	Report   *order.Report
}

// ParseEvent decodes a raw stream message. A message of a known type with a
// missing required field is a contract violation between gateway and core
// and comes back as an error; the session treats it as fatal rather than
// absorbing it.
func ParseEvent(raw []byte) (Event, error) {
	var env wsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("malformed stream message: %w", err)
	}
	switch env.Type {
	case "Md", "md", "smd":
		snap, err := parseMarketData(raw)
		if err != nil {
			return Event{}, err
		}
		return Event{Snapshot: &snap}, nil
	case "or":
		rep, err := parseOrderReport(raw)
		if err != nil {
			return Event{}, err
		}
		return Event{Report: &rep}, nil
	default:
		return Event{}, nil
	}
}

func parseMarketData(raw []byte) (market.Snapshot, error) {
	var msg wsMarketData
	if err := json.Unmarshal(raw, &msg); err != nil {
		return market.Snapshot{}, fmt.Errorf("malformed market data: %w", err)
	}
	if msg.MarketData == nil {
		return market.Snapshot{}, fmt.Errorf("market data missing marketData body")
	}
	if msg.InstrumentID.Symbol == "" {
		return market.Snapshot{}, fmt.Errorf("market data missing instrument symbol")
	}
	snap := market.Snapshot{
		Symbol:    msg.InstrumentID.Symbol,
		Timestamp: time.UnixMilli(msg.Timestamp),
	}
	var err error
	if snap.Bid, err = topOfBook(msg.MarketData.BI, "BI"); err != nil {
		return market.Snapshot{}, err
	}
	if snap.Offer, err = topOfBook(msg.MarketData.OF, "OF"); err != nil {
		return market.Snapshot{}, err
	}
	if la := msg.MarketData.LA; la != nil && la.Price != nil {
		snap.Last = *la.Price
	}
	return snap, nil
}

// topOfBook returns the best entry of a side, or nil for an empty side.
func topOfBook(entries []wsBookEntry, name string) (*market.Quote, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	best := entries[0]
	if best.Price == nil {
		return nil, fmt.Errorf("market data %s entry missing price", name)
	}
	q := &market.Quote{Price: *best.Price}
	if best.Size != nil {
		q.Size = int64(math.Round(*best.Size))
	}
	return q, nil
}

func parseOrderReport(raw []byte) (order.Report, error) {
	var msg wsOrderReport
	if err := json.Unmarshal(raw, &msg); err != nil {
		return order.Report{}, fmt.Errorf("malformed order report: %w", err)
	}
	or := msg.OrderReport
	if or == nil {
		return order.Report{}, fmt.Errorf("order report missing orderReport body")
	}
	if or.ClOrdID == "" {
		return order.Report{}, fmt.Errorf("order report missing clOrdId")
	}
	side := order.Side(or.Side)
	if !side.Valid() {
		return order.Report{}, fmt.Errorf("order report %s: bad side %q", or.ClOrdID, or.Side)
	}
	status := order.Status(or.Status)
	if !status.Valid() {
		return order.Report{}, fmt.Errorf("order report %s: bad status %q", or.ClOrdID, or.Status)
	}
	rep := order.Report{
		ClientOrderID: or.ClOrdID,
		Side:          side,
		Price:         or.Price,
		Status:        status,
	}
	if or.LastQty != nil {
		rep.LastFillQty = int64(math.Round(*or.LastQty))
	}
	return rep, nil
}
