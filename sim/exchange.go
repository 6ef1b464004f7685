// Package sim provides an in-memory exchange for offline runs and tests.
package sim

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"quoting-engine-go/market"
	"quoting-engine-go/order"
)

// Exchange simulates the venue: it assigns client order ids, acknowledges
// submissions, honours cancel-previous semantics, and lets the caller script
// fills and rejects. Reports and snapshots are delivered on buffered
// channels; size the buffer for the scripted burst since the engine consumes
// from the same goroutine that triggers submissions.
type Exchange struct {
	mu        sync.Mutex
	seq       int
	working   map[string]order.Entry // by client order id
	bySide    map[order.Side]string
	snapshots chan market.Snapshot
	reports   chan order.Report
	log       *zap.Logger

	closeOnce sync.Once
}

// NewExchange creates an exchange with the given channel buffer.
func NewExchange(buffer int, log *zap.Logger) *Exchange {
	if buffer <= 0 {
		buffer = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Exchange{
		working:   make(map[string]order.Entry),
		bySide:    make(map[order.Side]string),
		snapshots: make(chan market.Snapshot, buffer),
		reports:   make(chan order.Report, buffer),
		log:       log,
	}
}

// SendOrder books the order, cancels any prior one on the same side, and
// emits the NEW acknowledgement.
func (x *Exchange) SendOrder(side order.Side, price float64, size int64) (order.Entry, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if prevID, ok := x.bySide[side]; ok {
		prev := x.working[prevID]
		delete(x.working, prevID)
		x.emit(order.Report{
			ClientOrderID: prev.ClientOrderID,
			Side:          prev.Side,
			Price:         prev.Price,
			Status:        order.StatusCancelled,
		})
	}

	x.seq++
	id := fmt.Sprintf("SIM-%06d", x.seq)
	e := order.Entry{
		ClientOrderID: id,
		Side:          side,
		Price:         price,
		Size:          size,
		Status:        order.StatusPendingNew,
	}
	x.working[id] = e
	x.bySide[side] = id
	x.emit(order.Report{
		ClientOrderID: id,
		Side:          side,
		Price:         price,
		Status:        order.StatusNew,
	})
	x.log.Debug("sim order booked",
		zap.String("clOrdId", id), zap.String("side", string(side)),
		zap.Float64("price", price), zap.Int64("size", size))
	return e, nil
}

// CancelOrder emits a CANCELLED report for a working order; unknown ids are
// ignored, matching the venue's tolerance for duplicate cancels.
func (x *Exchange) CancelOrder(clientOrderID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	e, ok := x.working[clientOrderID]
	if !ok {
		return nil
	}
	x.remove(e)
	x.emit(order.Report{
		ClientOrderID: e.ClientOrderID,
		Side:          e.Side,
		Price:         e.Price,
		Status:        order.StatusCancelled,
	})
	return nil
}

// Fill executes qty against a working order and emits the corresponding
// PARTIALLY_FILLED or FILLED report.
func (x *Exchange) Fill(clientOrderID string, qty int64) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	e, ok := x.working[clientOrderID]
	if !ok {
		return fmt.Errorf("sim: no working order %s", clientOrderID)
	}
	if qty <= 0 || e.FilledQty+qty > e.Size {
		return fmt.Errorf("sim: bad fill qty %d for order %s", qty, clientOrderID)
	}
	e.FilledQty += qty
	status := order.StatusPartial
	if e.FilledQty == e.Size {
		status = order.StatusFilled
		x.remove(e)
	} else {
		e.Status = order.StatusPartial
		x.working[clientOrderID] = e
	}
	x.emit(order.Report{
		ClientOrderID: e.ClientOrderID,
		Side:          e.Side,
		Price:         e.Price,
		Status:        status,
		LastFillQty:   qty,
	})
	return nil
}

// FillSide fully fills whatever is working on the given side.
func (x *Exchange) FillSide(side order.Side) error {
	x.mu.Lock()
	id, ok := x.bySide[side]
	var remaining int64
	if ok {
		e := x.working[id]
		remaining = e.Size - e.FilledQty
	}
	x.mu.Unlock()
	if !ok {
		return fmt.Errorf("sim: nothing working on %s", side)
	}
	return x.Fill(id, remaining)
}

// Reject emits a REJECTED report for a working order.
func (x *Exchange) Reject(clientOrderID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	e, ok := x.working[clientOrderID]
	if !ok {
		return fmt.Errorf("sim: no working order %s", clientOrderID)
	}
	x.remove(e)
	x.emit(order.Report{
		ClientOrderID: e.ClientOrderID,
		Side:          e.Side,
		Price:         e.Price,
		Status:        order.StatusRejected,
	})
	return nil
}

// PublishSnapshot delivers a market snapshot to the engine.
func (x *Exchange) PublishSnapshot(snap market.Snapshot) {
	x.snapshots <- snap
}

// Working returns the order currently resting on the side.
func (x *Exchange) Working(side order.Side) (order.Entry, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	id, ok := x.bySide[side]
	if !ok {
		return order.Entry{}, false
	}
	return x.working[id], true
}

func (x *Exchange) Snapshots() <-chan market.Snapshot {
	return x.snapshots
}

func (x *Exchange) Reports() <-chan order.Report {
	return x.reports
}

// Close ends both streams; the engine drains and exits.
func (x *Exchange) Close() error {
	x.closeOnce.Do(func() {
		close(x.snapshots)
		close(x.reports)
	})
	return nil
}

// emit must be called with the lock held.
func (x *Exchange) emit(r order.Report) {
	x.reports <- r
}

// remove must be called with the lock held.
func (x *Exchange) remove(e order.Entry) {
	delete(x.working, e.ClientOrderID)
	if x.bySide[e.Side] == e.ClientOrderID {
		delete(x.bySide, e.Side)
	}
}
