package order

import "quoting-engine-go/inventory"

// Effect describes what applying one report changed.
type Effect struct {
	Applied bool  // report matched a tracked order
	Removed bool  // the entry left the ledger (terminal status)
	FillQty int64 // quantity filled by this report
	Rearmed bool  // both inventory counters re-armed in this step
}

// Ledger is the authoritative record of outstanding orders: at most one
// working order per side, plus fill accounting against the inventory
// tracker. It is mutated only from the engine's event goroutine, so it
// carries no lock of its own.
type Ledger struct {
	entries map[Side]Entry
	inv     *inventory.Tracker
}

// NewLedger creates an empty ledger backed by inv.
func NewLedger(inv *inventory.Tracker) *Ledger {
	return &Ledger{
		entries: make(map[Side]Entry, 2),
		inv:     inv,
	}
}

// Record registers a freshly submitted order. Any prior entry on the same
// side is dropped: submissions go out with cancel-previous semantics, so the
// exchange replaces the old order for us.
func (l *Ledger) Record(e Entry) {
	l.entries[e.Side] = e
}

// Apply folds one execution report into the ledger. Reports for unknown
// client order ids are ignored; duplicate and late deliveries are expected
// from the gateway.
func (l *Ledger) Apply(r Report) Effect {
	e, ok := l.findByID(r.ClientOrderID)
	if !ok {
		return Effect{}
	}
	eff := Effect{Applied: true}
	if (r.Status == StatusPartial || r.Status == StatusFilled) && r.LastFillQty > 0 {
		eff.FillQty = r.LastFillQty
		e.FilledQty += r.LastFillQty
		if l.inv != nil {
			eff.Rearmed = l.inv.ApplyFill(e.Side == SideBuy, r.LastFillQty)
		}
	}
	switch r.Status {
	case StatusNew, StatusPartial:
		e.Status = r.Status
		if r.Price > 0 {
			e.Price = r.Price
		}
		l.entries[e.Side] = e
	case StatusFilled, StatusCancelled, StatusRejected:
		delete(l.entries, e.Side)
		eff.Removed = true
	}
	return eff
}

// Resting returns the working order on the given side, if any.
func (l *Ledger) Resting(s Side) (Entry, bool) {
	e, ok := l.entries[s]
	return e, ok
}

// Len returns the number of working orders (0..2).
func (l *Ledger) Len() int {
	return len(l.entries)
}

// IsEmpty reports whether no order is outstanding.
func (l *Ledger) IsEmpty() bool {
	return len(l.entries) == 0
}

// HasPending reports whether any tracked order is still awaiting its first
// report from the gateway.
func (l *Ledger) HasPending() bool {
	for _, e := range l.entries {
		if e.Status == StatusPendingNew {
			return true
		}
	}
	return false
}

// Each invokes fn for every working order.
func (l *Ledger) Each(fn func(Entry)) {
	for _, e := range l.entries {
		fn(e)
	}
}

func (l *Ledger) findByID(id string) (Entry, bool) {
	if id == "" {
		return Entry{}, false
	}
	for _, e := range l.entries {
		if e.ClientOrderID == id {
			return e, true
		}
	}
	return Entry{}, false
}
