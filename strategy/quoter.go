package strategy

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"quoting-engine-go/inventory"
	"quoting-engine-go/market"
	"quoting-engine-go/order"
)

// Gateway is the slice of the exchange session the quoter drives. SendOrder
// carries cancel-previous semantics: a new order on a side replaces the one
// already resting there. Outcomes arrive later on the report stream.
type Gateway interface {
	SendOrder(side order.Side, price float64, size int64) (order.Entry, error)
	CancelOrder(clientOrderID string) error
}

// Config holds the quoting parameters for one instrument.
type Config struct {
	Instrument  market.Instrument
	InitialSize int64   // contracts quoted per side per inventory cycle
	Spread      float64 // static minimum-spread fallback
	WindowSize  int     // spread history capacity; 0 uses the default
}

func (c Config) validate() error {
	if c.Instrument.Symbol == "" {
		return errors.New("instrument is required")
	}
	if c.InitialSize <= 0 {
		return errors.New("initialSize must be > 0")
	}
	if c.Spread <= 0 {
		return errors.New("spread must be > 0")
	}
	return nil
}

// Quoter keeps a compliant two-sided quote for one instrument. It consumes
// one event at a time — a market snapshot or an order report — updates the
// ledger, and issues the minimal set of order actions. Never call it from
// more than one goroutine.
type Quoter struct {
	cfg    Config
	gw     Gateway
	ledger *order.Ledger
	inv    *inventory.Tracker
	window *market.SpreadWindow

	state   State
	pending *market.Snapshot // latest snapshot deferred while confirming

	log *zap.Logger
}

// New creates a quoter. inv is shared with the caller so the owning process
// can observe remaining sizes.
func New(cfg Config, gw Gateway, inv *inventory.Tracker, log *zap.Logger) (*Quoter, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid quoter config: %w", err)
	}
	if gw == nil {
		return nil, errors.New("gateway is required")
	}
	if inv == nil {
		inv = inventory.NewTracker(cfg.InitialSize)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Quoter{
		cfg:    cfg,
		gw:     gw,
		ledger: order.NewLedger(inv),
		inv:    inv,
		window: market.NewSpreadWindow(cfg.WindowSize),
		state:  StateAwaitingMarketData,
		log:    log.With(zap.String("symbol", cfg.Instrument.Symbol)),
	}, nil
}

// State returns the current cycle phase.
func (q *Quoter) State() State {
	return q.state
}

// Ledger exposes the order ledger for observation (tests, engine metrics).
func (q *Quoter) Ledger() *order.Ledger {
	return q.ledger
}

// Threshold returns the minimum spread currently enforced: the rolling
// estimate once warm, the configured static value before that.
func (q *Quoter) Threshold() float64 {
	return q.window.Threshold(q.cfg.Spread)
}

// OnSnapshot processes one market snapshot. While order or cancel
// confirmations are outstanding the snapshot is buffered — only the latest
// one — and replayed the moment the quoter returns to market-data wait.
func (q *Quoter) OnSnapshot(snap market.Snapshot) {
	if q.state != StateAwaitingMarketData {
		q.pending = &snap
		q.log.Debug("snapshot deferred", zap.String("state", q.state.String()))
		return
	}
	q.pending = nil
	q.process(snap)
}

// OnReport folds one execution report into the ledger and advances the
// cycle when the awaited confirmations are all in. The returned effect lets
// the caller observe fills and inventory re-arms.
func (q *Quoter) OnReport(r order.Report) order.Effect {
	eff := q.ledger.Apply(r)
	if !eff.Applied {
		q.log.Debug("report for untracked order ignored",
			zap.String("clOrdId", r.ClientOrderID),
			zap.String("status", string(r.Status)))
		return eff
	}
	if eff.FillQty > 0 {
		q.log.Info("fill",
			zap.String("clOrdId", r.ClientOrderID),
			zap.String("side", string(r.Side)),
			zap.Int64("qty", eff.FillQty),
			zap.Int64("buyRemaining", q.inv.BuyRemaining()),
			zap.Int64("sellRemaining", q.inv.SellRemaining()),
			zap.Bool("rearmed", eff.Rearmed))
	}
	switch q.state {
	case StateAwaitingCancelConfirm:
		if q.ledger.IsEmpty() {
			q.resumeMarketData()
		}
	case StateAwaitingOrderConfirm:
		if !q.ledger.HasPending() {
			q.resumeMarketData()
		}
	}
	return eff
}

// ForceReconcile abandons an unconfirmed cycle: every tracked order is
// cancelled and the quoter resumes consuming market data. The engine calls
// this when confirmations outstay the configured bound.
func (q *Quoter) ForceReconcile() {
	if q.state == StateAwaitingMarketData {
		return
	}
	q.log.Warn("forcing reconciliation", zap.String("state", q.state.String()))
	q.ledger.Each(func(e order.Entry) {
		if err := q.gw.CancelOrder(e.ClientOrderID); err != nil {
			q.log.Error("cancel request failed",
				zap.String("clOrdId", e.ClientOrderID), zap.Error(err))
		}
	})
	q.pending = nil
	q.state = StateAwaitingMarketData
}

func (q *Quoter) resumeMarketData() {
	q.state = StateAwaitingMarketData
	if q.pending == nil {
		return
	}
	snap := *q.pending
	q.pending = nil
	q.process(snap)
}

func (q *Quoter) process(snap market.Snapshot) {
	inst := q.cfg.Instrument
	if snap.TwoSided() {
		q.window.Observe(market.SpreadSample{
			Timestamp: snap.Timestamp,
			Bid:       snap.Bid.Price,
			Offer:     snap.Offer.Price,
			Spread:    snap.Spread(),
		})
	}
	if !snap.TwoSided() || !inst.WithinBands(snap.Bid.Price, snap.Offer.Price) {
		q.cancelAll("invalid market state")
		return
	}
	bid, offer := snap.Bid.Price, snap.Offer.Price
	spread := inst.RoundPrice(offer - bid)
	threshold := q.window.Threshold(q.cfg.Spread)
	if spread < threshold {
		q.cancelAll("spread below threshold")
		return
	}
	// At most one side acts per snapshot: BUY is checked first, and a BUY
	// submission defers the SELL check to the next tick.
	if q.maybeQuote(order.SideBuy, bid, offer) {
		return
	}
	q.maybeQuote(order.SideSell, bid, offer)
}

// maybeQuote submits a replacement order for the side when it is absent or
// no longer at the top of book, and the side still has inventory to quote.
// Returns true when an order went out.
func (q *Quoter) maybeQuote(side order.Side, bid, offer float64) bool {
	buy := side == order.SideBuy
	remaining := q.inv.Remaining(buy)
	if remaining <= 0 {
		return false
	}
	if e, ok := q.ledger.Resting(side); ok {
		atTop := (buy && e.Price >= bid) || (!buy && e.Price <= offer)
		if atTop {
			return false
		}
	}
	px := q.cfg.Instrument.InsideOffer(offer)
	if buy {
		px = q.cfg.Instrument.InsideBid(bid)
	}
	entry, err := q.gw.SendOrder(side, px, remaining)
	if err != nil {
		// Next snapshot re-evaluates; transport faults are the gateway's
		// concern.
		q.log.Error("order submit failed",
			zap.String("side", string(side)),
			zap.Float64("price", px),
			zap.Int64("size", remaining),
			zap.Error(err))
		return false
	}
	q.ledger.Record(entry)
	q.state = StateAwaitingOrderConfirm
	q.log.Info("order submitted",
		zap.String("clOrdId", entry.ClientOrderID),
		zap.String("side", string(side)),
		zap.Float64("price", px),
		zap.Int64("size", remaining))
	return true
}

// cancelAll requests cancellation of every resting order and waits for the
// ledger to drain. With nothing resting it is a no-op and the quoter stays
// on market data.
func (q *Quoter) cancelAll(reason string) {
	if q.ledger.IsEmpty() {
		return
	}
	q.state = StateAwaitingCancelConfirm
	q.log.Info("cancelling resting orders",
		zap.String("reason", reason), zap.Int("count", q.ledger.Len()))
	q.ledger.Each(func(e order.Entry) {
		if err := q.gw.CancelOrder(e.ClientOrderID); err != nil {
			q.log.Error("cancel request failed",
				zap.String("clOrdId", e.ClientOrderID), zap.Error(err))
		}
	})
}
