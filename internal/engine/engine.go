// Package engine serializes gateway events into the quoting state machine.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"quoting-engine-go/inventory"
	"quoting-engine-go/market"
	"quoting-engine-go/metrics"
	"quoting-engine-go/order"
	"quoting-engine-go/strategy"
)

// Config holds engine parameters.
type Config struct {
	// ConfirmTimeout bounds how long the quoter may wait on order or cancel
	// confirmations before the engine forces a reconciliation pass. Zero
	// disables the bound.
	ConfirmTimeout time.Duration
}

// Components are the engine's collaborators.
type Components struct {
	Quoter    *strategy.Quoter
	Inventory *inventory.Tracker
	Snapshots <-chan market.Snapshot
	Reports   <-chan order.Report
	Metrics   *metrics.Collector // optional
	Logger    *zap.Logger
}

// Statistics counts processed events.
type Statistics struct {
	StartTime        time.Time
	Snapshots        int64
	Reports          int64
	ForcedReconciles int64
	mu               sync.RWMutex
}

// Engine consumes exactly one event at a time — market snapshot or order
// report — to completion before accepting the next. It is the only
// goroutine that touches the quoter, the ledger, and the inventory
// counters.
type Engine struct {
	cfg   Config
	comp  Components
	log   *zap.Logger
	stats Statistics

	stopChan chan struct{}
	doneChan chan struct{}
	started  bool
	mu       sync.Mutex
}

// New validates the components and creates an engine.
func New(cfg Config, comp Components) (*Engine, error) {
	if comp.Quoter == nil {
		return nil, errors.New("quoter is required")
	}
	if comp.Snapshots == nil || comp.Reports == nil {
		return nil, errors.New("snapshot and report channels are required")
	}
	if comp.Logger == nil {
		comp.Logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		comp:     comp,
		log:      comp.Logger,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// Start launches the event loop.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return errors.New("engine already started")
	}
	e.started = true
	e.stats.mu.Lock()
	e.stats.StartTime = time.Now()
	e.stats.mu.Unlock()
	e.mu.Unlock()

	e.log.Info("engine starting",
		zap.Duration("confirm_timeout", e.cfg.ConfirmTimeout))
	go e.run(ctx)
	return nil
}

// Stop signals the loop and waits for it to drain the in-flight event.
func (e *Engine) Stop() {
	e.mu.Lock()
	select {
	case <-e.stopChan:
	default:
		close(e.stopChan)
	}
	e.mu.Unlock()

	select {
	case <-e.doneChan:
	case <-time.After(5 * time.Second):
		e.log.Warn("timeout waiting for engine to stop")
	}
}

// Done is closed when the loop exits (input channels closed or Stop).
func (e *Engine) Done() <-chan struct{} {
	return e.doneChan
}

// GetStatistics returns a copy of the counters.
func (e *Engine) GetStatistics() (snapshots, reports, forced int64) {
	e.stats.mu.RLock()
	defer e.stats.mu.RUnlock()
	return e.stats.Snapshots, e.stats.Reports, e.stats.ForcedReconciles
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.doneChan)

	var confirmTimer *time.Timer
	var confirmC <-chan time.Time
	stopTimer := func() {
		if confirmTimer != nil {
			confirmTimer.Stop()
			confirmTimer = nil
			confirmC = nil
		}
	}
	defer stopTimer()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("context done, stopping engine")
			return

		case <-e.stopChan:
			e.log.Info("stop signal received")
			return

		case snap, ok := <-e.comp.Snapshots:
			if !ok {
				e.log.Info("snapshot stream closed")
				return
			}
			deferred := e.comp.Quoter.State() != strategy.StateAwaitingMarketData
			e.comp.Quoter.OnSnapshot(snap)
			e.stats.mu.Lock()
			e.stats.Snapshots++
			e.stats.mu.Unlock()
			if m := e.comp.Metrics; m != nil {
				m.SnapshotsProcessed.Inc()
				if deferred {
					m.SnapshotsDeferred.Inc()
				}
				m.SpreadThreshold.Set(e.comp.Quoter.Threshold())
			}

		case r, ok := <-e.comp.Reports:
			if !ok {
				e.log.Info("report stream closed")
				return
			}
			eff := e.comp.Quoter.OnReport(r)
			e.stats.mu.Lock()
			e.stats.Reports++
			e.stats.mu.Unlock()
			if m := e.comp.Metrics; m != nil {
				m.ReportsApplied.Inc()
				if eff.FillQty > 0 {
					m.Fills.Inc()
				}
				if eff.Rearmed {
					m.Rearms.Inc()
				}
			}

		case <-confirmC:
			confirmTimer = nil
			confirmC = nil
			if e.comp.Quoter.State() != strategy.StateAwaitingMarketData {
				e.comp.Quoter.ForceReconcile()
				e.stats.mu.Lock()
				e.stats.ForcedReconciles++
				e.stats.mu.Unlock()
				if m := e.comp.Metrics; m != nil {
					m.ForcedReconciles.Inc()
				}
			}
		}

		e.afterEvent(&confirmTimer, &confirmC)
	}
}

// afterEvent maintains the confirm timer and observability gauges once the
// event has been fully processed.
func (e *Engine) afterEvent(timer **time.Timer, timerC *<-chan time.Time) {
	waiting := e.comp.Quoter.State() != strategy.StateAwaitingMarketData
	if e.cfg.ConfirmTimeout > 0 {
		switch {
		case waiting && *timer == nil:
			t := time.NewTimer(e.cfg.ConfirmTimeout)
			*timer = t
			*timerC = t.C
		case !waiting && *timer != nil:
			(*timer).Stop()
			*timer = nil
			*timerC = nil
		}
	}
	if m := e.comp.Metrics; m != nil {
		m.QuoterState.Set(float64(e.comp.Quoter.State()))
		if inv := e.comp.Inventory; inv != nil {
			m.BuyRemaining.Set(float64(inv.BuyRemaining()))
			m.SellRemaining.Set(float64(inv.SellRemaining()))
		}
	}
}
