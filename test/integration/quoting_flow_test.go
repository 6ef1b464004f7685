package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quoting-engine-go/internal/engine"
	"quoting-engine-go/inventory"
	"quoting-engine-go/market"
	"quoting-engine-go/order"
	"quoting-engine-go/sim"
	"quoting-engine-go/strategy"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

type fixture struct {
	exchange *sim.Exchange
	eng      *engine.Engine
	inv      *inventory.Tracker
}

func startFixture(t *testing.T) *fixture {
	t.Helper()
	inst, err := market.NewInstrument("DLR/DIC25", 0.05, 2, 900, 1100, 0.01)
	require.NoError(t, err)

	exchange := sim.NewExchange(128, nil)
	inv := inventory.NewTracker(5)
	quoter, err := strategy.New(strategy.Config{
		Instrument:  inst,
		InitialSize: 5,
		Spread:      0.10,
	}, exchange, inv, nil)
	require.NoError(t, err)

	eng, err := engine.New(engine.Config{ConfirmTimeout: time.Second}, engine.Components{
		Quoter:    quoter,
		Inventory: inv,
		Snapshots: exchange.Snapshots(),
		Reports:   exchange.Reports(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, eng.Start(ctx))
	t.Cleanup(func() {
		cancel()
		eng.Stop()
		_ = exchange.Close()
	})
	return &fixture{exchange: exchange, eng: eng, inv: inv}
}

func wide() market.Snapshot {
	return market.Snapshot{
		Symbol:    "DLR/DIC25",
		Timestamp: time.Now(),
		Bid:       &market.Quote{Price: 1000.00, Size: 10},
		Offer:     &market.Quote{Price: 1000.30, Size: 10},
	}
}

func tight() market.Snapshot {
	return market.Snapshot{
		Symbol:    "DLR/DIC25",
		Timestamp: time.Now(),
		Bid:       &market.Quote{Price: 1000.00, Size: 10},
		Offer:     &market.Quote{Price: 1000.02, Size: 10},
	}
}

func (f *fixture) working(t *testing.T, side order.Side) order.Entry {
	t.Helper()
	var e order.Entry
	require.Eventually(t, func() bool {
		var ok bool
		e, ok = f.exchange.Working(side)
		return ok
	}, waitFor, tick, "no working order on %s", side)
	return e
}

func TestQuotesBothSidesAcrossSnapshots(t *testing.T) {
	f := startFixture(t)

	f.exchange.PublishSnapshot(wide())
	buy := f.working(t, order.SideBuy)
	require.Equal(t, 1000.05, buy.Price)
	require.Equal(t, int64(5), buy.Size)

	// One action per snapshot: the sell goes out on the next one.
	f.exchange.PublishSnapshot(wide())
	sell := f.working(t, order.SideSell)
	require.Equal(t, 1000.25, sell.Price)
	require.Equal(t, int64(5), sell.Size)
}

func TestInventoryCycleRearmsAfterBothSidesFill(t *testing.T) {
	f := startFixture(t)

	f.exchange.PublishSnapshot(wide())
	f.working(t, order.SideBuy)
	f.exchange.PublishSnapshot(wide())
	f.working(t, order.SideSell)

	require.NoError(t, f.exchange.FillSide(order.SideBuy))
	require.Eventually(t, func() bool {
		return f.inv.BuyRemaining() == 0
	}, waitFor, tick, "buy side did not deplete")
	require.Equal(t, int64(5), f.inv.SellRemaining())

	require.NoError(t, f.exchange.FillSide(order.SideSell))
	require.Eventually(t, func() bool {
		return f.inv.BuyRemaining() == 5 && f.inv.SellRemaining() == 5
	}, waitFor, tick, "cycle did not re-arm")
}

func TestTightSpreadPullsQuotes(t *testing.T) {
	f := startFixture(t)

	f.exchange.PublishSnapshot(wide())
	f.working(t, order.SideBuy)

	// Spread collapses below the configured minimum; the resting quote
	// must be pulled.
	f.exchange.PublishSnapshot(tight())
	require.Eventually(t, func() bool {
		_, ok := f.exchange.Working(order.SideBuy)
		return !ok
	}, waitFor, tick, "quote not pulled on tight market")
}

func TestEngineDrainsAndExitsOnClose(t *testing.T) {
	f := startFixture(t)

	f.exchange.PublishSnapshot(wide())
	f.working(t, order.SideBuy)

	require.NoError(t, f.exchange.Close())
	select {
	case <-f.eng.Done():
	case <-time.After(waitFor):
		t.Fatal("engine did not exit after exchange close")
	}

	snaps, reports, _ := f.eng.GetStatistics()
	require.GreaterOrEqual(t, snaps, int64(1))
	require.GreaterOrEqual(t, reports, int64(1))
}
