package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quoting-engine-go/inventory"
	"quoting-engine-go/market"
	"quoting-engine-go/order"
	"quoting-engine-go/strategy"
)

// silentGateway accepts orders but never confirms them; tests drive the
// report channel themselves.
type silentGateway struct {
	mu        sync.Mutex
	seq       int
	sent      []order.Entry
	cancelled []string
}

func (g *silentGateway) SendOrder(side order.Side, price float64, size int64) (order.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	e := order.Entry{
		ClientOrderID: fmt.Sprintf("E-%d", g.seq),
		Side:          side,
		Price:         price,
		Size:          size,
		Status:        order.StatusPendingNew,
	}
	g.sent = append(g.sent, e)
	return e, nil
}

func (g *silentGateway) CancelOrder(clientOrderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, clientOrderID)
	return nil
}

func (g *silentGateway) sentCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

func (g *silentGateway) lastSent() order.Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sent[len(g.sent)-1]
}

func (g *silentGateway) cancelledCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cancelled)
}

type engineFixture struct {
	eng       *Engine
	gw        *silentGateway
	inv       *inventory.Tracker
	snapshots chan market.Snapshot
	reports   chan order.Report
}

func newFixture(t *testing.T, confirmTimeout time.Duration) *engineFixture {
	t.Helper()
	inst, err := market.NewInstrument("DLR/DIC25", 0.05, 2, 90, 110, 0.01)
	require.NoError(t, err)

	gw := &silentGateway{}
	inv := inventory.NewTracker(5)
	quoter, err := strategy.New(strategy.Config{
		Instrument:  inst,
		InitialSize: 5,
		Spread:      0.05,
	}, gw, inv, nil)
	require.NoError(t, err)

	snapshots := make(chan market.Snapshot, 16)
	reports := make(chan order.Report, 16)
	eng, err := New(Config{ConfirmTimeout: confirmTimeout}, Components{
		Quoter:    quoter,
		Inventory: inv,
		Snapshots: snapshots,
		Reports:   reports,
	})
	require.NoError(t, err)

	return &engineFixture{eng: eng, gw: gw, inv: inv, snapshots: snapshots, reports: reports}
}

func snap(bid, offer float64) market.Snapshot {
	return market.Snapshot{
		Symbol:    "DLR/DIC25",
		Timestamp: time.Now(),
		Bid:       &market.Quote{Price: bid, Size: 10},
		Offer:     &market.Quote{Price: offer, Size: 10},
	}
}

func TestNewRequiresComponents(t *testing.T) {
	_, err := New(Config{}, Components{})
	require.Error(t, err)
}

func TestEngineCountsEvents(t *testing.T) {
	f := newFixture(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.eng.Start(ctx))
	defer f.eng.Stop()

	f.snapshots <- snap(100.00, 100.20)

	require.Eventually(t, func() bool {
		return f.gw.sentCount() == 1
	}, 2*time.Second, 10*time.Millisecond, "snapshot did not produce an order")

	f.reports <- order.Report{
		ClientOrderID: f.gw.lastSent().ClientOrderID,
		Side:          order.SideBuy,
		Status:        order.StatusNew,
	}
	f.snapshots <- snap(100.00, 100.20)

	require.Eventually(t, func() bool {
		snaps, reports, _ := f.eng.GetStatistics()
		return snaps == 2 && reports == 1
	}, 2*time.Second, 10*time.Millisecond)
	// Second snapshot quotes the sell side.
	require.Eventually(t, func() bool {
		return f.gw.sentCount() == 2 && f.gw.lastSent().Side == order.SideSell
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEngineForcesReconcileOnConfirmTimeout(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.eng.Start(ctx))
	defer f.eng.Stop()

	// The gateway never confirms, so the confirm timer must fire and the
	// stuck order must be cancelled.
	f.snapshots <- snap(100.00, 100.20)

	require.Eventually(t, func() bool {
		_, _, forced := f.eng.GetStatistics()
		return forced == 1 && f.gw.cancelledCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEngineNoTimeoutWhenConfirmArrives(t *testing.T) {
	f := newFixture(t, 200*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.eng.Start(ctx))
	defer f.eng.Stop()

	f.snapshots <- snap(100.00, 100.20)
	require.Eventually(t, func() bool {
		return f.gw.sentCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	f.reports <- order.Report{
		ClientOrderID: f.gw.lastSent().ClientOrderID,
		Side:          order.SideBuy,
		Status:        order.StatusNew,
	}

	time.Sleep(500 * time.Millisecond)
	_, _, forced := f.eng.GetStatistics()
	require.Zero(t, forced, "confirmed cycle must not be reconciled")
	require.Zero(t, f.gw.cancelledCount())
}

func TestEngineExitsWhenStreamCloses(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.eng.Start(context.Background()))

	close(f.snapshots)
	select {
	case <-f.eng.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not exit after stream close")
	}
}

func TestEngineStop(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.eng.Start(context.Background()))
	require.Error(t, f.eng.Start(context.Background()), "double start must fail")

	f.eng.Stop()
	select {
	case <-f.eng.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
	f.eng.Stop() // idempotent
}
