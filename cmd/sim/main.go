// Offline session: drives the full engine against the in-memory exchange
// with a short scripted tape.
package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"quoting-engine-go/infrastructure/logger"
	"quoting-engine-go/internal/engine"
	"quoting-engine-go/inventory"
	"quoting-engine-go/market"
	"quoting-engine-go/order"
	"quoting-engine-go/sim"
	"quoting-engine-go/strategy"
)

func main() {
	zl, err := logger.New(logger.Config{Level: "debug", Format: "console"})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	inst, err := market.NewInstrument("DLR/DIC25", 0.05, 2, 900, 1100, 0.01)
	if err != nil {
		log.Fatalf("instrument: %v", err)
	}

	exchange := sim.NewExchange(128, zl)
	inv := inventory.NewTracker(5)
	quoter, err := strategy.New(strategy.Config{
		Instrument:  inst,
		InitialSize: 5,
		Spread:      0.10,
	}, exchange, inv, zl)
	if err != nil {
		log.Fatalf("quoter: %v", err)
	}

	eng, err := engine.New(engine.Config{ConfirmTimeout: 2 * time.Second}, engine.Components{
		Quoter:    quoter,
		Inventory: inv,
		Snapshots: exchange.Snapshots(),
		Reports:   exchange.Reports(),
		Logger:    zl,
	})
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := eng.Start(ctx); err != nil {
		log.Fatalf("start: %v", err)
	}

	tape := []market.Snapshot{
		snap(inst.Symbol, 1000.00, 1000.20),
		snap(inst.Symbol, 1000.05, 1000.25),
		snap(inst.Symbol, 1000.05, 1000.25),
		snap(inst.Symbol, 1000.10, 1000.30),
		snap(inst.Symbol, 1000.10, 1000.12), // spread collapses
		snap(inst.Symbol, 1000.00, 1000.40),
	}
	for _, s := range tape {
		exchange.PublishSnapshot(s)
		time.Sleep(50 * time.Millisecond)
		if e, ok := exchange.Working(order.SideBuy); ok {
			_ = exchange.Fill(e.ClientOrderID, 1)
		}
		time.Sleep(50 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)
	_ = exchange.Close()
	<-eng.Done()

	snaps, reports, forced := eng.GetStatistics()
	zl.Info("sim done",
		zap.Int64("snapshots", snaps),
		zap.Int64("reports", reports),
		zap.Int64("forcedReconciles", forced),
		zap.Int64("buyRemaining", inv.BuyRemaining()),
		zap.Int64("sellRemaining", inv.SellRemaining()))
}

func snap(symbol string, bid, offer float64) market.Snapshot {
	return market.Snapshot{
		Symbol:    symbol,
		Timestamp: time.Now(),
		Bid:       &market.Quote{Price: bid, Size: 10},
		Offer:     &market.Quote{Price: offer, Size: 10},
	}
}
