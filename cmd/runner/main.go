package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"quoting-engine-go/config"
	"quoting-engine-go/gateway"
	"quoting-engine-go/infrastructure/logger"
	"quoting-engine-go/internal/engine"
	"quoting-engine-go/inventory"
	"quoting-engine-go/market"
	"quoting-engine-go/metrics"
	"quoting-engine-go/order"
	"quoting-engine-go/strategy"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "config file path")
	metricsAddr := flag.String("metricsAddr", "", "override metrics listen address")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	addr := cfg.MetricsAddr
	if *metricsAddr != "" {
		addr = *metricsAddr
	}
	var collector *metrics.Collector
	if addr != "" {
		collector = metrics.NewCollector()
		metrics.Serve(addr)
		zl.Info("metrics listening", zap.String("addr", addr))
	}

	inst, err := market.NewInstrument(
		cfg.Instrument.Symbol,
		cfg.Instrument.TickSize,
		cfg.Instrument.PricePrecision,
		cfg.Instrument.MinPrice,
		cfg.Instrument.MaxPrice,
		cfg.Instrument.Tolerance,
	)
	if err != nil {
		zl.Fatal("invalid instrument", zap.Error(err))
	}

	rest := &gateway.RESTClient{
		BaseURL:    cfg.Gateway.BaseURL,
		Account:    cfg.Gateway.Account,
		Symbol:     inst.Symbol,
		HTTPClient: gateway.NewDefaultHTTPClient(),
		Limiter:    gateway.NewTokenBucketLimiter(cfg.Gateway.RestRate, cfg.Gateway.RestBurst),
	}
	if err := rest.Login(cfg.Gateway.User, cfg.Gateway.Password); err != nil {
		zl.Fatal("gateway login failed", zap.Error(err))
	}

	stream, err := gateway.DialStream(gateway.StreamConfig{
		URL:    cfg.Gateway.WSURL,
		Token:  rest.Token(),
		Symbol: inst.Symbol,
	}, zl)
	if err != nil {
		zl.Fatal("dial stream failed", zap.Error(err))
	}
	session := gateway.NewPrimarySession(rest, stream)

	inv := inventory.NewTracker(cfg.Strategy.InitialSize)
	quoter, err := strategy.New(strategy.Config{
		Instrument:  inst,
		InitialSize: cfg.Strategy.InitialSize,
		Spread:      cfg.Strategy.Spread,
		WindowSize:  cfg.Strategy.SpreadWindow,
	}, &instrumentedGateway{gw: session, metrics: collector}, inv, zl)
	if err != nil {
		zl.Fatal("init quoter failed", zap.Error(err))
	}

	eng, err := engine.New(engine.Config{
		ConfirmTimeout: time.Duration(cfg.Strategy.ConfirmTimeoutMs) * time.Millisecond,
	}, engine.Components{
		Quoter:    quoter,
		Inventory: inv,
		Snapshots: session.Snapshots(),
		Reports:   session.Reports(),
		Metrics:   collector,
		Logger:    zl,
	})
	if err != nil {
		zl.Fatal("init engine failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		zl.Fatal("engine start failed", zap.Error(err))
	}
	go func() {
		if err := stream.Run(); err != nil {
			zl.Error("stream exited", zap.Error(err))
		}
		cancel()
	}()

	go func() {
		w := config.Watcher{Path: *cfgPath}
		_ = w.Start(ctx, func(newCfg config.AppConfig) {
			// Quoting parameters are fixed for the life of the session;
			// surface the change so the operator restarts deliberately.
			zl.Warn("config file changed; restart to apply",
				zap.Float64("spread", newCfg.Strategy.Spread),
				zap.Int64("initialSize", newCfg.Strategy.InitialSize))
		})
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	zl.Info("runner up",
		zap.String("symbol", inst.Symbol),
		zap.Int64("initialSize", cfg.Strategy.InitialSize),
		zap.Float64("spread", cfg.Strategy.Spread))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-eng.Done():
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	cancel()
	eng.Stop()
	_ = session.Close()
	snaps, reports, forced := eng.GetStatistics()
	zl.Info("runner exit",
		zap.Int64("snapshots", snaps),
		zap.Int64("reports", reports),
		zap.Int64("forcedReconciles", forced))
}

// instrumentedGateway counts order actions on their way to the session.
type instrumentedGateway struct {
	gw      gateway.OrderGateway
	metrics *metrics.Collector
}

func (g *instrumentedGateway) SendOrder(side order.Side, price float64, size int64) (order.Entry, error) {
	e, err := g.gw.SendOrder(side, price, size)
	if err == nil && g.metrics != nil {
		g.metrics.OrdersSubmitted.WithLabelValues(string(side)).Inc()
	}
	return e, err
}

func (g *instrumentedGateway) CancelOrder(clientOrderID string) error {
	if g.metrics != nil {
		g.metrics.CancelRequests.Inc()
	}
	return g.gw.CancelOrder(clientOrderID)
}
