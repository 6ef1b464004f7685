package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quoting-engine-go/market"
	"quoting-engine-go/order"
)

// StreamConfig configures the websocket event stream.
type StreamConfig struct {
	URL     string // e.g. wss://api.remarkets.primary.com.ar/
	Token   string // session token from RESTClient.Login
	Symbol  string
	Buffer  int // channel depth; 0 uses the default
	Dialer  *websocket.Dialer
	ReadTTL time.Duration // read deadline; 0 disables
}

// Stream is the exchange event feed: it subscribes to top-of-book market
// data and order reports and delivers decoded events on channels consumed by
// the engine. A malformed message of a known type stops the stream — it
// signals a boundary bug, not a trading condition.
type Stream struct {
	cfg       StreamConfig
	conn      *websocket.Conn
	snapshots chan market.Snapshot
	reports   chan order.Report
	log       *zap.Logger

	closeOnce sync.Once
}

// DialStream connects, authenticates via header token, and sends both
// subscriptions. Run must be called to start delivery.
func DialStream(cfg StreamConfig, log *zap.Logger) (*Stream, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("stream url required")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("stream symbol required")
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if log == nil {
		log = zap.NewNop()
	}
	header := http.Header{}
	if cfg.Token != "" {
		header.Set("X-Auth-Token", cfg.Token)
	}
	conn, _, err := cfg.Dialer.Dial(cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial stream: %w", err)
	}
	s := &Stream{
		cfg:       cfg,
		conn:      conn,
		snapshots: make(chan market.Snapshot, cfg.Buffer),
		reports:   make(chan order.Report, cfg.Buffer),
		log:       log,
	}
	if err := s.subscribe(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Stream) subscribe() error {
	mdSub := map[string]interface{}{
		"type":    "smd",
		"level":   1,
		"entries": []string{"BI", "OF", "LA"},
		"products": []map[string]string{
			{"symbol": s.cfg.Symbol, "marketId": "ROFX"},
		},
	}
	if err := s.writeJSON(mdSub); err != nil {
		return fmt.Errorf("subscribe market data: %w", err)
	}
	orSub := map[string]interface{}{"type": "os"}
	if err := s.writeJSON(orSub); err != nil {
		return fmt.Errorf("subscribe order reports: %w", err)
	}
	return nil
}

func (s *Stream) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Run reads until the connection drops or a malformed message arrives. It
// closes both channels on exit so the engine terminates cleanly.
func (s *Stream) Run() error {
	defer close(s.snapshots)
	defer close(s.reports)
	for {
		if s.cfg.ReadTTL > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTTL))
		}
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := ParseEvent(raw)
		if err != nil {
			s.log.Error("dropping stream on malformed message", zap.Error(err))
			return err
		}
		switch {
		case ev.Snapshot != nil:
			s.snapshots <- *ev.Snapshot
		case ev.Report != nil:
			s.reports <- *ev.Report
		}
	}
}

// Snapshots is the market data channel.
func (s *Stream) Snapshots() <-chan market.Snapshot {
	return s.snapshots
}

// Reports is the execution report channel.
func (s *Stream) Reports() <-chan order.Report {
	return s.reports
}

// Close tears down the connection; Run returns shortly after.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}
