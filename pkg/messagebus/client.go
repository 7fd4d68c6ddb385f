package messagebus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grafana/dskit/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const module = "messagebus"

var ErrNotConnected = errors.New("message bus not connected")

var (
	metricMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tunego",
		Subsystem: module,
		Name:      "messages_total",
		Help:      "Bus messages by direction and type.",
	}, []string{"direction", "type"})

	metricConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tunego",
		Subsystem: module,
		Name:      "connected",
		Help:      "1 while connected to the bus.",
	})
)

// Handler handles one message type. Handlers run on the read loop, one
// message at a time.
type Handler func(ctx context.Context, msg Message) error

type Client struct {
	services.Service

	cfg    *Config
	logger *slog.Logger
	dialer *websocket.Dialer

	handlersMu sync.RWMutex
	handlers   map[string][]Handler

	// connMu guards conn and serializes writes.
	connMu sync.Mutex
	conn   *websocket.Conn
}

func New(cfg Config, logger slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("message bus url is required")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	c := &Client{
		cfg:      &cfg,
		logger:   logger.With("module", module),
		dialer:   websocket.DefaultDialer,
		handlers: map[string][]Handler{},
	}

	c.Service = services.NewBasicService(nil, c.running, c.stopping)

	return c, nil
}

// On registers h for messages of msgType.
func (c *Client) On(msgType string, h Handler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.handlers[msgType] = append(c.handlers[msgType], h)
}

// Connected reports whether the client currently holds a bus connection.
func (c *Client) Connected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	return c.conn != nil
}

// Emit writes msg to the bus.
func (c *Client) Emit(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", msg.Type, err)
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(c.cfg.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", msg.Type, err)
	}

	metricMessages.WithLabelValues("out", msg.Type).Inc()
	c.logger.Debug("emit", "type", msg.Type)

	return nil
}

func (c *Client) running(ctx context.Context) error {
	for {
		if err := c.serve(ctx); err != nil {
			c.logger.Warn("bus connection lost", "url", c.cfg.URL, "err", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

func (c *Client) stopping(_ error) error {
	c.logger.Info("stopping")
	return nil
}

// serve holds one connection until it fails or ctx is done.
func (c *Client) serve(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	defer conn.Close()

	c.setConn(conn)
	defer c.setConn(nil)

	c.logger.Info("connected to bus", "url", c.cfg.URL)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("failed to decode message", "err", err)
			continue
		}

		c.dispatch(ctx, msg)
	}
}

func (c *Client) dispatch(ctx context.Context, msg Message) {
	c.handlersMu.RLock()
	handlers := c.handlers[msg.Type]
	c.handlersMu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	metricMessages.WithLabelValues("in", msg.Type).Inc()

	for _, h := range handlers {
		if err := h(ctx, msg); err != nil {
			c.logger.Error("handler failed", "type", msg.Type, "err", err)
		}
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	if conn != nil {
		metricConnected.Set(1)
	} else {
		metricConnected.Set(0)
	}
}
