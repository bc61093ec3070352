package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gorilla/websocket"

	"tennis-market-cache/internal/infrastructure/config"
	"tennis-market-cache/internal/infrastructure/logging"
	"tennis-market-cache/internal/infrastructure/metrics"
	"tennis-market-cache/internal/infrastructure/ratelimit"
)

const (
	DefaultPingInterval   = 30 * time.Second
	DefaultReconnectDelay = time.Second
	DefaultTriggerBurst   = 2
	DefaultTriggerPerMin  = 6
	MaxReconnectDelay     = 60 * time.Second
	StableSessionDuration = 10 * time.Second
	WriteWait             = 10 * time.Second
	ReadBufferSize        = 1024
	WriteBufferSize       = 1024
)

// subscriptionType es el canal del feed que publica eventos de ciclo de vida
const subscriptionType = "market"

// Acciones registradas por evento en las métricas
const (
	actionTriggered = "triggered"
	actionCoalesced = "coalesced"
	actionThrottled = "throttled"
	actionIgnored   = "ignored"
)

// lifecycleEvents cambian el universo de tokens y justifican un refresh anticipado
var lifecycleEvents = map[string]bool{
	"market_created":   true,
	"new_market":       true,
	"market_resolved":  true,
	"tick_size_change": true,
}

// RefreshTrigger is the scheduler side of the stream. RequestRefresh returns
// false when a refresh was already pending.
type RefreshTrigger interface {
	RequestRefresh(reason string) bool
}

// subscription es el primer frame de cada sesión. custom_feature_enabled
// habilita new_market y market_resolved en el canal market.
type subscription struct {
	Type                 string   `json:"type"`
	AssetIDs             []string `json:"assets_ids"`
	CustomFeatureEnabled bool     `json:"custom_feature_enabled"`
}

// Event es un mensaje del feed de mercados
type Event struct {
	EventType string `json:"event_type"`
	Market    string `json:"market,omitempty"`
	AssetID   string `json:"asset_id,omitempty"`
}

// Trigger escucha el feed de ciclo de vida de mercados y pide refresh
// anticipados al scheduler, limitados por un token bucket.
type Trigger struct {
	url            string
	pingInterval   time.Duration
	maxReconnects  uint
	reconnectDelay time.Duration
	assetIDs       []string
	target         RefreshTrigger
	limiter        *ratelimit.TokenBucket
	dialer         websocket.Dialer

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	connected atomic.Bool
}

// NewTrigger creates a stream trigger from configuration
func NewTrigger(cfg config.StreamConfig, target RefreshTrigger) *Trigger {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.TriggerBurst <= 0 {
		cfg.TriggerBurst = DefaultTriggerBurst
	}
	if cfg.TriggerPerMin <= 0 {
		cfg.TriggerPerMin = DefaultTriggerPerMin
	}

	return &Trigger{
		url:            cfg.URL,
		pingInterval:   cfg.PingInterval,
		maxReconnects:  cfg.MaxReconnects,
		reconnectDelay: cfg.ReconnectDelay,
		assetIDs:       append([]string{}, cfg.AssetIDs...),
		target:         target,
		limiter:        ratelimit.NewTokenBucketPerMinute(cfg.TriggerBurst, cfg.TriggerPerMin),
		dialer: websocket.Dialer{
			ReadBufferSize:   ReadBufferSize,
			WriteBufferSize:  WriteBufferSize,
			HandshakeTimeout: WriteWait,
		},
	}
}

// Start connects in the background and returns immediately. The trigger runs
// until ctx is cancelled or Stop is called.
func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.run(runCtx, t.done)
	return nil
}

// Stop closes the connection and waits for the background loop to exit
func (t *Trigger) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Connected reports whether a websocket session is currently open
func (t *Trigger) Connected() bool {
	return t.connected.Load()
}

// Check is the readiness check for the stream
func (t *Trigger) Check(context.Context) error {
	if !t.Connected() {
		return ErrNotConnected
	}
	return nil
}

func (t *Trigger) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer metrics.UpdateStreamConnectionStatus(false)

	earlyDrops := 0
	for ctx.Err() == nil {
		conn, err := t.connect(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logging.Error(ctx, "Market stream reconnection attempts exhausted", logging.Fields{
					logging.FieldError: err.Error(),
					"url":              t.url,
					"max_attempts":     t.maxReconnects,
				})
			}
			return
		}

		t.connected.Store(true)
		metrics.UpdateStreamConnectionStatus(true)
		logging.Info(ctx, "Market stream connected", logging.Fields{
			"url": t.url,
		})

		connectedAt := time.Now()
		err = t.session(ctx, conn)

		t.connected.Store(false)
		metrics.UpdateStreamConnectionStatus(false)
		if ctx.Err() != nil {
			return
		}

		logging.Warn(ctx, "Market stream disconnected, reconnecting", logging.Fields{
			logging.FieldError: err.Error(),
			"url":              t.url,
		})
		metrics.RecordStreamReconnectionAttempt("disconnected")

		// retry-go solo cubre el dial; un servidor que acepta y corta enseguida
		// también tiene que esperar
		if time.Since(connectedAt) >= StableSessionDuration {
			earlyDrops = 0
			continue
		}
		earlyDrops++
		delay := t.earlyDropDelay(earlyDrops)
		logging.Debug(ctx, "Market stream dropped early, backing off", logging.Fields{
			"delay_ms":    delay.Milliseconds(),
			"early_drops": earlyDrops,
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// earlyDropDelay duplica reconnectDelay por cada sesión corta seguida, hasta MaxReconnectDelay
func (t *Trigger) earlyDropDelay(drops int) time.Duration {
	delay := t.reconnectDelay
	for i := 1; i < drops && delay < MaxReconnectDelay; i++ {
		delay *= 2
	}
	return min(delay, MaxReconnectDelay)
}

// connect conecta con backoff exponencial. Con maxReconnects 0 reintenta hasta que ctx termine
func (t *Trigger) connect(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn

	err := retry.Do(
		func() error {
			c, _, err := t.dialer.DialContext(ctx, t.url, nil)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
			}
			conn = c
			return nil
		},
		retry.Attempts(t.maxReconnects),
		retry.Delay(t.reconnectDelay),
		retry.MaxDelay(MaxReconnectDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordStreamReconnectionAttempt("dial_failed")
			logging.Warn(ctx, "Market stream dial failed", logging.Fields{
				logging.FieldError: err.Error(),
				"attempt":          n + 1,
				"url":              t.url,
			})
		}),
	)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// session lee mensajes hasta que la conexión se cae o ctx termina
func (t *Trigger) session(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	// Cerrar la conexión interrumpe ReadMessage cuando ctx termina
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(WriteWait))
		_ = conn.Close()
	})
	defer stop()

	pongWait := 2 * t.pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Si el frame no sale, la lectura reporta la caída después de entregar lo que ya llegó
	if err := t.subscribe(conn); err != nil {
		logging.Warn(ctx, "Market stream subscription failed", logging.Fields{
			logging.FieldError: err.Error(),
			"url":              t.url,
		})
	}

	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go t.pingLoop(pingCtx, conn)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := t.handleMessage(ctx, message); err != nil {
			logging.Warn(ctx, "Error handling market stream message", logging.Fields{
				logging.FieldError: err.Error(),
				"url":              t.url,
			})
		}
	}
}

// subscribe pide el canal market con eventos de ciclo de vida. Sin asset ids
// el feed manda solo eventos de mercado.
func (t *Trigger) subscribe(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(WriteWait))
	err := conn.WriteJSON(subscription{
		Type:                 subscriptionType,
		AssetIDs:             t.assetIDs,
		CustomFeatureEnabled: true,
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s channel: %w", subscriptionType, err)
	}
	return nil
}

// pingLoop envía pings periódicos para mantener la conexión activa
func (t *Trigger) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(t.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteWait)); err != nil {
				return
			}
		}
	}
}

// handleMessage acepta un evento suelto o un array de eventos
func (t *Trigger) handleMessage(ctx context.Context, message []byte) error {
	message = bytes.TrimSpace(message)
	if len(message) == 0 {
		return nil
	}

	var events []Event
	if message[0] == '[' {
		if err := json.Unmarshal(message, &events); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
	} else {
		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		events = append(events, event)
	}

	for _, event := range events {
		action := t.handleEvent(event)
		metrics.RecordStreamEvent(eventLabel(event.EventType), action)
		if action == actionTriggered || action == actionThrottled {
			logging.Debug(ctx, "Market lifecycle event", logging.Fields{
				"event_type": event.EventType,
				"market":     event.Market,
				"action":     action,
			})
		}
	}
	return nil
}

// eventLabel acota la cardinalidad del label event_type
func eventLabel(eventType string) string {
	if lifecycleEvents[eventType] {
		return eventType
	}
	return "other"
}

func (t *Trigger) handleEvent(event Event) string {
	if !lifecycleEvents[event.EventType] {
		return actionIgnored
	}
	if !t.limiter.Allow() {
		return actionThrottled
	}
	if !t.target.RequestRefresh("stream:" + event.EventType) {
		return actionCoalesced
	}
	return actionTriggered
}
