package source

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/dispatch"
	"github.com/mikey/chat-spam-guard/internal/metrics"
	"github.com/mikey/chat-spam-guard/internal/ports"
	"github.com/mikey/chat-spam-guard/internal/utils"
	"go.uber.org/zap"
)

// WebsocketSource consumes a chat gateway stream. Every text or binary frame
// carries one JSON event. The connection is redialed with backoff until Stop.
type WebsocketSource struct {
	url       string
	header    http.Header
	admitter  ports.Admitter
	processor *utils.TextProcessor
	logger    *zap.Logger
	dialer    websocket.Dialer

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewWebsocketSource creates a gateway consumer for url
func NewWebsocketSource(url string, admitter ports.Admitter, processor *utils.TextProcessor, logger *zap.Logger) *WebsocketSource {
	return &WebsocketSource{
		url:       url,
		header:    http.Header{"User-Agent": []string{"chat-spam-guard"}},
		admitter:  admitter,
		processor: processor,
		logger:    logger,
		dialer:    websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Name implements ports.EventSource
func (w *WebsocketSource) Name() string {
	return "websocket"
}

func sleepForBackoff(b int) time.Duration {
	if b == 0 {
		return 0
	}
	if b < 50 {
		return time.Millisecond * time.Duration(rand.Intn(100)+(5*b))
	}
	return 5 * time.Second
}

// Start consumes the stream until ctx is cancelled or Stop is called
func (w *WebsocketSource) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	defer cancel()

	w.logger.Info("Websocket source starting", zap.String("url", w.url))

	var backoff int
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sleepForBackoff(backoff)):
		}

		conn, res, err := w.dialer.DialContext(ctx, w.url, w.header)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Warn("Dialing gateway failed", zap.Error(err), zap.Int("backoff", backoff))
			backoff++
			continue
		}
		w.logger.Info("Gateway connected", zap.Int("code", res.StatusCode))
		backoff = 0

		if err := w.consume(ctx, conn); err != nil && ctx.Err() == nil {
			w.logger.Warn("Gateway connection failed", zap.Error(err))
			backoff++
		}
	}
}

func (w *WebsocketSource) consume(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	// unblock ReadMessage on shutdown
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		w.handleFrame(data)
	}
}

func (w *WebsocketSource) handleFrame(data []byte) {
	var event core.Event
	if err := json.Unmarshal(data, &event); err != nil {
		metrics.EventsRejected.WithLabelValues("undecodable").Inc()
		w.logger.Debug("Skipping undecodable frame", zap.Int("size", len(data)), zap.Error(err))
		return
	}
	w.processor.NormalizeEvent(&event)

	err := w.admitter.Submit(&event)
	switch {
	case err == nil:
	case errors.Is(err, dispatch.ErrQueueFull):
		w.logger.Warn("Dropping event, queue full", zap.String("author_id", event.AuthorID))
	case errors.Is(err, core.ErrMalformedEvent):
		w.logger.Debug("Skipping malformed event", zap.Error(err))
	default:
		w.logger.Warn("Failed to submit event", zap.String("author_id", event.AuthorID), zap.Error(err))
	}
}

// Stop ends Start; the open connection is closed with a normal closure frame
func (w *WebsocketSource) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
	return nil
}
