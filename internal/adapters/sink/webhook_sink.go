package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/mikey/chat-spam-guard/internal/core"
	"go.uber.org/zap"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	defaultWebhookRetries = 3
)

// WebhookOption configures a WebhookSink
type WebhookOption func(*WebhookSink)

// WithHeaders sets custom HTTP headers sent with every POST
func WithHeaders(h map[string]string) WebhookOption {
	return func(s *WebhookSink) { s.headers = h }
}

// WithTimeout sets the overall HTTP timeout per verdict, retries included
func WithTimeout(d time.Duration) WebhookOption {
	return func(s *WebhookSink) { s.client.Timeout = d }
}

// WithRetries sets how often a failed delivery is retried
func WithRetries(n int) WebhookOption {
	return func(s *WebhookSink) { s.retryMax = n }
}

// WithRetryWait sets the bounds of the retry backoff
func WithRetryWait(lo, hi time.Duration) WebhookOption {
	return func(s *WebhookSink) { s.waitMin, s.waitMax = lo, hi }
}

// leveledZap adapts zap to retryablehttp and demotes per-attempt errors to warnings
type leveledZap struct {
	inner *zap.SugaredLogger
}

func (l leveledZap) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

func (l leveledZap) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

// WebhookSink POSTs each verdict as JSON to an HTTP endpoint, retrying on
// connection errors and 5xx responses
type WebhookSink struct {
	url      string
	headers  map[string]string
	client   *http.Client
	retryMax int
	waitMin  time.Duration
	waitMax  time.Duration
}

// NewWebhookSink creates a webhook sink targeting url
func NewWebhookSink(url string, logger *zap.Logger, opts ...WebhookOption) *WebhookSink {
	s := &WebhookSink{
		url:      url,
		client:   &http.Client{Timeout: defaultWebhookTimeout},
		retryMax: defaultWebhookRetries,
		waitMin:  500 * time.Millisecond,
		waitMax:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = s.retryMax
	retryClient.RetryWaitMin = s.waitMin
	retryClient.RetryWaitMax = s.waitMax
	retryClient.Logger = retryablehttp.LeveledLogger(leveledZap{logger.Sugar()})
	client := retryClient.StandardClient()
	client.Timeout = s.client.Timeout
	s.client = client
	return s
}

// Publish implements core.ModerationSink
func (s *WebhookSink) Publish(ctx context.Context, v *core.Verdict) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, val := range s.headers {
		req.Header.Set(k, val)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Close implements core.ModerationSink
func (s *WebhookSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
