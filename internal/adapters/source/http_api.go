package source

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/dispatch"
	"github.com/mikey/chat-spam-guard/internal/ports"
	"github.com/mikey/chat-spam-guard/internal/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// HTTPError is the JSON body of every non-2xx response
type HTTPError struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// HealthStatus is the body of the health endpoint
type HealthStatus struct {
	Status string `json:"status"`
}

// HTTPAPI accepts events and configuration changes over HTTP
type HTTPAPI struct {
	scorer     ports.Scorer
	admitter   ports.Admitter
	processor  *utils.TextProcessor
	logger     *zap.Logger
	listenAddr string

	echo     *echo.Echo
	stopOnce sync.Once
}

// NewHTTPAPI creates the HTTP event source and registers its routes
func NewHTTPAPI(
	scorer ports.Scorer,
	admitter ports.Admitter,
	processor *utils.TextProcessor,
	logger *zap.Logger,
	listenAddr string,
) *HTTPAPI {
	s := &HTTPAPI{
		scorer:     scorer,
		admitter:   admitter,
		processor:  processor,
		logger:     logger,
		listenAddr: listenAddr,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("HTTP request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))
	e.HTTPErrorHandler = s.handleError

	e.GET("/_health", s.handleHealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/v1/evaluate", s.handleEvaluate)
	e.POST("/v1/events", s.handleSubmit)
	e.GET("/v1/thresholds", s.handleGetThresholds)
	e.PATCH("/v1/thresholds", s.handlePatchThresholds)
	e.POST("/v1/authors/:id/false-positive", s.handleFalsePositive)
	s.echo = e

	return s
}

// Handler exposes the router, mainly for tests
func (s *HTTPAPI) Handler() http.Handler {
	return s.echo
}

// Name implements ports.EventSource
func (s *HTTPAPI) Name() string {
	return "http"
}

// Start serves until Stop is called or ctx is cancelled
func (s *HTTPAPI) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	s.logger.Info("HTTP API starting", zap.String("address", s.listenAddr))
	if err := s.echo.Start(s.listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down
func (s *HTTPAPI) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = s.echo.Shutdown(ctx)
		s.logger.Info("HTTP API stopped")
	})
	return err
}

func (s *HTTPAPI) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := HTTPError{Error: err.Error()}

	var he *echo.HTTPError
	var ce *core.ConfigurationError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			body.Error = msg
		}
	case errors.As(err, &ce):
		code = http.StatusUnprocessableEntity
		body.Field = ce.Field
	case errors.Is(err, core.ErrMalformedEvent):
		code = http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownAuthor):
		code = http.StatusNotFound
	case errors.Is(err, dispatch.ErrQueueFull):
		code = http.StatusTooManyRequests
	case errors.Is(err, core.ErrEngineClosed), errors.Is(err, dispatch.ErrStopped):
		code = http.StatusServiceUnavailable
	case errors.Is(err, core.ErrReputationUnavailable):
		code = http.StatusBadGateway
	}

	if code >= http.StatusInternalServerError {
		s.logger.Warn("HTTP request error",
			zap.Int("status", code),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	if err := c.JSON(code, body); err != nil {
		s.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (s *HTTPAPI) handleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{Status: "ok"})
}

func (s *HTTPAPI) bindEvent(c echo.Context) (*core.Event, error) {
	var event core.Event
	if err := c.Bind(&event); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid event body")
	}
	s.processor.NormalizeEvent(&event)
	return &event, nil
}

func (s *HTTPAPI) handleEvaluate(c echo.Context) error {
	event, err := s.bindEvent(c)
	if err != nil {
		return err
	}
	verdict, err := s.scorer.Evaluate(c.Request().Context(), event)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verdict)
}

func (s *HTTPAPI) handleSubmit(c echo.Context) error {
	event, err := s.bindEvent(c)
	if err != nil {
		return err
	}
	if err := s.admitter.Submit(event); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *HTTPAPI) handleGetThresholds(c echo.Context) error {
	return c.JSON(http.StatusOK, newThresholdsBody(s.scorer.Thresholds()))
}

func (s *HTTPAPI) handlePatchThresholds(c echo.Context) error {
	var body thresholdsPatchBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid thresholds body")
	}
	patch, err := body.toPatch()
	if err != nil {
		return err
	}
	applied, err := s.scorer.UpdateThresholds(patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newThresholdsBody(applied))
}

func (s *HTTPAPI) handleFalsePositive(c echo.Context) error {
	if err := s.scorer.ReportFalsePositive(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
