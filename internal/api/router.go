// Package api exposes the bot's operational HTTP surface: health probes and
// Prometheus metrics. It serves no chat traffic; the bot reaches Telegram by
// long polling.
package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

// NewRouter builds the Echo instance with all ops routes registered.
// rdb is nil when the in-memory session store is in use.
func NewRouter(backend Pinger, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("attendance_bot_ops"))

	// --- Health probes ---
	healthHandler := NewHealthHandler()
	readinessHandler := NewReadinessHandler(backend, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics (default registry, includes the bot's own metrics) ---
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
