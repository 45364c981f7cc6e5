package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/api/http/handlers"
	"github.com/spec-kit/incident-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	SubmitLimiter  *WindowLimiter
	AuthLimiter    *IPLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	health := app.Group("/health")
	health.Get("/live", cfg.Health.Live)
	health.Get("/ready", cfg.Health.Ready)
	health.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.AuthLimiter.Handle, cfg.Auth.Register)
	authGroup.Post("/login", cfg.AuthLimiter.Handle, cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	reports := app.Group("/reports")
	reports.Post("/", cfg.SubmitLimiter.Handle, cfg.Reports.Submit)
	reports.Post("/analyze-image", cfg.AuthLimiter.Handle, cfg.Reports.AnalyzeImage)
	reports.Get("/track/:customId", cfg.Reports.Track)
	reports.Get("/", cfg.AuthMiddleware.Optional, cfg.Reports.List)

	operator := reports.Group("", cfg.AuthMiddleware.Handle, auth.RequireIdentity())
	operator.Get("/:id", cfg.Reports.Get)
	operator.Patch("/:customId/status", cfg.Reports.UpdateStatus)
	operator.Get("/:customId/history", cfg.Reports.History)
}
