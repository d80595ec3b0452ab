package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ip-manager/internal/api/http/handlers"
	"github.com/spec-kit/ip-manager/internal/auth"
	"github.com/spec-kit/ip-manager/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	IPs            *handlers.IPsHandler
	Export         *handlers.ExportHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware

	// RegisterRequiresAdmin restricts account creation to admins.
	RegisterRequiresAdmin bool
	// StaticDir, when set, serves the built dashboard at the root path.
	StaticDir string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	authn := cfg.AuthMiddleware.Handle

	registerChain := []fiber.Handler{authn}
	if cfg.RegisterRequiresAdmin {
		registerChain = append(registerChain, auth.RequireRole(domain.RoleAdmin))
	}
	registerChain = append(registerChain, cfg.Auth.Register)
	api.Post("/auth/register", registerChain...)

	api.Get("/ips", authn, cfg.IPs.List)
	api.Post("/ips", authn, cfg.IPs.Create)
	api.Put("/ips/:id", authn, cfg.IPs.Update)
	api.Delete("/ips/:id", authn, cfg.IPs.Delete)
	api.Get("/stats", authn, cfg.IPs.Stats)
	api.Get("/export/:format", authn, cfg.Export.Export)
	api.Get("/metrics", authn, cfg.Metrics.Snapshot)

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir, fiber.Static{Index: "index.html"})
	}
}
