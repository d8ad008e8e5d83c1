package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-auth/internal/api/http/handlers"
	"github.com/spec-kit/restaurant-auth/internal/auth"
	"github.com/spec-kit/restaurant-auth/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("connection established")
	})

	api.Post("/users", cfg.Auth.Register)
	api.Post("/login", cfg.Auth.Login)
	api.Post("/refresh-token", cfg.Auth.Refresh)

	api.Get("/protected", cfg.AuthMiddleware.Authenticate, cfg.Auth.Protected)
	api.Get("/users", cfg.AuthMiddleware.Authenticate, cfg.Users.List)

	admin := api.Group("", cfg.AuthMiddleware.Authenticate, auth.RequireRole(domain.RoleAdmin))
	admin.Put("/users/:userId", cfg.Users.AssignRole)
	admin.Post("/admin/users", cfg.Auth.Provision)
}
