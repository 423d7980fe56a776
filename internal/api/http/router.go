package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-voice/internal/api/http/handlers"
	"github.com/spec-kit/campus-voice/internal/auth"
	"github.com/spec-kit/campus-voice/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Concerns        *handlers.ConcernsHandler
	Admin           *handlers.AdminHandler
	Stream          *handlers.StreamHandler
	SessionResolver *auth.SessionResolver
}

// RegisterRoutes wires HTTP routes. Every protected route resolves the
// session fresh and then runs the role guard before its handler.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login/:role", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)

	api := app.Group("/api", cfg.SessionResolver.Handle)

	api.Post("/concerns",
		auth.RequireRole(domain.RoleSubmitter, domain.RoleStaff), cfg.Concerns.Create)
	api.Get("/concerns/:id/comments",
		auth.RequireRole(domain.RoleSubmitter, domain.RoleStaff, domain.RoleAdmin), cfg.Concerns.Comments)

	dash := api.Group("/dashboard")
	dash.Get("/submitter", auth.RequireRole(domain.RoleSubmitter), cfg.Concerns.Dashboard)
	dash.Get("/submitter/stream", auth.RequireRole(domain.RoleSubmitter), cfg.Stream.Owned)
	dash.Get("/staff", auth.RequireRole(domain.RoleStaff), cfg.Concerns.Dashboard)
	dash.Get("/staff/stream", auth.RequireRole(domain.RoleStaff), cfg.Stream.Owned)
	dash.Get("/admin", auth.RequireRole(domain.RoleAdmin), cfg.Admin.Dashboard)
	dash.Get("/admin/stream", auth.RequireRole(domain.RoleAdmin), cfg.Stream.All)

	api.Patch("/admin/concerns/:id",
		auth.RequireRole(domain.RoleAdmin), cfg.Admin.Update)
}
