package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clickfood/webapp/internal/api/http/handlers"
	"github.com/clickfood/webapp/internal/auth"
	"github.com/clickfood/webapp/internal/domain"
	"github.com/clickfood/webapp/internal/routes"
	apperrors "github.com/clickfood/webapp/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Session    *handlers.SessionHandler
	Pages      *handlers.PagesHandler
	Navigation *handlers.NavigationHandler
	Profile    *handlers.ProfileHandler

	AuthSession *auth.Session
	Guard       *auth.Guard
	Navigator   *ShellNavigator
}

// RegisterRoutes wires the probes, the session API and one page per route
// table entry.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Use(auth.Provide(cfg.AuthSession))

	api := app.Group("/api")
	api.Get("/session", cfg.Session.Get)
	api.Post("/session/refetch", cfg.Session.Refetch)
	api.Post("/session/logout", cfg.Session.Logout)
	api.Post("/session/login", cfg.Session.Login)
	api.Get("/me", auth.RequireAuthenticated(), cfg.Session.Me)
	api.Get("/profile", auth.RequireAuthenticated(), cfg.Profile.Get)
	api.Get("/superadmin/metrics", auth.RequireRole(domain.RoleSuperadmin), cfg.Health.Metrics)
	api.Get("/breadcrumbs", cfg.Navigation.Breadcrumbs)
	api.Get("/routes", cfg.Navigation.Routes)
	api.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("endpoint")
	})

	for _, route := range routes.Table() {
		app.Get(route.Path, pageHandlers(cfg, route)...)
	}
	app.Use(cfg.Navigator.Pending(), cfg.Pages.NotFound)
}

func pageHandlers(cfg RouteConfig, route routes.Route) []fiber.Handler {
	chain := []fiber.Handler{cfg.Navigator.Pending()}
	switch route.Access {
	case routes.Authenticated:
		chain = append(chain, cfg.Guard.Protected(auth.GuardOptions{Roles: route.Roles}))
	case routes.PublicOnly:
		chain = append(chain, cfg.Guard.PublicOnly(""))
	}
	return append(chain, cfg.Pages.Page(route))
}
