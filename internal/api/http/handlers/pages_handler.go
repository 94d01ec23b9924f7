package handlers

import (
	"fmt"
	"html"

	"github.com/gofiber/fiber/v2"

	"github.com/clickfood/webapp/internal/auth"
	"github.com/clickfood/webapp/internal/routes"
)

// PagesHandler renders the placeholder documents of the page routes.
type PagesHandler struct{}

func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

// Page renders route.
func (h *PagesHandler) Page(route routes.Route) fiber.Handler {
	return func(c *fiber.Ctx) error {
		attrs := fmt.Sprintf(`data-route="%s"`, html.EscapeString(string(route.Name)))
		if st, ok := auth.NavStateFromContext(c); ok {
			attrs += fmt.Sprintf(` data-from="%s"`, html.EscapeString(st.From))
		}
		return render(c, fiber.StatusOK, route.Title, attrs)
	}
}

// NotFound renders the catch-all page.
func (h *PagesHandler) NotFound(c *fiber.Ctx) error {
	attrs := fmt.Sprintf(`data-route="%s"`, routes.NotFound)
	return render(c, fiber.StatusNotFound, routes.NotFoundRoute.Title, attrs)
}

func render(c *fiber.Ctx, status int, title, attrs string) error {
	title = html.EscapeString(title)
	c.Type("html")
	return c.Status(status).SendString(fmt.Sprintf(
		`<!doctype html><html><head><title>%s</title></head><body><main %s><h1>%s</h1></main></body></html>`,
		title, attrs, title,
	))
}
