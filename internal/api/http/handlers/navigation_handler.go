package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clickfood/webapp/internal/api/dto"
	"github.com/clickfood/webapp/internal/auth"
	"github.com/clickfood/webapp/internal/routes"
	apperrors "github.com/clickfood/webapp/pkg/util/errorutil"
)

// NavigationHandler serves route metadata for the shell's navigation chrome.
type NavigationHandler struct{}

func NewNavigationHandler() *NavigationHandler {
	return &NavigationHandler{}
}

// Breadcrumbs returns the trail for the path query parameter.
func (h *NavigationHandler) Breadcrumbs(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return apperrors.NewValidationError("path required", nil)
	}

	crumbs := routes.Breadcrumbs(path)
	items := make([]dto.Breadcrumb, 0, len(crumbs))
	for _, b := range crumbs {
		items = append(items, dto.Breadcrumb{Label: b.Label, Path: b.Path, IsLast: b.IsLast})
	}
	return c.JSON(dto.BreadcrumbsResponse{Path: path, Items: items})
}

// Routes lists the routes the current session may open. When the path query
// parameter is set, matching routes are flagged active.
func (h *NavigationHandler) Routes(c *fiber.Ctx) error {
	identity := auth.MustSession(c).CurrentIdentity()
	current := c.Query("path")
	exact := c.QueryBool("exact", false)

	out := make([]dto.RouteResponse, 0)
	for _, r := range routes.Table() {
		if !r.VisibleTo(identity) {
			continue
		}
		out = append(out, dto.RouteResponse{
			Name:     string(r.Name),
			Path:     r.Path,
			Title:    r.Title,
			AuthOnly: r.Access == routes.Authenticated,
			Roles:    r.Roles,
			Active:   current != "" && routes.IsActive(current, r.Path, exact),
		})
	}
	return c.JSON(out)
}
