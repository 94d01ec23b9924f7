package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clickfood/webapp/internal/domain"
	apperrors "github.com/clickfood/webapp/pkg/util/errorutil"
)

// RequireAuthenticated rejects API calls from an unauthenticated session
// with 401 instead of redirecting.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !MustSession(c).IsAuthenticated() {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireRole rejects API calls whose identity role is outside allowed.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := MustSession(c)
		if !session.IsAuthenticated() {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) > 0 && !session.HasRole(allowed...) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
