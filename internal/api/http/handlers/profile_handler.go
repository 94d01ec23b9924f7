package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/clickfood/webapp/internal/api/dto"
	"github.com/clickfood/webapp/internal/auth"
)

// ProfileReader returns the backend profile for a token.
type ProfileReader interface {
	Current(ctx context.Context, token string) (*dto.User, error)
}

// ProfileHandler serves the backend profile of the session's user.
type ProfileHandler struct {
	profiles ProfileReader
}

func NewProfileHandler(profiles ProfileReader) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get returns the cached or freshly fetched profile.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	user, err := h.profiles.Current(c.UserContext(), auth.MustSession(c).Token())
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(user)
}
