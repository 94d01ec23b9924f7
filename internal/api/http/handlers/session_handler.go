package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/api/client"
	"github.com/clickfood/webapp/internal/api/dto"
	"github.com/clickfood/webapp/internal/auth"
	"github.com/clickfood/webapp/internal/launch"
	"github.com/clickfood/webapp/internal/routes"
	"github.com/clickfood/webapp/internal/service"
	apperrors "github.com/clickfood/webapp/pkg/util/errorutil"
)

const maxSourceLength = 128

// Reauthenticator runs the credential exchange on demand.
type Reauthenticator interface {
	Reauthenticate(ctx context.Context, source string) error
}

// PendingNavigation hands out the target of the last hard navigation.
type PendingNavigation interface {
	TakePending() (string, bool)
}

// SessionHandler exposes the session of this shell.
type SessionHandler struct {
	reauth Reauthenticator
	nav    PendingNavigation
	logger *zap.Logger
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(reauth Reauthenticator, nav PendingNavigation, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{reauth: reauth, nav: nav, logger: logger}
}

// Get returns the current session state.
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	return c.JSON(sessionResponse(auth.MustSession(c)))
}

// Refetch re-reads the token store and returns the resulting state.
func (h *SessionHandler) Refetch(c *fiber.Ctx) error {
	session := auth.MustSession(c)
	session.Refetch(c.UserContext())
	return c.JSON(sessionResponse(session))
}

// Logout clears the session and follows the hard navigation it triggers.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	auth.MustSession(c).Logout(c.UserContext())

	target := routes.PathMain
	if pending, ok := h.nav.TakePending(); ok {
		target = pending
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

// Login exchanges the launch credential again.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	if len(req.Source) > maxSourceLength {
		return apperrors.NewValidationError("source too long", map[string]any{"max": maxSourceLength})
	}

	if err := h.reauth.Reauthenticate(c.UserContext(), req.Source); err != nil {
		h.logger.Warn("re-authentication failed", zap.Error(err))
		return loginError(err)
	}
	return c.JSON(sessionResponse(auth.MustSession(c)))
}

// Me returns the identity of an authenticated session.
func (h *SessionHandler) Me(c *fiber.Ctx) error {
	return c.JSON(auth.MustSession(c).CurrentIdentity())
}

func sessionResponse(session *auth.Session) dto.SessionResponse {
	st := session.State()
	return dto.SessionResponse{
		User:           st.Identity,
		IsAuth:         st.IsAuthenticated,
		AuthStatus:     st.Status,
		IsInitializing: st.IsInitializing,
		HasToken:       st.Token != "",
	}
}

func loginError(err error) error {
	switch {
	case errors.Is(err, launch.ErrNotInHost):
		return apperrors.NewServiceUnavailable("launch parameters unavailable", nil)
	case errors.Is(err, service.ErrUnusableToken):
		return apperrors.NewUnauthorized("credential rejected")
	case errors.Is(err, client.ErrEmptyToken):
		return apperrors.NewUpstreamError(fiber.StatusOK, err)
	default:
		return upstreamError(err)
	}
}

// upstreamError maps a failed backend call onto the shell's error envelope.
func upstreamError(err error) error {
	var statusErr *client.StatusError
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return apperrors.NewUnauthorized("credential rejected")
	case errors.As(err, &statusErr):
		return apperrors.NewUpstreamError(statusErr.Status, err)
	default:
		return apperrors.NewUpstreamError(0, err)
	}
}
