package http

import (
	"context"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/events"
)

// ShellNavigator performs hard navigations for the web shell. The target is
// announced as EventHardReset and the next page navigation is sent there.
type ShellNavigator struct {
	bus    events.Dispatcher
	logger *zap.Logger

	mu      sync.Mutex
	pending string
}

// NewShellNavigator builds a navigator publishing on bus.
func NewShellNavigator(bus events.Dispatcher, logger *zap.Logger) *ShellNavigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShellNavigator{bus: bus, logger: logger.Named("navigator")}
}

// HardNavigate implements auth.Navigator and client.Navigator.
func (n *ShellNavigator) HardNavigate(ctx context.Context, target string) {
	n.mu.Lock()
	n.pending = target
	n.mu.Unlock()

	n.logger.Info("hard navigation", zap.String("target", target))
	if n.bus == nil {
		return
	}
	err := n.bus.Publish(ctx, events.Event{
		Type:    events.EventHardReset,
		Payload: events.HardResetPayload{Target: target},
	})
	if err != nil {
		n.logger.Warn("hard reset listener failed", zap.Error(err))
	}
}

// TakePending returns and forgets the pending navigation target.
func (n *ShellNavigator) TakePending() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	target := n.pending
	n.pending = ""
	return target, target != ""
}

// Pending redirects the next page navigation to a pending hard navigation target.
func (n *ShellNavigator) Pending() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}
		target, ok := n.TakePending()
		if !ok || samePath(target, c.Path()) {
			return c.Next()
		}
		return c.Redirect(target, fiber.StatusFound)
	}
}

func samePath(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
