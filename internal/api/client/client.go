package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/api/dto"
	"github.com/clickfood/webapp/internal/config"
)

// LoginPath is where a rejected bearer token sends the shell.
const LoginPath = "/login"

const (
	exchangePath    = "/v2/jwt"
	currentUserPath = "/auth/me"
)

var (
	// ErrEmptyToken is returned when the exchange reply carries no token.
	ErrEmptyToken = errors.New("JWT token not found in response")
	// ErrUnauthorized is returned after the backend answered 401.
	ErrUnauthorized = errors.New("backend rejected credentials")
)

// StatusError is a non-2xx backend reply.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
}

// TokenSource supplies and discards the bearer token.
type TokenSource interface {
	Get(ctx context.Context) (string, bool)
	Clear(ctx context.Context)
}

// Navigator performs a hard navigation.
type Navigator interface {
	HardNavigate(ctx context.Context, target string)
}

// Client talks to the storefront backend.
type Client struct {
	http       *fiber.Client
	baseURL    string
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	tokens     TokenSource
	nav        Navigator
	validate   *validator.Validate
	logger     *zap.Logger

	mu         sync.Mutex
	resetHooks []func(context.Context)
}

// New builds a client. nav may be nil.
func New(cfg config.APIConfig, tokens TokenSource, nav Navigator, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:       &fiber.Client{UserAgent: "clickfood-webapp"},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout(),
		retries:    cfg.RetryCount,
		retryDelay: 200 * time.Millisecond,
		tokens:     tokens,
		nav:        nav,
		validate:   validator.New(),
		logger:     logger.Named("api_client"),
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// OnReset registers a hook run when a 401 forces a full client-side reset.
func (c *Client) OnReset(hook func(context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetHooks = append(c.resetHooks, hook)
}

// Get performs a query. Transport failures and 5xx replies are retried.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, fiber.MethodGet, path, nil, out)
}

// Post performs a mutation. Mutations are never retried.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, fiber.MethodPost, path, body, out)
}

// ExchangeInitData trades the host platform's launch credential for a bearer token.
func (c *Client) ExchangeInitData(ctx context.Context, initData, source string) (string, error) {
	var resp dto.ExchangeResponse
	req := dto.ExchangeRequest{InitData: initData, Source: source}
	if err := c.Post(ctx, exchangePath, req, &resp); err != nil {
		return "", fmt.Errorf("exchange init data: %w", err)
	}
	if err := c.validate.Struct(resp); err != nil {
		return "", ErrEmptyToken
	}
	return resp.Token, nil
}

// CurrentUser fetches the backend profile of the token holder.
func (c *Client) CurrentUser(ctx context.Context) (*dto.User, error) {
	var user dto.User
	if err := c.Get(ctx, currentUserPath, &user); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	attempts := 1
	if method == fiber.MethodGet {
		attempts += c.retries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
			c.logger.Debug("retrying request", zap.String("method", method), zap.String("path", path), zap.Int("attempt", attempt+1))
		}

		status, respBody, err := c.send(ctx, method, path, body)
		if err != nil {
			lastErr = fmt.Errorf("%s %s: %w", method, path, err)
			continue
		}

		switch {
		case status == fiber.StatusUnauthorized:
			c.handleUnauthorized(ctx)
			return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
		case status >= fiber.StatusInternalServerError:
			lastErr = &StatusError{Method: method, Path: path, Status: status, Body: string(respBody)}
			continue
		case status < 200 || status >= 300:
			return &StatusError{Method: method, Path: path, Status: status, Body: string(respBody)}
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decode %s %s response: %w", method, path, err)
			}
		}
		return nil
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, path string, body any) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	var agent *fiber.Agent
	switch method {
	case fiber.MethodGet:
		agent = c.http.Get(url)
	case fiber.MethodPost:
		agent = c.http.Post(url)
	default:
		return 0, nil, fmt.Errorf("unsupported method %s", method)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	agent.Timeout(timeout)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.ContentType(fiber.MIMEApplicationJSON)
	if token, ok := c.tokens.Get(ctx); ok {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		agent.JSON(body)
	}

	status, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return 0, nil, errors.Join(errs...)
	}
	return status, respBody, nil
}

func (c *Client) handleUnauthorized(ctx context.Context) {
	c.logger.Warn("backend answered 401; resetting client state")
	c.tokens.Clear(ctx)

	c.mu.Lock()
	hooks := append([]func(context.Context){}, c.resetHooks...)
	c.mu.Unlock()
	for _, hook := range hooks {
		hook(ctx)
	}

	if c.nav != nil {
		c.nav.HardNavigate(ctx, LoginPath)
	}
}
