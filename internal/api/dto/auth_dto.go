package dto

import "github.com/clickfood/webapp/internal/domain"

// ExchangeRequest is sent to POST /v2/jwt.
type ExchangeRequest struct {
	InitData string `json:"init_data"`
	Source   string `json:"source"`
}

// ExchangeResponse is the backend reply carrying the bearer token.
type ExchangeResponse struct {
	Token string `json:"token" validate:"required"`
}

// LoginRequest triggers an explicit re-authentication.
type LoginRequest struct {
	Source string `json:"source"`
}

// SessionResponse exposes the session state of this shell.
type SessionResponse struct {
	User           *domain.Identity  `json:"user"`
	IsAuth         bool              `json:"is_auth"`
	AuthStatus     domain.AuthStatus `json:"auth_status"`
	IsInitializing bool              `json:"is_initializing"`
	HasToken       bool              `json:"has_token"`
}

// Breadcrumb is one element of the breadcrumb trail.
type Breadcrumb struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	IsLast bool   `json:"is_last"`
}

// BreadcrumbsResponse wraps a breadcrumb trail.
type BreadcrumbsResponse struct {
	Path  string       `json:"path"`
	Items []Breadcrumb `json:"items"`
}

// RouteResponse describes one application route visible to the session.
type RouteResponse struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Title    string        `json:"title"`
	AuthOnly bool          `json:"auth_only"`
	Roles    []domain.Role `json:"roles,omitempty"`
	Active   bool          `json:"active"`
}

// User is the backend's view of the current user (GET /auth/me).
type User struct {
	ID        string      `json:"id"`
	Phone     string      `json:"phone"`
	Name      string      `json:"name,omitempty"`
	Email     string      `json:"email,omitempty"`
	Avatar    string      `json:"avatar,omitempty"`
	Role      domain.Role `json:"role"`
	CreatedAt string      `json:"createdAt"`
	UpdatedAt string      `json:"updatedAt"`
}
