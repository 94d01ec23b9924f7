package auth

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/clickfood/webapp/internal/domain"
)

// segmentDecoder only decodes base64url segments; it is never asked to verify.
var segmentDecoder = jwt.NewParser(jwt.WithPaddingAllowed())

// FlexString accepts a JSON string or number and keeps its textual form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(b))
	}
	*f = FlexString(n.String())
	return nil
}

// Claims is the payload segment of a bearer token.
type Claims struct {
	UserID    FlexString       `json:"user_id,omitempty"`
	UserRole  string           `json:"user_role,omitempty"`
	ChatID    FlexString       `json:"chat_id,omitempty"`
	FirstName string           `json:"first_name,omitempty"`
	NickName  string           `json:"nick_name,omitempty"`
	Source    string           `json:"source,omitempty"`
	Points    *float64         `json:"points,omitempty"`
	StartTime string           `json:"start_time,omitempty"`
	Lang      string           `json:"lang,omitempty"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp,omitempty"`

	// Extra holds every payload field, recognized or not.
	Extra map[string]any `json:"-"`
}

// Identity projects the claims onto an identity. It reports false when the
// subject identifier is missing.
func (c *Claims) Identity() (*domain.Identity, bool) {
	if c == nil || c.UserID == "" {
		return nil, false
	}
	return &domain.Identity{
		ID:        string(c.UserID),
		Role:      domain.ParseRole(c.UserRole),
		Source:    c.Source,
		ChatID:    string(c.ChatID),
		FirstName: c.FirstName,
		NickName:  c.NickName,
	}, true
}

// ExpiredAt reports whether the claims are no longer valid at now.
// Missing expiry counts as expired.
func (c *Claims) ExpiredAt(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return true
	}
	return !now.Before(c.ExpiresAt.Time)
}

// Decode reads the payload of a three-segment token. The signature is not
// checked; any malformed input yields false.
func Decode(token string) (*Claims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, false
	}

	payload, err := segmentDecoder.DecodeSegment(parts[1])
	if err != nil {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return nil, false
	}
	var extra map[string]any
	if err := json.Unmarshal(payload, &extra); err != nil {
		return nil, false
	}

	// A field of the wrong type is left unset instead of rejecting the token.
	claims := Claims{Extra: extra}
	claims.UserID, _ = claimField[FlexString](fields, "user_id")
	claims.UserRole, _ = claimField[string](fields, "user_role")
	claims.ChatID, _ = claimField[FlexString](fields, "chat_id")
	claims.FirstName, _ = claimField[string](fields, "first_name")
	claims.NickName, _ = claimField[string](fields, "nick_name")
	claims.Source, _ = claimField[string](fields, "source")
	claims.Points, _ = claimField[*float64](fields, "points")
	claims.StartTime, _ = claimField[string](fields, "start_time")
	claims.Lang, _ = claimField[string](fields, "lang")
	claims.IssuedAt, _ = claimField[*jwt.NumericDate](fields, "iat")
	claims.ExpiresAt, _ = claimField[*jwt.NumericDate](fields, "exp")
	return &claims, true
}

func claimField[T any](fields map[string]json.RawMessage, name string) (T, bool) {
	var v T
	raw, ok := fields[name]
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// IsExpired reports whether token is unusable right now.
func IsExpired(token string) bool {
	return IsExpiredAt(token, time.Now())
}

// IsExpiredAt is IsExpired against an explicit clock.
func IsExpiredAt(token string, now time.Time) bool {
	claims, ok := Decode(token)
	if !ok {
		return true
	}
	return claims.ExpiredAt(now)
}

// UserIDFromToken returns the user_id claim as a string.
func UserIDFromToken(token string) (string, bool) {
	claims, ok := Decode(token)
	if !ok || claims.UserID == "" {
		return "", false
	}
	return string(claims.UserID), true
}

// RoleFromToken returns the raw user_role claim.
func RoleFromToken(token string) (string, bool) {
	claims, ok := Decode(token)
	if !ok || claims.UserRole == "" {
		return "", false
	}
	return claims.UserRole, true
}

// Fingerprint identifies a token in logs without revealing it.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
