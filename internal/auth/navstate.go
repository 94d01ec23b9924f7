package auth

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
)

// NavStateCookie carries NavState across exactly one redirect.
const NavStateCookie = "nav_state"

const navStateTTL = time.Minute

// WriteNavState attaches st to the response.
func WriteNavState(c *fiber.Ctx, st NavState) {
	raw, err := json.Marshal(st)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     NavStateCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		Expires:  time.Now().Add(navStateTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ReadNavState returns the navigation state of the incoming request and
// consumes it.
func ReadNavState(c *fiber.Ctx) (NavState, bool) {
	value := c.Cookies(NavStateCookie)
	if value == "" {
		return NavState{}, false
	}
	c.ClearCookie(NavStateCookie)

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return NavState{}, false
	}
	var st NavState
	if err := json.Unmarshal(raw, &st); err != nil {
		return NavState{}, false
	}
	if !isLocalPath(st.From) {
		st.From = ""
	}
	return st, true
}

// isLocalPath reports whether p is a same-origin absolute path. Browsers
// read "/\host" like "//host", so a backslash after the slash is foreign too.
func isLocalPath(p string) bool {
	if len(p) == 0 || p[0] != '/' {
		return false
	}
	return len(p) == 1 || (p[1] != '/' && p[1] != '\\')
}
