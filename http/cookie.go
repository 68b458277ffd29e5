package http

import (
	"net/http"
	"time"
)

// DefaultSessionMaxAge is how long browsers keep the session cookie.
const DefaultSessionMaxAge = 30 * 24 * time.Hour

// CookieConfig controls the attributes of the session cookie.
type CookieConfig struct {
	// Production adds Secure and scopes the cookie to Domain.
	Production bool
	Domain     string
	// MaxAge defaults to DefaultSessionMaxAge when zero.
	MaxAge time.Duration
}

// Session returns the cookie issued at login.
func (c CookieConfig) Session(id string) *http.Cookie {
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}

	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	c.scope(cookie)
	return cookie
}

// Cleared returns a cookie that makes the browser drop the session cookie.
func (c CookieConfig) Cleared() *http.Cookie {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}
	c.scope(cookie)
	return cookie
}

// scope applies the production attributes. The cleared cookie needs the same
// Domain as the issued one or browsers keep the original.
func (c CookieConfig) scope(cookie *http.Cookie) {
	if !c.Production {
		return
	}
	cookie.Secure = true
	cookie.Domain = c.Domain
}
