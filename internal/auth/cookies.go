package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Cookie names for the JWT pair. Tokens travel only in these cookies, never
// in response bodies.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// CookieWriter writes and clears the auth cookies with consistent attributes.
type CookieWriter struct {
	Domain string
	Secure bool
}

// SetPair writes both tokens as HttpOnly cookies. SameSite is None because
// the frontend lives on a different origin; that requires Secure in
// production.
func (w CookieWriter) SetPair(c *fiber.Ctx, access, refresh string) {
	c.Cookie(w.cookie(AccessCookie, access, AccessTokenTTL))
	c.Cookie(w.cookie(RefreshCookie, refresh, RefreshTokenTTL))
}

// Clear expires both cookies.
func (w CookieWriter) Clear(c *fiber.Ctx) {
	c.Cookie(w.expired(AccessCookie))
	c.Cookie(w.expired(RefreshCookie))
}

func (w CookieWriter) cookie(name, value string, ttl time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   w.Domain,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   w.Secure,
		SameSite: fiber.CookieSameSiteNoneMode,
	}
}

func (w CookieWriter) expired(name string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   w.Domain,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   w.Secure,
		SameSite: fiber.CookieSameSiteNoneMode,
	}
}
