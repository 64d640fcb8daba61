package middleware

import (
	"context"

	"refugio/internal/auth"
	"refugio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired validates the access-token cookie and stores the caller's
// identity in locals ("userID", "isStaff") and in the request context for
// the logger. A bearer Authorization header is accepted as a fallback for
// non-browser clients.
func AuthRequired(tokens *auth.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(auth.AccessCookie)
		if tokenString == "" {
			if h := c.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
				tokenString = h[7:]
			}
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Autenticación requerida"))
		}

		claims, err := tokens.ValidateAccess(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Sesión no válida o caducada"))
		}

		c.Locals("userID", claims.UserID)
		c.Locals("isStaff", claims.IsStaff)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
		return c.Next()
	}
}

// StaffRequired gates an endpoint to staff accounts. Must run after
// AuthRequired.
func StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if staff, ok := c.Locals("isStaff").(bool); !ok || !staff {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Se requiere una cuenta de personal"))
		}
		return c.Next()
	}
}

// CallerID returns the authenticated user id set by AuthRequired.
func CallerID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// CallerIsStaff reports whether the authenticated caller is staff.
func CallerIsStaff(c *fiber.Ctx) bool {
	staff, _ := c.Locals("isStaff").(bool)
	return staff
}
