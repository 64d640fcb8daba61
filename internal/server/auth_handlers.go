package server

import (
	"refugio/internal/auth"
	"refugio/internal/middleware"
	"refugio/internal/models"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and sets the token pair as HttpOnly cookies.
// The response body never carries tokens, only the session owner.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Cuerpo de la petición no válido"))
	}
	if req.Username == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Usuario y contraseña son obligatorios"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respond(c, err)
	}

	access, refresh, err := s.tokens.IssuePair(user.ID, user.IsStaff)
	if err != nil {
		return respond(c, models.NewInternalError(err))
	}
	s.cookies.SetPair(c, access, refresh)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"detail":  "Sesión iniciada",
		"usuario": user,
	})
}

// Refresh rotates the token pair: the presented refresh token is revoked and
// a fresh pair is set in cookies.
func (s *Server) Refresh(c *fiber.Ctx) error {
	tokenString := c.Cookies(auth.RefreshCookie)
	if tokenString == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("No hay sesión que renovar"))
	}

	claims, err := s.tokens.ValidateRefresh(c.UserContext(), tokenString)
	if err != nil {
		s.cookies.Clear(c)
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Sesión no válida o caducada"))
	}

	// The account may have been deleted or had its staff bit changed since
	// the token was minted, so reload before reissuing.
	user, err := s.userService.Get(c.UserContext(), claims.UserID)
	if err != nil {
		s.cookies.Clear(c)
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Sesión no válida o caducada"))
	}

	if err := s.tokens.Revoke(c.UserContext(), claims); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to revoke rotated refresh token",
			"error", err.Error())
	}

	access, refresh, err := s.tokens.IssuePair(user.ID, user.IsStaff)
	if err != nil {
		return respond(c, models.NewInternalError(err))
	}
	s.cookies.SetPair(c, access, refresh)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"detail": "Sesión renovada"})
}

// Logout revokes the refresh token and clears both cookies. Always succeeds
// from the client's point of view.
func (s *Server) Logout(c *fiber.Ctx) error {
	if tokenString := c.Cookies(auth.RefreshCookie); tokenString != "" {
		if claims, err := s.tokens.ValidateRefresh(c.UserContext(), tokenString); err == nil {
			if err := s.tokens.Revoke(c.UserContext(), claims); err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "failed to revoke refresh token on logout",
					"error", err.Error())
			}
		}
	}
	s.cookies.Clear(c)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"detail": "Sesión cerrada"})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword issues a reset token and mails the link. The response is
// identical whether or not the address exists.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("El email es obligatorio"))
	}
	if err := s.userService.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"detail": "Si la dirección existe, recibirás un correo con instrucciones",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Token y contraseña son obligatorios"))
	}
	if err := s.userService.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"detail": "Contraseña restablecida"})
}
