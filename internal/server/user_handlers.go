package server

import (
	"strings"

	"refugio/internal/middleware"
	"refugio/internal/models"
	"refugio/internal/service"
	"refugio/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Register creates an account from a multipart form. The avatar field
// (foto_perfil) is optional.
func (s *Server) Register(c *fiber.Ctx) error {
	foto, err := formFile(c, "foto_perfil")
	if err != nil {
		return respond(c, err)
	}

	in := service.RegisterInput{
		Username:         c.FormValue("username"),
		Email:            c.FormValue("email"),
		Password:         c.FormValue("password"),
		FirstName:        c.FormValue("first_name"),
		LastName:         c.FormValue("last_name"),
		RecibirNovedades: parseBool(c.FormValue("recibir_novedades")),
		FotoPerfil:       foto,
	}

	user, err := s.userService.Register(c.UserContext(), in, false)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Me returns the authenticated user's own account.
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.userService.Get(c.UserContext(), middleware.CallerID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// UpdateMe applies partial profile changes from a multipart form. Only the
// fields present in the form are touched.
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	foto, err := formFile(c, "foto_perfil")
	if err != nil {
		return respond(c, err)
	}

	var in service.ProfileInput
	in.FotoPerfil = foto

	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Se esperaba un formulario multipart"))
	}
	if v, ok := formValue(form.Value, "email"); ok {
		in.Email = &v
	}
	if v, ok := formValue(form.Value, "first_name"); ok {
		in.FirstName = &v
	}
	if v, ok := formValue(form.Value, "last_name"); ok {
		in.LastName = &v
	}
	if v, ok := formValue(form.Value, "recibir_novedades"); ok {
		b := parseBool(v)
		in.RecibirNovedades = &b
	}
	if v, ok := formValue(form.Value, "password"); ok {
		in.Password = &v
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), middleware.CallerID(c), in)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// DeleteMe removes the caller's own account and ends the session.
func (s *Server) DeleteMe(c *fiber.Ctx) error {
	id := middleware.CallerID(c)
	if err := s.userService.Delete(c.UserContext(), id, middleware.CallerIsStaff(c), id); err != nil {
		return respond(c, err)
	}
	s.cookies.Clear(c)
	return c.SendStatus(fiber.StatusNoContent)
}

type contactRequest struct {
	Nombre  string `json:"nombre"`
	Email   string `json:"email"`
	Asunto  string `json:"asunto"`
	Mensaje string `json:"mensaje"`
}

// Contact forwards a contact-form submission to the shelter inbox.
func (s *Server) Contact(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Cuerpo de la petición no válido"))
	}
	req.Nombre = strings.TrimSpace(req.Nombre)
	req.Asunto = strings.TrimSpace(req.Asunto)
	req.Mensaje = strings.TrimSpace(req.Mensaje)
	if req.Nombre == "" || req.Asunto == "" || req.Mensaje == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Nombre, asunto y mensaje son obligatorios"))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	s.notifier.ContactMessage(req.Nombre, req.Email, req.Asunto, req.Mensaje)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"detail": "Mensaje enviado"})
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes", "si", "sí":
		return true
	}
	return false
}

func formValue(values map[string][]string, key string) (string, bool) {
	if vs, ok := values[key]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}
