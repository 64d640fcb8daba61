package server

import (
	"strconv"

	"refugio/internal/middleware"
	"refugio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetAdopciones lists every adoption request, for staff review.
func (s *Server) GetAdopciones(c *fiber.Ctx) error {
	adopciones, err := s.adoptionService.List(c.UserContext())
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(adopciones)
}

// GetMisAdopciones lists the caller's own requests.
func (s *Server) GetMisAdopciones(c *fiber.Ctx) error {
	adopciones, err := s.adoptionService.ListByUser(c.UserContext(), middleware.CallerID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(adopciones)
}

// GetAdopcion returns one request. Owners see their own; staff see any.
func (s *Server) GetAdopcion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	adopcion, err := s.adoptionService.Get(
		c.UserContext(), middleware.CallerID(c), middleware.CallerIsStaff(c), id)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(adopcion)
}

// CreateAdopcion files a request from a multipart form with the animal id
// and the supporting PDF (documento).
func (s *Server) CreateAdopcion(c *fiber.Ctx) error {
	animalID, convErr := strconv.Atoi(c.FormValue("animal_id"))
	if convErr != nil || animalID <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Identificador de animal no válido"))
	}

	fh, fhErr := c.FormFile("documento")
	if fhErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("El documento de adopción es obligatorio"))
	}
	documento, upErr := readUpload(fh)
	if upErr != nil {
		return respond(c, upErr)
	}

	adopcion, svcErr := s.adoptionService.Submit(
		c.UserContext(), middleware.CallerID(c), uint(animalID), *documento, false)
	if svcErr != nil {
		return respond(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(adopcion)
}

type estadoRequest struct {
	Estado models.AdoptionStatus `json:"estado"`
}

// SetAdopcionEstado resolves a request. Accepting cascades a rejection to
// every other pending request for the same animal.
func (s *Server) SetAdopcionEstado(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req estadoRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Cuerpo de la petición no válido"))
	}

	adopcion, svcErr := s.adoptionService.SetStatus(c.UserContext(), id, req.Estado)
	if svcErr != nil {
		return respond(c, svcErr)
	}
	return c.Status(fiber.StatusOK).JSON(adopcion)
}

// DeleteAdopcion withdraws a request. Owner or staff only.
func (s *Server) DeleteAdopcion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.adoptionService.Withdraw(
		c.UserContext(), middleware.CallerID(c), middleware.CallerIsStaff(c), id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetDashboard returns the staff overview.
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	dashboard, err := s.dashboardService.Build(c.UserContext())
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dashboard)
}
