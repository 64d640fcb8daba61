package server

import (
	"time"

	"refugio/internal/models"
	"refugio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// animalInputFromForm parses the multipart form shared by create and update.
func (s *Server) animalInputFromForm(c *fiber.Ctx) (service.AnimalInput, error) {
	imagen, err := formFile(c, "imagen")
	if err != nil {
		return service.AnimalInput{}, err
	}

	in := service.AnimalInput{
		Nombre:    c.FormValue("nombre"),
		Situacion: c.FormValue("situacion"),
		Imagen:    imagen,
	}

	if raw := c.FormValue("fecha_nacimiento"); raw != "" {
		fecha, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return service.AnimalInput{}, models.NewValidationError(
				"La fecha de nacimiento debe tener el formato AAAA-MM-DD")
		}
		in.FechaNacimiento = fecha
	}
	return in, nil
}

// GetAnimales lists all animals.
func (s *Server) GetAnimales(c *fiber.Ctx) error {
	animales, err := s.animalService.List(c.UserContext())
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(animales)
}

// GetAnimal returns one animal.
func (s *Server) GetAnimal(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	animal, err := s.animalService.Get(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(animal)
}

// CreateAnimal registers a new animal and triggers the subscriber fan-out.
func (s *Server) CreateAnimal(c *fiber.Ctx) error {
	in, err := s.animalInputFromForm(c)
	if err != nil {
		return respond(c, err)
	}
	animal, err := s.animalService.Create(c.UserContext(), in, false)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(animal)
}

// UpdateAnimal rewrites an animal's fields.
func (s *Server) UpdateAnimal(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	in, err := s.animalInputFromForm(c)
	if err != nil {
		return respond(c, err)
	}
	animal, err := s.animalService.Update(c.UserContext(), id, in)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(animal)
}

// DeleteAnimal removes an animal and its adoption requests.
func (s *Server) DeleteAnimal(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.animalService.Delete(c.UserContext(), id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
