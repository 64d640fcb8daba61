package server

import (
	"time"

	"refugio/internal/middleware"
	"refugio/internal/models"
	"refugio/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) newsInputFromForm(c *fiber.Ctx) (service.NewsInput, error) {
	imagen, err := formFile(c, "imagen")
	if err != nil {
		return service.NewsInput{}, err
	}

	in := service.NewsInput{
		Titulo:    c.FormValue("titulo"),
		Contenido: c.FormValue("contenido"),
		Imagen:    imagen,
	}

	if raw := c.FormValue("fecha_publicacion"); raw != "" {
		fecha, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return service.NewsInput{}, models.NewValidationError(
				"La fecha de publicación debe tener el formato AAAA-MM-DD")
		}
		in.FechaPublicacion = fecha
	}
	return in, nil
}

// GetNoticias lists all news posts.
func (s *Server) GetNoticias(c *fiber.Ctx) error {
	noticias, err := s.newsService.List(c.UserContext())
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(noticias)
}

// GetNoticia returns one post.
func (s *Server) GetNoticia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	noticia, err := s.newsService.Get(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(noticia)
}

// CreateNoticia publishes a post and triggers the subscriber fan-out.
func (s *Server) CreateNoticia(c *fiber.Ctx) error {
	in, err := s.newsInputFromForm(c)
	if err != nil {
		return respond(c, err)
	}
	noticia, err := s.newsService.Create(c.UserContext(), in, false)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(noticia)
}

// UpdateNoticia rewrites a post.
func (s *Server) UpdateNoticia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	in, err := s.newsInputFromForm(c)
	if err != nil {
		return respond(c, err)
	}
	noticia, err := s.newsService.Update(c.UserContext(), id, in)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(noticia)
}

// DeleteNoticia removes a post and every comment on it.
func (s *Server) DeleteNoticia(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.newsService.Delete(c.UserContext(), id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type commentRequest struct {
	Contenido string `json:"contenido"`
	ParentID  *uint  `json:"parent_id"`
}

// GetComentarios returns the comment tree of a post.
func (s *Server) GetComentarios(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comentarios, err := s.commentService.ListByNews(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(comentarios)
}

// CreateComentario posts a comment or a reply on a news post.
func (s *Server) CreateComentario(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Cuerpo de la petición no válido"))
	}

	comentario, err := s.commentService.Create(
		c.UserContext(), middleware.CallerID(c), id, req.Contenido, req.ParentID)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comentario)
}

// UpdateComentario rewrites a comment's content. Author only.
func (s *Server) UpdateComentario(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Cuerpo de la petición no válido"))
	}

	comentario, err := s.commentService.Update(
		c.UserContext(), middleware.CallerID(c), id, req.Contenido)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(comentario)
}

// DeleteComentario removes a comment and its replies. Author or staff only.
func (s *Server) DeleteComentario(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.Delete(
		c.UserContext(), middleware.CallerID(c), middleware.CallerIsStaff(c), id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
