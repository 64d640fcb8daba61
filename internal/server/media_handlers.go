package server

import (
	"refugio/internal/media"
	"refugio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ServeMedia streams a stored object by key. Only available when the media
// store is disk-backed; a bucket-backed store serves objects directly.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	key := c.Params("*")
	if !media.ValidKey(key) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Archivo", key))
	}

	disk, ok := s.store.(*media.DiskStore)
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Archivo", key))
	}

	path, err := disk.Path(key)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Archivo", key))
	}
	if err := c.SendFile(path); err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Archivo", key))
	}
	return nil
}
