package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"refugio/internal/media"
	"refugio/internal/middleware"
	"refugio/internal/models"
	"refugio/internal/repository"
)

// Upload is a file received from a multipart form.
type Upload struct {
	Filename string
	Content  []byte
}

// AnimalInput carries the writable fields of an animal.
type AnimalInput struct {
	Nombre          string
	FechaNacimiento time.Time
	Situacion       string
	// Imagen replaces the current photo when present.
	Imagen *Upload
}

// AnimalService manages shelter animals and the arrival announcements.
type AnimalService struct {
	animals  repository.AnimalRepository
	users    repository.UserRepository
	store    media.Store
	notifier *Notifier
	now      func() time.Time
}

// NewAnimalService creates an AnimalService.
func NewAnimalService(animals repository.AnimalRepository, users repository.UserRepository, store media.Store, notifier *Notifier) *AnimalService {
	return &AnimalService{
		animals:  animals,
		users:    users,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *AnimalService) validate(in *AnimalInput) error {
	in.Nombre = strings.TrimSpace(in.Nombre)
	if in.Nombre == "" {
		return models.NewValidationError("El nombre es obligatorio")
	}
	if len([]rune(in.Nombre)) > 50 {
		return models.NewValidationError("El nombre no puede superar los 50 caracteres")
	}
	if in.FechaNacimiento.IsZero() {
		return models.NewValidationError("La fecha de nacimiento es obligatoria")
	}
	if in.FechaNacimiento.After(s.now()) {
		return models.NewValidationError("La fecha de nacimiento no puede ser futura")
	}
	return nil
}

// Create registers a new animal and announces it to newsletter subscribers.
// skipNotifications suppresses the fan-out (used by seeding).
func (s *AnimalService) Create(ctx context.Context, in AnimalInput, skipNotifications bool) (*models.Animal, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	animal := &models.Animal{
		Nombre:          in.Nombre,
		FechaNacimiento: in.FechaNacimiento,
		Situacion:       in.Situacion,
	}
	animal.Edad = animal.AgeAt(s.now())

	if in.Imagen != nil {
		key, err := s.store.Save(ctx, media.FolderAnimales, in.Imagen.Filename, in.Imagen.Content)
		if err != nil {
			return nil, models.NewUpstreamError("media store", err)
		}
		animal.ImagenKey = key
	}

	if err := s.animals.Create(ctx, animal); err != nil {
		return nil, models.NewInternalError(err)
	}
	s.resolve(animal)

	if !skipNotifications {
		subscribers, err := s.users.Subscribers(ctx)
		if err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to load subscribers for animal announcement",
				slog.String("error", err.Error()))
		} else {
			s.notifier.NewAnimal(animal, subscribers)
		}
	}

	return animal, nil
}

// Get returns one animal with its age recomputed as of today.
func (s *AnimalService) Get(ctx context.Context, id uint) (*models.Animal, error) {
	animal, err := s.animals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Animal", id)
		}
		return nil, models.NewInternalError(err)
	}
	animal.Edad = animal.AgeAt(s.now())
	s.resolve(animal)
	return animal, nil
}

// List returns all animals, ages recomputed.
func (s *AnimalService) List(ctx context.Context) ([]models.Animal, error) {
	animals, err := s.animals.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	now := s.now()
	for i := range animals {
		animals[i].Edad = animals[i].AgeAt(now)
		s.resolve(&animals[i])
	}
	return animals, nil
}

// Update rewrites the animal's fields. A new photo replaces and removes the
// previous one.
func (s *AnimalService) Update(ctx context.Context, id uint, in AnimalInput) (*models.Animal, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	animal, err := s.animals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Animal", id)
		}
		return nil, models.NewInternalError(err)
	}

	oldKey := animal.ImagenKey
	animal.Nombre = in.Nombre
	animal.FechaNacimiento = in.FechaNacimiento
	animal.Situacion = in.Situacion
	animal.Edad = animal.AgeAt(s.now())

	if in.Imagen != nil {
		key, err := s.store.Save(ctx, media.FolderAnimales, in.Imagen.Filename, in.Imagen.Content)
		if err != nil {
			return nil, models.NewUpstreamError("media store", err)
		}
		animal.ImagenKey = key
	}

	if err := s.animals.Update(ctx, animal); err != nil {
		return nil, models.NewInternalError(err)
	}

	if in.Imagen != nil && oldKey != "" && oldKey != animal.ImagenKey {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove replaced animal image",
				slog.String("key", oldKey), slog.String("error", err.Error()))
		}
	}

	s.resolve(animal)
	return animal, nil
}

// Delete removes the animal, its adoption requests and its stored photo.
func (s *AnimalService) Delete(ctx context.Context, id uint) error {
	animal, err := s.animals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewNotFoundError("Animal", id)
		}
		return models.NewInternalError(err)
	}

	if err := s.animals.Delete(ctx, id); err != nil {
		return models.NewInternalError(err)
	}

	if animal.ImagenKey != "" {
		if err := s.store.Delete(ctx, animal.ImagenKey); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove deleted animal image",
				slog.String("key", animal.ImagenKey), slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *AnimalService) resolve(animal *models.Animal) {
	animal.ImagenURL = s.store.URL(animal.ImagenKey)
}
