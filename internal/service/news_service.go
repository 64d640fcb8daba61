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

// NewsInput carries the writable fields of a news post.
type NewsInput struct {
	Titulo           string
	Contenido        string
	FechaPublicacion time.Time
	Imagen           *Upload
}

// NewsService manages news posts and their newsletter fan-out.
type NewsService struct {
	news     repository.NewsRepository
	users    repository.UserRepository
	store    media.Store
	notifier *Notifier
	now      func() time.Time
}

// NewNewsService creates a NewsService.
func NewNewsService(news repository.NewsRepository, users repository.UserRepository, store media.Store, notifier *Notifier) *NewsService {
	return &NewsService{
		news:     news,
		users:    users,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

func validateNews(in *NewsInput) error {
	in.Titulo = strings.TrimSpace(in.Titulo)
	in.Contenido = strings.TrimSpace(in.Contenido)
	if in.Titulo == "" {
		return models.NewValidationError("El título es obligatorio")
	}
	if len([]rune(in.Titulo)) > 100 {
		return models.NewValidationError("El título no puede superar los 100 caracteres")
	}
	if in.Contenido == "" {
		return models.NewValidationError("El contenido es obligatorio")
	}
	return nil
}

// Create publishes a post and announces it to newsletter subscribers.
func (s *NewsService) Create(ctx context.Context, in NewsInput, skipNotifications bool) (*models.NewsPost, error) {
	if err := validateNews(&in); err != nil {
		return nil, err
	}
	if in.FechaPublicacion.IsZero() {
		in.FechaPublicacion = s.now()
	}

	post := &models.NewsPost{
		Titulo:           in.Titulo,
		Contenido:        in.Contenido,
		FechaPublicacion: in.FechaPublicacion,
	}

	if in.Imagen != nil {
		key, err := s.store.Save(ctx, media.FolderNoticias, in.Imagen.Filename, in.Imagen.Content)
		if err != nil {
			return nil, models.NewUpstreamError("media store", err)
		}
		post.ImagenKey = key
	}

	if err := s.news.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	s.resolve(post)

	if !skipNotifications {
		subscribers, err := s.users.Subscribers(ctx)
		if err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to load subscribers for news announcement",
				slog.String("error", err.Error()))
		} else {
			s.notifier.NewNews(post, subscribers)
		}
	}

	return post, nil
}

// Get returns one post.
func (s *NewsService) Get(ctx context.Context, id uint) (*models.NewsPost, error) {
	post, err := s.news.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Noticia", id)
		}
		return nil, models.NewInternalError(err)
	}
	s.resolve(post)
	return post, nil
}

// List returns all posts, newest publication first.
func (s *NewsService) List(ctx context.Context) ([]models.NewsPost, error) {
	posts, err := s.news.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range posts {
		s.resolve(&posts[i])
	}
	return posts, nil
}

// Update rewrites the post. A new image replaces and removes the old one.
func (s *NewsService) Update(ctx context.Context, id uint, in NewsInput) (*models.NewsPost, error) {
	if err := validateNews(&in); err != nil {
		return nil, err
	}

	post, err := s.news.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Noticia", id)
		}
		return nil, models.NewInternalError(err)
	}

	oldKey := post.ImagenKey
	post.Titulo = in.Titulo
	post.Contenido = in.Contenido
	if !in.FechaPublicacion.IsZero() {
		post.FechaPublicacion = in.FechaPublicacion
	}

	if in.Imagen != nil {
		key, err := s.store.Save(ctx, media.FolderNoticias, in.Imagen.Filename, in.Imagen.Content)
		if err != nil {
			return nil, models.NewUpstreamError("media store", err)
		}
		post.ImagenKey = key
	}

	if err := s.news.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	if in.Imagen != nil && oldKey != "" && oldKey != post.ImagenKey {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove replaced news image",
				slog.String("key", oldKey), slog.String("error", err.Error()))
		}
	}

	s.resolve(post)
	return post, nil
}

// Delete removes the post, every comment on it, and its stored image.
func (s *NewsService) Delete(ctx context.Context, id uint) error {
	post, err := s.news.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewNotFoundError("Noticia", id)
		}
		return models.NewInternalError(err)
	}

	if err := s.news.Delete(ctx, id); err != nil {
		return models.NewInternalError(err)
	}

	if post.ImagenKey != "" {
		if err := s.store.Delete(ctx, post.ImagenKey); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove deleted news image",
				slog.String("key", post.ImagenKey), slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *NewsService) resolve(post *models.NewsPost) {
	post.ImagenURL = s.store.URL(post.ImagenKey)
}
