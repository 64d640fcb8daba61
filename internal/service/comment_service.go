package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"refugio/internal/media"
	"refugio/internal/models"
	"refugio/internal/repository"
)

// CommentService manages threaded comments on news posts.
type CommentService struct {
	comments repository.CommentRepository
	news     repository.NewsRepository
	store    media.Store
	now      func() time.Time
}

// NewCommentService creates a CommentService.
func NewCommentService(comments repository.CommentRepository, news repository.NewsRepository, store media.Store) *CommentService {
	return &CommentService{
		comments: comments,
		news:     news,
		store:    store,
		now:      time.Now,
	}
}

// Create posts a comment or a reply. Replies must target a comment on the
// same post and may not push the thread past the maximum depth.
func (s *CommentService) Create(ctx context.Context, userID, newsID uint, contenido string, parentID *uint) (*models.Comment, error) {
	contenido = strings.TrimSpace(contenido)
	if contenido == "" {
		return nil, models.NewValidationError("El comentario no puede estar vacío")
	}

	if _, err := s.news.GetByID(ctx, newsID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Noticia", newsID)
		}
		return nil, models.NewInternalError(err)
	}

	if parentID != nil {
		parent, err := s.comments.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, models.NewNotFoundError("Comentario", *parentID)
			}
			return nil, models.NewInternalError(err)
		}
		if parent.NewsID != newsID {
			return nil, models.NewValidationError("El comentario padre pertenece a otra noticia")
		}
		depth, err := s.depth(ctx, parent)
		if err != nil {
			return nil, err
		}
		if depth+1 > models.MaxReplyDepth {
			return nil, models.NewValidationError("Se ha alcanzado la profundidad máxima de respuestas")
		}
	}

	comment := &models.Comment{
		NewsID:    newsID,
		UserID:    userID,
		Contenido: contenido,
		ParentID:  parentID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.Get(ctx, comment.ID)
}

// depth walks parent links up to the root. A top-level comment is depth 1.
func (s *CommentService) depth(ctx context.Context, comment *models.Comment) (int, error) {
	depth := 1
	current := comment
	for current.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *current.ParentID)
		if err != nil {
			return 0, models.NewInternalError(err)
		}
		depth++
		if depth > models.MaxReplyDepth {
			// The stored tree can never be deeper than the limit; stop early
			// rather than loop on corrupted links.
			return depth, nil
		}
		current = parent
	}
	return depth, nil
}

// Get returns a single comment with presentation fields filled.
func (s *CommentService) Get(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Comentario", id)
		}
		return nil, models.NewInternalError(err)
	}
	s.decorate(comment)
	return comment, nil
}

// ListByNews returns the comment tree of a post: top-level comments oldest
// first, replies nested under each parent, also oldest first.
func (s *CommentService) ListByNews(ctx context.Context, newsID uint) ([]*models.Comment, error) {
	if _, err := s.news.GetByID(ctx, newsID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Noticia", newsID)
		}
		return nil, models.NewInternalError(err)
	}

	flat, err := s.comments.ListByNews(ctx, newsID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	byID := make(map[uint]*models.Comment, len(flat))
	for i := range flat {
		c := &flat[i]
		c.Respuestas = []*models.Comment{}
		s.decorate(c)
		byID[c.ID] = c
	}

	roots := []*models.Comment{}
	for i := range flat {
		c := &flat[i]
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Respuestas = append(parent.Respuestas, c)
		}
	}
	return roots, nil
}

// Update rewrites a comment's content. Only the author may edit; the post,
// the parent link and the original timestamp are immutable.
func (s *CommentService) Update(ctx context.Context, actorID, id uint, contenido string) (*models.Comment, error) {
	contenido = strings.TrimSpace(contenido)
	if contenido == "" {
		return nil, models.NewValidationError("El comentario no puede estar vacío")
	}

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("Comentario", id)
		}
		return nil, models.NewInternalError(err)
	}
	if comment.UserID != actorID {
		return nil, models.NewForbiddenError("Solo el autor puede editar el comentario")
	}

	comment.Contenido = contenido
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	s.decorate(comment)
	return comment, nil
}

// Delete removes a comment and its replies. Only the author or staff may
// delete.
func (s *CommentService) Delete(ctx context.Context, actorID uint, actorIsStaff bool, id uint) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewNotFoundError("Comentario", id)
		}
		return models.NewInternalError(err)
	}
	if comment.UserID != actorID && !actorIsStaff {
		return models.NewForbiddenError("Solo el autor o el personal puede eliminar el comentario")
	}
	if err := s.comments.DeleteSubtree(ctx, id); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *CommentService) decorate(comment *models.Comment) {
	comment.Tiempo = comment.TiempoTranscurrido(s.now())
	if comment.User != nil {
		comment.User.FotoPerfilURL = s.store.URL(comment.User.FotoPerfilKey)
	}
}
