package repository

import (
	"context"

	"refugio/internal/models"

	"gorm.io/gorm"
)

// CommentRepository provides access to news comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// ListByNews returns every comment on a post, oldest first, with users
	// preloaded. Threading is assembled by the service.
	ListByNews(ctx context.Context, newsID uint) ([]models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	// DeleteSubtree removes a comment and all its descendant replies.
	DeleteSubtree(ctx context.Context, id uint) error
	Recent(ctx context.Context, limit int) ([]models.Comment, error)
	Count(ctx context.Context) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a GORM-backed CommentRepository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return translate(r.db.WithContext(ctx).Create(comment).Error)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByNews(ctx context.Context, newsID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("news_id = ?", newsID).
		Order("fecha_hora ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, translate(err)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return translate(r.db.WithContext(ctx).Save(comment).Error)
}

// DeleteSubtree walks the reply tree breadth-first and deletes every level
// in one transaction, leaves last not required since links are plain ids.
func (r *commentRepository) DeleteSubtree(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []uint{id}
		frontier := []uint{id}
		for len(frontier) > 0 {
			var next []uint
			if err := tx.Model(&models.Comment{}).
				Where("parent_id IN ?", frontier).
				Pluck("id", &next).Error; err != nil {
				return translate(err)
			}
			ids = append(ids, next...)
			frontier = next
		}

		res := tx.Delete(&models.Comment{}, ids)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Recent returns the latest comments across all posts, for the dashboard.
func (r *commentRepository) Recent(ctx context.Context, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("News").
		Order("fecha_hora DESC, id DESC").
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, translate(err)
	}
	return comments, nil
}

func (r *commentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Count(&n).Error
	return n, translate(err)
}
