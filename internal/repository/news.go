package repository

import (
	"context"

	"refugio/internal/models"

	"gorm.io/gorm"
)

// NewsRepository provides access to news posts.
type NewsRepository interface {
	Create(ctx context.Context, post *models.NewsPost) error
	GetByID(ctx context.Context, id uint) (*models.NewsPost, error)
	List(ctx context.Context) ([]models.NewsPost, error)
	Update(ctx context.Context, post *models.NewsPost) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type newsRepository struct {
	db *gorm.DB
}

// NewNewsRepository creates a GORM-backed NewsRepository.
func NewNewsRepository(db *gorm.DB) NewsRepository {
	return &newsRepository{db: db}
}

func (r *newsRepository) Create(ctx context.Context, post *models.NewsPost) error {
	return translate(r.db.WithContext(ctx).Create(post).Error)
}

func (r *newsRepository) GetByID(ctx context.Context, id uint) (*models.NewsPost, error) {
	var post models.NewsPost
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// List returns all posts, most recent publication first.
func (r *newsRepository) List(ctx context.Context) ([]models.NewsPost, error) {
	var posts []models.NewsPost
	if err := r.db.WithContext(ctx).Order("fecha_publicacion DESC").Find(&posts).Error; err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (r *newsRepository) Update(ctx context.Context, post *models.NewsPost) error {
	return translate(r.db.WithContext(ctx).Save(post).Error)
}

// Delete removes the post and every comment on it, replies included, in one
// transaction. The comment subtree is removed explicitly because reply links
// are plain parent ids without an FK cascade.
func (r *newsRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("news_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&models.NewsPost{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *newsRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.NewsPost{}).Count(&n).Error
	return n, translate(err)
}
