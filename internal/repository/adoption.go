package repository

import (
	"context"
	"errors"

	"refugio/internal/models"

	"gorm.io/gorm"
)

// ErrAnimalAdopted is returned by Accept when another request for the same
// animal already holds the accepted status.
var ErrAnimalAdopted = errors.New("animal already adopted")

// AdoptionRepository provides access to adoption requests and implements the
// accept cascade atomically.
type AdoptionRepository interface {
	Create(ctx context.Context, req *models.AdoptionRequest) error
	GetByID(ctx context.Context, id uint) (*models.AdoptionRequest, error)
	List(ctx context.Context) ([]models.AdoptionRequest, error)
	ListByUser(ctx context.Context, userID uint) ([]models.AdoptionRequest, error)
	// HasRequest reports whether the user already has a request for the animal,
	// in any state.
	HasRequest(ctx context.Context, animalID, userID uint) (bool, error)
	// Accept marks the request accepted and rejects every other request for
	// the same animal that is still pending, all in one transaction. It
	// fails with ErrAnimalAdopted when a different request for the animal is
	// already accepted. It returns the requests flipped to rejected, with
	// users preloaded, so the caller can notify them.
	Accept(ctx context.Context, id uint) (*models.AdoptionRequest, []models.AdoptionRequest, error)
	// Reject marks a single request rejected.
	Reject(ctx context.Context, id uint) (*models.AdoptionRequest, error)
	Delete(ctx context.Context, id uint) error
	Recent(ctx context.Context, limit int) ([]models.AdoptionRequest, error)
	CountPending(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type adoptionRepository struct {
	db *gorm.DB
}

// NewAdoptionRepository creates a GORM-backed AdoptionRepository.
func NewAdoptionRepository(db *gorm.DB) AdoptionRepository {
	return &adoptionRepository{db: db}
}

func (r *adoptionRepository) Create(ctx context.Context, req *models.AdoptionRequest) error {
	return translate(r.db.WithContext(ctx).Create(req).Error)
}

func (r *adoptionRepository) GetByID(ctx context.Context, id uint) (*models.AdoptionRequest, error) {
	var req models.AdoptionRequest
	err := r.db.WithContext(ctx).
		Preload("Animal").
		Preload("User").
		First(&req, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// List returns all requests, newest first, for staff review.
func (r *adoptionRepository) List(ctx context.Context) ([]models.AdoptionRequest, error) {
	var reqs []models.AdoptionRequest
	err := r.db.WithContext(ctx).
		Preload("Animal").
		Preload("User").
		Order("fecha_hora DESC, id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, translate(err)
	}
	return reqs, nil
}

func (r *adoptionRepository) ListByUser(ctx context.Context, userID uint) ([]models.AdoptionRequest, error) {
	var reqs []models.AdoptionRequest
	err := r.db.WithContext(ctx).
		Preload("Animal").
		Where("user_id = ?", userID).
		Order("fecha_hora DESC, id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, translate(err)
	}
	return reqs, nil
}

func (r *adoptionRepository) HasRequest(ctx context.Context, animalID, userID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Where("animal_id = ? AND user_id = ?", animalID, userID).
		Count(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (r *adoptionRepository) Accept(ctx context.Context, id uint) (*models.AdoptionRequest, []models.AdoptionRequest, error) {
	var accepted models.AdoptionRequest
	var rejected []models.AdoptionRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Animal").Preload("User").First(&accepted, id).Error; err != nil {
			return translate(err)
		}

		// The animal can only be adopted once. The check runs inside the
		// transaction so two concurrent accepts cannot both get through.
		var taken int64
		if err := tx.Model(&models.AdoptionRequest{}).
			Where("animal_id = ? AND id <> ? AND status = ?",
				accepted.AnimalID, accepted.ID, models.AdoptionStatusAccepted).
			Count(&taken).Error; err != nil {
			return translate(err)
		}
		if taken > 0 {
			return ErrAnimalAdopted
		}

		// Collect the competing requests before flipping them so the caller
		// gets their users for notification. Only rows still pending move;
		// already-resolved requests are left untouched.
		if err := tx.Preload("User").
			Where("animal_id = ? AND id <> ? AND status = ?",
				accepted.AnimalID, accepted.ID, models.AdoptionStatusPending).
			Find(&rejected).Error; err != nil {
			return translate(err)
		}

		if err := tx.Model(&models.AdoptionRequest{}).
			Where("animal_id = ? AND id <> ? AND status = ?",
				accepted.AnimalID, accepted.ID, models.AdoptionStatusPending).
			Update("status", models.AdoptionStatusRejected).Error; err != nil {
			return translate(err)
		}

		if err := tx.Model(&accepted).
			Update("status", models.AdoptionStatusAccepted).Error; err != nil {
			return translate(err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for i := range rejected {
		rejected[i].Status = models.AdoptionStatusRejected
	}
	return &accepted, rejected, nil
}

func (r *adoptionRepository) Reject(ctx context.Context, id uint) (*models.AdoptionRequest, error) {
	var req models.AdoptionRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Animal").Preload("User").First(&req, id).Error; err != nil {
			return translate(err)
		}
		return translate(tx.Model(&req).
			Update("status", models.AdoptionStatusRejected).Error)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *adoptionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.AdoptionRequest{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Recent returns the latest requests, for the dashboard.
func (r *adoptionRepository) Recent(ctx context.Context, limit int) ([]models.AdoptionRequest, error) {
	var reqs []models.AdoptionRequest
	err := r.db.WithContext(ctx).
		Preload("Animal").
		Preload("User").
		Order("fecha_hora DESC, id DESC").
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, translate(err)
	}
	return reqs, nil
}

func (r *adoptionRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Where("status = ?", models.AdoptionStatusPending).
		Count(&n).Error
	return n, translate(err)
}

func (r *adoptionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.AdoptionRequest{}).Count(&n).Error
	return n, translate(err)
}
