package repository

import (
	"context"

	"refugio/internal/models"

	"gorm.io/gorm"
)

// AnimalRepository provides access to shelter animals.
type AnimalRepository interface {
	Create(ctx context.Context, animal *models.Animal) error
	GetByID(ctx context.Context, id uint) (*models.Animal, error)
	List(ctx context.Context) ([]models.Animal, error)
	Update(ctx context.Context, animal *models.Animal) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type animalRepository struct {
	db *gorm.DB
}

// NewAnimalRepository creates a GORM-backed AnimalRepository.
func NewAnimalRepository(db *gorm.DB) AnimalRepository {
	return &animalRepository{db: db}
}

func (r *animalRepository) Create(ctx context.Context, animal *models.Animal) error {
	return translate(r.db.WithContext(ctx).Create(animal).Error)
}

func (r *animalRepository) GetByID(ctx context.Context, id uint) (*models.Animal, error) {
	var animal models.Animal
	if err := r.db.WithContext(ctx).First(&animal, id).Error; err != nil {
		return nil, translate(err)
	}
	return &animal, nil
}

// List returns all animals, newest arrivals first.
func (r *animalRepository) List(ctx context.Context) ([]models.Animal, error) {
	var animals []models.Animal
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&animals).Error; err != nil {
		return nil, translate(err)
	}
	return animals, nil
}

func (r *animalRepository) Update(ctx context.Context, animal *models.Animal) error {
	return translate(r.db.WithContext(ctx).Save(animal).Error)
}

// Delete removes the animal and, through the FK constraint, its adoption
// requests.
func (r *animalRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Animal{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *animalRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Animal{}).Count(&n).Error
	return n, translate(err)
}
