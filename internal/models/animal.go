// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Animal is a shelter animal available for adoption.
type Animal struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Nombre string `gorm:"size:50;not null" json:"nombre"`
	// FechaNacimiento must never be in the future; enforced by the service.
	FechaNacimiento time.Time `gorm:"not null" json:"fecha_nacimiento"`
	// Edad is recomputed from FechaNacimiento on every write.
	Edad      int       `json:"edad"`
	Situacion string    `gorm:"type:text" json:"situacion"`
	ImagenKey string    `gorm:"size:255" json:"-"`
	ImagenURL string    `gorm:"-" json:"imagen,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Adopciones []AdoptionRequest `gorm:"foreignKey:AnimalID;constraint:OnDelete:CASCADE" json:"-"`
}

// AgeAt returns the animal's age in whole years at the given date.
func (a *Animal) AgeAt(at time.Time) int {
	years := at.Year() - a.FechaNacimiento.Year()
	birthday := time.Date(at.Year(), a.FechaNacimiento.Month(), a.FechaNacimiento.Day(), 0, 0, 0, 0, time.UTC)
	if at.Before(birthday) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
