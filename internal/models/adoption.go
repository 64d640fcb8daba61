package models

import (
	"time"
)

// AdoptionStatus defines lifecycle states for adoption requests.
type AdoptionStatus string

const (
	// AdoptionStatusPending indicates the request is awaiting review.
	AdoptionStatusPending AdoptionStatus = "Pendiente"
	// AdoptionStatusAccepted indicates the request was accepted. At most one
	// request per animal may hold this state.
	AdoptionStatusAccepted AdoptionStatus = "Aceptada"
	// AdoptionStatusRejected indicates the request was denied, either directly
	// or by the cascade triggered when a competing request is accepted.
	AdoptionStatusRejected AdoptionStatus = "Rechazada"
)

// Valid reports whether s is one of the known lifecycle states.
func (s AdoptionStatus) Valid() bool {
	switch s {
	case AdoptionStatusPending, AdoptionStatusAccepted, AdoptionStatusRejected:
		return true
	}
	return false
}

// AdoptionRequest is a user's application to adopt a specific animal,
// carrying a supporting PDF document. The (animal, user) pair is unique at
// the store level so concurrent submissions cannot both persist.
type AdoptionRequest struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	AnimalID uint    `gorm:"not null;index;uniqueIndex:idx_adopciones_animal_usuario" json:"animal_id"`
	Animal   *Animal `gorm:"foreignKey:AnimalID" json:"animal,omitempty"`
	UserID   uint    `gorm:"not null;index;uniqueIndex:idx_adopciones_animal_usuario" json:"usuario_id"`
	User     *User   `gorm:"foreignKey:UserID" json:"usuario,omitempty"`
	Status   AdoptionStatus `gorm:"type:varchar(10);not null;default:'Pendiente';index" json:"estado"`
	// DocumentoKey references the supporting PDF in the media store.
	DocumentoKey string `gorm:"size:255;not null" json:"-"`
	DocumentoURL string `gorm:"-" json:"documento,omitempty"`
	// FechaHora is set once at creation and never updated.
	FechaHora time.Time `gorm:"not null;autoCreateTime" json:"fecha_hora"`
	UpdatedAt time.Time `json:"updated_at"`
}
