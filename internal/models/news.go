package models

import (
	"time"
)

// NewsPost is a shelter news article (noticia).
type NewsPost struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Titulo           string    `gorm:"size:100;not null" json:"titulo"`
	Contenido        string    `gorm:"type:text;not null" json:"contenido"`
	FechaPublicacion time.Time `gorm:"not null" json:"fecha_publicacion"`
	ImagenKey        string    `gorm:"size:255" json:"-"`
	ImagenURL        string    `gorm:"-" json:"imagen,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Comentarios []Comment `gorm:"foreignKey:NewsID;constraint:OnDelete:CASCADE" json:"-"`
}
