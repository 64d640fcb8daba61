package models

import (
	"time"
)

// User is a registered account. Password holds a bcrypt hash and is never
// serialized.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password  string `gorm:"size:128;not null" json:"-"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	// FotoPerfilKey references the avatar in the media store.
	FotoPerfilKey string `gorm:"size:255" json:"-"`
	FotoPerfilURL string `gorm:"-" json:"foto_perfil,omitempty"`
	// RecibirNovedades opts the user into new-animal and news emails.
	RecibirNovedades bool      `gorm:"default:false" json:"recibir_novedades"`
	IsStaff          bool      `gorm:"default:false" json:"is_staff"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Comentarios []Comment         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Adopciones  []AdoptionRequest `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// DisplayName returns the first name when present, otherwise the username.
// Used as the greeting in outbound email.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}
