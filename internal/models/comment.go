package models

import (
	"fmt"
	"time"
)

// MaxReplyDepth is the deepest allowed comment nesting. A top-level comment
// sits at depth 1; replies past depth 3 are rejected.
const MaxReplyDepth = 3

// Comment is a user comment on a news post. Threading is stored as a flat
// parent link; the nested representation is assembled at read time.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	NewsID    uint      `gorm:"not null;index" json:"noticia_id"`
	News      *NewsPost `gorm:"foreignKey:NewsID" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"usuario_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"usuario,omitempty"`
	Contenido string    `gorm:"type:text;not null" json:"contenido"`
	ParentID  *uint     `gorm:"index" json:"parent_id,omitempty"`
	// Parent backs the self-referential foreign key so replies are removed
	// at the database level whenever their parent row goes away.
	Parent *Comment `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	// FechaHora is set once at creation and never updated.
	FechaHora time.Time `gorm:"not null;autoCreateTime" json:"fecha_hora"`
	// Tiempo is the compact elapsed-time rendering, filled at read time.
	Tiempo string `gorm:"-" json:"tiempo,omitempty"`

	// Respuestas holds the nested reply subtree, ordered by creation time
	// ascending. Populated at read time, never persisted.
	Respuestas []*Comment `gorm:"-" json:"respuestas"`
}

// TiempoTranscurrido renders the elapsed time since the comment was created
// in compact form ("45s", "3m", "2h", "5d", "1mo").
func (c *Comment) TiempoTranscurrido(now time.Time) string {
	s := int(now.Sub(c.FechaHora).Seconds())
	switch {
	case s < 60:
		return fmt.Sprintf("%ds", s)
	case s < 3600:
		return fmt.Sprintf("%dm", s/60)
	case s < 86400:
		return fmt.Sprintf("%dh", s/3600)
	case s < 2592000:
		return fmt.Sprintf("%dd", s/86400)
	default:
		return fmt.Sprintf("%dmo", s/2592000)
	}
}
