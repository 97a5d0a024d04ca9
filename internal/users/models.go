package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAudience  Role = "AUDIENCE"
	RoleOrganiser Role = "ORGANISER"
	RoleAdmin     Role = "ADMIN"
)

type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	FullName  string    `json:"full_name" gorm:"not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone     string    `json:"phone,omitempty"`
	Password  string    `json:"-" gorm:"not null"` // hide in json
	Role      Role      `json:"role" gorm:"not null;default:'AUDIENCE'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key when the caller left it empty
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ParseRole normalises a role name, falling back to audience for anything unknown.
// Admins cannot be self-registered.
func ParseRole(role string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(role))) {
	case RoleOrganiser:
		return RoleOrganiser
	default:
		return RoleAudience
	}
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleAudience, RoleOrganiser, RoleAdmin:
		return true
	default:
		return false
	}
}
