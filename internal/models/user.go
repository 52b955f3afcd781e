package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// ParseRole normalizes s and maps the empty string to RoleBuyer.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleBuyer, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// internal/models/user.go
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `gorm:"not null" json:"name"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;default:'buyer';index" json:"role"`

	Bio       string                      `gorm:"type:text" json:"bio"`
	Skills    datatypes.JSONSlice[string] `json:"skills"`
	Portfolio datatypes.JSONSlice[string] `json:"portfolio"`
	Reviews   datatypes.JSONSlice[string] `json:"reviews"`

	TwoFactorEnabled bool   `gorm:"default:false" json:"twoFactorEnabled"`
	TwoFactorSecret  string `json:"-"`

	GoogleID   *string `gorm:"type:varchar(64);uniqueIndex" json:"googleId,omitempty"`
	FacebookID *string `gorm:"type:varchar(64)" json:"facebookId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
