package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCaregiver = "caregiver"
	RoleNurse     = "nurse"
	RoleDoctor    = "doctor"
	RoleAdmin     = "admin"
)

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email     string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Password  string         `gorm:"column:password;not null" json:"-"`
	FullName  string         `gorm:"column:full_name;not null" json:"full_name"`
	Phone     string         `gorm:"column:phone" json:"phone"`
	Role      string         `gorm:"column:role;not null;default:'caregiver'" json:"role"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

// CanAdminister reports whether the role may record vaccine
// administrations and run staff-only schedule actions.
func CanAdminister(role string) bool {
	switch role {
	case RoleNurse, RoleDoctor, RoleAdmin:
		return true
	default:
		return false
	}
}
