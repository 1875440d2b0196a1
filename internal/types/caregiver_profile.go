package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaregiverProfile struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	FullName  string         `gorm:"column:full_name;not null" json:"full_name"`
	Phone     string         `gorm:"column:phone" json:"phone"`
	MemberID  string         `gorm:"column:member_id" json:"member_id"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CaregiverProfile) TableName() string { return "caregiver_profile" }
