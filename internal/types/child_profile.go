package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChildProfile struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CaregiverID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"caregiver_id"`
	Caregiver    *CaregiverProfile `gorm:"constraint:OnDelete:CASCADE;foreignKey:CaregiverID;references:ID" json:"caregiver,omitempty"`
	Name         string            `gorm:"column:name;not null" json:"name"`
	DateOfBirth  time.Time         `gorm:"column:date_of_birth;type:date;not null" json:"date_of_birth"`
	Gender       string            `gorm:"column:gender" json:"gender"`
	HospitalID   string            `gorm:"column:hospital_id;uniqueIndex" json:"hospital_id"`
	RegisteredBy *uuid.UUID        `gorm:"type:uuid" json:"registered_by,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChildProfile) TableName() string { return "child_profile" }
