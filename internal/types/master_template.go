package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OffsetUnitDays   = "days"
	OffsetUnitWeeks  = "weeks"
	OffsetUnitMonths = "months"
)

// MasterTemplate is one row of the admin-configured immunization
// catalog. Templates are deactivated, never deleted, once schedules
// reference their name.
type MasterTemplate struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	OffsetValue int            `gorm:"column:offset_value;not null;default:0" json:"offset_value"`
	OffsetUnit  string         `gorm:"column:offset_unit;not null;default:'days'" json:"offset_unit"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MasterTemplate) TableName() string { return "master_template" }

func ValidOffsetUnit(unit string) bool {
	switch unit {
	case OffsetUnitDays, OffsetUnitWeeks, OffsetUnitMonths:
		return true
	default:
		return false
	}
}
