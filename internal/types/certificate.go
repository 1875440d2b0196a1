package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Certificate is the one-per-child completion snapshot. It is
// overwritten, not duplicated, when the all-DONE condition re-triggers.
// Rendering the snapshot into a document happens outside this service.
type Certificate struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChildID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"child_id"`
	Child        *ChildProfile  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChildID;references:ID" json:"child,omitempty"`
	GeneratedAt  time.Time      `gorm:"column:generated_at;not null;default:now()" json:"generated_at"`
	GeneratedBy  *uuid.UUID     `gorm:"type:uuid" json:"generated_by,omitempty"`
	DataSnapshot datatypes.JSON `gorm:"type:jsonb;column:data_snapshot" json:"data_snapshot"`
}

func (Certificate) TableName() string { return "certificate" }

// CertificateItem is one element of the ordered snapshot stored in
// DataSnapshot (scheduled_date ascending).
type CertificateItem struct {
	VaccineName   string  `json:"vaccine_name"`
	ScheduledDate string  `json:"scheduled_date"`
	Status        string  `json:"status"`
	DateCompleted *string `json:"date_completed"`
}
