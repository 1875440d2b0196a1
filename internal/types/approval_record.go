package types

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalRecord is the one-per-child gate that makes the schedule set
// visible to the caregiver. Re-approving updates ApprovedBy in place.
type ApprovalRecord struct {
	ID         uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChildID    uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex" json:"child_id"`
	Child      *ChildProfile `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChildID;references:ID" json:"child,omitempty"`
	ApprovedBy *uuid.UUID    `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt time.Time     `gorm:"column:approved_at;not null;default:now()" json:"approved_at"`
	Notes      string        `gorm:"column:notes" json:"notes"`
}

func (ApprovalRecord) TableName() string { return "approval_record" }
