package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ScheduleStatusDue    = "DUE"
	ScheduleStatusDone   = "DONE"
	ScheduleStatusMissed = "MISSED"
)

// ScheduleEntry is one vaccine dose due for one child. VaccineName is
// copied from the template at creation time so later template edits do
// not rename historical entries. ScheduledDate never moves after
// creation; RescheduledFor holds the revised plan date.
type ScheduleEntry struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChildID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"child_id"`
	Child                *ChildProfile  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChildID;references:ID" json:"child,omitempty"`
	VaccineName          string         `gorm:"column:vaccine_name;not null" json:"vaccine_name"`
	ScheduledDate        time.Time      `gorm:"column:scheduled_date;type:date;not null;index" json:"scheduled_date"`
	Status               string         `gorm:"column:status;not null;default:'DUE';index" json:"status"`
	Notes                string         `gorm:"column:notes" json:"notes"`
	DateCompleted        *time.Time     `gorm:"column:date_completed;type:date" json:"date_completed,omitempty"`
	VisibleToCaregiver   bool           `gorm:"column:visible_to_caregiver;not null;default:false" json:"visible_to_caregiver"`
	ApprovedBy           *uuid.UUID     `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt           *time.Time     `gorm:"column:approved_at" json:"approved_at,omitempty"`
	AdministeredBy       *uuid.UUID     `gorm:"type:uuid" json:"administered_by,omitempty"`
	AdministeredAt       *time.Time     `gorm:"column:administered_at" json:"administered_at,omitempty"`
	BatchNumber          string         `gorm:"column:batch_number" json:"batch_number"`
	Manufacturer         string         `gorm:"column:manufacturer" json:"manufacturer"`
	AdministrationSite   string         `gorm:"column:administration_site" json:"administration_site"`
	PostObservationNotes string         `gorm:"column:post_observation_notes" json:"post_observation_notes"`
	RescheduledFor       *time.Time     `gorm:"column:rescheduled_for;type:date" json:"rescheduled_for,omitempty"`
	RescheduleReason     string         `gorm:"column:reschedule_reason" json:"reschedule_reason"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ScheduleEntry) TableName() string { return "schedule_entry" }

func ValidScheduleStatus(status string) bool {
	switch status {
	case ScheduleStatusDue, ScheduleStatusDone, ScheduleStatusMissed:
		return true
	default:
		return false
	}
}
