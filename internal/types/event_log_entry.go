package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EventAdministered         = "ADMINISTERED"
	EventObservationAdded     = "OBSERVATION_ADDED"
	EventRescheduled          = "RESCHEDULED"
	EventStatusChanged        = "STATUS_CHANGED"
	EventApproved             = "APPROVED"
	EventCertificateGenerated = "CERTIFICATE_GENERATED"
)

// EventLogEntry is the append-only ledger row for everything that
// happens to a schedule. Rows are never updated or deleted.
type EventLogEntry struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ScheduleID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"schedule_id"`
	Schedule    *ScheduleEntry `gorm:"constraint:OnDelete:CASCADE;foreignKey:ScheduleID;references:ID" json:"schedule,omitempty"`
	EventType   string         `gorm:"column:event_type;not null;index" json:"event_type"`
	PerformedBy *uuid.UUID     `gorm:"type:uuid" json:"performed_by,omitempty"`
	Timestamp   time.Time      `gorm:"column:timestamp;not null;default:now()" json:"timestamp"`
	Details     datatypes.JSON `gorm:"type:jsonb;column:details" json:"details"`
}

func (EventLogEntry) TableName() string { return "event_log_entry" }
