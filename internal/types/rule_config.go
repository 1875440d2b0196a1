package types

import (
	"time"

	"github.com/google/uuid"
)

// RuleConfig is the process-wide singleton read by the sweep and the
// reminder logic. MissedAfterDays governs only the missed notification
// window; the auto-missed transition is unconditional on day count.
type RuleConfig struct {
	ID                       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RescheduleWindowDays     int       `gorm:"column:reschedule_window_days;not null;default:30" json:"reschedule_window_days"`
	PreDueReminderDays       int       `gorm:"column:pre_due_reminder_days;not null;default:3" json:"pre_due_reminder_days"`
	ObservationReminderHours int       `gorm:"column:observation_reminder_hours;not null;default:24" json:"observation_reminder_hours"`
	MissedAfterDays          int       `gorm:"column:missed_after_days;not null;default:2" json:"missed_after_days"`
	HospitalName             string    `gorm:"column:hospital_name;not null;default:'Medical Care Hospital'" json:"hospital_name"`
	CertificateFooterNote    string    `gorm:"column:certificate_footer_note" json:"certificate_footer_note"`
	CreatedAt                time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt                time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (RuleConfig) TableName() string { return "rule_config" }

// DefaultRuleConfig mirrors the column defaults so the sweep can run
// when no row has been created yet.
func DefaultRuleConfig() *RuleConfig {
	return &RuleConfig{
		RescheduleWindowDays:     30,
		PreDueReminderDays:       3,
		ObservationReminderHours: 24,
		MissedAfterDays:          2,
		HospitalName:             "Medical Care Hospital",
	}
}
