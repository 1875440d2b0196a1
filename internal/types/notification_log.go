package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	NotificationChannelEmail = "EMAIL"
	NotificationChannelSMS   = "SMS"

	NotificationTypeSchedule = "SCHEDULE"
	NotificationTypeReminder = "REMINDER"
)

type NotificationLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RecipientID *uuid.UUID     `gorm:"type:uuid;index" json:"recipient_id,omitempty"`
	Channel     string         `gorm:"column:channel;not null" json:"channel"`
	Type        string         `gorm:"column:type;not null" json:"type"`
	Message     string         `gorm:"column:message" json:"message"`
	Success     bool           `gorm:"column:success;not null;default:false" json:"success"`
	Meta        datatypes.JSON `gorm:"type:jsonb;column:meta" json:"meta"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (NotificationLog) TableName() string { return "notification_log" }
