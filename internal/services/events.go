package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

// appendEvent writes one ledger row. Every mutation path funnels
// through here so the event trail stays complete.
func appendEvent(ctx context.Context, tx *gorm.DB, eventRepo repos.EventLogRepo, scheduleID uuid.UUID, eventType string, performedBy *uuid.UUID, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte(`{}`)
	}

	row := &types.EventLogEntry{
		ScheduleID:  scheduleID,
		EventType:   eventType,
		PerformedBy: performedBy,
		Details:     datatypes.JSON(raw),
	}
	_, err = eventRepo.Create(ctx, tx, []*types.EventLogEntry{row})
	return err
}
