package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/types"
)

// EventLogRepo is append-only: no update or delete methods on purpose.
type EventLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.EventLogEntry) ([]*types.EventLogEntry, error)
	GetByScheduleID(ctx context.Context, tx *gorm.DB, scheduleID uuid.UUID) ([]*types.EventLogEntry, error)
	GetByScheduleIDs(ctx context.Context, tx *gorm.DB, scheduleIDs []uuid.UUID) ([]*types.EventLogEntry, error)
}

type eventLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventLogRepo(db *gorm.DB, baseLog *logger.Logger) EventLogRepo {
	repoLog := baseLog.With("repo", "EventLogRepo")
	return &eventLogRepo{db: db, log: repoLog}
}

func (r *eventLogRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.EventLogEntry) ([]*types.EventLogEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.EventLogEntry{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *eventLogRepo) GetByScheduleID(ctx context.Context, tx *gorm.DB, scheduleID uuid.UUID) ([]*types.EventLogEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.EventLogEntry
	if scheduleID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("timestamp ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *eventLogRepo) GetByScheduleIDs(ctx context.Context, tx *gorm.DB, scheduleIDs []uuid.UUID) ([]*types.EventLogEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.EventLogEntry
	if len(scheduleIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("schedule_id IN ?", scheduleIDs).
		Order("timestamp ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
