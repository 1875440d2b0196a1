package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/types"
)

type NotificationLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.NotificationLog) ([]*types.NotificationLog, error)
	GetByRecipientID(ctx context.Context, tx *gorm.DB, recipientID uuid.UUID, limit int) ([]*types.NotificationLog, error)
}

type notificationLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationLogRepo(db *gorm.DB, baseLog *logger.Logger) NotificationLogRepo {
	repoLog := baseLog.With("repo", "NotificationLogRepo")
	return &notificationLogRepo{db: db, log: repoLog}
}

func (r *notificationLogRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.NotificationLog) ([]*types.NotificationLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.NotificationLog{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *notificationLogRepo) GetByRecipientID(ctx context.Context, tx *gorm.DB, recipientID uuid.UUID, limit int) ([]*types.NotificationLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.NotificationLog
	if recipientID == uuid.Nil {
		return results, nil
	}

	q := transaction.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
