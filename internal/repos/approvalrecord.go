package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/types"
)

type ApprovalRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ApprovalRecord) (*types.ApprovalRecord, error)
	GetByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID) (*types.ApprovalRecord, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
}

type approvalRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewApprovalRecordRepo(db *gorm.DB, baseLog *logger.Logger) ApprovalRecordRepo {
	repoLog := baseLog.With("repo", "ApprovalRecordRepo")
	return &approvalRecordRepo{db: db, log: repoLog}
}

func (r *approvalRecordRepo) Create(ctx context.Context, tx *gorm.DB, row *types.ApprovalRecord) (*types.ApprovalRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *approvalRecordRepo) GetByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID) (*types.ApprovalRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ApprovalRecord
	err := transaction.WithContext(ctx).
		Where("child_id = ?", childID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *approvalRecordRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.ApprovalRecord{}).
		Where("id = ?", id).
		Updates(fields).Error
}
