package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/types"
)

type CaregiverProfileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.CaregiverProfile) ([]*types.CaregiverProfile, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CaregiverProfile, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CaregiverProfile, error)
}

type caregiverProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCaregiverProfileRepo(db *gorm.DB, baseLog *logger.Logger) CaregiverProfileRepo {
	repoLog := baseLog.With("repo", "CaregiverProfileRepo")
	return &caregiverProfileRepo{db: db, log: repoLog}
}

func (r *caregiverProfileRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.CaregiverProfile) ([]*types.CaregiverProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.CaregiverProfile{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *caregiverProfileRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CaregiverProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CaregiverProfile
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *caregiverProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CaregiverProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.CaregiverProfile
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
