package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/types"
)

type ChildProfileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ChildProfile) ([]*types.ChildProfile, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChildProfile, error)
	GetByCaregiverID(ctx context.Context, tx *gorm.DB, caregiverID uuid.UUID) ([]*types.ChildProfile, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.ChildProfile, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
}

type childProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChildProfileRepo(db *gorm.DB, baseLog *logger.Logger) ChildProfileRepo {
	repoLog := baseLog.With("repo", "ChildProfileRepo")
	return &childProfileRepo{db: db, log: repoLog}
}

func (r *childProfileRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ChildProfile) ([]*types.ChildProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.ChildProfile{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *childProfileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChildProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ChildProfile
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *childProfileRepo) GetByCaregiverID(ctx context.Context, tx *gorm.DB, caregiverID uuid.UUID) ([]*types.ChildProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ChildProfile
	if caregiverID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("caregiver_id = ?", caregiverID).
		Order("date_of_birth ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *childProfileRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.ChildProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ChildProfile
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *childProfileRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.ChildProfile{}).
		Where("id = ?", id).
		Updates(fields).Error
}
