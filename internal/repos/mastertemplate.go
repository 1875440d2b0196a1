package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/types"
)

type MasterTemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.MasterTemplate) ([]*types.MasterTemplate, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MasterTemplate, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.MasterTemplate, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.MasterTemplate, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
}

type masterTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMasterTemplateRepo(db *gorm.DB, baseLog *logger.Logger) MasterTemplateRepo {
	repoLog := baseLog.With("repo", "MasterTemplateRepo")
	return &masterTemplateRepo{db: db, log: repoLog}
}

func (r *masterTemplateRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.MasterTemplate) ([]*types.MasterTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.MasterTemplate{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *masterTemplateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MasterTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.MasterTemplate
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

func (r *masterTemplateRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.MasterTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MasterTemplate
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Order("offset_value ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *masterTemplateRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.MasterTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MasterTemplate
	if err := transaction.WithContext(ctx).
		Order("offset_value ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *masterTemplateRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.MasterTemplate{}).
		Where("id = ?", id).
		Updates(fields).Error
}
