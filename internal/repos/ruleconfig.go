package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/types"
)

type RuleConfigRepo interface {
	Get(ctx context.Context, tx *gorm.DB) (*types.RuleConfig, error)
	Create(ctx context.Context, tx *gorm.DB, row *types.RuleConfig) (*types.RuleConfig, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
}

type ruleConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRuleConfigRepo(db *gorm.DB, baseLog *logger.Logger) RuleConfigRepo {
	repoLog := baseLog.With("repo", "RuleConfigRepo")
	return &ruleConfigRepo{db: db, log: repoLog}
}

func (r *ruleConfigRepo) Get(ctx context.Context, tx *gorm.DB) (*types.RuleConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.RuleConfig
	err := transaction.WithContext(ctx).
		Order("created_at ASC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ruleConfigRepo) Create(ctx context.Context, tx *gorm.DB, row *types.RuleConfig) (*types.RuleConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *ruleConfigRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.RuleConfig{}).
		Where("id = ?", id).
		Updates(fields).Error
}
