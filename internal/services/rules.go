package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

type RulesService interface {
	Get(ctx context.Context) (*types.RuleConfig, error)
	Update(ctx context.Context, actor Actor, fields map[string]any) (*types.RuleConfig, error)
}

type rulesService struct {
	db       *gorm.DB
	log      *logger.Logger
	ruleRepo repos.RuleConfigRepo
}

func NewRulesService(db *gorm.DB, log *logger.Logger, ruleRepo repos.RuleConfigRepo) RulesService {
	serviceLog := log.With("service", "RulesService")
	return &rulesService{db: db, log: serviceLog, ruleRepo: ruleRepo}
}

// Get falls back to built-in defaults when no config row exists, so
// the sweep never crashes on a fresh database.
func (rs *rulesService) Get(ctx context.Context) (*types.RuleConfig, error) {
	cfg, err := rs.ruleRepo.Get(ctx, nil)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		rs.log.Debug("No rule config row, using defaults")
		return types.DefaultRuleConfig(), nil
	}
	return cfg, nil
}

func (rs *rulesService) Update(ctx context.Context, actor Actor, fields map[string]any) (*types.RuleConfig, error) {
	if actor.Role != types.RoleAdmin {
		return nil, apierr.Forbidden("only administrators may edit immunization rules")
	}

	cfg, err := rs.ruleRepo.Get(ctx, nil)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = types.DefaultRuleConfig()
		if _, err := rs.ruleRepo.Create(ctx, nil, cfg); err != nil {
			return nil, err
		}
	}
	if err := rs.ruleRepo.UpdateFields(ctx, nil, cfg.ID, fields); err != nil {
		return nil, err
	}
	return rs.ruleRepo.Get(ctx, nil)
}
