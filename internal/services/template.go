package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

type CreateTemplateInput struct {
	Name        string
	Description string
	OffsetValue int
	OffsetUnit  string
}

// TemplateService manages the master catalog. Templates are
// deactivated rather than deleted so existing schedule rows keep a
// valid provenance.
type TemplateService interface {
	Create(ctx context.Context, actor Actor, input CreateTemplateInput) (*types.MasterTemplate, error)
	List(ctx context.Context, actor Actor) ([]*types.MasterTemplate, error)
	ListActive(ctx context.Context) ([]*types.MasterTemplate, error)
	Update(ctx context.Context, actor Actor, templateID uuid.UUID, fields map[string]any) (*types.MasterTemplate, error)
	SetActive(ctx context.Context, actor Actor, templateID uuid.UUID, active bool) (*types.MasterTemplate, error)
}

type templateService struct {
	db           *gorm.DB
	log          *logger.Logger
	templateRepo repos.MasterTemplateRepo
}

func NewTemplateService(db *gorm.DB, log *logger.Logger, templateRepo repos.MasterTemplateRepo) TemplateService {
	serviceLog := log.With("service", "TemplateService")
	return &templateService{db: db, log: serviceLog, templateRepo: templateRepo}
}

func (ts *templateService) Create(ctx context.Context, actor Actor, input CreateTemplateInput) (*types.MasterTemplate, error) {
	if actor.Role != types.RoleAdmin {
		return nil, apierr.Forbidden("only administrators may edit the vaccine catalog")
	}
	if input.Name == "" {
		return nil, apierr.Validation("template name is required")
	}
	if input.OffsetValue < 0 {
		return nil, apierr.Validation("offset value may not be negative")
	}
	if !types.ValidOffsetUnit(input.OffsetUnit) {
		return nil, apierr.Validation("invalid offset unit %q", input.OffsetUnit)
	}

	row := &types.MasterTemplate{
		Name:        input.Name,
		Description: input.Description,
		OffsetValue: input.OffsetValue,
		OffsetUnit:  input.OffsetUnit,
		IsActive:    true,
	}
	created, err := ts.templateRepo.Create(ctx, nil, []*types.MasterTemplate{row})
	if err != nil {
		return nil, err
	}
	ts.log.Info("Created master template", "name", input.Name)
	return created[0], nil
}

func (ts *templateService) List(ctx context.Context, actor Actor) ([]*types.MasterTemplate, error) {
	if !actor.CanAdminister() {
		return nil, apierr.Forbidden("role %s may not read the full catalog", actor.Role)
	}
	return ts.templateRepo.List(ctx, nil)
}

func (ts *templateService) ListActive(ctx context.Context) ([]*types.MasterTemplate, error) {
	return ts.templateRepo.ListActive(ctx, nil)
}

func (ts *templateService) Update(ctx context.Context, actor Actor, templateID uuid.UUID, fields map[string]any) (*types.MasterTemplate, error) {
	if actor.Role != types.RoleAdmin {
		return nil, apierr.Forbidden("only administrators may edit the vaccine catalog")
	}
	if unit, ok := fields["offset_unit"].(string); ok && !types.ValidOffsetUnit(unit) {
		return nil, apierr.Validation("invalid offset unit %q", unit)
	}

	template, err := ts.templateRepo.GetByID(ctx, nil, templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, apierr.NotFound("template %s not found", templateID)
	}
	if err := ts.templateRepo.UpdateFields(ctx, nil, templateID, fields); err != nil {
		return nil, err
	}
	return ts.templateRepo.GetByID(ctx, nil, templateID)
}

func (ts *templateService) SetActive(ctx context.Context, actor Actor, templateID uuid.UUID, active bool) (*types.MasterTemplate, error) {
	return ts.Update(ctx, actor, templateID, map[string]any{"is_active": active})
}
