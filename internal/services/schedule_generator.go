package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

type ScheduleGenerator interface {
	Generate(ctx context.Context, tx *gorm.DB, childID uuid.UUID, dateOfBirth time.Time) ([]*types.ScheduleEntry, error)
}

type scheduleGenerator struct {
	db           *gorm.DB
	log          *logger.Logger
	templateRepo repos.MasterTemplateRepo
	scheduleRepo repos.ScheduleEntryRepo
}

func NewScheduleGenerator(db *gorm.DB, log *logger.Logger, templateRepo repos.MasterTemplateRepo, scheduleRepo repos.ScheduleEntryRepo) ScheduleGenerator {
	serviceLog := log.With("service", "ScheduleGenerator")
	return &scheduleGenerator{db: db, log: serviceLog, templateRepo: templateRepo, scheduleRepo: scheduleRepo}
}

// DueDate computes a template's due date from the date of birth.
// Months are a flat 30-day multiple, not calendar months; existing
// schedule dates depend on this, so it must not be "fixed".
func DueDate(dateOfBirth time.Time, template *types.MasterTemplate) time.Time {
	dob := dateOnly(dateOfBirth)
	switch template.OffsetUnit {
	case types.OffsetUnitDays:
		return dob.AddDate(0, 0, template.OffsetValue)
	case types.OffsetUnitWeeks:
		return dob.AddDate(0, 0, template.OffsetValue*7)
	case types.OffsetUnitMonths:
		return dob.AddDate(0, 0, template.OffsetValue*30)
	default:
		return dob
	}
}

// Generate creates one DUE entry per active template. Called exactly
// once per child, by registration; an empty catalog yields zero
// entries, not an error.
func (sg *scheduleGenerator) Generate(ctx context.Context, tx *gorm.DB, childID uuid.UUID, dateOfBirth time.Time) ([]*types.ScheduleEntry, error) {
	templates, err := sg.templateRepo.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		sg.log.Warn("No active master templates, creating zero schedules", "child_id", childID)
		return []*types.ScheduleEntry{}, nil
	}

	rows := make([]*types.ScheduleEntry, 0, len(templates))
	for _, template := range templates {
		rows = append(rows, &types.ScheduleEntry{
			ChildID:       childID,
			VaccineName:   template.Name,
			ScheduledDate: DueDate(dateOfBirth, template),
			Status:        types.ScheduleStatusDue,
			Notes:         template.Description,
		})
	}

	created, err := sg.scheduleRepo.Create(ctx, tx, rows)
	if err != nil {
		return nil, err
	}
	sg.log.Info("Generated immunization schedules", "child_id", childID, "count", len(created))
	return created, nil
}
