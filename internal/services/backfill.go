package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

// errDryRun forces the surrounding transaction to roll back after a
// dry run; it never escapes Run.
var errDryRun = errors.New("dry run rollback")

// ErrNoActiveTemplates is returned when a backfill is requested but
// the master catalog has no active rows to regenerate from.
var ErrNoActiveTemplates = errors.New("no active master templates")

type BackfillOptions struct {
	// ChildID restricts the run to one child; nil means all children.
	ChildID *uuid.UUID
	// Recreate deletes the child's DUE rows before regenerating.
	// DONE and MISSED rows are never touched.
	Recreate bool
	// DryRun reports intended changes and rolls everything back.
	DryRun bool
}

type BackfillResult struct {
	ChildrenSeen int
	Created      int
	Updated      int
	Deleted      int
	Skipped      int
}

// BackfillService reconciles existing children against the current
// master catalog. The whole run is one all-or-nothing transaction.
type BackfillService interface {
	Run(ctx context.Context, opts BackfillOptions) (*BackfillResult, error)
}

type backfillService struct {
	db           *gorm.DB
	log          *logger.Logger
	childRepo    repos.ChildProfileRepo
	templateRepo repos.MasterTemplateRepo
	scheduleRepo repos.ScheduleEntryRepo
}

func NewBackfillService(db *gorm.DB, log *logger.Logger, childRepo repos.ChildProfileRepo, templateRepo repos.MasterTemplateRepo, scheduleRepo repos.ScheduleEntryRepo) BackfillService {
	serviceLog := log.With("service", "BackfillService")
	return &backfillService{db: db, log: serviceLog, childRepo: childRepo, templateRepo: templateRepo, scheduleRepo: scheduleRepo}
}

func (bs *backfillService) Run(ctx context.Context, opts BackfillOptions) (*BackfillResult, error) {
	result := &BackfillResult{}
	err := bs.db.Transaction(func(tx *gorm.DB) error {
		if err := bs.run(ctx, tx, opts, result); err != nil {
			return err
		}
		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, err
	}
	bs.log.Info("Backfill finished",
		"dry_run", opts.DryRun,
		"children", result.ChildrenSeen,
		"created", result.Created,
		"updated", result.Updated,
		"deleted", result.Deleted,
		"skipped", result.Skipped)
	return result, nil
}

func (bs *backfillService) run(ctx context.Context, tx *gorm.DB, opts BackfillOptions, result *BackfillResult) error {
	templates, err := bs.templateRepo.ListActive(ctx, tx)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		return ErrNoActiveTemplates
	}

	var children []*types.ChildProfile
	if opts.ChildID != nil {
		child, err := bs.childRepo.GetByID(ctx, tx, *opts.ChildID)
		if err != nil {
			return err
		}
		if child == nil {
			return gorm.ErrRecordNotFound
		}
		children = []*types.ChildProfile{child}
	} else {
		children, err = bs.childRepo.List(ctx, tx)
		if err != nil {
			return err
		}
	}

	for _, child := range children {
		result.ChildrenSeen++
		if err := bs.reconcileChild(ctx, tx, child, templates, opts, result); err != nil {
			return err
		}
	}
	return nil
}

func (bs *backfillService) reconcileChild(ctx context.Context, tx *gorm.DB, child *types.ChildProfile, templates []*types.MasterTemplate, opts BackfillOptions, result *BackfillResult) error {
	if opts.Recreate {
		deleted, err := bs.scheduleRepo.DeleteDueByChildID(ctx, tx, child.ID)
		if err != nil {
			return err
		}
		result.Deleted += int(deleted)
	}

	existing, err := bs.scheduleRepo.GetByChildID(ctx, tx, child.ID)
	if err != nil {
		return err
	}
	byVaccine := make(map[string]*types.ScheduleEntry, len(existing))
	for _, s := range existing {
		byVaccine[s.VaccineName] = s
	}

	for _, template := range templates {
		due := DueDate(child.DateOfBirth, template)
		current, ok := byVaccine[template.Name]
		if !ok {
			_, err := bs.scheduleRepo.Create(ctx, tx, []*types.ScheduleEntry{{
				ChildID:       child.ID,
				VaccineName:   template.Name,
				ScheduledDate: due,
				Status:        types.ScheduleStatusDue,
				Notes:         template.Description,
			}})
			if err != nil {
				return err
			}
			result.Created++
			continue
		}

		// Only still-DUE rows are realigned to the catalog; completed
		// and missed history keeps its original date.
		if current.Status == types.ScheduleStatusDue && !current.ScheduledDate.Equal(due) {
			if err := bs.scheduleRepo.UpdateFields(ctx, tx, current.ID, map[string]any{
				"scheduled_date": due,
			}); err != nil {
				return err
			}
			result.Updated++
			continue
		}
		result.Skipped++
	}
	return nil
}
