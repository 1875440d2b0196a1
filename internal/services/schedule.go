package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

// ScheduleQuery narrows staff list views. Empty values are ignored.
type ScheduleQuery struct {
	ChildID   uuid.UUID
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

// ChildScheduleView groups a child's entries with their status counts
// for the dashboard and caregiver screens.
type ChildScheduleView struct {
	Child        *types.ChildProfile    `json:"child"`
	Schedules    []*types.ScheduleEntry `json:"schedules"`
	StatusCounts map[string]int         `json:"status_counts"`
}

type ScheduleService interface {
	GetByID(ctx context.Context, actor Actor, scheduleID uuid.UUID) (*types.ScheduleEntry, error)
	// CaregiverView returns only approved (visible) entries for the
	// caller's own children.
	CaregiverView(ctx context.Context, actor Actor) ([]*ChildScheduleView, error)
	// StaffList returns all entries matching the query, visibility
	// flag ignored.
	StaffList(ctx context.Context, actor Actor, query ScheduleQuery) ([]*types.ScheduleEntry, error)
	ChildView(ctx context.Context, actor Actor, childID uuid.UUID) (*ChildScheduleView, error)
	// AddFromTemplate creates one extra DUE entry for a child from a
	// catalog template. Entries added after approval stay hidden until
	// the next approval pass.
	AddFromTemplate(ctx context.Context, actor Actor, childID, templateID uuid.UUID) (*types.ScheduleEntry, error)
	// Remove deletes a DUE entry. DONE and MISSED entries are history
	// and may not be removed.
	Remove(ctx context.Context, actor Actor, scheduleID uuid.UUID) error
	Events(ctx context.Context, actor Actor, scheduleID uuid.UUID) ([]*types.EventLogEntry, error)
}

type scheduleService struct {
	db            *gorm.DB
	log           *logger.Logger
	scheduleRepo  repos.ScheduleEntryRepo
	templateRepo  repos.MasterTemplateRepo
	childRepo     repos.ChildProfileRepo
	caregiverRepo repos.CaregiverProfileRepo
	eventRepo     repos.EventLogRepo
}

func NewScheduleService(
	db *gorm.DB,
	log *logger.Logger,
	scheduleRepo repos.ScheduleEntryRepo,
	templateRepo repos.MasterTemplateRepo,
	childRepo repos.ChildProfileRepo,
	caregiverRepo repos.CaregiverProfileRepo,
	eventRepo repos.EventLogRepo,
) ScheduleService {
	serviceLog := log.With("service", "ScheduleService")
	return &scheduleService{
		db:            db,
		log:           serviceLog,
		scheduleRepo:  scheduleRepo,
		templateRepo:  templateRepo,
		childRepo:     childRepo,
		caregiverRepo: caregiverRepo,
		eventRepo:     eventRepo,
	}
}

func statusCounts(schedules []*types.ScheduleEntry) map[string]int {
	counts := map[string]int{
		types.ScheduleStatusDue:    0,
		types.ScheduleStatusDone:   0,
		types.ScheduleStatusMissed: 0,
	}
	for _, s := range schedules {
		counts[s.Status]++
	}
	return counts
}

func (ss *scheduleService) GetByID(ctx context.Context, actor Actor, scheduleID uuid.UUID) (*types.ScheduleEntry, error) {
	schedule, err := ss.scheduleRepo.GetByID(ctx, nil, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, apierr.NotFound("schedule %s not found", scheduleID)
	}
	if !actor.CanAdminister() {
		if !schedule.VisibleToCaregiver {
			return nil, apierr.NotFound("schedule %s not found", scheduleID)
		}
		owns, err := ss.actorOwnsChild(ctx, actor, schedule.ChildID)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, apierr.Forbidden("this schedule belongs to another caregiver's child")
		}
	}
	return schedule, nil
}

func (ss *scheduleService) CaregiverView(ctx context.Context, actor Actor) ([]*ChildScheduleView, error) {
	caregiver, err := ss.caregiverRepo.GetByUserID(ctx, nil, actor.ID)
	if err != nil {
		return nil, err
	}
	if caregiver == nil {
		return nil, apierr.NotFound("no caregiver profile for this account")
	}

	children, err := ss.childRepo.GetByCaregiverID(ctx, nil, caregiver.ID)
	if err != nil {
		return nil, err
	}

	views := make([]*ChildScheduleView, 0, len(children))
	for _, child := range children {
		schedules, err := ss.scheduleRepo.ListFiltered(ctx, nil, repos.ScheduleFilter{
			ChildIDs:    []uuid.UUID{child.ID},
			VisibleOnly: true,
		})
		if err != nil {
			return nil, err
		}
		views = append(views, &ChildScheduleView{
			Child:        child,
			Schedules:    schedules,
			StatusCounts: statusCounts(schedules),
		})
	}
	return views, nil
}

func (ss *scheduleService) StaffList(ctx context.Context, actor Actor, query ScheduleQuery) ([]*types.ScheduleEntry, error) {
	if !actor.CanAdminister() {
		return nil, apierr.Forbidden("role %s may not list all schedules", actor.Role)
	}
	if query.Status != "" && !types.ValidScheduleStatus(query.Status) {
		return nil, apierr.Validation("invalid schedule status %q", query.Status)
	}

	filter := repos.ScheduleFilter{
		Status:    query.Status,
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
	}
	if query.ChildID != uuid.Nil {
		filter.ChildIDs = []uuid.UUID{query.ChildID}
	}
	return ss.scheduleRepo.ListFiltered(ctx, nil, filter)
}

func (ss *scheduleService) ChildView(ctx context.Context, actor Actor, childID uuid.UUID) (*ChildScheduleView, error) {
	child, err := ss.childRepo.GetByID(ctx, nil, childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, apierr.NotFound("child %s not found", childID)
	}

	filter := repos.ScheduleFilter{ChildIDs: []uuid.UUID{childID}}
	if !actor.CanAdminister() {
		owns, err := ss.actorOwnsChild(ctx, actor, childID)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, apierr.Forbidden("this child belongs to another caregiver")
		}
		filter.VisibleOnly = true
	}

	schedules, err := ss.scheduleRepo.ListFiltered(ctx, nil, filter)
	if err != nil {
		return nil, err
	}
	return &ChildScheduleView{
		Child:        child,
		Schedules:    schedules,
		StatusCounts: statusCounts(schedules),
	}, nil
}

func (ss *scheduleService) AddFromTemplate(ctx context.Context, actor Actor, childID, templateID uuid.UUID) (*types.ScheduleEntry, error) {
	if !actor.CanAdminister() {
		return nil, apierr.Forbidden("role %s may not add schedules", actor.Role)
	}

	child, err := ss.childRepo.GetByID(ctx, nil, childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, apierr.NotFound("child %s not found", childID)
	}
	template, err := ss.templateRepo.GetByID(ctx, nil, templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, apierr.NotFound("template %s not found", templateID)
	}

	row := &types.ScheduleEntry{
		ChildID:       childID,
		VaccineName:   template.Name,
		ScheduledDate: DueDate(child.DateOfBirth, template),
		Status:        types.ScheduleStatusDue,
		Notes:         template.Description,
	}
	created, err := ss.scheduleRepo.Create(ctx, nil, []*types.ScheduleEntry{row})
	if err != nil {
		return nil, err
	}
	ss.log.Info("Added schedule from template", "child_id", childID, "template_id", templateID)
	return created[0], nil
}

func (ss *scheduleService) Remove(ctx context.Context, actor Actor, scheduleID uuid.UUID) error {
	if !actor.CanAdminister() {
		return apierr.Forbidden("role %s may not remove schedules", actor.Role)
	}

	schedule, err := ss.scheduleRepo.GetByID(ctx, nil, scheduleID)
	if err != nil {
		return err
	}
	if schedule == nil {
		return apierr.NotFound("schedule %s not found", scheduleID)
	}
	if schedule.Status != types.ScheduleStatusDue {
		return apierr.Validation("only DUE schedules may be removed, this one is %s", schedule.Status)
	}
	return ss.scheduleRepo.DeleteByID(ctx, nil, scheduleID)
}

func (ss *scheduleService) Events(ctx context.Context, actor Actor, scheduleID uuid.UUID) ([]*types.EventLogEntry, error) {
	if !actor.CanAdminister() {
		return nil, apierr.Forbidden("role %s may not read the event log", actor.Role)
	}
	schedule, err := ss.scheduleRepo.GetByID(ctx, nil, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, apierr.NotFound("schedule %s not found", scheduleID)
	}
	return ss.eventRepo.GetByScheduleID(ctx, nil, scheduleID)
}

func (ss *scheduleService) actorOwnsChild(ctx context.Context, actor Actor, childID uuid.UUID) (bool, error) {
	caregiver, err := ss.caregiverRepo.GetByUserID(ctx, nil, actor.ID)
	if err != nil {
		return false, err
	}
	if caregiver == nil {
		return false, nil
	}
	child, err := ss.childRepo.GetByID(ctx, nil, childID)
	if err != nil {
		return false, err
	}
	return child != nil && child.CaregiverID == caregiver.ID, nil
}
