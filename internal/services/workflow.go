package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

// CompleteInput carries the administration details recorded when a
// dose is given.
type CompleteInput struct {
	DateCompleted      *time.Time
	BatchNumber        string
	Manufacturer       string
	AdministrationSite string
	Notes              string
}

type WorkflowService interface {
	Complete(ctx context.Context, actor Actor, scheduleID uuid.UUID, input CompleteInput) (*types.ScheduleEntry, error)
	Observe(ctx context.Context, actor Actor, scheduleID uuid.UUID, notes string) (*types.ScheduleEntry, error)
	Reschedule(ctx context.Context, actor Actor, scheduleID uuid.UUID, newDate time.Time, reason string) (*types.ScheduleEntry, error)
	SetStatus(ctx context.Context, actor Actor, scheduleID uuid.UUID, status string) (*types.ScheduleEntry, error)
}

type workflowService struct {
	db           *gorm.DB
	log          *logger.Logger
	scheduleRepo repos.ScheduleEntryRepo
	eventRepo    repos.EventLogRepo
	certService  CertificateService
	notifier     Notifier
	recipients   *recipientResolver
}

func NewWorkflowService(
	db *gorm.DB,
	log *logger.Logger,
	scheduleRepo repos.ScheduleEntryRepo,
	eventRepo repos.EventLogRepo,
	certService CertificateService,
	notifier Notifier,
	childRepo repos.ChildProfileRepo,
	caregiverRepo repos.CaregiverProfileRepo,
	userRepo repos.UserRepo,
) WorkflowService {
	serviceLog := log.With("service", "WorkflowService")
	return &workflowService{
		db:           db,
		log:          serviceLog,
		scheduleRepo: scheduleRepo,
		eventRepo:    eventRepo,
		certService:  certService,
		notifier:     notifier,
		recipients:   newRecipientResolver(serviceLog, childRepo, caregiverRepo, userRepo),
	}
}

func (ws *workflowService) loadSchedule(ctx context.Context, tx *gorm.DB, scheduleID uuid.UUID) (*types.ScheduleEntry, error) {
	schedule, err := ws.scheduleRepo.GetByID(ctx, tx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, apierr.NotFound("schedule %s not found", scheduleID)
	}
	return schedule, nil
}

// Complete marks a dose administered. Calling it again on a DONE entry
// keeps the first completion's status and date untouched but still
// appends an ADMINISTERED event, so repeat submissions stay visible in
// the ledger.
func (ws *workflowService) Complete(ctx context.Context, actor Actor, scheduleID uuid.UUID, input CompleteInput) (*types.ScheduleEntry, error) {
	if !actor.CanAdminister() {
		return nil, apierr.Forbidden("role %s may not administer vaccines", actor.Role)
	}

	var schedule *types.ScheduleEntry
	err := ws.db.Transaction(func(tx *gorm.DB) error {
		var err error
		schedule, err = ws.loadSchedule(ctx, tx, scheduleID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if schedule.Status != types.ScheduleStatusDone {
			completed := dateOnly(now)
			if input.DateCompleted != nil {
				completed = dateOnly(*input.DateCompleted)
			}
			fields := map[string]any{
				"status":              types.ScheduleStatusDone,
				"date_completed":      completed,
				"administered_by":     actor.ID,
				"administered_at":     now,
				"batch_number":        input.BatchNumber,
				"manufacturer":        input.Manufacturer,
				"administration_site": input.AdministrationSite,
			}
			if input.Notes != "" {
				fields["notes"] = input.Notes
			}
			if err := ws.scheduleRepo.UpdateFields(ctx, tx, schedule.ID, fields); err != nil {
				return err
			}
			schedule.Status = types.ScheduleStatusDone
			schedule.DateCompleted = &completed
			schedule.AdministeredBy = actor.IDPtr()
			schedule.AdministeredAt = &now
			schedule.BatchNumber = input.BatchNumber
			schedule.Manufacturer = input.Manufacturer
			schedule.AdministrationSite = input.AdministrationSite
			if input.Notes != "" {
				schedule.Notes = input.Notes
			}
		}

		if err := appendEvent(ctx, tx, ws.eventRepo, schedule.ID, types.EventAdministered, actor.IDPtr(), map[string]any{
			"vaccine_name":        schedule.VaccineName,
			"batch_number":        input.BatchNumber,
			"manufacturer":        input.Manufacturer,
			"administration_site": input.AdministrationSite,
		}); err != nil {
			return err
		}

		// Ordered side effects: status write, event append, then the
		// all-DONE check, all inside the same transaction.
		_, err = ws.certService.IssueIfComplete(ctx, tx, schedule.ChildID, schedule.ID, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	ws.notifyStatus(ctx, schedule, fmt.Sprintf("%s has been administered", schedule.VaccineName))
	return schedule, nil
}

// Observe records post-administration observation notes without
// touching status.
func (ws *workflowService) Observe(ctx context.Context, actor Actor, scheduleID uuid.UUID, notes string) (*types.ScheduleEntry, error) {
	if !actor.CanAdminister() {
		return nil, apierr.Forbidden("role %s may not record observations", actor.Role)
	}
	if notes == "" {
		return nil, apierr.Validation("observation notes are required")
	}

	var schedule *types.ScheduleEntry
	err := ws.db.Transaction(func(tx *gorm.DB) error {
		var err error
		schedule, err = ws.loadSchedule(ctx, tx, scheduleID)
		if err != nil {
			return err
		}

		if err := ws.scheduleRepo.UpdateFields(ctx, tx, schedule.ID, map[string]any{
			"post_observation_notes": notes,
		}); err != nil {
			return err
		}
		schedule.PostObservationNotes = notes

		return appendEvent(ctx, tx, ws.eventRepo, schedule.ID, types.EventObservationAdded, actor.IDPtr(), map[string]any{
			"notes": notes,
		})
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// Reschedule records a revised plan date and forces the entry back to
// DUE whatever its current state. ScheduledDate itself never moves;
// RescheduledFor carries the new plan so the original due date stays
// auditable.
func (ws *workflowService) Reschedule(ctx context.Context, actor Actor, scheduleID uuid.UUID, newDate time.Time, reason string) (*types.ScheduleEntry, error) {
	if !actor.CanAdminister() {
		return nil, apierr.Forbidden("role %s may not reschedule vaccines", actor.Role)
	}
	if newDate.IsZero() {
		return nil, apierr.Validation("a new date is required to reschedule")
	}

	var schedule *types.ScheduleEntry
	err := ws.db.Transaction(func(tx *gorm.DB) error {
		var err error
		schedule, err = ws.loadSchedule(ctx, tx, scheduleID)
		if err != nil {
			return err
		}

		previousStatus := schedule.Status
		target := dateOnly(newDate)
		fields := map[string]any{
			"rescheduled_for":   target,
			"reschedule_reason": reason,
			"status":            types.ScheduleStatusDue,
			"date_completed":    nil,
		}
		if err := ws.scheduleRepo.UpdateFields(ctx, tx, schedule.ID, fields); err != nil {
			return err
		}
		schedule.RescheduledFor = &target
		schedule.RescheduleReason = reason
		schedule.Status = types.ScheduleStatusDue
		schedule.DateCompleted = nil

		if err := appendEvent(ctx, tx, ws.eventRepo, schedule.ID, types.EventRescheduled, actor.IDPtr(), map[string]any{
			"previous_status": previousStatus,
			"new_date":        target.Format("2006-01-02"),
			"reason":          reason,
		}); err != nil {
			return err
		}
		if previousStatus != types.ScheduleStatusDue {
			return appendEvent(ctx, tx, ws.eventRepo, schedule.ID, types.EventStatusChanged, actor.IDPtr(), map[string]any{
				"previous_status": previousStatus,
				"new_status":      types.ScheduleStatusDue,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ws.notifyStatus(ctx, schedule, fmt.Sprintf("%s has been rescheduled to %s", schedule.VaccineName, schedule.RescheduledFor.Format("2006-01-02")))
	return schedule, nil
}

// SetStatus is the administrative override path: unmark a DONE or
// MISSED entry back to DUE, or force any valid status directly. It
// keeps the date_completed/status pairing consistent and always
// appends a STATUS_CHANGED event.
func (ws *workflowService) SetStatus(ctx context.Context, actor Actor, scheduleID uuid.UUID, status string) (*types.ScheduleEntry, error) {
	if !actor.CanAdminister() {
		return nil, apierr.Forbidden("role %s may not edit schedule status", actor.Role)
	}
	if !types.ValidScheduleStatus(status) {
		return nil, apierr.Validation("invalid schedule status %q", status)
	}

	var schedule *types.ScheduleEntry
	err := ws.db.Transaction(func(tx *gorm.DB) error {
		var err error
		schedule, err = ws.loadSchedule(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		if schedule.Status == status {
			return nil
		}

		previousStatus := schedule.Status
		fields := map[string]any{"status": status}
		switch status {
		case types.ScheduleStatusDone:
			completed := dateOnly(time.Now().UTC())
			fields["date_completed"] = completed
			schedule.DateCompleted = &completed
		default:
			fields["date_completed"] = nil
			schedule.DateCompleted = nil
		}
		if err := ws.scheduleRepo.UpdateFields(ctx, tx, schedule.ID, fields); err != nil {
			return err
		}
		schedule.Status = status

		if err := appendEvent(ctx, tx, ws.eventRepo, schedule.ID, types.EventStatusChanged, actor.IDPtr(), map[string]any{
			"previous_status": previousStatus,
			"new_status":      status,
		}); err != nil {
			return err
		}

		if status == types.ScheduleStatusDone {
			_, err = ws.certService.IssueIfComplete(ctx, tx, schedule.ChildID, schedule.ID, actor)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// notifyStatus is fire-and-forget: recipient resolution failures are
// logged and dropped, never surfaced to the mutation caller.
func (ws *workflowService) notifyStatus(ctx context.Context, schedule *types.ScheduleEntry, message string) {
	var recipient *scheduleRecipient
	var ok bool
	if schedule.Child != nil {
		recipient, ok = ws.recipients.forChild(ctx, schedule.Child)
	} else {
		recipient, ok = ws.recipients.forChildID(ctx, schedule.ChildID)
	}
	if !ok {
		return
	}

	ws.notifier.Send(ctx, Notification{
		RecipientID: recipient.UserID,
		Email:       recipient.Email,
		Phone:       recipient.Phone,
		Type:        types.NotificationTypeSchedule,
		Subject:     fmt.Sprintf("Immunization update for %s", recipient.ChildName),
		Message:     fmt.Sprintf("Dear %s, %s.", recipient.CaregiverName, message),
		SMSText:     message,
		Meta: map[string]any{
			"schedule_id":  schedule.ID.String(),
			"child_id":     schedule.ChildID.String(),
			"vaccine_name": schedule.VaccineName,
		},
	})
}
