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

type ApprovalService interface {
	Approve(ctx context.Context, actor Actor, childID uuid.UUID, notes string) (*types.ApprovalRecord, error)
	GetByChildID(ctx context.Context, childID uuid.UUID) (*types.ApprovalRecord, error)
}

type approvalService struct {
	db           *gorm.DB
	log          *logger.Logger
	childRepo    repos.ChildProfileRepo
	scheduleRepo repos.ScheduleEntryRepo
	approvalRepo repos.ApprovalRecordRepo
	eventRepo    repos.EventLogRepo
	notifier     Notifier
	recipients   *recipientResolver
}

func NewApprovalService(
	db *gorm.DB,
	log *logger.Logger,
	childRepo repos.ChildProfileRepo,
	caregiverRepo repos.CaregiverProfileRepo,
	userRepo repos.UserRepo,
	scheduleRepo repos.ScheduleEntryRepo,
	approvalRepo repos.ApprovalRecordRepo,
	eventRepo repos.EventLogRepo,
	notifier Notifier,
) ApprovalService {
	serviceLog := log.With("service", "ApprovalService")
	return &approvalService{
		db:           db,
		log:          serviceLog,
		childRepo:    childRepo,
		scheduleRepo: scheduleRepo,
		approvalRepo: approvalRepo,
		eventRepo:    eventRepo,
		notifier:     notifier,
		recipients:   newRecipientResolver(serviceLog, childRepo, caregiverRepo, userRepo),
	}
}

// Approve is a point-in-time, set-wide gate: it exposes every schedule
// the child has right now and nothing added later. The APPROVED event
// is attached to the soonest-scheduled entry only, not to every row.
func (as *approvalService) Approve(ctx context.Context, actor Actor, childID uuid.UUID, notes string) (*types.ApprovalRecord, error) {
	if !actor.CanAdminister() {
		return nil, apierr.Forbidden("role %s may not approve schedules", actor.Role)
	}

	var record *types.ApprovalRecord
	var flipped int64
	err := as.db.Transaction(func(tx *gorm.DB) error {
		child, err := as.childRepo.GetByID(ctx, tx, childID)
		if err != nil {
			return err
		}
		if child == nil {
			return apierr.NotFound("child %s not found", childID)
		}

		now := time.Now().UTC()
		record, err = as.approvalRepo.GetByChildID(ctx, tx, childID)
		if err != nil {
			return err
		}
		if record == nil {
			record, err = as.approvalRepo.Create(ctx, tx, &types.ApprovalRecord{
				ChildID:    childID,
				ApprovedBy: actor.IDPtr(),
				ApprovedAt: now,
				Notes:      notes,
			})
			if err != nil {
				return err
			}
		} else {
			fields := map[string]any{
				"approved_by": actor.ID,
				"approved_at": now,
			}
			if notes != "" {
				fields["notes"] = notes
			}
			if err := as.approvalRepo.UpdateFields(ctx, tx, record.ID, fields); err != nil {
				return err
			}
			record.ApprovedBy = actor.IDPtr()
			record.ApprovedAt = now
			if notes != "" {
				record.Notes = notes
			}
		}

		flipped, err = as.scheduleRepo.MarkVisibleByChildID(ctx, tx, childID, actor.ID, now)
		if err != nil {
			return err
		}

		soonest, err := as.scheduleRepo.GetSoonestByChildID(ctx, tx, childID)
		if err != nil {
			return err
		}
		if soonest != nil {
			return appendEvent(ctx, tx, as.eventRepo, soonest.ID, types.EventApproved, actor.IDPtr(), map[string]any{
				"child_id":          childID.String(),
				"schedules_exposed": flipped,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	as.log.Info("Approved schedule set", "child_id", childID, "schedules_exposed", flipped)
	as.notifyApproved(ctx, childID)
	return record, nil
}

func (as *approvalService) GetByChildID(ctx context.Context, childID uuid.UUID) (*types.ApprovalRecord, error) {
	record, err := as.approvalRepo.GetByChildID(ctx, nil, childID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apierr.NotFound("child %s has no approval record", childID)
	}
	return record, nil
}

func (as *approvalService) notifyApproved(ctx context.Context, childID uuid.UUID) {
	recipient, ok := as.recipients.forChildID(ctx, childID)
	if !ok {
		return
	}
	as.notifier.Send(ctx, Notification{
		RecipientID: recipient.UserID,
		Email:       recipient.Email,
		Phone:       recipient.Phone,
		Type:        types.NotificationTypeSchedule,
		Subject:     fmt.Sprintf("Immunization schedule ready for %s", recipient.ChildName),
		Message:     fmt.Sprintf("Dear %s, the immunization schedule for %s has been reviewed and is now available in your account.", recipient.CaregiverName, recipient.ChildName),
		SMSText:     fmt.Sprintf("The immunization schedule for %s is now available.", recipient.ChildName),
		Meta:        map[string]any{"child_id": childID.String()},
	})
}
