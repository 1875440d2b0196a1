package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

// scheduleRecipient is the resolved notification target for a child's
// schedule: the caregiver's user account plus contact details.
type scheduleRecipient struct {
	UserID        *uuid.UUID
	Email         string
	Phone         string
	CaregiverName string
	ChildName     string
}

type recipientResolver struct {
	log           *logger.Logger
	childRepo     repos.ChildProfileRepo
	caregiverRepo repos.CaregiverProfileRepo
	userRepo      repos.UserRepo
}

func newRecipientResolver(log *logger.Logger, childRepo repos.ChildProfileRepo, caregiverRepo repos.CaregiverProfileRepo, userRepo repos.UserRepo) *recipientResolver {
	return &recipientResolver{log: log, childRepo: childRepo, caregiverRepo: caregiverRepo, userRepo: userRepo}
}

func (rr *recipientResolver) forChild(ctx context.Context, child *types.ChildProfile) (*scheduleRecipient, bool) {
	if child == nil {
		return nil, false
	}
	caregivers, err := rr.caregiverRepo.GetByIDs(ctx, nil, []uuid.UUID{child.CaregiverID})
	if err != nil || len(caregivers) == 0 {
		rr.log.Warn("Could not resolve caregiver for child", "child_id", child.ID, "error", err)
		return nil, false
	}
	caregiver := caregivers[0]

	recipient := &scheduleRecipient{
		CaregiverName: caregiver.FullName,
		ChildName:     child.Name,
		Phone:         caregiver.Phone,
	}

	users, err := rr.userRepo.GetByIDs(ctx, nil, []uuid.UUID{caregiver.UserID})
	if err == nil && len(users) > 0 {
		user := users[0]
		id := user.ID
		recipient.UserID = &id
		recipient.Email = user.Email
		if recipient.Phone == "" {
			recipient.Phone = user.Phone
		}
	}
	return recipient, true
}

func (rr *recipientResolver) forChildID(ctx context.Context, childID uuid.UUID) (*scheduleRecipient, bool) {
	child, err := rr.childRepo.GetByID(ctx, nil, childID)
	if err != nil || child == nil {
		rr.log.Warn("Could not resolve child for notification", "child_id", childID, "error", err)
		return nil, false
	}
	return rr.forChild(ctx, child)
}
