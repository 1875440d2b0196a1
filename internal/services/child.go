package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

type RegisterChildInput struct {
	CaregiverID uuid.UUID
	Name        string
	DateOfBirth time.Time
	Gender      string
}

type ChildService interface {
	// Register creates the child and generates its full immunization
	// schedule in one transaction. Generation happens here and only
	// here, never on later profile edits.
	Register(ctx context.Context, actor Actor, input RegisterChildInput) (*types.ChildProfile, error)
	GetByID(ctx context.Context, childID uuid.UUID) (*types.ChildProfile, error)
	ListForCaregiver(ctx context.Context, actor Actor) ([]*types.ChildProfile, error)
	List(ctx context.Context, actor Actor) ([]*types.ChildProfile, error)
}

type childService struct {
	db            *gorm.DB
	log           *logger.Logger
	childRepo     repos.ChildProfileRepo
	caregiverRepo repos.CaregiverProfileRepo
	generator     ScheduleGenerator
	notifier      Notifier
	recipients    *recipientResolver
}

func NewChildService(
	db *gorm.DB,
	log *logger.Logger,
	childRepo repos.ChildProfileRepo,
	caregiverRepo repos.CaregiverProfileRepo,
	userRepo repos.UserRepo,
	generator ScheduleGenerator,
	notifier Notifier,
) ChildService {
	serviceLog := log.With("service", "ChildService")
	return &childService{
		db:            db,
		log:           serviceLog,
		childRepo:     childRepo,
		caregiverRepo: caregiverRepo,
		generator:     generator,
		notifier:      notifier,
		recipients:    newRecipientResolver(serviceLog, childRepo, caregiverRepo, userRepo),
	}
}

// newHospitalID mints the human-facing registration number printed on
// the baby's health booklet.
func newHospitalID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return "BHB-" + suffix
}

func (cs *childService) Register(ctx context.Context, actor Actor, input RegisterChildInput) (*types.ChildProfile, error) {
	if input.Name == "" {
		return nil, apierr.Validation("child name is required")
	}
	if input.DateOfBirth.IsZero() {
		return nil, apierr.Validation("date of birth is required")
	}
	if input.DateOfBirth.After(time.Now().UTC()) {
		return nil, apierr.Validation("date of birth may not be in the future")
	}

	caregivers, err := cs.caregiverRepo.GetByIDs(ctx, nil, []uuid.UUID{input.CaregiverID})
	if err != nil {
		return nil, err
	}
	if len(caregivers) == 0 {
		return nil, apierr.NotFound("caregiver %s not found", input.CaregiverID)
	}

	child := &types.ChildProfile{
		CaregiverID:  input.CaregiverID,
		Name:         input.Name,
		DateOfBirth:  dateOnly(input.DateOfBirth),
		Gender:       input.Gender,
		HospitalID:   newHospitalID(),
		RegisteredBy: actor.IDPtr(),
	}
	err = cs.db.Transaction(func(tx *gorm.DB) error {
		if _, err := cs.childRepo.Create(ctx, tx, []*types.ChildProfile{child}); err != nil {
			return err
		}
		_, err := cs.generator.Generate(ctx, tx, child.ID, child.DateOfBirth)
		return err
	})
	if err != nil {
		return nil, err
	}

	cs.log.Info("Registered child", "child_id", child.ID, "caregiver_id", input.CaregiverID)
	cs.notifyRegistered(ctx, child)
	return child, nil
}

func (cs *childService) GetByID(ctx context.Context, childID uuid.UUID) (*types.ChildProfile, error) {
	child, err := cs.childRepo.GetByID(ctx, nil, childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, apierr.NotFound("child %s not found", childID)
	}
	return child, nil
}

// ListForCaregiver resolves the caller's caregiver profile and returns
// only their own children.
func (cs *childService) ListForCaregiver(ctx context.Context, actor Actor) ([]*types.ChildProfile, error) {
	caregiver, err := cs.caregiverRepo.GetByUserID(ctx, nil, actor.ID)
	if err != nil {
		return nil, err
	}
	if caregiver == nil {
		return nil, apierr.NotFound("no caregiver profile for this account")
	}
	return cs.childRepo.GetByCaregiverID(ctx, nil, caregiver.ID)
}

func (cs *childService) List(ctx context.Context, actor Actor) ([]*types.ChildProfile, error) {
	if !actor.CanAdminister() {
		return nil, apierr.Forbidden("role %s may not list all children", actor.Role)
	}
	return cs.childRepo.List(ctx, nil)
}

func (cs *childService) notifyRegistered(ctx context.Context, child *types.ChildProfile) {
	recipient, ok := cs.recipients.forChild(ctx, child)
	if !ok {
		return
	}
	cs.notifier.Send(ctx, Notification{
		RecipientID: recipient.UserID,
		Email:       recipient.Email,
		Phone:       recipient.Phone,
		Type:        types.NotificationTypeSchedule,
		Subject:     fmt.Sprintf("%s has been registered", child.Name),
		Message: fmt.Sprintf(
			"Dear %s, %s has been registered with hospital ID %s. The immunization schedule will appear in your account once reviewed by our staff.",
			recipient.CaregiverName, child.Name, child.HospitalID),
		SMSText: fmt.Sprintf("%s registered, hospital ID %s.", child.Name, child.HospitalID),
		Meta:    map[string]any{"child_id": child.ID.String()},
	})
}
