package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/testutil"
	"github.com/wellspring/maternal-backend/internal/types"
)

func TestRegisterChildGeneratesSchedules(t *testing.T) {
	tx := testutil.Tx(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(tx, log)
	caregiverRepo := repos.NewCaregiverProfileRepo(tx, log)
	childRepo := repos.NewChildProfileRepo(tx, log)
	templateRepo := repos.NewMasterTemplateRepo(tx, log)
	scheduleRepo := repos.NewScheduleEntryRepo(tx, log)
	notifier := &fakeNotifier{}
	generator := NewScheduleGenerator(tx, log, templateRepo, scheduleRepo)
	svc := NewChildService(tx, log, childRepo, caregiverRepo, userRepo, generator, notifier)

	_, caregiver := testutil.SeedCaregiver(t, tx)
	testutil.SeedTemplate(t, tx, "BCG", 0, types.OffsetUnitDays)
	testutil.SeedTemplate(t, tx, "Penta-1", 6, types.OffsetUnitWeeks)
	nurse := testutil.SeedUser(t, tx, types.RoleNurse)

	child, err := svc.Register(context.Background(), Actor{ID: nurse.ID, Role: nurse.Role}, RegisterChildInput{
		CaregiverID: caregiver.ID,
		Name:        "Amara",
		DateOfBirth: date(2024, time.January, 1),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !strings.HasPrefix(child.HospitalID, "BHB-") {
		t.Fatalf("hospital_id=%q, want BHB- prefix", child.HospitalID)
	}
	if child.RegisteredBy == nil || *child.RegisteredBy != nurse.ID {
		t.Fatalf("registered_by=%v, want %s", child.RegisteredBy, nurse.ID)
	}

	schedules, err := scheduleRepo.GetByChildID(context.Background(), tx, child.ID)
	if err != nil {
		t.Fatalf("load schedules: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("schedules=%d, want 2", len(schedules))
	}
	if notifier.count() != 1 {
		t.Fatalf("notifications=%d, want 1 registration notice", notifier.count())
	}
}

func TestRegisterChildRejectsFutureDateOfBirth(t *testing.T) {
	tx := testutil.Tx(t)
	log := testutil.Logger(t)
	svc := NewChildService(tx, log,
		repos.NewChildProfileRepo(tx, log),
		repos.NewCaregiverProfileRepo(tx, log),
		repos.NewUserRepo(tx, log),
		NewScheduleGenerator(tx, log, repos.NewMasterTemplateRepo(tx, log), repos.NewScheduleEntryRepo(tx, log)),
		&fakeNotifier{})

	_, caregiver := testutil.SeedCaregiver(t, tx)
	nurse := testutil.SeedUser(t, tx, types.RoleNurse)

	_, err := svc.Register(context.Background(), Actor{ID: nurse.ID, Role: nurse.Role}, RegisterChildInput{
		CaregiverID: caregiver.ID,
		Name:        "Amara",
		DateOfBirth: time.Now().UTC().AddDate(0, 0, 7),
	})
	var ae *apierr.Error
	if !asAPIError(err, &ae) || ae.Code != apierr.CodeValidation {
		t.Fatalf("error=%v, want VALIDATION", err)
	}
}
