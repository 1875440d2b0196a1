package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/testutil"
	"github.com/wellspring/maternal-backend/internal/types"
)

type approvalFixture struct {
	tx           *gorm.DB
	scheduleRepo repos.ScheduleEntryRepo
	approvalRepo repos.ApprovalRecordRepo
	eventRepo    repos.EventLogRepo
	approval     ApprovalService
	notifier     *fakeNotifier
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()
	tx := testutil.Tx(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(tx, log)
	caregiverRepo := repos.NewCaregiverProfileRepo(tx, log)
	childRepo := repos.NewChildProfileRepo(tx, log)
	scheduleRepo := repos.NewScheduleEntryRepo(tx, log)
	approvalRepo := repos.NewApprovalRecordRepo(tx, log)
	eventRepo := repos.NewEventLogRepo(tx, log)

	notifier := &fakeNotifier{}
	approval := NewApprovalService(tx, log, childRepo, caregiverRepo, userRepo, scheduleRepo, approvalRepo, eventRepo, notifier)

	return &approvalFixture{
		tx:           tx,
		scheduleRepo: scheduleRepo,
		approvalRepo: approvalRepo,
		eventRepo:    eventRepo,
		approval:     approval,
		notifier:     notifier,
	}
}

func TestApproveExposesWholeScheduleSet(t *testing.T) {
	fx := newApprovalFixture(t)
	_, caregiver := testutil.SeedCaregiver(t, fx.tx)
	child := testutil.SeedChild(t, fx.tx, caregiver.ID, date(2024, time.January, 1))
	soonest := testutil.SeedSchedule(t, fx.tx, child.ID, "BCG", date(2024, time.January, 1), types.ScheduleStatusDue)
	testutil.SeedSchedule(t, fx.tx, child.ID, "Penta-1", date(2024, time.February, 12), types.ScheduleStatusDue)
	doctor := testutil.SeedUser(t, fx.tx, types.RoleDoctor)

	record, err := fx.approval.Approve(context.Background(), Actor{ID: doctor.ID, Role: doctor.Role}, child.ID, "")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if record.ApprovedBy == nil || *record.ApprovedBy != doctor.ID {
		t.Fatalf("approved_by=%v, want %s", record.ApprovedBy, doctor.ID)
	}

	schedules, err := fx.scheduleRepo.GetByChildID(context.Background(), fx.tx, child.ID)
	if err != nil {
		t.Fatalf("load schedules: %v", err)
	}
	for _, s := range schedules {
		if !s.VisibleToCaregiver {
			t.Fatalf("schedule %s still hidden after approval", s.VaccineName)
		}
		if s.ApprovedBy == nil || *s.ApprovedBy != doctor.ID {
			t.Fatalf("schedule %s approved_by=%v, want %s", s.VaccineName, s.ApprovedBy, doctor.ID)
		}
	}

	// One APPROVED event, attached to the soonest entry only.
	for _, s := range schedules {
		events, err := fx.eventRepo.GetByScheduleID(context.Background(), fx.tx, s.ID)
		if err != nil {
			t.Fatalf("load events: %v", err)
		}
		var approved int
		for _, ev := range events {
			if ev.EventType == types.EventApproved {
				approved++
			}
		}
		if s.ID == soonest.ID && approved != 1 {
			t.Fatalf("soonest schedule has %d APPROVED events, want 1", approved)
		}
		if s.ID != soonest.ID && approved != 0 {
			t.Fatalf("non-soonest schedule has %d APPROVED events, want 0", approved)
		}
	}

	if fx.notifier.count() != 1 {
		t.Fatalf("notifications=%d, want 1", fx.notifier.count())
	}
}

func TestApproveIsIdempotentUpsert(t *testing.T) {
	fx := newApprovalFixture(t)
	_, caregiver := testutil.SeedCaregiver(t, fx.tx)
	child := testutil.SeedChild(t, fx.tx, caregiver.ID, date(2024, time.January, 1))
	testutil.SeedSchedule(t, fx.tx, child.ID, "BCG", date(2024, time.January, 1), types.ScheduleStatusDue)
	doctor := testutil.SeedUser(t, fx.tx, types.RoleDoctor)
	admin := testutil.SeedUser(t, fx.tx, types.RoleAdmin)

	if _, err := fx.approval.Approve(context.Background(), Actor{ID: doctor.ID, Role: doctor.Role}, child.ID, ""); err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	record, err := fx.approval.Approve(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, child.ID, "")
	if err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	if record.ApprovedBy == nil || *record.ApprovedBy != admin.ID {
		t.Fatalf("approved_by=%v, want updated to %s", record.ApprovedBy, admin.ID)
	}

	var count int64
	if err := fx.tx.Model(&types.ApprovalRecord{}).Where("child_id = ?", child.ID).Count(&count).Error; err != nil {
		t.Fatalf("count approval records: %v", err)
	}
	if count != 1 {
		t.Fatalf("approval records=%d, want 1", count)
	}
}

func TestScheduleAddedAfterApprovalStaysHidden(t *testing.T) {
	fx := newApprovalFixture(t)
	_, caregiver := testutil.SeedCaregiver(t, fx.tx)
	child := testutil.SeedChild(t, fx.tx, caregiver.ID, date(2024, time.January, 1))
	testutil.SeedSchedule(t, fx.tx, child.ID, "BCG", date(2024, time.January, 1), types.ScheduleStatusDue)
	doctor := testutil.SeedUser(t, fx.tx, types.RoleDoctor)
	actor := Actor{ID: doctor.ID, Role: doctor.Role}

	if _, err := fx.approval.Approve(context.Background(), actor, child.ID, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	late := testutil.SeedSchedule(t, fx.tx, child.ID, "Measles", date(2024, time.October, 1), types.ScheduleStatusDue)
	reloaded, err := fx.scheduleRepo.GetByID(context.Background(), fx.tx, late.ID)
	if err != nil {
		t.Fatalf("reload late schedule: %v", err)
	}
	if reloaded.VisibleToCaregiver {
		t.Fatal("schedule added after approval must stay hidden")
	}

	// Next approval pass picks it up.
	if _, err := fx.approval.Approve(context.Background(), actor, child.ID, ""); err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	reloaded, err = fx.scheduleRepo.GetByID(context.Background(), fx.tx, late.ID)
	if err != nil {
		t.Fatalf("reload after second approval: %v", err)
	}
	if !reloaded.VisibleToCaregiver {
		t.Fatal("second approval did not expose the late schedule")
	}
}
