package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/testutil"
	"github.com/wellspring/maternal-backend/internal/types"
)

// fakeNotifier records sends so tests can assert on notification
// behavior without network transports.
type fakeNotifier struct {
	mu    sync.Mutex
	sends []Notification
}

func (fn *fakeNotifier) Send(_ context.Context, n Notification) {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	fn.sends = append(fn.sends, n)
}

func (fn *fakeNotifier) count() int {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	return len(fn.sends)
}

type workflowFixture struct {
	tx           *gorm.DB
	scheduleRepo repos.ScheduleEntryRepo
	eventRepo    repos.EventLogRepo
	certRepo     repos.CertificateRepo
	workflow     WorkflowService
	notifier     *fakeNotifier
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	tx := testutil.Tx(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(tx, log)
	caregiverRepo := repos.NewCaregiverProfileRepo(tx, log)
	childRepo := repos.NewChildProfileRepo(tx, log)
	scheduleRepo := repos.NewScheduleEntryRepo(tx, log)
	eventRepo := repos.NewEventLogRepo(tx, log)
	certRepo := repos.NewCertificateRepo(tx, log)

	notifier := &fakeNotifier{}
	certService := NewCertificateService(tx, log, scheduleRepo, certRepo, eventRepo)
	workflow := NewWorkflowService(tx, log, scheduleRepo, eventRepo, certService, notifier, childRepo, caregiverRepo, userRepo)

	return &workflowFixture{
		tx:           tx,
		scheduleRepo: scheduleRepo,
		eventRepo:    eventRepo,
		certRepo:     certRepo,
		workflow:     workflow,
		notifier:     notifier,
	}
}

func seedChildWithSchedule(t *testing.T, tx *gorm.DB, status string) *types.ScheduleEntry {
	t.Helper()
	_, caregiver := testutil.SeedCaregiver(t, tx)
	child := testutil.SeedChild(t, tx, caregiver.ID, date(2024, time.January, 1))
	return testutil.SeedSchedule(t, tx, child.ID, "BCG", date(2024, time.February, 12), status)
}

func TestCompleteMarksDoneAndAppendsEvent(t *testing.T) {
	fx := newWorkflowFixture(t)
	schedule := seedChildWithSchedule(t, fx.tx, types.ScheduleStatusDue)
	nurse := testutil.SeedUser(t, fx.tx, types.RoleNurse)
	actor := Actor{ID: nurse.ID, Role: nurse.Role}

	completed := date(2024, time.February, 12)
	got, err := fx.workflow.Complete(context.Background(), actor, schedule.ID, CompleteInput{
		DateCompleted: &completed,
		BatchNumber:   "B-100",
		Manufacturer:  "Serum Institute",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Status != types.ScheduleStatusDone {
		t.Fatalf("status=%s, want DONE", got.Status)
	}
	if got.DateCompleted == nil || !got.DateCompleted.Equal(completed) {
		t.Fatalf("date_completed=%v, want %s", got.DateCompleted, completed.Format("2006-01-02"))
	}
	if got.AdministeredBy == nil || *got.AdministeredBy != nurse.ID {
		t.Fatalf("administered_by=%v, want %s", got.AdministeredBy, nurse.ID)
	}

	events, err := fx.eventRepo.GetByScheduleID(context.Background(), fx.tx, schedule.ID)
	if err != nil {
		t.Fatalf("load events: %v", err)
	}
	var administered int
	for _, ev := range events {
		if ev.EventType == types.EventAdministered {
			administered++
		}
	}
	if administered != 1 {
		t.Fatalf("ADMINISTERED events=%d, want 1", administered)
	}
	if fx.notifier.count() != 1 {
		t.Fatalf("notifications=%d, want 1", fx.notifier.count())
	}
}

func TestCompleteRequiresAdministeringRole(t *testing.T) {
	fx := newWorkflowFixture(t)
	schedule := seedChildWithSchedule(t, fx.tx, types.ScheduleStatusDue)
	caregiverUser := testutil.SeedUser(t, fx.tx, types.RoleCaregiver)

	_, err := fx.workflow.Complete(context.Background(), Actor{ID: caregiverUser.ID, Role: caregiverUser.Role}, schedule.ID, CompleteInput{})
	if err == nil {
		t.Fatal("expected forbidden error for caregiver role")
	}
	var ae *apierr.Error
	if !asAPIError(err, &ae) || ae.Code != apierr.CodeForbidden {
		t.Fatalf("error=%v, want FORBIDDEN", err)
	}
}

func TestCompleteIsIdempotentOnFirstCompletion(t *testing.T) {
	fx := newWorkflowFixture(t)
	schedule := seedChildWithSchedule(t, fx.tx, types.ScheduleStatusDue)
	nurse := testutil.SeedUser(t, fx.tx, types.RoleNurse)
	actor := Actor{ID: nurse.ID, Role: nurse.Role}

	first := date(2024, time.February, 12)
	if _, err := fx.workflow.Complete(context.Background(), actor, schedule.ID, CompleteInput{DateCompleted: &first}); err != nil {
		t.Fatalf("first Complete: %v", err)
	}

	second := date(2024, time.March, 1)
	got, err := fx.workflow.Complete(context.Background(), actor, schedule.ID, CompleteInput{DateCompleted: &second})
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if got.DateCompleted == nil || !got.DateCompleted.Equal(first) {
		t.Fatalf("date_completed moved to %v, want to stay %s", got.DateCompleted, first.Format("2006-01-02"))
	}

	events, err := fx.eventRepo.GetByScheduleID(context.Background(), fx.tx, schedule.ID)
	if err != nil {
		t.Fatalf("load events: %v", err)
	}
	var administered int
	for _, ev := range events {
		if ev.EventType == types.EventAdministered {
			administered++
		}
	}
	if administered != 2 {
		t.Fatalf("ADMINISTERED events=%d, want one per call (2)", administered)
	}
}

func TestCompleteLastScheduleIssuesCertificateOnce(t *testing.T) {
	fx := newWorkflowFixture(t)
	_, caregiver := testutil.SeedCaregiver(t, fx.tx)
	child := testutil.SeedChild(t, fx.tx, caregiver.ID, date(2024, time.January, 1))
	testutil.SeedSchedule(t, fx.tx, child.ID, "BCG", date(2024, time.January, 1), types.ScheduleStatusDone)
	last := testutil.SeedSchedule(t, fx.tx, child.ID, "Penta-1", date(2024, time.February, 12), types.ScheduleStatusDue)
	nurse := testutil.SeedUser(t, fx.tx, types.RoleNurse)
	actor := Actor{ID: nurse.ID, Role: nurse.Role}

	if _, err := fx.workflow.Complete(context.Background(), actor, last.ID, CompleteInput{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	cert, err := fx.certRepo.GetByChildID(context.Background(), fx.tx, child.ID)
	if err != nil {
		t.Fatalf("load certificate: %v", err)
	}
	if cert == nil {
		t.Fatal("no certificate after all schedules DONE")
	}
	firstGeneratedAt := cert.GeneratedAt

	// Re-completing while all-DONE must overwrite, not duplicate.
	if _, err := fx.workflow.Complete(context.Background(), actor, last.ID, CompleteInput{}); err != nil {
		t.Fatalf("redundant Complete: %v", err)
	}
	var count int64
	if err := fx.tx.Model(&types.Certificate{}).Where("child_id = ?", child.ID).Count(&count).Error; err != nil {
		t.Fatalf("count certificates: %v", err)
	}
	if count != 1 {
		t.Fatalf("certificates=%d, want 1", count)
	}
	cert, err = fx.certRepo.GetByChildID(context.Background(), fx.tx, child.ID)
	if err != nil {
		t.Fatalf("reload certificate: %v", err)
	}
	if cert.GeneratedAt.Before(firstGeneratedAt) {
		t.Fatalf("generated_at went backwards: %s < %s", cert.GeneratedAt, firstGeneratedAt)
	}
}

func TestCompleteWithPendingScheduleDoesNotIssueCertificate(t *testing.T) {
	fx := newWorkflowFixture(t)
	_, caregiver := testutil.SeedCaregiver(t, fx.tx)
	child := testutil.SeedChild(t, fx.tx, caregiver.ID, date(2024, time.January, 1))
	first := testutil.SeedSchedule(t, fx.tx, child.ID, "BCG", date(2024, time.January, 1), types.ScheduleStatusDue)
	testutil.SeedSchedule(t, fx.tx, child.ID, "Penta-1", date(2024, time.February, 12), types.ScheduleStatusDue)
	nurse := testutil.SeedUser(t, fx.tx, types.RoleNurse)

	if _, err := fx.workflow.Complete(context.Background(), Actor{ID: nurse.ID, Role: nurse.Role}, first.ID, CompleteInput{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	cert, err := fx.certRepo.GetByChildID(context.Background(), fx.tx, child.ID)
	if err != nil {
		t.Fatalf("load certificate: %v", err)
	}
	if cert != nil {
		t.Fatal("certificate issued while a schedule is still DUE")
	}
}

func TestRescheduleForcesDueAndClearsCompletion(t *testing.T) {
	fx := newWorkflowFixture(t)
	schedule := seedChildWithSchedule(t, fx.tx, types.ScheduleStatusDone)
	doctor := testutil.SeedUser(t, fx.tx, types.RoleDoctor)

	newDate := date(2024, time.March, 10)
	got, err := fx.workflow.Reschedule(context.Background(), Actor{ID: doctor.ID, Role: doctor.Role}, schedule.ID, newDate, "fever at visit")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if got.Status != types.ScheduleStatusDue {
		t.Fatalf("status=%s, want DUE", got.Status)
	}
	if got.DateCompleted != nil {
		t.Fatalf("date_completed=%v, want nil after forcing back to DUE", got.DateCompleted)
	}
	if got.RescheduledFor == nil || !got.RescheduledFor.Equal(newDate) {
		t.Fatalf("rescheduled_for=%v, want %s", got.RescheduledFor, newDate.Format("2006-01-02"))
	}
	if !got.ScheduledDate.Equal(schedule.ScheduledDate) {
		t.Fatalf("scheduled_date moved from %s to %s, must stay fixed", schedule.ScheduledDate.Format("2006-01-02"), got.ScheduledDate.Format("2006-01-02"))
	}

	events, err := fx.eventRepo.GetByScheduleID(context.Background(), fx.tx, schedule.ID)
	if err != nil {
		t.Fatalf("load events: %v", err)
	}
	var rescheduled, statusChanged bool
	for _, ev := range events {
		switch ev.EventType {
		case types.EventRescheduled:
			rescheduled = true
		case types.EventStatusChanged:
			statusChanged = true
		}
	}
	if !rescheduled || !statusChanged {
		t.Fatalf("rescheduled=%v status_changed=%v, want both events", rescheduled, statusChanged)
	}
}

func TestObserveKeepsStatus(t *testing.T) {
	fx := newWorkflowFixture(t)
	schedule := seedChildWithSchedule(t, fx.tx, types.ScheduleStatusDone)
	nurse := testutil.SeedUser(t, fx.tx, types.RoleNurse)

	got, err := fx.workflow.Observe(context.Background(), Actor{ID: nurse.ID, Role: nurse.Role}, schedule.ID, "no adverse reaction after 30 minutes")
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if got.Status != types.ScheduleStatusDone {
		t.Fatalf("status=%s, observe must not change status", got.Status)
	}
	if got.PostObservationNotes == "" {
		t.Fatal("post_observation_notes not stored")
	}
}

func TestSetStatusUnmarkClearsCompletion(t *testing.T) {
	fx := newWorkflowFixture(t)
	schedule := seedChildWithSchedule(t, fx.tx, types.ScheduleStatusDone)
	admin := testutil.SeedUser(t, fx.tx, types.RoleAdmin)

	got, err := fx.workflow.SetStatus(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, schedule.ID, types.ScheduleStatusDue)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.Status != types.ScheduleStatusDue {
		t.Fatalf("status=%s, want DUE", got.Status)
	}
	if got.DateCompleted != nil {
		t.Fatal("date_completed must be cleared when status leaves DONE")
	}
}

func TestSetStatusRejectsInvalidValue(t *testing.T) {
	fx := newWorkflowFixture(t)
	schedule := seedChildWithSchedule(t, fx.tx, types.ScheduleStatusDue)
	admin := testutil.SeedUser(t, fx.tx, types.RoleAdmin)

	_, err := fx.workflow.SetStatus(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, schedule.ID, "PENDING")
	if err == nil {
		t.Fatal("expected validation error for unknown status")
	}
	var ae *apierr.Error
	if !asAPIError(err, &ae) || ae.Code != apierr.CodeValidation {
		t.Fatalf("error=%v, want VALIDATION", err)
	}
}
