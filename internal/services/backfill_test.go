package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/testutil"
	"github.com/wellspring/maternal-backend/internal/types"
)

type backfillFixture struct {
	tx           *gorm.DB
	scheduleRepo repos.ScheduleEntryRepo
	backfill     BackfillService
}

func newBackfillFixture(t *testing.T) *backfillFixture {
	t.Helper()
	tx := testutil.Tx(t)
	log := testutil.Logger(t)
	childRepo := repos.NewChildProfileRepo(tx, log)
	templateRepo := repos.NewMasterTemplateRepo(tx, log)
	scheduleRepo := repos.NewScheduleEntryRepo(tx, log)
	return &backfillFixture{
		tx:           tx,
		scheduleRepo: scheduleRepo,
		backfill:     NewBackfillService(tx, log, childRepo, templateRepo, scheduleRepo),
	}
}

func TestBackfillFailsWithoutActiveTemplates(t *testing.T) {
	fx := newBackfillFixture(t)
	_, caregiver := testutil.SeedCaregiver(t, fx.tx)
	testutil.SeedChild(t, fx.tx, caregiver.ID, date(2024, time.January, 1))

	_, err := fx.backfill.Run(context.Background(), BackfillOptions{})
	if !errors.Is(err, ErrNoActiveTemplates) {
		t.Fatalf("error=%v, want ErrNoActiveTemplates", err)
	}
}

func TestBackfillCreatesMissingEntries(t *testing.T) {
	fx := newBackfillFixture(t)
	_, caregiver := testutil.SeedCaregiver(t, fx.tx)
	child := testutil.SeedChild(t, fx.tx, caregiver.ID, date(2024, time.January, 1))
	testutil.SeedTemplate(t, fx.tx, "BCG", 0, types.OffsetUnitDays)
	testutil.SeedTemplate(t, fx.tx, "Penta-1", 6, types.OffsetUnitWeeks)
	// Child already has the BCG row with a completed dose.
	testutil.SeedSchedule(t, fx.tx, child.ID, "BCG", date(2024, time.January, 1), types.ScheduleStatusDone)

	result, err := fx.backfill.Run(context.Background(), BackfillOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("created=%d, want 1 (Penta-1 only)", result.Created)
	}
	if result.Skipped != 1 {
		t.Fatalf("skipped=%d, want 1 (existing DONE row)", result.Skipped)
	}

	schedules, err := fx.scheduleRepo.GetByChildID(context.Background(), fx.tx, child.ID)
	if err != nil {
		t.Fatalf("load schedules: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("schedules=%d, want 2", len(schedules))
	}
}

func TestBackfillDryRunWritesNothing(t *testing.T) {
	fx := newBackfillFixture(t)
	_, caregiver := testutil.SeedCaregiver(t, fx.tx)
	child := testutil.SeedChild(t, fx.tx, caregiver.ID, date(2024, time.January, 1))
	testutil.SeedTemplate(t, fx.tx, "BCG", 0, types.OffsetUnitDays)

	result, err := fx.backfill.Run(context.Background(), BackfillOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("dry-run created=%d, want reported 1", result.Created)
	}

	schedules, err := fx.scheduleRepo.GetByChildID(context.Background(), fx.tx, child.ID)
	if err != nil {
		t.Fatalf("load schedules: %v", err)
	}
	if len(schedules) != 0 {
		t.Fatalf("schedules=%d after dry run, want 0", len(schedules))
	}
}

func TestBackfillRecreateReplacesOnlyDueRows(t *testing.T) {
	fx := newBackfillFixture(t)
	_, caregiver := testutil.SeedCaregiver(t, fx.tx)
	child := testutil.SeedChild(t, fx.tx, caregiver.ID, date(2024, time.January, 1))
	testutil.SeedTemplate(t, fx.tx, "BCG", 0, types.OffsetUnitDays)
	testutil.SeedTemplate(t, fx.tx, "Penta-1", 6, types.OffsetUnitWeeks)

	// Stale DUE row with a wrong date, plus completed history.
	testutil.SeedSchedule(t, fx.tx, child.ID, "Penta-1", date(2024, time.June, 1), types.ScheduleStatusDue)
	testutil.SeedSchedule(t, fx.tx, child.ID, "BCG", date(2024, time.January, 1), types.ScheduleStatusDone)

	result, err := fx.backfill.Run(context.Background(), BackfillOptions{Recreate: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Deleted != 1 {
		t.Fatalf("deleted=%d, want 1 (the DUE row)", result.Deleted)
	}
	if result.Created != 1 {
		t.Fatalf("created=%d, want 1 (recreated Penta-1)", result.Created)
	}

	schedules, err := fx.scheduleRepo.GetByChildID(context.Background(), fx.tx, child.ID)
	if err != nil {
		t.Fatalf("load schedules: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("schedules=%d, want 2", len(schedules))
	}
	for _, s := range schedules {
		switch s.VaccineName {
		case "BCG":
			if s.Status != types.ScheduleStatusDone {
				t.Fatalf("BCG status=%s, history must survive recreate", s.Status)
			}
		case "Penta-1":
			want := date(2024, time.February, 12)
			if !s.ScheduledDate.Equal(want) {
				t.Fatalf("Penta-1 scheduled %s, want %s", s.ScheduledDate.Format("2006-01-02"), want.Format("2006-01-02"))
			}
		}
	}
}

func TestBackfillRealignsStaleDueDates(t *testing.T) {
	fx := newBackfillFixture(t)
	_, caregiver := testutil.SeedCaregiver(t, fx.tx)
	child := testutil.SeedChild(t, fx.tx, caregiver.ID, date(2024, time.January, 1))
	testutil.SeedTemplate(t, fx.tx, "Penta-1", 6, types.OffsetUnitWeeks)
	stale := testutil.SeedSchedule(t, fx.tx, child.ID, "Penta-1", date(2024, time.June, 1), types.ScheduleStatusDue)

	result, err := fx.backfill.Run(context.Background(), BackfillOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("updated=%d, want 1", result.Updated)
	}

	reloaded, err := fx.scheduleRepo.GetByID(context.Background(), fx.tx, stale.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.ScheduledDate.Equal(date(2024, time.February, 12)) {
		t.Fatalf("scheduled_date=%s, want realigned to 2024-02-12", reloaded.ScheduledDate.Format("2006-01-02"))
	}
}
