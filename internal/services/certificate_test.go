package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/testutil"
	"github.com/wellspring/maternal-backend/internal/types"
)

func TestIssueIfCompleteSnapshotIsOrderedAndComplete(t *testing.T) {
	tx := testutil.Tx(t)
	log := testutil.Logger(t)
	scheduleRepo := repos.NewScheduleEntryRepo(tx, log)
	certRepo := repos.NewCertificateRepo(tx, log)
	eventRepo := repos.NewEventLogRepo(tx, log)
	svc := NewCertificateService(tx, log, scheduleRepo, certRepo, eventRepo)

	_, caregiver := testutil.SeedCaregiver(t, tx)
	child := testutil.SeedChild(t, tx, caregiver.ID, date(2024, time.January, 1))
	// Seeded out of scheduled-date order on purpose.
	later := testutil.SeedSchedule(t, tx, child.ID, "Penta-1", date(2024, time.February, 12), types.ScheduleStatusDone)
	testutil.SeedSchedule(t, tx, child.ID, "BCG", date(2024, time.January, 1), types.ScheduleStatusDone)
	doctor := testutil.SeedUser(t, tx, types.RoleDoctor)

	cert, err := svc.IssueIfComplete(context.Background(), tx, child.ID, later.ID, Actor{ID: doctor.ID, Role: doctor.Role})
	if err != nil {
		t.Fatalf("IssueIfComplete: %v", err)
	}
	if cert == nil {
		t.Fatal("no certificate for a fully DONE child")
	}

	var items []types.CertificateItem
	if err := json.Unmarshal(cert.DataSnapshot, &items); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("snapshot length=%d, want 2", len(items))
	}
	if items[0].VaccineName != "BCG" || items[1].VaccineName != "Penta-1" {
		t.Fatalf("snapshot order=[%s, %s], want scheduled_date ascending", items[0].VaccineName, items[1].VaccineName)
	}
	if items[0].DateCompleted == nil || *items[0].DateCompleted != "2024-01-01" {
		t.Fatalf("BCG date_completed=%v, want 2024-01-01", items[0].DateCompleted)
	}
}

func TestIssueIfCompleteNotEligible(t *testing.T) {
	tx := testutil.Tx(t)
	log := testutil.Logger(t)
	scheduleRepo := repos.NewScheduleEntryRepo(tx, log)
	certRepo := repos.NewCertificateRepo(tx, log)
	eventRepo := repos.NewEventLogRepo(tx, log)
	svc := NewCertificateService(tx, log, scheduleRepo, certRepo, eventRepo)

	_, caregiver := testutil.SeedCaregiver(t, tx)
	doctor := testutil.SeedUser(t, tx, types.RoleDoctor)
	actor := Actor{ID: doctor.ID, Role: doctor.Role}

	// No schedules at all: not eligible.
	empty := testutil.SeedChild(t, tx, caregiver.ID, date(2024, time.January, 1))
	cert, err := svc.IssueIfComplete(context.Background(), tx, empty.ID, empty.ID, actor)
	if err != nil {
		t.Fatalf("IssueIfComplete(no schedules): %v", err)
	}
	if cert != nil {
		t.Fatal("certificate issued for a child with zero schedules")
	}

	// A MISSED schedule blocks eligibility.
	partial := testutil.SeedChild(t, tx, caregiver.ID, date(2024, time.January, 1))
	testutil.SeedSchedule(t, tx, partial.ID, "BCG", date(2024, time.January, 1), types.ScheduleStatusDone)
	missed := testutil.SeedSchedule(t, tx, partial.ID, "Penta-1", date(2024, time.February, 12), types.ScheduleStatusMissed)
	cert, err = svc.IssueIfComplete(context.Background(), tx, partial.ID, missed.ID, actor)
	if err != nil {
		t.Fatalf("IssueIfComplete(missed present): %v", err)
	}
	if cert != nil {
		t.Fatal("certificate issued while a schedule is MISSED")
	}
}
