package services

import (
	"context"
	"testing"
	"time"

	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/testutil"
	"github.com/wellspring/maternal-backend/internal/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDueDate(t *testing.T) {
	dob := date(2024, time.January, 1)

	cases := []struct {
		name     string
		offset   int
		unit     string
		want     time.Time
	}{
		{
			name:   "birth_dose",
			offset: 0,
			unit:   types.OffsetUnitDays,
			want:   date(2024, time.January, 1),
		},
		{
			name:   "ten_days",
			offset: 10,
			unit:   types.OffsetUnitDays,
			want:   date(2024, time.January, 11),
		},
		{
			name:   "six_weeks",
			offset: 6,
			unit:   types.OffsetUnitWeeks,
			want:   date(2024, time.February, 12),
		},
		{
			// Months are a flat 30-day multiple, never calendar months.
			name:   "one_month_is_thirty_days",
			offset: 1,
			unit:   types.OffsetUnitMonths,
			want:   date(2024, time.January, 31),
		},
		{
			name:   "nine_months",
			offset: 9,
			unit:   types.OffsetUnitMonths,
			want:   dob.AddDate(0, 0, 270),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			template := &types.MasterTemplate{OffsetValue: tc.offset, OffsetUnit: tc.unit}
			got := DueDate(dob, template)
			if !got.Equal(tc.want) {
				t.Fatalf("DueDate(%s, %d %s)=%s, want %s", dob.Format("2006-01-02"), tc.offset, tc.unit, got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
			}
		})
	}
}

func TestDueDateIgnoresTimeOfDay(t *testing.T) {
	dob := time.Date(2024, time.March, 5, 17, 45, 12, 0, time.UTC)
	template := &types.MasterTemplate{OffsetValue: 1, OffsetUnit: types.OffsetUnitDays}
	got := DueDate(dob, template)
	want := date(2024, time.March, 6)
	if !got.Equal(want) {
		t.Fatalf("DueDate=%s, want %s", got, want)
	}
}

func TestGenerateCreatesOneEntryPerActiveTemplate(t *testing.T) {
	tx := testutil.Tx(t)
	log := testutil.Logger(t)
	templateRepo := repos.NewMasterTemplateRepo(tx, log)
	scheduleRepo := repos.NewScheduleEntryRepo(tx, log)
	generator := NewScheduleGenerator(tx, log, templateRepo, scheduleRepo)

	_, caregiver := testutil.SeedCaregiver(t, tx)
	dob := date(2024, time.January, 1)
	child := testutil.SeedChild(t, tx, caregiver.ID, dob)

	testutil.SeedTemplate(t, tx, "BCG", 0, types.OffsetUnitDays)
	testutil.SeedTemplate(t, tx, "Penta-1", 6, types.OffsetUnitWeeks)
	inactive := testutil.SeedTemplate(t, tx, "Retired", 4, types.OffsetUnitWeeks)
	if err := tx.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate template: %v", err)
	}

	created, err := generator.Generate(context.Background(), tx, child.ID, dob)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d entries, want 2", len(created))
	}
	for _, entry := range created {
		if entry.Status != types.ScheduleStatusDue {
			t.Fatalf("entry %s status=%s, want DUE", entry.VaccineName, entry.Status)
		}
		if entry.VisibleToCaregiver {
			t.Fatalf("entry %s visible before approval", entry.VaccineName)
		}
		if entry.VaccineName == "Penta-1" && !entry.ScheduledDate.Equal(date(2024, time.February, 12)) {
			t.Fatalf("Penta-1 scheduled %s, want 2024-02-12", entry.ScheduledDate.Format("2006-01-02"))
		}
	}
}

func TestGenerateEmptyCatalogCreatesNothing(t *testing.T) {
	tx := testutil.Tx(t)
	log := testutil.Logger(t)
	generator := NewScheduleGenerator(tx, log, repos.NewMasterTemplateRepo(tx, log), repos.NewScheduleEntryRepo(tx, log))

	_, caregiver := testutil.SeedCaregiver(t, tx)
	child := testutil.SeedChild(t, tx, caregiver.ID, date(2024, time.January, 1))

	created, err := generator.Generate(context.Background(), tx, child.ID, child.DateOfBirth)
	if err != nil {
		t.Fatalf("Generate with empty catalog: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("created %d entries, want 0", len(created))
	}
}
