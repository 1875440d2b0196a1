// Package testutil holds shared helpers for integration tests that
// need a real Postgres. Tests are skipped unless TEST_POSTGRES_DSN is
// set, so the unit suite stays runnable anywhere.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/types"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("development")
	if err != nil {
		tb.Fatalf("init logger: %v", err)
	}
	return log
}

// DB opens the test database and migrates the full schema. Each call
// shares the same database, so tests should run inside Tx.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("TEST_POSTGRES_DSN not set, skipping integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		tb.Fatalf("connect to test postgres: %v", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		tb.Fatalf("enable uuid-ossp: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.CaregiverProfile{},
		&types.ChildProfile{},
		&types.MasterTemplate{},
		&types.ScheduleEntry{},
		&types.ApprovalRecord{},
		&types.EventLogEntry{},
		&types.Certificate{},
		&types.RuleConfig{},
		&types.NotificationLog{},
	); err != nil {
		tb.Fatalf("migrate test schema: %v", err)
	}
	return db
}

// Tx begins a transaction that is rolled back when the test finishes,
// keeping the shared test database clean.
func Tx(tb testing.TB) *gorm.DB {
	tb.Helper()
	tx := DB(tb).Begin()
	if tx.Error != nil {
		tb.Fatalf("begin test transaction: %v", tx.Error)
	}
	tb.Cleanup(func() { tx.Rollback() })
	return tx
}

func SeedUser(tb testing.TB, tx *gorm.DB, role string) *types.User {
	tb.Helper()
	user := &types.User{
		Email:    uuid.NewString() + "@example.test",
		Password: "not-a-real-hash",
		FullName: "Test " + role,
		Role:     role,
	}
	if err := tx.Create(user).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return user
}

func SeedCaregiver(tb testing.TB, tx *gorm.DB) (*types.User, *types.CaregiverProfile) {
	tb.Helper()
	user := SeedUser(tb, tx, types.RoleCaregiver)
	caregiver := &types.CaregiverProfile{
		UserID:   user.ID,
		FullName: user.FullName,
		Phone:    "+10000000000",
	}
	if err := tx.Create(caregiver).Error; err != nil {
		tb.Fatalf("seed caregiver: %v", err)
	}
	return user, caregiver
}

func SeedChild(tb testing.TB, tx *gorm.DB, caregiverID uuid.UUID, dateOfBirth time.Time) *types.ChildProfile {
	tb.Helper()
	child := &types.ChildProfile{
		CaregiverID: caregiverID,
		Name:        "Test Child",
		DateOfBirth: dateOfBirth,
		HospitalID:  "BHB-" + uuid.NewString()[:8],
	}
	if err := tx.Create(child).Error; err != nil {
		tb.Fatalf("seed child: %v", err)
	}
	return child
}

func SeedTemplate(tb testing.TB, tx *gorm.DB, name string, offsetValue int, offsetUnit string) *types.MasterTemplate {
	tb.Helper()
	template := &types.MasterTemplate{
		Name:        name,
		Description: name + " dose",
		OffsetValue: offsetValue,
		OffsetUnit:  offsetUnit,
		IsActive:    true,
	}
	if err := tx.Create(template).Error; err != nil {
		tb.Fatalf("seed template: %v", err)
	}
	return template
}

func SeedSchedule(tb testing.TB, tx *gorm.DB, childID uuid.UUID, vaccine string, scheduledDate time.Time, status string) *types.ScheduleEntry {
	tb.Helper()
	schedule := &types.ScheduleEntry{
		ChildID:       childID,
		VaccineName:   vaccine,
		ScheduledDate: scheduledDate,
		Status:        status,
	}
	if status == types.ScheduleStatusDone {
		completed := scheduledDate
		schedule.DateCompleted = &completed
	}
	if err := tx.Create(schedule).Error; err != nil {
		tb.Fatalf("seed schedule: %v", err)
	}
	return schedule
}
