package services

import (
	"context"
	"testing"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/testutil"
	"github.com/wellspring/maternal-backend/internal/types"
)

func TestRulesGetFallsBackToDefaults(t *testing.T) {
	tx := testutil.Tx(t)
	log := testutil.Logger(t)
	svc := NewRulesService(tx, log, repos.NewRuleConfigRepo(tx, log))

	cfg, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cfg.PreDueReminderDays != 3 || cfg.MissedAfterDays != 2 {
		t.Fatalf("defaults=%+v, want pre_due=3 missed_after=2", cfg)
	}
}

func TestRulesUpdateRequiresAdmin(t *testing.T) {
	tx := testutil.Tx(t)
	log := testutil.Logger(t)
	svc := NewRulesService(tx, log, repos.NewRuleConfigRepo(tx, log))

	nurse := testutil.SeedUser(t, tx, types.RoleNurse)
	_, err := svc.Update(context.Background(), Actor{ID: nurse.ID, Role: nurse.Role}, map[string]any{"missed_after_days": 5})
	var ae *apierr.Error
	if !asAPIError(err, &ae) || ae.Code != apierr.CodeForbidden {
		t.Fatalf("error=%v, want FORBIDDEN", err)
	}

	admin := testutil.SeedUser(t, tx, types.RoleAdmin)
	cfg, err := svc.Update(context.Background(), Actor{ID: admin.ID, Role: admin.Role}, map[string]any{"missed_after_days": 5})
	if err != nil {
		t.Fatalf("Update as admin: %v", err)
	}
	if cfg.MissedAfterDays != 5 {
		t.Fatalf("missed_after_days=%d, want 5", cfg.MissedAfterDays)
	}
}
