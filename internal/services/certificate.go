package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

type CertificateService interface {
	// IssueIfComplete upserts the child's certificate when every
	// schedule is DONE. Returns nil when the child is not eligible.
	IssueIfComplete(ctx context.Context, tx *gorm.DB, childID uuid.UUID, triggeringScheduleID uuid.UUID, actor Actor) (*types.Certificate, error)
	GetByChildID(ctx context.Context, childID uuid.UUID) (*types.Certificate, error)
}

type certificateService struct {
	db           *gorm.DB
	log          *logger.Logger
	scheduleRepo repos.ScheduleEntryRepo
	certRepo     repos.CertificateRepo
	eventRepo    repos.EventLogRepo
}

func NewCertificateService(db *gorm.DB, log *logger.Logger, scheduleRepo repos.ScheduleEntryRepo, certRepo repos.CertificateRepo, eventRepo repos.EventLogRepo) CertificateService {
	serviceLog := log.With("service", "CertificateService")
	return &certificateService{db: db, log: serviceLog, scheduleRepo: scheduleRepo, certRepo: certRepo, eventRepo: eventRepo}
}

// IssueIfComplete is safe to call redundantly: re-triggering while the
// child is still fully DONE overwrites the snapshot in place instead of
// creating a second row. One CERTIFICATE_GENERATED event is appended
// per triggering call.
func (cs *certificateService) IssueIfComplete(ctx context.Context, tx *gorm.DB, childID uuid.UUID, triggeringScheduleID uuid.UUID, actor Actor) (*types.Certificate, error) {
	schedules, err := cs.scheduleRepo.GetByChildID(ctx, tx, childID)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, nil
	}
	for _, s := range schedules {
		if s.Status != types.ScheduleStatusDone {
			return nil, nil
		}
	}

	// GetByChildID orders by scheduled_date ascending, which is the
	// snapshot order consumers rely on.
	items := make([]types.CertificateItem, 0, len(schedules))
	for _, s := range schedules {
		item := types.CertificateItem{
			VaccineName:   s.VaccineName,
			ScheduledDate: s.ScheduledDate.Format("2006-01-02"),
			Status:        s.Status,
		}
		if s.DateCompleted != nil {
			done := s.DateCompleted.Format("2006-01-02")
			item.DateCompleted = &done
		}
		items = append(items, item)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cert, err := cs.certRepo.GetByChildID(ctx, tx, childID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		cert, err = cs.certRepo.Create(ctx, tx, &types.Certificate{
			ChildID:      childID,
			GeneratedAt:  now,
			GeneratedBy:  actor.IDPtr(),
			DataSnapshot: datatypes.JSON(raw),
		})
		if err != nil {
			return nil, err
		}
	} else {
		fields := map[string]any{
			"generated_at":  now,
			"generated_by":  actor.IDPtr(),
			"data_snapshot": datatypes.JSON(raw),
		}
		if err := cs.certRepo.UpdateFields(ctx, tx, cert.ID, fields); err != nil {
			return nil, err
		}
		cert.GeneratedAt = now
		cert.GeneratedBy = actor.IDPtr()
		cert.DataSnapshot = datatypes.JSON(raw)
	}

	if err := appendEvent(ctx, tx, cs.eventRepo, triggeringScheduleID, types.EventCertificateGenerated, actor.IDPtr(), map[string]any{
		"child_id":       childID.String(),
		"schedule_count": len(items),
	}); err != nil {
		return nil, err
	}

	cs.log.Info("Issued immunization certificate", "child_id", childID, "schedule_count", len(items))
	return cert, nil
}

func (cs *certificateService) GetByChildID(ctx context.Context, childID uuid.UUID) (*types.Certificate, error) {
	cert, err := cs.certRepo.GetByChildID(ctx, nil, childID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, apierr.NotFound("no certificate has been issued for this child")
	}
	return cert, nil
}
