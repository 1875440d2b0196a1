package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/apierr"
	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

// DashboardStats is the staff overview: global status counts plus the
// overdue backlog as of today.
type DashboardStats struct {
	ChildrenRegistered int   `json:"children_registered"`
	SchedulesDue       int64 `json:"schedules_due"`
	SchedulesDone      int64 `json:"schedules_done"`
	SchedulesMissed    int64 `json:"schedules_missed"`
	OverdueBacklog     int64 `json:"overdue_backlog"`
}

type StatsService interface {
	Overview(ctx context.Context, actor Actor) (*DashboardStats, error)
}

type statsService struct {
	db           *gorm.DB
	log          *logger.Logger
	childRepo    repos.ChildProfileRepo
	scheduleRepo repos.ScheduleEntryRepo
}

func NewStatsService(db *gorm.DB, log *logger.Logger, childRepo repos.ChildProfileRepo, scheduleRepo repos.ScheduleEntryRepo) StatsService {
	serviceLog := log.With("service", "StatsService")
	return &statsService{db: db, log: serviceLog, childRepo: childRepo, scheduleRepo: scheduleRepo}
}

func (ss *statsService) Overview(ctx context.Context, actor Actor) (*DashboardStats, error) {
	if !actor.CanAdminister() {
		return nil, apierr.Forbidden("role %s may not view the dashboard", actor.Role)
	}

	children, err := ss.childRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{ChildrenRegistered: len(children)}
	if stats.SchedulesDue, err = ss.scheduleRepo.CountByStatus(ctx, nil, types.ScheduleStatusDue); err != nil {
		return nil, err
	}
	if stats.SchedulesDone, err = ss.scheduleRepo.CountByStatus(ctx, nil, types.ScheduleStatusDone); err != nil {
		return nil, err
	}
	if stats.SchedulesMissed, err = ss.scheduleRepo.CountByStatus(ctx, nil, types.ScheduleStatusMissed); err != nil {
		return nil, err
	}
	if stats.OverdueBacklog, err = ss.scheduleRepo.CountMissedAsOf(ctx, nil, dateOnly(time.Now().UTC())); err != nil {
		return nil, err
	}
	return stats, nil
}
