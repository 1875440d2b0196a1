package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/types"
)

// SweepResult summarizes one run of the four due-window passes.
type SweepResult struct {
	PreDueNotified   int `json:"pre_due_notified"`
	DueTodayNotified int `json:"due_today_notified"`
	MissedNotified   int `json:"missed_notified"`
	AutoMissedCount  int `json:"auto_missed_count"`
}

type SweepService interface {
	// Run executes all four windows against the given calendar date.
	// Each window is independently idempotent.
	Run(ctx context.Context, today time.Time) (*SweepResult, error)
	StartWorker(ctx context.Context)
}

type sweepService struct {
	db           *gorm.DB
	log          *logger.Logger
	scheduleRepo repos.ScheduleEntryRepo
	eventRepo    repos.EventLogRepo
	rulesService RulesService
	notifier     Notifier
	recipients   *recipientResolver
	interval     time.Duration
}

func NewSweepService(
	db *gorm.DB,
	log *logger.Logger,
	scheduleRepo repos.ScheduleEntryRepo,
	eventRepo repos.EventLogRepo,
	rulesService RulesService,
	notifier Notifier,
	childRepo repos.ChildProfileRepo,
	caregiverRepo repos.CaregiverProfileRepo,
	userRepo repos.UserRepo,
	interval time.Duration,
) SweepService {
	serviceLog := log.With("service", "SweepService")
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &sweepService{
		db:           db,
		log:          serviceLog,
		scheduleRepo: scheduleRepo,
		eventRepo:    eventRepo,
		rulesService: rulesService,
		notifier:     notifier,
		recipients:   newRecipientResolver(serviceLog, childRepo, caregiverRepo, userRepo),
		interval:     interval,
	}
}

func (ss *sweepService) StartWorker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(ss.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := ss.Run(ctx, time.Now().UTC()); err != nil {
					ss.log.Error("Scheduled sweep failed", "error", err)
				}
			}
		}
	}()
}

func (ss *sweepService) Run(ctx context.Context, today time.Time) (*SweepResult, error) {
	day := dateOnly(today)
	cfg, err := ss.rulesService.Get(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}

	preDueDate := day.AddDate(0, 0, cfg.PreDueReminderDays)
	preDue, err := ss.scheduleRepo.GetDueOnDate(ctx, nil, preDueDate)
	if err != nil {
		return nil, err
	}
	for _, s := range preDue {
		ss.remind(ctx, s, fmt.Sprintf("is due in %d days, on %s", cfg.PreDueReminderDays, s.ScheduledDate.Format("2006-01-02")))
		result.PreDueNotified++
	}

	dueToday, err := ss.scheduleRepo.GetDueOnDate(ctx, nil, day)
	if err != nil {
		return nil, err
	}
	for _, s := range dueToday {
		ss.remind(ctx, s, "is due today")
		result.DueTodayNotified++
	}

	// The missed notification fires only at exactly missed_after_days
	// past the due date. The status transition below is unconditional
	// on any past date; the two are intentionally decoupled.
	missedDate := day.AddDate(0, 0, -cfg.MissedAfterDays)
	missed, err := ss.scheduleRepo.GetNotDoneOnDate(ctx, nil, missedDate)
	if err != nil {
		return nil, err
	}
	for _, s := range missed {
		ss.remind(ctx, s, fmt.Sprintf("was missed on %s, please contact the clinic to reschedule", s.ScheduledDate.Format("2006-01-02")))
		result.MissedNotified++
	}

	autoMissed, err := ss.autoMiss(ctx, day)
	if err != nil {
		return nil, err
	}
	result.AutoMissedCount = autoMissed

	ss.log.Info("Sweep complete",
		"date", day.Format("2006-01-02"),
		"pre_due_notified", result.PreDueNotified,
		"due_today_notified", result.DueTodayNotified,
		"missed_notified", result.MissedNotified,
		"auto_missed", result.AutoMissedCount)
	return result, nil
}

// autoMiss flips every DUE entry with a past due date to MISSED, each
// row in its own transaction so one bad row cannot stall the scan.
func (ss *sweepService) autoMiss(ctx context.Context, day time.Time) (int, error) {
	overdue, err := ss.scheduleRepo.GetOverdueDue(ctx, nil, day)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, s := range overdue {
		err := ss.db.Transaction(func(tx *gorm.DB) error {
			if err := ss.scheduleRepo.UpdateFields(ctx, tx, s.ID, map[string]any{
				"status": types.ScheduleStatusMissed,
			}); err != nil {
				return err
			}
			return appendEvent(ctx, tx, ss.eventRepo, s.ID, types.EventStatusChanged, nil, map[string]any{
				"previous_status": types.ScheduleStatusDue,
				"new_status":      types.ScheduleStatusMissed,
				"source":          "sweep",
			})
		})
		if err != nil {
			ss.log.Error("Failed to auto-miss overdue schedule", "schedule_id", s.ID, "error", err)
			continue
		}
		count++
	}
	return count, nil
}

func (ss *sweepService) remind(ctx context.Context, schedule *types.ScheduleEntry, phrase string) {
	var recipient *scheduleRecipient
	var ok bool
	if schedule.Child != nil {
		recipient, ok = ss.recipients.forChild(ctx, schedule.Child)
	} else {
		recipient, ok = ss.recipients.forChildID(ctx, schedule.ChildID)
	}
	if !ok {
		return
	}

	body := fmt.Sprintf("%s for %s %s", schedule.VaccineName, recipient.ChildName, phrase)
	ss.notifier.Send(ctx, Notification{
		RecipientID: recipient.UserID,
		Email:       recipient.Email,
		Phone:       recipient.Phone,
		Type:        types.NotificationTypeReminder,
		Subject:     fmt.Sprintf("Immunization reminder for %s", recipient.ChildName),
		Message:     fmt.Sprintf("Dear %s, %s.", recipient.CaregiverName, body),
		SMSText:     body,
		Meta: map[string]any{
			"schedule_id":  schedule.ID.String(),
			"child_id":     schedule.ChildID.String(),
			"vaccine_name": schedule.VaccineName,
		},
	})
}
