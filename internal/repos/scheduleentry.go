package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/types"
)

// ScheduleFilter narrows list queries for the caregiver/staff views.
// Zero values mean "no constraint".
type ScheduleFilter struct {
	ChildIDs    []uuid.UUID
	Status      string
	StartDate   *time.Time
	EndDate     *time.Time
	VisibleOnly bool
}

type ScheduleEntryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ScheduleEntry) ([]*types.ScheduleEntry, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ScheduleEntry, error)
	GetByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID) ([]*types.ScheduleEntry, error)
	GetSoonestByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID) (*types.ScheduleEntry, error)
	ListFiltered(ctx context.Context, tx *gorm.DB, filter ScheduleFilter) ([]*types.ScheduleEntry, error)
	GetDueOnDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*types.ScheduleEntry, error)
	GetNotDoneOnDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*types.ScheduleEntry, error)
	GetOverdueDue(ctx context.Context, tx *gorm.DB, before time.Time) ([]*types.ScheduleEntry, error)
	MarkVisibleByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID, approvedBy uuid.UUID, approvedAt time.Time) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteDueByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context, tx *gorm.DB, status string) (int64, error)
	CountMissedAsOf(ctx context.Context, tx *gorm.DB, date time.Time) (int64, error)
}

type scheduleEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScheduleEntryRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleEntryRepo {
	repoLog := baseLog.With("repo", "ScheduleEntryRepo")
	return &scheduleEntryRepo{db: db, log: repoLog}
}

func (r *scheduleEntryRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ScheduleEntry) ([]*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.ScheduleEntry{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *scheduleEntryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ScheduleEntry
	err := transaction.WithContext(ctx).
		Preload("Child").
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *scheduleEntryRepo) GetByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID) ([]*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ScheduleEntry
	if childID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("child_id = ?", childID).
		Order("scheduled_date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scheduleEntryRepo) GetSoonestByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID) (*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ScheduleEntry
	err := transaction.WithContext(ctx).
		Where("child_id = ?", childID).
		Order("scheduled_date ASC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *scheduleEntryRepo) ListFiltered(ctx context.Context, tx *gorm.DB, filter ScheduleFilter) ([]*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).Preload("Child").Model(&types.ScheduleEntry{})
	if len(filter.ChildIDs) > 0 {
		q = q.Where("child_id IN ?", filter.ChildIDs)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		q = q.Where("scheduled_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("scheduled_date <= ?", *filter.EndDate)
	}
	if filter.VisibleOnly {
		q = q.Where("visible_to_caregiver = ?", true)
	}

	var results []*types.ScheduleEntry
	if err := q.Order("scheduled_date ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scheduleEntryRepo) GetDueOnDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ScheduleEntry
	if err := transaction.WithContext(ctx).
		Preload("Child").
		Where("status = ? AND scheduled_date = ?", types.ScheduleStatusDue, date).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scheduleEntryRepo) GetNotDoneOnDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ScheduleEntry
	if err := transaction.WithContext(ctx).
		Preload("Child").
		Where("scheduled_date = ? AND status <> ?", date, types.ScheduleStatusDone).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scheduleEntryRepo) GetOverdueDue(ctx context.Context, tx *gorm.DB, before time.Time) ([]*types.ScheduleEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ScheduleEntry
	if err := transaction.WithContext(ctx).
		Where("status = ? AND scheduled_date < ?", types.ScheduleStatusDue, before).
		Order("scheduled_date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *scheduleEntryRepo) MarkVisibleByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID, approvedBy uuid.UUID, approvedAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.ScheduleEntry{}).
		Where("child_id = ? AND visible_to_caregiver = ?", childID, false).
		Updates(map[string]any{
			"visible_to_caregiver": true,
			"approved_by":          approvedBy,
			"approved_at":          approvedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *scheduleEntryRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.ScheduleEntry{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *scheduleEntryRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.ScheduleEntry{}).Error
}

func (r *scheduleEntryRepo) DeleteDueByChildID(ctx context.Context, tx *gorm.DB, childID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("child_id = ? AND status = ?", childID, types.ScheduleStatusDue).
		Delete(&types.ScheduleEntry{})
	return res.RowsAffected, res.Error
}

func (r *scheduleEntryRepo) CountByStatus(ctx context.Context, tx *gorm.DB, status string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.ScheduleEntry{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *scheduleEntryRepo) CountMissedAsOf(ctx context.Context, tx *gorm.DB, date time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.ScheduleEntry{}).
		Where("scheduled_date < ? AND status <> ?", date, types.ScheduleStatusDone).
		Count(&count).Error
	return count, err
}
