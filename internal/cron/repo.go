package cron

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

// Repository persists the scheduled job slots the worker polls.
type Repository interface {
	// Seed ensures one row exists per known job type.
	Seed(ctx context.Context, now time.Time) error
	FindDue(ctx context.Context, now time.Time) ([]models.ScheduledJob, error)
	List(ctx context.Context) ([]models.ScheduledJob, error)
	FindByType(ctx context.Context, jobType enums.JobType) (*models.ScheduledJob, error)
	SetEnabled(ctx context.Context, jobType enums.JobType, enabled bool) error
	// RecordSuccess stamps last_run_at, clears last_error and advances
	// next_run_at.
	RecordSuccess(ctx context.Context, jobType enums.JobType, ranAt, nextRunAt time.Time) error
	// RecordFailure stamps last_run_at and last_error; a nil nextRunAt
	// leaves next_run_at untouched so the job retries next cycle.
	RecordFailure(ctx context.Context, jobType enums.JobType, ranAt time.Time, nextRunAt *time.Time, message string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed scheduled job repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Seed(ctx context.Context, now time.Time) error {
	for _, jobType := range enums.JobTypes() {
		row := models.ScheduledJob{
			JobType:       jobType,
			IsEnabled:     true,
			NextRunAt:     now,
			IntervalHours: 24,
		}
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "job_type"}},
				DoNothing: true,
			}).
			Create(&row).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) FindDue(ctx context.Context, now time.Time) ([]models.ScheduledJob, error) {
	var jobs []models.ScheduledJob
	err := r.db.WithContext(ctx).
		Where("is_enabled = ? AND next_run_at <= ?", true, now).
		Order("next_run_at asc").
		Find(&jobs).Error
	return jobs, err
}

func (r *repository) List(ctx context.Context) ([]models.ScheduledJob, error) {
	var jobs []models.ScheduledJob
	err := r.db.WithContext(ctx).Order("job_type asc").Find(&jobs).Error
	return jobs, err
}

func (r *repository) FindByType(ctx context.Context, jobType enums.JobType) (*models.ScheduledJob, error) {
	var job models.ScheduledJob
	err := r.db.WithContext(ctx).Where("job_type = ?", jobType).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scheduled job not found")
		}
		return nil, err
	}
	return &job, nil
}

func (r *repository) SetEnabled(ctx context.Context, jobType enums.JobType, enabled bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("job_type = ?", jobType).
		Update("is_enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "scheduled job not found")
	}
	return nil
}

func (r *repository) RecordSuccess(ctx context.Context, jobType enums.JobType, ranAt, nextRunAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("job_type = ?", jobType).
		Updates(map[string]any{
			"last_run_at": ranAt,
			"next_run_at": nextRunAt,
			"last_error":  nil,
		}).Error
}

func (r *repository) RecordFailure(ctx context.Context, jobType enums.JobType, ranAt time.Time, nextRunAt *time.Time, message string) error {
	updates := map[string]any{
		"last_run_at": ranAt,
		"last_error":  message,
	}
	if nextRunAt != nil {
		updates["next_run_at"] = *nextRunAt
	}
	return r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("job_type = ?", jobType).
		Updates(updates).Error
}
