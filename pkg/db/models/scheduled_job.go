package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/havenwerk/verhuur-backend/pkg/enums"
)

// ScheduledJob is a persisted job slot polled by the cron worker.
// NextRunAt is advanced only after a successful run, so a crashed
// handler is retried on the next cycle.
type ScheduledJob struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	JobType   enums.JobType `gorm:"column:job_type;not null;unique"`
	IsEnabled bool          `gorm:"column:is_enabled;not null"`

	LastRunAt     *time.Time `gorm:"column:last_run_at"`
	NextRunAt     time.Time  `gorm:"column:next_run_at;not null;index"`
	LastError     *string    `gorm:"column:last_error"`
	IntervalHours int        `gorm:"column:interval_hours;not null;default:24"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
