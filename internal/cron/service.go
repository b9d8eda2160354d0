package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
	"github.com/havenwerk/verhuur-backend/pkg/metrics"
)

const (
	defaultInterval      = 15 * time.Minute
	defaultRetryAttempts = 3
	defaultRetryBase     = 2 * time.Second
)

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger        *logger.Logger
	Registry      *Registry
	Jobs          Repository
	Lock          Lock
	Metrics       *metrics.CronJobMetrics
	Interval      time.Duration
	RetryAttempts int
	RetryBase     time.Duration
	Now           func() time.Time
}

// Service polls the scheduled_jobs table and dispatches due jobs to
// their handlers.
type Service struct {
	logg          *logger.Logger
	registry      *Registry
	jobs          Repository
	lock          Lock
	metrics       *metrics.CronJobMetrics
	interval      time.Duration
	retryAttempts int
	retryBase     time.Duration
	now           func() time.Time
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Jobs == nil {
		return nil, fmt.Errorf("job repository required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	retryAttempts := params.RetryAttempts
	if retryAttempts <= 0 {
		retryAttempts = defaultRetryAttempts
	}
	retryBase := params.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:          params.Logger,
		registry:      registry,
		jobs:          params.Jobs,
		lock:          params.Lock,
		metrics:       params.Metrics,
		interval:      interval,
		retryAttempts: retryAttempts,
		retryBase:     retryBase,
		now:           now,
	}, nil
}

// Run starts the poll loop until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.RunCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				s.logg.Error(ctx, "scheduled run failed", err)
			}
		}
	}
}

// RunCycle executes all due jobs once, guarded by the instance lock.
func (s *Service) RunCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	due, err := s.jobs.FindDue(ctx, s.now())
	if err != nil {
		return fmt.Errorf("load due jobs: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	s.logg.Info(s.logg.WithField(ctx, "due", len(due)), "scheduled run starting")
	for _, job := range due {
		s.runJob(ctx, job)
	}
	s.logg.Info(ctx, "scheduled run complete")
	return nil
}

func (s *Service) runJob(ctx context.Context, job models.ScheduledJob) {
	jobCtx := s.logg.WithJob(ctx, job.JobType.String())
	handler, ok := s.registry.Get(job.JobType)
	if !ok {
		s.logg.Error(jobCtx, "no handler registered", fmt.Errorf("job type %s", job.JobType))
		ranAt := s.now()
		if err := s.jobs.RecordFailure(ctx, job.JobType, ranAt, nil, "no handler registered"); err != nil {
			s.logg.Error(jobCtx, "failed to record job failure", err)
		}
		return
	}

	s.logg.Info(jobCtx, "job start")
	start := s.now()
	err := s.runWithRetry(jobCtx, handler)
	duration := time.Since(start)
	s.observeDuration(job.JobType.String(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())

	ranAt := s.now()
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.recordFailure(job.JobType.String())
		// Polling jobs advance anyway; monthly billing jobs keep their
		// slot so the next cycle retries the same month.
		var next *time.Time
		if !job.JobType.Monthly() {
			advanced := nextRunAt(job, ranAt)
			next = &advanced
		}
		if recErr := s.jobs.RecordFailure(ctx, job.JobType, ranAt, next, err.Error()); recErr != nil {
			s.logg.Error(jobCtx, "failed to record job failure", recErr)
		}
		return
	}

	s.logg.Info(jobCtx, "job completed")
	s.recordSuccess(job.JobType.String())
	if recErr := s.jobs.RecordSuccess(ctx, job.JobType, ranAt, nextRunAt(job, ranAt)); recErr != nil {
		s.logg.Error(jobCtx, "failed to record job success", recErr)
	}
}

// runWithRetry retries transient handler failures within the cycle.
// Configuration errors are permanent until an operator intervenes.
func (s *Service) runWithRetry(ctx context.Context, handler Handler) error {
	backoff := retry.WithMaxRetries(uint64(s.retryAttempts-1), retry.NewExponential(s.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := handler.Run(ctx)
		if err == nil {
			return nil
		}
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeConfiguration {
			return err
		}
		return retry.RetryableError(err)
	})
}

// nextRunAt advances a job slot: monthly billing jobs move to the
// first of the next month, polling jobs move by their interval.
func nextRunAt(job models.ScheduledJob, from time.Time) time.Time {
	if job.JobType.Monthly() {
		firstOfMonth := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
		return firstOfMonth.AddDate(0, 1, 0)
	}
	hours := job.IntervalHours
	if hours <= 0 {
		hours = 24
	}
	return from.Add(time.Duration(hours) * time.Hour)
}

func (s *Service) observeDuration(job string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(job, duration)
}

func (s *Service) recordSuccess(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSuccess(job)
}

func (s *Service) recordFailure(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncFailure(job)
}
