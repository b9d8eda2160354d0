package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/havenwerk/verhuur-backend/api/responses"
	"github.com/havenwerk/verhuur-backend/api/validators"
	"github.com/havenwerk/verhuur-backend/internal/cron"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

type scheduledJobResponse struct {
	ID        uuid.UUID     `json:"id"`
	JobType   enums.JobType `json:"job_type"`
	IsEnabled bool          `json:"is_enabled"`

	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	NextRunAt     time.Time  `json:"next_run_at"`
	LastError     *string    `json:"last_error,omitempty"`
	IntervalHours int        `json:"interval_hours"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func scheduledJobResponseFromModel(m *models.ScheduledJob) scheduledJobResponse {
	return scheduledJobResponse{
		ID:            m.ID,
		JobType:       m.JobType,
		IsEnabled:     m.IsEnabled,
		LastRunAt:     m.LastRunAt,
		NextRunAt:     m.NextRunAt,
		LastError:     m.LastError,
		IntervalHours: m.IntervalHours,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ScheduledJobList returns all job slots.
func ScheduledJobList(repo cron.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs repository unavailable"))
			return
		}

		rows, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]scheduledJobResponse, 0, len(rows))
		for i := range rows {
			out = append(out, scheduledJobResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type scheduledJobToggleRequest struct {
	IsEnabled *bool `json:"is_enabled" validate:"required"`
}

// ScheduledJobToggle enables or disables a job slot.
func ScheduledJobToggle(repo cron.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs repository unavailable"))
			return
		}

		jobType, err := enums.ParseJobType(chi.URLParam(r, "jobType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job type"))
			return
		}

		var req scheduledJobToggleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := repo.SetEnabled(r.Context(), jobType, *req.IsEnabled); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := repo.FindByType(r.Context(), jobType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, scheduledJobResponseFromModel(job))
	}
}
