package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/havenwerk/verhuur-backend/api/responses"
	"github.com/havenwerk/verhuur-backend/api/validators"
	syncsvc "github.com/havenwerk/verhuur-backend/internal/sync"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

type mappingRequest struct {
	LocalCategory string `json:"local_category" validate:"required"`
	Code          string `json:"code" validate:"required"`
	Description   string `json:"description"`
}

type mappingResponse struct {
	ID            uuid.UUID `json:"id"`
	LocalCategory string    `json:"local_category"`
	Code          string    `json:"code"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func mappingResponseFromModel(m *models.GrootboekMapping) mappingResponse {
	return mappingResponse{
		ID:            m.ID,
		LocalCategory: m.LocalCategory,
		Code:          m.Code,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// MappingUpsert creates or replaces the ledger account mapping for a category.
func MappingUpsert(repo syncsvc.MappingRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping repository unavailable"))
			return
		}

		var req mappingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saved, err := repo.Upsert(r.Context(), &models.GrootboekMapping{
			LocalCategory: req.LocalCategory,
			Code:          req.Code,
			Description:   req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, mappingResponseFromModel(saved))
	}
}

// MappingList returns all ledger account mappings.
func MappingList(repo syncsvc.MappingRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping repository unavailable"))
			return
		}

		rows, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]mappingResponse, 0, len(rows))
		for i := range rows {
			out = append(out, mappingResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// MappingDelete removes a ledger account mapping.
func MappingDelete(repo syncsvc.MappingRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping repository unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "mappingId"), "mappingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := repo.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
