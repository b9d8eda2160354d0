package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenwerk/verhuur-backend/api/responses"
	"github.com/havenwerk/verhuur-backend/api/validators"
	"github.com/havenwerk/verhuur-backend/internal/leases"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

type leaseSpaceRequest struct {
	OfficeSpaceID string          `json:"office_space_id" validate:"required"`
	PricePerSqm   decimal.Decimal `json:"price_per_sqm"`
	MonthlyRent   decimal.Decimal `json:"monthly_rent"`
}

type leaseCreateRequest struct {
	TenantID  string     `json:"tenant_id" validate:"required"`
	LeaseType string     `json:"lease_type" validate:"required"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date"`

	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	VATRate         decimal.Decimal `json:"vat_rate"`
	VATInclusive    bool            `json:"vat_inclusive"`

	CreditsPerWeek *int             `json:"credits_per_week"`
	FlexCreditRate *decimal.Decimal `json:"flex_credit_rate"`

	Notes  string              `json:"notes"`
	Spaces []leaseSpaceRequest `json:"spaces" validate:"dive"`
}

func (r leaseCreateRequest) toModel() (*models.Lease, error) {
	tenantID, err := uuid.Parse(r.TenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tenant_id")
	}
	leaseType, err := enums.ParseLeaseType(r.LeaseType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lease_type")
	}

	lease := &models.Lease{
		TenantID:        tenantID,
		LeaseType:       leaseType,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IsActive:        true,
		SecurityDeposit: r.SecurityDeposit,
		VATRate:         r.VATRate,
		VATInclusive:    r.VATInclusive,
		CreditsPerWeek:  r.CreditsPerWeek,
		FlexCreditRate:  r.FlexCreditRate,
		Notes:           r.Notes,
	}

	for _, space := range r.Spaces {
		spaceID, err := uuid.Parse(space.OfficeSpaceID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid office_space_id")
		}
		lease.Spaces = append(lease.Spaces, models.LeaseSpace{
			OfficeSpaceID: spaceID,
			PricePerSqm:   space.PricePerSqm,
			MonthlyRent:   space.MonthlyRent,
		})
	}

	return lease, nil
}

type leaseUpdateRequest struct {
	EndDate        *time.Time       `json:"end_date"`
	IsActive       *bool            `json:"is_active"`
	VATInclusive   *bool            `json:"vat_inclusive"`
	VATRate        *decimal.Decimal `json:"vat_rate"`
	CreditsPerWeek *int             `json:"credits_per_week"`
	FlexCreditRate *decimal.Decimal `json:"flex_credit_rate"`
	Notes          *string          `json:"notes"`
}

type leaseSpaceResponse struct {
	ID            uuid.UUID       `json:"id"`
	OfficeSpaceID uuid.UUID       `json:"office_space_id"`
	PricePerSqm   decimal.Decimal `json:"price_per_sqm"`
	MonthlyRent   decimal.Decimal `json:"monthly_rent"`
}

type leaseResponse struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	LeaseType enums.LeaseType `json:"lease_type"`
	StartDate time.Time       `json:"start_date"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
	IsActive  bool            `json:"is_active"`

	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	VATRate         decimal.Decimal `json:"vat_rate"`
	VATInclusive    bool            `json:"vat_inclusive"`

	CreditsPerWeek *int             `json:"credits_per_week,omitempty"`
	FlexCreditRate *decimal.Decimal `json:"flex_credit_rate,omitempty"`

	Notes  string               `json:"notes,omitempty"`
	Spaces []leaseSpaceResponse `json:"spaces"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func leaseResponseFromModel(m *models.Lease) leaseResponse {
	out := leaseResponse{
		ID:              m.ID,
		TenantID:        m.TenantID,
		LeaseType:       m.LeaseType,
		StartDate:       m.StartDate,
		EndDate:         m.EndDate,
		IsActive:        m.IsActive,
		SecurityDeposit: m.SecurityDeposit,
		VATRate:         m.VATRate,
		VATInclusive:    m.VATInclusive,
		CreditsPerWeek:  m.CreditsPerWeek,
		FlexCreditRate:  m.FlexCreditRate,
		Notes:           m.Notes,
		Spaces:          make([]leaseSpaceResponse, 0, len(m.Spaces)),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	for _, space := range m.Spaces {
		out.Spaces = append(out.Spaces, leaseSpaceResponse{
			ID:            space.ID,
			OfficeSpaceID: space.OfficeSpaceID,
			PricePerSqm:   space.PricePerSqm,
			MonthlyRent:   space.MonthlyRent,
		})
	}
	return out
}

// LeaseCreate stores a new lease with its space assignments.
func LeaseCreate(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lease service unavailable"))
			return
		}

		var req leaseCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lease, err := req.toModel()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateLease(r.Context(), lease)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, leaseResponseFromModel(created))
	}
}

// LeaseUpdate applies a partial update to a lease.
func LeaseUpdate(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lease service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "leaseId"), "leaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req leaseUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateLease(r.Context(), id, func(l *models.Lease) {
			if req.EndDate != nil {
				l.EndDate = req.EndDate
			}
			if req.IsActive != nil {
				l.IsActive = *req.IsActive
			}
			if req.VATInclusive != nil {
				l.VATInclusive = *req.VATInclusive
			}
			if req.VATRate != nil {
				l.VATRate = *req.VATRate
			}
			if req.CreditsPerWeek != nil {
				l.CreditsPerWeek = req.CreditsPerWeek
			}
			if req.FlexCreditRate != nil {
				l.FlexCreditRate = req.FlexCreditRate
			}
			if req.Notes != nil {
				l.Notes = *req.Notes
			}
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, leaseResponseFromModel(updated))
	}
}

// LeaseDetail returns a single lease.
func LeaseDetail(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lease service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "leaseId"), "leaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lease, err := svc.GetLease(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, leaseResponseFromModel(lease))
	}
}

// LeaseList returns all leases.
func LeaseList(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lease service unavailable"))
			return
		}

		rows, err := svc.ListLeases(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]leaseResponse, 0, len(rows))
		for i := range rows {
			out = append(out, leaseResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type officeSpaceRequest struct {
	Name      string          `json:"name" validate:"required"`
	SpaceType string          `json:"space_type" validate:"required"`
	SizeSqm   decimal.Decimal `json:"size_sqm"`
}

type officeSpaceUpdateRequest struct {
	Name      *string          `json:"name"`
	SpaceType *string          `json:"space_type"`
	SizeSqm   *decimal.Decimal `json:"size_sqm"`
}

type officeSpaceResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	SpaceType enums.SpaceType `json:"space_type"`
	SizeSqm   decimal.Decimal `json:"size_sqm"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func officeSpaceResponseFromModel(m *models.OfficeSpace) officeSpaceResponse {
	return officeSpaceResponse{
		ID:        m.ID,
		Name:      m.Name,
		SpaceType: m.SpaceType,
		SizeSqm:   m.SizeSqm,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// OfficeSpaceCreate stores a new rentable unit.
func OfficeSpaceCreate(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lease service unavailable"))
			return
		}

		var req officeSpaceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		spaceType, err := enums.ParseSpaceType(req.SpaceType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid space_type"))
			return
		}

		created, err := svc.CreateOfficeSpace(r.Context(), &models.OfficeSpace{
			Name:      req.Name,
			SpaceType: spaceType,
			SizeSqm:   req.SizeSqm,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, officeSpaceResponseFromModel(created))
	}
}

// OfficeSpaceUpdate applies a partial update to an office space.
func OfficeSpaceUpdate(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lease service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "spaceId"), "spaceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req officeSpaceUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var spaceType *enums.SpaceType
		if req.SpaceType != nil {
			parsed, err := enums.ParseSpaceType(*req.SpaceType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid space_type"))
				return
			}
			spaceType = &parsed
		}

		updated, err := svc.UpdateOfficeSpace(r.Context(), id, func(s *models.OfficeSpace) {
			if req.Name != nil {
				s.Name = *req.Name
			}
			if spaceType != nil {
				s.SpaceType = *spaceType
			}
			if req.SizeSqm != nil {
				s.SizeSqm = *req.SizeSqm
			}
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, officeSpaceResponseFromModel(updated))
	}
}

// OfficeSpaceDetail returns a single office space.
func OfficeSpaceDetail(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lease service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "spaceId"), "spaceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		space, err := svc.GetOfficeSpace(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, officeSpaceResponseFromModel(space))
	}
}

// OfficeSpaceList returns all office spaces.
func OfficeSpaceList(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lease service unavailable"))
			return
		}

		rows, err := svc.ListOfficeSpaces(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]officeSpaceResponse, 0, len(rows))
		for i := range rows {
			out = append(out, officeSpaceResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
