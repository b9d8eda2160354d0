package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/havenwerk/verhuur-backend/api/responses"
	"github.com/havenwerk/verhuur-backend/api/validators"
	"github.com/havenwerk/verhuur-backend/internal/tenants"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

type customerRequest struct {
	Name        string  `json:"name" validate:"required"`
	CompanyName *string `json:"company_name"`
	ContactName *string `json:"contact_name"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       *string `json:"phone"`
	Street      string  `json:"street"`
	PostalCode  string  `json:"postal_code"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	VATNumber   *string `json:"vat_number"`
}

type customerUpdateRequest struct {
	Name        *string `json:"name"`
	CompanyName *string `json:"company_name"`
	ContactName *string `json:"contact_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	Street      *string `json:"street"`
	PostalCode  *string `json:"postal_code"`
	City        *string `json:"city"`
	Country     *string `json:"country"`
	VATNumber   *string `json:"vat_number"`
}

type customerResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CompanyName *string   `json:"company_name,omitempty"`
	ContactName *string   `json:"contact_name,omitempty"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	Street      string    `json:"street"`
	PostalCode  string    `json:"postal_code"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	VATNumber   *string   `json:"vat_number,omitempty"`

	EBoekhoudenRelatieID *string    `json:"eboekhouden_relatie_id,omitempty"`
	EBoekhoudenSyncedAt  *time.Time `json:"eboekhouden_synced_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func tenantResponseFromModel(m *models.Tenant) customerResponse {
	return customerResponse{
		ID:                   m.ID,
		Name:                 m.Name,
		CompanyName:          m.CompanyName,
		ContactName:          m.ContactName,
		Email:                m.Email,
		Phone:                m.Phone,
		Street:               m.Street,
		PostalCode:           m.PostalCode,
		City:                 m.City,
		Country:              m.Country,
		VATNumber:            m.VATNumber,
		EBoekhoudenRelatieID: m.EBoekhoudenRelatieID,
		EBoekhoudenSyncedAt:  m.EBoekhoudenSyncedAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func externalCustomerResponseFromModel(m *models.ExternalCustomer) customerResponse {
	return customerResponse{
		ID:                   m.ID,
		Name:                 m.Name,
		CompanyName:          m.CompanyName,
		ContactName:          m.ContactName,
		Email:                m.Email,
		Phone:                m.Phone,
		Street:               m.Street,
		PostalCode:           m.PostalCode,
		City:                 m.City,
		Country:              m.Country,
		VATNumber:            m.VATNumber,
		EBoekhoudenRelatieID: m.EBoekhoudenRelatieID,
		EBoekhoudenSyncedAt:  m.EBoekhoudenSyncedAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// TenantCreate stores a new leaseholder.
func TenantCreate(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		var req customerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateTenant(r.Context(), &models.Tenant{
			Name:        req.Name,
			CompanyName: req.CompanyName,
			ContactName: req.ContactName,
			Email:       req.Email,
			Phone:       req.Phone,
			Street:      req.Street,
			PostalCode:  req.PostalCode,
			City:        req.City,
			Country:     req.Country,
			VATNumber:   req.VATNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, tenantResponseFromModel(created))
	}
}

// TenantUpdate applies a partial update to a tenant.
func TenantUpdate(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "tenantId"), "tenantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req customerUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateTenant(r.Context(), id, func(t *models.Tenant) {
			applyCustomerUpdate(req, &t.Name, &t.CompanyName, &t.ContactName, &t.Email, &t.Phone, &t.Street, &t.PostalCode, &t.City, &t.Country, &t.VATNumber)
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tenantResponseFromModel(updated))
	}
}

// TenantDetail returns a single tenant.
func TenantDetail(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "tenantId"), "tenantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tenant, err := svc.GetTenant(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tenantResponseFromModel(tenant))
	}
}

// TenantList returns all tenants.
func TenantList(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		rows, err := svc.ListTenants(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]customerResponse, 0, len(rows))
		for i := range rows {
			out = append(out, tenantResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ExternalCustomerCreate stores a new external (non-lease) customer.
func ExternalCustomerCreate(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		var req customerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateExternalCustomer(r.Context(), &models.ExternalCustomer{
			Name:        req.Name,
			CompanyName: req.CompanyName,
			ContactName: req.ContactName,
			Email:       req.Email,
			Phone:       req.Phone,
			Street:      req.Street,
			PostalCode:  req.PostalCode,
			City:        req.City,
			Country:     req.Country,
			VATNumber:   req.VATNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, externalCustomerResponseFromModel(created))
	}
}

// ExternalCustomerUpdate applies a partial update to an external customer.
func ExternalCustomerUpdate(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "customerId"), "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req customerUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateExternalCustomer(r.Context(), id, func(c *models.ExternalCustomer) {
			applyCustomerUpdate(req, &c.Name, &c.CompanyName, &c.ContactName, &c.Email, &c.Phone, &c.Street, &c.PostalCode, &c.City, &c.Country, &c.VATNumber)
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, externalCustomerResponseFromModel(updated))
	}
}

// ExternalCustomerDetail returns a single external customer.
func ExternalCustomerDetail(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "customerId"), "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.GetExternalCustomer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, externalCustomerResponseFromModel(customer))
	}
}

// ExternalCustomerList returns all external customers.
func ExternalCustomerList(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		rows, err := svc.ListExternalCustomers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]customerResponse, 0, len(rows))
		for i := range rows {
			out = append(out, externalCustomerResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func applyCustomerUpdate(
	req customerUpdateRequest,
	name *string,
	companyName, contactName **string,
	email *string,
	phone **string,
	street, postalCode, city, country *string,
	vatNumber **string,
) {
	if req.Name != nil {
		*name = *req.Name
	}
	if req.CompanyName != nil {
		*companyName = req.CompanyName
	}
	if req.ContactName != nil {
		*contactName = req.ContactName
	}
	if req.Email != nil {
		*email = *req.Email
	}
	if req.Phone != nil {
		*phone = req.Phone
	}
	if req.Street != nil {
		*street = *req.Street
	}
	if req.PostalCode != nil {
		*postalCode = *req.PostalCode
	}
	if req.City != nil {
		*city = *req.City
	}
	if req.Country != nil {
		*country = *req.Country
	}
	if req.VATNumber != nil {
		*vatNumber = req.VATNumber
	}
}
