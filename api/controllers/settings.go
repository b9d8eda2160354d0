package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenwerk/verhuur-backend/api/responses"
	"github.com/havenwerk/verhuur-backend/api/validators"
	"github.com/havenwerk/verhuur-backend/internal/settings"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

// settingsResolver is the read-only slice of the settings service used
// by handlers that need the current configuration.
type settingsResolver interface {
	Resolve(ctx context.Context) (*models.CompanySettings, error)
}

type settingsUpdateRequest struct {
	CompanyName          *string          `json:"company_name"`
	DefaultVATRate       *decimal.Decimal `json:"default_vat_rate"`
	DefaultVATInclusive  *bool            `json:"default_vat_inclusive"`
	InvoiceDueDays       *int             `json:"invoice_due_days" validate:"omitempty,min=0,max=365"`
	DefaultLedgerAccount *string          `json:"default_ledger_account"`
	EBoekhoudenEnabled   *bool            `json:"eboekhouden_enabled"`
	EBoekhoudenAPIToken  *string          `json:"eboekhouden_api_token"`
	InvoiceTemplateID    *string          `json:"invoice_template_id"`
	EmailTemplateID      *string          `json:"email_template_id"`
}

type settingsResponse struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"company_name"`

	DefaultVATRate      decimal.Decimal `json:"default_vat_rate"`
	DefaultVATInclusive bool            `json:"default_vat_inclusive"`
	InvoiceDueDays      int             `json:"invoice_due_days"`

	DefaultLedgerAccount string `json:"default_ledger_account"`

	EBoekhoudenEnabled bool    `json:"eboekhouden_enabled"`
	HasAPIToken        bool    `json:"has_api_token"`
	InvoiceTemplateID  *string `json:"invoice_template_id,omitempty"`
	EmailTemplateID    *string `json:"email_template_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// The API token never leaves the server; only its presence is reported.
func settingsResponseFromModel(m *models.CompanySettings) settingsResponse {
	return settingsResponse{
		ID:                   m.ID,
		CompanyName:          m.CompanyName,
		DefaultVATRate:       m.DefaultVATRate,
		DefaultVATInclusive:  m.DefaultVATInclusive,
		InvoiceDueDays:       m.InvoiceDueDays,
		DefaultLedgerAccount: m.DefaultLedgerAccount,
		EBoekhoudenEnabled:   m.EBoekhoudenEnabled,
		HasAPIToken:          m.EBoekhoudenAPIToken != "",
		InvoiceTemplateID:    m.InvoiceTemplateID,
		EmailTemplateID:      m.EmailTemplateID,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// SettingsGet returns the current company settings.
func SettingsGet(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		current, err := svc.Resolve(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, settingsResponseFromModel(current))
	}
}

// SettingsUpdate applies a partial update to the company settings.
func SettingsUpdate(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		var req settingsUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), settings.UpdateInput{
			CompanyName:          req.CompanyName,
			DefaultVATRate:       req.DefaultVATRate,
			DefaultVATInclusive:  req.DefaultVATInclusive,
			InvoiceDueDays:       req.InvoiceDueDays,
			DefaultLedgerAccount: req.DefaultLedgerAccount,
			EBoekhoudenEnabled:   req.EBoekhoudenEnabled,
			EBoekhoudenAPIToken:  req.EBoekhoudenAPIToken,
			InvoiceTemplateID:    req.InvoiceTemplateID,
			EmailTemplateID:      req.EmailTemplateID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, settingsResponseFromModel(updated))
	}
}
