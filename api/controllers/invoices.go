package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenwerk/verhuur-backend/api/responses"
	"github.com/havenwerk/verhuur-backend/api/validators"
	"github.com/havenwerk/verhuur-backend/internal/invoicing"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

type invoiceLineItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	Description       string          `json:"description"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Amount            decimal.Decimal `json:"amount"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	LocalCategory     string          `json:"local_category"`
	LedgerAccountCode *string         `json:"ledger_account_code,omitempty"`
}

type invoiceResponse struct {
	ID            uuid.UUID          `json:"id"`
	InvoiceNumber string             `json:"invoice_number"`
	LeaseID       *uuid.UUID         `json:"lease_id,omitempty"`
	CustomerID    uuid.UUID          `json:"customer_id"`
	CustomerType  enums.CustomerType `json:"customer_type"`

	InvoiceMonth string    `json:"invoice_month"`
	InvoiceDate  time.Time `json:"invoice_date"`
	DueDate      time.Time `json:"due_date"`

	Status enums.InvoiceStatus `json:"status"`

	Subtotal     decimal.Decimal `json:"subtotal"`
	VATAmount    decimal.Decimal `json:"vat_amount"`
	Amount       decimal.Decimal `json:"amount"`
	VATRate      decimal.Decimal `json:"vat_rate"`
	VATInclusive bool            `json:"vat_inclusive"`

	Notes string `json:"notes,omitempty"`

	EBoekhoudenInvoiceID *string    `json:"eboekhouden_invoice_id,omitempty"`
	SyncedAt             *time.Time `json:"synced_at,omitempty"`
	PaidAt               *time.Time `json:"paid_at,omitempty"`

	LineItems []invoiceLineItemResponse `json:"line_items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func invoiceResponseFromModel(m *models.Invoice) invoiceResponse {
	out := invoiceResponse{
		ID:                   m.ID,
		InvoiceNumber:        m.InvoiceNumber,
		LeaseID:              m.LeaseID,
		CustomerID:           m.CustomerID,
		CustomerType:         m.CustomerType,
		InvoiceMonth:         m.InvoiceMonth,
		InvoiceDate:          m.InvoiceDate,
		DueDate:              m.DueDate,
		Status:               m.Status,
		Subtotal:             m.Subtotal,
		VATAmount:            m.VATAmount,
		Amount:               m.Amount,
		VATRate:              m.VATRate,
		VATInclusive:         m.VATInclusive,
		Notes:                m.Notes,
		EBoekhoudenInvoiceID: m.EBoekhoudenInvoiceID,
		SyncedAt:             m.SyncedAt,
		PaidAt:               m.PaidAt,
		LineItems:            make([]invoiceLineItemResponse, 0, len(m.LineItems)),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
	for _, item := range m.LineItems {
		out.LineItems = append(out.LineItems, invoiceLineItemResponse{
			ID:                item.ID,
			Description:       item.Description,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			Amount:            item.Amount,
			VATRate:           item.VATRate,
			LocalCategory:     item.LocalCategory,
			LedgerAccountCode: item.LedgerAccountCode,
		})
	}
	return out
}

type runReportResponse struct {
	Created int `json:"created"`
	Merged  int `json:"merged"`
	Skipped int `json:"skipped"`
}

// InvoiceList returns invoices matching the query filters.
func InvoiceList(svc invoicing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		filters, err := invoiceFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]invoiceResponse, 0, len(rows))
		for i := range rows {
			out = append(out, invoiceResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// InvoiceDetail returns a single invoice with its line items.
func InvoiceDetail(svc invoicing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "invoiceId"), "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, invoiceResponseFromModel(invoice))
	}
}

// InvoiceMarkSent transitions a draft invoice to sent.
func InvoiceMarkSent(svc invoicing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "invoiceId"), "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.MarkSent(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, invoiceResponseFromModel(invoice))
	}
}

type invoiceRunRequest struct {
	Month string `json:"month" validate:"required"`
}

// InvoiceGenerateLeases runs the monthly lease invoicing for a given month on demand.
func InvoiceGenerateLeases(svc invoicing.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		var req invoiceRunRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validateMonth(req.Month); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := settings.Resolve(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.GenerateMonthlyLeaseInvoices(r.Context(), req.Month, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, runReportResponse{Created: report.Created, Merged: report.Merged, Skipped: report.Skipped})
	}
}

type bookingRunRequest struct {
	Month       string `json:"month" validate:"required"`
	BookingType string `json:"booking_type" validate:"required"`
}

// InvoiceAggregateBookings runs booking aggregation for a given month on demand.
func InvoiceAggregateBookings(svc invoicing.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		var req bookingRunRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validateMonth(req.Month); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingType, err := enums.ParseBookingType(req.BookingType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking_type"))
			return
		}

		cfg, err := settings.Resolve(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.AggregateBookings(r.Context(), bookingType, req.Month, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, runReportResponse{Created: report.Created, Merged: report.Merged, Skipped: report.Skipped})
	}
}

func validateMonth(month string) error {
	if _, err := time.Parse("2006-01", month); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "month must be formatted YYYY-MM").WithDetails(map[string]any{"field": "month"})
	}
	return nil
}

func invoiceFiltersFromQuery(r *http.Request) (invoicing.ListFilters, error) {
	var filters invoicing.ListFilters

	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := enums.ParseInvoiceStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &parsed
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		if err := validateMonth(raw); err != nil {
			return filters, err
		}
		month := raw
		filters.Month = &month
	}
	customerID, err := validators.ParseQueryUUID(r, "customer_id")
	if err != nil {
		return filters, err
	}
	filters.CustomerID = customerID

	if raw := r.URL.Query().Get("customer_type"); raw != "" {
		parsed, err := enums.ParseCustomerType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_type")
		}
		filters.CustomerType = &parsed
	}
	leaseID, err := validators.ParseQueryUUID(r, "lease_id")
	if err != nil {
		return filters, err
	}
	filters.LeaseID = leaseID

	return filters, nil
}
