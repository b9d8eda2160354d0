package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havenwerk/verhuur-backend/api/responses"
	"github.com/havenwerk/verhuur-backend/api/validators"
	"github.com/havenwerk/verhuur-backend/internal/purchases"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

type purchaseLineItemRequest struct {
	Description       string          `json:"description" validate:"required"`
	Amount            decimal.Decimal `json:"amount"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	LocalCategory     string          `json:"local_category" validate:"required"`
	LedgerAccountCode *string         `json:"ledger_account_code"`
}

type purchaseInvoiceCreateRequest struct {
	InvoiceNumber string    `json:"invoice_number" validate:"required"`
	SupplierName  string    `json:"supplier_name" validate:"required"`
	InvoiceDate   time.Time `json:"invoice_date" validate:"required"`
	DueDate       time.Time `json:"due_date" validate:"required"`

	Subtotal  decimal.Decimal `json:"subtotal"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	Amount    decimal.Decimal `json:"amount"`
	VATRate   decimal.Decimal `json:"vat_rate"`

	Category string `json:"category" validate:"required"`
	Notes    string `json:"notes"`

	LineItems []purchaseLineItemRequest `json:"line_items" validate:"dive"`
}

type purchaseLineItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	LocalCategory     string          `json:"local_category"`
	LedgerAccountCode *string         `json:"ledger_account_code,omitempty"`
}

type purchaseInvoiceResponse struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	SupplierName  string    `json:"supplier_name"`

	SupplierRelatieID *string `json:"supplier_relatie_id,omitempty"`

	InvoiceDate time.Time `json:"invoice_date"`
	DueDate     time.Time `json:"due_date"`

	Subtotal  decimal.Decimal `json:"subtotal"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	Amount    decimal.Decimal `json:"amount"`
	VATRate   decimal.Decimal `json:"vat_rate"`

	Category string `json:"category"`
	Notes    string `json:"notes,omitempty"`

	PaidAt *time.Time `json:"paid_at,omitempty"`

	EBoekhoudenMutatieID *string    `json:"eboekhouden_mutatie_id,omitempty"`
	SyncedAt             *time.Time `json:"synced_at,omitempty"`
	EBoekhoudenMissing   bool       `json:"eboekhouden_missing"`

	LineItems []purchaseLineItemResponse `json:"line_items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func purchaseInvoiceResponseFromModel(m *models.PurchaseInvoice) purchaseInvoiceResponse {
	out := purchaseInvoiceResponse{
		ID:                   m.ID,
		InvoiceNumber:        m.InvoiceNumber,
		SupplierName:         m.SupplierName,
		SupplierRelatieID:    m.SupplierRelatieID,
		InvoiceDate:          m.InvoiceDate,
		DueDate:              m.DueDate,
		Subtotal:             m.Subtotal,
		VATAmount:            m.VATAmount,
		Amount:               m.Amount,
		VATRate:              m.VATRate,
		Category:             m.Category,
		Notes:                m.Notes,
		PaidAt:               m.PaidAt,
		EBoekhoudenMutatieID: m.EBoekhoudenMutatieID,
		SyncedAt:             m.SyncedAt,
		EBoekhoudenMissing:   m.EBoekhoudenMissing,
		LineItems:            make([]purchaseLineItemResponse, 0, len(m.LineItems)),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
	for _, item := range m.LineItems {
		out.LineItems = append(out.LineItems, purchaseLineItemResponse{
			ID:                item.ID,
			Description:       item.Description,
			Amount:            item.Amount,
			VATRate:           item.VATRate,
			LocalCategory:     item.LocalCategory,
			LedgerAccountCode: item.LedgerAccountCode,
		})
	}
	return out
}

// PurchaseInvoiceCreate stores an incoming supplier invoice.
func PurchaseInvoiceCreate(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		var req purchaseInvoiceCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row := &models.PurchaseInvoice{
			InvoiceNumber: req.InvoiceNumber,
			SupplierName:  req.SupplierName,
			InvoiceDate:   req.InvoiceDate,
			DueDate:       req.DueDate,
			Subtotal:      req.Subtotal,
			VATAmount:     req.VATAmount,
			Amount:        req.Amount,
			VATRate:       req.VATRate,
			Category:      req.Category,
			Notes:         req.Notes,
		}
		for _, item := range req.LineItems {
			row.LineItems = append(row.LineItems, models.PurchaseInvoiceLineItem{
				Description:       item.Description,
				Amount:            item.Amount,
				VATRate:           item.VATRate,
				LocalCategory:     item.LocalCategory,
				LedgerAccountCode: item.LedgerAccountCode,
			})
		}

		created, err := svc.CreatePurchaseInvoice(r.Context(), row)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, purchaseInvoiceResponseFromModel(created))
	}
}

// PurchaseInvoiceDetail returns a single purchase invoice.
func PurchaseInvoiceDetail(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "purchaseInvoiceId"), "purchaseInvoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.GetPurchaseInvoice(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchaseInvoiceResponseFromModel(row))
	}
}

// PurchaseInvoiceList returns all purchase invoices.
func PurchaseInvoiceList(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		rows, err := svc.ListPurchaseInvoices(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]purchaseInvoiceResponse, 0, len(rows))
		for i := range rows {
			out = append(out, purchaseInvoiceResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type creditNoteLineItemRequest struct {
	Description       string          `json:"description" validate:"required"`
	Quantity          decimal.Decimal `json:"quantity"`
	Amount            decimal.Decimal `json:"amount"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	LocalCategory     string          `json:"local_category" validate:"required"`
	LedgerAccountCode *string         `json:"ledger_account_code"`
}

type creditNoteCreateRequest struct {
	CreditNoteNumber string    `json:"credit_note_number" validate:"required"`
	CustomerID       string    `json:"customer_id" validate:"required"`
	CustomerType     string    `json:"customer_type" validate:"required"`
	CreditDate       time.Time `json:"credit_date" validate:"required"`

	Subtotal  decimal.Decimal `json:"subtotal"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	Amount    decimal.Decimal `json:"amount"`
	VATRate   decimal.Decimal `json:"vat_rate"`

	Notes string `json:"notes"`

	LineItems []creditNoteLineItemRequest `json:"line_items" validate:"dive"`
}

type creditNoteLineItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	Description       string          `json:"description"`
	Quantity          decimal.Decimal `json:"quantity"`
	Amount            decimal.Decimal `json:"amount"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	LocalCategory     string          `json:"local_category"`
	LedgerAccountCode *string         `json:"ledger_account_code,omitempty"`
}

type creditNoteResponse struct {
	ID               uuid.UUID          `json:"id"`
	CreditNoteNumber string             `json:"credit_note_number"`
	CustomerID       uuid.UUID          `json:"customer_id"`
	CustomerType     enums.CustomerType `json:"customer_type"`
	CreditDate       time.Time          `json:"credit_date"`

	Subtotal  decimal.Decimal `json:"subtotal"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	Amount    decimal.Decimal `json:"amount"`
	VATRate   decimal.Decimal `json:"vat_rate"`

	Notes string `json:"notes,omitempty"`

	EBoekhoudenID      *string    `json:"eboekhouden_id,omitempty"`
	SyncedAt           *time.Time `json:"synced_at,omitempty"`
	EBoekhoudenMissing bool       `json:"eboekhouden_missing"`

	LineItems []creditNoteLineItemResponse `json:"line_items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func creditNoteResponseFromModel(m *models.CreditNote) creditNoteResponse {
	out := creditNoteResponse{
		ID:                 m.ID,
		CreditNoteNumber:   m.CreditNoteNumber,
		CustomerID:         m.CustomerID,
		CustomerType:       m.CustomerType,
		CreditDate:         m.CreditDate,
		Subtotal:           m.Subtotal,
		VATAmount:          m.VATAmount,
		Amount:             m.Amount,
		VATRate:            m.VATRate,
		Notes:              m.Notes,
		EBoekhoudenID:      m.EBoekhoudenID,
		SyncedAt:           m.SyncedAt,
		EBoekhoudenMissing: m.EBoekhoudenMissing,
		LineItems:          make([]creditNoteLineItemResponse, 0, len(m.LineItems)),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	for _, item := range m.LineItems {
		out.LineItems = append(out.LineItems, creditNoteLineItemResponse{
			ID:                item.ID,
			Description:       item.Description,
			Quantity:          item.Quantity,
			Amount:            item.Amount,
			VATRate:           item.VATRate,
			LocalCategory:     item.LocalCategory,
			LedgerAccountCode: item.LedgerAccountCode,
		})
	}
	return out
}

// CreditNoteCreate stores a credit note reversing part of a billed amount.
func CreditNoteCreate(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		var req creditNoteCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_id"))
			return
		}
		customerType, err := enums.ParseCustomerType(req.CustomerType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_type"))
			return
		}

		row := &models.CreditNote{
			CreditNoteNumber: req.CreditNoteNumber,
			CustomerID:       customerID,
			CustomerType:     customerType,
			CreditDate:       req.CreditDate,
			Subtotal:         req.Subtotal,
			VATAmount:        req.VATAmount,
			Amount:           req.Amount,
			VATRate:          req.VATRate,
			Notes:            req.Notes,
		}
		for _, item := range req.LineItems {
			row.LineItems = append(row.LineItems, models.CreditNoteLineItem{
				Description:       item.Description,
				Quantity:          item.Quantity,
				Amount:            item.Amount,
				VATRate:           item.VATRate,
				LocalCategory:     item.LocalCategory,
				LedgerAccountCode: item.LedgerAccountCode,
			})
		}

		created, err := svc.CreateCreditNote(r.Context(), row)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, creditNoteResponseFromModel(created))
	}
}

// CreditNoteDetail returns a single credit note.
func CreditNoteDetail(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "creditNoteId"), "creditNoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.GetCreditNote(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, creditNoteResponseFromModel(row))
	}
}

// CreditNoteList returns all credit notes.
func CreditNoteList(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		rows, err := svc.ListCreditNotes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]creditNoteResponse, 0, len(rows))
		for i := range rows {
			out = append(out, creditNoteResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
