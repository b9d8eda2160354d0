package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/havenwerk/verhuur-backend/api/responses"
	"github.com/havenwerk/verhuur-backend/api/validators"
	syncsvc "github.com/havenwerk/verhuur-backend/internal/sync"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/eboekhouden"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

type relationSyncResponse struct {
	RelationID string `json:"relation_id"`
}

type verifyReportResponse struct {
	Checked int `json:"checked"`
	Cleared int `json:"cleared"`
	Flagged int `json:"flagged"`
	Errors  int `json:"errors"`
}

type paymentReportResponse struct {
	Checked    int `json:"checked"`
	MarkedPaid int `json:"marked_paid"`
	Errors     int `json:"errors"`
}

type diagnosisStepResponse struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

func customerRefFromRequest(r *http.Request) (syncsvc.CustomerRef, error) {
	customerType, err := enums.ParseCustomerType(chi.URLParam(r, "customerType"))
	if err != nil {
		return syncsvc.CustomerRef{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer type")
	}
	id, err := validators.ParsePathUUID(chi.URLParam(r, "customerId"), "customerId")
	if err != nil {
		return syncsvc.CustomerRef{}, err
	}
	return syncsvc.CustomerRef{Type: customerType, ID: id}, nil
}

// SyncRelation pushes a customer to the ledger, creating the relation if needed.
func SyncRelation(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		ref, err := customerRefFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := settings.Resolve(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		force := r.URL.Query().Get("force") == "true"
		code := r.URL.Query().Get("code")
		relationID, err := svc.SyncRelation(r.Context(), ref, force, code, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, relationSyncResponse{RelationID: relationID})
	}
}

// ResyncRelation clears the stored ledger link and pushes the customer again.
func ResyncRelation(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		ref, err := customerRefFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := settings.Resolve(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relationID, err := svc.ResyncRelation(r.Context(), ref, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, relationSyncResponse{RelationID: relationID})
	}
}

func entitySyncHandler(
	settings settingsResolver,
	logg *logger.Logger,
	param string,
	run func(r *http.Request, id uuid.UUID, cfg *models.CompanySettings) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, param), param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := settings.Resolve(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := run(r, id, cfg); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "synced"})
	}
}

// SyncInvoice pushes an invoice to the ledger.
func SyncInvoice(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return entitySyncHandler(settings, logg, "invoiceId", func(r *http.Request, id uuid.UUID, cfg *models.CompanySettings) error {
		return svc.SyncInvoice(r.Context(), id, cfg)
	})
}

// ResyncInvoice clears the ledger link on an invoice and pushes it again.
func ResyncInvoice(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return entitySyncHandler(settings, logg, "invoiceId", func(r *http.Request, id uuid.UUID, cfg *models.CompanySettings) error {
		return svc.ResyncInvoice(r.Context(), id, cfg)
	})
}

// SyncCreditNote pushes a credit note to the ledger.
func SyncCreditNote(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return entitySyncHandler(settings, logg, "creditNoteId", func(r *http.Request, id uuid.UUID, cfg *models.CompanySettings) error {
		return svc.SyncCreditNote(r.Context(), id, cfg)
	})
}

// ResyncCreditNote clears the ledger link on a credit note and pushes it again.
func ResyncCreditNote(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return entitySyncHandler(settings, logg, "creditNoteId", func(r *http.Request, id uuid.UUID, cfg *models.CompanySettings) error {
		return svc.ResyncCreditNote(r.Context(), id, cfg)
	})
}

// SyncPurchaseInvoice pushes a purchase invoice to the ledger as a mutation.
func SyncPurchaseInvoice(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return entitySyncHandler(settings, logg, "purchaseInvoiceId", func(r *http.Request, id uuid.UUID, cfg *models.CompanySettings) error {
		return svc.SyncPurchaseInvoice(r.Context(), id, cfg)
	})
}

// ResyncPurchaseInvoice clears the ledger link on a purchase invoice and pushes it again.
func ResyncPurchaseInvoice(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return entitySyncHandler(settings, logg, "purchaseInvoiceId", func(r *http.Request, id uuid.UUID, cfg *models.CompanySettings) error {
		return svc.ResyncPurchaseInvoice(r.Context(), id, cfg)
	})
}

func verifyHandler(
	settings settingsResolver,
	logg *logger.Logger,
	run func(r *http.Request, cfg *models.CompanySettings) (*syncsvc.VerifyReport, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := settings.Resolve(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := run(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, verifyReportResponse{
			Checked: report.Checked,
			Cleared: report.Cleared,
			Flagged: report.Flagged,
			Errors:  report.Errors,
		})
	}
}

// VerifyInvoices checks that synced invoices still exist in the ledger.
func VerifyInvoices(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return verifyHandler(settings, logg, func(r *http.Request, cfg *models.CompanySettings) (*syncsvc.VerifyReport, error) {
		return svc.VerifyInvoiceSyncStatus(r.Context(), cfg)
	})
}

// VerifyRelations checks that synced customers still exist in the ledger.
func VerifyRelations(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return verifyHandler(settings, logg, func(r *http.Request, cfg *models.CompanySettings) (*syncsvc.VerifyReport, error) {
		return svc.VerifyRelations(r.Context(), cfg)
	})
}

type paymentCheckResponse struct {
	Invoices         paymentReportResponse `json:"invoices"`
	PurchaseInvoices paymentReportResponse `json:"purchase_invoices"`
}

// PaymentCheck sweeps open invoices and purchase invoices for payments
// registered in the ledger.
func PaymentCheck(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		cfg, err := settings.Resolve(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sales, err := svc.CheckInvoicePaymentStatuses(r.Context(), cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		purchases, err := svc.CheckPurchaseInvoicePaymentStatuses(r.Context(), cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentCheckResponse{
			Invoices:         paymentReportResponse{Checked: sales.Checked, MarkedPaid: sales.MarkedPaid, Errors: sales.Errors},
			PurchaseInvoices: paymentReportResponse{Checked: purchases.Checked, MarkedPaid: purchases.MarkedPaid, Errors: purchases.Errors},
		})
	}
}

// SyncTestConnection verifies the configured API token against the ledger.
func SyncTestConnection(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		cfg, err := settings.Resolve(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.TestConnection(r.Context(), cfg); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "connected"})
	}
}

// SyncDiagnose runs the step-by-step connectivity diagnosis.
func SyncDiagnose(svc syncsvc.Service, settings settingsResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		cfg, err := settings.Resolve(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		steps := svc.Diagnose(r.Context(), cfg)
		out := make([]diagnosisStepResponse, 0, len(steps))
		for _, step := range steps {
			out = append(out, diagnosisStepResponseFromStep(step))
		}
		responses.WriteSuccess(w, out)
	}
}

func diagnosisStepResponseFromStep(step eboekhouden.DiagnosisStep) diagnosisStepResponse {
	return diagnosisStepResponse{
		Name:    step.Name,
		Success: step.Success,
		Status:  step.Status,
		Error:   step.Error,
	}
}

type syncLogEntryResponse struct {
	ID         uuid.UUID            `json:"id"`
	EntityType enums.SyncEntityType `json:"entity_type"`
	EntityID   uuid.UUID            `json:"entity_id"`
	Action     enums.SyncAction     `json:"action"`
	Status     enums.SyncStatus     `json:"status"`

	EBoekhoudenID *string `json:"eboekhouden_id,omitempty"`
	ErrorMessage  *string `json:"error_message,omitempty"`

	RequestPayload  json.RawMessage `json:"request_payload,omitempty"`
	ResponsePayload json.RawMessage `json:"response_payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// SyncLogList returns sync audit rows, newest first.
func SyncLogList(repo syncsvc.SyncLogRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync log unavailable"))
			return
		}

		var filters syncsvc.SyncLogFilters

		if raw := r.URL.Query().Get("entity_type"); raw != "" {
			parsed, err := enums.ParseSyncEntityType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entity_type"))
				return
			}
			filters.EntityType = &parsed
		}
		entityID, err := validators.ParseQueryUUID(r, "entity_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.EntityID = entityID

		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed := enums.SyncStatus(raw)
			if parsed != enums.SyncStatusSuccess && parsed != enums.SyncStatusError {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status"))
				return
			}
			filters.Status = &parsed
		}

		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.Limit = limit

		rows, err := repo.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]syncLogEntryResponse, 0, len(rows))
		for i := range rows {
			entry := &rows[i]
			out = append(out, syncLogEntryResponse{
				ID:              entry.ID,
				EntityType:      entry.EntityType,
				EntityID:        entry.EntityID,
				Action:          entry.Action,
				Status:          entry.Status,
				EBoekhoudenID:   entry.EBoekhoudenID,
				ErrorMessage:    entry.ErrorMessage,
				RequestPayload:  entry.RequestPayload,
				ResponsePayload: entry.ResponsePayload,
				CreatedAt:       entry.CreatedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
