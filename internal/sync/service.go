package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/internal/invoicing"
	"github.com/havenwerk/verhuur-backend/internal/purchases"
	"github.com/havenwerk/verhuur-backend/internal/settings"
	"github.com/havenwerk/verhuur-backend/internal/tenants"
	"github.com/havenwerk/verhuur-backend/internal/vat"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/eboekhouden"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
	"github.com/havenwerk/verhuur-backend/pkg/metrics"
	"github.com/havenwerk/verhuur-backend/pkg/outbox"
)

const dateLayout = "2006-01-02"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// VerifyReport summarizes a verification sweep.
type VerifyReport struct {
	Checked int
	Cleared int
	Flagged int
	Errors  int
}

// PaymentReport summarizes a payment status sweep.
type PaymentReport struct {
	Checked    int
	MarkedPaid int
	Errors     int
}

// RelationSyncedEvent is emitted when a customer reaches the ledger.
type RelationSyncedEvent struct {
	CustomerID   uuid.UUID          `json:"customer_id"`
	CustomerType enums.CustomerType `json:"customer_type"`
	RelatieID    string             `json:"relatie_id"`
}

// InvoiceSyncedEvent is emitted when an invoice reaches the ledger.
type InvoiceSyncedEvent struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	RemoteID      string    `json:"remote_id"`
}

// InvoicePaidEvent is emitted when a payment check marks an invoice
// paid.
type InvoicePaidEvent struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	PaidAt        time.Time `json:"paid_at"`
}

// CreditNoteSyncedEvent is emitted when a credit note reaches the
// ledger.
type CreditNoteSyncedEvent struct {
	CreditNoteID uuid.UUID `json:"credit_note_id"`
	RemoteID     string    `json:"remote_id"`
}

// PurchaseInvoiceSyncedEvent is emitted when a purchase invoice is
// booked as a mutation.
type PurchaseInvoiceSyncedEvent struct {
	PurchaseInvoiceID uuid.UUID `json:"purchase_invoice_id"`
	MutatieID         string    `json:"mutatie_id"`
}

// Service drives the one-way sync into the external ledger.
type Service interface {
	SyncRelation(ctx context.Context, ref CustomerRef, force bool, code string, cfg *models.CompanySettings) (string, error)
	SyncInvoice(ctx context.Context, invoiceID uuid.UUID, cfg *models.CompanySettings) error
	SyncCreditNote(ctx context.Context, creditNoteID uuid.UUID, cfg *models.CompanySettings) error
	SyncPurchaseInvoice(ctx context.Context, purchaseInvoiceID uuid.UUID, cfg *models.CompanySettings) error

	ResyncRelation(ctx context.Context, ref CustomerRef, cfg *models.CompanySettings) (string, error)
	ResyncInvoice(ctx context.Context, invoiceID uuid.UUID, cfg *models.CompanySettings) error
	ResyncCreditNote(ctx context.Context, creditNoteID uuid.UUID, cfg *models.CompanySettings) error
	ResyncPurchaseInvoice(ctx context.Context, purchaseInvoiceID uuid.UUID, cfg *models.CompanySettings) error

	VerifyInvoiceSyncStatus(ctx context.Context, cfg *models.CompanySettings) (*VerifyReport, error)
	VerifyRelations(ctx context.Context, cfg *models.CompanySettings) (*VerifyReport, error)
	CheckInvoicePaymentStatuses(ctx context.Context, cfg *models.CompanySettings) (*PaymentReport, error)
	CheckPurchaseInvoicePaymentStatuses(ctx context.Context, cfg *models.CompanySettings) (*PaymentReport, error)

	TestConnection(ctx context.Context, cfg *models.CompanySettings) error
	Diagnose(ctx context.Context, cfg *models.CompanySettings) []eboekhouden.DiagnosisStep
}

// ServiceParams collects the sync engine dependencies.
type ServiceParams struct {
	Ledger    LedgerClient
	Customers tenants.Repository
	Invoices  invoicing.Repository
	Purchases purchases.Repository
	Mappings  MappingRepository
	SyncLog   SyncLogRepository
	Tx        txRunner
	Outbox    outboxPublisher
	Metrics   *metrics.LedgerSyncMetrics
	Logger    *logger.Logger
}

type service struct {
	ledger    LedgerClient
	customers tenants.Repository
	invoices  invoicing.Repository
	purchases purchases.Repository
	mappings  MappingRepository
	syncLog   SyncLogRepository
	tx        txRunner
	outbox    outboxPublisher
	metrics   *metrics.LedgerSyncMetrics
	logg      *logger.Logger
}

// NewService builds the sync engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger client required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if params.Purchases == nil {
		return nil, fmt.Errorf("purchases repository required")
	}
	if params.Mappings == nil {
		return nil, fmt.Errorf("mapping repository required")
	}
	if params.SyncLog == nil {
		return nil, fmt.Errorf("sync log repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		ledger:    params.Ledger,
		customers: params.Customers,
		invoices:  params.Invoices,
		purchases: params.Purchases,
		mappings:  params.Mappings,
		syncLog:   params.SyncLog,
		tx:        params.Tx,
		outbox:    params.Outbox,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// token validates that ledger sync is enabled and returns the API
// token.
func (s *service) token(cfg *models.CompanySettings) (string, error) {
	if !settings.LedgerEnabled(cfg) {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "e-boekhouden sync is not enabled")
	}
	return cfg.EBoekhoudenAPIToken, nil
}

func (s *service) observe(entity string, success bool, started time.Time) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	s.metrics.Observe(entity, status, time.Since(started))
}

// appendLog writes one audit row. Log failures are reported to the
// logger but never override the sync outcome.
func (s *service) appendLog(ctx context.Context, entry *models.SyncLogEntry) {
	if err := s.syncLog.Append(ctx, entry); err != nil {
		s.logg.Error(ctx, "sync log append failed", err)
	}
}

func logEntry(entityType enums.SyncEntityType, entityID uuid.UUID, action enums.SyncAction, res eboekhouden.Result, request any) *models.SyncLogEntry {
	entry := &models.SyncLogEntry{
		EntityType:      entityType,
		EntityID:        entityID,
		Action:          action,
		Status:          enums.SyncStatusSuccess,
		RequestPayload:  rawJSON(request),
		ResponsePayload: res.Data,
	}
	if !res.Success {
		entry.Status = enums.SyncStatusError
		msg := res.Error
		entry.ErrorMessage = &msg
	}
	return entry
}

// customerSnapshot unifies the two customer kinds for relation sync.
type customerSnapshot struct {
	Name        string
	CompanyName *string
	ContactName *string
	Email       string
	Phone       *string
	Street      string
	PostalCode  string
	City        string
	Country     string
	VATNumber   *string
	RelatieID   *string
}

func (s *service) loadCustomer(ctx context.Context, ref CustomerRef) (*customerSnapshot, error) {
	switch ref.Type {
	case enums.CustomerTypeTenant:
		tenant, err := s.customers.FindTenantByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &customerSnapshot{
			Name:        tenant.Name,
			CompanyName: tenant.CompanyName,
			ContactName: tenant.ContactName,
			Email:       tenant.Email,
			Phone:       tenant.Phone,
			Street:      tenant.Street,
			PostalCode:  tenant.PostalCode,
			City:        tenant.City,
			Country:     tenant.Country,
			VATNumber:   tenant.VATNumber,
			RelatieID:   tenant.EBoekhoudenRelatieID,
		}, nil
	case enums.CustomerTypeExternal:
		customer, err := s.customers.FindExternalCustomerByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &customerSnapshot{
			Name:        customer.Name,
			CompanyName: customer.CompanyName,
			ContactName: customer.ContactName,
			Email:       customer.Email,
			Phone:       customer.Phone,
			Street:      customer.Street,
			PostalCode:  customer.PostalCode,
			City:        customer.City,
			Country:     customer.Country,
			VATNumber:   customer.VATNumber,
			RelatieID:   customer.EBoekhoudenRelatieID,
		}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer type")
	}
}

func (s *service) setLedgerLink(ctx context.Context, tx *gorm.DB, ref CustomerRef, relatieID *string) error {
	repo := s.customers.WithTx(tx)
	if ref.Type == enums.CustomerTypeTenant {
		return repo.SetTenantLedgerLink(ctx, ref.ID, relatieID)
	}
	return repo.SetExternalCustomerLedgerLink(ctx, ref.ID, relatieID)
}

// buildRelation maps a customer onto the ledger's relation shape. The
// display name prefers the company name over the personal name.
func buildRelation(cust *customerSnapshot) eboekhouden.Relation {
	name := cust.Name
	contact := ""
	if cust.CompanyName != nil && *cust.CompanyName != "" {
		name = *cust.CompanyName
		if cust.ContactName != nil && *cust.ContactName != "" {
			contact = *cust.ContactName
		} else {
			contact = cust.Name
		}
	} else if cust.ContactName != nil && *cust.ContactName != "" {
		contact = *cust.ContactName
	}

	relation := eboekhouden.Relation{
		Type:        eboekhouden.RelationTypeBusiness,
		Name:        name,
		ContactName: contact,
		Email:       cust.Email,
		Street:      cust.Street,
		PostalCode:  cust.PostalCode,
		City:        cust.City,
		Country:     cust.Country,
	}
	if cust.Phone != nil {
		relation.Phone = *cust.Phone
	}
	if cust.VATNumber != nil {
		relation.VATNumber = *cust.VATNumber
	}
	return relation
}

func relationIDFromResult(res eboekhouden.Result) (string, error) {
	var relation eboekhouden.Relation
	if err := eboekhouden.DecodeData(res, &relation); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger returned an unreadable relation")
	}
	if relation.ID == 0 {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "ledger relation response missing id")
	}
	return strconv.FormatInt(relation.ID, 10), nil
}

// SyncRelation pushes a customer to the ledger. Synced customers are
// left alone unless force is set, in which case the remote record is
// re-fetched and updated in place, or recreated when the ledger no
// longer knows it. An optional relation code is passed through to the
// ledger when given.
func (s *service) SyncRelation(ctx context.Context, ref CustomerRef, force bool, code string, cfg *models.CompanySettings) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	token, err := s.token(cfg)
	if err != nil {
		return "", err
	}
	cust, err := s.loadCustomer(ctx, ref)
	if err != nil {
		return "", err
	}
	if cust.RelatieID != nil && !force {
		return *cust.RelatieID, nil
	}

	started := time.Now()
	relation := buildRelation(cust)
	relation.Code = code
	action := enums.SyncActionCreate

	var res eboekhouden.Result
	var relatieID string
	if cust.RelatieID != nil {
		relatieID = *cust.RelatieID
		check := s.ledger.GetRelation(ctx, token, relatieID)
		switch {
		case check.Success:
			action = enums.SyncActionUpdate
			res = s.ledger.UpdateRelation(ctx, token, relatieID, relation)
		case check.Status >= 400 && check.Status < 500:
			// deleted upstream, recreate under a fresh id
			relatieID = ""
			res = s.ledger.CreateRelation(ctx, token, relation)
		default:
			s.observe("relation", false, started)
			return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("relation fetch failed: %s", check.Error))
		}
	} else {
		res = s.ledger.CreateRelation(ctx, token, relation)
	}

	if !res.Success {
		s.appendLog(ctx, logEntry(enums.SyncEntityRelation, ref.ID, action, res, relation))
		s.observe("relation", false, started)
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("relation sync failed: %s", res.Error))
	}

	if action == enums.SyncActionCreate {
		relatieID, err = relationIDFromResult(res)
		if err != nil {
			s.appendLog(ctx, logEntry(enums.SyncEntityRelation, ref.ID, action, res, relation))
			s.observe("relation", false, started)
			return "", err
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.setLedgerLink(ctx, tx, ref, &relatieID); err != nil {
			return err
		}
		entry := logEntry(enums.SyncEntityRelation, ref.ID, action, res, relation)
		entry.EBoekhoudenID = &relatieID
		if err := s.syncLog.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRelationSynced,
			AggregateType: enums.AggregateRelation,
			AggregateID:   ref.ID,
			Data: RelationSyncedEvent{
				CustomerID:   ref.ID,
				CustomerType: ref.Type,
				RelatieID:    relatieID,
			},
		})
	})
	if err != nil {
		s.observe("relation", false, started)
		return "", err
	}

	s.observe("relation", true, started)
	logCtx := s.logg.WithEntity(ctx, "relation", ref.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "relatie_id", relatieID), "relation synced")
	return relatieID, nil
}

// SyncInvoice pushes an invoice to the ledger. Already-synced invoices
// are a no-op; the customer relation is synced first when needed. All
// ledger accounts are resolved before the remote call so configuration
// gaps abort without side effects.
func (s *service) SyncInvoice(ctx context.Context, invoiceID uuid.UUID, cfg *models.CompanySettings) error {
	token, err := s.token(cfg)
	if err != nil {
		return err
	}
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice.EBoekhoudenInvoiceID != nil {
		return nil
	}

	ref := CustomerRef{Type: invoice.CustomerType, ID: invoice.CustomerID}
	relatieID, err := s.SyncRelation(ctx, ref, false, "", cfg)
	if err != nil {
		return fmt.Errorf("relation sync for invoice %s: %w", invoice.InvoiceNumber, err)
	}
	relationID, err := strconv.ParseInt(relatieID, 10, 64)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("invalid relatie id %q", relatieID))
	}

	lines := make([]eboekhouden.InvoiceLine, 0, len(invoice.LineItems))
	for _, item := range invoice.LineItems {
		account, err := s.resolveLedgerAccount(ctx, item.LedgerAccountCode, item.LocalCategory, cfg)
		if err != nil {
			return err
		}
		lines = append(lines, eboekhouden.InvoiceLine{
			Description:     item.Description,
			Quantity:        item.Quantity,
			PricePerUnit:    item.UnitPrice,
			VATCode:         vatCode(item.VATRate),
			LedgerAccountID: account,
		})
	}

	req := eboekhouden.InvoiceRequest{
		RelationID:    relationID,
		Date:          invoice.InvoiceDate.Format(dateLayout),
		TermOfPayment: vat.PaymentTermDays(invoice.InvoiceDate, invoice.DueDate),
		Reference:     invoice.InvoiceNumber,
		VATInclusive:  invoice.VATInclusive,
		Lines:         lines,
	}
	if cfg.InvoiceTemplateID != nil {
		req.InvoiceTemplate = *cfg.InvoiceTemplateID
	}
	if cfg.EmailTemplateID != nil {
		req.EmailTemplate = *cfg.EmailTemplateID
	}

	started := time.Now()
	res := s.ledger.CreateInvoice(ctx, token, req)
	if !res.Success {
		s.appendLog(ctx, logEntry(enums.SyncEntityInvoice, invoice.ID, enums.SyncActionCreate, res, req))
		s.observe("invoice", false, started)
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("invoice sync failed: %s", res.Error))
	}

	var remote eboekhouden.Invoice
	if err := eboekhouden.DecodeData(res, &remote); err != nil || remote.ID == 0 {
		s.appendLog(ctx, logEntry(enums.SyncEntityInvoice, invoice.ID, enums.SyncActionCreate, res, req))
		s.observe("invoice", false, started)
		return pkgerrors.New(pkgerrors.CodeDependency, "ledger invoice response missing id")
	}
	remoteID := strconv.FormatInt(remote.ID, 10)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.invoices.WithTx(tx).MarkSynced(ctx, invoice.ID, remoteID, time.Now()); err != nil {
			return err
		}
		entry := logEntry(enums.SyncEntityInvoice, invoice.ID, enums.SyncActionCreate, res, req)
		entry.EBoekhoudenID = &remoteID
		if err := s.syncLog.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvoiceSynced,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Data: InvoiceSyncedEvent{
				InvoiceID:     invoice.ID,
				InvoiceNumber: invoice.InvoiceNumber,
				RemoteID:      remoteID,
			},
		})
	})
	if err != nil {
		s.observe("invoice", false, started)
		return err
	}

	s.observe("invoice", true, started)
	logCtx := s.logg.WithEntity(ctx, "invoice", invoice.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "remote_id", remoteID), "invoice synced")
	return nil
}

// SyncCreditNote pushes a credit note as an invoice with negated line
// amounts. Credit notes always go out VAT-exclusive.
func (s *service) SyncCreditNote(ctx context.Context, creditNoteID uuid.UUID, cfg *models.CompanySettings) error {
	token, err := s.token(cfg)
	if err != nil {
		return err
	}
	note, err := s.purchases.FindCreditNoteByID(ctx, creditNoteID)
	if err != nil {
		return err
	}
	if note.EBoekhoudenID != nil {
		return nil
	}

	ref := CustomerRef{Type: note.CustomerType, ID: note.CustomerID}
	relatieID, err := s.SyncRelation(ctx, ref, false, "", cfg)
	if err != nil {
		return fmt.Errorf("relation sync for credit note %s: %w", note.CreditNoteNumber, err)
	}
	relationID, err := strconv.ParseInt(relatieID, 10, 64)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("invalid relatie id %q", relatieID))
	}

	lines := make([]eboekhouden.InvoiceLine, 0, len(note.LineItems))
	for _, item := range note.LineItems {
		account, err := s.resolveLedgerAccount(ctx, item.LedgerAccountCode, item.LocalCategory, cfg)
		if err != nil {
			return err
		}
		lines = append(lines, eboekhouden.InvoiceLine{
			Description:     item.Description,
			Quantity:        item.Quantity,
			PricePerUnit:    item.Amount.Abs().Neg(),
			VATCode:         vatCode(item.VATRate),
			LedgerAccountID: account,
		})
	}

	req := eboekhouden.InvoiceRequest{
		RelationID:    relationID,
		Date:          note.CreditDate.Format(dateLayout),
		TermOfPayment: 0,
		Reference:     note.CreditNoteNumber,
		VATInclusive:  false,
		Lines:         lines,
	}

	started := time.Now()
	res := s.ledger.CreateInvoice(ctx, token, req)
	if !res.Success {
		s.appendLog(ctx, logEntry(enums.SyncEntityCreditNote, note.ID, enums.SyncActionCreate, res, req))
		s.observe("credit_note", false, started)
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("credit note sync failed: %s", res.Error))
	}

	var remote eboekhouden.Invoice
	if err := eboekhouden.DecodeData(res, &remote); err != nil || remote.ID == 0 {
		s.appendLog(ctx, logEntry(enums.SyncEntityCreditNote, note.ID, enums.SyncActionCreate, res, req))
		s.observe("credit_note", false, started)
		return pkgerrors.New(pkgerrors.CodeDependency, "ledger credit note response missing id")
	}
	remoteID := strconv.FormatInt(remote.ID, 10)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.purchases.WithTx(tx).MarkCreditNoteSynced(ctx, note.ID, remoteID, time.Now()); err != nil {
			return err
		}
		entry := logEntry(enums.SyncEntityCreditNote, note.ID, enums.SyncActionCreate, res, req)
		entry.EBoekhoudenID = &remoteID
		if err := s.syncLog.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCreditNoteSynced,
			AggregateType: enums.AggregateCreditNote,
			AggregateID:   note.ID,
			Data: CreditNoteSyncedEvent{
				CreditNoteID: note.ID,
				RemoteID:     remoteID,
			},
		})
	})
	if err != nil {
		s.observe("credit_note", false, started)
		return err
	}

	s.observe("credit_note", true, started)
	return nil
}

// SyncPurchaseInvoice books a supplier invoice as a mutation. The
// supplier gets a ledger relation on first sync.
func (s *service) SyncPurchaseInvoice(ctx context.Context, purchaseInvoiceID uuid.UUID, cfg *models.CompanySettings) error {
	token, err := s.token(cfg)
	if err != nil {
		return err
	}
	invoice, err := s.purchases.FindPurchaseInvoiceByID(ctx, purchaseInvoiceID)
	if err != nil {
		return err
	}
	if invoice.EBoekhoudenMutatieID != nil {
		return nil
	}

	// Account resolution happens before any remote call.
	rows := make([]eboekhouden.MutationRow, 0, len(invoice.LineItems))
	for _, item := range invoice.LineItems {
		account, err := s.resolvePurchaseAccount(ctx, item.LedgerAccountCode, item.LocalCategory, cfg)
		if err != nil {
			return err
		}
		rows = append(rows, eboekhouden.MutationRow{
			Description:     item.Description,
			Amount:          item.Amount,
			VATCode:         purchaseVATCode(item.VATRate),
			LedgerAccountID: account,
		})
	}
	if len(rows) == 0 {
		account, err := s.resolvePurchaseAccount(ctx, nil, invoice.Category, cfg)
		if err != nil {
			return err
		}
		rows = append(rows, eboekhouden.MutationRow{
			Description:     fmt.Sprintf("%s %s", invoice.SupplierName, invoice.InvoiceNumber),
			Amount:          invoice.Amount,
			VATCode:         purchaseVATCode(invoice.VATRate),
			LedgerAccountID: account,
		})
	}

	relatieID, err := s.supplierRelation(ctx, token, invoice)
	if err != nil {
		return err
	}
	relationID, err := strconv.ParseInt(relatieID, 10, 64)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("invalid supplier relatie id %q", relatieID))
	}

	req := eboekhouden.MutationRequest{
		Type:        "purchase_invoice",
		Date:        invoice.InvoiceDate.Format(dateLayout),
		RelationID:  relationID,
		InvoiceNr:   invoice.InvoiceNumber,
		Description: fmt.Sprintf("Inkoop %s", invoice.SupplierName),
		Amount:      invoice.Amount,
		Rows:        rows,
	}

	started := time.Now()
	res := s.ledger.CreateMutation(ctx, token, req)
	if !res.Success {
		s.appendLog(ctx, logEntry(enums.SyncEntityPurchaseInvoice, invoice.ID, enums.SyncActionCreate, res, req))
		s.observe("purchase_invoice", false, started)
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("purchase invoice sync failed: %s", res.Error))
	}

	var remote eboekhouden.Mutation
	if err := eboekhouden.DecodeData(res, &remote); err != nil || remote.ID == 0 {
		s.appendLog(ctx, logEntry(enums.SyncEntityPurchaseInvoice, invoice.ID, enums.SyncActionCreate, res, req))
		s.observe("purchase_invoice", false, started)
		return pkgerrors.New(pkgerrors.CodeDependency, "ledger mutation response missing id")
	}
	mutatieID := strconv.FormatInt(remote.ID, 10)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.purchases.WithTx(tx).MarkPurchaseInvoiceSynced(ctx, invoice.ID, mutatieID, time.Now()); err != nil {
			return err
		}
		entry := logEntry(enums.SyncEntityPurchaseInvoice, invoice.ID, enums.SyncActionCreate, res, req)
		entry.EBoekhoudenID = &mutatieID
		if err := s.syncLog.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseInvoiceSynced,
			AggregateType: enums.AggregatePurchaseInvoice,
			AggregateID:   invoice.ID,
			Data: PurchaseInvoiceSyncedEvent{
				PurchaseInvoiceID: invoice.ID,
				MutatieID:         mutatieID,
			},
		})
	})
	if err != nil {
		s.observe("purchase_invoice", false, started)
		return err
	}

	s.observe("purchase_invoice", true, started)
	return nil
}

// supplierRelation returns the supplier's relatie id, creating the
// remote relation on first use.
func (s *service) supplierRelation(ctx context.Context, token string, invoice *models.PurchaseInvoice) (string, error) {
	if invoice.SupplierRelatieID != nil {
		return *invoice.SupplierRelatieID, nil
	}

	relation := eboekhouden.Relation{
		Type: eboekhouden.RelationTypeBusiness,
		Name: invoice.SupplierName,
	}
	res := s.ledger.CreateRelation(ctx, token, relation)
	if !res.Success {
		entry := logEntry(enums.SyncEntityPurchaseInvoice, invoice.ID, enums.SyncActionCreate, res, relation)
		s.appendLog(ctx, entry)
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("supplier relation sync failed: %s", res.Error))
	}
	relatieID, err := relationIDFromResult(res)
	if err != nil {
		return "", err
	}
	if err := s.purchases.SetSupplierRelatieID(ctx, invoice.ID, &relatieID); err != nil {
		return "", err
	}
	return relatieID, nil
}

// ResyncRelation clears the local link and pushes the customer again,
// creating a fresh remote relation.
func (s *service) ResyncRelation(ctx context.Context, ref CustomerRef, cfg *models.CompanySettings) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	if err := s.setLedgerLink(ctx, nil, ref, nil); err != nil {
		return "", err
	}
	return s.SyncRelation(ctx, ref, false, "", cfg)
}

// ResyncInvoice clears the local sync state and pushes the invoice
// again.
func (s *service) ResyncInvoice(ctx context.Context, invoiceID uuid.UUID, cfg *models.CompanySettings) error {
	if _, err := s.invoices.FindByID(ctx, invoiceID); err != nil {
		return err
	}
	if err := s.invoices.ClearSync(ctx, invoiceID); err != nil {
		return err
	}
	return s.SyncInvoice(ctx, invoiceID, cfg)
}

func (s *service) ResyncCreditNote(ctx context.Context, creditNoteID uuid.UUID, cfg *models.CompanySettings) error {
	if _, err := s.purchases.FindCreditNoteByID(ctx, creditNoteID); err != nil {
		return err
	}
	if err := s.purchases.ClearCreditNoteSync(ctx, creditNoteID); err != nil {
		return err
	}
	return s.SyncCreditNote(ctx, creditNoteID, cfg)
}

func (s *service) ResyncPurchaseInvoice(ctx context.Context, purchaseInvoiceID uuid.UUID, cfg *models.CompanySettings) error {
	if _, err := s.purchases.FindPurchaseInvoiceByID(ctx, purchaseInvoiceID); err != nil {
		return err
	}
	if err := s.purchases.ClearPurchaseInvoiceSync(ctx, purchaseInvoiceID); err != nil {
		return err
	}
	return s.SyncPurchaseInvoice(ctx, purchaseInvoiceID, cfg)
}

// TestConnection probes the ledger with the configured token.
func (s *service) TestConnection(ctx context.Context, cfg *models.CompanySettings) error {
	token, err := s.token(cfg)
	if err != nil {
		return err
	}
	res := s.ledger.TestConnection(ctx, token)
	if !res.Success {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("connection test failed: %s", res.Error))
	}
	return nil
}

// Diagnose runs the client's step-by-step probe.
func (s *service) Diagnose(ctx context.Context, cfg *models.CompanySettings) []eboekhouden.DiagnosisStep {
	token, err := s.token(cfg)
	if err != nil {
		return []eboekhouden.DiagnosisStep{{Name: "configuration", Success: false, Error: err.Error()}}
	}
	return s.ledger.Diagnose(ctx, token)
}
