package sync

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/internal/invoicing"
	"github.com/havenwerk/verhuur-backend/internal/purchases"
	"github.com/havenwerk/verhuur-backend/internal/tenants"
	dbpkg "github.com/havenwerk/verhuur-backend/pkg/db"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/eboekhouden"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
	"github.com/havenwerk/verhuur-backend/pkg/outbox"
)

func okResult(v any) eboekhouden.Result {
	data, _ := json.Marshal(v)
	return eboekhouden.Result{Success: true, Status: 200, Data: data}
}

func errResult(status int, msg string) eboekhouden.Result {
	return eboekhouden.Result{Success: false, Status: status, Error: msg}
}

// fakeLedger is a scriptable LedgerClient. Responses default to 404
// unless set.
type fakeLedger struct {
	testConnectionRes eboekhouden.Result
	createRelationRes eboekhouden.Result
	updateRelationRes eboekhouden.Result
	createInvoiceRes  eboekhouden.Result
	createMutationRes eboekhouden.Result
	relationByID      map[string]eboekhouden.Result
	invoiceByID       map[string]eboekhouden.Result
	mutationByID      map[string]eboekhouden.Result

	createdRelations []eboekhouden.Relation
	updatedRelations []eboekhouden.Relation
	invoiceRequests  []eboekhouden.InvoiceRequest
	mutationRequests []eboekhouden.MutationRequest
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		relationByID: map[string]eboekhouden.Result{},
		invoiceByID:  map[string]eboekhouden.Result{},
		mutationByID: map[string]eboekhouden.Result{},
	}
}

func lookup(m map[string]eboekhouden.Result, id string) eboekhouden.Result {
	if res, ok := m[id]; ok {
		return res
	}
	return errResult(404, "not found")
}

func (f *fakeLedger) TestConnection(_ context.Context, _ string) eboekhouden.Result {
	return f.testConnectionRes
}

func (f *fakeLedger) GetRelation(_ context.Context, _, relationID string) eboekhouden.Result {
	return lookup(f.relationByID, relationID)
}

func (f *fakeLedger) CreateRelation(_ context.Context, _ string, relation eboekhouden.Relation) eboekhouden.Result {
	f.createdRelations = append(f.createdRelations, relation)
	return f.createRelationRes
}

func (f *fakeLedger) UpdateRelation(_ context.Context, _, _ string, relation eboekhouden.Relation) eboekhouden.Result {
	f.updatedRelations = append(f.updatedRelations, relation)
	return f.updateRelationRes
}

func (f *fakeLedger) CreateInvoice(_ context.Context, _ string, req eboekhouden.InvoiceRequest) eboekhouden.Result {
	f.invoiceRequests = append(f.invoiceRequests, req)
	return f.createInvoiceRes
}

func (f *fakeLedger) GetInvoice(_ context.Context, _, invoiceID string) eboekhouden.Result {
	return lookup(f.invoiceByID, invoiceID)
}

func (f *fakeLedger) CreateMutation(_ context.Context, _ string, req eboekhouden.MutationRequest) eboekhouden.Result {
	f.mutationRequests = append(f.mutationRequests, req)
	return f.createMutationRes
}

func (f *fakeLedger) GetMutation(_ context.Context, _, mutationID string) eboekhouden.Result {
	return lookup(f.mutationByID, mutationID)
}

func (f *fakeLedger) Diagnose(_ context.Context, _ string) []eboekhouden.DiagnosisStep {
	return []eboekhouden.DiagnosisStep{{Name: "session", Success: true, Status: 200}}
}

type syncFixture struct {
	db     *gorm.DB
	ledger *fakeLedger
	svc    Service
}

func setupSync(t *testing.T) *syncFixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Tenant{},
		&models.ExternalCustomer{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
		&models.CreditNote{},
		&models.CreditNoteLineItem{},
		&models.PurchaseInvoice{},
		&models.PurchaseInvoiceLineItem{},
		&models.GrootboekMapping{},
		&models.SyncLogEntry{},
		&models.OutboxEvent{},
	))

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	ledger := newFakeLedger()
	svc, err := NewService(ServiceParams{
		Ledger:    ledger,
		Customers: tenants.NewRepository(conn),
		Invoices:  invoicing.NewRepository(conn),
		Purchases: purchases.NewRepository(conn),
		Mappings:  NewMappingRepository(conn),
		SyncLog:   NewSyncLogRepository(conn),
		Tx:        dbpkg.FromConn(conn),
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:    logg,
	})
	require.NoError(t, err)
	return &syncFixture{db: conn, ledger: ledger, svc: svc}
}

func syncSettings() *models.CompanySettings {
	return &models.CompanySettings{
		CompanyName:          "Havenwerk BV",
		DefaultVATRate:       decimal.NewFromInt(21),
		InvoiceDueDays:       14,
		DefaultLedgerAccount: "8000",
		EBoekhoudenEnabled:   true,
		EBoekhoudenAPIToken:  "api-token",
	}
}

func (f *syncFixture) seedTenant(t *testing.T, companyName string) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{
		ID:     uuid.New(),
		Name:   "J. de Vries",
		Email:  "jdv@example.nl",
		Street: "Havenkade 12",
		City:   "Rotterdam",
	}
	if companyName != "" {
		tenant.CompanyName = &companyName
	}
	require.NoError(t, f.db.Create(tenant).Error)
	return tenant
}

func (f *syncFixture) seedInvoice(t *testing.T, customerID uuid.UUID) *models.Invoice {
	t.Helper()
	invoice := &models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "F2026-0001",
		CustomerID:    customerID,
		CustomerType:  enums.CustomerTypeTenant,
		InvoiceMonth:  "2026-08",
		InvoiceDate:   time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC),
		Status:        enums.InvoiceStatusDraft,
		Subtotal:      decimal.RequireFromString("1000.00"),
		VATAmount:     decimal.RequireFromString("210.00"),
		Amount:        decimal.RequireFromString("1210.00"),
		VATRate:       decimal.NewFromInt(21),
		LineItems: []models.InvoiceLineItem{{
			ID:            uuid.New(),
			Description:   "Huur Hal 3 augustus 2026",
			Quantity:      decimal.NewFromInt(1),
			UnitPrice:     decimal.RequireFromString("1000.00"),
			Amount:        decimal.RequireFromString("1000.00"),
			VATRate:       decimal.NewFromInt(21),
			LocalCategory: "huur",
		}},
	}
	require.NoError(t, f.db.Create(invoice).Error)
	return invoice
}

func (f *syncFixture) syncLogRows(t *testing.T, entityID uuid.UUID) []models.SyncLogEntry {
	t.Helper()
	var rows []models.SyncLogEntry
	require.NoError(t, f.db.Where("entity_id = ?", entityID).Order("created_at asc").Find(&rows).Error)
	return rows
}

func (f *syncFixture) outboxEvents(t *testing.T, eventType enums.OutboxEventType) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, f.db.Where("event_type = ?", eventType).Find(&rows).Error)
	return rows
}

func TestSyncRelation_CreatesAndLinks(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "De Vries Logistiek BV")
	f.ledger.createRelationRes = okResult(eboekhouden.Relation{ID: 4711})

	ref := CustomerRef{Type: enums.CustomerTypeTenant, ID: tenant.ID}
	relatieID, err := f.svc.SyncRelation(ctx, ref, false, "", syncSettings())
	require.NoError(t, err)
	assert.Equal(t, "4711", relatieID)

	require.Len(t, f.ledger.createdRelations, 1)
	sent := f.ledger.createdRelations[0]
	assert.Equal(t, "De Vries Logistiek BV", sent.Name)
	assert.Equal(t, "J. de Vries", sent.ContactName)
	assert.Equal(t, eboekhouden.RelationTypeBusiness, sent.Type)

	var stored models.Tenant
	require.NoError(t, f.db.First(&stored, "id = ?", tenant.ID).Error)
	require.NotNil(t, stored.EBoekhoudenRelatieID)
	assert.Equal(t, "4711", *stored.EBoekhoudenRelatieID)
	require.NotNil(t, stored.EBoekhoudenSyncedAt)

	rows := f.syncLogRows(t, tenant.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.SyncStatusSuccess, rows[0].Status)
	assert.Equal(t, enums.SyncActionCreate, rows[0].Action)
	require.NotNil(t, rows[0].EBoekhoudenID)
	assert.Equal(t, "4711", *rows[0].EBoekhoudenID)
	assert.NotEmpty(t, rows[0].RequestPayload)

	assert.Len(t, f.outboxEvents(t, enums.EventRelationSynced), 1)
}

func TestSyncRelation_AlreadySyncedIsNoop(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	relatieID := "99"
	require.NoError(t, f.db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).
		Update("eboekhouden_relatie_id", relatieID).Error)

	got, err := f.svc.SyncRelation(ctx, CustomerRef{Type: enums.CustomerTypeTenant, ID: tenant.ID}, false, "", syncSettings())
	require.NoError(t, err)
	assert.Equal(t, "99", got)
	assert.Empty(t, f.ledger.createdRelations)
	assert.Empty(t, f.ledger.updatedRelations)
}

func TestSyncRelation_ForceUpdatesInPlace(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	relatieID := "99"
	require.NoError(t, f.db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).
		Update("eboekhouden_relatie_id", relatieID).Error)
	f.ledger.relationByID["99"] = okResult(eboekhouden.Relation{ID: 99})
	f.ledger.updateRelationRes = okResult(eboekhouden.Relation{ID: 99})

	got, err := f.svc.SyncRelation(ctx, CustomerRef{Type: enums.CustomerTypeTenant, ID: tenant.ID}, true, "", syncSettings())
	require.NoError(t, err)
	assert.Equal(t, "99", got)
	require.Len(t, f.ledger.updatedRelations, 1)
	assert.Empty(t, f.ledger.createdRelations)

	rows := f.syncLogRows(t, tenant.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.SyncActionUpdate, rows[0].Action)
}

func TestSyncRelation_ForceRecreatesDeletedRelation(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	require.NoError(t, f.db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).
		Update("eboekhouden_relatie_id", "99").Error)
	// ledger returns 404 for relation 99
	f.ledger.createRelationRes = okResult(eboekhouden.Relation{ID: 4712})

	got, err := f.svc.SyncRelation(ctx, CustomerRef{Type: enums.CustomerTypeTenant, ID: tenant.ID}, true, "", syncSettings())
	require.NoError(t, err)
	assert.Equal(t, "4712", got)
	assert.Empty(t, f.ledger.updatedRelations)
	require.Len(t, f.ledger.createdRelations, 1)

	var stored models.Tenant
	require.NoError(t, f.db.First(&stored, "id = ?", tenant.ID).Error)
	require.NotNil(t, stored.EBoekhoudenRelatieID)
	assert.Equal(t, "4712", *stored.EBoekhoudenRelatieID)
}

func TestSyncRelation_PassesRelationCode(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	f.ledger.createRelationRes = okResult(eboekhouden.Relation{ID: 51})

	_, err := f.svc.SyncRelation(ctx, CustomerRef{Type: enums.CustomerTypeTenant, ID: tenant.ID}, false, "REL-051", syncSettings())
	require.NoError(t, err)
	require.Len(t, f.ledger.createdRelations, 1)
	assert.Equal(t, "REL-051", f.ledger.createdRelations[0].Code)
}

func TestSyncRelation_RemoteFailure(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	f.ledger.createRelationRes = errResult(422, "name required")

	_, err := f.svc.SyncRelation(ctx, CustomerRef{Type: enums.CustomerTypeTenant, ID: tenant.ID}, false, "", syncSettings())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())

	var stored models.Tenant
	require.NoError(t, f.db.First(&stored, "id = ?", tenant.ID).Error)
	assert.Nil(t, stored.EBoekhoudenRelatieID)

	rows := f.syncLogRows(t, tenant.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.SyncStatusError, rows[0].Status)
	require.NotNil(t, rows[0].ErrorMessage)
	assert.Contains(t, *rows[0].ErrorMessage, "name required")
}

func TestSyncRelation_DisabledSettings(t *testing.T) {
	f := setupSync(t)
	tenant := f.seedTenant(t, "")
	cfg := syncSettings()
	cfg.EBoekhoudenEnabled = false

	_, err := f.svc.SyncRelation(context.Background(), CustomerRef{Type: enums.CustomerTypeTenant, ID: tenant.ID}, false, "", cfg)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConfiguration, appErr.Code())
}

func TestSyncInvoice_CascadesRelationAndMarksSynced(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "De Vries Logistiek BV")
	invoice := f.seedInvoice(t, tenant.ID)
	require.NoError(t, f.db.Create(&models.GrootboekMapping{
		ID: uuid.New(), LocalCategory: "huur", Code: "8010",
	}).Error)
	f.ledger.createRelationRes = okResult(eboekhouden.Relation{ID: 4711})
	f.ledger.createInvoiceRes = okResult(eboekhouden.Invoice{ID: 20260001})

	require.NoError(t, f.svc.SyncInvoice(ctx, invoice.ID, syncSettings()))

	require.Len(t, f.ledger.createdRelations, 1)
	require.Len(t, f.ledger.invoiceRequests, 1)
	req := f.ledger.invoiceRequests[0]
	assert.Equal(t, int64(4711), req.RelationID)
	assert.Equal(t, "2026-08-01", req.Date)
	assert.Equal(t, 14, req.TermOfPayment)
	assert.Equal(t, "F2026-0001", req.Reference)
	assert.False(t, req.VATInclusive)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, "8010", req.Lines[0].LedgerAccountID)
	assert.Equal(t, "HOOG_VERK_21", req.Lines[0].VATCode)

	var stored models.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	require.NotNil(t, stored.EBoekhoudenInvoiceID)
	assert.Equal(t, "20260001", *stored.EBoekhoudenInvoiceID)
	require.NotNil(t, stored.SyncedAt)

	rows := f.syncLogRows(t, invoice.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.SyncEntityInvoice, rows[0].EntityType)
	assert.Len(t, f.outboxEvents(t, enums.EventInvoiceSynced), 1)
}

func TestSyncInvoice_AlreadySyncedIsNoop(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	invoice := f.seedInvoice(t, tenant.ID)
	require.NoError(t, f.db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Update("eboekhouden_invoice_id", "555").Error)

	require.NoError(t, f.svc.SyncInvoice(ctx, invoice.ID, syncSettings()))
	assert.Empty(t, f.ledger.invoiceRequests)
}

func TestSyncInvoice_FallsBackToDefaultAccount(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	invoice := f.seedInvoice(t, tenant.ID)
	f.ledger.createRelationRes = okResult(eboekhouden.Relation{ID: 1})
	f.ledger.createInvoiceRes = okResult(eboekhouden.Invoice{ID: 2})

	require.NoError(t, f.svc.SyncInvoice(ctx, invoice.ID, syncSettings()))
	require.Len(t, f.ledger.invoiceRequests, 1)
	assert.Equal(t, "8000", f.ledger.invoiceRequests[0].Lines[0].LedgerAccountID)
}

func TestSyncInvoice_MissingAccountConfigAborts(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	invoice := f.seedInvoice(t, tenant.ID)
	f.ledger.createRelationRes = okResult(eboekhouden.Relation{ID: 1})
	cfg := syncSettings()
	cfg.DefaultLedgerAccount = ""

	err := f.svc.SyncInvoice(ctx, invoice.ID, cfg)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConfiguration, appErr.Code())
	// account resolution runs before the remote invoice call
	assert.Empty(t, f.ledger.invoiceRequests)
}

func TestSyncInvoice_RemoteFailureLeavesInvoiceUnsynced(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	invoice := f.seedInvoice(t, tenant.ID)
	f.ledger.createRelationRes = okResult(eboekhouden.Relation{ID: 1})
	f.ledger.createInvoiceRes = errResult(500, "ledger unavailable")

	err := f.svc.SyncInvoice(ctx, invoice.ID, syncSettings())
	require.Error(t, err)

	var stored models.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	assert.Nil(t, stored.EBoekhoudenInvoiceID)

	rows := f.syncLogRows(t, invoice.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.SyncStatusError, rows[0].Status)
}

func TestSyncCreditNote_NegatesLines(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	note := &models.CreditNote{
		ID:               uuid.New(),
		CreditNoteNumber: "CN2026-0001",
		CustomerID:       tenant.ID,
		CustomerType:     enums.CustomerTypeTenant,
		CreditDate:       time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC),
		Subtotal:         decimal.RequireFromString("200.00"),
		VATAmount:        decimal.RequireFromString("42.00"),
		Amount:           decimal.RequireFromString("242.00"),
		VATRate:          decimal.NewFromInt(21),
		LineItems: []models.CreditNoteLineItem{{
			ID:            uuid.New(),
			Description:   "Correctie huur",
			Quantity:      decimal.NewFromInt(1),
			Amount:        decimal.RequireFromString("200.00"),
			VATRate:       decimal.NewFromInt(21),
			LocalCategory: "huur",
		}},
	}
	require.NoError(t, f.db.Create(note).Error)
	f.ledger.createRelationRes = okResult(eboekhouden.Relation{ID: 7})
	f.ledger.createInvoiceRes = okResult(eboekhouden.Invoice{ID: 31})

	require.NoError(t, f.svc.SyncCreditNote(ctx, note.ID, syncSettings()))
	require.Len(t, f.ledger.invoiceRequests, 1)
	req := f.ledger.invoiceRequests[0]
	assert.False(t, req.VATInclusive)
	require.Len(t, req.Lines, 1)
	assert.True(t, req.Lines[0].PricePerUnit.Equal(decimal.RequireFromString("-200.00")),
		"got %s", req.Lines[0].PricePerUnit)

	var stored models.CreditNote
	require.NoError(t, f.db.First(&stored, "id = ?", note.ID).Error)
	require.NotNil(t, stored.EBoekhoudenID)
	assert.Equal(t, "31", *stored.EBoekhoudenID)
}

func TestSyncPurchaseInvoice_CreatesSupplierRelation(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	invoice := &models.PurchaseInvoice{
		ID:            uuid.New(),
		InvoiceNumber: "2026-771",
		SupplierName:  "Schoonmaak Zuid",
		InvoiceDate:   time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, time.September, 4, 0, 0, 0, 0, time.UTC),
		Subtotal:      decimal.RequireFromString("300.00"),
		VATAmount:     decimal.RequireFromString("63.00"),
		Amount:        decimal.RequireFromString("363.00"),
		VATRate:       decimal.NewFromInt(21),
		Category:      "schoonmaak",
		LineItems: []models.PurchaseInvoiceLineItem{{
			ID:            uuid.New(),
			Description:   "Schoonmaak augustus",
			Amount:        decimal.RequireFromString("363.00"),
			VATRate:       decimal.NewFromInt(21),
			LocalCategory: "schoonmaak",
		}},
	}
	require.NoError(t, f.db.Create(invoice).Error)
	require.NoError(t, f.db.Create(&models.GrootboekMapping{
		ID: uuid.New(), LocalCategory: "inkoop_schoonmaak", Code: "4200",
	}).Error)
	f.ledger.createRelationRes = okResult(eboekhouden.Relation{ID: 880})
	f.ledger.createMutationRes = okResult(eboekhouden.Mutation{ID: 9001})

	require.NoError(t, f.svc.SyncPurchaseInvoice(ctx, invoice.ID, syncSettings()))

	require.Len(t, f.ledger.createdRelations, 1)
	assert.Equal(t, "Schoonmaak Zuid", f.ledger.createdRelations[0].Name)

	require.Len(t, f.ledger.mutationRequests, 1)
	req := f.ledger.mutationRequests[0]
	assert.Equal(t, int64(880), req.RelationID)
	assert.Equal(t, "2026-771", req.InvoiceNr)
	require.Len(t, req.Rows, 1)
	assert.Equal(t, "4200", req.Rows[0].LedgerAccountID)
	assert.Equal(t, "HOOG_INK_21", req.Rows[0].VATCode)

	var stored models.PurchaseInvoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	require.NotNil(t, stored.SupplierRelatieID)
	assert.Equal(t, "880", *stored.SupplierRelatieID)
	require.NotNil(t, stored.EBoekhoudenMutatieID)
	assert.Equal(t, "9001", *stored.EBoekhoudenMutatieID)
}

func TestResyncInvoice_ClearsAndSyncsAgain(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	invoice := f.seedInvoice(t, tenant.ID)
	require.NoError(t, f.db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Update("eboekhouden_invoice_id", "old").Error)
	f.ledger.createRelationRes = okResult(eboekhouden.Relation{ID: 1})
	f.ledger.createInvoiceRes = okResult(eboekhouden.Invoice{ID: 777})

	require.NoError(t, f.svc.ResyncInvoice(ctx, invoice.ID, syncSettings()))

	var stored models.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	require.NotNil(t, stored.EBoekhoudenInvoiceID)
	assert.Equal(t, "777", *stored.EBoekhoudenInvoiceID)
}

func TestVerifyInvoiceSyncStatus_ClearsMissingInvoices(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	invoice := f.seedInvoice(t, tenant.ID)
	require.NoError(t, f.db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Updates(map[string]any{"eboekhouden_invoice_id": "42", "synced_at": time.Now()}).Error)
	// ledger returns 404 for id 42

	report, err := f.svc.VerifyInvoiceSyncStatus(ctx, syncSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 1, report.Cleared)

	var stored models.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	assert.Nil(t, stored.EBoekhoudenInvoiceID)

	rows := f.syncLogRows(t, invoice.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.SyncActionVerify, rows[0].Action)
}

func TestVerifyInvoiceSyncStatus_KeepsFoundInvoices(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	invoice := f.seedInvoice(t, tenant.ID)
	require.NoError(t, f.db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Updates(map[string]any{"eboekhouden_invoice_id": "42", "synced_at": time.Now()}).Error)
	f.ledger.invoiceByID["42"] = okResult(eboekhouden.Invoice{ID: 42, OpenAmount: decimal.RequireFromString("1210.00")})

	report, err := f.svc.VerifyInvoiceSyncStatus(ctx, syncSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 0, report.Cleared)

	var stored models.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	require.NotNil(t, stored.EBoekhoudenInvoiceID)
}

func TestVerifyInvoiceSyncStatus_ServerErrorKeepsSyncLink(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	invoice := f.seedInvoice(t, tenant.ID)
	require.NoError(t, f.db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Updates(map[string]any{"eboekhouden_invoice_id": "42", "synced_at": time.Now()}).Error)
	f.ledger.invoiceByID["42"] = errResult(500, "internal server error")

	report, err := f.svc.VerifyInvoiceSyncStatus(ctx, syncSettings())
	require.Error(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 0, report.Cleared)
	assert.Equal(t, 1, report.Errors)

	var stored models.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	require.NotNil(t, stored.EBoekhoudenInvoiceID)
	assert.Equal(t, "42", *stored.EBoekhoudenInvoiceID)
}

func TestVerifyInvoiceSyncStatus_ChecksPaidPurchaseInvoices(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	paidAt := time.Now()
	invoice := &models.PurchaseInvoice{
		ID:            uuid.New(),
		InvoiceNumber: "2026-771",
		SupplierName:  "Schoonmaak Zuid",
		InvoiceDate:   time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, time.September, 4, 0, 0, 0, 0, time.UTC),
		Subtotal:      decimal.RequireFromString("300.00"),
		VATAmount:     decimal.RequireFromString("63.00"),
		Amount:        decimal.RequireFromString("363.00"),
		VATRate:       decimal.NewFromInt(21),
		Category:      "schoonmaak",
		PaidAt:        &paidAt,
	}
	require.NoError(t, f.db.Create(invoice).Error)
	require.NoError(t, f.db.Model(&models.PurchaseInvoice{}).Where("id = ?", invoice.ID).
		Updates(map[string]any{"eboekhouden_mutatie_id": "9001", "synced_at": time.Now()}).Error)
	// ledger returns 404 for mutation 9001

	report, err := f.svc.VerifyInvoiceSyncStatus(ctx, syncSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 1, report.Flagged)

	var stored models.PurchaseInvoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	assert.True(t, stored.EBoekhoudenMissing)
}

func TestVerifyRelations_ClearsMissingLink(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	require.NoError(t, f.db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).
		Updates(map[string]any{"eboekhouden_relatie_id": "99", "eboekhouden_synced_at": time.Now()}).Error)

	report, err := f.svc.VerifyRelations(ctx, syncSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Cleared)

	var stored models.Tenant
	require.NoError(t, f.db.First(&stored, "id = ?", tenant.ID).Error)
	assert.Nil(t, stored.EBoekhoudenRelatieID)
}

func TestCheckInvoicePaymentStatuses_MarksSettledInvoicesPaid(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	invoice := f.seedInvoice(t, tenant.ID)
	require.NoError(t, f.db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"eboekhouden_invoice_id": "42",
			"synced_at":              time.Now(),
			"status":                 enums.InvoiceStatusSent,
		}).Error)
	f.ledger.invoiceByID["42"] = okResult(eboekhouden.Invoice{ID: 42, OpenAmount: decimal.Zero})

	report, err := f.svc.CheckInvoicePaymentStatuses(ctx, syncSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 1, report.MarkedPaid)

	var stored models.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	assert.Equal(t, enums.InvoiceStatusPaid, stored.Status)
	require.NotNil(t, stored.PaidAt)

	assert.Len(t, f.outboxEvents(t, enums.EventInvoicePaid), 1)
}

func TestCheckInvoicePaymentStatuses_OpenAmountLeavesInvoice(t *testing.T) {
	f := setupSync(t)
	ctx := context.Background()
	tenant := f.seedTenant(t, "")
	invoice := f.seedInvoice(t, tenant.ID)
	require.NoError(t, f.db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"eboekhouden_invoice_id": "42",
			"synced_at":              time.Now(),
			"status":                 enums.InvoiceStatusSent,
		}).Error)
	f.ledger.invoiceByID["42"] = okResult(eboekhouden.Invoice{ID: 42, OpenAmount: decimal.RequireFromString("600.00")})

	report, err := f.svc.CheckInvoicePaymentStatuses(ctx, syncSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 0, report.MarkedPaid)

	var stored models.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", invoice.ID).Error)
	assert.Equal(t, enums.InvoiceStatusSent, stored.Status)
	assert.Nil(t, stored.PaidAt)
}

func TestTestConnection(t *testing.T) {
	f := setupSync(t)
	f.ledger.testConnectionRes = okResult([]eboekhouden.LedgerAccount{{ID: 1, Code: "8000"}})
	require.NoError(t, f.svc.TestConnection(context.Background(), syncSettings()))

	f.ledger.testConnectionRes = errResult(401, "invalid token")
	err := f.svc.TestConnection(context.Background(), syncSettings())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())
}
