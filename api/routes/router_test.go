package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/internal/bookings"
	"github.com/havenwerk/verhuur-backend/internal/cron"
	"github.com/havenwerk/verhuur-backend/internal/invoicing"
	"github.com/havenwerk/verhuur-backend/internal/leases"
	"github.com/havenwerk/verhuur-backend/internal/purchases"
	"github.com/havenwerk/verhuur-backend/internal/settings"
	syncsvc "github.com/havenwerk/verhuur-backend/internal/sync"
	"github.com/havenwerk/verhuur-backend/internal/tenants"
	pkgauth "github.com/havenwerk/verhuur-backend/pkg/auth"
	"github.com/havenwerk/verhuur-backend/pkg/config"
	dbpkg "github.com/havenwerk/verhuur-backend/pkg/db"
	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/eboekhouden"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
	"github.com/havenwerk/verhuur-backend/pkg/outbox"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubLedger struct{}

func (stubLedger) TestConnection(context.Context, string) eboekhouden.Result {
	return eboekhouden.Result{Success: true, Status: http.StatusOK}
}

func (stubLedger) GetRelation(context.Context, string, string) eboekhouden.Result {
	return eboekhouden.Result{Success: false, Status: http.StatusNotFound}
}

func (stubLedger) CreateRelation(context.Context, string, eboekhouden.Relation) eboekhouden.Result {
	return eboekhouden.Result{Success: true, Status: http.StatusOK, Data: json.RawMessage(`{"id": 100}`)}
}

func (stubLedger) UpdateRelation(context.Context, string, string, eboekhouden.Relation) eboekhouden.Result {
	return eboekhouden.Result{Success: true, Status: http.StatusOK}
}

func (stubLedger) CreateInvoice(context.Context, string, eboekhouden.InvoiceRequest) eboekhouden.Result {
	return eboekhouden.Result{Success: true, Status: http.StatusOK, Data: json.RawMessage(`{"id": 200}`)}
}

func (stubLedger) GetInvoice(context.Context, string, string) eboekhouden.Result {
	return eboekhouden.Result{Success: false, Status: http.StatusNotFound}
}

func (stubLedger) CreateMutation(context.Context, string, eboekhouden.MutationRequest) eboekhouden.Result {
	return eboekhouden.Result{Success: true, Status: http.StatusOK, Data: json.RawMessage(`{"id": 300}`)}
}

func (stubLedger) GetMutation(context.Context, string, string) eboekhouden.Result {
	return eboekhouden.Result{Success: false, Status: http.StatusNotFound}
}

func (stubLedger) Diagnose(context.Context, string) []eboekhouden.DiagnosisStep {
	return []eboekhouden.DiagnosisStep{{Name: "session", Success: true, Status: http.StatusOK}}
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "verhuur-backend",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Tenant{},
		&models.ExternalCustomer{},
		&models.Lease{},
		&models.LeaseSpace{},
		&models.OfficeSpace{},
		&models.Booking{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
		&models.CreditNote{},
		&models.CreditNoteLineItem{},
		&models.PurchaseInvoice{},
		&models.PurchaseInvoiceLineItem{},
		&models.GrootboekMapping{},
		&models.ScheduledJob{},
		&models.SyncLogEntry{},
		&models.CompanySettings{},
		&models.OutboxEvent{},
	))

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	tenantsService, err := tenants.NewService(tenants.NewRepository(conn))
	require.NoError(t, err)
	leasesService, err := leases.NewService(leases.NewRepository(conn))
	require.NoError(t, err)
	bookingsService, err := bookings.NewService(bookings.NewRepository(conn))
	require.NoError(t, err)
	purchasesService, err := purchases.NewService(purchases.NewRepository(conn))
	require.NoError(t, err)
	settingsService, err := settings.NewService(settings.NewRepository(conn))
	require.NoError(t, err)
	invoicingService, err := invoicing.NewService(invoicing.ServiceParams{
		Repo:     invoicing.NewRepository(conn),
		Leases:   leases.NewRepository(conn),
		Bookings: bookings.NewRepository(conn),
		Tx:       dbpkg.FromConn(conn),
		Outbox:   outboxService,
		Logger:   logg,
	})
	require.NoError(t, err)

	syncLogRepo := syncsvc.NewSyncLogRepository(conn)
	mappingRepo := syncsvc.NewMappingRepository(conn)
	syncService, err := syncsvc.NewService(syncsvc.ServiceParams{
		Ledger:    stubLedger{},
		Customers: tenants.NewRepository(conn),
		Invoices:  invoicing.NewRepository(conn),
		Purchases: purchases.NewRepository(conn),
		Mappings:  mappingRepo,
		SyncLog:   syncLogRepo,
		Tx:        dbpkg.FromConn(conn),
		Outbox:    outboxService,
		Logger:    logg,
	})
	require.NoError(t, err)

	jobsRepo := cron.NewRepository(conn)
	require.NoError(t, jobsRepo.Seed(context.Background(), time.Now().UTC()))

	return NewRouter(testConfig(), logg, stubPinger{}, stubPinger{}, Services{
		Tenants:   tenantsService,
		Leases:    leasesService,
		Bookings:  bookingsService,
		Invoicing: invoicingService,
		Purchases: purchasesService,
		Settings:  settingsService,
		Sync:      syncService,
		SyncLog:   syncLogRepo,
		Mappings:  mappingRepo,
		Jobs:      jobsRepo,
	})
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testConfig().JWT, time.Now().UTC(), pkgauth.AccessTokenPayload{Subject: "beheer@havenwerk.nl"})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthEndpointsOpen(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready", "/api/public/ping"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
}

func TestTenantCreateAndList(t *testing.T) {
	router := newTestRouter(t)
	auth := bearer(t)

	body := bytes.NewBufferString(`{"name":"J. de Vries","email":"jdv@example.nl","street":"Havenkade 12","postal_code":"3011 AA","city":"Rotterdam"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants/", body)
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/tenants/", nil)
	req.Header.Set("Authorization", auth)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.Equal(t, "J. de Vries", envelope.Data[0].Name)
}

func TestScheduledJobsListAndToggle(t *testing.T) {
	router := newTestRouter(t)
	auth := bearer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/", nil)
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var listEnvelope struct {
		Data []struct {
			JobType   string `json:"job_type"`
			IsEnabled bool   `json:"is_enabled"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listEnvelope))
	require.NotEmpty(t, listEnvelope.Data)

	jobType := listEnvelope.Data[0].JobType
	body := bytes.NewBufferString(`{"is_enabled":false}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+jobType+"/toggle", body)
	req.Header.Set("Authorization", auth)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var toggleEnvelope struct {
		Data struct {
			IsEnabled bool `json:"is_enabled"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggleEnvelope))
	require.False(t, toggleEnvelope.Data.IsEnabled)
}

func TestSettingsUpdateRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	auth := bearer(t)

	body := bytes.NewBufferString(`{"company_name":"Havenwerk BV","eboekhouden_enabled":true,"eboekhouden_api_token":"secret-token","default_ledger_account":"8000"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings/", body)
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data struct {
			CompanyName string `json:"company_name"`
			HasAPIToken bool   `json:"has_api_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "Havenwerk BV", envelope.Data.CompanyName)
	require.True(t, envelope.Data.HasAPIToken)
}

func TestSyncTestConnectionWithLedgerDisabled(t *testing.T) {
	router := newTestRouter(t)
	auth := bearer(t)

	// Seed settings without enabling the ledger.
	body := bytes.NewBufferString(`{"company_name":"Havenwerk BV"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings/", body)
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sync/test-connection", nil)
	req.Header.Set("Authorization", auth)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.NotEqual(t, http.StatusOK, rec.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "CONFIGURATION_ERROR", envelope.Error.Code)
}
