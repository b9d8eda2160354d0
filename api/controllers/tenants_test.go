package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

type testTenantsService struct {
	createTenantFn func(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error)
	getTenantFn    func(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

func (s *testTenantsService) CreateTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	if s.createTenantFn != nil {
		return s.createTenantFn(ctx, tenant)
	}
	return tenant, nil
}

func (s *testTenantsService) UpdateTenant(ctx context.Context, id uuid.UUID, apply func(*models.Tenant)) (*models.Tenant, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
}

func (s *testTenantsService) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if s.getTenantFn != nil {
		return s.getTenantFn(ctx, id)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
}

func (s *testTenantsService) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	return nil, nil
}

func (s *testTenantsService) CreateExternalCustomer(ctx context.Context, customer *models.ExternalCustomer) (*models.ExternalCustomer, error) {
	return customer, nil
}

func (s *testTenantsService) UpdateExternalCustomer(ctx context.Context, id uuid.UUID, apply func(*models.ExternalCustomer)) (*models.ExternalCustomer, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
}

func (s *testTenantsService) GetExternalCustomer(ctx context.Context, id uuid.UUID) (*models.ExternalCustomer, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
}

func (s *testTenantsService) ListExternalCustomers(ctx context.Context) ([]models.ExternalCustomer, error) {
	return nil, nil
}

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestTenantCreateSuccess(t *testing.T) {
	created := false
	svc := &testTenantsService{
		createTenantFn: func(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
			created = true
			if tenant.Name != "J. de Vries" {
				t.Fatalf("unexpected name %q", tenant.Name)
			}
			tenant.ID = uuid.New()
			return tenant, nil
		},
	}

	body := bytes.NewBufferString(`{"name":"J. de Vries","email":"jdv@example.nl"}`)
	req := httptest.NewRequest(http.MethodPost, "/tenants", body)
	rec := httptest.NewRecorder()

	TenantCreate(svc, testControllerLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if !created {
		t.Fatal("expected service call")
	}

	var envelope struct {
		Data customerResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Email != "jdv@example.nl" {
		t.Fatalf("unexpected email %q", envelope.Data.Email)
	}
}

func TestTenantCreateRejectsInvalidEmail(t *testing.T) {
	svc := &testTenantsService{
		createTenantFn: func(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	body := bytes.NewBufferString(`{"name":"J. de Vries","email":"not-an-email"}`)
	req := httptest.NewRequest(http.MethodPost, "/tenants", body)
	rec := httptest.NewRecorder()

	TenantCreate(svc, testControllerLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if envelope.Error.Details["email"] == "" {
		t.Fatalf("expected email detail, got %v", envelope.Error.Details)
	}
}

func TestTenantDetailRejectsBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/tenants/not-a-uuid", nil)
	req = withChiParam(req, "tenantId", "not-a-uuid")
	rec := httptest.NewRecorder()

	TenantDetail(&testTenantsService{}, testControllerLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
}
