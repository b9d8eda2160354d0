package eboekhouden

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenwerk/verhuur-backend/pkg/config"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.EBoekhoudenConfig{
		BaseURL:        baseURL,
		Source:         "verhuur-backend",
		RequestTimeout: 5 * time.Second,
	}, testLogger())
	require.NoError(t, err)
	return client
}

// sessionHandler answers the session mint endpoint and delegates the
// rest to next.
func sessionHandler(t *testing.T, next http.HandlerFunc) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/session" {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "verhuur-backend", body["source"])
			assert.Equal(t, "api-token", body["accessToken"])
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token":"session-token"}`))
			return
		}
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		next(w, r)
	}
}

func TestClient_GetRelation_Success(t *testing.T) {
	server := httptest.NewServer(sessionHandler(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/relation/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"name":"Acme BV"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	res := client.GetRelation(context.Background(), "api-token", "42")

	require.True(t, res.Success)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Empty(t, res.Error)

	var relation Relation
	require.NoError(t, DecodeData(res, &relation))
	assert.Equal(t, int64(42), relation.ID)
	assert.Equal(t, "Acme BV", relation.Name)
}

func TestClient_MintsSessionPerCall(t *testing.T) {
	var sessionCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/session" {
			sessionCalls++
			_, _ = w.Write([]byte(`{"token":"session-token"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	require.True(t, client.ListRelations(ctx, "api-token").Success)
	require.True(t, client.ListLedgerAccounts(ctx, "api-token").Success)

	assert.Equal(t, 2, sessionCalls)
}

func TestClient_NonSuccessStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(sessionHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"relation not found"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	res := client.GetRelation(context.Background(), "api-token", "999")

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Contains(t, res.Error, "relation not found")
	assert.JSONEq(t, `{"message":"relation not found"}`, string(res.Data))
}

func TestClient_SessionFailurePropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/session", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid token"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	res := client.ListRelations(context.Background(), "bad-token")

	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Status)
	assert.Contains(t, res.Error, "session mint failed (401)")
}

func TestClient_TransportFailureFoldedIntoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"session-token"}`))
	}))
	server.Close() // force connection refused

	client := newTestClient(t, server.URL)
	res := client.ListRelations(context.Background(), "api-token")

	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Status)
	assert.NotEmpty(t, res.Error)
}

func TestClient_CreateInvoice_SendsBody(t *testing.T) {
	server := httptest.NewServer(sessionHandler(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/invoice", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req InvoiceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(42), req.RelationID)
		assert.Equal(t, "2026-08-01", req.Date)
		require.Len(t, req.Lines, 1)
		assert.Equal(t, "Huur augustus 2026", req.Lines[0].Description)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"number":"F2026-001"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	res := client.CreateInvoice(context.Background(), "api-token", InvoiceRequest{
		RelationID:    42,
		Date:          "2026-08-01",
		TermOfPayment: 14,
		Lines: []InvoiceLine{{
			Description:  "Huur augustus 2026",
			Quantity:     decimal.NewFromInt(1),
			PricePerUnit: decimal.RequireFromString("1250.00"),
			VATCode:      "HOOG_VERK_21",
		}},
	})

	require.True(t, res.Success)
	assert.Equal(t, http.StatusCreated, res.Status)

	var invoice Invoice
	require.NoError(t, DecodeData(res, &invoice))
	assert.Equal(t, int64(7), invoice.ID)
	assert.Equal(t, "F2026-001", invoice.Number)
}

func TestClient_Diagnose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/session":
			_, _ = w.Write([]byte(`{"token":"session-token"}`))
		case "/v1/ledger", "/v1/relation":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"no access"}`))
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	steps := client.Diagnose(context.Background(), "api-token")

	require.Len(t, steps, 4)
	assert.Equal(t, "session", steps[0].Name)
	assert.True(t, steps[0].Success)
	assert.True(t, steps[1].Success) // ledger_accounts
	assert.True(t, steps[2].Success) // relations
	assert.False(t, steps[3].Success)
	assert.Equal(t, "invoice_templates", steps[3].Name)
	assert.Equal(t, http.StatusForbidden, steps[3].Status)
}

func TestClient_Diagnose_SessionFailureShortCircuits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	steps := client.Diagnose(context.Background(), "bad-token")

	require.Len(t, steps, 1)
	assert.Equal(t, "session", steps[0].Name)
	assert.False(t, steps[0].Success)
}
