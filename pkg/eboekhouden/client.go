package eboekhouden

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/havenwerk/verhuur-backend/pkg/config"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
)

var errLoggerRequired = errors.New("eboekhouden logger is required")

// Client translates logical accounting operations into calls against
// the e-Boekhouden REST API. Every logical call first exchanges the
// long-lived API token for a short-lived session token, then issues
// the underlying request with a bearer header. Sessions are minted per
// call and never cached; there is no retry layer.
type Client struct {
	baseURL string
	source  string
	http    *http.Client
	logg    *logger.Logger
}

// NewClient initializes the ledger client.
func NewClient(cfg config.EBoekhoudenConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("eboekhouden base url is required")
	}
	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		source = "verhuur-backend"
	}
	timeout := cfg.RequestTimeout
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &Client{
		baseURL: baseURL,
		source:  source,
		http:    client,
		logg:    logg,
	}, nil
}

// TestConnection mints a session and probes the ledger account list.
func (c *Client) TestConnection(ctx context.Context, apiToken string) Result {
	return c.call(ctx, apiToken, "test_connection", http.MethodGet, "/v1/ledger?limit=1", nil)
}

// GetRelation fetches a single relation by its remote id.
func (c *Client) GetRelation(ctx context.Context, apiToken, relationID string) Result {
	return c.call(ctx, apiToken, "get_relation", http.MethodGet, "/v1/relation/"+relationID, nil)
}

// ListRelations lists relations.
func (c *Client) ListRelations(ctx context.Context, apiToken string) Result {
	return c.call(ctx, apiToken, "get_relations", http.MethodGet, "/v1/relation", nil)
}

// CreateRelation creates a new relation.
func (c *Client) CreateRelation(ctx context.Context, apiToken string, relation Relation) Result {
	return c.call(ctx, apiToken, "create_relation", http.MethodPost, "/v1/relation", relation)
}

// UpdateRelation pushes updated relation details.
func (c *Client) UpdateRelation(ctx context.Context, apiToken, relationID string, relation Relation) Result {
	return c.call(ctx, apiToken, "update_relation", http.MethodPatch, "/v1/relation/"+relationID, relation)
}

// ListLedgerAccounts returns the chart of accounts.
func (c *Client) ListLedgerAccounts(ctx context.Context, apiToken string) Result {
	return c.call(ctx, apiToken, "get_ledger_accounts", http.MethodGet, "/v1/ledger", nil)
}

// CreateInvoice creates an invoice against a relation.
func (c *Client) CreateInvoice(ctx context.Context, apiToken string, req InvoiceRequest) Result {
	return c.call(ctx, apiToken, "create_invoice", http.MethodPost, "/v1/invoice", req)
}

// GetInvoice fetches an invoice by its remote id.
func (c *Client) GetInvoice(ctx context.Context, apiToken, invoiceID string) Result {
	return c.call(ctx, apiToken, "get_invoice", http.MethodGet, "/v1/invoice/"+invoiceID, nil)
}

// CreateMutation posts a mutation (used for purchase invoices).
func (c *Client) CreateMutation(ctx context.Context, apiToken string, req MutationRequest) Result {
	return c.call(ctx, apiToken, "create_mutation", http.MethodPost, "/v1/mutation", req)
}

// GetMutation fetches a mutation by its remote id.
func (c *Client) GetMutation(ctx context.Context, apiToken, mutationID string) Result {
	return c.call(ctx, apiToken, "get_mutation", http.MethodGet, "/v1/mutation/"+mutationID, nil)
}

// ListInvoiceTemplates lists the configured invoice templates.
func (c *Client) ListInvoiceTemplates(ctx context.Context, apiToken string) Result {
	return c.call(ctx, apiToken, "get_invoice_templates", http.MethodGet, "/v1/invoicetemplate", nil)
}

// ListEmailTemplates lists the configured email templates.
func (c *Client) ListEmailTemplates(ctx context.Context, apiToken string) Result {
	return c.call(ctx, apiToken, "get_email_templates", http.MethodGet, "/v1/emailtemplate", nil)
}

// Diagnose probes session minting and the main read endpoints,
// reporting per-step outcomes.
func (c *Client) Diagnose(ctx context.Context, apiToken string) []DiagnosisStep {
	steps := make([]DiagnosisStep, 0, 4)

	_, err := c.mintSession(ctx, apiToken)
	step := DiagnosisStep{Name: "session", Success: err == nil}
	if err != nil {
		step.Error = err.Error()
	}
	steps = append(steps, step)
	if err != nil {
		return steps
	}

	for _, probe := range []struct {
		name string
		path string
	}{
		{"ledger_accounts", "/v1/ledger"},
		{"relations", "/v1/relation"},
		{"invoice_templates", "/v1/invoicetemplate"},
	} {
		res := c.call(ctx, apiToken, "diagnose."+probe.name, http.MethodGet, probe.path, nil)
		steps = append(steps, DiagnosisStep{
			Name:    probe.name,
			Success: res.Success,
			Status:  res.Status,
			Error:   res.Error,
		})
	}
	return steps
}

func (c *Client) mintSession(ctx context.Context, apiToken string) (string, error) {
	payload, err := json.Marshal(sessionRequest{Source: c.source, AccessToken: apiToken})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/session", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("session request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("session mint failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return "", fmt.Errorf("parse session response: %w", err)
	}
	if session.Token == "" {
		return "", errors.New("session response missing token")
	}
	return session.Token, nil
}

func (c *Client) call(ctx context.Context, apiToken, op, method, path string, body any) Result {
	c.log(ctx, "request", op, map[string]any{"method": method, "path": path})

	sessionToken, err := c.mintSession(ctx, apiToken)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return Result{Success: false, Status: 0, Error: err.Error()}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Result{Success: false, Status: 0, Error: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Result{Success: false, Status: 0, Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return Result{Success: false, Status: 0, Error: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	result := Result{
		Status:  resp.StatusCode,
		Success: resp.StatusCode >= 200 && resp.StatusCode < 300,
	}
	if json.Valid(raw) {
		result.Data = json.RawMessage(raw)
	} else if len(raw) > 0 {
		// Malformed bodies pass through as opaque text.
		quoted, _ := json.Marshal(string(raw))
		result.Data = json.RawMessage(quoted)
	}
	if !result.Success {
		result.Error = strings.TrimSpace(string(raw))
		if result.Error == "" {
			result.Error = resp.Status
		}
	}

	c.log(ctx, "response", op, map[string]any{"status": resp.StatusCode, "success": result.Success})
	return result
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logg == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logg.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logg.Error(ctx, fmt.Sprintf("eboekhouden %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logg.Info(ctx, fmt.Sprintf("eboekhouden %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "password"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

// DecodeData unmarshals a successful result's payload into out.
func DecodeData(res Result, out any) error {
	if !res.Success {
		return fmt.Errorf("result not successful (status %d): %s", res.Status, res.Error)
	}
	if len(res.Data) == 0 {
		return errors.New("result has no data")
	}
	return json.Unmarshal(res.Data, out)
}
