package eboekhouden

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Relation types as the ledger API encodes them.
const (
	RelationTypeBusiness = "B"
	RelationTypePrivate  = "P"
)

// Result is the uniform envelope every client call returns. Success is
// true for 2xx statuses; non-2xx responses are reported here rather
// than as Go errors, so callers must check Success.
type Result struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type sessionRequest struct {
	Source      string `json:"source"`
	AccessToken string `json:"accessToken"`
}

type sessionResponse struct {
	Token string `json:"token"`
}

// Relation is a customer or supplier record in the ledger.
type Relation struct {
	ID          int64  `json:"id,omitempty"`
	Code        string `json:"code,omitempty"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	ContactName string `json:"contactName,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Street      string `json:"address,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	VATNumber   string `json:"vatNumber,omitempty"`
}

// InvoiceLine is one line on an outbound ledger invoice.
type InvoiceLine struct {
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	PricePerUnit    decimal.Decimal `json:"pricePerUnit"`
	VATCode         string          `json:"vatCode,omitempty"`
	LedgerAccountID string          `json:"ledgerId"`
}

// InvoiceRequest creates an invoice against a relation.
type InvoiceRequest struct {
	RelationID      int64         `json:"relationId"`
	Date            string        `json:"date"` // YYYY-MM-DD
	TermOfPayment   int           `json:"termOfPayment"`
	InvoiceTemplate string        `json:"templateId,omitempty"`
	EmailTemplate   string        `json:"emailTemplateId,omitempty"`
	Reference       string        `json:"reference,omitempty"`
	VATInclusive    bool          `json:"vatInclusive"`
	Lines           []InvoiceLine `json:"lines"`
}

// Invoice is the ledger's view of an invoice, as returned by a fetch.
type Invoice struct {
	ID         int64           `json:"id"`
	Number     string          `json:"number,omitempty"`
	RelationID int64           `json:"relationId"`
	Total      decimal.Decimal `json:"total"`
	OpenAmount decimal.Decimal `json:"openAmount"`
}

// MutationRow is one posting row on a mutation.
type MutationRow struct {
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	VATCode         string          `json:"vatCode,omitempty"`
	LedgerAccountID string          `json:"ledgerId"`
}

// MutationRequest posts a non-invoice financial transaction, used for
// purchase invoices.
type MutationRequest struct {
	Type        string          `json:"type"`
	Date        string          `json:"date"` // YYYY-MM-DD
	RelationID  int64           `json:"relationId"`
	InvoiceNr   string          `json:"invoiceNumber,omitempty"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Rows        []MutationRow   `json:"rows"`
}

// Mutation is the ledger's view of a posted mutation.
type Mutation struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	RelationID int64           `json:"relationId"`
	Amount     decimal.Decimal `json:"amount"`
	OpenAmount decimal.Decimal `json:"openAmount"`
}

// LedgerAccount is one chart-of-accounts entry.
type LedgerAccount struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"description"`
	Category string `json:"category,omitempty"`
}

// Template is an invoice or email template reference.
type Template struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DiagnosisStep is one probe in a connection diagnosis.
type DiagnosisStep struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Error   string `json:"error,omitempty"`
}
