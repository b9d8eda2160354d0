package sync

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenwerk/verhuur-backend/pkg/db/models"
	"github.com/havenwerk/verhuur-backend/pkg/eboekhouden"
	"github.com/havenwerk/verhuur-backend/pkg/enums"
	pkgerrors "github.com/havenwerk/verhuur-backend/pkg/errors"
)

// CustomerRef is a tagged reference to either a tenant or an external
// customer. The zero value is invalid.
type CustomerRef struct {
	Type enums.CustomerType
	ID   uuid.UUID
}

// Validate rejects incomplete references.
func (r CustomerRef) Validate() error {
	if !r.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid customer type")
	}
	if r.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	return nil
}

// LedgerClient is the slice of the e-Boekhouden client the sync engine
// uses.
type LedgerClient interface {
	TestConnection(ctx context.Context, apiToken string) eboekhouden.Result
	GetRelation(ctx context.Context, apiToken, relationID string) eboekhouden.Result
	CreateRelation(ctx context.Context, apiToken string, relation eboekhouden.Relation) eboekhouden.Result
	UpdateRelation(ctx context.Context, apiToken, relationID string, relation eboekhouden.Relation) eboekhouden.Result
	CreateInvoice(ctx context.Context, apiToken string, req eboekhouden.InvoiceRequest) eboekhouden.Result
	GetInvoice(ctx context.Context, apiToken, invoiceID string) eboekhouden.Result
	CreateMutation(ctx context.Context, apiToken string, req eboekhouden.MutationRequest) eboekhouden.Result
	GetMutation(ctx context.Context, apiToken, mutationID string) eboekhouden.Result
	Diagnose(ctx context.Context, apiToken string) []eboekhouden.DiagnosisStep
}

// MappingRepository defines persistence for grootboek mappings.
type MappingRepository interface {
	WithTx(tx *gorm.DB) MappingRepository
	Upsert(ctx context.Context, mapping *models.GrootboekMapping) (*models.GrootboekMapping, error)
	FindByCategory(ctx context.Context, category string) (*models.GrootboekMapping, error)
	List(ctx context.Context) ([]models.GrootboekMapping, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SyncLogRepository appends and lists sync audit rows. Entries are
// append-only; there is no update or delete path.
type SyncLogRepository interface {
	WithTx(tx *gorm.DB) SyncLogRepository
	Append(ctx context.Context, entry *models.SyncLogEntry) error
	List(ctx context.Context, filters SyncLogFilters) ([]models.SyncLogEntry, error)
}

// SyncLogFilters narrows a sync log listing.
type SyncLogFilters struct {
	EntityType *enums.SyncEntityType
	EntityID   *uuid.UUID
	Status     *enums.SyncStatus
	Limit      int
}

func rawJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
