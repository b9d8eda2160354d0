package enums

import "fmt"

// SyncEntityType names the local record kind a sync attempt concerns.
type SyncEntityType string

const (
	SyncEntityRelation        SyncEntityType = "relation"
	SyncEntityInvoice         SyncEntityType = "invoice"
	SyncEntityCreditNote      SyncEntityType = "credit_note"
	SyncEntityPurchaseInvoice SyncEntityType = "purchase_invoice"
)

var validSyncEntityTypes = []SyncEntityType{
	SyncEntityRelation,
	SyncEntityInvoice,
	SyncEntityCreditNote,
	SyncEntityPurchaseInvoice,
}

// String implements fmt.Stringer.
func (s SyncEntityType) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SyncEntityType) IsValid() bool {
	for _, candidate := range validSyncEntityTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// SyncAction names what a sync attempt tried to do.
type SyncAction string

const (
	SyncActionCreate       SyncAction = "create"
	SyncActionUpdate       SyncAction = "update"
	SyncActionVerify       SyncAction = "verify"
	SyncActionPaymentCheck SyncAction = "payment_check"
)

var validSyncActions = []SyncAction{
	SyncActionCreate,
	SyncActionUpdate,
	SyncActionVerify,
	SyncActionPaymentCheck,
}

// String implements fmt.Stringer.
func (s SyncAction) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SyncAction) IsValid() bool {
	for _, candidate := range validSyncActions {
		if candidate == s {
			return true
		}
	}
	return false
}

// SyncStatus is the outcome recorded on a sync log row.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusError   SyncStatus = "error"
)

// String implements fmt.Stringer.
func (s SyncStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SyncStatus) IsValid() bool {
	return s == SyncStatusSuccess || s == SyncStatusError
}

// ParseSyncEntityType converts raw input into a SyncEntityType.
func ParseSyncEntityType(value string) (SyncEntityType, error) {
	for _, candidate := range validSyncEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync entity type %q", value)
}
