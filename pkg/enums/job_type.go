package enums

import "fmt"

// JobType identifies a scheduled job handler.
type JobType string

const (
	JobTypeMonthlyLeaseInvoicing   JobType = "monthly_lease_invoicing"
	JobTypeMeetingRoomInvoicing    JobType = "meeting_room_invoicing"
	JobTypeFlexDeskInvoicing       JobType = "flex_desk_invoicing"
	JobTypePaymentStatusCheck      JobType = "payment_status_check"
	JobTypeInvoiceSyncVerification JobType = "invoice_sync_verification"
	JobTypeRelationVerification    JobType = "relation_verification"
)

var validJobTypes = []JobType{
	JobTypeMonthlyLeaseInvoicing,
	JobTypeMeetingRoomInvoicing,
	JobTypeFlexDeskInvoicing,
	JobTypePaymentStatusCheck,
	JobTypeInvoiceSyncVerification,
	JobTypeRelationVerification,
}

// String implements fmt.Stringer.
func (j JobType) String() string {
	return string(j)
}

// IsValid reports whether the value is known.
func (j JobType) IsValid() bool {
	for _, candidate := range validJobTypes {
		if candidate == j {
			return true
		}
	}
	return false
}

// Monthly reports whether the job advances to the first of next month
// after a run; other jobs advance by a fixed interval.
func (j JobType) Monthly() bool {
	switch j {
	case JobTypeMonthlyLeaseInvoicing, JobTypeMeetingRoomInvoicing, JobTypeFlexDeskInvoicing:
		return true
	}
	return false
}

// ParseJobType converts raw input into a JobType.
func ParseJobType(value string) (JobType, error) {
	for _, candidate := range validJobTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job type %q", value)
}

// JobTypes returns all known job types in registration order.
func JobTypes() []JobType {
	out := make([]JobType, len(validJobTypes))
	copy(out, validJobTypes)
	return out
}
