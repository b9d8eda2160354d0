package enums

import "fmt"

// LeaseType distinguishes how a lease is priced.
type LeaseType string

const (
	LeaseTypeFullTime LeaseType = "full_time"
	LeaseTypePartTime LeaseType = "part_time"
	LeaseTypeFlex     LeaseType = "flex"
)

var validLeaseTypes = []LeaseType{
	LeaseTypeFullTime,
	LeaseTypePartTime,
	LeaseTypeFlex,
}

// String implements fmt.Stringer.
func (l LeaseType) String() string {
	return string(l)
}

// IsValid reports whether the value is known.
func (l LeaseType) IsValid() bool {
	for _, candidate := range validLeaseTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLeaseType converts raw input into a LeaseType.
func ParseLeaseType(value string) (LeaseType, error) {
	for _, candidate := range validLeaseTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lease type %q", value)
}
