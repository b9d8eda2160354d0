package enums

import "fmt"

// CustomerType tags which local table backs a billable customer.
type CustomerType string

const (
	CustomerTypeTenant   CustomerType = "tenant"
	CustomerTypeExternal CustomerType = "external"
)

var validCustomerTypes = []CustomerType{
	CustomerTypeTenant,
	CustomerTypeExternal,
}

// String implements fmt.Stringer.
func (c CustomerType) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c CustomerType) IsValid() bool {
	for _, candidate := range validCustomerTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCustomerType converts raw input into a CustomerType.
func ParseCustomerType(value string) (CustomerType, error) {
	for _, candidate := range validCustomerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer type %q", value)
}
