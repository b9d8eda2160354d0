package enums

import "fmt"

// SpaceType classifies a rentable office space.
type SpaceType string

const (
	SpaceTypeKantoor        SpaceType = "kantoorruimte"
	SpaceTypeBedrijfsruimte SpaceType = "bedrijfsruimte"
	SpaceTypeOpslag         SpaceType = "opslagruimte"
)

var validSpaceTypes = []SpaceType{
	SpaceTypeKantoor,
	SpaceTypeBedrijfsruimte,
	SpaceTypeOpslag,
}

// String implements fmt.Stringer.
func (s SpaceType) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SpaceType) IsValid() bool {
	for _, candidate := range validSpaceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSpaceType converts raw input into a SpaceType.
func ParseSpaceType(value string) (SpaceType, error) {
	for _, candidate := range validSpaceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid space type %q", value)
}
