package enums

import "fmt"

// EntityStatus models the lifecycle of soft-deletable records. Retired rows
// stay in place for audit history but are excluded from active listings.
type EntityStatus string

const (
	EntityStatusActive  EntityStatus = "active"
	EntityStatusRetired EntityStatus = "retired"
)

var validEntityStatuses = []EntityStatus{
	EntityStatusActive,
	EntityStatusRetired,
}

// String implements fmt.Stringer.
func (s EntityStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EntityStatus.
func (s EntityStatus) IsValid() bool {
	for _, candidate := range validEntityStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsActive reports whether the record is in the active state.
func (s EntityStatus) IsActive() bool {
	return s == EntityStatusActive
}

// ParseEntityStatus converts raw input into an EntityStatus.
func ParseEntityStatus(value string) (EntityStatus, error) {
	for _, candidate := range validEntityStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity status %q", value)
}
