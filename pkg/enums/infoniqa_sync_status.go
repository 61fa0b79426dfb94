package enums

import "fmt"

// InfoniqaSyncStatus flags an order for the downstream accounting sync.
// The column is nullable; NULL means the order never became eligible.
type InfoniqaSyncStatus string

const (
	InfoniqaSyncStatusPending InfoniqaSyncStatus = "pending"
	InfoniqaSyncStatusSuccess InfoniqaSyncStatus = "success"
	InfoniqaSyncStatusFailed  InfoniqaSyncStatus = "failed"
)

var validInfoniqaSyncStatuses = []InfoniqaSyncStatus{
	InfoniqaSyncStatusPending,
	InfoniqaSyncStatusSuccess,
	InfoniqaSyncStatusFailed,
}

// String implements fmt.Stringer.
func (s InfoniqaSyncStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InfoniqaSyncStatus.
func (s InfoniqaSyncStatus) IsValid() bool {
	for _, candidate := range validInfoniqaSyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInfoniqaSyncStatus converts raw input into an InfoniqaSyncStatus.
func ParseInfoniqaSyncStatus(value string) (InfoniqaSyncStatus, error) {
	for _, candidate := range validInfoniqaSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid infoniqa sync status %q", value)
}
