package enums

import "fmt"

// PackStatus maps to the pack_status enum in Postgres.
type PackStatus string

const (
	PackDraft     PackStatus = "draft"
	PackPublished PackStatus = "published"
	PackDelisted  PackStatus = "delisted"
)

var validPackStatuses = []PackStatus{
	PackDraft,
	PackPublished,
	PackDelisted,
}

// IsValid reports whether the value matches the canonical pack_status enum.
func (s PackStatus) IsValid() bool {
	for _, candidate := range validPackStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePackStatus converts raw input into PackStatus.
func ParsePackStatus(value string) (PackStatus, error) {
	for _, candidate := range validPackStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pack status %q", value)
}
