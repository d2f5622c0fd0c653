package enums

import "fmt"

// PurchasableKind distinguishes what an order line item points at.
type PurchasableKind string

const (
	PurchasablePack   PurchasableKind = "pack"
	PurchasableSample PurchasableKind = "sample"
)

var validPurchasableKinds = []PurchasableKind{
	PurchasablePack,
	PurchasableSample,
}

// IsValid reports whether the value matches the purchasable_kind enum.
func (k PurchasableKind) IsValid() bool {
	for _, candidate := range validPurchasableKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParsePurchasableKind converts raw input into PurchasableKind.
func ParsePurchasableKind(value string) (PurchasableKind, error) {
	for _, candidate := range validPurchasableKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchasable kind %q", value)
}
