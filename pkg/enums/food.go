package enums

import "fmt"

// FoodStatus is derived from an item's expiry date.
type FoodStatus string

const (
	FoodStatusFresh        FoodStatus = "Fresh"
	FoodStatusExpiringSoon FoodStatus = "Expiring Soon"
	FoodStatusExpired      FoodStatus = "Expired"
)

// String implements fmt.Stringer.
func (f FoodStatus) String() string {
	return string(f)
}

// FoodSource distinguishes household stock from items claimed via donation.
type FoodSource string

const (
	FoodSourceInventory FoodSource = "inventory"
	FoodSourceDonation  FoodSource = "donation"
)

var validFoodSources = []FoodSource{
	FoodSourceInventory,
	FoodSourceDonation,
}

// IsValid reports whether the value is a known FoodSource.
func (f FoodSource) IsValid() bool {
	for _, candidate := range validFoodSources {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFoodSource converts raw input into a FoodSource.
func ParseFoodSource(value string) (FoodSource, error) {
	for _, candidate := range validFoodSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid food source %q", value)
}
