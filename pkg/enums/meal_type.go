package enums

import "fmt"

// MealType records where a planned meal came from.
type MealType string

const (
	MealTypeRecipe  MealType = "recipe"
	MealTypeGeneric MealType = "generic"
	MealTypeCustom  MealType = "custom"
)

var validMealTypes = []MealType{
	MealTypeRecipe,
	MealTypeGeneric,
	MealTypeCustom,
}

// String implements fmt.Stringer.
func (m MealType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MealType.
func (m MealType) IsValid() bool {
	for _, candidate := range validMealTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMealType converts raw input into a MealType.
func ParseMealType(value string) (MealType, error) {
	for _, candidate := range validMealTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid meal type %q", value)
}
