package enums

import (
	"fmt"
	"strings"
)

// MealSlot is one of the four meal occasions of a day.
type MealSlot string

const (
	MealSlotBreakfast MealSlot = "breakfast"
	MealSlotLunch     MealSlot = "lunch"
	MealSlotDinner    MealSlot = "dinner"
	MealSlotSnacks    MealSlot = "snacks"
)

// MealSlots lists the slots in display order.
var MealSlots = []MealSlot{
	MealSlotBreakfast,
	MealSlotLunch,
	MealSlotDinner,
	MealSlotSnacks,
}

// String implements fmt.Stringer.
func (s MealSlot) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MealSlot.
func (s MealSlot) IsValid() bool {
	for _, candidate := range MealSlots {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMealSlot converts raw input into a MealSlot.
func ParseMealSlot(value string) (MealSlot, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "snack" {
		normalized = string(MealSlotSnacks)
	}
	for _, candidate := range MealSlots {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid meal slot %q", value)
}
