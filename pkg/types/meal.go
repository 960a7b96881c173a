package types

import (
	"strings"

	"github.com/ecoeats/mealplanner/pkg/enums"
)

// IngredientUsage records how much of one inventory item a meal consumes.
type IngredientUsage struct {
	ID      string   `json:"id" validate:"required"`
	Name    string   `json:"name"`
	UsedQty Quantity `json:"used_qty" validate:"gte=0"`
}

// Nutrition is optional per-meal nutrition data.
type Nutrition struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fats     *float64 `json:"fats,omitempty"`
}

// MealEntry is what occupies a slot of the weekly grid.
type MealEntry struct {
	Name        string            `json:"name"`
	Type        enums.MealType    `json:"type"`
	Ingredients []IngredientUsage `json:"ingredients"`
	Nutrition   *Nutrition        `json:"nutrition,omitempty"`
}

// Clone returns a deep copy of the entry.
func (m *MealEntry) Clone() *MealEntry {
	if m == nil {
		return nil
	}
	out := *m
	out.Ingredients = append([]IngredientUsage(nil), m.Ingredients...)
	if m.Nutrition != nil {
		n := *m.Nutrition
		out.Nutrition = &n
	}
	return &out
}

// MealData is the caller's request to place a meal into a slot.
type MealData struct {
	Name        string            `json:"name" validate:"notblank"`
	Type        enums.MealType    `json:"type" validate:"required,oneof=recipe generic custom"`
	Ingredients []IngredientUsage `json:"ingredients" validate:"dive"`
	Nutrition   *Nutrition        `json:"nutrition,omitempty"`
}

// Entry converts the request into a MealEntry carrying the given usages.
func (d MealData) Entry(usages []IngredientUsage) *MealEntry {
	entry := &MealEntry{
		Name:        strings.TrimSpace(d.Name),
		Type:        d.Type,
		Ingredients: append([]IngredientUsage{}, usages...),
	}
	if d.Nutrition != nil {
		n := *d.Nutrition
		entry.Nutrition = &n
	}
	return entry
}
