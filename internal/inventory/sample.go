package inventory

import (
	"github.com/ecoeats/mealplanner/pkg/enums"
	"github.com/ecoeats/mealplanner/pkg/types"
)

// SampleItems is the built-in inventory shown when nothing better can be
// loaded. The stub backend seeds itself with the same list.
func SampleItems() []types.FoodItem {
	return []types.FoodItem{
		{ID: "a1", Name: "Chicken Breast", Quantity: types.NewQuantity(2), Category: "Meat", Storage: "Fridge", Source: enums.FoodSourceInventory},
		{ID: "a2", Name: "Broccoli", Quantity: types.NewQuantity(1), Category: "Vegetables", Storage: "Fridge", Source: enums.FoodSourceInventory},
		{ID: "a3", Name: "Pasta", Quantity: types.NewQuantity(1), Category: "Grains", Storage: "Pantry", Source: enums.FoodSourceInventory},
		{ID: "a4", Name: "Eggs", Quantity: types.NewQuantity(12), Category: "Dairy", Storage: "Fridge", Source: enums.FoodSourceInventory},
		{ID: "a5", Name: "Tomato", Quantity: types.NewQuantity(5), Category: "Vegetables", Storage: "Counter", Source: enums.FoodSourceInventory},
	}
}
