package mealplan

import (
	"github.com/ecoeats/mealplanner/pkg/enums"
	"github.com/ecoeats/mealplanner/pkg/types"
)

// CountMeals returns the number of occupied slots.
func CountMeals(plan *types.WeekPlan) int {
	if plan == nil {
		return 0
	}
	return plan.Meals.Count()
}

// WeeklyUsage totals the recorded usage per food item id across the week.
func WeeklyUsage(plan *types.WeekPlan) map[string]types.Quantity {
	totals := make(map[string]types.Quantity)
	if plan == nil {
		return totals
	}
	plan.Meals.Each(func(_ enums.Day, _ enums.MealSlot, entry *types.MealEntry) {
		if entry == nil {
			return
		}
		for _, usage := range entry.Ingredients {
			if usage.ID == "" {
				continue
			}
			totals[usage.ID] = totals[usage.ID].Add(usage.UsedQty)
		}
	})
	return totals
}
