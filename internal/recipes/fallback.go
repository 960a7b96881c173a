package recipes

import "github.com/ecoeats/mealplanner/pkg/types"

func recipe(name string, ingredients ...string) types.Recipe {
	out := types.Recipe{Name: name, Ingredients: make([]types.Ingredient, 0, len(ingredients))}
	for _, ing := range ingredients {
		out.Ingredients = append(out.Ingredients, types.Ingredient{Name: ing})
	}
	return out
}

// FallbackGeneric is served when the generic recipe endpoint fails and no
// earlier copy is available.
func FallbackGeneric() []types.Recipe {
	return []types.Recipe{
		recipe("Basic Pasta", "Pasta Packs", "Olive Oil", "Garlics"),
		recipe("Scrambled Eggs", "Eggs", "Butter", "Salt"),
		recipe("Rice Bowl", "Rice", "Eggs", "Soy Sauce"),
		recipe("Veg Soup", "Carrots", "Potatoes", "Onions", "Salt"),
		recipe("Fruit Salad", "Apples", "Bananas", "Oranges", "Yogurts"),
		recipe("Butter Toast", "Bread Loaves", "Butter"),
		recipe("Cheese Toast", "Bread Loaves", "Cheese"),
		recipe("Garlic Toast", "Bread Loaves", "Garlics", "Butter"),
		recipe("Olive Oil Pasta", "Pasta Packs", "Olive Oil"),
		recipe("Boiled Eggs", "Eggs", "Salt"),
		recipe("Honey Yogurt Cup", "Yogurts", "Honey"),
		recipe("Broccoli Bowl", "Broccolis", "Salt"),
	}
}

// FallbackSuggested is served when the suggested recipe endpoint fails and no
// earlier copy is available.
func FallbackSuggested() []types.Recipe {
	return []types.Recipe{
		recipe("Chicken Stir Fry", "Chicken Breasts", "Carrots", "Broccolis", "Soy Sauce", "Olive Oil"),
		recipe("Egg Fried Rice", "Eggs", "Rice", "Soy Sauce", "Cooking Oil", "Carrots"),
		recipe("Cheese Omelette", "Eggs", "Cheese", "Butter", "Salt"),
		recipe("Garlic Butter Shrimp", "Shrimp Packs", "Garlics", "Butter", "Lemons"),
		recipe("Baked Salmon", "Salmon Fillets", "Olive Oil", "Lemons", "Salt"),
		recipe("Banana Smoothie", "Bananas", "Milk", "Yogurts", "Honey"),
		recipe("Veggie Bowl", "Carrots", "Broccolis", "Onions", "Cooking Oil"),
		recipe("Garlic Rice", "Rice", "Garlics", "Olive Oil", "Salt"),
		recipe("Cheesy Pasta", "Pasta Packs", "Cheese", "Butter", "Salt"),
		recipe("Fruit Yogurt Bowl", "Apples", "Bananas", "Yogurts", "Honey"),
		recipe("Orange Lemon Juice", "Oranges", "Lemons"),
		recipe("Chicken Soup", "Chicken Breasts", "Carrots", "Onions", "Garlics"),
	}
}
