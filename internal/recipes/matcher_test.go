package recipes

import (
	"reflect"
	"testing"

	"github.com/ecoeats/mealplanner/pkg/types"
)

func pantry() []types.FoodItem {
	return []types.FoodItem{
		{ID: "a1", Name: "Chicken Breast", Quantity: types.NewQuantity(2)},
		{ID: "a2", Name: "Broccoli", Quantity: types.NewQuantity(1)},
		{ID: "a3", Name: "Pasta", Quantity: types.NewQuantity(1)},
		{ID: "a4", Name: "Eggs", Quantity: types.NewQuantity(12)},
		{ID: "a5", Name: "Tomato", Quantity: types.NewQuantity(5)},
		{ID: "a6", Name: "Whole Milk", Quantity: types.ZeroQuantity},
	}
}

func expectKeywords(t *testing.T, label string, got, want []string) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%s: expected %v, got %v", label, want, got)
	}
}

func expectNames(t *testing.T, results []MatchResult, want ...string) {
	t.Helper()
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, name := range want {
		if results[i].Name != name {
			t.Fatalf("result %d: expected %q, got %q", i, name, results[i].Name)
		}
	}
}

func TestMatchOmeletteScoresOneThird(t *testing.T) {
	result := NewMatcher().Match(recipe("Omelette", "Eggs", "Milk", "Salt"), pantry())

	if result.Name != "Omelette" {
		t.Fatalf("unexpected name %q", result.Name)
	}
	expectKeywords(t, "available", result.Available, []string{"eggs"})
	expectKeywords(t, "missing", result.Missing, []string{"milk", "salt"})
	if result.Percent != 33 {
		t.Fatalf("expected 33%%, got %d", result.Percent)
	}
}

func TestMatchWithoutIngredientsScoresZero(t *testing.T) {
	result := NewMatcher().Match(types.Recipe{Name: "Air"}, pantry())
	if result.Percent != 0 || len(result.Available) != 0 || len(result.Missing) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Available == nil || result.Missing == nil {
		t.Fatalf("keyword lists should be empty, not nil")
	}
}

func TestMatchAllAvailableScoresHundred(t *testing.T) {
	result := NewMatcher().Match(recipe("Pasta Night", "pasta", "TOMATO", "broccoli"), pantry())
	if result.Percent != 100 || len(result.Missing) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestMatchRoundsHalfUp(t *testing.T) {
	result := NewMatcher().Match(recipe("Stir Fry", "Chicken", "Broccoli", "Soy Sauce"), pantry())
	if result.Percent != 67 {
		t.Fatalf("expected 67%%, got %d", result.Percent)
	}
}

func TestMatchSkipsNamelessIngredientsByKeyword(t *testing.T) {
	structured := types.Recipe{Name: "Eggs and something", Ingredients: []types.Ingredient{
		{ID: "a4", Name: "Eggs"},
		{ID: "a9"},
		{Name: "   "},
	}}

	result := NewMatcher().Match(structured, pantry())
	expectKeywords(t, "available", result.Available, []string{"eggs"})
	expectKeywords(t, "missing", result.Missing, nil)
	if result.Percent != 100 {
		t.Fatalf("expected 100%%, got %d", result.Percent)
	}
}

func TestMatchByIDLabelsNamelessIngredientsWithID(t *testing.T) {
	structured := types.Recipe{Name: "Eggs and something", Ingredients: []types.Ingredient{
		{ID: "a4"},
		{ID: "a9"},
		{Name: "   "},
	}}

	result := NewMatcher(WithResolver(IDResolver{})).Match(structured, pantry())
	expectKeywords(t, "available", result.Available, []string{"a4"})
	expectKeywords(t, "missing", result.Missing, []string{"a9"})
	if result.Percent != 50 {
		t.Fatalf("expected 50%%, got %d", result.Percent)
	}
}

func TestSuggestedHidesLowMatchesUnlessNothingClears(t *testing.T) {
	catalog := []types.Recipe{
		recipe("Low", "Salt", "Pepper", "Butter", "Eggs", "Flour"),
		recipe("High", "Eggs", "Pasta"),
		recipe("Mid", "Eggs", "Salt"),
	}
	expectNames(t, NewMatcher().Suggested(catalog, pantry()), "High", "Mid")

	none := NewMatcher().Suggested([]types.Recipe{recipe("Nope", "Salt"), recipe("Zero")}, pantry())
	expectNames(t, none, "Nope", "Zero")
}

func TestThresholdIsConfigurable(t *testing.T) {
	catalog := []types.Recipe{recipe("Half", "Eggs", "Salt"), recipe("Full", "Eggs")}
	expectNames(t, NewMatcher(WithThreshold(50)).Suggested(catalog, pantry()), "Full")
}

func TestGenericNeverFilters(t *testing.T) {
	results := NewMatcher().Generic(FallbackGeneric(), pantry())
	if len(results) != len(FallbackGeneric()) {
		t.Fatalf("expected %d results, got %d", len(FallbackGeneric()), len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Percent < results[i].Percent {
			t.Fatalf("results not sorted at %d: %d < %d", i, results[i-1].Percent, results[i].Percent)
		}
	}
}

func TestOutOfStockItemsDoNotCount(t *testing.T) {
	if got := NewMatcher().Match(recipe("Latte", "Milk"), pantry()).Percent; got != 0 {
		t.Fatalf("expected 0%%, got %d", got)
	}
}

func TestIDResolver(t *testing.T) {
	structured := types.Recipe{Name: "Eggs on toast", Ingredients: []types.Ingredient{
		{ID: "a4", Name: "Eggs"},
		{ID: "zz", Name: "Bread"},
	}}
	result := NewMatcher(WithResolver(IDResolver{})).Match(structured, pantry())
	expectKeywords(t, "available", result.Available, []string{"eggs"})
	expectKeywords(t, "missing", result.Missing, []string{"bread"})
	if result.Percent != 50 {
		t.Fatalf("expected 50%%, got %d", result.Percent)
	}
}

func TestProposeUsageMatchesBothDirections(t *testing.T) {
	items := append(pantry(), types.FoodItem{ID: "a4", Name: "Eggs", Quantity: types.NewQuantity(3)})
	usages := ProposeUsage(recipe("Chicken Stir Fry", "Chicken Breasts", "Broccolis", "Eggs", "Milk"), items)

	if len(usages) != 3 {
		t.Fatalf("expected 3 usages, got %d", len(usages))
	}
	for i, id := range []string{"a1", "a2", "a4"} {
		if usages[i].ID != id {
			t.Fatalf("usage %d: expected %s, got %s", i, id, usages[i].ID)
		}
		if !usages[i].UsedQty.Equal(types.NewQuantity(1)) {
			t.Fatalf("usage %d: expected one unit, got %s", i, usages[i].UsedQty)
		}
	}
}

func TestProposeUsageCapsAtAvailable(t *testing.T) {
	items := []types.FoodItem{{ID: "h1", Name: "Honey", Quantity: types.QuantityFromFloat(0.5)}}
	usages := ProposeUsage(recipe("Honey Yogurt Cup", "Yogurts", "Honey"), items)
	if len(usages) != 1 || usages[0].UsedQty.String() != "0.5" {
		t.Fatalf("unexpected usages %+v", usages)
	}
}
