package recipes

import (
	"math"
	"sort"
	"strings"

	"github.com/ecoeats/mealplanner/pkg/types"
)

// DefaultThreshold is the percent a suggested recipe must exceed to be shown.
const DefaultThreshold = 20

// Resolver decides whether an ingredient is covered by the inventory.
type Resolver interface {
	Resolve(ing types.Ingredient, items []types.FoodItem) bool
}

// Labeler names an ingredient in match results. Resolvers that do not
// implement it are labelled by ingredient name.
type Labeler interface {
	Label(ing types.Ingredient) string
}

// SubstringResolver treats an ingredient as available when an in-stock item's
// name contains the ingredient keyword, ignoring case.
type SubstringResolver struct{}

func (SubstringResolver) Resolve(ing types.Ingredient, items []types.FoodItem) bool {
	keyword := strings.ToLower(strings.TrimSpace(ing.Name))
	if keyword == "" {
		return false
	}
	for _, item := range items {
		if item.InStock() && strings.Contains(strings.ToLower(item.Name), keyword) {
			return true
		}
	}
	return false
}

// Label is the lowercased ingredient name. A nameless ingredient has no
// keyword to search for and is left out of the score.
func (SubstringResolver) Label(ing types.Ingredient) string {
	return strings.ToLower(strings.TrimSpace(ing.Name))
}

// IDResolver matches structured ingredients that reference an inventory id.
type IDResolver struct{}

func (IDResolver) Resolve(ing types.Ingredient, items []types.FoodItem) bool {
	id := strings.TrimSpace(ing.ID)
	if id == "" {
		return false
	}
	for _, item := range items {
		if item.InStock() && item.ID == id {
			return true
		}
	}
	return false
}

// Label prefers the ingredient name and falls back to its id.
func (IDResolver) Label(ing types.Ingredient) string {
	if name := strings.ToLower(strings.TrimSpace(ing.Name)); name != "" {
		return name
	}
	return strings.TrimSpace(ing.ID)
}

// MatchResult scores one recipe against the inventory.
type MatchResult struct {
	Name      string   `json:"name"`
	Available []string `json:"available"`
	Missing   []string `json:"missing"`
	Percent   int      `json:"percent"`
}

// Matcher scores recipes against inventory snapshots.
type Matcher struct {
	resolver  Resolver
	threshold int
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithResolver swaps the availability rule.
func WithResolver(r Resolver) MatcherOption {
	return func(m *Matcher) {
		if r != nil {
			m.resolver = r
		}
	}
}

// WithThreshold sets the percent a suggested recipe must exceed.
func WithThreshold(percent int) MatcherOption {
	return func(m *Matcher) {
		if percent >= 0 && percent <= 100 {
			m.threshold = percent
		}
	}
}

// NewMatcher builds a matcher using substring matching and the default
// threshold unless overridden.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{resolver: SubstringResolver{}, threshold: DefaultThreshold}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Match scores a single recipe. Keywords keep recipe order; ingredients the
// resolver cannot label are skipped, and a recipe with none left scores 0.
func (m *Matcher) Match(recipe types.Recipe, items []types.FoodItem) MatchResult {
	result := MatchResult{
		Name:      recipe.Name,
		Available: []string{},
		Missing:   []string{},
	}
	for _, ing := range recipe.Ingredients {
		keyword := m.label(ing)
		if keyword == "" {
			continue
		}
		if m.resolver.Resolve(ing, items) {
			result.Available = append(result.Available, keyword)
		} else {
			result.Missing = append(result.Missing, keyword)
		}
	}
	total := len(result.Available) + len(result.Missing)
	if total == 0 {
		return result
	}
	result.Percent = int(math.Round(100 * float64(len(result.Available)) / float64(total)))
	return result
}

func (m *Matcher) label(ing types.Ingredient) string {
	if l, ok := m.resolver.(Labeler); ok {
		return l.Label(ing)
	}
	return strings.ToLower(strings.TrimSpace(ing.Name))
}

// Score matches every recipe and sorts by percent descending. Ties keep
// catalog order.
func (m *Matcher) Score(recipes []types.Recipe, items []types.FoodItem) []MatchResult {
	results := make([]MatchResult, 0, len(recipes))
	for _, recipe := range recipes {
		results = append(results, m.Match(recipe, items))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Percent > results[j].Percent
	})
	return results
}

// Suggested hides recipes at or below the threshold. When nothing clears it
// the whole sorted list is returned so the list is never empty for a
// non-empty catalog.
func (m *Matcher) Suggested(recipes []types.Recipe, items []types.FoodItem) []MatchResult {
	scored := m.Score(recipes, items)
	visible := make([]MatchResult, 0, len(scored))
	for _, result := range scored {
		if result.Percent > m.threshold {
			visible = append(visible, result)
		}
	}
	if len(visible) == 0 {
		return scored
	}
	return visible
}

// Generic scores and sorts without filtering.
func (m *Matcher) Generic(recipes []types.Recipe, items []types.FoodItem) []MatchResult {
	return m.Score(recipes, items)
}

// ProposeUsage builds the default usage list for a recipe-based meal: every
// in-stock item whose name and some keyword contain one another, once per
// id, using one unit or whatever is left when less.
func ProposeUsage(recipe types.Recipe, items []types.FoodItem) []types.IngredientUsage {
	keywords := recipe.Keywords()
	one := types.NewQuantity(1)
	seen := make(map[string]struct{}, len(items))
	usages := make([]types.IngredientUsage, 0)

	for _, item := range items {
		name := strings.ToLower(strings.TrimSpace(item.Name))
		if item.ID == "" || name == "" || !item.InStock() {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(name, kw) || strings.Contains(kw, name) {
				seen[item.ID] = struct{}{}
				usages = append(usages, types.IngredientUsage{
					ID:      item.ID,
					Name:    item.Name,
					UsedQty: one.Min(item.Quantity),
				})
				break
			}
		}
	}
	return usages
}
