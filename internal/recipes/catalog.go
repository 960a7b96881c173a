package recipes

import (
	"strings"
	"sync"

	"github.com/ecoeats/mealplanner/pkg/types"
)

// Catalog holds the suggested, generic and user-authored recipe lists. Each
// list is replaced wholesale on load; recipes are never edited in place.
type Catalog struct {
	mu        sync.RWMutex
	suggested []types.Recipe
	generic   []types.Recipe
	custom    []types.Recipe
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// ReplaceSuggested swaps the suggested list.
func (c *Catalog) ReplaceSuggested(recipes []types.Recipe) {
	copied := cloneRecipes(recipes)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggested = copied
}

// ReplaceGeneric swaps the generic list.
func (c *Catalog) ReplaceGeneric(recipes []types.Recipe) {
	copied := cloneRecipes(recipes)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generic = copied
}

// ReplaceCustom swaps the user's own recipes.
func (c *Catalog) ReplaceCustom(recipes []types.Recipe) {
	copied := cloneRecipes(recipes)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.custom = copied
}

func (c *Catalog) Suggested() []types.Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRecipes(c.suggested)
}

func (c *Catalog) Generic() []types.Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRecipes(c.generic)
}

func (c *Catalog) Custom() []types.Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRecipes(c.custom)
}

// Find looks a recipe up by name, case-insensitively, in suggested, generic
// then custom order.
func (c *Catalog) Find(name string) (types.Recipe, bool) {
	target := strings.TrimSpace(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, list := range [][]types.Recipe{c.suggested, c.generic, c.custom} {
		for _, recipe := range list {
			if strings.EqualFold(recipe.Name, target) {
				return recipe.Clone(), true
			}
		}
	}
	return types.Recipe{}, false
}

func cloneRecipes(recipes []types.Recipe) []types.Recipe {
	out := make([]types.Recipe, 0, len(recipes))
	for _, recipe := range recipes {
		out = append(out, recipe.Clone())
	}
	return out
}
