package types

import (
	"encoding/json"
	"strings"
)

// Ingredient is one keyword of a recipe, optionally with a free-text amount.
type Ingredient struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
}

// Recipe is a named, ordered list of ingredient keywords.
type Recipe struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
}

// UnmarshalJSON accepts "_id" and the legacy "defaultIngredients" field used
// by the generic recipe collection.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type alias Recipe
	var raw struct {
		alias
		MongoID            string       `json:"_id"`
		DefaultIngredients []Ingredient `json:"defaultIngredients"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Recipe(raw.alias)
	if r.ID == "" {
		r.ID = raw.MongoID
	}
	if len(r.Ingredients) == 0 && len(raw.DefaultIngredients) > 0 {
		r.Ingredients = raw.DefaultIngredients
	}
	return nil
}

// Keywords returns the lower-cased, trimmed ingredient names in recipe order.
// Blank names are skipped.
func (r Recipe) Keywords() []string {
	keywords := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		kw := strings.ToLower(strings.TrimSpace(ing.Name))
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
	}
	return keywords
}

// Clone returns a copy that shares no slices with r.
func (r Recipe) Clone() Recipe {
	out := r
	out.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	return out
}
