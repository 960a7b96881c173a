package backend

import "github.com/ecoeats/mealplanner/pkg/types"

// DefaultUserID is used when a request names no user.
const DefaultUserID = "me"

// Status strings returned by the write endpoints.
const (
	StatusSaved          = "saved"
	StatusCopiedAndSaved = "copied_and_saved"
	StatusApplied        = "applied"
	StatusDeleted        = "deleted"
)

// SuggestedRecipe is a recipe plus its coverage by the current inventory.
type SuggestedRecipe struct {
	types.Recipe
	MatchedItems []string `json:"matched_items"`
	MissingItems []string `json:"missing_items"`
	MatchPct     int      `json:"match_pct"`
}

// SaveResult answers PUT /mealplan.
type SaveResult struct {
	Status       string `json:"status"`
	Modified     int    `json:"modified"`
	EntriesSaved int    `json:"entries_saved"`
}
