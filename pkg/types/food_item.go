package types

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/ecoeats/mealplanner/pkg/enums"
)

// expiringSoonDays is how close to expiry an item counts as expiring soon.
const expiringSoonDays = 3

// FoodItem is one inventory entry as returned by GET /inventory.
type FoodItem struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Expiry   string           `json:"expiry,omitempty"`
	Category string           `json:"category,omitempty"`
	Storage  string           `json:"storage,omitempty"`
	Quantity Quantity         `json:"quantity"`
	Reserved bool             `json:"reserved,omitempty"`
	Notes    string           `json:"notes,omitempty"`
	Source   enums.FoodSource `json:"source,omitempty"`
}

// UnmarshalJSON accepts either "id" or "_id" for the identifier.
func (f *FoodItem) UnmarshalJSON(data []byte) error {
	type alias FoodItem
	var raw struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = FoodItem(raw.alias)
	if f.ID == "" {
		f.ID = raw.MongoID
	}
	if f.Source == "" {
		f.Source = enums.FoodSourceInventory
	}
	return nil
}

// InStock reports whether any of the item is left.
func (f FoodItem) InStock() bool {
	return f.Quantity.IsPositive()
}

// Status derives freshness from the expiry date relative to now. Missing or
// unparseable dates count as fresh.
func (f FoodItem) Status(now time.Time) enums.FoodStatus {
	expiry, ok := parseExpiry(f.Expiry, now.Location())
	if !ok {
		return enums.FoodStatusFresh
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(math.Round(expiry.Sub(today).Hours() / 24))
	switch {
	case expiry.Before(today):
		return enums.FoodStatusExpired
	case days <= expiringSoonDays:
		return enums.FoodStatusExpiringSoon
	default:
		return enums.FoodStatusFresh
	}
}

func parseExpiry(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.In(loc)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}
