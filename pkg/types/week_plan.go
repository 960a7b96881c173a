package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ecoeats/mealplanner/pkg/enums"
)

// DayMeals holds the four slots of one day. A nil slot is empty.
type DayMeals struct {
	Breakfast *MealEntry `json:"breakfast"`
	Lunch     *MealEntry `json:"lunch"`
	Dinner    *MealEntry `json:"dinner"`
	Snacks    *MealEntry `json:"snacks"`
}

func (d *DayMeals) slotRef(slot enums.MealSlot) **MealEntry {
	switch slot {
	case enums.MealSlotBreakfast:
		return &d.Breakfast
	case enums.MealSlotLunch:
		return &d.Lunch
	case enums.MealSlotDinner:
		return &d.Dinner
	case enums.MealSlotSnacks:
		return &d.Snacks
	default:
		return nil
	}
}

// WeekMeals is the 7 x 4 grid, Monday first. It always has every day and
// every slot, so partially filled documents decode into a full grid.
type WeekMeals [7]DayMeals

// Get returns the entry at day/slot, or nil when empty or out of range.
func (w *WeekMeals) Get(day enums.Day, slot enums.MealSlot) *MealEntry {
	idx := day.Index()
	if idx < 0 {
		return nil
	}
	ref := w[idx].slotRef(slot)
	if ref == nil {
		return nil
	}
	return *ref
}

// Set places entry (nil clears) at day/slot.
func (w *WeekMeals) Set(day enums.Day, slot enums.MealSlot, entry *MealEntry) error {
	idx := day.Index()
	if idx < 0 {
		return fmt.Errorf("invalid day %q", day)
	}
	ref := w[idx].slotRef(slot)
	if ref == nil {
		return fmt.Errorf("invalid meal slot %q", slot)
	}
	*ref = entry
	return nil
}

// Each visits every slot in grid order.
func (w *WeekMeals) Each(fn func(day enums.Day, slot enums.MealSlot, entry *MealEntry)) {
	for _, day := range enums.Days {
		for _, slot := range enums.MealSlots {
			fn(day, slot, w.Get(day, slot))
		}
	}
}

// Count returns the number of occupied slots.
func (w *WeekMeals) Count() int {
	count := 0
	w.Each(func(_ enums.Day, _ enums.MealSlot, entry *MealEntry) {
		if entry != nil {
			count++
		}
	})
	return count
}

// Clone deep-copies every entry.
func (w WeekMeals) Clone() WeekMeals {
	var out WeekMeals
	w.Each(func(day enums.Day, slot enums.MealSlot, entry *MealEntry) {
		_ = out.Set(day, slot, entry.Clone())
	})
	return out
}

// MarshalJSON writes the grid as an object keyed by day name, Monday first.
func (w WeekMeals) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, day := range enums.Days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(day.String())
		buf.Write(key)
		buf.WriteByte(':')
		body, err := json.Marshal(w[i])
		if err != nil {
			return nil, err
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON fills the grid from a day-keyed object. Missing days or slots
// stay empty and unknown keys are ignored.
func (w *WeekMeals) UnmarshalJSON(data []byte) error {
	*w = WeekMeals{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw map[string]*DayMeals
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, meals := range raw {
		day, err := enums.ParseDay(key)
		if err != nil || meals == nil {
			continue
		}
		w[day.Index()] = *meals
	}
	return nil
}

// WeekPlan is one user's grid for the week beginning at WeekStart.
type WeekPlan struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId"`
	WeekStart string    `json:"weekStart"`
	Meals     WeekMeals `json:"meals"`
}

// NewWeekPlan returns an empty 28-slot plan.
func NewWeekPlan(userID, weekStart string) *WeekPlan {
	return &WeekPlan{UserID: userID, WeekStart: weekStart}
}

// UnmarshalJSON accepts both camelCase and snake_case keys as well as "_id".
func (p *WeekPlan) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           *string   `json:"id"`
		MongoID      string    `json:"_id"`
		UserID       string    `json:"userId"`
		UserIDSnake  string    `json:"user_id"`
		WeekStart    string    `json:"weekStart"`
		WeekStartOld string    `json:"week_start"`
		Meals        WeekMeals `json:"meals"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = WeekPlan{
		UserID:    firstNonEmpty(raw.UserID, raw.UserIDSnake),
		WeekStart: firstNonEmpty(raw.WeekStart, raw.WeekStartOld),
		Meals:     raw.Meals,
	}
	if raw.ID != nil {
		p.ID = *raw.ID
	}
	if p.ID == "" {
		p.ID = raw.MongoID
	}
	return nil
}

// Clone deep-copies the plan.
func (p *WeekPlan) Clone() *WeekPlan {
	if p == nil {
		return nil
	}
	out := *p
	out.Meals = p.Meals.Clone()
	return &out
}

// IsEmpty reports whether no slot holds a meal.
func (p *WeekPlan) IsEmpty() bool {
	return p == nil || p.Meals.Count() == 0
}

// Template is a named, reusable copy of a week's meals.
type Template struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Meals     WeekMeals `json:"meals"`
	CreatedAt string    `json:"created_at,omitempty"`
}

// UnmarshalJSON accepts "_id" and "user_id" aliases.
func (t *Template) UnmarshalJSON(data []byte) error {
	type alias Template
	var raw struct {
		alias
		MongoID     string `json:"_id"`
		UserIDSnake string `json:"user_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Template(raw.alias)
	t.ID = firstNonEmpty(t.ID, raw.MongoID)
	t.UserID = firstNonEmpty(t.UserID, raw.UserIDSnake)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
