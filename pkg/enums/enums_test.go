package enums

import "testing"

func TestParseDay(t *testing.T) {
	cases := map[string]Day{
		"monday":  DayMonday,
		" Sunday": DaySunday,
		"wed":     DayWednesday,
		"SAT":     DaySaturday,
	}
	for raw, want := range cases {
		got, err := ParseDay(raw)
		if err != nil {
			t.Fatalf("ParseDay(%q) unexpected error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseDay(%q) = %s, want %s", raw, got, want)
		}
	}
	if _, err := ParseDay("someday"); err == nil {
		t.Fatalf("expected error for unknown day")
	}
	if _, err := ParseDay("mo"); err == nil {
		t.Fatalf("two-letter prefixes should not parse")
	}
}

func TestDayIndexOrder(t *testing.T) {
	if len(Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(Days))
	}
	if DayMonday.Index() != 0 || DaySunday.Index() != 6 {
		t.Fatalf("unexpected day indexes monday=%d sunday=%d", DayMonday.Index(), DaySunday.Index())
	}
	if Day("funday").IsValid() {
		t.Fatalf("unknown day should be invalid")
	}
}

func TestParseMealSlot(t *testing.T) {
	for _, slot := range MealSlots {
		got, err := ParseMealSlot(string(slot))
		if err != nil || got != slot {
			t.Fatalf("ParseMealSlot(%q) = %s, %v", slot, got, err)
		}
	}
	if got, err := ParseMealSlot("Snack"); err != nil || got != MealSlotSnacks {
		t.Fatalf("expected singular snack to map to snacks, got %s %v", got, err)
	}
	if _, err := ParseMealSlot("brunch"); err == nil {
		t.Fatalf("expected error for unknown slot")
	}
}

func TestMealTypeValidity(t *testing.T) {
	for _, mt := range []MealType{MealTypeRecipe, MealTypeGeneric, MealTypeCustom} {
		if !mt.IsValid() {
			t.Fatalf("expected %s to be valid", mt)
		}
	}
	if MealType("takeaway").IsValid() {
		t.Fatalf("unexpected valid meal type")
	}
	if _, err := ParseMealType("Recipe"); err == nil {
		t.Fatalf("meal type parsing is case sensitive")
	}
}

func TestSyncStateDirty(t *testing.T) {
	if SyncStateSynced.IsDirty() {
		t.Fatalf("synced must not be dirty")
	}
	if !SyncStatePending.IsDirty() || !SyncStateUnsynced.IsDirty() {
		t.Fatalf("pending and unsynced are dirty")
	}
}

func TestParseFoodSource(t *testing.T) {
	if got, err := ParseFoodSource("donation"); err != nil || got != FoodSourceDonation {
		t.Fatalf("ParseFoodSource(donation) = %s, %v", got, err)
	}
	if _, err := ParseFoodSource("Donation"); err == nil {
		t.Fatalf("food source parsing is case sensitive")
	}
	if FoodSource("market").IsValid() {
		t.Fatalf("unexpected valid food source")
	}
}
