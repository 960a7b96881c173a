package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ecoeats/mealplanner/internal/inventory"
	"github.com/ecoeats/mealplanner/internal/mealplan"
	"github.com/ecoeats/mealplanner/internal/notify"
	"github.com/ecoeats/mealplanner/internal/plansync"
	"github.com/ecoeats/mealplanner/pkg/enums"
	pkgerrors "github.com/ecoeats/mealplanner/pkg/errors"
	"github.com/ecoeats/mealplanner/pkg/types"
)

type nopPlanAPI struct{}

func (nopPlanAPI) GetPlan(context.Context, string, string) (*types.WeekPlan, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "missing")
}
func (nopPlanAPI) CopyPlan(context.Context, string, string, string) (*types.WeekPlan, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "missing")
}
func (nopPlanAPI) SaveTemplate(context.Context, string, string, types.WeekMeals) (string, error) {
	return "", nil
}
func (nopPlanAPI) ListTemplates(context.Context, string) ([]types.Template, error) { return nil, nil }
func (nopPlanAPI) DeleteTemplate(context.Context, string) error                    { return nil }
func (nopPlanAPI) ApplyTemplate(context.Context, string, string, string) error     { return nil }

type planWriter struct {
	mu    sync.Mutex
	err   error
	saved []*types.WeekPlan
}

func (w *planWriter) SavePlan(_ context.Context, plan *types.WeekPlan) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saved = append(w.saved, plan)
	return w.err
}

func (w *planWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.saved)
}

func (w *planWriter) last(t *testing.T) *types.WeekPlan {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.saved) == 0 {
		t.Fatalf("no plan written")
	}
	return w.saved[len(w.saved)-1]
}

type harness struct {
	engine   *Engine
	snapshot *inventory.Snapshot
	store    *mealplan.Store
	sync     *plansync.Synchronizer
	writer   *planWriter
	notices  *notify.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rec := notify.NewRecorder()
	snapshot := inventory.NewSnapshot([]types.FoodItem{
		{ID: "a1", Name: "Chicken Breast", Quantity: types.NewQuantity(2)},
		{ID: "a2", Name: "Broccoli", Quantity: types.NewQuantity(1)},
		{ID: "a4", Name: "Eggs", Quantity: types.NewQuantity(12)},
	})
	store, err := mealplan.NewStore(mealplan.StoreParams{
		API:      nopPlanAPI{},
		UserID:   "me",
		Location: time.UTC,
		Notifier: rec,
		Now:      func() time.Time { return time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	writer := &planWriter{}
	synchronizer, err := plansync.New(plansync.Params{Writer: writer})
	if err != nil {
		t.Fatalf("new synchronizer: %v", err)
	}
	t.Cleanup(func() { _ = synchronizer.Close() })

	engine, err := NewEngine(Params{Snapshot: snapshot, Store: store, Queue: synchronizer, Notifier: rec})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &harness{engine: engine, snapshot: snapshot, store: store, sync: synchronizer, writer: writer, notices: rec}
}

func (h *harness) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.sync.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func (h *harness) expectQty(t *testing.T, id string, want int64) {
	t.Helper()
	item, ok := h.snapshot.Find(id)
	if !ok {
		t.Fatalf("item %s not in snapshot", id)
	}
	if !item.Quantity.Equal(types.NewQuantity(want)) {
		t.Fatalf("item %s: expected quantity %d, got %s", id, want, item.Quantity)
	}
}

func (h *harness) expectLastNotice(t *testing.T, msg string, level enums.NoticeLevel) {
	t.Helper()
	last, ok := h.notices.Last()
	if !ok {
		t.Fatalf("expected notice %q, got none", msg)
	}
	if last.Message != msg || last.Level != level {
		t.Fatalf("expected [%s] %q, got [%s] %q", level, msg, last.Level, last.Message)
	}
}

func omeletteData(used int64) types.MealData {
	return types.MealData{
		Name:        "Omelette",
		Type:        enums.MealTypeRecipe,
		Ingredients: []types.IngredientUsage{{ID: "a4", Name: "Eggs", UsedQty: types.NewQuantity(used)}},
	}
}

func TestAssignThenRemoveRestoresInventory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	entry, err := h.engine.Assign(ctx, enums.DayMonday, enums.MealSlotBreakfast, omeletteData(2))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if entry.Name != "Omelette" {
		t.Fatalf("unexpected entry name %q", entry.Name)
	}
	h.expectQty(t, "a4", 10)
	h.flush(t)

	if got := h.writer.count(); got != 1 {
		t.Fatalf("expected 1 write, got %d", got)
	}
	if state := h.store.SyncState(enums.DayMonday, enums.MealSlotBreakfast); state != enums.SyncStateSynced {
		t.Fatalf("expected synced slot, got %s", state)
	}
	h.expectLastNotice(t, notify.MsgMealSaved, enums.NoticeLevelSuccess)

	removed, err := h.engine.Remove(ctx, enums.DayMonday, enums.MealSlotBreakfast)
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	h.expectQty(t, "a4", 12)
	if h.store.Slot(enums.DayMonday, enums.MealSlotBreakfast) != nil {
		t.Fatalf("slot should be empty after remove")
	}
	h.flush(t)

	if got := h.writer.count(); got != 2 {
		t.Fatalf("expected 2 writes, got %d", got)
	}
	h.expectLastNotice(t, notify.MsgMealRemoved, enums.NoticeLevelInfo)
}

func TestFailedWriteKeepsLocalStateAndMarksUnsynced(t *testing.T) {
	h := newHarness(t)
	h.writer.err = pkgerrors.Wrap(pkgerrors.CodeTransport, errors.New("connection refused"), "PUT /mealplan")

	if _, err := h.engine.Assign(context.Background(), enums.DayMonday, enums.MealSlotBreakfast, omeletteData(2)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	h.flush(t)

	if h.store.Slot(enums.DayMonday, enums.MealSlotBreakfast) == nil {
		t.Fatalf("failed write must not revert the slot")
	}
	h.expectQty(t, "a4", 10)
	if state := h.store.SyncState(enums.DayMonday, enums.MealSlotBreakfast); state != enums.SyncStateUnsynced {
		t.Fatalf("expected unsynced slot, got %s", state)
	}
	h.expectLastNotice(t, notify.MsgMealSaveFailed, enums.NoticeLevelError)
	if got := h.writer.count(); got != 1 {
		t.Fatalf("expected a single attempt without retry, got %d", got)
	}
}

func TestWriteCarriesFullDocument(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.engine.Assign(ctx, enums.DayMonday, enums.MealSlotBreakfast, omeletteData(1)); err != nil {
		t.Fatalf("assign omelette: %v", err)
	}
	if _, err := h.engine.Assign(ctx, enums.DayFriday, enums.MealSlotDinner, types.MealData{Name: "Salad", Type: enums.MealTypeCustom}); err != nil {
		t.Fatalf("assign salad: %v", err)
	}
	h.flush(t)

	last := h.writer.last(t)
	if got := mealplan.CountMeals(last); got != 2 {
		t.Fatalf("expected 2 meals in the written document, got %d", got)
	}
	if last.UserID != "me" || last.WeekStart != "2025-01-06T00:00:00.000Z" {
		t.Fatalf("unexpected document identity %s/%s", last.UserID, last.WeekStart)
	}
}

func TestUsagesOfUnloadedItemsArePersisted(t *testing.T) {
	h := newHarness(t)

	entry, err := h.engine.Assign(context.Background(), enums.DayMonday, enums.MealSlotBreakfast, types.MealData{
		Name: "Omelette",
		Type: enums.MealTypeRecipe,
		Ingredients: []types.IngredientUsage{
			{ID: "a4", Name: "Eggs", UsedQty: types.NewQuantity(2)},
			{ID: "zz-not-loaded", Name: "Chives", UsedQty: types.NewQuantity(1)},
		},
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(entry.Ingredients) != 2 {
		t.Fatalf("expected both usages on the entry, got %d", len(entry.Ingredients))
	}
	h.expectQty(t, "a4", 10)
	h.flush(t)

	persisted := h.writer.last(t).Meals.Get(enums.DayMonday, enums.MealSlotBreakfast)
	if persisted == nil || len(persisted.Ingredients) != 2 {
		t.Fatalf("expected both usages in the written document, got %+v", persisted)
	}
	ghost := persisted.Ingredients[1]
	if ghost.ID != "zz-not-loaded" || ghost.Name != "Chives" || !ghost.UsedQty.Equal(types.NewQuantity(1)) {
		t.Fatalf("unloaded usage changed on the way out: %+v", ghost)
	}

	if _, err := h.engine.Remove(context.Background(), enums.DayMonday, enums.MealSlotBreakfast); err != nil {
		t.Fatalf("remove: %v", err)
	}
	h.expectQty(t, "a4", 12)
	if n := len(h.snapshot.Items()); n != 3 {
		t.Fatalf("remove must not invent items, got %d", n)
	}
}

func TestInvalidMealChangesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := []types.MealData{
		{Name: "   ", Type: enums.MealTypeCustom},
		{Name: "Soup", Type: "dessert"},
		{Name: "Soup", Type: enums.MealTypeCustom, Ingredients: []types.IngredientUsage{{ID: "a4", UsedQty: types.NewQuantity(-1)}}},
	}
	for _, data := range cases {
		_, err := h.engine.Assign(ctx, enums.DayMonday, enums.MealSlotLunch, data)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %+v, got %v", data, err)
		}
	}

	_, err := h.engine.Assign(ctx, "funday", enums.MealSlotLunch, omeletteData(1))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for bad day, got %v", err)
	}

	h.expectQty(t, "a4", 12)
	if h.store.Slot(enums.DayMonday, enums.MealSlotLunch) != nil {
		t.Fatalf("invalid meal reached the grid")
	}
	if h.sync.Pending() != 0 || h.writer.count() != 0 {
		t.Fatalf("invalid meal queued a write")
	}
}

func TestReassignReleasesPreviousUsages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.engine.Assign(ctx, enums.DayMonday, enums.MealSlotDinner, omeletteData(4)); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	_, err := h.engine.Assign(ctx, enums.DayMonday, enums.MealSlotDinner, types.MealData{
		Name:        "Stir fry",
		Type:        enums.MealTypeRecipe,
		Ingredients: []types.IngredientUsage{{ID: "a1", UsedQty: types.NewQuantity(1)}, {ID: "a4", UsedQty: types.NewQuantity(1)}},
	})
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}

	h.expectQty(t, "a4", 11)
	h.expectQty(t, "a1", 1)
	entry := h.store.Slot(enums.DayMonday, enums.MealSlotDinner)
	if entry == nil || entry.Name != "Stir fry" {
		t.Fatalf("expected stir fry in the slot, got %+v", entry)
	}
	if entry.Ingredients[0].Name != "Chicken Breast" {
		t.Fatalf("expected usage name filled in, got %q", entry.Ingredients[0].Name)
	}
}

func TestOverdrawIsClampedAndRestoredExactly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	entry, err := h.engine.Assign(ctx, enums.DayTuesday, enums.MealSlotLunch, types.MealData{
		Name:        "Broccoli feast",
		Type:        enums.MealTypeCustom,
		Ingredients: []types.IngredientUsage{{ID: "a2", UsedQty: types.NewQuantity(5)}},
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !entry.Ingredients[0].UsedQty.Equal(types.NewQuantity(1)) {
		t.Fatalf("expected recorded usage clamped to 1, got %s", entry.Ingredients[0].UsedQty)
	}
	h.expectQty(t, "a2", 0)

	if _, err := h.engine.Remove(ctx, enums.DayTuesday, enums.MealSlotLunch); err != nil {
		t.Fatalf("remove: %v", err)
	}
	h.expectQty(t, "a2", 1)
}

func TestRemoveEmptySlotIsNoop(t *testing.T) {
	h := newHarness(t)
	removed, err := h.engine.Remove(context.Background(), enums.DaySunday, enums.MealSlotSnacks)
	if err != nil || removed {
		t.Fatalf("expected no-op, got removed=%v err=%v", removed, err)
	}
	h.flush(t)
	if h.writer.count() != 0 {
		t.Fatalf("no-op remove wrote the plan")
	}
	if notices := h.notices.Drain(); len(notices) != 0 {
		t.Fatalf("no-op remove raised notices: %+v", notices)
	}
}

func TestRemoveSkipsUsagesOfVanishedItems(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.engine.Assign(ctx, enums.DayMonday, enums.MealSlotBreakfast, omeletteData(2)); err != nil {
		t.Fatalf("assign: %v", err)
	}

	h.snapshot.Replace([]types.FoodItem{{ID: "a1", Name: "Chicken Breast", Quantity: types.NewQuantity(2)}})

	removed, err := h.engine.Remove(ctx, enums.DayMonday, enums.MealSlotBreakfast)
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	if n := len(h.snapshot.Items()); n != 1 {
		t.Fatalf("expected 1 item, got %d", n)
	}
	h.expectQty(t, "a1", 2)
}

func TestAssignAfterCloseReportsQueueFailure(t *testing.T) {
	h := newHarness(t)
	if err := h.sync.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entry, err := h.engine.Assign(context.Background(), enums.DayMonday, enums.MealSlotBreakfast, omeletteData(2))
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !errors.Is(err, plansync.ErrClosed) {
		t.Fatalf("expected ErrClosed in chain, got %v", err)
	}
	if entry == nil {
		t.Fatalf("entry should still be returned")
	}

	h.expectQty(t, "a4", 10)
	if state := h.store.SyncState(enums.DayMonday, enums.MealSlotBreakfast); state != enums.SyncStateUnsynced {
		t.Fatalf("expected unsynced, got %s", state)
	}
	h.expectLastNotice(t, notify.MsgMealSaveFailed, enums.NoticeLevelError)
}
