package reservation

import (
	"context"
	"errors"
	"sync"

	"github.com/ecoeats/mealplanner/internal/inventory"
	"github.com/ecoeats/mealplanner/internal/mealplan"
	"github.com/ecoeats/mealplanner/internal/notify"
	"github.com/ecoeats/mealplanner/internal/plansync"
	"github.com/ecoeats/mealplanner/pkg/enums"
	pkgerrors "github.com/ecoeats/mealplanner/pkg/errors"
	"github.com/ecoeats/mealplanner/pkg/logger"
	"github.com/ecoeats/mealplanner/pkg/types"
	"github.com/ecoeats/mealplanner/pkg/validation"
	"github.com/google/uuid"
)

// Queue accepts full-document plan writes.
type Queue interface {
	Enqueue(ctx context.Context, cmd plansync.Command) (uuid.UUID, error)
}

// Params configure an Engine.
type Params struct {
	Snapshot *inventory.Snapshot
	Store    *mealplan.Store
	Queue    Queue
	Notifier notify.Notifier
	Logger   *logger.Logger
}

// Engine keeps the inventory snapshot and the active plan consistent: every
// quantity recorded in a slot is out of stock until the slot is cleared.
type Engine struct {
	snapshot *inventory.Snapshot
	store    *mealplan.Store
	queue    Queue
	notifier notify.Notifier
	logg     *logger.Logger

	mu sync.Mutex
}

// NewEngine wires the engine.
func NewEngine(params Params) (*Engine, error) {
	if params.Snapshot == nil {
		return nil, errors.New("inventory snapshot required")
	}
	if params.Store == nil {
		return nil, errors.New("plan store required")
	}
	if params.Queue == nil {
		return nil, errors.New("write queue required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Engine{
		snapshot: params.Snapshot,
		store:    params.Store,
		queue:    params.Queue,
		notifier: params.Notifier,
		logg:     logg,
	}, nil
}

func validateSlot(day enums.Day, slot enums.MealSlot) error {
	details := map[string]string{}
	if !day.IsValid() {
		details["day"] = "must be one of monday..sunday"
	}
	if !slot.IsValid() {
		details["slot"] = "must be one of breakfast, lunch, dinner, snacks"
	}
	if len(details) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

// Assign places a meal into day/slot. An occupied slot is cleared first and
// its usages returned to stock. The new usages are taken from stock, clamped
// to what is available, and the entry records the amounts actually taken.
// Usages of items missing from the snapshot are kept on the entry unchanged.
// The write to the backend happens in the background; its outcome arrives as
// a notice and as the slot's sync state. Invalid input changes nothing.
func (e *Engine) Assign(ctx context.Context, day enums.Day, slot enums.MealSlot, data types.MealData) (*types.MealEntry, error) {
	if err := validateSlot(day, slot); err != nil {
		return nil, err
	}
	if err := validation.Struct(data); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if prev := e.store.Slot(day, slot); prev != nil {
		e.snapshot.Release(prev.Ingredients)
	}
	recorded := e.snapshot.Reserve(data.Ingredients)
	entry := data.Entry(recorded)

	rev, err := e.store.SetSlot(day, slot, entry)
	if err != nil {
		return nil, err
	}

	ctx = e.logg.WithFields(ctx, map[string]any{
		"day":       day.String(),
		"slot":      slot.String(),
		"meal_name": entry.Name,
	})
	e.logg.Info(ctx, "meal assigned")
	return entry, e.persist(ctx, rev, notify.MsgMealSaved, notify.MsgMealSaveFailed, enums.NoticeLevelSuccess)
}

// Remove clears day/slot and returns its recorded usages to stock. Usages of
// items no longer in the snapshot restore nothing. Removing from an empty slot
// does nothing and reports false.
func (e *Engine) Remove(ctx context.Context, day enums.Day, slot enums.MealSlot) (bool, error) {
	if err := validateSlot(day, slot); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.store.Slot(day, slot)
	if prev == nil {
		return false, nil
	}
	e.snapshot.Release(prev.Ingredients)

	rev, err := e.store.SetSlot(day, slot, nil)
	if err != nil {
		return false, err
	}

	ctx = e.logg.WithFields(ctx, map[string]any{
		"day":       day.String(),
		"slot":      slot.String(),
		"meal_name": prev.Name,
	})
	e.logg.Info(ctx, "meal removed")
	return true, e.persist(ctx, rev, notify.MsgMealRemoved, notify.MsgMealRemoveFailed, enums.NoticeLevelInfo)
}

func (e *Engine) persist(ctx context.Context, rev mealplan.Revision, okMsg, failMsg string, okLevel enums.NoticeLevel) error {
	onDone := func(ctx context.Context, res plansync.Result) {
		if res.Err != nil {
			e.store.MarkUnsynced(res.WeekKey, res.Revision)
			notify.Error(ctx, e.notifier, failMsg)
			return
		}
		e.store.MarkSynced(res.WeekKey, res.Revision)
		if okLevel == enums.NoticeLevelSuccess {
			notify.Success(ctx, e.notifier, okMsg)
		} else {
			notify.Info(ctx, e.notifier, okMsg)
		}
	}

	_, err := e.queue.Enqueue(ctx, plansync.Command{
		WeekKey:  rev.WeekKey,
		Revision: rev.Number,
		Document: rev.Document,
		OnDone:   onDone,
	})
	if err != nil {
		e.logg.Error(ctx, "failed to queue plan write", err)
		e.store.MarkUnsynced(rev.WeekKey, rev.Number)
		notify.Error(ctx, e.notifier, failMsg)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue plan write")
	}
	return nil
}
