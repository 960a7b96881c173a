package mealplan

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ecoeats/mealplanner/internal/notify"
	"github.com/ecoeats/mealplanner/pkg/enums"
	pkgerrors "github.com/ecoeats/mealplanner/pkg/errors"
	"github.com/ecoeats/mealplanner/pkg/logger"
	"github.com/ecoeats/mealplanner/pkg/types"
)

const (
	errTemplateNameRequired = "Please enter a template name."
	errTemplateEmptyWeek    = "This week is empty. Add at least 1 meal to save as a template."
)

// PlanAPI is the slice of the backend client the store depends on.
type PlanAPI interface {
	GetPlan(ctx context.Context, userID, weekStart string) (*types.WeekPlan, error)
	CopyPlan(ctx context.Context, userID, from, to string) (*types.WeekPlan, error)
	SaveTemplate(ctx context.Context, userID, name string, meals types.WeekMeals) (string, error)
	ListTemplates(ctx context.Context, userID string) ([]types.Template, error)
	DeleteTemplate(ctx context.Context, templateID string) error
	ApplyTemplate(ctx context.Context, userID, templateID, weekStart string) error
}

// StoreParams configure a Store.
type StoreParams struct {
	API      PlanAPI
	UserID   string
	Location *time.Location
	Notifier notify.Notifier
	Logger   *logger.Logger
	Now      func() time.Time
}

type slotKey struct {
	day  enums.Day
	slot enums.MealSlot
}

type slotSync struct {
	state    enums.SyncState
	revision int64
}

// Revision is a snapshot of the active plan taken right after a mutation.
type Revision struct {
	WeekKey  string
	Number   int64
	Document *types.WeekPlan
}

// Store holds the single active WeekPlan and tracks, per slot, whether the
// latest edit has reached the backend.
type Store struct {
	api      PlanAPI
	userID   string
	loc      *time.Location
	notifier notify.Notifier
	logg     *logger.Logger
	now      func() time.Time

	mu        sync.RWMutex
	plan      *types.WeekPlan
	weekStart time.Time
	loaded    bool
	revision  int64
	slots     map[slotKey]slotSync
}

// NewStore builds a store whose active week is the current one, holding an
// empty plan until LoadWeek is called.
func NewStore(params StoreParams) (*Store, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "plan api required")
	}
	userID := strings.TrimSpace(params.UserID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	s := &Store{
		api:      params.API,
		userID:   userID,
		loc:      loc,
		notifier: params.Notifier,
		logg:     logg,
		now:      now,
	}
	s.Reset()
	return s, nil
}

func (s *Store) UserID() string {
	return s.userID
}

func (s *Store) Location() *time.Location {
	return s.loc
}

// WeekStart returns the local Monday of the active week.
func (s *Store) WeekStart() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weekStart
}

// WeekKey returns the wire key of the active week.
func (s *Store) WeekKey() string {
	return WeekKey(s.WeekStart())
}

// Plan returns a deep copy of the active plan.
func (s *Store) Plan() *types.WeekPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan.Clone()
}

// Slot returns a copy of the entry at day/slot, nil when empty.
func (s *Store) Slot(day enums.Day, slot enums.MealSlot) *types.MealEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan.Meals.Get(day, slot).Clone()
}

// SetSlot writes entry (nil clears) at day/slot, bumps the plan revision and
// marks the slot pending. The returned revision carries the full document to
// persist.
func (s *Store) SetSlot(day enums.Day, slot enums.MealSlot, entry *types.MealEntry) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.plan.Meals.Set(day, slot, entry.Clone()); err != nil {
		return Revision{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "set slot")
	}
	s.revision++
	s.slots[slotKey{day: day, slot: slot}] = slotSync{state: enums.SyncStatePending, revision: s.revision}
	return Revision{
		WeekKey:  WeekKey(s.weekStart),
		Number:   s.revision,
		Document: s.plan.Clone(),
	}, nil
}

// MarkSynced records that the document at revision rev of week reached the
// backend. Since writes carry the whole document, every dirty slot at or
// below rev is now synced. Results for a week no longer active are ignored.
func (s *Store) MarkSynced(week string, rev int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if week != WeekKey(s.weekStart) {
		return
	}
	for key, state := range s.slots {
		if state.revision <= rev {
			delete(s.slots, key)
		}
	}
}

// MarkUnsynced records that the write of revision rev failed. Slots edited
// later stay pending since a newer write may still land.
func (s *Store) MarkUnsynced(week string, rev int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if week != WeekKey(s.weekStart) {
		return
	}
	for key, state := range s.slots {
		if state.revision <= rev && state.state == enums.SyncStatePending {
			state.state = enums.SyncStateUnsynced
			s.slots[key] = state
		}
	}
}

// SyncState reports whether the slot's latest edit is on the backend.
func (s *Store) SyncState(day enums.Day, slot enums.MealSlot) enums.SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.slots[slotKey{day: day, slot: slot}]; ok {
		return state.state
	}
	return enums.SyncStateSynced
}

// Dirty reports whether any slot is pending or unsynced.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots) > 0
}

// replace swaps in plan as the active week and clears sync tracking.
// Callers must not hold mu.
func (s *Store) replace(weekStart time.Time, plan *types.WeekPlan) *types.WeekPlan {
	if plan == nil {
		plan = types.NewWeekPlan(s.userID, WeekKey(weekStart))
	}
	if plan.UserID == "" {
		plan.UserID = s.userID
	}
	plan.WeekStart = WeekKey(weekStart)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan
	s.weekStart = weekStart
	s.loaded = true
	s.slots = make(map[slotKey]slotSync)
	return plan.Clone()
}

// Reset drops the active plan in favor of an empty, not yet loaded, current
// week.
func (s *Store) Reset() {
	start := WeekStart(s.now().In(s.loc))
	s.replace(start, nil)
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

// Holds reports whether the active plan was loaded for the week containing t.
func (s *Store) Holds(t time.Time) bool {
	start := WeekStart(t.In(s.loc))
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded && s.weekStart.Equal(start)
}

func (s *Store) weekCtx(ctx context.Context, week string) context.Context {
	ctx = s.logg.WithUserID(ctx, s.userID)
	return s.logg.WithWeekStart(ctx, week)
}

// LoadWeek makes the week containing weekStart active. A week the backend
// does not have yields an empty plan. Any other failure raises an error
// notice and returns the error: reloading the active week keeps the plan
// already held, with its sync state, while switching weeks starts empty.
func (s *Store) LoadWeek(ctx context.Context, weekStart time.Time) (*types.WeekPlan, error) {
	start := WeekStart(weekStart.In(s.loc))
	key := WeekKey(start)
	ctx = s.weekCtx(ctx, key)

	plan, err := s.api.GetPlan(ctx, s.userID, key)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.logg.Debug(ctx, "no stored plan for week, starting empty")
			return s.replace(start, nil), nil
		}
		s.logg.Error(ctx, "failed to load week plan", err)
		if s.Holds(start) {
			notify.Error(ctx, s.notifier, notify.MsgWeekReloadFailed)
			return s.Plan(), err
		}
		notify.Error(ctx, s.notifier, notify.MsgWeekLoadFailed)
		return s.replace(start, nil), err
	}
	return s.replace(start, plan), nil
}

// CopyWeek asks the backend to copy from's grid over to's and makes to
// active. An empty result, including a missing source week, triggers exactly
// one re-fetch of the target before settling on an empty plan. Any other
// copy failure starts the target week empty without a re-fetch.
func (s *Store) CopyWeek(ctx context.Context, from, to time.Time) (*types.WeekPlan, error) {
	toStart := WeekStart(to.In(s.loc))
	fromKey, toKey := WeekKey(from.In(s.loc)), WeekKey(toStart)
	ctx = s.logg.WithField(s.weekCtx(ctx, toKey), "from_week_start", fromKey)

	copied, err := s.api.CopyPlan(ctx, s.userID, fromKey, toKey)
	switch {
	case err == nil && !copied.IsEmpty():
		notify.Success(ctx, s.notifier, notify.MsgCopied)
		return s.replace(toStart, copied), nil
	case err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) && !pkgerrors.IsCode(err, pkgerrors.CodeEmptyResult):
		return s.copyFailed(ctx, toStart, err)
	}

	s.logg.Info(ctx, "copy returned no meals, re-fetching target week")
	refetched, err := s.api.GetPlan(ctx, s.userID, toKey)
	if err == nil && !refetched.IsEmpty() {
		notify.Success(ctx, s.notifier, notify.MsgCopiedRefreshed)
		return s.replace(toStart, refetched), nil
	}
	if err == nil {
		notify.Info(ctx, s.notifier, notify.MsgCopyEmpty)
		return s.replace(toStart, refetched), nil
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeTransport) {
		return s.copyFailed(ctx, toStart, err)
	}
	notify.Info(ctx, s.notifier, notify.MsgCopyEmpty)
	return s.replace(toStart, nil), nil
}

func (s *Store) copyFailed(ctx context.Context, toStart time.Time, err error) (*types.WeekPlan, error) {
	s.logg.Error(ctx, "copy week failed", err)
	notify.Error(ctx, s.notifier, notify.MsgCopyFailed)
	return s.replace(toStart, nil), err
}

// CopyPreviousWeek copies the week before the active one into it.
func (s *Store) CopyPreviousWeek(ctx context.Context) (*types.WeekPlan, error) {
	active := s.WeekStart()
	return s.CopyWeek(ctx, PrevWeek(active), active)
}

// SaveTemplate stores the active grid under name.
func (s *Store) SaveTemplate(ctx context.Context, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, errTemplateNameRequired)
	}
	plan := s.Plan()
	if CountMeals(plan) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, errTemplateEmptyWeek)
	}

	ctx = s.weekCtx(ctx, plan.WeekStart)
	id, err := s.api.SaveTemplate(ctx, s.userID, trimmed, plan.Meals)
	if err != nil {
		s.logg.Error(ctx, "failed to save template", err)
		notify.Error(ctx, s.notifier, notify.MsgTemplateSaveFailed)
		return "", err
	}
	notify.Success(ctx, s.notifier, notify.MsgTemplateSaved)
	return id, nil
}

// ListTemplates returns the user's templates as the backend orders them,
// newest first.
func (s *Store) ListTemplates(ctx context.Context) ([]types.Template, error) {
	templates, err := s.api.ListTemplates(ctx, s.userID)
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, s.userID), "failed to list templates", err)
		return nil, err
	}
	return templates, nil
}

// DeleteTemplate removes a template.
func (s *Store) DeleteTemplate(ctx context.Context, templateID string) error {
	if strings.TrimSpace(templateID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "template id is required")
	}
	ctx = s.logg.WithField(ctx, "template_id", templateID)
	if err := s.api.DeleteTemplate(ctx, templateID); err != nil {
		s.logg.Error(ctx, "failed to delete template", err)
		notify.Error(ctx, s.notifier, notify.MsgTemplateDeleteFail)
		return err
	}
	notify.Info(ctx, s.notifier, notify.MsgTemplateDeleted)
	return nil
}

// ApplyTemplate writes a template into target's week on the backend, then
// switches the active week to it and loads the result. On failure the active
// week is left as it was.
func (s *Store) ApplyTemplate(ctx context.Context, templateID string, target time.Time) (*types.WeekPlan, error) {
	if strings.TrimSpace(templateID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template id is required")
	}
	start := WeekStart(target.In(s.loc))
	key := WeekKey(start)
	ctx = s.logg.WithField(s.weekCtx(ctx, key), "template_id", templateID)

	if err := s.api.ApplyTemplate(ctx, s.userID, templateID, key); err != nil {
		s.logg.Error(ctx, "failed to apply template", err)
		notify.Error(ctx, s.notifier, notify.MsgTemplateApplyFail)
		return nil, err
	}
	plan, err := s.LoadWeek(ctx, start)
	if err != nil {
		return plan, err
	}
	notify.Success(ctx, s.notifier, notify.MsgTemplateApplied)
	return plan, nil
}
