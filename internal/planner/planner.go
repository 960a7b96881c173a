package planner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ecoeats/mealplanner/internal/cache"
	"github.com/ecoeats/mealplanner/internal/inventory"
	"github.com/ecoeats/mealplanner/internal/mealplan"
	"github.com/ecoeats/mealplanner/internal/notify"
	"github.com/ecoeats/mealplanner/internal/plansync"
	"github.com/ecoeats/mealplanner/internal/recipes"
	"github.com/ecoeats/mealplanner/internal/reservation"
	"github.com/ecoeats/mealplanner/internal/session"
	"github.com/ecoeats/mealplanner/pkg/enums"
	pkgerrors "github.com/ecoeats/mealplanner/pkg/errors"
	"github.com/ecoeats/mealplanner/pkg/logger"
	"github.com/ecoeats/mealplanner/pkg/metrics"
	"github.com/ecoeats/mealplanner/pkg/types"
	"github.com/ecoeats/mealplanner/pkg/validation"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	resourceInventory = "inventory"
	resourceSuggested = "suggested_recipes"
	resourceGeneric   = "generic_recipes"
	resourceCustom    = "custom_recipes"
	resourcePlan      = "plan"
)

// ErrLoggedOut is returned by every mutation after the session ended.
var ErrLoggedOut = pkgerrors.New(pkgerrors.CodeUnauthorized, "session has ended")

// Backend is everything the planner reads from and writes to the EcoEats API.
type Backend interface {
	mealplan.PlanAPI
	Inventory(ctx context.Context) ([]types.FoodItem, error)
	SuggestedRecipes(ctx context.Context, userID string) ([]types.Recipe, error)
	GenericRecipes(ctx context.Context) ([]types.Recipe, error)
	CustomRecipes(ctx context.Context, userID string) ([]types.Recipe, error)
	CreateCustomRecipe(ctx context.Context, userID string, recipe types.Recipe) (string, error)
	SavePlan(ctx context.Context, plan *types.WeekPlan) error
}

// Params configure a Planner. Cache, Journal, Metrics, Bus and Logger are
// optional.
type Params struct {
	Backend   Backend
	Session   session.Session
	Bus       *session.Bus
	Cache     *cache.Snapshots
	Journal   plansync.Journal
	Metrics   *metrics.PlanSyncMetrics
	Notifier  notify.Notifier
	Logger    *logger.Logger
	Location  *time.Location
	Threshold int
	Now       func() time.Time
}

// Planner is one signed-in user's meal planning session: a single active
// week, the inventory it reserves from and the recipe catalogs it suggests
// from.
type Planner struct {
	backend  Backend
	session  session.Session
	cache    *cache.Snapshots
	metrics  *metrics.PlanSyncMetrics
	notifier notify.Notifier
	logg     *logger.Logger
	now      func() time.Time

	snapshot *inventory.Snapshot
	catalog  *recipes.Catalog
	matcher  *recipes.Matcher
	store    *mealplan.Store
	sync     *plansync.Synchronizer
	engine   *reservation.Engine

	bus         *session.Bus
	unsubscribe func()

	mu     sync.Mutex
	closed bool
	// warned remembers the last freshness status reported per item id.
	warned map[string]enums.FoodStatus
}

// New wires a planner for params.Session. Nothing is fetched until LoadAll.
func New(params Params) (*Planner, error) {
	if params.Backend == nil {
		return nil, errors.New("backend required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	store, err := mealplan.NewStore(mealplan.StoreParams{
		API:      params.Backend,
		UserID:   params.Session.UserID,
		Location: params.Location,
		Notifier: params.Notifier,
		Logger:   logg.Named("mealplan"),
		Now:      now,
	})
	if err != nil {
		return nil, err
	}

	synchronizer, err := plansync.New(plansync.Params{
		Writer:  params.Backend,
		Journal: params.Journal,
		Metrics: params.Metrics,
		Logger:  logg.Named("plansync"),
	})
	if err != nil {
		return nil, err
	}

	snapshot := &inventory.Snapshot{}
	engine, err := reservation.NewEngine(reservation.Params{
		Snapshot: snapshot,
		Store:    store,
		Queue:    synchronizer,
		Notifier: params.Notifier,
		Logger:   logg.Named("reservation"),
	})
	if err != nil {
		_ = synchronizer.Close()
		return nil, err
	}

	threshold := params.Threshold
	if threshold == 0 {
		threshold = recipes.DefaultThreshold
	}

	p := &Planner{
		backend:  params.Backend,
		session:  params.Session,
		cache:    params.Cache,
		metrics:  params.Metrics,
		notifier: params.Notifier,
		logg:     logg,
		now:      now,
		snapshot: snapshot,
		catalog:  recipes.NewCatalog(),
		matcher:  recipes.NewMatcher(recipes.WithThreshold(threshold)),
		store:    store,
		sync:     synchronizer,
		engine:   engine,
		warned:   make(map[string]enums.FoodStatus),
	}
	if params.Bus != nil {
		p.bus = params.Bus
		p.unsubscribe = params.Bus.Subscribe(p.onSessionEvent)
	}
	return p, nil
}

func (p *Planner) ctx(ctx context.Context) context.Context {
	return p.logg.WithUserID(ctx, p.session.UserID)
}

// Session returns the session the planner acts for.
func (p *Planner) Session() session.Session {
	return p.session
}

// LoadAll refreshes the inventory, the recipe catalogs and the active week.
// The inventory and catalog fetches run concurrently. Each failure falls back to the
// best state available and is returned combined with the others; the planner
// is usable whatever the outcome.
func (p *Planner) LoadAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrLoggedOut
	}
	return p.loadAll(p.ctx(ctx), p.store.WeekStart())
}

func (p *Planner) loadAll(ctx context.Context, weekStart time.Time) error {
	var (
		items                      []types.FoodItem
		suggested, generic, custom []types.Recipe
		invErr, sugErr             error
		genErr, cusErr             error
		g                          errgroup.Group
	)
	g.Go(func() error {
		items, invErr = p.backend.Inventory(ctx)
		return nil
	})
	g.Go(func() error {
		suggested, sugErr = p.backend.SuggestedRecipes(ctx, p.session.UserID)
		return nil
	})
	g.Go(func() error {
		generic, genErr = p.backend.GenericRecipes(ctx)
		return nil
	})
	g.Go(func() error {
		custom, cusErr = p.backend.CustomRecipes(ctx, p.session.UserID)
		return nil
	})
	_ = g.Wait()

	var errs error
	errs = multierr.Append(errs, p.applyInventory(ctx, items, invErr))
	p.warnExpiring(ctx)
	errs = multierr.Append(errs, p.applyRecipes(ctx, cache.ListSuggested, suggested, sugErr))
	errs = multierr.Append(errs, p.applyRecipes(ctx, cache.ListGeneric, generic, genErr))
	errs = multierr.Append(errs, p.applyRecipes(ctx, cache.ListCustom, custom, cusErr))

	source := metrics.SourceEmpty
	if p.store.Holds(weekStart) {
		source = metrics.SourcePrevious
	}
	if _, err := p.store.LoadWeek(ctx, weekStart); err != nil {
		p.metrics.IncFallback(resourcePlan, source)
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (p *Planner) applyInventory(ctx context.Context, items []types.FoodItem, fetchErr error) error {
	if fetchErr == nil {
		p.snapshot.Replace(items)
		if err := p.cache.PutInventory(ctx, p.session.UserID, items); err != nil {
			p.logg.Warn(ctx, "could not cache inventory snapshot")
		}
		return nil
	}

	p.logg.Error(ctx, "failed to load inventory", fetchErr)
	source := metrics.SourcePrevious
	if !p.snapshot.Loaded() {
		if cached, err := p.cache.Inventory(ctx, p.session.UserID); err == nil {
			p.snapshot.Replace(cached)
			source = metrics.SourceCache
		} else {
			p.snapshot.Replace(inventory.SampleItems())
			source = metrics.SourceStatic
		}
	}
	p.metrics.IncFallback(resourceInventory, source)
	notify.Error(ctx, p.notifier, notify.MsgInventoryFallback)
	return fetchErr
}

// warnExpiring raises one notice per freshness status naming the in-stock
// items that reached it since the last load. An item is reported again only
// when its status changes.
func (p *Planner) warnExpiring(ctx context.Context) {
	named := make(map[enums.FoodStatus][]string)
	for _, st := range p.snapshot.Statuses(p.now()) {
		if st.Status == enums.FoodStatusFresh || !st.Item.InStock() {
			continue
		}
		if p.warned[st.Item.ID] == st.Status {
			continue
		}
		p.warned[st.Item.ID] = st.Status
		named[st.Status] = append(named[st.Status], st.Item.Name)
	}
	for _, status := range []enums.FoodStatus{enums.FoodStatusExpired, enums.FoodStatusExpiringSoon} {
		if names := named[status]; len(names) > 0 {
			notify.Info(ctx, p.notifier, notify.ExpiryMessage(status, names))
		}
	}
}

type recipeList struct {
	current  func() []types.Recipe
	replace  func([]types.Recipe)
	fallback func() []types.Recipe
	resource string
	notice   string
}

func (p *Planner) recipeList(list string) recipeList {
	switch list {
	case cache.ListSuggested:
		return recipeList{p.catalog.Suggested, p.catalog.ReplaceSuggested, recipes.FallbackSuggested, resourceSuggested, notify.MsgRecipesFallback}
	case cache.ListCustom:
		return recipeList{p.catalog.Custom, p.catalog.ReplaceCustom, func() []types.Recipe { return nil }, resourceCustom, notify.MsgCustomRecipesFailed}
	default:
		return recipeList{p.catalog.Generic, p.catalog.ReplaceGeneric, recipes.FallbackGeneric, resourceGeneric, notify.MsgRecipesFallback}
	}
}

// applyRecipes installs a fetched list or, on failure, keeps what is loaded,
// then tries the cache, then the built-in list. User recipes have no built-in
// list and come up empty.
func (p *Planner) applyRecipes(ctx context.Context, list string, fetched []types.Recipe, fetchErr error) error {
	target := p.recipeList(list)

	if fetchErr == nil {
		target.replace(fetched)
		if err := p.cache.PutRecipes(ctx, p.session.UserID, list, fetched); err != nil {
			p.logg.Warn(ctx, "could not cache recipe snapshot")
		}
		return nil
	}

	ctx = p.logg.WithField(ctx, "recipe_list", list)
	p.logg.Error(ctx, "failed to load recipes", fetchErr)
	source := metrics.SourcePrevious
	if len(target.current()) == 0 {
		if cached, err := p.cache.Recipes(ctx, p.session.UserID, list); err == nil && len(cached) > 0 {
			target.replace(cached)
			source = metrics.SourceCache
		} else {
			static := target.fallback()
			target.replace(static)
			source = metrics.SourceStatic
			if len(static) == 0 {
				source = metrics.SourceEmpty
			}
		}
	}
	p.metrics.IncFallback(target.resource, source)
	notify.Error(ctx, p.notifier, target.notice)
	return fetchErr
}

// WeekStart is the local Monday of the active week.
func (p *Planner) WeekStart() time.Time {
	return p.store.WeekStart()
}

// WeekLabel describes the active week relative to today.
func (p *Planner) WeekLabel() string {
	return mealplan.FormatWeekLabel(p.store.WeekStart(), p.now().In(p.store.Location()))
}

// WeekRange formats the active week as "Week of Jan 6 - Jan 12".
func (p *Planner) WeekRange() string {
	return mealplan.FormatWeekRange(p.store.WeekStart())
}

// GotoWeek makes the week containing t active and reloads everything for it.
func (p *Planner) GotoWeek(ctx context.Context, t time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrLoggedOut
	}
	return p.loadAll(p.ctx(ctx), t)
}

func (p *Planner) NextWeek(ctx context.Context) error {
	return p.GotoWeek(ctx, mealplan.NextWeek(p.store.WeekStart()))
}

func (p *Planner) PrevWeek(ctx context.Context) error {
	return p.GotoWeek(ctx, mealplan.PrevWeek(p.store.WeekStart()))
}

func (p *Planner) CurrentWeek(ctx context.Context) error {
	return p.GotoWeek(ctx, p.now())
}

// Plan returns a copy of the active week.
func (p *Planner) Plan() *types.WeekPlan {
	return p.store.Plan()
}

func (p *Planner) SyncState(day enums.Day, slot enums.MealSlot) enums.SyncState {
	return p.store.SyncState(day, slot)
}

// Inventory returns the snapshot as it stands after reservations.
func (p *Planner) Inventory() []types.FoodItem {
	return p.snapshot.Items()
}

func (p *Planner) InventoryStatuses() []inventory.ItemStatus {
	return p.snapshot.Statuses(p.now())
}

// Suggestions scores the suggested catalog against the current snapshot.
func (p *Planner) Suggestions() []recipes.MatchResult {
	return p.matcher.Suggested(p.catalog.Suggested(), p.snapshot.Items())
}

// GenericRecipes scores the generic catalog against the current snapshot.
func (p *Planner) GenericRecipes() []recipes.MatchResult {
	return p.matcher.Generic(p.catalog.Generic(), p.snapshot.Items())
}

// CustomRecipes scores the user's own recipes against the current snapshot.
func (p *Planner) CustomRecipes() []recipes.MatchResult {
	return p.matcher.Generic(p.catalog.Custom(), p.snapshot.Items())
}

type customRecipeInput struct {
	Name        string   `json:"name" validate:"notblank"`
	Ingredients []string `json:"ingredients" validate:"min=1"`
}

// CreateCustomRecipe stores a recipe the user wrote and adds it to the
// catalog, so it can be matched and proposed like any other.
func (p *Planner) CreateCustomRecipe(ctx context.Context, name string, ingredients []string) (types.Recipe, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return types.Recipe{}, ErrLoggedOut
	}

	input := customRecipeInput{Name: strings.TrimSpace(name), Ingredients: make([]string, 0, len(ingredients))}
	for _, ing := range ingredients {
		if trimmed := strings.TrimSpace(ing); trimmed != "" {
			input.Ingredients = append(input.Ingredients, trimmed)
		}
	}
	if err := validation.Struct(input); err != nil {
		return types.Recipe{}, err
	}

	recipe := types.Recipe{Name: input.Name}
	for _, ing := range input.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, types.Ingredient{Name: ing})
	}

	ctx = p.logg.WithField(p.ctx(ctx), "recipe_name", recipe.Name)
	id, err := p.backend.CreateCustomRecipe(ctx, p.session.UserID, recipe)
	if err != nil {
		p.logg.Error(ctx, "failed to save custom recipe", err)
		notify.Error(ctx, p.notifier, notify.MsgCustomRecipeSaveFailed)
		return types.Recipe{}, err
	}
	recipe.ID = id

	custom := append(p.catalog.Custom(), recipe)
	p.catalog.ReplaceCustom(custom)
	if err := p.cache.PutRecipes(ctx, p.session.UserID, cache.ListCustom, custom); err != nil {
		p.logg.Warn(ctx, "could not cache recipe snapshot")
	}
	notify.Success(ctx, p.notifier, notify.MsgCustomRecipeSaved)
	return recipe.Clone(), nil
}

// ProposeUsage returns the default usages for the named recipe.
func (p *Planner) ProposeUsage(name string) ([]types.IngredientUsage, error) {
	recipe, ok := p.catalog.Find(name)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found").
			WithDetails(map[string]any{"name": name})
	}
	return recipes.ProposeUsage(recipe, p.snapshot.Items()), nil
}

// Assign places a meal into a slot, reserving its ingredients.
func (p *Planner) Assign(ctx context.Context, day enums.Day, slot enums.MealSlot, data types.MealData) (*types.MealEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrLoggedOut
	}
	return p.engine.Assign(p.ctx(ctx), day, slot, data)
}

// Remove clears a slot, returning its ingredients to stock.
func (p *Planner) Remove(ctx context.Context, day enums.Day, slot enums.MealSlot) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false, ErrLoggedOut
	}
	return p.engine.Remove(p.ctx(ctx), day, slot)
}

// CopyPreviousWeek copies last week's grid into the active week.
func (p *Planner) CopyPreviousWeek(ctx context.Context) (*types.WeekPlan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrLoggedOut
	}
	return p.store.CopyPreviousWeek(p.ctx(ctx))
}

func (p *Planner) SaveTemplate(ctx context.Context, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrLoggedOut
	}
	return p.store.SaveTemplate(p.ctx(ctx), name)
}

func (p *Planner) ListTemplates(ctx context.Context) ([]types.Template, error) {
	return p.store.ListTemplates(p.ctx(ctx))
}

func (p *Planner) DeleteTemplate(ctx context.Context, templateID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrLoggedOut
	}
	return p.store.DeleteTemplate(p.ctx(ctx), templateID)
}

// ApplyTemplate materializes a template into target's week and makes that
// week active.
func (p *Planner) ApplyTemplate(ctx context.Context, templateID string, target time.Time) (*types.WeekPlan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrLoggedOut
	}
	return p.store.ApplyTemplate(p.ctx(ctx), templateID, target)
}

// Flush waits for queued plan writes to finish.
func (p *Planner) Flush(ctx context.Context) error {
	return p.sync.Flush(ctx)
}

// PendingWrites is the number of plan writes not yet finished.
func (p *Planner) PendingWrites() int {
	return p.sync.Pending()
}

// Logout ends the session. With a bus every subscriber hears about it; the
// planner itself drains its writes and drops all state.
func (p *Planner) Logout(ctx context.Context) {
	p.mu.Lock()
	subscribed := p.bus != nil && p.unsubscribe != nil
	p.mu.Unlock()
	if subscribed {
		p.bus.Publish(ctx, session.EventLoggedOut, p.session)
		return
	}
	p.shutdown(ctx)
}

func (p *Planner) onSessionEvent(ctx context.Context, event session.Event, s session.Session) {
	if event != session.EventLoggedOut || s.UserID != p.session.UserID {
		return
	}
	p.shutdown(ctx)
}

func (p *Planner) shutdown(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	ctx = p.ctx(ctx)

	if err := p.sync.Flush(ctx); err != nil {
		p.logg.Warn(ctx, "logout before queued plan writes finished")
	}
	_ = p.sync.Close()
	if err := p.cache.Clear(ctx, p.session.UserID); err != nil {
		p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "could not clear cached snapshots")
	}
	p.store.Reset()
	p.snapshot.Replace(nil)
	p.catalog.ReplaceSuggested(nil)
	p.catalog.ReplaceGeneric(nil)
	p.catalog.ReplaceCustom(nil)
	p.warned = make(map[string]enums.FoodStatus)
	p.logg.Info(ctx, "session closed")
}

// Close stops the planner without broadcasting a logout. Queued writes are
// still applied before it returns.
func (p *Planner) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	p.closed = true
	return p.sync.Close()
}
