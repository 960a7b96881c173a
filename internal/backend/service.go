package backend

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ecoeats/mealplanner/internal/inventory"
	"github.com/ecoeats/mealplanner/internal/recipes"
	pkgerrors "github.com/ecoeats/mealplanner/pkg/errors"
	"github.com/ecoeats/mealplanner/pkg/types"
	"github.com/google/uuid"
)

// Service is the in-memory stand-in for the EcoEats REST backend.
type Service interface {
	Inventory(ctx context.Context) []types.FoodItem
	SuggestedRecipes(ctx context.Context, userID string) []SuggestedRecipe
	GenericRecipes(ctx context.Context) []types.Recipe
	CustomRecipes(ctx context.Context, userID string) []types.Recipe
	CreateCustomRecipe(ctx context.Context, userID string, recipe types.Recipe) (string, error)
	GetPlan(ctx context.Context, userID, weekStart string) (*types.WeekPlan, error)
	SavePlan(ctx context.Context, plan *types.WeekPlan) (SaveResult, error)
	CopyPlan(ctx context.Context, userID, from, to string) (*types.WeekPlan, error)
	SaveTemplate(ctx context.Context, userID, name string, meals types.WeekMeals) (string, error)
	ListTemplates(ctx context.Context, userID string) []types.Template
	DeleteTemplate(ctx context.Context, templateID string) error
	ApplyTemplate(ctx context.Context, userID, templateID, weekStart string) error
}

// Seed is the initial content of the stub.
type Seed struct {
	Inventory []types.FoodItem
	Suggested []types.Recipe
	Generic   []types.Recipe
}

// DefaultSeed is the sample inventory and built-in recipe lists.
func DefaultSeed() Seed {
	return Seed{
		Inventory: inventory.SampleItems(),
		Suggested: recipes.FallbackSuggested(),
		Generic:   recipes.FallbackGeneric(),
	}
}

type planKey struct {
	userID    string
	weekStart string
}

type template struct {
	types.Template
	created time.Time
}

type service struct {
	mu        sync.RWMutex
	items     []types.FoodItem
	suggested []types.Recipe
	generic   []types.Recipe
	custom    map[string][]types.Recipe
	plans     map[planKey]*types.WeekPlan
	templates map[string]template
	matcher   *recipes.Matcher
	now       func() time.Time
}

// NewService returns an empty-or-seeded in-memory backend.
func NewService(seed Seed, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		items:     append([]types.FoodItem(nil), seed.Inventory...),
		suggested: assignRecipeIDs(seed.Suggested),
		generic:   assignRecipeIDs(seed.Generic),
		custom:    make(map[string][]types.Recipe),
		plans:     make(map[planKey]*types.WeekPlan),
		templates: make(map[string]template),
		matcher:   recipes.NewMatcher(),
		now:       now,
	}
}

func assignRecipeIDs(in []types.Recipe) []types.Recipe {
	out := make([]types.Recipe, 0, len(in))
	for _, r := range in {
		r = r.Clone()
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		out = append(out, r)
	}
	return out
}

func normalizeUser(userID string) string {
	if userID = strings.TrimSpace(userID); userID == "" {
		return DefaultUserID
	}
	return userID
}

func (s *service) Inventory(context.Context) []types.FoodItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.FoodItem(nil), s.items...)
}

// SuggestedRecipes annotates every suggested recipe with how well the current
// inventory covers it, best first. Filtering is left to the client.
func (s *service) SuggestedRecipes(_ context.Context, _ string) []SuggestedRecipe {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SuggestedRecipe, 0, len(s.suggested))
	for _, r := range s.suggested {
		match := s.matcher.Match(r, s.items)
		out = append(out, SuggestedRecipe{
			Recipe:       r.Clone(),
			MatchedItems: match.Available,
			MissingItems: match.Missing,
			MatchPct:     match.Percent,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchPct > out[j].MatchPct })
	return out
}

func (s *service) GenericRecipes(context.Context) []types.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Recipe, 0, len(s.generic))
	for _, r := range s.generic {
		out = append(out, r.Clone())
	}
	return out
}

// CustomRecipes returns the recipes userID created, oldest first.
func (s *service) CustomRecipes(_ context.Context, userID string) []types.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.custom[normalizeUser(userID)]
	out := make([]types.Recipe, 0, len(list))
	for _, r := range list {
		out = append(out, r.Clone())
	}
	return out
}

// CreateCustomRecipe stores a user-authored recipe. Blank ingredient names are
// dropped; a recipe needs a name and at least one ingredient left.
func (s *service) CreateCustomRecipe(_ context.Context, userID string, recipe types.Recipe) (string, error) {
	name := strings.TrimSpace(recipe.Name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Recipe name is required")
	}
	ingredients := make([]types.Ingredient, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" {
			continue
		}
		ingredients = append(ingredients, ing)
	}
	if len(ingredients) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "At least one ingredient is required")
	}

	stored := types.Recipe{ID: uuid.NewString(), Name: name, Ingredients: ingredients}
	userID = normalizeUser(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.custom[userID] = append(s.custom[userID], stored)
	return stored.ID, nil
}

// GetPlan returns NOT_FOUND for a week that was never written.
func (s *service) GetPlan(_ context.Context, userID, weekStart string) (*types.WeekPlan, error) {
	if strings.TrimSpace(weekStart) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weekStart is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[planKey{normalizeUser(userID), weekStart}]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Plan not found")
	}
	return plan.Clone(), nil
}

// SavePlan upserts the whole document for (user, week start).
func (s *service) SavePlan(_ context.Context, plan *types.WeekPlan) (SaveResult, error) {
	if plan == nil || strings.TrimSpace(plan.WeekStart) == "" {
		return SaveResult{}, pkgerrors.New(pkgerrors.CodeValidation, "Missing weekStart or week_start")
	}
	key := planKey{normalizeUser(plan.UserID), plan.WeekStart}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := plan.Clone()
	stored.UserID = key.userID
	modified := 0
	if prev, ok := s.plans[key]; ok {
		stored.ID = prev.ID
		modified = 1
	} else {
		stored.ID = uuid.NewString()
	}
	s.plans[key] = stored
	return SaveResult{Status: StatusSaved, Modified: modified, EntriesSaved: stored.Meals.Count()}, nil
}

// CopyPlan overwrites to with from's grid. A missing source is NOT_FOUND.
func (s *service) CopyPlan(_ context.Context, userID, from, to string) (*types.WeekPlan, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing week start values")
	}
	userID = normalizeUser(userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.plans[planKey{userID, from}]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Source week not found")
	}
	copied := &types.WeekPlan{
		ID:        uuid.NewString(),
		UserID:    userID,
		WeekStart: to,
		Meals:     src.Meals.Clone(),
	}
	s.plans[planKey{userID, to}] = copied
	return copied.Clone(), nil
}

func (s *service) SaveTemplate(_ context.Context, userID, name string, meals types.WeekMeals) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Template name is required")
	}
	now := s.now().UTC()
	tpl := template{
		Template: types.Template{
			ID:        uuid.NewString(),
			UserID:    normalizeUser(userID),
			Name:      name,
			Meals:     meals.Clone(),
			CreatedAt: now.Format(time.RFC3339Nano),
		},
		created: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.ID] = tpl
	return tpl.ID, nil
}

// ListTemplates returns the user's templates newest first.
func (s *service) ListTemplates(_ context.Context, userID string) []types.Template {
	userID = normalizeUser(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]template, 0)
	for _, tpl := range s.templates {
		if tpl.UserID == userID {
			rows = append(rows, tpl)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].created.Equal(rows[j].created) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].created.After(rows[j].created)
	})
	out := make([]types.Template, 0, len(rows))
	for _, tpl := range rows {
		t := tpl.Template
		t.Meals = t.Meals.Clone()
		out = append(out, t)
	}
	return out
}

func (s *service) DeleteTemplate(_ context.Context, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[templateID]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Template not found in DB")
	}
	delete(s.templates, templateID)
	return nil
}

// ApplyTemplate overwrites the target week with the template's grid.
func (s *service) ApplyTemplate(_ context.Context, userID, templateID, weekStart string) error {
	if strings.TrimSpace(templateID) == "" || strings.TrimSpace(weekStart) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Missing templateId or weekStart")
	}
	userID = normalizeUser(userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, ok := s.templates[templateID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Template not found")
	}
	key := planKey{userID, weekStart}
	plan := &types.WeekPlan{UserID: userID, WeekStart: weekStart, Meals: tpl.Meals.Clone()}
	if prev, ok := s.plans[key]; ok {
		plan.ID = prev.ID
	} else {
		plan.ID = uuid.NewString()
	}
	s.plans[key] = plan
	return nil
}
