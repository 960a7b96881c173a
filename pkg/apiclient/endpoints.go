package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/ecoeats/mealplanner/pkg/errors"
	"github.com/ecoeats/mealplanner/pkg/types"
)

// Inventory fetches the caller's food items. Both a bare array and an
// {"items": [...]} envelope are accepted.
func (c *Client) Inventory(ctx context.Context) ([]types.FoodItem, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/inventory", nil, nil, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[types.FoodItem](raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode inventory")
	}
	return items, nil
}

// SuggestedRecipes fetches the user's suggested recipes.
func (c *Client) SuggestedRecipes(ctx context.Context, userID string) ([]types.Recipe, error) {
	var recipes []types.Recipe
	if err := c.do(ctx, http.MethodGet, "/mealplan/suggested/"+url.PathEscape(userID), nil, nil, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GenericRecipes fetches the shared generic recipe list.
func (c *Client) GenericRecipes(ctx context.Context) ([]types.Recipe, error) {
	var recipes []types.Recipe
	if err := c.do(ctx, http.MethodGet, "/mealplan/generic", nil, nil, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetPlan fetches one week. A missing week surfaces as NOT_FOUND.
func (c *Client) GetPlan(ctx context.Context, userID, weekStart string) (*types.WeekPlan, error) {
	query := url.Values{}
	query.Set("weekStart", weekStart)
	query.Set("userId", userID)

	var plan types.WeekPlan
	if err := c.do(ctx, http.MethodGet, "/mealplan", query, nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// SavePlan replaces the stored document for the plan's user and week.
func (c *Client) SavePlan(ctx context.Context, plan *types.WeekPlan) error {
	if plan == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "plan is required")
	}
	return c.do(ctx, http.MethodPut, "/mealplan", nil, plan, nil)
}

// CustomRecipes fetches the recipes the user created.
func (c *Client) CustomRecipes(ctx context.Context, userID string) ([]types.Recipe, error) {
	var recipes []types.Recipe
	if err := c.do(ctx, http.MethodGet, "/mealplan/custom/"+url.PathEscape(userID), nil, nil, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

type createCustomRequest struct {
	UserID      string             `json:"user_id"`
	Name        string             `json:"name"`
	Ingredients []types.Ingredient `json:"ingredients"`
}

type createCustomResponse struct {
	InsertedID string `json:"inserted_id"`
}

// CreateCustomRecipe stores a recipe for userID and returns its id.
func (c *Client) CreateCustomRecipe(ctx context.Context, userID string, recipe types.Recipe) (string, error) {
	var resp createCustomResponse
	body := createCustomRequest{UserID: userID, Name: recipe.Name, Ingredients: recipe.Ingredients}
	if err := c.do(ctx, http.MethodPost, "/mealplan/custom", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.InsertedID, nil
}

type copyRequest struct {
	UserID        string `json:"userId"`
	FromWeekStart string `json:"fromWeekStart"`
	ToWeekStart   string `json:"toWeekStart"`
}

// CopyPlan asks the backend to duplicate from into to and returns the
// resulting document. A successful copy that carries no meals is reported as
// EMPTY_RESULT.
func (c *Client) CopyPlan(ctx context.Context, userID, from, to string) (*types.WeekPlan, error) {
	var plan types.WeekPlan
	body := copyRequest{UserID: userID, FromWeekStart: from, ToWeekStart: to}
	if err := c.do(ctx, http.MethodPost, "/mealplan/copy", nil, body, &plan); err != nil {
		return nil, err
	}
	if plan.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyResult, "copy returned no meals").
			WithDetails(map[string]any{"from": from, "to": to})
	}
	return &plan, nil
}

type saveTemplateRequest struct {
	Name   string          `json:"name"`
	Meals  types.WeekMeals `json:"meals"`
	UserID string          `json:"userId"`
}

type saveTemplateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SaveTemplate stores meals under name and returns the new template id.
func (c *Client) SaveTemplate(ctx context.Context, userID, name string, meals types.WeekMeals) (string, error) {
	var resp saveTemplateResponse
	body := saveTemplateRequest{Name: name, Meals: meals, UserID: userID}
	if err := c.do(ctx, http.MethodPost, "/mealplan/templates", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ListTemplates returns the user's templates, newest first.
func (c *Client) ListTemplates(ctx context.Context, userID string) ([]types.Template, error) {
	query := url.Values{}
	query.Set("userId", userID)
	var templates []types.Template
	if err := c.do(ctx, http.MethodGet, "/mealplan/templates", query, nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// DeleteTemplate removes a template by id.
func (c *Client) DeleteTemplate(ctx context.Context, templateID string) error {
	if strings.TrimSpace(templateID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "template id is required")
	}
	return c.do(ctx, http.MethodDelete, "/mealplan/templates/id/"+url.PathEscape(templateID), nil, nil, nil)
}

type applyTemplateRequest struct {
	TemplateID string `json:"templateId"`
	UserID     string `json:"userId"`
	WeekStart  string `json:"weekStart"`
}

// ApplyTemplate writes the template's meals into weekStart on the backend.
func (c *Client) ApplyTemplate(ctx context.Context, userID, templateID, weekStart string) error {
	body := applyTemplateRequest{TemplateID: templateID, UserID: userID, WeekStart: weekStart}
	return c.do(ctx, http.MethodPost, "/mealplan/templates/apply", nil, body, nil)
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var envelope struct {
		Items []T `json:"items"`
		Data  []T `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	if envelope.Items != nil {
		return envelope.Items, nil
	}
	if envelope.Data == nil {
		return []T{}, nil
	}
	return envelope.Data, nil
}
