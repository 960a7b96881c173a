package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ecoeats/mealplanner/pkg/enums"
	pkgerrors "github.com/ecoeats/mealplanner/pkg/errors"
	"github.com/ecoeats/mealplanner/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type staticToken string

func (s staticToken) BearerToken() string { return string(s) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: rt})}, opts...)
	client, err := New("http://backend.test/", opts...)
	require.NoError(t, err)
	return client
}

func TestGetPlanBuildsQueryAndNormalizes(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `{"_id":"p1","user_id":"me","week_start":"2025-01-06T00:00:00.000Z","meals":{"monday":{"breakfast":{"name":"Omelette","type":"recipe","ingredients":[{"id":"a4","name":"Eggs","used_qty":2}]}}}}`), nil
	}, WithTokenSource(staticToken("tok")))

	plan, err := client.GetPlan(context.Background(), "me", "2025-01-06T00:00:00.000Z")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, captured.Method)
	assert.Equal(t, "/mealplan", captured.URL.Path)
	assert.Equal(t, "2025-01-06T00:00:00.000Z", captured.URL.Query().Get("weekStart"))
	assert.Equal(t, "me", captured.URL.Query().Get("userId"))
	assert.Equal(t, "Bearer tok", captured.Header.Get("Authorization"))

	assert.Equal(t, "p1", plan.ID)
	assert.Equal(t, "me", plan.UserID)
	entry := plan.Meals.Get(enums.DayMonday, enums.MealSlotBreakfast)
	require.NotNil(t, entry)
	assert.True(t, entry.Ingredients[0].UsedQty.Equal(types.NewQuantity(2)))
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Empty(t, req.Header.Get("Authorization"))
		return jsonResponse(http.StatusOK, `[]`), nil
	}, WithTokenSource(staticToken("  ")))

	recipes, err := client.GenericRecipes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		rt   roundTripFunc
		code pkgerrors.Code
	}{
		{
			name: "transport",
			rt: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			code: pkgerrors.CodeTransport,
		},
		{
			name: "not found",
			rt: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusNotFound, `{"detail":"Source week not found"}`), nil
			},
			code: pkgerrors.CodeNotFound,
		},
		{
			name: "server error",
			rt: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusInternalServerError, `oops`), nil
			},
			code: pkgerrors.CodeUpstream,
		},
		{
			name: "empty copy",
			rt: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"userId":"me","weekStart":"w1","meals":{}}`), nil
			},
			code: pkgerrors.CodeEmptyResult,
		},
		{
			name: "bad json",
			rt: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{not json`), nil
			},
			code: pkgerrors.CodeUpstream,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.rt)
			_, err := client.CopyPlan(context.Background(), "me", "w0", "w1")
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "expected %s, got %v", tc.code, err)
		})
	}
}

func TestUpstreamErrorCarriesStatus(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, `down`), nil
	})
	err := client.SavePlan(context.Background(), types.NewWeekPlan("me", "w"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, pkgerrors.Dump(err).HTTPStatus)
}

func TestSavePlanSendsFullDocument(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		return jsonResponse(http.StatusOK, `{"status":"saved"}`), nil
	})

	plan := types.NewWeekPlan("me", "2025-01-06T00:00:00.000Z")
	require.NoError(t, client.SavePlan(context.Background(), plan))

	assert.Equal(t, "me", body["userId"])
	assert.Equal(t, "2025-01-06T00:00:00.000Z", body["weekStart"])
	assert.Len(t, body["meals"], 7)
	_, hasID := body["id"]
	assert.False(t, hasID)
}

func TestInventoryAcceptsArrayAndEnvelope(t *testing.T) {
	for _, payload := range []string{
		`[{"_id":"a4","name":"Eggs","quantity":12}]`,
		`{"items":[{"id":"a4","name":"Eggs","quantity":"12"}]}`,
	} {
		client := newTestClient(t, func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, payload), nil
		})
		items, err := client.Inventory(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "a4", items[0].ID)
		assert.True(t, items[0].Quantity.Equal(types.NewQuantity(12)))
	}
}

func TestTemplateEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/mealplan/templates":
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, "Usual week", req["name"])
			_, _ = w.Write([]byte(`{"id":"t1","status":"saved"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/mealplan/templates":
			assert.Equal(t, "me", r.URL.Query().Get("userId"))
			_, _ = w.Write([]byte(`[{"id":"t1","name":"Usual week","user_id":"me","meals":{}}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/mealplan/templates/apply":
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, "t1", req["templateId"])
			_, _ = w.Write([]byte(`{"status":"applied"}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/mealplan/templates/id/t1":
			_, _ = w.Write([]byte(`{"status":"deleted","id":"t1"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	id, err := client.SaveTemplate(ctx, "me", "Usual week", types.WeekMeals{})
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	templates, err := client.ListTemplates(ctx, "me")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "me", templates[0].UserID)

	require.NoError(t, client.ApplyTemplate(ctx, "me", "t1", "w"))
	require.NoError(t, client.DeleteTemplate(ctx, "t1"))

	err = client.DeleteTemplate(ctx, "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(client.DeleteTemplate(ctx, " "), pkgerrors.CodeValidation))
}

func TestCustomRecipeEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/mealplan/custom/me":
			_, _ = w.Write([]byte(`[{"_id":"c1","user_id":"me","name":"Nan's Stew","ingredients":[{"name":"Beef"},{"name":"Carrots"}]}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/mealplan/custom":
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "me", req["user_id"])
			assert.Equal(t, "Stew", req["name"])
			assert.Len(t, req["ingredients"], 1)
			_, _ = w.Write([]byte(`{"inserted_id":"c2"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	recipes, err := client.CustomRecipes(ctx, "me")
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "c1", recipes[0].ID)
	assert.Equal(t, []string{"beef", "carrots"}, recipes[0].Keywords())

	id, err := client.CreateCustomRecipe(ctx, "me", types.Recipe{Name: "Stew", Ingredients: []types.Ingredient{{Name: "Beef"}}})
	require.NoError(t, err)
	assert.Equal(t, "c2", id)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}
