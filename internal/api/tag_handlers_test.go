package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTag(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "cook@example.com")

	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "Dessert"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var tag TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tag))
	assert.Contains(t, tag.ID, "tag-")
	assert.Equal(t, "Dessert", tag.Name)
}

func TestCreateTag_Duplicate(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "cook@example.com")

	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "Dessert"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "Dessert"})
	assert.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())
}

func TestListTags_NameDescending(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "cook@example.com")
	otherToken, _ := ts.createTestUser(t, "other@example.com")

	for _, name := range []string{"Breakfast", "Vegan", "Dinner"} {
		resp := ts.api.Post("/api/v1/tags",
			"Authorization: Bearer "+token,
			map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, resp.Code)
	}
	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+otherToken,
		map[string]any{"name": "Foreign"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var tags []TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tags))
	require.Len(t, tags, 3)
	assert.Equal(t, "Vegan", tags[0].Name)
	assert.Equal(t, "Dinner", tags[1].Name)
	assert.Equal(t, "Breakfast", tags[2].Name)
}

func TestListTags_AssignedOnly(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "cook@example.com")

	// One tag via a recipe (assigned), one standalone.
	ts.createTestRecipe(t, token, "Pasta")
	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "Unused"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Get("/api/v1/tags?assigned_only=true", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var tags []TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tags))
	require.Len(t, tags, 1)
	assert.Equal(t, "Dinner", tags[0].Name)
}

func TestUpdateTag_ForeignIs404(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "cook@example.com")
	otherToken, _ := ts.createTestUser(t, "other@example.com")

	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "Dessert"})
	require.Equal(t, http.StatusCreated, resp.Code)

	var tag TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tag))

	resp = ts.api.Patch("/api/v1/tags/"+tag.ID,
		"Authorization: Bearer "+otherToken,
		map[string]any{"name": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Patch("/api/v1/tags/"+tag.ID,
		"Authorization: Bearer "+token,
		map[string]any{"name": "Dinner"})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestDeleteTag_KeepsRecipe(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "cook@example.com")

	recipe := ts.createTestRecipe(t, token, "Pasta")

	resp := ts.api.Delete("/api/v1/tags/"+recipe.Tags[0].ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/recipes/"+recipe.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var fetched RecipeResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fetched))
	assert.Empty(t, fetched.Tags)
}

func TestIngredientEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.createTestUser(t, "cook@example.com")

	resp := ts.api.Post("/api/v1/ingredients",
		"Authorization: Bearer "+token,
		map[string]any{"name": "Cumin"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var ing IngredientResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &ing))
	assert.Contains(t, ing.ID, "ing-")

	resp = ts.api.Patch("/api/v1/ingredients/"+ing.ID,
		"Authorization: Bearer "+token,
		map[string]any{"name": "Coriander"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/ingredients", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	var ingredients []IngredientResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &ingredients))
	require.Len(t, ingredients, 1)
	assert.Equal(t, "Coriander", ingredients[0].Name)

	resp = ts.api.Delete("/api/v1/ingredients/"+ing.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}
