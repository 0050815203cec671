package handler

import (
	"fmt"
	"net/http"
	"testing"

	"recipe-service/internal/model"
	"recipe-service/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRecipesRequiresAuth(t *testing.T) {
	e := setupTest(t)

	rec := doJSON(e, http.MethodGet, "/recipe/recipes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListRecipesScopedAndOrdered(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	other := createUser(t, "two@example.com")
	token := issueTestToken(t, user)

	first := createTestRecipe(t, user, "First")
	second := createTestRecipe(t, user, "Second")
	createTestRecipe(t, other, "Foreign")

	rec := doJSON(e, http.MethodGet, "/recipe/recipes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	recipes := decodeList(t, rec)
	require.Len(t, recipes, 2)
	// Ordered by id, descending
	assert.EqualValues(t, second.ID, recipes[0]["id"])
	assert.EqualValues(t, first.ID, recipes[1]["id"])
	// List representation carries no description or image
	assert.NotContains(t, recipes[0], "description")
	assert.NotContains(t, recipes[0], "image")
}

func TestCreateRecipe(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	rec := doJSON(e, http.MethodPost, "/recipe/recipes", token, map[string]interface{}{
		"title":        "Thai Curry",
		"time_minutes": 30,
		"price":        "5.25",
		"link":         "https://example.com/curry",
		"description":  "Spicy",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeMap(t, rec)
	assert.Equal(t, "Thai Curry", body["title"])
	assert.EqualValues(t, 30, body["time_minutes"])
	assert.Equal(t, "5.25", body["price"])
	assert.Equal(t, "Spicy", body["description"])

	var recipe model.Recipe
	require.NoError(t, database.GetDB().Where("user_id = ?", user.ID).First(&recipe).Error)
	assert.Equal(t, "Thai Curry", recipe.Title)
}

func TestCreateRecipeMissingTitle(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	rec := doJSON(e, http.MethodPost, "/recipe/recipes", token, map[string]interface{}{
		"time_minutes": 30,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	database.GetDB().Model(&model.Recipe{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestCreateRecipeWithNewTags(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	rec := doJSON(e, http.MethodPost, "/recipe/recipes", token, map[string]interface{}{
		"title": "Thai Curry",
		"tags": []map[string]string{
			{"name": "Thai"},
			{"name": "Dinner"},
		},
		"ingredients": []map[string]string{
			{"name": "Coconut Milk"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeMap(t, rec)
	assert.Len(t, body["tags"], 2)
	assert.Len(t, body["ingredients"], 1)

	var tagCount int64
	database.GetDB().Model(&model.Tag{}).Where("user_id = ?", user.ID).Count(&tagCount)
	assert.EqualValues(t, 2, tagCount)
}

func TestCreateRecipeWithExistingTag(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	existing := createTag(t, user, "Thai")

	rec := doJSON(e, http.MethodPost, "/recipe/recipes", token, map[string]interface{}{
		"title": "Thai Curry",
		"tags": []map[string]string{
			{"name": "Thai"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The existing row was attached, no duplicate created
	var count int64
	database.GetDB().Model(&model.Tag{}).Where("user_id = ? AND name = ?", user.ID, "Thai").Count(&count)
	assert.EqualValues(t, 1, count)

	var joined int64
	database.GetDB().Table("recipe_tags").Where("tag_id = ?", existing.ID).Count(&joined)
	assert.EqualValues(t, 1, joined)
}

func TestCreateRecipeBlankTagNameRejected(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	rec := doJSON(e, http.MethodPost, "/recipe/recipes", token, map[string]interface{}{
		"title": "Curry",
		"tags": []map[string]string{
			{"name": "   "},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// The transaction rolled back, so neither the recipe nor any tag landed
	var recipes int64
	database.GetDB().Model(&model.Recipe{}).Where("user_id = ?", user.ID).Count(&recipes)
	assert.EqualValues(t, 0, recipes)

	var tags int64
	database.GetDB().Model(&model.Tag{}).Where("user_id = ?", user.ID).Count(&tags)
	assert.EqualValues(t, 0, tags)
}

func TestGetRecipeDetail(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)
	recipe := createTestRecipe(t, user, "Curry")

	rec := doJSON(e, http.MethodGet, fmt.Sprintf("/recipe/recipes/%d", recipe.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	assert.Equal(t, "Curry", body["title"])
	assert.Contains(t, body, "description")
	assert.Contains(t, body, "image")
}

func TestGetForeignRecipeNotFound(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	other := createUser(t, "two@example.com")
	token := issueTestToken(t, user)
	recipe := createTestRecipe(t, other, "Foreign")

	rec := doJSON(e, http.MethodGet, fmt.Sprintf("/recipe/recipes/%d", recipe.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchRecipeScalarsOnly(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	recipe := createTestRecipe(t, user, "Curry")
	attachTagToRecipe(t, recipe, createTag(t, user, "Thai"))

	rec := doJSON(e, http.MethodPatch, fmt.Sprintf("/recipe/recipes/%d", recipe.ID), token, map[string]interface{}{
		"title": "Green Curry",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	assert.Equal(t, "Green Curry", body["title"])
	// Absent tags field leaves the association untouched
	assert.Len(t, body["tags"], 1)
}

func TestPatchRecipeAttachesExistingTag(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	recipe := createTestRecipe(t, user, "Curry")
	createTag(t, user, "Tag1")

	rec := doJSON(e, http.MethodPatch, fmt.Sprintf("/recipe/recipes/%d", recipe.ID), token, map[string]interface{}{
		"tags": []map[string]string{{"name": "Tag1"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	database.GetDB().Model(&model.Tag{}).Where("user_id = ? AND name = ?", user.ID, "Tag1").Count(&count)
	assert.EqualValues(t, 1, count)

	body := decodeMap(t, rec)
	require.Len(t, body["tags"], 1)
}

func TestPatchRecipeCreatesMissingTag(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)
	recipe := createTestRecipe(t, user, "Curry")

	rec := doJSON(e, http.MethodPatch, fmt.Sprintf("/recipe/recipes/%d", recipe.ID), token, map[string]interface{}{
		"tags": []map[string]string{{"name": "Brand New"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	database.GetDB().Model(&model.Tag{}).Where("user_id = ? AND name = ?", user.ID, "Brand New").Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestPatchRecipeEmptyTagListClears(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	recipe := createTestRecipe(t, user, "Curry")
	attachTagToRecipe(t, recipe, createTag(t, user, "Thai"))

	rec := doJSON(e, http.MethodPatch, fmt.Sprintf("/recipe/recipes/%d", recipe.ID), token, map[string]interface{}{
		"tags": []map[string]string{},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	assert.Len(t, body["tags"], 0)

	var joined int64
	database.GetDB().Table("recipe_tags").Where("recipe_id = ?", recipe.ID).Count(&joined)
	assert.EqualValues(t, 0, joined)
}

func TestPutRecipeReplacesFields(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)
	recipe := createTestRecipe(t, user, "Curry")

	rec := doJSON(e, http.MethodPut, fmt.Sprintf("/recipe/recipes/%d", recipe.ID), token, map[string]interface{}{
		"title":        "Replaced",
		"time_minutes": 45,
		"price":        "9.99",
		"link":         "https://example.com/new",
		"description":  "Rewritten",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	assert.Equal(t, "Replaced", body["title"])
	assert.EqualValues(t, 45, body["time_minutes"])
	assert.Equal(t, "9.99", body["price"])
}

func TestPutRecipeMissingFieldsRejected(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)
	recipe := createTestRecipe(t, user, "Curry")

	rec := doJSON(e, http.MethodPut, fmt.Sprintf("/recipe/recipes/%d", recipe.ID), token, map[string]interface{}{
		"title": "Replaced",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeMap(t, rec)
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "time_minutes")
	assert.Contains(t, fields, "price")

	var unchanged model.Recipe
	require.NoError(t, database.GetDB().First(&unchanged, recipe.ID).Error)
	assert.Equal(t, "Curry", unchanged.Title)
}

func TestPatchForeignRecipeNotFound(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	other := createUser(t, "two@example.com")
	token := issueTestToken(t, user)
	recipe := createTestRecipe(t, other, "Foreign")

	rec := doJSON(e, http.MethodPatch, fmt.Sprintf("/recipe/recipes/%d", recipe.ID), token, map[string]interface{}{
		"title": "Hijacked",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRecipe(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	recipe := createTestRecipe(t, user, "Curry")
	attachTagToRecipe(t, recipe, createTag(t, user, "Thai"))

	rec := doJSON(e, http.MethodDelete, fmt.Sprintf("/recipe/recipes/%d", recipe.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	database.GetDB().Model(&model.Recipe{}).Where("id = ?", recipe.ID).Count(&count)
	assert.EqualValues(t, 0, count)

	// The tag itself survives, only the association is gone
	var tagCount int64
	database.GetDB().Model(&model.Tag{}).Where("user_id = ?", user.ID).Count(&tagCount)
	assert.EqualValues(t, 1, tagCount)

	var joined int64
	database.GetDB().Table("recipe_tags").Where("recipe_id = ?", recipe.ID).Count(&joined)
	assert.EqualValues(t, 0, joined)
}

func TestFilterRecipesByTags(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	thai := createTag(t, user, "Thai")
	dessert := createTag(t, user, "Dessert")

	curry := createTestRecipe(t, user, "Curry")
	cake := createTestRecipe(t, user, "Cake")
	createTestRecipe(t, user, "Plain Toast")

	attachTagToRecipe(t, curry, thai)
	attachTagToRecipe(t, cake, dessert)

	rec := doJSON(e, http.MethodGet, fmt.Sprintf("/recipe/recipes?tags=%d,%d", thai.ID, dessert.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	recipes := decodeList(t, rec)
	require.Len(t, recipes, 2)
	titles := []string{recipes[0]["title"].(string), recipes[1]["title"].(string)}
	assert.Contains(t, titles, "Curry")
	assert.Contains(t, titles, "Cake")
}

func TestFilterRecipesByIngredients(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	coconut := createIngredient(t, user, "Coconut Milk")

	curry := createTestRecipe(t, user, "Curry")
	createTestRecipe(t, user, "Plain Toast")
	attachIngredientToRecipe(t, curry, coconut)

	rec := doJSON(e, http.MethodGet, fmt.Sprintf("/recipe/recipes?ingredients=%d", coconut.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	recipes := decodeList(t, rec)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Curry", recipes[0]["title"])
}

func TestFilterRecipesByTagsAndIngredients(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	thai := createTag(t, user, "Thai")
	coconut := createIngredient(t, user, "Coconut Milk")

	both := createTestRecipe(t, user, "Curry")
	tagOnly := createTestRecipe(t, user, "Pad Thai")

	attachTagToRecipe(t, both, thai)
	attachIngredientToRecipe(t, both, coconut)
	attachTagToRecipe(t, tagOnly, thai)

	// Both dimensions must match
	rec := doJSON(e, http.MethodGet, fmt.Sprintf("/recipe/recipes?tags=%d&ingredients=%d", thai.ID, coconut.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	recipes := decodeList(t, rec)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Curry", recipes[0]["title"])
}

func TestFilterRecipesBadIDList(t *testing.T) {
	e := setupTest(t)
	user := createUser(t, "one@example.com")
	token := issueTestToken(t, user)

	rec := doJSON(e, http.MethodGet, "/recipe/recipes?tags=1,abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
