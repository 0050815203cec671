package handler

import (
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"recipe-service/internal/model"
	"recipe-service/pkg/config"
	"recipe-service/pkg/database"
	"recipe-service/pkg/logger"
	"recipe-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var mediaURLPrefix string

// InitRecipeHandler initializes the recipe handlers with configuration
func InitRecipeHandler(cfg *config.Config) {
	mediaURLPrefix = strings.TrimRight(cfg.Media.URLPrefix, "/")
}

// RecipeRequest defines the structure for recipe creation/update requests.
// Pointer fields distinguish absent fields from zero values so partial
// updates only touch what the caller sent.
type RecipeRequest struct {
	Title       *string           `json:"title"`
	TimeMinutes *uint             `json:"time_minutes"`
	Price       *decimal.Decimal  `json:"price"`
	Link        *string           `json:"link"`
	Description *string           `json:"description"`
	Tags        *[]nameDescriptor `json:"tags" validate:"omitempty,dive"`
	Ingredients *[]nameDescriptor `json:"ingredients" validate:"omitempty,dive"`
}

// recipeListItem is the list representation of a recipe
type recipeListItem struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	TimeMinutes uint               `json:"time_minutes"`
	Price       decimal.Decimal    `json:"price"`
	Link        string             `json:"link"`
	Tags        []model.Tag        `json:"tags"`
	Ingredients []model.Ingredient `json:"ingredients"`
}

// recipeDetail adds the fields only exposed on detail responses
type recipeDetail struct {
	recipeListItem
	Description string `json:"description"`
	Image       string `json:"image"`
}

func toListItem(r model.Recipe) recipeListItem {
	if r.Tags == nil {
		r.Tags = []model.Tag{}
	}
	if r.Ingredients == nil {
		r.Ingredients = []model.Ingredient{}
	}
	return recipeListItem{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        r.Tags,
		Ingredients: r.Ingredients,
	}
}

func toDetail(r model.Recipe) recipeDetail {
	return recipeDetail{
		recipeListItem: toListItem(r),
		Description:    r.Description,
		Image:          mediaURL(r.Image),
	}
}

// mediaURL maps a stored media-relative path to its public URL
func mediaURL(rel string) string {
	if rel == "" {
		return ""
	}
	return mediaURLPrefix + "/" + path.Clean(filepath.ToSlash(rel))
}

// findRecipe loads a recipe by ID scoped to the owner, with associations
func findRecipe(db *gorm.DB, userID uint, id string) (model.Recipe, error) {
	var recipe model.Recipe
	err := db.Preload("Tags").Preload("Ingredients").
		Where("user_id = ?", userID).
		First(&recipe, "id = ?", id).Error
	return recipe, err
}

// ListRecipes handles retrieving the caller's recipes with optional
// tag/ingredient ID filtering
func ListRecipes(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordResourceOperation("recipe", "list")

	db := database.GetDB()
	query := db.Preload("Tags").Preload("Ingredients").
		Where("user_id = ?", user.ID).
		Order("id DESC")

	// Comma-separated tag IDs: a recipe matches when linked to any of them
	if tagsParam := c.QueryParam("tags"); tagsParam != "" {
		tagIDs, err := parseIDList(tagsParam)
		if err != nil {
			log.Warn("Invalid tags filter", zap.String("value", tagsParam), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tags filter must be a comma-separated list of ids"})
		}
		tagged := db.Table("recipe_tags").Select("recipe_id").Where("tag_id IN ?", tagIDs)
		query = query.Where("id IN (?)", tagged)
	}

	// Same for ingredient IDs; both filters together must both match
	if ingredientsParam := c.QueryParam("ingredients"); ingredientsParam != "" {
		ingredientIDs, err := parseIDList(ingredientsParam)
		if err != nil {
			log.Warn("Invalid ingredients filter", zap.String("value", ingredientsParam), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ingredients filter must be a comma-separated list of ids"})
		}
		linked := db.Table("recipe_ingredients").Select("recipe_id").Where("ingredient_id IN ?", ingredientIDs)
		query = query.Where("id IN (?)", linked)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var recipes []model.Recipe
	if result := query.Find(&recipes); result.Error != nil {
		log.Error("Failed to list recipes", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve recipes"})
	}

	items := make([]recipeListItem, 0, len(recipes))
	for _, recipe := range recipes {
		items = append(items, toListItem(recipe))
	}

	log.Info("Recipes retrieved", zap.Int("count", len(items)), zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, items)
}

// GetRecipe handles retrieving a single recipe by ID, scoped to the caller
func GetRecipe(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	recipe, err := findRecipe(database.GetDB(), user.ID, id)
	if err != nil {
		log.Warn("Recipe not found", zap.String("recipe_id", id), zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "recipe not found"})
	}

	return c.JSON(http.StatusOK, toDetail(recipe))
}

// CreateRecipe handles creating a recipe with nested tag/ingredient lists
func CreateRecipe(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req RecipeRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid recipe payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		log.Error("Invalid recipe data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": validationFields(err)})
	}

	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		log.Error("Recipe title missing")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"title": "this field is required"}})
	}

	prometheus.RecordResourceOperation("recipe", "create")

	recipe := model.Recipe{
		UserID: user.ID,
		Title:  *req.Title,
		Price:  decimal.Zero,
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		recipe.Price = *req.Price
	}
	if req.Link != nil {
		recipe.Link = *req.Link
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}

	// Scalar insert and nested reconciliation share one transaction so a
	// failed write leaves nothing behind
	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Create(&recipe).Error; err != nil {
			return err
		}
		if req.Tags != nil {
			if err := attachTags(tx, &recipe, user.ID, *req.Tags); err != nil {
				return err
			}
		}
		if req.Ingredients != nil {
			if err := attachIngredients(tx, &recipe, user.ID, *req.Ingredients); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to create recipe", zap.Error(err))
		if err == errEmptyName {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"name": "this field is required"}})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create recipe"})
	}

	created, err := findRecipe(database.GetDB(), user.ID, strconv.FormatUint(uint64(recipe.ID), 10))
	if err != nil {
		log.Error("Failed to reload recipe", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create recipe"})
	}

	log.Info("Recipe created", zap.Uint("recipe_id", created.ID), zap.Uint("user_id", user.ID), zap.String("title", created.Title))
	return c.JSON(http.StatusCreated, toDetail(created))
}

// UpdateRecipe handles full and partial recipe updates. Present scalar
// fields are applied; a present tags/ingredients list (even empty) clears
// the existing associations before the reconciler re-attaches.
func UpdateRecipe(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	recipe, err := findRecipe(database.GetDB(), user.ID, id)
	if err != nil {
		log.Warn("Recipe not found for update", zap.String("recipe_id", id), zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "recipe not found"})
	}

	var req RecipeRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid recipe payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		log.Error("Invalid recipe data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": validationFields(err)})
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		log.Error("Recipe title blank")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"title": "this field is required"}})
	}

	// PUT replaces the recipe, so the core fields must all be present.
	// PATCH applies only what the caller sent.
	if c.Request().Method == http.MethodPut {
		if fields := missingPutFields(req); len(fields) > 0 {
			log.Error("Incomplete recipe replacement", zap.Any("fields", fields))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
		}
	}

	prometheus.RecordResourceOperation("recipe", "update")

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.TimeMinutes != nil {
		updates["time_minutes"] = *req.TimeMinutes
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Link != nil {
		updates["link"] = *req.Link
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Tags != nil {
			if err := attachTags(tx, &recipe, user.ID, *req.Tags); err != nil {
				return err
			}
		}
		if req.Ingredients != nil {
			if err := attachIngredients(tx, &recipe, user.ID, *req.Ingredients); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to update recipe", zap.Error(err))
		if err == errEmptyName {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"name": "this field is required"}})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update recipe"})
	}

	updated, err := findRecipe(database.GetDB(), user.ID, id)
	if err != nil {
		log.Error("Failed to reload recipe", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update recipe"})
	}

	log.Info("Recipe updated", zap.Uint("recipe_id", updated.ID), zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, toDetail(updated))
}

// missingPutFields reports the core fields a full replacement left out
func missingPutFields(req RecipeRequest) echo.Map {
	fields := echo.Map{}
	if req.Title == nil {
		fields["title"] = "this field is required"
	}
	if req.TimeMinutes == nil {
		fields["time_minutes"] = "this field is required"
	}
	if req.Price == nil {
		fields["price"] = "this field is required"
	}
	return fields
}

// DeleteRecipe handles deleting a recipe, its associations and stored image
func DeleteRecipe(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	recipe, err := findRecipe(database.GetDB(), user.ID, id)
	if err != nil {
		log.Warn("Recipe not found for deletion", zap.String("recipe_id", id), zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "recipe not found"})
	}

	prometheus.RecordResourceOperation("recipe", "delete")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Select(clause.Associations).Delete(&recipe).Error; err != nil {
		log.Error("Failed to delete recipe", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete recipe"})
	}

	removeStoredImage(c, recipe.Image)

	log.Info("Recipe deleted", zap.Uint("recipe_id", recipe.ID), zap.Uint("user_id", user.ID))
	return c.NoContent(http.StatusNoContent)
}

// attachTags clears the recipe's tag set and re-attaches the reconciled rows
func attachTags(tx *gorm.DB, recipe *model.Recipe, userID uint, descriptors []nameDescriptor) error {
	tags, err := reconcileTags(tx, userID, descriptors)
	if err != nil {
		return err
	}
	if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
		return err
	}
	if len(tags) > 0 {
		return tx.Model(recipe).Association("Tags").Append(&tags)
	}
	return nil
}

// attachIngredients mirrors attachTags for ingredients
func attachIngredients(tx *gorm.DB, recipe *model.Recipe, userID uint, descriptors []nameDescriptor) error {
	ingredients, err := reconcileIngredients(tx, userID, descriptors)
	if err != nil {
		return err
	}
	if err := tx.Model(recipe).Association("Ingredients").Clear(); err != nil {
		return err
	}
	if len(ingredients) > 0 {
		return tx.Model(recipe).Association("Ingredients").Append(&ingredients)
	}
	return nil
}
