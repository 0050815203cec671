package handler

import (
	"net/http"
	"time"

	"recipe-service/internal/model"
	"recipe-service/pkg/database"
	"recipe-service/pkg/logger"
	"recipe-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListIngredients handles retrieving the caller's ingredients with optional filtering
func ListIngredients(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordResourceOperation("ingredient", "list")

	db := database.GetDB()
	query := db.Where("user_id = ?", user.ID).Order("name DESC")

	// Restrict to ingredients attached to at least one of the caller's recipes
	if truthyParam(c.QueryParam("assigned_only")) {
		assigned := db.Table("recipe_ingredients").
			Select("recipe_ingredients.ingredient_id").
			Joins("JOIN recipes ON recipes.id = recipe_ingredients.recipe_id").
			Where("recipes.user_id = ?", user.ID)
		query = query.Where("id IN (?)", assigned)
		log.Info("Filtering ingredients by assignment", zap.Uint("user_id", user.ID))
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var ingredients []model.Ingredient
	if result := query.Find(&ingredients); result.Error != nil {
		log.Error("Failed to list ingredients", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve ingredients"})
	}

	return c.JSON(http.StatusOK, ingredients)
}

// CreateIngredient handles creating an ingredient directly
func CreateIngredient(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req nameDescriptor
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid ingredient payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		log.Error("Invalid ingredient data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": validationFields(err)})
	}

	prometheus.RecordResourceOperation("ingredient", "create")

	ingredients, err := reconcileIngredients(database.GetDB(), user.ID, []nameDescriptor{req})
	if err != nil {
		log.Error("Failed to create ingredient", zap.Error(err))
		if err == errEmptyName {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must not be empty"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create ingredient"})
	}

	log.Info("Ingredient created", zap.Uint("user_id", user.ID), zap.String("name", ingredients[0].Name))
	return c.JSON(http.StatusCreated, ingredients[0])
}

// GetIngredient handles retrieving a single ingredient by ID, scoped to the caller
func GetIngredient(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	var ingredient model.Ingredient
	result := database.GetDB().Where("user_id = ?", user.ID).First(&ingredient, "id = ?", id)
	if result.Error != nil {
		log.Warn("Ingredient not found", zap.String("ingredient_id", id), zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ingredient not found"})
	}

	return c.JSON(http.StatusOK, ingredient)
}

// UpdateIngredient handles renaming an ingredient
func UpdateIngredient(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	var ingredient model.Ingredient
	result := database.GetDB().Where("user_id = ?", user.ID).First(&ingredient, "id = ?", id)
	if result.Error != nil {
		log.Warn("Ingredient not found for update", zap.String("ingredient_id", id), zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ingredient not found"})
	}

	var req nameDescriptor
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid ingredient payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		log.Error("Invalid ingredient data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": validationFields(err)})
	}

	prometheus.RecordResourceOperation("ingredient", "update")

	ingredient.Name = req.Name
	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&ingredient); result.Error != nil {
		if isDuplicateKey(result.Error) {
			log.Warn("Ingredient name already taken", zap.Uint("user_id", user.ID), zap.String("name", req.Name))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"name": "you already have an ingredient with this name"}})
		}
		log.Error("Failed to update ingredient", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update ingredient"})
	}

	log.Info("Ingredient updated", zap.Uint("ingredient_id", ingredient.ID), zap.String("name", ingredient.Name))
	return c.JSON(http.StatusOK, ingredient)
}

// DeleteIngredient handles deleting an ingredient and its recipe associations
func DeleteIngredient(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	var ingredient model.Ingredient
	result := database.GetDB().Where("user_id = ?", user.ID).First(&ingredient, "id = ?", id)
	if result.Error != nil {
		log.Warn("Ingredient not found for deletion", zap.String("ingredient_id", id), zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ingredient not found"})
	}

	prometheus.RecordResourceOperation("ingredient", "delete")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM recipe_ingredients WHERE ingredient_id = ?", ingredient.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&ingredient).Error
	}); err != nil {
		log.Error("Failed to delete ingredient", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete ingredient"})
	}

	log.Info("Ingredient deleted", zap.Uint("ingredient_id", ingredient.ID), zap.Uint("user_id", user.ID))
	return c.NoContent(http.StatusNoContent)
}
