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

// ListTags handles retrieving the caller's tags with optional filtering
func ListTags(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	prometheus.RecordResourceOperation("tag", "list")

	db := database.GetDB()
	query := db.Where("user_id = ?", user.ID).Order("name DESC")

	// Restrict to tags attached to at least one of the caller's recipes
	if truthyParam(c.QueryParam("assigned_only")) {
		assigned := db.Table("recipe_tags").
			Select("recipe_tags.tag_id").
			Joins("JOIN recipes ON recipes.id = recipe_tags.recipe_id").
			Where("recipes.user_id = ?", user.ID)
		query = query.Where("id IN (?)", assigned)
		log.Info("Filtering tags by assignment", zap.Uint("user_id", user.ID))
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tags []model.Tag
	if result := query.Find(&tags); result.Error != nil {
		log.Error("Failed to list tags", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tags"})
	}

	return c.JSON(http.StatusOK, tags)
}

// CreateTag handles creating a tag directly
func CreateTag(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req nameDescriptor
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid tag payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		log.Error("Invalid tag data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": validationFields(err)})
	}

	prometheus.RecordResourceOperation("tag", "create")

	// Same owner-scoped upsert discipline as recipe writes, so re-posting
	// an existing name returns the existing row
	tags, err := reconcileTags(database.GetDB(), user.ID, []nameDescriptor{req})
	if err != nil {
		log.Error("Failed to create tag", zap.Error(err))
		if err == errEmptyName {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must not be empty"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create tag"})
	}

	log.Info("Tag created", zap.Uint("user_id", user.ID), zap.String("name", tags[0].Name))
	return c.JSON(http.StatusCreated, tags[0])
}

// GetTag handles retrieving a single tag by ID, scoped to the caller
func GetTag(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	var tag model.Tag
	result := database.GetDB().Where("user_id = ?", user.ID).First(&tag, "id = ?", id)
	if result.Error != nil {
		log.Warn("Tag not found", zap.String("tag_id", id), zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tag not found"})
	}

	return c.JSON(http.StatusOK, tag)
}

// UpdateTag handles renaming a tag
func UpdateTag(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	var tag model.Tag
	result := database.GetDB().Where("user_id = ?", user.ID).First(&tag, "id = ?", id)
	if result.Error != nil {
		log.Warn("Tag not found for update", zap.String("tag_id", id), zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tag not found"})
	}

	var req nameDescriptor
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid tag payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		log.Error("Invalid tag data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": validationFields(err)})
	}

	prometheus.RecordResourceOperation("tag", "update")

	tag.Name = req.Name
	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&tag); result.Error != nil {
		if isDuplicateKey(result.Error) {
			log.Warn("Tag name already taken", zap.Uint("user_id", user.ID), zap.String("name", req.Name))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"name": "you already have a tag with this name"}})
		}
		log.Error("Failed to update tag", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update tag"})
	}

	log.Info("Tag updated", zap.Uint("tag_id", tag.ID), zap.String("name", tag.Name))
	return c.JSON(http.StatusOK, tag)
}

// DeleteTag handles deleting a tag and its recipe associations
func DeleteTag(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	var tag model.Tag
	result := database.GetDB().Where("user_id = ?", user.ID).First(&tag, "id = ?", id)
	if result.Error != nil {
		log.Warn("Tag not found for deletion", zap.String("tag_id", id), zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tag not found"})
	}

	prometheus.RecordResourceOperation("tag", "delete")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM recipe_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	}); err != nil {
		log.Error("Failed to delete tag", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete tag"})
	}

	log.Info("Tag deleted", zap.Uint("tag_id", tag.ID), zap.Uint("user_id", user.ID))
	return c.NoContent(http.StatusNoContent)
}
