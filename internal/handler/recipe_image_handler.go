package handler

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"time"

	_ "golang.org/x/image/webp"

	"recipe-service/pkg/database"
	"recipe-service/pkg/logger"
	"recipe-service/pkg/storage"
	"recipe-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UploadRecipeImage handles a multipart image upload for a recipe,
// replacing any previously stored file
func UploadRecipeImage(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id := c.Param("id")
	recipe, err := findRecipe(database.GetDB(), user.ID, id)
	if err != nil {
		log.Warn("Recipe not found for image upload", zap.String("recipe_id", id), zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "recipe not found"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		log.Error("Missing image field", zap.Error(err))
		prometheus.RecordImageUpload("rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"image": "this field is required"}})
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error("Failed to read uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
	}

	// The payload must decode as an image before anything is stored
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Warn("Uploaded payload is not a valid image", zap.String("filename", fileHeader.Filename), zap.Error(err))
		prometheus.RecordImageUpload("rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"image": "upload a valid image"}})
	}

	ext := filepath.Ext(fileHeader.Filename)
	if ext == "" {
		ext = "." + format
	}

	rel, err := storage.SaveRecipeImage(data, ext)
	if err != nil {
		log.Error("Failed to store image", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
	}

	previous := recipe.Image

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(&recipe).Update("image", rel); result.Error != nil {
		log.Error("Failed to record image path", zap.Error(result.Error))
		if err := storage.Remove(rel); err != nil {
			log.Warn("Failed to remove orphaned image file", zap.String("path", rel), zap.Error(err))
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
	}

	removeStoredImage(c, previous)
	prometheus.RecordImageUpload("ok")

	log.Info("Recipe image stored",
		zap.Uint("recipe_id", recipe.ID),
		zap.String("path", rel),
		zap.String("format", format))
	return c.JSON(http.StatusOK, echo.Map{
		"id":    recipe.ID,
		"image": mediaURL(rel),
	})
}

// removeStoredImage deletes a replaced or orphaned image file, logging
// instead of failing the request when the delete does not succeed
func removeStoredImage(c echo.Context, rel string) {
	if rel == "" {
		return
	}
	if err := storage.Remove(rel); err != nil {
		logger.FromContext(c).Warn("Failed to remove stored image", zap.String("path", rel), zap.Error(err))
	}
}
