package handler

import (
	"recipe-service/internal/middleware"
	"recipe-service/pkg/storage"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires every endpoint onto the echo instance
func RegisterRoutes(e *echo.Echo) {
	e.Validator = NewRequestValidator()

	// Public routes - no authentication required
	e.GET("/health", HealthCheck)
	e.GET("/metrics", MetricsHandler)
	e.Static("/media", storage.Root())

	// Account routes - these don't belong under auth since they're for getting access to the API
	user := e.Group("/user")
	user.POST("/create", Register)
	user.POST("/token", IssueToken)
	user.DELETE("/token", RevokeToken, middleware.AuthMiddleware)

	me := user.Group("/me")
	me.GET("", GetProfile, middleware.AuthMiddleware)
	me.PATCH("", UpdateProfile, middleware.AuthMiddleware)

	// Catalog routes - all require authentication
	recipe := e.Group("/recipe", middleware.AuthMiddleware)

	tags := recipe.Group("/tags")
	tags.GET("", ListTags)
	tags.POST("", CreateTag)
	tags.GET("/:id", GetTag)
	tags.PATCH("/:id", UpdateTag)
	tags.DELETE("/:id", DeleteTag)

	ingredients := recipe.Group("/ingredients")
	ingredients.GET("", ListIngredients)
	ingredients.POST("", CreateIngredient)
	ingredients.GET("/:id", GetIngredient)
	ingredients.PATCH("/:id", UpdateIngredient)
	ingredients.DELETE("/:id", DeleteIngredient)

	recipes := recipe.Group("/recipes")
	recipes.GET("", ListRecipes)
	recipes.POST("", CreateRecipe)
	recipes.GET("/:id", GetRecipe)
	recipes.PUT("/:id", UpdateRecipe)
	recipes.PATCH("/:id", UpdateRecipe)
	recipes.DELETE("/:id", DeleteRecipe)
	recipes.POST("/:id/upload-image", UploadRecipeImage)
}
