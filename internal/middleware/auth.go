package middleware

import (
	"net/http"
	"strings"
	"time"

	"recipe-service/internal/model"
	"recipe-service/pkg/database"
	"recipe-service/pkg/logger"
	"recipe-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the opaque bearer token from the Authorization
// header against the token store and loads the owning user into the context.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		tokenString := parts[1]

		// Look the token up in the store
		defer prometheus.TrackDBOperation("query")(time.Now())
		var token model.AuthToken
		result := database.GetDB().Where("token = ?", tokenString).First(&token)
		if result.Error != nil {
			log.Error("Unknown token")
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		if !token.IsValid() {
			log.Error("Token expired or revoked", zap.Uint("user_id", token.UserID))
			prometheus.RecordAuthError("expired_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		var user model.User
		if result := database.GetDB().First(&user, token.UserID); result.Error != nil {
			log.Error("Token owner not found", zap.Uint("user_id", token.UserID))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		if !user.IsActive {
			log.Error("Token owner is inactive", zap.Uint("user_id", user.ID))
			prometheus.RecordAuthError("inactive_user")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store user info in context for later use
		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("auth_token", token)

		// Token is valid, proceed with the request
		return next(c)
	}
}
