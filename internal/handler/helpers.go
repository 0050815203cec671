package handler

import (
	"errors"
	"strconv"
	"strings"

	"recipe-service/internal/model"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// currentUser returns the authenticated user stored by the auth middleware
func currentUser(c echo.Context) (model.User, bool) {
	user, ok := c.Get("user").(model.User)
	return user, ok
}

// parseIDList parses a comma-separated list of numeric IDs from a query
// parameter value
func parseIDList(value string) ([]uint, error) {
	parts := strings.Split(value, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// isDuplicateKey reports whether an error is a unique constraint violation.
// The string checks cover drivers that don't translate to gorm's sentinel.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// truthyParam reports whether a query parameter carries a truthy value
func truthyParam(value string) bool {
	if value == "" {
		return false
	}
	truthy, err := strconv.ParseBool(value)
	return err == nil && truthy
}
