package handler

import (
	"fmt"
	"strings"

	"recipe-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// nameDescriptor is the embedded {name} payload for nested tag and
// ingredient lists on recipe writes
type nameDescriptor struct {
	Name string `json:"name" validate:"required"`
}

var errEmptyName = fmt.Errorf("name must not be empty")

// reconcileTags resolves each descriptor to the caller's existing tag with
// that name, creating it when absent. The insert is an atomic
// ON CONFLICT DO NOTHING against the (user_id, name) unique index, so
// concurrent requests never produce duplicate rows. Must run inside the
// caller's transaction so a failed write attaches nothing.
func reconcileTags(tx *gorm.DB, userID uint, descriptors []nameDescriptor) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(descriptors))
	seen := make(map[string]bool, len(descriptors))

	for _, d := range descriptors {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, errEmptyName
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		tag := model.Tag{UserID: userID, Name: name}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
			DoNothing: true,
		}).Create(&tag)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.Where("user_id = ? AND name = ?", userID, name).First(&tag).Error; err != nil {
				return nil, err
			}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// reconcileIngredients mirrors reconcileTags for ingredients
func reconcileIngredients(tx *gorm.DB, userID uint, descriptors []nameDescriptor) ([]model.Ingredient, error) {
	ingredients := make([]model.Ingredient, 0, len(descriptors))
	seen := make(map[string]bool, len(descriptors))

	for _, d := range descriptors {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, errEmptyName
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		ingredient := model.Ingredient{UserID: userID, Name: name}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
			DoNothing: true,
		}).Create(&ingredient)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.Where("user_id = ? AND name = ?", userID, name).First(&ingredient).Error; err != nil {
				return nil, err
			}
		}
		ingredients = append(ingredients, ingredient)
	}
	return ingredients, nil
}
