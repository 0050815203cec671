package model

import "time"

// Ingredient represents a user-owned recipe ingredient, unique per
// (user_id, name) like Tag.
type Ingredient struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"not null;uniqueIndex:idx_ingredients_owner_name"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_ingredients_owner_name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
