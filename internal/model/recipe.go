package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe represents a user-owned recipe with its tag and ingredient links
type Recipe struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"-" gorm:"index;not null"`
	Title       string          `json:"title" gorm:"type:varchar(255);not null"`
	TimeMinutes uint            `json:"time_minutes"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(10,2)"`
	Link        string          `json:"link" gorm:"type:varchar(255)"`
	Description string          `json:"description" gorm:"type:text"`
	Image       string          `json:"image" gorm:"type:varchar(255)"`
	Tags        []Tag           `json:"tags" gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []Ingredient    `json:"ingredients" gorm:"many2many:recipe_ingredients;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
