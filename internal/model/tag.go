package model

import "time"

// Tag represents a user-owned recipe tag. The composite unique index on
// (user_id, name) makes the reconciler's insert-or-fetch race-free.
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"not null;uniqueIndex:idx_tags_owner_name"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_tags_owner_name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
