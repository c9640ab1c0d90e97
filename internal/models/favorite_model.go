package models

import "time"

type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_favorites_user_city" json:"user_id"`
	City      string    `gorm:"uniqueIndex:idx_favorites_user_city;size:100" json:"city"`
	Label     string    `gorm:"size:100" json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
