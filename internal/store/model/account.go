package model

import "time"

type Account struct {
	UserID      string `gorm:"primaryKey;type:VARCHAR(128)"`
	Plan        string `gorm:"not null;type:VARCHAR(16)"`
	Credits     int    `gorm:"not null"`
	AccentColor string `gorm:"type:VARCHAR(16)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
