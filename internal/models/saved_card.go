package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SavedCard is a generated card a user chose to keep
type SavedCard struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	OwnerID   string         `gorm:"not null;index" json:"owner_id"`
	CardType  CardType       `gorm:"not null" json:"card_type"`
	Name      string         `json:"name"`
	Card      datatypes.JSON `gorm:"not null" json:"card"`
}
