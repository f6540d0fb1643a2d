package models

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string    `gorm:"not null"`
	Description string
	FileURL     string `gorm:"not null"`
	ThumbURL    string
	Hashtags    string
	Views       int       `gorm:"default:0"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time

	Owner User `gorm:"foreignKey:OwnerID"`
}
