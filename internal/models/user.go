package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username   string    `gorm:"uniqueIndex;not null"`
	Email      string    `gorm:"uniqueIndex;not null"`
	Password   string    `gorm:"not null;default:''"`
	SocialOnly bool      `gorm:"not null;default:false"`
	Name       string    `gorm:"not null"`
	Location   string
	AvatarURL  string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Связи
	Videos []Video `gorm:"foreignKey:OwnerID"`
}
