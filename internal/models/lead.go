package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Lead struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string         `gorm:"size:255" json:"name"`
	Email        string         `gorm:"size:255;index" json:"email"`
	Phone        string         `gorm:"size:32" json:"phone"`
	Source       string         `gorm:"size:100" json:"source"`
	Status       string         `gorm:"size:30;default:'new'" json:"status"`
	Notes        string         `gorm:"type:text" json:"notes"`
	CustomFields datatypes.JSON `gorm:"type:jsonb" json:"custom_fields,omitempty"`
	SyncMeta     SyncMeta       `gorm:"embedded" json:"sync_meta"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
