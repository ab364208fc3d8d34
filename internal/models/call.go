package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Call struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	LeadID       *uuid.UUID     `gorm:"type:uuid;index" json:"lead_id,omitempty"`
	Name         string         `gorm:"size:255" json:"name"`
	Email        string         `gorm:"size:255" json:"email"`
	Phone        string         `gorm:"size:32" json:"phone"`
	ScheduledAt  *time.Time     `json:"scheduled_at,omitempty"`
	Outcome      string         `gorm:"size:30" json:"outcome"`
	Notes        string         `gorm:"type:text" json:"notes"`
	CustomFields datatypes.JSON `gorm:"type:jsonb" json:"custom_fields,omitempty"`
	SyncMeta     SyncMeta       `gorm:"embedded" json:"sync_meta"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Lead         *Lead          `gorm:"foreignKey:LeadID" json:"-"`
}
