package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is a shared person identity (setter, closer, team member),
// deduplicated by case-insensitive full name. Placeholder profiles are
// created by the identity resolver when a sheet references a name that
// does not exist yet; they carry a synthetic email so the email
// uniqueness constraint still holds.
type Profile struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName      string         `gorm:"size:255;not null" json:"full_name"`
	Email         string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Role          string         `gorm:"size:20;default:'member'" json:"role"`
	IsPlaceholder bool           `gorm:"default:false" json:"is_placeholder"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
