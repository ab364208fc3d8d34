package models

import (
	"time"

	"github.com/google/uuid"
)

// GoogleCredential holds the per-user OAuth token pair used by the
// authenticated sheet reader. One live credential per user (upsert on
// conflict). Token values are never serialized to API responses; the UI
// only ever sees the Status projection.
type GoogleCredential struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"`
	ExpiresAt    time.Time `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	User         User      `gorm:"foreignKey:UserID" json:"-"`
}

// CredentialStatus is the non-sensitive projection exposed to the UI.
type CredentialStatus struct {
	ID        uuid.UUID `json:"id"`
	Connected bool      `json:"connected"`
	ExpiresAt time.Time `json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *GoogleCredential) ToStatus() CredentialStatus {
	return CredentialStatus{
		ID:        c.ID,
		Connected: true,
		ExpiresAt: c.ExpiresAt,
		UpdatedAt: c.UpdatedAt,
	}
}
