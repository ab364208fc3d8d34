package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemLog stores structured error logs for operational queries.
type SystemLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Timestamp    time.Time      `gorm:"not null;index" json:"timestamp"`
	Level        string         `gorm:"size:10;not null;index" json:"level"`
	Message      string         `gorm:"type:text" json:"message"`
	RequestID    string         `gorm:"size:36;index" json:"request_id"`
	UserID       *string        `gorm:"size:36" json:"user_id"`
	ConnectionID string         `gorm:"size:36;index" json:"connection_id"`
	Action       string         `gorm:"size:100" json:"action"`
	Error        string         `gorm:"type:text" json:"error"`
	Rows         int            `json:"rows"`
	Extra        datatypes.JSON `gorm:"type:jsonb" json:"extra,omitempty"`
}
