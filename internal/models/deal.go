package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Deal statuses.
const (
	DealWon     = "won"
	DealLost    = "lost"
	DealPending = "pending"
)

// Deal is either synced from a standalone deals sheet or derived from a
// closed-won appointment. In the derived case AppointmentID is set and
// unique, so re-running the deriver updates the same deal.
type Deal struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	AppointmentID   *uuid.UUID     `gorm:"type:uuid;uniqueIndex" json:"appointment_id,omitempty"`
	LeadID          *uuid.UUID     `gorm:"type:uuid;index" json:"lead_id,omitempty"`
	SetterID        *uuid.UUID     `gorm:"type:uuid" json:"setter_id,omitempty"`
	CloserID        *uuid.UUID     `gorm:"type:uuid" json:"closer_id,omitempty"`
	Name            string         `gorm:"size:255" json:"name"`
	Email           string         `gorm:"size:255" json:"email"`
	Revenue         float64        `gorm:"default:0" json:"revenue"`
	CashCollected   float64        `gorm:"default:0" json:"cash_collected"`
	PaymentPlatform string         `gorm:"size:100" json:"payment_platform"`
	Status          string         `gorm:"size:20;default:'pending'" json:"status"`
	ClosedAt        *time.Time     `json:"closed_at,omitempty"`
	CustomFields    datatypes.JSON `gorm:"type:jsonb" json:"custom_fields,omitempty"`
	SyncMeta        SyncMeta       `gorm:"embedded" json:"sync_meta"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	Appointment     *Appointment   `gorm:"foreignKey:AppointmentID" json:"-"`
}
