package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Appointment statuses (normalized from free-text sheet values).
const (
	AppointmentScheduled   = "scheduled"
	AppointmentCompleted   = "completed"
	AppointmentNoShow      = "no_show"
	AppointmentCancelled   = "cancelled"
	AppointmentRescheduled = "rescheduled"
)

// Call outcomes attached to an appointment's sales call.
const (
	CallOutcomeClosedWon = "closed_won"
	CallOutcomeNotClosed = "not_closed"
	CallOutcomeFollowUp  = "follow_up"
)

type Appointment struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	LeadID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"lead_id"`
	SetterID        *uuid.UUID     `gorm:"type:uuid;index" json:"setter_id,omitempty"`
	CloserID        *uuid.UUID     `gorm:"type:uuid;index" json:"closer_id,omitempty"`
	ScheduledAt     *time.Time     `json:"scheduled_at,omitempty"`
	Status          string         `gorm:"size:30;default:'scheduled'" json:"status"`
	CallOutcome     string         `gorm:"size:30" json:"call_outcome"`
	Revenue         float64        `gorm:"default:0" json:"revenue"`
	CashCollected   float64        `gorm:"default:0" json:"cash_collected"`
	PaymentPlatform string         `gorm:"size:100" json:"payment_platform"`
	Notes           string         `gorm:"type:text" json:"notes"`
	CustomFields    datatypes.JSON `gorm:"type:jsonb" json:"custom_fields,omitempty"`
	SyncMeta        SyncMeta       `gorm:"embedded" json:"sync_meta"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	Lead            Lead           `gorm:"foreignKey:LeadID" json:"-"`
	Setter          *Profile       `gorm:"foreignKey:SetterID" json:"-"`
	Closer          *Profile       `gorm:"foreignKey:CloserID" json:"-"`
}
