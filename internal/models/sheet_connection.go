package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SheetType is the canonical entity type a connection maps its rows to.
type SheetType string

const (
	SheetTypeTeam         SheetType = "team"
	SheetTypeLeads        SheetType = "leads"
	SheetTypeAppointments SheetType = "appointments"
	SheetTypeCalls        SheetType = "calls"
	SheetTypeDeals        SheetType = "deals"
)

// ValidSheetType reports whether t is one of the five canonical types.
func ValidSheetType(t SheetType) bool {
	switch t {
	case SheetTypeTeam, SheetTypeLeads, SheetTypeAppointments, SheetTypeCalls, SheetTypeDeals:
		return true
	}
	return false
}

// SheetConnection binds one spreadsheet tab to one canonical entity type
// along with the user-reviewed column mapping. Disconnecting clears
// IsActive; rows synced from the connection keep their provenance, so the
// record is never hard-deleted while history exists.
type SheetConnection struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	SheetURL      string         `gorm:"type:text;not null" json:"sheet_url"`
	SpreadsheetID string         `gorm:"size:128;not null" json:"spreadsheet_id"`
	SheetGID      string         `gorm:"size:32" json:"sheet_gid"`
	SheetName     string         `gorm:"size:255" json:"sheet_name,omitempty"`
	SheetType     SheetType      `gorm:"size:20;not null" json:"sheet_type"`
	Mappings      datatypes.JSON `gorm:"type:jsonb" json:"mappings"`
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`
	SyncInProgress bool          `gorm:"default:false" json:"-"`
	LastSyncedAt  *time.Time     `json:"last_synced_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	User          User           `gorm:"foreignKey:UserID" json:"-"`
}
