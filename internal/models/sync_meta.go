package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncMeta is the provenance stamp embedded in every entity that can be
// mirrored from a sheet. (ConnectionID, SourceRowNumber) is the
// reconciliation key; a unique partial index per table is created in
// database.Migrate. When ModifiedLocally is true the sync loop
// must leave the row untouched until an explicit write-back clears it.
type SyncMeta struct {
	ConnectionID    *uuid.UUID `gorm:"type:uuid;column:sync_connection_id" json:"sync_connection_id,omitempty"`
	SourceRowNumber *int       `gorm:"column:sync_source_row_number" json:"sync_source_row_number,omitempty"`
	LastSyncedAt    *time.Time `gorm:"column:sync_last_synced_at" json:"sync_last_synced_at,omitempty"`
	ModifiedLocally bool       `gorm:"column:sync_modified_locally;default:false" json:"sync_modified_locally"`
}

// FromSheet reports whether the entity carries a provenance key.
func (m SyncMeta) FromSheet() bool {
	return m.ConnectionID != nil && m.SourceRowNumber != nil
}
