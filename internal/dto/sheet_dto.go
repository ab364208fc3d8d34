package dto

import (
	"time"

	"github.com/pipeboard/pipeboard/internal/mapping"
	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/pipeboard/pipeboard/internal/syncer"
)

// SaveCredentialRequest carries the OAuth token pair obtained by the
// frontend's consent flow.
type SaveCredentialRequest struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type CredentialStatusResponse struct {
	Connected bool       `json:"connected"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type AnalyzeRequest struct {
	SheetURL string           `json:"sheet_url"`
	TabNames []string         `json:"tab_names,omitempty"`
	TypeHint models.SheetType `json:"type_hint,omitempty"`
}

type AnalyzeResponse struct {
	Results []*syncer.AnalyzeResult `json:"results"`
}

type CreateConnectionRequest struct {
	SheetURL  string                  `json:"sheet_url"`
	SheetName string                  `json:"sheet_name,omitempty"`
	SheetType models.SheetType        `json:"sheet_type"`
	Mappings  []mapping.ColumnMapping `json:"mappings"`
}

type UpdateConnectionRequest struct {
	Mappings []mapping.ColumnMapping `json:"mappings,omitempty"`
	IsActive *bool                   `json:"is_active,omitempty"`
}

type ConnectionResponse struct {
	ID           string                  `json:"id"`
	SheetURL     string                  `json:"sheet_url"`
	SheetName    string                  `json:"sheet_name,omitempty"`
	SheetType    models.SheetType        `json:"sheet_type"`
	Mappings     []mapping.ColumnMapping `json:"mappings"`
	IsActive     bool                    `json:"is_active"`
	LastSyncedAt *time.Time              `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
}

type SyncResponse struct {
	Summaries []*syncer.Summary `json:"summaries"`
}

// WritebackRequest applies a dashboard edit to a synced record and marks
// it modified_locally, so later syncs stop overwriting it from the sheet.
type WritebackRequest struct {
	ConnectionID    string                 `json:"connection_id"`
	Operation       string                 `json:"operation"` // insert | update | delete
	SourceRowNumber int                    `json:"source_row_number,omitempty"`
	Data            map[string]interface{} `json:"data,omitempty"`
}
