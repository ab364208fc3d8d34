package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pipeboard/pipeboard/internal/mapping"
	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/pipeboard/pipeboard/internal/scope"
	"github.com/pipeboard/pipeboard/internal/sheets"
	"gorm.io/gorm"
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrInvalidSheetType   = errors.New("invalid sheet type")
	ErrEmptyMappings      = errors.New("at least one column mapping is required")
	ErrRecordNotFound     = errors.New("no synced record at that row")
	ErrInvalidOperation   = errors.New("operation must be insert, update or delete")
)

// SheetService owns SheetConnection lifecycle and the write-back
// surface that marks synced records as locally modified.
type SheetService struct {
	db *gorm.DB
}

func NewSheetService(db *gorm.DB) *SheetService {
	return &SheetService{db: db}
}

// CreateConnection validates the locator and mapping, then stores the
// binding. The connection starts active; the first sync is triggered by
// the caller, not here.
func (s *SheetService) CreateConnection(userID uuid.UUID, sheetURL, sheetName string, sheetType models.SheetType, mappings []mapping.ColumnMapping) (*models.SheetConnection, error) {
	if !models.ValidSheetType(sheetType) {
		return nil, ErrInvalidSheetType
	}
	if len(mappings) == 0 {
		return nil, ErrEmptyMappings
	}
	loc, err := sheets.ParseLocator(sheetURL)
	if err != nil {
		return nil, err
	}
	raw, err := mapping.EncodeMappings(mappings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mappings: %w", err)
	}

	conn := models.SheetConnection{
		ID:            uuid.New(),
		UserID:        userID,
		SheetURL:      sheetURL,
		SpreadsheetID: loc.SpreadsheetID,
		SheetGID:      loc.GID,
		SheetName:     sheetName,
		SheetType:     sheetType,
		Mappings:      raw,
		IsActive:      true,
	}
	if err := s.db.Create(&conn).Error; err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}
	return &conn, nil
}

func (s *SheetService) ListConnections(userID uuid.UUID) ([]models.SheetConnection, error) {
	var conns []models.SheetConnection
	err := s.db.Scopes(scope.ForUser(userID)).Order("created_at").Find(&conns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return conns, nil
}

func (s *SheetService) GetConnection(userID, connectionID uuid.UUID) (*models.SheetConnection, error) {
	var conn models.SheetConnection
	err := s.db.Scopes(scope.ForUser(userID)).Where("id = ?", connectionID).First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConnectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// UpdateConnection patches the mapping and/or active flag.
func (s *SheetService) UpdateConnection(userID, connectionID uuid.UUID, mappings []mapping.ColumnMapping, isActive *bool) (*models.SheetConnection, error) {
	conn, err := s.GetConnection(userID, connectionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if mappings != nil {
		if len(mappings) == 0 {
			return nil, ErrEmptyMappings
		}
		raw, err := mapping.EncodeMappings(mappings)
		if err != nil {
			return nil, fmt.Errorf("failed to encode mappings: %w", err)
		}
		updates["mappings"] = raw
		conn.Mappings = raw
	}
	if isActive != nil {
		updates["is_active"] = *isActive
		conn.IsActive = *isActive
	}
	if len(updates) == 0 {
		return conn, nil
	}
	if err := s.db.Model(conn).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update connection: %w", err)
	}
	return conn, nil
}

// DeactivateConnection disconnects a sheet. The record is kept (soft
// delete) because synced rows still reference it for provenance.
func (s *SheetService) DeactivateConnection(userID, connectionID uuid.UUID) error {
	conn, err := s.GetConnection(userID, connectionID)
	if err != nil {
		return err
	}
	if err := s.db.Model(conn).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate connection: %w", err)
	}
	return s.db.Delete(conn).Error
}

// entityModel returns a fresh model instance for the connection's table.
func entityModel(t models.SheetType) (interface{}, error) {
	switch t {
	case models.SheetTypeTeam:
		return &models.TeamMember{}, nil
	case models.SheetTypeLeads:
		return &models.Lead{}, nil
	case models.SheetTypeAppointments:
		return &models.Appointment{}, nil
	case models.SheetTypeCalls:
		return &models.Call{}, nil
	case models.SheetTypeDeals:
		return &models.Deal{}, nil
	}
	return nil, ErrInvalidSheetType
}

// writebackColumns are the entity columns a dashboard edit may touch.
// Provenance and ownership columns are never writable from this surface.
var writebackColumns = map[string]bool{
	"name": true, "email": true, "phone": true, "role": true,
	"status": true, "source": true, "notes": true, "outcome": true,
	"call_outcome": true, "revenue": true, "cash_collected": true,
	"payment_platform": true, "scheduled_at": true, "closed_at": true,
}

// Writeback applies a dashboard edit to the synced record at
// (connection, sourceRowNumber) and flags it modified_locally so the
// next sync leaves it alone. Insert creates a local-only record under
// the connection; delete soft-deletes the synced record.
func (s *SheetService) Writeback(userID, connectionID uuid.UUID, operation string, sourceRowNumber int, data map[string]interface{}) error {
	conn, err := s.GetConnection(userID, connectionID)
	if err != nil {
		return err
	}
	model, err := entityModel(conn.SheetType)
	if err != nil {
		return err
	}

	byProvenance := s.db.Model(model).
		Where("sync_connection_id = ? AND sync_source_row_number = ? AND user_id = ?",
			conn.ID, sourceRowNumber, userID)

	switch strings.ToLower(operation) {
	case "update":
		updates := map[string]interface{}{"sync_modified_locally": true}
		for col, val := range data {
			if writebackColumns[col] {
				updates[col] = val
			}
		}
		res := byProvenance.Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("write-back update failed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil

	case "delete":
		res := s.db.Where("sync_connection_id = ? AND sync_source_row_number = ? AND user_id = ?",
			conn.ID, sourceRowNumber, userID).Delete(model)
		if res.Error != nil {
			return fmt.Errorf("write-back delete failed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil

	case "insert":
		return s.writebackInsert(conn, data)

	default:
		return ErrInvalidOperation
	}
}

// writebackInsert creates a local-only record attached to the
// connection. It carries no source row number, so syncs never touch it,
// and modified_locally is set for good measure.
func (s *SheetService) writebackInsert(conn *models.SheetConnection, data map[string]interface{}) error {
	connID := conn.ID
	now := time.Now().UTC()
	meta := models.SyncMeta{ConnectionID: &connID, LastSyncedAt: &now, ModifiedLocally: true}

	str := func(col string) string {
		v, _ := data[col].(string)
		return v
	}
	num := func(col string) float64 {
		v, _ := data[col].(float64)
		return v
	}

	var record interface{}
	switch conn.SheetType {
	case models.SheetTypeTeam:
		record = &models.TeamMember{
			ID: uuid.New(), UserID: conn.UserID,
			Name: str("name"), Email: str("email"), Phone: str("phone"),
			Role: str("role"), Status: str("status"), SyncMeta: meta,
		}
	case models.SheetTypeLeads:
		record = &models.Lead{
			ID: uuid.New(), UserID: conn.UserID,
			Name: str("name"), Email: str("email"), Phone: str("phone"),
			Source: str("source"), Status: str("status"), Notes: str("notes"),
			SyncMeta: meta,
		}
	case models.SheetTypeCalls:
		record = &models.Call{
			ID: uuid.New(), UserID: conn.UserID,
			Name: str("name"), Email: str("email"), Phone: str("phone"),
			Outcome: str("outcome"), Notes: str("notes"), SyncMeta: meta,
		}
	case models.SheetTypeDeals:
		record = &models.Deal{
			ID: uuid.New(), UserID: conn.UserID,
			Name: str("name"), Email: str("email"),
			Revenue: num("revenue"), CashCollected: num("cash_collected"),
			PaymentPlatform: str("payment_platform"), Status: str("status"),
			SyncMeta: meta,
		}
	case models.SheetTypeAppointments:
		// Appointments require a lead; local inserts go through the
		// regular CRUD surface instead.
		return fmt.Errorf("%w: appointment rows cannot be inserted via write-back", ErrInvalidOperation)
	default:
		return ErrInvalidSheetType
	}

	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("write-back insert failed: %w", err)
	}
	return nil
}
