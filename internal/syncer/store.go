package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pipeboard/pipeboard/internal/mapping"
	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/pipeboard/pipeboard/internal/sheets"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UpsertOutcome says what reconciliation did with one record.
type UpsertOutcome int

const (
	OutcomeInserted UpsertOutcome = iota
	OutcomeUpdated
	// OutcomeSkippedLocal means the persisted row is marked
	// modified_locally and was deliberately left untouched.
	OutcomeSkippedLocal
)

// RecordRefs carries the resolved foreign keys for one record.
type RecordRefs struct {
	LeadID   uuid.UUID
	SetterID *uuid.UUID
	CloserID *uuid.UUID
}

// Store is the persistence port of the sync pipeline. The orchestrator
// and identity resolver only talk to this interface; tests swap in a
// fake.
type Store interface {
	ListActiveConnections(ctx context.Context, userID *uuid.UUID) ([]models.SheetConnection, error)
	// BeginSync flips the connection's in-progress flag and reports
	// whether this caller won it; overlapping syncs of one connection
	// are rejected, not queued.
	BeginSync(ctx context.Context, connectionID uuid.UUID) (bool, error)
	EndSync(ctx context.Context, connectionID uuid.UUID) error
	StampSynced(ctx context.Context, connectionID uuid.UUID, at time.Time) error

	UpsertRecord(ctx context.Context, conn *models.SheetConnection, rec *mapping.Record, refs RecordRefs) (UpsertOutcome, uuid.UUID, error)
	UpsertDerivedDeal(ctx context.Context, conn *models.SheetConnection, appointmentID uuid.UUID, rec *mapping.AppointmentRecord, refs RecordRefs) error

	FindProfileByName(ctx context.Context, fullName string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error

	// ResolveLead finds the user's lead by email (then name), creating
	// a stub when absent. Appointments require a lead.
	ResolveLead(ctx context.Context, userID uuid.UUID, name, email, phone string) (uuid.UUID, error)
}

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListActiveConnections(ctx context.Context, userID *uuid.UUID) ([]models.SheetConnection, error) {
	q := s.db.WithContext(ctx).Where("is_active = true")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var conns []models.SheetConnection
	if err := q.Order("created_at").Find(&conns).Error; err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return conns, nil
}

func (s *GormStore) BeginSync(ctx context.Context, connectionID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.SheetConnection{}).
		Where("id = ? AND sync_in_progress = false", connectionID).
		Update("sync_in_progress", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) EndSync(ctx context.Context, connectionID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.SheetConnection{}).
		Where("id = ?", connectionID).
		Update("sync_in_progress", false).Error
}

func (s *GormStore) StampSynced(ctx context.Context, connectionID uuid.UUID, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.SheetConnection{}).
		Where("id = ?", connectionID).
		Update("last_synced_at", at).Error
}

func (s *GormStore) UpsertRecord(ctx context.Context, conn *models.SheetConnection, rec *mapping.Record, refs RecordRefs) (UpsertOutcome, uuid.UUID, error) {
	switch rec.EntityType {
	case models.SheetTypeTeam:
		return s.upsertTeamMember(ctx, conn, rec)
	case models.SheetTypeLeads:
		return s.upsertLead(ctx, conn, rec)
	case models.SheetTypeAppointments:
		return s.upsertAppointment(ctx, conn, rec, refs)
	case models.SheetTypeCalls:
		return s.upsertCall(ctx, conn, rec, refs)
	case models.SheetTypeDeals:
		return s.upsertDeal(ctx, conn, rec, refs)
	}
	return 0, uuid.Nil, persistenceError(fmt.Errorf("unknown entity type %q", rec.EntityType))
}

// persistenceError classifies a store write failure; these abort the
// whole batch since partial writes risk inconsistent provenance state.
func persistenceError(err error) error {
	return sheets.WrapError(sheets.CodePersistence, "store write failed", err)
}

func newMeta(conn *models.SheetConnection, rowNumber int) models.SyncMeta {
	now := time.Now().UTC()
	row := rowNumber
	connID := conn.ID
	return models.SyncMeta{
		ConnectionID:    &connID,
		SourceRowNumber: &row,
		LastSyncedAt:    &now,
	}
}

func customJSON(custom map[string]string) datatypes.JSON {
	if len(custom) == 0 {
		return nil
	}
	b, err := json.Marshal(custom)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func (s *GormStore) byProvenance(ctx context.Context, conn *models.SheetConnection, rowNumber int) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("sync_connection_id = ? AND sync_source_row_number = ?", conn.ID, rowNumber)
}

func (s *GormStore) upsertLead(ctx context.Context, conn *models.SheetConnection, rec *mapping.Record) (UpsertOutcome, uuid.UUID, error) {
	r := rec.Lead
	var existing models.Lead
	err := s.byProvenance(ctx, conn, rec.RowNumber).First(&existing).Error
	switch {
	case err == nil:
		if existing.SyncMeta.ModifiedLocally {
			return OutcomeSkippedLocal, existing.ID, nil
		}
		updates := map[string]interface{}{
			"name": r.Name, "email": r.Email, "phone": r.Phone,
			"source": r.Source, "status": r.Status, "notes": r.Notes,
			"custom_fields":       customJSON(rec.Custom),
			"sync_last_synced_at": time.Now().UTC(),
		}
		if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return 0, uuid.Nil, persistenceError(err)
		}
		return OutcomeUpdated, existing.ID, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		lead := models.Lead{
			ID: uuid.New(), UserID: conn.UserID,
			Name: r.Name, Email: r.Email, Phone: r.Phone,
			Source: r.Source, Status: r.Status, Notes: r.Notes,
			CustomFields: customJSON(rec.Custom),
			SyncMeta:     newMeta(conn, rec.RowNumber),
		}
		if err := s.db.WithContext(ctx).Create(&lead).Error; err != nil {
			return 0, uuid.Nil, persistenceError(err)
		}
		return OutcomeInserted, lead.ID, nil
	default:
		return 0, uuid.Nil, persistenceError(err)
	}
}

func (s *GormStore) upsertTeamMember(ctx context.Context, conn *models.SheetConnection, rec *mapping.Record) (UpsertOutcome, uuid.UUID, error) {
	r := rec.Team
	var existing models.TeamMember
	err := s.byProvenance(ctx, conn, rec.RowNumber).First(&existing).Error
	switch {
	case err == nil:
		if existing.SyncMeta.ModifiedLocally {
			return OutcomeSkippedLocal, existing.ID, nil
		}
		updates := map[string]interface{}{
			"name": r.Name, "email": r.Email, "phone": r.Phone,
			"role": r.Role, "status": r.Status,
			"custom_fields":       customJSON(rec.Custom),
			"sync_last_synced_at": time.Now().UTC(),
		}
		if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return 0, uuid.Nil, persistenceError(err)
		}
		return OutcomeUpdated, existing.ID, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		member := models.TeamMember{
			ID: uuid.New(), UserID: conn.UserID,
			Name: r.Name, Email: r.Email, Phone: r.Phone,
			Role: r.Role, Status: r.Status,
			CustomFields: customJSON(rec.Custom),
			SyncMeta:     newMeta(conn, rec.RowNumber),
		}
		if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
			return 0, uuid.Nil, persistenceError(err)
		}
		return OutcomeInserted, member.ID, nil
	default:
		return 0, uuid.Nil, persistenceError(err)
	}
}

func (s *GormStore) upsertAppointment(ctx context.Context, conn *models.SheetConnection, rec *mapping.Record, refs RecordRefs) (UpsertOutcome, uuid.UUID, error) {
	r := rec.Appointment
	var existing models.Appointment
	err := s.byProvenance(ctx, conn, rec.RowNumber).First(&existing).Error
	switch {
	case err == nil:
		if existing.SyncMeta.ModifiedLocally {
			return OutcomeSkippedLocal, existing.ID, nil
		}
		updates := map[string]interface{}{
			"lead_id": refs.LeadID, "setter_id": refs.SetterID, "closer_id": refs.CloserID,
			"scheduled_at": r.ScheduledAt, "status": r.Status, "call_outcome": r.CallOutcome,
			"revenue": r.Revenue, "cash_collected": r.CashCollected,
			"payment_platform": r.PaymentPlatform, "notes": r.Notes,
			"custom_fields":       customJSON(rec.Custom),
			"sync_last_synced_at": time.Now().UTC(),
		}
		if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return 0, uuid.Nil, persistenceError(err)
		}
		return OutcomeUpdated, existing.ID, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		appt := models.Appointment{
			ID: uuid.New(), UserID: conn.UserID, LeadID: refs.LeadID,
			SetterID: refs.SetterID, CloserID: refs.CloserID,
			ScheduledAt: r.ScheduledAt, Status: r.Status, CallOutcome: r.CallOutcome,
			Revenue: r.Revenue, CashCollected: r.CashCollected,
			PaymentPlatform: r.PaymentPlatform, Notes: r.Notes,
			CustomFields: customJSON(rec.Custom),
			SyncMeta:     newMeta(conn, rec.RowNumber),
		}
		if err := s.db.WithContext(ctx).Create(&appt).Error; err != nil {
			return 0, uuid.Nil, persistenceError(err)
		}
		return OutcomeInserted, appt.ID, nil
	default:
		return 0, uuid.Nil, persistenceError(err)
	}
}

func (s *GormStore) upsertCall(ctx context.Context, conn *models.SheetConnection, rec *mapping.Record, refs RecordRefs) (UpsertOutcome, uuid.UUID, error) {
	r := rec.Call
	var leadID *uuid.UUID
	if refs.LeadID != uuid.Nil {
		id := refs.LeadID
		leadID = &id
	}
	var existing models.Call
	err := s.byProvenance(ctx, conn, rec.RowNumber).First(&existing).Error
	switch {
	case err == nil:
		if existing.SyncMeta.ModifiedLocally {
			return OutcomeSkippedLocal, existing.ID, nil
		}
		updates := map[string]interface{}{
			"lead_id": leadID, "name": r.Name, "email": r.Email, "phone": r.Phone,
			"scheduled_at": r.ScheduledAt, "outcome": r.Outcome, "notes": r.Notes,
			"custom_fields":       customJSON(rec.Custom),
			"sync_last_synced_at": time.Now().UTC(),
		}
		if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return 0, uuid.Nil, persistenceError(err)
		}
		return OutcomeUpdated, existing.ID, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		call := models.Call{
			ID: uuid.New(), UserID: conn.UserID, LeadID: leadID,
			Name: r.Name, Email: r.Email, Phone: r.Phone,
			ScheduledAt: r.ScheduledAt, Outcome: r.Outcome, Notes: r.Notes,
			CustomFields: customJSON(rec.Custom),
			SyncMeta:     newMeta(conn, rec.RowNumber),
		}
		if err := s.db.WithContext(ctx).Create(&call).Error; err != nil {
			return 0, uuid.Nil, persistenceError(err)
		}
		return OutcomeInserted, call.ID, nil
	default:
		return 0, uuid.Nil, persistenceError(err)
	}
}

func (s *GormStore) upsertDeal(ctx context.Context, conn *models.SheetConnection, rec *mapping.Record, refs RecordRefs) (UpsertOutcome, uuid.UUID, error) {
	r := rec.Deal
	var existing models.Deal
	err := s.byProvenance(ctx, conn, rec.RowNumber).First(&existing).Error
	switch {
	case err == nil:
		if existing.SyncMeta.ModifiedLocally {
			return OutcomeSkippedLocal, existing.ID, nil
		}
		updates := map[string]interface{}{
			"name": r.Name, "email": r.Email,
			"setter_id": refs.SetterID, "closer_id": refs.CloserID,
			"revenue": r.Revenue, "cash_collected": r.CashCollected,
			"payment_platform": r.PaymentPlatform, "status": r.Status,
			"closed_at":           r.ClosedAt,
			"custom_fields":       customJSON(rec.Custom),
			"sync_last_synced_at": time.Now().UTC(),
		}
		if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return 0, uuid.Nil, persistenceError(err)
		}
		return OutcomeUpdated, existing.ID, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		deal := models.Deal{
			ID: uuid.New(), UserID: conn.UserID,
			SetterID: refs.SetterID, CloserID: refs.CloserID,
			Name: r.Name, Email: r.Email,
			Revenue: r.Revenue, CashCollected: r.CashCollected,
			PaymentPlatform: r.PaymentPlatform, Status: r.Status, ClosedAt: r.ClosedAt,
			CustomFields: customJSON(rec.Custom),
			SyncMeta:     newMeta(conn, rec.RowNumber),
		}
		if err := s.db.WithContext(ctx).Create(&deal).Error; err != nil {
			return 0, uuid.Nil, persistenceError(err)
		}
		return OutcomeInserted, deal.ID, nil
	default:
		return 0, uuid.Nil, persistenceError(err)
	}
}

// UpsertDerivedDeal creates or refreshes the single deal derived from a
// closed-won appointment. AppointmentID is unique, so the deriver is
// idempotent across syncs.
func (s *GormStore) UpsertDerivedDeal(ctx context.Context, conn *models.SheetConnection, appointmentID uuid.UUID, rec *mapping.AppointmentRecord, refs RecordRefs) error {
	var leadID *uuid.UUID
	if refs.LeadID != uuid.Nil {
		id := refs.LeadID
		leadID = &id
	}

	var existing models.Deal
	err := s.db.WithContext(ctx).Where("appointment_id = ?", appointmentID).First(&existing).Error
	switch {
	case err == nil:
		if existing.SyncMeta.ModifiedLocally {
			return nil
		}
		updates := map[string]interface{}{
			"lead_id": leadID, "setter_id": refs.SetterID, "closer_id": refs.CloserID,
			"name": rec.Name, "email": rec.Email,
			"revenue": rec.Revenue, "cash_collected": rec.CashCollected,
			"payment_platform": rec.PaymentPlatform,
			"status":           models.DealWon,
			"closed_at":        rec.ScheduledAt,
		}
		if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return persistenceError(err)
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		apptID := appointmentID
		deal := models.Deal{
			ID: uuid.New(), UserID: conn.UserID, AppointmentID: &apptID,
			LeadID: leadID, SetterID: refs.SetterID, CloserID: refs.CloserID,
			Name: rec.Name, Email: rec.Email,
			Revenue: rec.Revenue, CashCollected: rec.CashCollected,
			PaymentPlatform: rec.PaymentPlatform,
			Status:          models.DealWon,
			ClosedAt:        rec.ScheduledAt,
		}
		if err := s.db.WithContext(ctx).Create(&deal).Error; err != nil {
			return persistenceError(err)
		}
		return nil
	default:
		return persistenceError(err)
	}
}

func (s *GormStore) FindProfileByName(ctx context.Context, fullName string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Where("LOWER(full_name) = LOWER(?)", fullName).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *GormStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return s.db.WithContext(ctx).Create(profile).Error
}

func (s *GormStore) ResolveLead(ctx context.Context, userID uuid.UUID, name, email, phone string) (uuid.UUID, error) {
	var lead models.Lead
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if email != "" {
		err := q.Where("LOWER(email) = LOWER(?)", email).First(&lead).Error
		if err == nil {
			return lead.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, persistenceError(err)
		}
	} else if name != "" {
		err := q.Where("LOWER(name) = LOWER(?)", name).First(&lead).Error
		if err == nil {
			return lead.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, persistenceError(err)
		}
	}

	lead = models.Lead{
		ID: uuid.New(), UserID: userID,
		Name: name, Email: email, Phone: phone,
		Status: "new", Source: "sheet_sync",
	}
	if err := s.db.WithContext(ctx).Create(&lead).Error; err != nil {
		return uuid.Nil, persistenceError(err)
	}
	return lead.ID, nil
}
