package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pipeboard/pipeboard/internal/config"
	"github.com/pipeboard/pipeboard/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Migrate runs AutoMigrate for all models, then creates the provenance
// and identity indexes AutoMigrate cannot express.
func Migrate() error {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.GoogleCredential{},
		&models.SheetConnection{},
		&models.Profile{},
		&models.Lead{},
		&models.Appointment{},
		&models.Call{},
		&models.Deal{},
		&models.TeamMember{},
		&models.SystemLog{},
	); err != nil {
		return err
	}
	return createIndexes()
}

// createIndexes adds the per-table unique provenance key
// (sync_connection_id, sync_source_row_number) and the case-insensitive
// profile name index. Partial indexes keep rows created outside a sync
// (NULL provenance) unconstrained.
func createIndexes() error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_provenance ON leads (sync_connection_id, sync_source_row_number) WHERE sync_connection_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_provenance ON appointments (sync_connection_id, sync_source_row_number) WHERE sync_connection_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_calls_provenance ON calls (sync_connection_id, sync_source_row_number) WHERE sync_connection_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_deals_provenance ON deals (sync_connection_id, sync_source_row_number) WHERE sync_connection_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_team_members_provenance ON team_members (sync_connection_id, sync_source_row_number) WHERE sync_connection_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_name_role ON profiles (LOWER(full_name), role) WHERE deleted_at IS NULL`,
	}
	for _, stmt := range stmts {
		if err := DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
