package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pipeboard/pipeboard/internal/config"
	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/pipeboard/pipeboard/internal/sheets"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNoCredential = errors.New("no google credential for user")

// refreshMargin is how close to expiry a token is still considered
// valid. Tokens inside the margin are refreshed before use.
const refreshMargin = 60 * time.Second

// CredentialService owns the per-user OAuth token pair: persistence,
// expiry checks and refresh against the provider token endpoint. A
// refresh failure is reported as REFRESH_FAILED and callers degrade to
// the public export path instead of failing the sync.
type CredentialService struct {
	db   *gorm.DB
	conf *oauth2.Config
}

func NewCredentialService(db *gorm.DB, cfg *config.Config) *CredentialService {
	return &CredentialService{
		db:   db,
		conf: sheets.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleTokenURL),
	}
}

// OAuthConfig exposes the oauth2 config for building API clients.
func (s *CredentialService) OAuthConfig() *oauth2.Config { return s.conf }

// Save upserts the user's credential (one live credential per user).
func (s *CredentialService) Save(userID uuid.UUID, accessToken, refreshToken string, expiresAt time.Time) error {
	cred := models.GoogleCredential{
		ID:           uuid.New(),
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "updated_at"}),
	}).Create(&cred).Error
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Status returns the non-sensitive projection, or nil when the user has
// never connected their account.
func (s *CredentialService) Status(userID uuid.UUID) (*models.CredentialStatus, error) {
	var cred models.GoogleCredential
	if err := s.db.Where("user_id = ?", userID).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	status := cred.ToStatus()
	return &status, nil
}

func (s *CredentialService) Disconnect(userID uuid.UUID) error {
	return s.db.Where("user_id = ?", userID).Delete(&models.GoogleCredential{}).Error
}

// ValidToken returns a usable access token for the user, refreshing and
// persisting it when it is within the expiry margin. ErrNoCredential
// means the user never authorized; a REFRESH_FAILED error means the
// stored refresh token no longer works.
func (s *CredentialService) ValidToken(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	var cred models.GoogleCredential
	if err := s.db.Where("user_id = ?", userID).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	if time.Until(cred.ExpiresAt) > refreshMargin {
		return &oauth2.Token{
			AccessToken:  cred.AccessToken,
			RefreshToken: cred.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       cred.ExpiresAt,
		}, nil
	}

	if cred.RefreshToken == "" {
		return nil, sheets.NewError(sheets.CodeRefreshFailed, "access token expired and no refresh token stored")
	}

	refreshed, err := s.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		return nil, sheets.WrapError(sheets.CodeRefreshFailed, "token refresh failed", err)
	}

	// Google may rotate the refresh token; keep the old one otherwise.
	newRefresh := refreshed.RefreshToken
	if newRefresh == "" {
		newRefresh = cred.RefreshToken
	}
	err = s.db.Model(&cred).Updates(map[string]interface{}{
		"access_token":  refreshed.AccessToken,
		"refresh_token": newRefresh,
		"expires_at":    refreshed.Expiry,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	slog.Info("google token refreshed", "user_id", userID.String())
	return refreshed, nil
}
