package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"rrg-backend/models"
)

// PostgresStore persists credentials and market data over a direct Postgres
// connection. Used in self-hosted mode where the Supabase REST API is not
// available.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore creates a Postgres-backed store and runs migrations
func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := models.MigrateMarketModels(db); err != nil {
		return nil, fmt.Errorf("failed to migrate market models: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// ValidCredential returns the most recently created non-expired credential
func (s *PostgresStore) ValidCredential() (*models.Credential, error) {
	var credential models.Credential
	err := s.db.Where("expires_at > ?", time.Now()).
		Order("created_at DESC").
		First(&credential).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	return &credential, nil
}

// SaveCredential inserts a new credential row
func (s *PostgresStore) SaveCredential(accessToken string, expiresAt time.Time) error {
	credential := models.Credential{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
	}
	if err := s.db.Create(&credential).Error; err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// DeleteCredentials removes every stored credential row
func (s *PostgresStore) DeleteCredentials() error {
	err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Credential{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

// InsertQuotes stores a batch of quote records in one call
func (s *PostgresStore) InsertQuotes(records []models.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.db.Create(&records).Error; err != nil {
		return fmt.Errorf("failed to insert market data: %w", err)
	}
	return nil
}

// QuotesSince returns quote records fetched at or after cutoff, newest first
func (s *PostgresStore) QuotesSince(cutoff time.Time) ([]models.QuoteRecord, error) {
	var records []models.QuoteRecord
	err := s.db.Where("fetched_at >= ?", cutoff).
		Order("fetched_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query market data: %w", err)
	}
	return records, nil
}
