package services

import (
	"time"

	"rrg-backend/models"
)

// CredentialStore is the durable cache of the current Fyers access token.
// The store may hold stale rows; ValidCredential selects the most recently
// created non-expired one. Writes follow a delete-then-insert pattern so
// concurrent refreshes resolve to last-write-wins.
type CredentialStore interface {
	// ValidCredential returns the most recently created credential whose
	// expiry is still in the future, or (nil, nil) when none exists.
	ValidCredential() (*models.Credential, error)
	SaveCredential(accessToken string, expiresAt time.Time) error
	DeleteCredentials() error
}

// QuoteStore is the append-only market data log
type QuoteStore interface {
	// InsertQuotes stores the batch in a single call. Partial persistence is
	// not attempted: the batch either lands completely or the call errors.
	InsertQuotes(records []models.QuoteRecord) error
	// QuotesSince returns records with fetched_at >= cutoff, newest first.
	QuotesSince(cutoff time.Time) ([]models.QuoteRecord, error)
}

// Store combines both stores; every backend implements it
type Store interface {
	CredentialStore
	QuoteStore
}
