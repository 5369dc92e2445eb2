package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"rrg-backend/models"
)

// MemoryStore keeps credentials and quote records in memory, optionally
// persisted to a JSON file between restarts. Used for local development
// without a database and as the store in tests.
type MemoryStore struct {
	mu          sync.RWMutex
	credentials []models.Credential
	quotes      []models.QuoteRecord
	nextID      uint
	filePath    string
}

// memorySnapshot is the on-disk shape of a MemoryStore
type memorySnapshot struct {
	Credentials []models.Credential  `json:"credentials"`
	Quotes      []models.QuoteRecord `json:"quotes"`
}

// NewMemoryStore creates an in-memory store. When filePath is non-empty,
// existing data is loaded from it and every write is flushed back.
func NewMemoryStore(filePath string) *MemoryStore {
	store := &MemoryStore{
		nextID:   1,
		filePath: filePath,
	}
	if filePath != "" {
		if err := store.loadFromFile(); err == nil {
			for _, q := range store.quotes {
				if q.ID >= store.nextID {
					store.nextID = q.ID + 1
				}
			}
		}
	}
	return store
}

// ValidCredential returns the most recently created non-expired credential
func (s *MemoryStore) ValidCredential() (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Credential
	for i := range s.credentials {
		c := &s.credentials[i]
		if !c.Valid() {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

// SaveCredential inserts a new credential row
func (s *MemoryStore) SaveCredential(accessToken string, expiresAt time.Time) error {
	s.mu.Lock()
	s.credentials = append(s.credentials, models.Credential{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now(),
	})
	s.mu.Unlock()
	return s.saveToFile()
}

// DeleteCredentials removes every stored credential row
func (s *MemoryStore) DeleteCredentials() error {
	s.mu.Lock()
	s.credentials = nil
	s.mu.Unlock()
	return s.saveToFile()
}

// CredentialCount returns the number of stored credential rows
func (s *MemoryStore) CredentialCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.credentials)
}

// InsertQuotes stores a batch of quote records in one call
func (s *MemoryStore) InsertQuotes(records []models.QuoteRecord) error {
	s.mu.Lock()
	for _, record := range records {
		record.ID = s.nextID
		s.nextID++
		s.quotes = append(s.quotes, record)
	}
	s.mu.Unlock()
	return s.saveToFile()
}

// QuotesSince returns quote records fetched at or after cutoff, newest first
func (s *MemoryStore) QuotesSince(cutoff time.Time) ([]models.QuoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []models.QuoteRecord
	for _, record := range s.quotes {
		if record.FetchedAt.Before(cutoff) {
			continue
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FetchedAt.After(records[j].FetchedAt)
	})
	return records, nil
}

// QuoteCount returns the number of stored quote records
func (s *MemoryStore) QuoteCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quotes)
}

// saveToFile flushes the store to its backing file, if configured
func (s *MemoryStore) saveToFile() error {
	if s.filePath == "" {
		return nil
	}

	s.mu.RLock()
	snapshot := memorySnapshot{
		Credentials: s.credentials,
		Quotes:      s.quotes,
	}
	s.mu.RUnlock()

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store data: %w", err)
	}

	if err := os.WriteFile(s.filePath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return nil
}

// loadFromFile loads previously persisted data
func (s *MemoryStore) loadFromFile() error {
	jsonData, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}

	var snapshot memorySnapshot
	if err := json.Unmarshal(jsonData, &snapshot); err != nil {
		return fmt.Errorf("failed to unmarshal store data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = snapshot.Credentials
	s.quotes = snapshot.Quotes
	return nil
}
