package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"rrg-backend/models"
)

// credentialSentinelID is never used by a real row; deleting with id=neq
// keeps PostgREST happy, which refuses an unfiltered DELETE.
const credentialSentinelID = "00000000-0000-0000-0000-000000000000"

// SupabaseStore handles credential and market data persistence via the
// Supabase REST API (PostgREST)
type SupabaseStore struct {
	URL        string
	AnonKey    string
	ServiceKey string
	httpClient *http.Client
}

// NewSupabaseStore creates a new Supabase-backed store
func NewSupabaseStore(supabaseURL, anonKey, serviceKey string) (*SupabaseStore, error) {
	if supabaseURL == "" {
		return nil, errors.New("SUPABASE_URL is required")
	}
	if anonKey == "" && serviceKey == "" {
		return nil, errors.New("SUPABASE_ANON_KEY or SUPABASE_SERVICE_KEY is required")
	}

	return &SupabaseStore{
		URL:        supabaseURL,
		AnonKey:    anonKey,
		ServiceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// getAPIKey returns the best available API key (service key preferred)
func (s *SupabaseStore) getAPIKey() string {
	if s.ServiceKey != "" {
		return s.ServiceKey
	}
	return s.AnonKey
}

func (s *SupabaseStore) newRequest(method, queryURL string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, queryURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", s.getAPIKey())
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.getAPIKey()))
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// ValidCredential returns the most recently created non-expired credential,
// or (nil, nil) when the table has no usable row
func (s *SupabaseStore) ValidCredential() (*models.Credential, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	queryURL := fmt.Sprintf("%s/rest/v1/fyers_tokens?expires_at=gt.%s&order=created_at.desc&limit=1",
		s.URL, url.QueryEscape(now))

	req, err := s.newRequest("GET", queryURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supabase error (status %d): %s", resp.StatusCode, string(body))
	}

	var credentials []models.Credential
	if err := json.Unmarshal(body, &credentials); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(credentials) == 0 {
		return nil, nil
	}
	return &credentials[0], nil
}

// SaveCredential inserts a new credential row
func (s *SupabaseStore) SaveCredential(accessToken string, expiresAt time.Time) error {
	queryURL := fmt.Sprintf("%s/rest/v1/fyers_tokens", s.URL)

	payload, err := json.Marshal(map[string]string{
		"access_token": accessToken,
		"expires_at":   expiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	req, err := s.newRequest("POST", queryURL, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to store credential (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// DeleteCredentials removes every stored credential row
func (s *SupabaseStore) DeleteCredentials() error {
	queryURL := fmt.Sprintf("%s/rest/v1/fyers_tokens?id=neq.%s", s.URL, credentialSentinelID)

	req, err := s.newRequest("DELETE", queryURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to delete credentials (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// InsertQuotes stores a batch of quote records in one call
func (s *SupabaseStore) InsertQuotes(records []models.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}

	queryURL := fmt.Sprintf("%s/rest/v1/market_data", s.URL)

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal quote records: %w", err)
	}

	req, err := s.newRequest("POST", queryURL, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to insert market data (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// QuotesSince returns quote records fetched at or after cutoff, newest first
func (s *SupabaseStore) QuotesSince(cutoff time.Time) ([]models.QuoteRecord, error) {
	queryURL := fmt.Sprintf("%s/rest/v1/market_data?fetched_at=gte.%s&order=fetched_at.desc",
		s.URL, url.QueryEscape(cutoff.UTC().Format(time.RFC3339)))

	req, err := s.newRequest("GET", queryURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supabase error (status %d): %s", resp.StatusCode, string(body))
	}

	var records []models.QuoteRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return records, nil
}

// TestConnection tests the connection to Supabase
func (s *SupabaseStore) TestConnection() error {
	queryURL := fmt.Sprintf("%s/rest/v1/market_data?limit=0", s.URL)

	req, err := s.newRequest("GET", queryURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to Supabase: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("supabase connection test failed (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}
