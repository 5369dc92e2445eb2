package fyers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"rrg-backend/config"
	"rrg-backend/services"
)

// DefaultTokenValidity is assumed when the refresh response carries no
// explicit expires_in. Fyers access tokens are valid for one trading day.
const DefaultTokenValidity = 24 * time.Hour

// Client talks to the Fyers REST API and manages the cached access token
type Client struct {
	appID         string
	secretKey     string
	refreshToken  string
	fallbackToken string
	baseURL       string
	apiVersion    string
	store         services.CredentialStore
	httpClient    *http.Client
	tokenValidity time.Duration
}

// NewClient creates a Fyers API client backed by the given credential store
func NewClient(cfg *config.Config, store services.CredentialStore) *Client {
	return &Client{
		appID:         cfg.FyersAppID,
		secretKey:     cfg.FyersSecretKey,
		refreshToken:  cfg.FyersRefreshToken,
		fallbackToken: cfg.FyersFallbackToken,
		baseURL:       cfg.FyersBaseURL,
		apiVersion:    cfg.FyersAPIVersion,
		store:         store,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		tokenValidity: DefaultTokenValidity,
	}
}

// refreshRequest is the body of the token-exchange call
type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	AppIDHash    string `json:"appIdHash"`
	RefreshToken string `json:"refresh_token"`
	Pin          string `json:"pin"`
}

// refreshResponse is the token-exchange reply
type refreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// sha256Hex computes the hex-encoded SHA-256 of input
func sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// RefreshAccessToken performs the upstream refresh handshake and persists
// the new credential, superseding all stored rows
func (c *Client) RefreshAccessToken() (string, error) {
	var missing []string
	if c.appID == "" {
		missing = append(missing, "FYERS_APP_ID")
	}
	if c.secretKey == "" {
		missing = append(missing, "FYERS_SECRET_KEY")
	}
	if c.refreshToken == "" {
		missing = append(missing, "FYERS_REFRESH_TOKEN")
	}
	if len(missing) > 0 {
		return "", &ConfigError{Missing: missing}
	}

	log.Println("Refreshing Fyers access token...")

	payload, err := json.Marshal(refreshRequest{
		GrantType:    "refresh_token",
		AppIDHash:    sha256Hex(c.appID + ":" + c.secretKey),
		RefreshToken: c.refreshToken,
		Pin:          c.secretKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	refreshURL := fmt.Sprintf("%s/api/%s/validate-refresh-token", c.baseURL, c.apiVersion)
	req, err := http.NewRequest("POST", refreshURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RefreshError{Status: resp.StatusCode, Body: string(body)}
	}

	var tokenResp refreshResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", &RefreshError{Status: resp.StatusCode, Body: "no access_token in response"}
	}

	// The documented protocol does not guarantee an expiry; assume a fixed
	// validity window unless the upstream returns one.
	validity := c.tokenValidity
	if validity == 0 {
		validity = DefaultTokenValidity
	}
	if tokenResp.ExpiresIn > 0 {
		validity = time.Duration(tokenResp.ExpiresIn) * time.Second
	}
	expiresAt := time.Now().Add(validity)

	if err := c.store.DeleteCredentials(); err != nil {
		return "", fmt.Errorf("failed to clear old credentials: %w", err)
	}
	if err := c.store.SaveCredential(tokenResp.AccessToken, expiresAt); err != nil {
		return "", fmt.Errorf("failed to store credential: %w", err)
	}

	log.Printf("Token refreshed successfully, expires at %s", expiresAt.UTC().Format(time.RFC3339))
	return tokenResp.AccessToken, nil
}

// quoteResponse is the quote endpoint reply. Quote values nest under d[i].v;
// lp and chp are pointers so absent fields are distinguishable from zero.
type quoteResponse struct {
	S string `json:"s"`
	D []struct {
		N string `json:"n"`
		V *struct {
			LP  *float64 `json:"lp"`
			CHP *float64 `json:"chp"`
		} `json:"v"`
	} `json:"d"`
}

// FetchQuote fetches the last price and percent change for one symbol.
// Returns ErrUnauthorized when the token is rejected and ErrNoQuoteData when
// the payload lacks the expected fields.
func (c *Client) FetchQuote(token, symbol string) (price, changePercent float64, err error) {
	quoteURL := fmt.Sprintf("%s/data-rest/v3/quotes?symbols=%s", c.baseURL, url.QueryEscape(symbol))

	req, err := http.NewRequest("GET", quoteURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("%s:%s", c.appID, token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return 0, 0, ErrUnauthorized
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("quote API error (status %d): %s", resp.StatusCode, string(body))
	}

	var quote quoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return 0, 0, fmt.Errorf("failed to parse quote response: %w", err)
	}

	if len(quote.D) == 0 || quote.D[0].V == nil || quote.D[0].V.LP == nil {
		return 0, 0, ErrNoQuoteData
	}

	data := quote.D[0].V
	price = *data.LP
	if data.CHP != nil {
		changePercent = *data.CHP
	}
	return price, changePercent, nil
}
