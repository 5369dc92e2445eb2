package fyers

import (
	"log"
)

// GetValidToken returns a currently valid access token: the cached
// credential when one exists, otherwise a fresh token from the upstream
// refresh handshake. When refresh fails and a fallback token is configured,
// the fallback is returned without being cached (its expiry is unknown).
//
// No locking guards concurrent cache misses; duplicate refreshes are
// harmless because the store follows delete-then-insert.
func (c *Client) GetValidToken() (string, error) {
	credential, err := c.store.ValidCredential()
	if err != nil {
		log.Printf("Failed to read credential cache: %v", err)
	}
	if credential != nil {
		log.Printf("Using cached token, expires at %s", credential.ExpiresAt.UTC())
		return credential.AccessToken, nil
	}

	log.Println("No valid cached token, refreshing...")
	token, err := c.RefreshAccessToken()
	if err == nil {
		return token, nil
	}

	if c.fallbackToken != "" {
		log.Printf("Token refresh failed (%v), using configured fallback token", err)
		return c.fallbackToken, nil
	}

	return "", &AuthError{Cause: err}
}
