package fyers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rrg-backend/services"
)

func TestGetValidTokenCacheHit(t *testing.T) {
	refreshCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh"})
	}))
	defer srv.Close()

	store := services.NewMemoryStore("")
	require.NoError(t, store.SaveCredential("cached-token", time.Now().Add(time.Hour)))

	client := newTestClient(srv.URL, store)
	token, err := client.GetValidToken()
	require.NoError(t, err)
	require.Equal(t, "cached-token", token)
	require.Equal(t, 0, refreshCalls, "cache hit must not touch the network")
}

func TestGetValidTokenRefreshesOnEmptyCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh"})
	}))
	defer srv.Close()

	store := services.NewMemoryStore("")
	client := newTestClient(srv.URL, store)

	token, err := client.GetValidToken()
	require.NoError(t, err)
	require.Equal(t, "fresh", token)
	require.Equal(t, 1, store.CredentialCount())
}

func TestGetValidTokenIgnoresExpiredCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh"})
	}))
	defer srv.Close()

	store := services.NewMemoryStore("")
	require.NoError(t, store.SaveCredential("expired-token", time.Now().Add(-time.Minute)))

	client := newTestClient(srv.URL, store)
	token, err := client.GetValidToken()
	require.NoError(t, err)
	require.Equal(t, "fresh", token)
}

func TestGetValidTokenFallbackWhenRefreshFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := services.NewMemoryStore("")
	client := newTestClient(srv.URL, store)
	client.fallbackToken = "static-fallback"

	token, err := client.GetValidToken()
	require.NoError(t, err)
	require.Equal(t, "static-fallback", token)
	// The fallback token has unknown expiry and must never be cached
	require.Equal(t, 0, store.CredentialCount())
}

func TestGetValidTokenFailsWithoutFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, services.NewMemoryStore(""))

	_, err := client.GetValidToken()
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
}
