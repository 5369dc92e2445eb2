package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rrg-backend/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

func newFakePostgREST(t *testing.T, status int, response string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	recorded := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded.Method = r.Method
		recorded.Path = r.URL.Path
		recorded.Query = r.URL.RawQuery
		recorded.Header = r.Header.Clone()
		recorded.Body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	return srv, recorded
}

func TestValidCredentialQueriesNonExpiredRows(t *testing.T) {
	srv, recorded := newFakePostgREST(t, http.StatusOK,
		`[{"id":"abc","access_token":"stored-token","expires_at":"2030-01-01T00:00:00Z"}]`)
	defer srv.Close()

	store, err := NewSupabaseStore(srv.URL, "anon-key", "service-key")
	require.NoError(t, err)

	credential, err := store.ValidCredential()
	require.NoError(t, err)
	require.NotNil(t, credential)
	require.Equal(t, "stored-token", credential.AccessToken)

	require.Equal(t, "GET", recorded.Method)
	require.Equal(t, "/rest/v1/fyers_tokens", recorded.Path)
	require.Contains(t, recorded.Query, "expires_at=gt.")
	require.Contains(t, recorded.Query, "order=created_at.desc")
	require.Contains(t, recorded.Query, "limit=1")

	// Service key wins over anon key when both are set
	require.Equal(t, "service-key", recorded.Header.Get("apikey"))
	require.Equal(t, "Bearer service-key", recorded.Header.Get("Authorization"))
}

func TestValidCredentialEmptyTable(t *testing.T) {
	srv, _ := newFakePostgREST(t, http.StatusOK, `[]`)
	defer srv.Close()

	store, err := NewSupabaseStore(srv.URL, "anon-key", "")
	require.NoError(t, err)

	credential, err := store.ValidCredential()
	require.NoError(t, err)
	require.Nil(t, credential)
}

func TestSaveCredentialPostsRow(t *testing.T) {
	srv, recorded := newFakePostgREST(t, http.StatusCreated, "")
	defer srv.Close()

	store, err := NewSupabaseStore(srv.URL, "anon-key", "")
	require.NoError(t, err)

	expiresAt := time.Date(2026, 9, 1, 9, 15, 0, 0, time.UTC)
	require.NoError(t, store.SaveCredential("new-token", expiresAt))

	require.Equal(t, "POST", recorded.Method)
	require.Equal(t, "/rest/v1/fyers_tokens", recorded.Path)
	require.Equal(t, "return=minimal", recorded.Header.Get("Prefer"))
	require.Equal(t, "anon-key", recorded.Header.Get("apikey"))

	var row map[string]string
	require.NoError(t, json.Unmarshal(recorded.Body, &row))
	require.Equal(t, "new-token", row["access_token"])
	require.Equal(t, "2026-09-01T09:15:00Z", row["expires_at"])
}

func TestDeleteCredentialsUsesSentinelFilter(t *testing.T) {
	srv, recorded := newFakePostgREST(t, http.StatusNoContent, "")
	defer srv.Close()

	store, err := NewSupabaseStore(srv.URL, "anon-key", "")
	require.NoError(t, err)

	require.NoError(t, store.DeleteCredentials())
	require.Equal(t, "DELETE", recorded.Method)
	require.Equal(t, "/rest/v1/fyers_tokens", recorded.Path)
	require.Equal(t, "id=neq.00000000-0000-0000-0000-000000000000", recorded.Query)
}

func TestInsertQuotesBatchesOneCall(t *testing.T) {
	srv, recorded := newFakePostgREST(t, http.StatusCreated, "")
	defer srv.Close()

	store, err := NewSupabaseStore(srv.URL, "anon-key", "")
	require.NoError(t, err)

	now := time.Now().UTC()
	records := []models.QuoteRecord{
		{Symbol: "NSE:SBIN-EQ", Price: 812.5, RSRatio: 101.2, RSMomentum: 99.8, FetchedAt: now},
		{Symbol: "NSE:TCS-EQ", Price: 3890, RSRatio: 98.4, RSMomentum: 100.1, FetchedAt: now},
	}
	require.NoError(t, store.InsertQuotes(records))

	require.Equal(t, "POST", recorded.Method)
	require.Equal(t, "/rest/v1/market_data", recorded.Path)

	var posted []map[string]interface{}
	require.NoError(t, json.Unmarshal(recorded.Body, &posted))
	require.Len(t, posted, 2)
	require.Equal(t, "NSE:SBIN-EQ", posted[0]["symbol"])
	require.Contains(t, posted[0], "rs_ratio")
	require.Contains(t, posted[0], "rs_momentum")
}

func TestInsertQuotesEmptyBatchSkipsNetwork(t *testing.T) {
	store, err := NewSupabaseStore("http://supabase.invalid", "anon-key", "")
	require.NoError(t, err)
	require.NoError(t, store.InsertQuotes(nil))
}

func TestQuotesSinceFiltersByCutoff(t *testing.T) {
	srv, recorded := newFakePostgREST(t, http.StatusOK,
		`[{"symbol":"NSE:SBIN-EQ","price":812.5,"rs_ratio":101.2,"rs_momentum":99.8}]`)
	defer srv.Close()

	store, err := NewSupabaseStore(srv.URL, "anon-key", "")
	require.NoError(t, err)

	records, err := store.QuotesSince(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "NSE:SBIN-EQ", records[0].Symbol)

	require.Equal(t, "/rest/v1/market_data", recorded.Path)
	require.Contains(t, recorded.Query, "fetched_at=gte.2026-08-24T00%3A00%3A00Z")
	require.Contains(t, recorded.Query, "order=fetched_at.desc")
}

func TestSupabaseErrorSurfacesStatusAndBody(t *testing.T) {
	srv, _ := newFakePostgREST(t, http.StatusInternalServerError, `{"message":"relation does not exist"}`)
	defer srv.Close()

	store, err := NewSupabaseStore(srv.URL, "anon-key", "")
	require.NoError(t, err)

	_, err = store.ValidCredential()
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 500")
	require.Contains(t, err.Error(), "relation does not exist")
}

func TestNewSupabaseStoreValidatesConfig(t *testing.T) {
	_, err := NewSupabaseStore("", "anon-key", "")
	require.Error(t, err)

	_, err = NewSupabaseStore("http://localhost", "", "")
	require.Error(t, err)
}
