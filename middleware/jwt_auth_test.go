package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-signing-key"

func newProtectedRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/protected", JWTAuthMiddleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return router
}

func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := SupabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: "trader@example.com",
		Role:  "authenticated",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	router := newProtectedRouter(testSecret)

	req := httptest.NewRequest("POST", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "user-42")
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	router := newProtectedRouter(testSecret)

	req := httptest.NewRequest("POST", "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsMalformedHeader(t *testing.T) {
	router := newProtectedRouter(testSecret)

	req := httptest.NewRequest("POST", "/protected", nil)
	req.Header.Set("Authorization", "Token abc123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsWrongSignature(t *testing.T) {
	router := newProtectedRouter(testSecret)

	req := httptest.NewRequest("POST", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	router := newProtectedRouter(testSecret)

	req := httptest.NewRequest("POST", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, time.Now().Add(-time.Minute)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthNoOpWithoutSecret(t *testing.T) {
	router := newProtectedRouter("")

	req := httptest.NewRequest("POST", "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
