package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAccessToken(t *testing.T) {
	t.Run("Cookie Preferred", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie_token"})
		// Add header as well to ensure cookie takes precedence
		req.Header.Set("Authorization", "Bearer header_token")

		token := ExtractAccessToken(req)
		assert.Equal(t, "cookie_token", token)
	})

	t.Run("Header Fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header_token")

		token := ExtractAccessToken(req)
		assert.Equal(t, "header_token", token)
	})

	t.Run("Empty Cookie Falls Back to Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: ""})
		req.Header.Set("Authorization", "Bearer header_token")

		token := ExtractAccessToken(req)
		assert.Equal(t, "header_token", token)
	})

	t.Run("No Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		token := ExtractAccessToken(req)
		assert.Empty(t, token)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic user:pass")

		token := ExtractAccessToken(req)
		assert.Empty(t, token)
	})
}

func TestParseToken(t *testing.T) {
	const secret = "test-secret"

	t.Run("RoundTrip", func(t *testing.T) {
		tok, err := IssueToken(secret, 42, "admin", time.Hour)
		require.NoError(t, err)

		claims, err := ParseToken(tok, secret)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		tok, err := IssueToken(secret, 42, "customer", time.Hour)
		require.NoError(t, err)

		_, err = ParseToken(tok, "other-secret")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		tok, err := IssueToken(secret, 42, "customer", -time.Minute)
		require.NoError(t, err)

		_, err = ParseToken(tok, secret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("MissingUserID", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"role": "customer",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(secret))
		require.NoError(t, err)

		_, err = ParseToken(tok, secret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("RejectsNoneAlgorithm", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ParseToken(tok, secret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoSecret", func(t *testing.T) {
		_, err := ParseToken("x", "")
		assert.ErrorIs(t, err, ErrMissingSecret)

		_, err = IssueToken("", 1, "customer", time.Hour)
		assert.ErrorIs(t, err, ErrMissingSecret)
	})
}
