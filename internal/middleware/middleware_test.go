package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resto-be/internal/auth"
	"resto-be/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestCors(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := NewCORS([]string{"http://localhost:3000"})(nextHandler)

	t.Run("OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/test", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Normal request", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Unknown origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuth(t *testing.T) {
	authMW := NewAuthMiddleware(testSecret)

	t.Run("Missing Token", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := utils.GetUserIDFromContext(r.Context())
			assert.False(t, ok, "Context should not contain user ID")
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest("GET", "/api/cart", nil)
		w := httptest.NewRecorder()

		authMW(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/cart", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		authMW(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid or expired token")
	})

	t.Run("Valid Token", func(t *testing.T) {
		tokenString, err := auth.IssueToken(testSecret, 1, utils.RoleCustomer, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/cart", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, uint(1), userID)
			assert.False(t, utils.IsAdmin(r.Context()))
			w.WriteHeader(http.StatusOK)
		})

		authMW(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Admin From Cookie", func(t *testing.T) {
		tokenString, err := auth.IssueToken(testSecret, 7, utils.RoleAdmin, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/orders/1", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: tokenString})
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, utils.IsAdmin(r.Context()))
			w.WriteHeader(http.StatusOK)
		})

		authMW(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Unknown Role Downgraded", func(t *testing.T) {
		tokenString, err := auth.IssueToken(testSecret, 3, "superuser", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/cart", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, utils.RoleCustomer, utils.GetUserRoleFromContext(r.Context()))
			w.WriteHeader(http.StatusOK)
		})

		authMW(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Expired Token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": 1,
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		tokenString, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/cart", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		w := httptest.NewRecorder()

		authMW(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/cart", nil)
		req.Header.Set("Authorization", "Basic user:pass")
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := utils.GetUserIDFromContext(r.Context())
			assert.False(t, ok)
			w.WriteHeader(http.StatusOK)
		})

		authMW(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Strict tier on payment callback", func(t *testing.T) {
		rl := NewRateLimiter("")
		handler := rl.Middleware(ok)

		codes := make([]int, 0, burstStrict+1)
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest("POST", "/api/payments/notify", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}

		for _, c := range codes[:burstStrict] {
			assert.Equal(t, http.StatusOK, c)
		}
		assert.Equal(t, http.StatusTooManyRequests, codes[burstStrict])
	})

	t.Run("Separate buckets per caller", func(t *testing.T) {
		rl := NewRateLimiter("")
		handler := rl.Middleware(ok)

		for i := 0; i < burstStrict; i++ {
			req := httptest.NewRequest("POST", "/api/payments/notify", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest("POST", "/api/payments/notify", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Tier resolution", func(t *testing.T) {
		rl := NewRateLimiter("svc-key")

		req := httptest.NewRequest("GET", "/api/cart", nil)
		_, _, tier := rl.resolveRateTier(req)
		assert.Equal(t, "general", tier)

		req.Header.Set("X-Client-Type", "frontend-heavy")
		_, _, tier = rl.resolveRateTier(req)
		assert.Equal(t, "frontend", tier)

		req.Header.Set("X-Service-Auth", "svc-key")
		_, _, tier = rl.resolveRateTier(req)
		assert.Equal(t, "internal", tier)

		req = httptest.NewRequest("POST", "/api/payments/create", nil)
		_, _, tier = rl.resolveRateTier(req)
		assert.Equal(t, "strict", tier)
	})

	t.Run("Identity prefers user id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/cart", nil)
		req.Header.Set("X-Device-ID", "dev-1")
		assert.Equal(t, "device:dev-1", identity(req))

		req = req.WithContext(utils.SetUserContext(req.Context(), 9, utils.RoleCustomer))
		assert.Equal(t, "user:9", identity(req))
	})

	t.Run("Evicts idle visitors", func(t *testing.T) {
		rl := NewRateLimiter("")
		rl.getVisitor("ip:1:general", limitGeneral, burstGeneral)
		rl.evict(time.Now().Add(visitorIdle + time.Second))

		rl.mu.Lock()
		defer rl.mu.Unlock()
		assert.Empty(t, rl.visitors)
	})
}
