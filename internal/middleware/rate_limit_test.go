package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/denuncias/internal/auth"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitByIP_BlocksAfterLimit(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{Requests: 2, Window: time.Minute})(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitByIP_SeparatesClients(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{Requests: 1, Window: time.Minute})(okHandler())

	for _, addr := range []string{"203.0.113.7:5000", "203.0.113.8:5000"} {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, addr)
	}
}

func TestRateLimitByUser_KeysOnUserID(t *testing.T) {
	handler := RateLimitByUser(RateLimitConfig{Requests: 1, Window: time.Minute})(okHandler())

	send := func(userID string) int {
		req := httptest.NewRequest("POST", "/complaints", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		req = req.WithContext(auth.WithClaims(req.Context(), &models.TokenClaims{UserID: userID, Role: models.RoleCitizen}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("citizen-1"))
	assert.Equal(t, http.StatusOK, send("citizen-2"), "same IP, different user")
	assert.Equal(t, http.StatusTooManyRequests, send("citizen-1"))
}

func TestUserKey_FallsBackToIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.2:1234"

	key, err := userKey(req)

	assert.NoError(t, err)
	assert.Equal(t, "ip:198.51.100.2", key)
}
