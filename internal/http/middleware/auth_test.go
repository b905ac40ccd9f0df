package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evtrack/internal/service"
)

func newTestMiddleware(t *testing.T) (func(http.Handler) http.Handler, string) {
	t.Helper()
	tokens := service.NewTokenService("test-secret", time.Hour)
	token, err := tokens.GenerateToken(7, "user")
	require.NoError(t, err)
	return Auth(tokens), token
}

func echoUserID(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, int64(7), userID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthAcceptsBearerHeader(t *testing.T) {
	authed, token := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/api/charging-data", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	authed(echoUserID(t)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthAcceptsTokenQueryParam(t *testing.T) {
	authed, token := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec := httptest.NewRecorder()

	authed(echoUserID(t)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	authed, _ := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/api/charging-data", nil)
	rec := httptest.NewRecorder()

	authed(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without a token")
	})).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsTamperedToken(t *testing.T) {
	authed, token := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/api/charging-data", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	rec := httptest.NewRecorder()

	authed(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run with a bad token")
	})).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
