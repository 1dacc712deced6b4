package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/services"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeTokens map[string]*services.Identity

func (f fakeTokens) Parse(ctx context.Context, token string) (*services.Identity, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return nil, apperr.Unauthorized("invalid or expired token")
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(UserID(r.Context())))
	})
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	assert.Equal(t, "from-query", BearerToken(r))

	r.Header.Set("Authorization", "bearer  from-header ")
	assert.Equal(t, "from-header", BearerToken(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, BearerToken(r))
}

func TestRequireAuth(t *testing.T) {
	auth := NewAuth(fakeTokens{"good": {UserID: "alice"}})
	h := auth.RequireAuth(echoUser())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"no token", "", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"good token", "Bearer good", http.StatusOK, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	auth := NewAuth(fakeTokens{"good": {UserID: "alice"}})
	h := auth.OptionalAuth(echoUser())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer expired")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	r.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "alice", w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	auth := NewAuth(fakeTokens{
		"user":  {UserID: "alice"},
		"admin": {UserID: "root", IsAdmin: true},
	})
	h := auth.RequireAuth(RequireAdmin(echoUser()))

	for token, want := range map[string]int{"user": http.StatusForbidden, "admin": http.StatusOK} {
		r := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, want, w.Code, token)
	}

	w := httptest.NewRecorder()
	RequireAdmin(echoUser()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLimiterSet(t *testing.T) {
	s := newLimiterSet(rate.Every(time.Hour), 2)

	assert.True(t, s.allow("a"))
	assert.True(t, s.allow("a"))
	assert.False(t, s.allow("a"))
	assert.True(t, s.allow("b"), "buckets are per key")

	s.sweep(time.Now().Add(limiterTTL + time.Minute))
	s.mu.Lock()
	assert.Empty(t, s.entries)
	s.mu.Unlock()
	assert.True(t, s.allow("a"))
}

func TestMessageRateLimitOnlyCountsSends(t *testing.T) {
	h := MessageRateLimit(echoUser())
	ctx := WithIdentity(context.Background(), &services.Identity{UserID: "chatty"})

	for i := 0; i < messageRateLimitBurst+5; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/messages/bob", nil).WithContext(ctx))
		require.Equal(t, http.StatusOK, w.Code)
	}

	var last int
	for i := 0; i <= messageRateLimitBurst; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/messages/bob", nil).WithContext(ctx))
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestHostCheck(t *testing.T) {
	h := HostCheck("api.clubhub.app")(echoUser())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Host = "API.clubhub.app:443"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	r.Host = "evil.example"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimiterWithoutRedisFailsOpen(t *testing.T) {
	l := NewRateLimiter(nil)
	w := httptest.NewRecorder()
	l.Middleware(echoUser()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	blocked, err := l.IsBlocked(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.NoError(t, l.Unblock(context.Background(), "10.0.0.1"))
}
