package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/clubhub-backend/internal/services"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenParser resolves a bearer token to the caller's identity.
type TokenParser interface {
	Parse(ctx context.Context, token string) (*services.Identity, error)
}

// Auth attaches the caller's identity to the request context.
type Auth struct {
	tokens TokenParser
}

func NewAuth(tokens TokenParser) *Auth {
	return &Auth{tokens: tokens}
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *services.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity set by the auth middleware, or nil.
func IdentityFrom(ctx context.Context) *services.Identity {
	id, _ := ctx.Value(identityKey).(*services.Identity)
	return id
}

// UserID is the caller's id, or "" when anonymous.
func UserID(ctx context.Context) string {
	if id := IdentityFrom(ctx); id != nil {
		return id.UserID
	}
	return ""
}

// BearerToken reads the Authorization header, falling back to the token
// query parameter for browser WebSocket clients.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// OptionalAuth attaches an identity when a valid token is present and
// otherwise lets the request through anonymously.
func (a *Auth) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := BearerToken(r); token != "" {
			if id, err := a.tokens.Parse(r.Context(), token); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests without a valid token with 401.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		id, err := a.tokens.Parse(r.Context(), token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFrom(r.Context())
		if id == nil {
			writeJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !id.IsAdmin {
			writeJSONError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
