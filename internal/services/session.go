package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RevokedTokenKeyPrefix is the Redis key prefix for signed-out tokens.
const RevokedTokenKeyPrefix = "revoked_token:"

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID    string
	IsAdmin   bool
	TokenID   string
	ExpiresAt time.Time
}

// Claims is the JWT payload.
type Claims struct {
	Admin bool `json:"adm"`
	jwt.RegisteredClaims
}

// Denylist remembers revoked token ids until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NewDenylist returns a Redis denylist, or an in-process one when client is nil.
func NewDenylist(client *redis.Client) Denylist {
	if client == nil {
		return &localDenylist{revoked: make(map[string]time.Time)}
	}
	return &redisDenylist{client: client}
}

type redisDenylist struct {
	client *redis.Client
}

func (d *redisDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, RevokedTokenKeyPrefix+tokenID, "1", ttl).Err()
}

func (d *redisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, RevokedTokenKeyPrefix+tokenID).Result()
	return n > 0, err
}

type localDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (d *localDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	for id, exp := range d.revoked {
		if now.After(exp) {
			delete(d.revoked, id)
		}
	}
	d.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (d *localDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.revoked[tokenID]
	return ok && time.Now().Before(exp), nil
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	secret  []byte
	ttl     time.Duration
	revoked Denylist
	now     func() time.Time
}

func NewTokenService(secret string, ttl time.Duration, revoked Denylist) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, revoked: revoked, now: time.Now}
}

// Issue signs a token for u.
func (s *TokenService) Issue(u *models.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &Claims{
		Admin: u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Parse validates tokenString and checks it has not been signed out.
func (s *TokenService) Parse(ctx context.Context, tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, apperr.Unauthorized("invalid token claims")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.Unauthorized("token has been signed out")
	}

	return &Identity{
		UserID:    claims.Subject,
		IsAdmin:   claims.Admin,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke signs the token out until its natural expiry.
func (s *TokenService) Revoke(ctx context.Context, id *Identity) error {
	if id == nil || id.TokenID == "" {
		return errors.New("no token to revoke")
	}
	return s.revoked.Revoke(ctx, id.TokenID, id.ExpiresAt.Sub(s.now()))
}
