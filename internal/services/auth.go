package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/AnshRaj112/clubhub-backend/pkg/utils"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var errBadCredentials = apperr.Unauthorized("Invalid username or password")

type AuthService struct {
	store   repository.Store
	users   repository.UserRepository
	tokens  *TokenService
	invites *InviteService
	now     func() time.Time
}

func NewAuthService(store repository.Store, users repository.UserRepository, tokens *TokenService, invites *InviteService) *AuthService {
	return &AuthService{
		store:   store,
		users:   users,
		tokens:  tokens,
		invites: invites,
		now:     time.Now,
	}
}

type SignupRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
	InviteCode string `json:"inviteCode,omitempty"`
}

type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is returned by signin.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Signup creates the identity row and the account together. The SQL
// transaction only commits once the account (and any invite redemption)
// has been written.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if err := utils.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	phone := utils.NormalizePhone(req.Phone)
	if err := utils.ValidatePhone(phone); err != nil {
		return nil, err
	}

	if exists, err := s.users.UsernameExists(ctx, username); err != nil {
		return nil, err
	} else if exists {
		return nil, apperr.Conflict("username is already taken")
	}
	if exists, err := s.users.PhoneExists(ctx, phone); err != nil {
		return nil, err
	} else if exists {
		return nil, apperr.Conflict("phone number is already registered")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Phone:        phone,
		PasswordHash: hash,
		CreatedAt:    now,
	}

	accountWritten := false
	err = s.users.CreateUser(ctx, u, func(ctx context.Context) error {
		err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.store.CreateAccount(ctx, models.NewAccount(u.ID, now)); err != nil {
				return err
			}
			if code := strings.TrimSpace(req.InviteCode); code != "" {
				return s.invites.redeem(ctx, code, u.ID)
			}
			return nil
		})
		accountWritten = err == nil
		return err
	})
	if err != nil {
		if accountWritten {
			if delErr := s.store.DeleteAccount(context.WithoutCancel(ctx), u.ID); delErr != nil {
				log.WithError(delErr).WithField("user_id", u.ID).Error("❌ failed to remove account after signup failure")
			}
		}
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": u.ID, "username": u.Username}).Info("✅ user signed up")
	return u, nil
}

func (s *AuthService) Signin(ctx context.Context, req SigninRequest) (*Session, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, apperr.Validation("username and password are required")
	}

	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}

	valid, err := utils.VerifyPassword(req.Password, u.PasswordHash)
	if err != nil || !valid {
		return nil, errBadCredentials
	}

	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func (s *AuthService) Signout(ctx context.Context, id *Identity) error {
	return s.tokens.Revoke(ctx, id)
}

// Me is the signed-in user's own summary.
type Me struct {
	User        *models.User `json:"user"`
	Avatar      string       `json:"avatar"`
	CoinBalance int64        `json:"coin_balance"`
	IsVIP       bool         `json:"is_vip"`
	VIPUntil    *time.Time   `json:"vip_until,omitempty"`
}

func (s *AuthService) Me(ctx context.Context, userID string) (*Me, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	acc, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	me := &Me{
		User:        u,
		Avatar:      acc.Avatar,
		CoinBalance: acc.CoinBalance,
		IsVIP:       acc.IsVIP(s.now()),
	}
	if me.IsVIP {
		until := acc.VIPUntil()
		me.VIPUntil = &until
	}
	return me, nil
}
