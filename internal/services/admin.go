package services

import (
	"context"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
)

type AdminService struct {
	store  repository.Store
	users  repository.UserRepository
	ledger *LedgerService
}

func NewAdminService(store repository.Store, users repository.UserRepository, ledger *LedgerService) *AdminService {
	return &AdminService{store: store, users: users, ledger: ledger}
}

// Stats is the dashboard summary.
type Stats struct {
	Users      int64 `json:"users"`
	Posts      int64 `json:"posts"`
	Messages   int64 `json:"messages"`
	TotalCoins int64 `json:"total_coins"`
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.Users, err = s.users.CountUsers(ctx); err != nil {
		return nil, err
	}
	if st.Posts, err = s.store.CountPosts(ctx); err != nil {
		return nil, err
	}
	if st.Messages, err = s.store.CountMessages(ctx); err != nil {
		return nil, err
	}
	if st.TotalCoins, err = s.store.TotalCoins(ctx); err != nil {
		return nil, err
	}
	return &st, nil
}

// GrantRequest is the body of POST /admin/coins/grant.
type GrantRequest struct {
	UserID string `json:"userId"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (s *AdminService) Grant(ctx context.Context, req GrantRequest) (*models.CoinTransaction, error) {
	if req.UserID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if _, err := s.users.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}
	return s.ledger.Grant(ctx, req.UserID, req.Amount, req.Reason)
}

// FlagsRequest is the body of PUT /admin/users/{id}/flags.
type FlagsRequest struct {
	Admin    *bool `json:"admin"`
	Verified *bool `json:"verified"`
}

func (s *AdminService) SetFlags(ctx context.Context, userID string, req FlagsRequest) (*models.User, error) {
	if req.Admin == nil && req.Verified == nil {
		return nil, apperr.Validation("no flags to update")
	}
	return s.users.SetUserFlags(ctx, userID, req.Admin, req.Verified)
}
