package services

import (
	"context"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
)

// Directory resolves user ids to public summaries.
type Directory struct {
	users    repository.UserRepository
	accounts repository.AccountRepository
}

func NewDirectory(users repository.UserRepository, accounts repository.AccountRepository) *Directory {
	return &Directory{users: users, accounts: accounts}
}

// Summaries keeps the order of ids and skips ids with no user.
func (d *Directory) Summaries(ctx context.Context, ids []string) ([]models.UserSummary, error) {
	out := make([]models.UserSummary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := d.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	accounts, err := d.accounts.GetAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		u, ok := users[id]
		if !ok {
			continue
		}
		s := models.UserSummary{ID: u.ID, Username: u.Username}
		if acc, ok := accounts[id]; ok {
			s.Avatar = acc.Avatar
		}
		out = append(out, s)
	}
	return out, nil
}

// Summary resolves one id; an unknown id yields an empty username.
func (d *Directory) Summary(ctx context.Context, id string) models.UserSummary {
	list, err := d.Summaries(ctx, []string{id})
	if err != nil || len(list) == 0 {
		return models.UserSummary{ID: id}
	}
	return list[0]
}
