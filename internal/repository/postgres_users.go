package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const userColumns = `id, username, password_hash, phone, is_admin, is_verified, created_at`

var _ UserRepository = (*PostgresUsers)(nil)

// PostgresUsers keeps identities in the users table.
type PostgresUsers struct {
	db *sqlx.DB
}

func NewPostgresUsers(db *sqlx.DB) *PostgresUsers {
	return &PostgresUsers{db: db}
}

func (r *PostgresUsers) CreateUser(ctx context.Context, u *models.User, then func(ctx context.Context) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.PasswordHash, u.Phone, u.IsAdmin, u.IsVerified, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("username or phone already registered")
		}
		return err
	}

	if then != nil {
		if err := then(ctx); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PostgresUsers) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUsers) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username)
}

func (r *PostgresUsers) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (r *PostgresUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`, username)
	return exists, err
}

func (r *PostgresUsers) PhoneExists(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE phone = $1)`, phone)
	return exists, err
}

func (r *PostgresUsers) SetUserFlags(ctx context.Context, id string, admin, verified *bool) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u,
		`UPDATE users
		 SET is_admin = COALESCE($2, is_admin),
		     is_verified = COALESCE($3, is_verified)
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, admin, verified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUsers) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
