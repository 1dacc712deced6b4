package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockUsers(t *testing.T) (*PostgresUsers, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresUsers(sqlx.NewDb(db, "postgres")), mock
}

func testUser() *models.User {
	return &models.User{
		ID:           "5f0c6c1e-8d7a-4b55-9a3e-6b8f0a1d2c3e",
		Username:     "alice",
		PasswordHash: "hash",
		Phone:        "+15550001111",
		CreatedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateUserCommitsAfterCallback(t *testing.T) {
	repo, mock := newMockUsers(t)
	u := testUser()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Username, u.PasswordHash, u.Phone, false, false, u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	called := false
	err := repo.CreateUser(context.Background(), u, func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserRollsBackWhenCallbackFails(t *testing.T) {
	repo, mock := newMockUsers(t)
	u := testUser()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("account insert failed")
	err := repo.CreateUser(context.Background(), u, func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateIsConflict(t *testing.T) {
	repo, mock := newMockUsers(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateUser(context.Background(), testUser(), nil)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByUsername(t *testing.T) {
	repo, mock := newMockUsers(t)
	u := testUser()

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "phone", "is_admin", "is_verified", "created_at"}).
		AddRow(u.ID, u.Username, u.PasswordHash, u.Phone, false, true, u.CreatedAt)
	mock.ExpectQuery(`WHERE LOWER\(username\) = LOWER\(\$1\)`).WithArgs("ALICE").WillReturnRows(rows)

	got, err := repo.GetUserByUsername(context.Background(), "ALICE")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.IsVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserMissingIsNotFound(t *testing.T) {
	repo, mock := newMockUsers(t)

	mock.ExpectQuery("FROM users WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUsersEmptyInputSkipsQuery(t *testing.T) {
	repo, mock := newMockUsers(t)

	got, err := repo.GetUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
