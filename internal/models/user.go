package models

import (
	"time"
)

// User is the identity record kept in PostgreSQL. Everything social or
// financial lives on the Account document instead.
type User struct {
	ID         string    `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	Phone      string    `db:"phone" json:"-"`
	IsAdmin    bool      `db:"is_admin" json:"is_admin"`
	IsVerified bool      `db:"is_verified" json:"is_verified"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	// Internal only - never returned in JSON
	PasswordHash string `db:"password_hash" json:"-"`
}

// UserSummary is the minimal public projection used in lists.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}
