package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newTestContainer wires every service over a fresh memory store with
// a controllable clock and no Redis.
func newTestContainer(t *testing.T) (*Container, *memory.Store, *clock) {
	t.Helper()
	store := memory.New()
	c := NewContainer(Options{
		Store:       store,
		Users:       store,
		JWTSecret:   "test-secret",
		JWTTTL:      time.Hour,
		MessageCost: 1,
		VIPPrice:    99,
		VIPDuration: 30 * 24 * time.Hour,
		InviteBonus: 10,
	})

	clk := &clock{now: t0}
	c.Tokens.now = clk.Now
	c.Notifications.now = clk.Now
	c.Ledger.now = clk.Now
	c.VIP.now = clk.Now
	c.Friends.now = clk.Now
	c.Profiles.now = clk.Now
	c.Messages.now = clk.Now
	c.Posts.now = clk.Now
	c.Clubs.now = clk.Now
	c.Invites.now = clk.Now
	c.Schools.now = clk.Now
	c.Auth.now = clk.Now
	return c, store, clk
}

// addUser creates a user and its account directly, skipping password hashing.
func addUser(t *testing.T, store *memory.Store, username string) string {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	u := &models.User{ID: id, Username: username, PasswordHash: "x", CreatedAt: t0}
	require.NoError(t, store.CreateUser(ctx, u, func(ctx context.Context) error {
		return store.CreateAccount(ctx, models.NewAccount(id, t0))
	}))
	return id
}

func balanceOf(t *testing.T, store *memory.Store, userID string) int64 {
	t.Helper()
	acc, err := store.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	return acc.CoinBalance
}

// ledgerSum adds up every transaction recorded for userID.
func ledgerSum(t *testing.T, store *memory.Store, userID string) int64 {
	t.Helper()
	txns, err := store.ListTransactions(context.Background(), userID, 1000, 0)
	require.NoError(t, err)
	var sum int64
	for _, txn := range txns {
		sum += txn.Amount
	}
	return sum
}
