package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerKeepsBalanceEqualToHistory(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")

	_, err := c.Ledger.Grant(ctx, alice, 10, "")
	require.NoError(t, err)
	_, err = c.Ledger.Spend(ctx, alice, 4, models.ReasonMessage)
	require.NoError(t, err)
	_, err = c.Ledger.Spend(ctx, alice, 7, models.ReasonMessage)
	assert.True(t, errors.Is(err, apperr.ErrInsufficientFunds))
	txn, err := c.Ledger.Spend(ctx, alice, 6, models.ReasonMessage)
	require.NoError(t, err)
	assert.Equal(t, int64(0), txn.BalanceAfter)

	assert.Equal(t, int64(0), balanceOf(t, store, alice))
	assert.Equal(t, balanceOf(t, store, alice), ledgerSum(t, store, alice))

	wallet, err := c.Ledger.Wallet(ctx, alice, 0, 0)
	require.NoError(t, err)
	assert.Len(t, wallet.Transactions, 3, "the rejected spend leaves no entry")
	assert.Equal(t, int64(-6), wallet.Transactions[0].Amount, "newest first")
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")

	_, err := c.Ledger.Grant(ctx, alice, 0, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = c.Ledger.Spend(ctx, alice, -3, models.ReasonMessage)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = c.Ledger.Grant(ctx, "missing", 5, "")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestGrantRejectsOverflow(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")

	_, err := c.Ledger.Grant(ctx, alice, 1, "")
	require.NoError(t, err)

	_, err = c.Ledger.Grant(ctx, alice, math.MaxInt64, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, int64(1), balanceOf(t, store, alice))
	assert.Equal(t, int64(1), ledgerSum(t, store, alice))
}

func TestPurchaseVIPExtendsFromCurrentExpiry(t *testing.T) {
	c, store, clk := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	_, err := c.Ledger.Grant(ctx, alice, 250, "")
	require.NoError(t, err)

	month := 30 * 24 * time.Hour

	first, err := c.VIP.Purchase(ctx, alice, 1)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(month), first.Record.ExpiresAt)
	assert.Equal(t, int64(151), first.Balance)

	clk.Advance(10 * 24 * time.Hour)
	second, err := c.VIP.Purchase(ctx, alice, 1)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(2*month), second.Record.ExpiresAt, "unexpired time is kept")
	assert.Equal(t, int64(52), second.Balance)

	_, err = c.VIP.Purchase(ctx, alice, 1)
	assert.True(t, errors.Is(err, apperr.ErrInsufficientFunds))

	status, err := c.VIP.Status(ctx, alice)
	require.NoError(t, err)
	assert.True(t, status.Active)
	require.Len(t, status.Records, 1)
	require.NotNil(t, status.Until)
	assert.Equal(t, t0.Add(2*month), *status.Until)
	assert.Equal(t, balanceOf(t, store, alice), ledgerSum(t, store, alice))
}

func TestPurchaseVIPAfterExpiryStartsFromNow(t *testing.T) {
	c, store, clk := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	_, err := c.Ledger.Grant(ctx, alice, 198, "")
	require.NoError(t, err)

	_, err = c.VIP.Purchase(ctx, alice, 2)
	require.NoError(t, err)

	clk.Advance(45 * 24 * time.Hour)
	ok, err := c.VIP.IsVIP(ctx, alice)
	require.NoError(t, err)
	assert.False(t, ok)

	res, err := c.VIP.Purchase(ctx, alice, 2)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(30*24*time.Hour), res.Record.ExpiresAt)

	ok, err = c.VIP.IsVIP(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPurchaseVIPValidatesLevel(t *testing.T) {
	c, store, _ := newTestContainer(t)
	alice := addUser(t, store, "alice")

	for _, level := range []int{0, MaxVIPLevel + 1} {
		_, err := c.VIP.Purchase(context.Background(), alice, level)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}

func TestFailedVIPPurchaseLeavesNoTrace(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	_, err := c.Ledger.Grant(ctx, alice, 50, "")
	require.NoError(t, err)

	_, err = c.VIP.Purchase(ctx, alice, 1)
	require.Error(t, err)

	acc, err := store.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(50), acc.CoinBalance)
	assert.Empty(t, acc.VIP)
}

// A user is granted coins, pays for a message, then buys VIP.
func TestGrantMessageAndVIPEndToEnd(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	_, err := c.Admin.Grant(ctx, GrantRequest{UserID: alice, Amount: 100})
	require.NoError(t, err)

	sent, err := c.Messages.Send(ctx, alice, bob, "hi bob")
	require.NoError(t, err)
	assert.Equal(t, int64(99), sent.Balance)

	res, err := c.VIP.Purchase(ctx, alice, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Balance)

	_, err = c.Messages.Send(ctx, alice, bob, "one more")
	assert.True(t, errors.Is(err, apperr.ErrInsufficientFunds))

	txns, err := store.ListTransactions(ctx, alice, 0, 0)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, models.ReasonVIP, txns[0].Reason)
	assert.Equal(t, models.ReasonMessage, txns[1].Reason)
	assert.Equal(t, models.ReasonAdminGrant, txns[2].Reason)
	assert.Equal(t, int64(0), ledgerSum(t, store, alice))

	stats, err := c.Admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Users)
	assert.Equal(t, int64(1), stats.Messages)
	assert.Equal(t, int64(0), stats.TotalCoins)
}
