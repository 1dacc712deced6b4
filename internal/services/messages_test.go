package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageValidation(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")
	_, err := c.Ledger.Grant(ctx, alice, 5, "")
	require.NoError(t, err)

	_, err = c.Messages.Send(ctx, alice, bob, "   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = c.Messages.Send(ctx, alice, bob, strings.Repeat("x", MaxMessageLength+1))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = c.Messages.Send(ctx, alice, alice, "hello me")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = c.Messages.Send(ctx, alice, "missing", "hello?")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	assert.Equal(t, int64(5), balanceOf(t, store, alice), "rejected sends are free")
}

func TestSendMessageWithoutCoins(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	_, err := c.Messages.Send(ctx, alice, bob, "hi")
	assert.True(t, errors.Is(err, apperr.ErrInsufficientFunds))

	n, err := store.CountMessages(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSendMessageNotifiesReceiver(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")
	_, err := c.Ledger.Grant(ctx, alice, 1, "")
	require.NoError(t, err)

	res, err := c.Messages.Send(ctx, alice, bob, "  hi bob  ")
	require.NoError(t, err)
	assert.Equal(t, "hi bob", res.Message.Text)
	assert.Equal(t, int64(0), res.Balance)

	notes, err := c.Notifications.List(ctx, bob, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationMessage, notes[0].Type)
	assert.Equal(t, alice, notes[0].ActorID)
	assert.Equal(t, res.Message.ID.Hex(), notes[0].RefID)
}

func TestFreeMessagesSkipTheLedger(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")
	c.Messages.cost = 0

	_, err := c.Messages.Send(ctx, alice, bob, "free")
	require.NoError(t, err)

	txns, err := store.ListTransactions(ctx, alice, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestConversationPagination(t *testing.T) {
	c, store, clk := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")
	_, err := c.Ledger.Grant(ctx, alice, 10, "")
	require.NoError(t, err)
	_, err = c.Ledger.Grant(ctx, bob, 10, "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		from, to := alice, bob
		if i%2 == 1 {
			from, to = bob, alice
		}
		_, err := c.Messages.Send(ctx, from, to, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		clk.Advance(time.Second)
	}

	page, hasMore, err := c.Messages.Conversation(ctx, alice, bob, nil, 3)
	require.NoError(t, err)
	assert.True(t, hasMore)
	require.Len(t, page, 3)
	assert.Equal(t, []string{"m2", "m3", "m4"}, texts(page), "oldest first")

	before := page[0].CreatedAt
	older, hasMore, err := c.Messages.Conversation(ctx, bob, alice, &before, 3)
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Equal(t, []string{"m0", "m1"}, texts(older))

	n, err := c.Messages.MarkRead(ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "only messages bob received")

	n, err = c.Messages.MarkRead(ctx, bob, alice)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func texts(msgs []models.DirectMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestRecentMessagesWithoutRedisAlwaysMisses(t *testing.T) {
	c := NewRecentMessages(nil)
	ctx := context.Background()

	c.Push(ctx, &models.DirectMessage{SenderID: "a", ReceiverID: "b", Text: "x"})
	c.Warm(ctx, "a", "b", []models.DirectMessage{{Text: "x"}}, false)
	_, _, ok := c.Get(ctx, "a", "b", 10)
	assert.False(t, ok)
	c.Invalidate(ctx, "a", "b")

	assert.Equal(t, conversationKey("a", "b"), conversationKey("b", "a"))
	assert.Equal(t, "dm:a:b:recent:complete", completeKey("b", "a"))
}
