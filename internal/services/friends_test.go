package services

import (
	"context"
	"errors"
	"testing"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendRequestLifecycle(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	status, err := c.Friends.Status(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusNone, status)

	require.NoError(t, c.Friends.SendRequest(ctx, alice, bob))

	status, _ = c.Friends.Status(ctx, alice, bob)
	assert.Equal(t, models.FriendStatusRequestSent, status)
	status, _ = c.Friends.Status(ctx, bob, alice)
	assert.Equal(t, models.FriendStatusRequestReceived, status)

	pending, err := c.Friends.Requests(ctx, bob)
	require.NoError(t, err)
	require.Len(t, pending.Incoming, 1)
	assert.Equal(t, alice, pending.Incoming[0].ID)
	assert.Empty(t, pending.Outgoing)

	require.NoError(t, c.Friends.AcceptRequest(ctx, bob, alice))

	for _, pair := range [][2]string{{alice, bob}, {bob, alice}} {
		status, err := c.Friends.Status(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, models.FriendStatusFriends, status)

		for _, kind := range []models.RelationKind{models.RelationSent, models.RelationReceived} {
			has, err := store.HasRelation(ctx, pair[0], pair[1], kind)
			require.NoError(t, err)
			assert.False(t, has, "no pending %s edge may survive acceptance", kind)
		}
	}

	friends, err := c.Friends.Friends(ctx, alice)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Username)

	n, err := c.Friends.CountFriends(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// the requester is told about the acceptance, the target about the request
	notes, err := c.Notifications.List(ctx, alice, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationFriendAdded, notes[0].Type)

	notes, err = c.Notifications.List(ctx, bob, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationFriendRequest, notes[0].Type)
}

func TestSendRequestRejectsSelfDuplicatesAndFriends(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	err := c.Friends.SendRequest(ctx, alice, alice)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	require.NoError(t, c.Friends.SendRequest(ctx, alice, bob))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(c.Friends.SendRequest(ctx, alice, bob)))
	// a request in the other direction is also a duplicate
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(c.Friends.SendRequest(ctx, bob, alice)))

	require.NoError(t, c.Friends.AcceptRequest(ctx, bob, alice))
	err = c.Friends.SendRequest(ctx, alice, bob)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already friends")
}

func TestSendRequestToUnknownUser(t *testing.T) {
	c, store, _ := newTestContainer(t)
	alice := addUser(t, store, "alice")

	err := c.Friends.SendRequest(context.Background(), alice, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestAcceptWithoutPendingRequest(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	err := c.Friends.AcceptRequest(ctx, bob, alice)
	assert.True(t, errors.Is(err, ErrNoPendingRequest))

	// the sender cannot accept their own request
	require.NoError(t, c.Friends.SendRequest(ctx, alice, bob))
	err = c.Friends.AcceptRequest(ctx, alice, bob)
	assert.True(t, errors.Is(err, ErrNoPendingRequest))

	status, _ := c.Friends.Status(ctx, alice, bob)
	assert.Equal(t, models.FriendStatusRequestSent, status)
}

func TestAcceptFromRequesterWithoutAccount(t *testing.T) {
	c, store, clk := newTestContainer(t)
	ctx := context.Background()
	bob := addUser(t, store, "bob")

	err := c.Friends.AcceptRequest(ctx, bob, "ghost")
	assert.True(t, errors.Is(err, ErrNoPendingRequest))

	// a request whose sender is gone is treated as not pending
	require.NoError(t, store.AddRelation(ctx, relation(bob, "ghost", models.RelationReceived, clk.Now())))
	err = c.Friends.AcceptRequest(ctx, bob, "ghost")
	assert.True(t, errors.Is(err, ErrNoPendingRequest))

	friend, err := store.HasRelation(ctx, bob, "ghost", models.RelationFriend)
	require.NoError(t, err)
	assert.False(t, friend)
}

func TestUnfriendIsSymmetricAndIdempotent(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	require.NoError(t, c.Friends.SendRequest(ctx, alice, bob))
	require.NoError(t, c.Friends.AcceptRequest(ctx, bob, alice))

	require.NoError(t, c.Friends.Unfriend(ctx, bob, alice))
	require.NoError(t, c.Friends.Unfriend(ctx, bob, alice))

	for _, pair := range [][2]string{{alice, bob}, {bob, alice}} {
		status, err := c.Friends.Status(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, models.FriendStatusNone, status)
	}

	// they can start over
	require.NoError(t, c.Friends.SendRequest(ctx, bob, alice))
}

func TestStatusForAnonymousOrSelf(t *testing.T) {
	c, store, _ := newTestContainer(t)
	alice := addUser(t, store, "alice")

	status, err := c.Friends.Status(context.Background(), "", alice)
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusNone, status)

	status, err = c.Friends.Status(context.Background(), alice, alice)
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusNone, status)
}
