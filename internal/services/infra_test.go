package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCacheExpires(t *testing.T) {
	clk := &clock{now: t0}
	c := NewLocalCache()
	c.now = clk.Now
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, CacheKey("vip", "alice"), true, time.Minute))

	var got bool
	ok, err := c.Get(ctx, "vip:alice", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got)

	clk.Advance(time.Minute)
	ok, err = c.Get(ctx, "vip:alice", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Delete(ctx, "k"))
	var s string
	ok, _ = c.Get(ctx, "k", &s)
	assert.False(t, ok)
}

type fakeConn struct {
	mu     sync.Mutex
	events []Event
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v.(Event))
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestHubDeliversLocally(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	a1, a2, b := &fakeConn{}, &fakeConn{}, &fakeConn{}
	unregister := h.Register("alice", a1)
	h.Register("alice", a2)
	h.Register("bob", b)
	assert.Equal(t, 2, h.Connections("alice"))

	ev, err := NewEvent("notification", "alice", map[string]string{"hello": "world"})
	require.NoError(t, err)
	require.NoError(t, h.Publish(ctx, ev))

	assert.Eventually(t, func() bool { return a1.count() == 1 && a2.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, b.count())
	a1.mu.Lock()
	assert.JSONEq(t, `{"hello":"world"}`, string(a1.events[0].Data))
	a1.mu.Unlock()

	unregister()
	unregister()
	assert.Equal(t, 1, h.Connections("alice"))

	require.NoError(t, h.Publish(ctx, Event{Type: "ping", UserID: "alice"}))
	assert.Eventually(t, func() bool { return a2.count() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, a1.count())
}

func TestNotificationsReachOpenSockets(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	conn := &fakeConn{}
	defer c.Hub.Register(bob, conn)()

	require.NoError(t, c.Friends.SendRequest(ctx, alice, bob))

	assert.Eventually(t, func() bool { return conn.count() == 1 }, time.Second, 10*time.Millisecond)
	conn.mu.Lock()
	assert.Equal(t, "notification", conn.events[0].Type)
	conn.mu.Unlock()
}

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/avatars/abc123.jpg", "avatars/abc123", false},
		{"https://res.cloudinary.com/demo/image/upload/avatars/abc123.png", "avatars/abc123", false},
		{"https://res.cloudinary.com/demo/image/upload/v12/x.webp", "x", false},
		{"https://example.com/images/abc.jpg", "", true},
		{"https://res.cloudinary.com/demo/image/upload/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := PublicIDFromURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchools(t *testing.T) {
	c, _, _ := newTestContainer(t)
	ctx := context.Background()

	_, err := c.Schools.Create(ctx, " x ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	s, err := c.Schools.Create(ctx, "  Lincoln High  ")
	require.NoError(t, err)
	assert.Equal(t, "Lincoln High", s.Name)

	list, err := c.Schools.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].ID)
}
