package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func strPtr(s string) *string { return &s }

func makeVIP(t *testing.T, c *Container, userID string) {
	t.Helper()
	ctx := context.Background()
	_, err := c.Ledger.Grant(ctx, userID, 99, "")
	require.NoError(t, err)
	_, err = c.VIP.Purchase(ctx, userID, 1)
	require.NoError(t, err)
}

func TestRecordViewHonoursCooldown(t *testing.T) {
	c, store, clk := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	counted, err := c.Profiles.RecordView(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, counted)

	clk.Advance(30 * time.Minute)
	counted, err = c.Profiles.RecordView(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, counted, "second visit inside the hour must not count")

	clk.Advance(31 * time.Minute)
	counted, err = c.Profiles.RecordView(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, counted)

	acc, err := store.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), acc.TotalViews)
	assert.Equal(t, 1, acc.UniqueViewers())
}

func TestRecordViewExemptions(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	vip := addUser(t, store, "vipper")
	makeVIP(t, c, vip)

	for _, viewer := range []string{"", alice, vip} {
		counted, err := c.Profiles.RecordView(ctx, alice, viewer)
		require.NoError(t, err)
		assert.False(t, counted, "viewer %q", viewer)
	}

	acc, err := store.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, acc.TotalViews)
	assert.Empty(t, acc.WhoView)
}

func TestViewLogIsCappedAtFifty(t *testing.T) {
	c, store, clk := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")

	viewers := make([]string, 60)
	for i := range viewers {
		viewers[i] = addUser(t, store, fmt.Sprintf("viewer%d", i))
		counted, err := c.Profiles.RecordView(ctx, alice, viewers[i])
		require.NoError(t, err)
		require.True(t, counted)
		clk.Advance(time.Second)
	}

	acc, err := store.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(60), acc.TotalViews)
	assert.Len(t, acc.WhoView, models.MaxViewLog)
	assert.Equal(t, viewers[59], acc.WhoView[0].ViewerID, "newest viewer first")
	for _, e := range acc.WhoView {
		assert.NotEqual(t, viewers[0], e.ViewerID, "oldest viewers are evicted")
	}
}

func TestViewProjection(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")
	_, err := c.Ledger.Grant(ctx, alice, 7, "")
	require.NoError(t, err)

	view, err := c.Profiles.View(ctx, "alice", bob)
	require.NoError(t, err)
	assert.Equal(t, alice, view.ID)
	assert.False(t, view.IsSelf)
	assert.Nil(t, view.CoinBalance, "balance is private")
	assert.Equal(t, models.FriendStatusNone, view.FriendStatus)
	assert.Equal(t, int64(1), view.TotalViews)

	self, err := c.Profiles.View(ctx, "alice", alice)
	require.NoError(t, err)
	assert.True(t, self.IsSelf)
	require.NotNil(t, self.CoinBalance)
	assert.Equal(t, int64(7), *self.CoinBalance)
	assert.Equal(t, int64(1), self.TotalViews, "own visit is not counted")

	_, err = c.Profiles.View(ctx, "nobody", bob)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestWhoViewedRequiresVIP(t *testing.T) {
	c, store, clk := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	for i := 0; i < 7; i++ {
		v := addUser(t, store, fmt.Sprintf("viewer%d", i))
		_, err := c.Profiles.RecordView(ctx, alice, v)
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	res, err := c.Profiles.WhoViewed(ctx, alice)
	require.NoError(t, err)
	assert.True(t, res.VIPRequired)
	assert.Empty(t, res.Viewers)
	assert.Equal(t, int64(7), res.TotalViews)
	assert.Equal(t, 7, res.UniqueViewers)

	makeVIP(t, c, alice)

	res, err = c.Profiles.WhoViewed(ctx, alice)
	require.NoError(t, err)
	assert.False(t, res.VIPRequired)
	require.Len(t, res.Viewers, models.RecentViewersShown)
	assert.Equal(t, "viewer6", res.Viewers[0].Username)
	assert.Equal(t, "viewer2", res.Viewers[4].Username)
}

func TestUpdateProfileValidation(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")

	cases := map[string]UpdateProfileRequest{
		"empty":           {},
		"future birthday": {Birthday: strPtr("2099-01-01")},
		"bad birthday":    {Birthday: strPtr("01/02/2000")},
		"bad school":      {School: strPtr("not-a-hex-id")},
		"unknown school":  {School: strPtr(primitive.NewObjectID().Hex())},
		"long biography":  {Biography: strPtr(string(bytes.Repeat([]byte("a"), MaxBiographyLength+1)))},
		"bad instagram":   {Instagram: strPtr("has spaces")},
	}
	for name, req := range cases {
		_, err := c.Profiles.UpdateProfile(ctx, alice, req)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), name)
	}

	acc, err := c.Profiles.UpdateProfile(ctx, alice, UpdateProfileRequest{
		Biography: strPtr("  hello  "),
		Instagram: strPtr("@Alice.Ig"),
		Birthday:  strPtr("2000-05-17"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", acc.Biography)
	assert.Equal(t, "alice.ig", acc.Instagram)
	require.NotNil(t, acc.Birthday)
	assert.Equal(t, 2000, acc.Birthday.Year())
}

func TestUpdateProfileInstagramMustBeUnique(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")

	_, err := c.Profiles.UpdateProfile(ctx, alice, UpdateProfileRequest{Instagram: strPtr("shared")})
	require.NoError(t, err)

	_, err = c.Profiles.UpdateProfile(ctx, bob, UpdateProfileRequest{Instagram: strPtr("SHARED")})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// re-saving your own handle is fine
	_, err = c.Profiles.UpdateProfile(ctx, alice, UpdateProfileRequest{Instagram: strPtr("shared")})
	assert.NoError(t, err)
}

func TestUpdateProfileTransfersSchoolMembership(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")

	north, err := c.Schools.Create(ctx, "North High")
	require.NoError(t, err)
	south, err := c.Schools.Create(ctx, "South High")
	require.NoError(t, err)

	_, err = c.Profiles.UpdateProfile(ctx, alice, UpdateProfileRequest{School: strPtr(north.ID.Hex())})
	require.NoError(t, err)
	acc, err := c.Profiles.UpdateProfile(ctx, alice, UpdateProfileRequest{School: strPtr(south.ID.Hex())})
	require.NoError(t, err)
	require.NotNil(t, acc.SchoolID)
	assert.Equal(t, south.ID, *acc.SchoolID)

	n, err := store.GetSchool(ctx, north.ID)
	require.NoError(t, err)
	s, err := store.GetSchool(ctx, south.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n.MemberCount)
	assert.Equal(t, int64(1), s.MemberCount)

	// choosing the same school again does not double count
	_, err = c.Profiles.UpdateProfile(ctx, alice, UpdateProfileRequest{School: strPtr(south.ID.Hex())})
	require.NoError(t, err)
	s, _ = store.GetSchool(ctx, south.ID)
	assert.Equal(t, int64(1), s.MemberCount)
}

type fakeFiles struct {
	stored  []string
	deleted []string
	fail    error
}

func (f *fakeFiles) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	url := fmt.Sprintf("https://files.test/avatar%d.png", len(f.stored)+1)
	f.stored = append(f.stored, url)
	return url, nil
}

func (f *fakeFiles) Delete(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func TestSetAvatarReplacesPreviousFile(t *testing.T) {
	c, store, _ := newTestContainer(t)
	ctx := context.Background()
	alice := addUser(t, store, "alice")
	files := &fakeFiles{}
	c.Profiles.files = files

	png := []byte("\x89PNG\r\n\x1a\n")
	first, err := c.Profiles.SetAvatar(ctx, alice, png, "image/png")
	require.NoError(t, err)
	second, err := c.Profiles.SetAvatar(ctx, alice, png, "image/png")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, []string{first}, files.deleted)

	acc, err := store.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, second, acc.Avatar)

	_, err = c.Profiles.SetAvatar(ctx, alice, []byte("plain"), "text/plain")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = c.Profiles.SetAvatar(ctx, alice, make([]byte, MaxAvatarBytes+1), "image/png")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSetAvatarWithoutStorage(t *testing.T) {
	c, store, _ := newTestContainer(t)
	alice := addUser(t, store, "alice")

	_, err := c.Profiles.SetAvatar(context.Background(), alice, []byte("x"), "image/png")
	assert.True(t, errors.Is(err, ErrStorageUnavailable))
}
