package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRecordView_CooldownWindow(t *testing.T) {
	acc := NewAccount("subject", t0)

	assert.True(t, acc.RecordView("viewer", t0))
	assert.False(t, acc.RecordView("viewer", t0.Add(30*time.Minute)))
	assert.Equal(t, int64(1), acc.TotalViews)

	assert.True(t, acc.RecordView("viewer", t0.Add(61*time.Minute)))
	assert.Equal(t, int64(2), acc.TotalViews)
	assert.Equal(t, 1, acc.UniqueViewers())
}

func TestRecordView_ExactlyOneHourDoesNotCount(t *testing.T) {
	acc := NewAccount("subject", t0)
	acc.RecordView("viewer", t0)

	assert.False(t, acc.RecordView("viewer", t0.Add(time.Hour)))
	assert.Equal(t, int64(1), acc.TotalViews)
}

func TestRecordView_SuppressedVisitDoesNotReorder(t *testing.T) {
	acc := NewAccount("subject", t0)
	acc.RecordView("a", t0)
	acc.RecordView("b", t0.Add(time.Minute))

	acc.RecordView("a", t0.Add(2*time.Minute))

	require.Len(t, acc.WhoView, 2)
	assert.Equal(t, "b", acc.WhoView[0].ViewerID)
	assert.Equal(t, "a", acc.WhoView[1].ViewerID)
}

func TestRecordView_RepeatViewerMovesToFront(t *testing.T) {
	acc := NewAccount("subject", t0)
	acc.RecordView("a", t0)
	acc.RecordView("b", t0.Add(time.Minute))

	acc.RecordView("a", t0.Add(2*time.Hour))

	require.Len(t, acc.WhoView, 2)
	assert.Equal(t, "a", acc.WhoView[0].ViewerID)
	assert.Equal(t, t0.Add(2*time.Hour), acc.WhoView[0].ViewedAt)
	assert.Equal(t, "b", acc.WhoView[1].ViewerID)
}

func TestRecordView_LogCap(t *testing.T) {
	acc := NewAccount("subject", t0)
	for i := 0; i < 60; i++ {
		acc.RecordView(fmt.Sprintf("viewer-%02d", i), t0.Add(time.Duration(i)*time.Minute))
	}

	require.Len(t, acc.WhoView, MaxViewLog)
	assert.Equal(t, int64(60), acc.TotalViews)
	for i, e := range acc.WhoView {
		assert.Equal(t, fmt.Sprintf("viewer-%02d", 59-i), e.ViewerID)
	}
	assert.Equal(t, MaxViewLog, acc.UniqueViewers())
}

func TestRecordView_PrunesStaleCooldowns(t *testing.T) {
	acc := NewAccount("subject", t0)
	acc.RecordView("old", t0)
	acc.RecordView("new", t0.Add(2*time.Hour))

	_, ok := acc.LastViewedBy["old"]
	assert.False(t, ok)
	assert.Contains(t, acc.LastViewedBy, "new")
}

func TestRecentViewers(t *testing.T) {
	acc := NewAccount("subject", t0)
	for i := 0; i < 8; i++ {
		acc.RecordView(fmt.Sprintf("v%d", i), t0.Add(time.Duration(i)*time.Minute))
	}

	recent := acc.RecentViewers(RecentViewersShown)
	require.Len(t, recent, RecentViewersShown)
	assert.Equal(t, "v7", recent[0].ViewerID)
	assert.Equal(t, "v3", recent[4].ViewerID)
}

func TestGrantVIP_ExtendsUnexpiredRecord(t *testing.T) {
	acc := NewAccount("u", t0)
	month := 30 * 24 * time.Hour

	first := acc.GrantVIP(1, month, t0)
	assert.Equal(t, t0.Add(month), first.ExpiresAt)

	later := t0.Add(10 * 24 * time.Hour)
	second := acc.GrantVIP(1, month, later)

	require.Len(t, acc.VIP, 1)
	assert.Equal(t, t0.Add(2*month), second.ExpiresAt)
	assert.True(t, acc.IsVIPLevel(1, later))
}

func TestGrantVIP_ExpiredRecordRestartsFromNow(t *testing.T) {
	acc := NewAccount("u", t0)
	acc.VIP = []VIPRecord{{Level: 1, ExpiresAt: t0.Add(-time.Hour)}}
	assert.False(t, acc.IsVIP(t0))

	rec := acc.GrantVIP(1, time.Hour, t0)

	require.Len(t, acc.VIP, 1)
	assert.Equal(t, t0.Add(time.Hour), rec.ExpiresAt)
	assert.True(t, acc.IsVIP(t0))
}

func TestGrantVIP_OtherLevelAppends(t *testing.T) {
	acc := NewAccount("u", t0)
	acc.GrantVIP(1, time.Hour, t0)
	acc.GrantVIP(2, time.Hour, t0)

	assert.Len(t, acc.VIP, 2)
	assert.Equal(t, t0.Add(time.Hour), acc.VIPUntil())
	assert.False(t, acc.IsVIPLevel(3, t0))
}
