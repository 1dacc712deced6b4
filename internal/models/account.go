package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// ViewCooldown is how long a viewer must wait before another visit counts.
	ViewCooldown = time.Hour
	// MaxViewLog is the number of distinct viewers kept in WhoView.
	MaxViewLog = 50
	// RecentViewersShown caps the who-viewed-me detail list.
	RecentViewersShown = 5
)

// Account is the mutable social/financial profile attached 1:1 to a User.
// Transactions and friend relations are stored in their own collections;
// the view log stays embedded because it is bounded.
type Account struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	CoinBalance int64       `bson:"coin_balance" json:"coin_balance"`
	VIP         []VIPRecord `bson:"vip" json:"vip"`

	WhoView      []ViewEntry          `bson:"who_view" json:"-"`
	LastViewedBy map[string]time.Time `bson:"last_viewed_by" json:"-"`
	TotalViews   int64                `bson:"total_views" json:"total_views"`

	SchoolID  *primitive.ObjectID `bson:"school_id,omitempty" json:"school_id,omitempty"`
	Biography string              `bson:"biography,omitempty" json:"biography,omitempty"`
	Instagram string              `bson:"instagram,omitempty" json:"instagram,omitempty"`
	Avatar    string              `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Birthday  *time.Time          `bson:"birthday,omitempty" json:"birthday,omitempty"`
	Interest  string              `bson:"interest,omitempty" json:"interest,omitempty"`
}

// VIPRecord is one purchased tier.
type VIPRecord struct {
	Level     int       `bson:"level" json:"level"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

// ViewEntry is one row of the recent-viewer log.
type ViewEntry struct {
	ViewerID string    `bson:"viewer_id" json:"viewer_id"`
	ViewedAt time.Time `bson:"viewed_at" json:"viewed_at"`
}

// NewAccount returns the empty account created at signup.
func NewAccount(userID string, now time.Time) *Account {
	return &Account{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
		VIP:          []VIPRecord{},
		WhoView:      []ViewEntry{},
		LastViewedBy: map[string]time.Time{},
	}
}

// IsVIP reports whether any tier is unexpired at now.
func (a *Account) IsVIP(now time.Time) bool {
	for _, r := range a.VIP {
		if r.ExpiresAt.After(now) {
			return true
		}
	}
	return false
}

// IsVIPLevel reports whether the given tier is unexpired at now.
func (a *Account) IsVIPLevel(level int, now time.Time) bool {
	for _, r := range a.VIP {
		if r.Level == level && r.ExpiresAt.After(now) {
			return true
		}
	}
	return false
}

// VIPUntil returns the latest expiry across all tiers (zero when none).
func (a *Account) VIPUntil() time.Time {
	var until time.Time
	for _, r := range a.VIP {
		if r.ExpiresAt.After(until) {
			until = r.ExpiresAt
		}
	}
	return until
}

// GrantVIP extends an existing record for level, or appends a new one.
// The new expiry is max(existing, now) + duration.
func (a *Account) GrantVIP(level int, duration time.Duration, now time.Time) VIPRecord {
	for i := range a.VIP {
		if a.VIP[i].Level != level {
			continue
		}
		base := a.VIP[i].ExpiresAt
		if base.Before(now) {
			base = now
		}
		a.VIP[i].ExpiresAt = base.Add(duration)
		return a.VIP[i]
	}
	rec := VIPRecord{Level: level, ExpiresAt: now.Add(duration)}
	a.VIP = append(a.VIP, rec)
	return rec
}

// RecordView counts viewerID's visit unless it already counted within the
// cooldown. It returns false when nothing changed. Exemptions (own profile,
// VIP viewers) are the caller's concern.
func (a *Account) RecordView(viewerID string, now time.Time) bool {
	cutoff := now.Add(-ViewCooldown)
	if last, ok := a.LastViewedBy[viewerID]; ok && !last.Before(cutoff) {
		return false
	}

	a.TotalViews++

	log := make([]ViewEntry, 0, MaxViewLog)
	log = append(log, ViewEntry{ViewerID: viewerID, ViewedAt: now})
	seen := map[string]struct{}{viewerID: {}}
	for _, e := range a.WhoView {
		if len(log) >= MaxViewLog {
			break
		}
		if _, dup := seen[e.ViewerID]; dup {
			continue
		}
		seen[e.ViewerID] = struct{}{}
		log = append(log, e)
	}
	a.WhoView = log

	if a.LastViewedBy == nil {
		a.LastViewedBy = map[string]time.Time{}
	}
	// entries past the cooldown no longer suppress anything
	for id, t := range a.LastViewedBy {
		if t.Before(cutoff) {
			delete(a.LastViewedBy, id)
		}
	}
	a.LastViewedBy[viewerID] = now
	return true
}

// UniqueViewers is the number of distinct viewers currently in the log.
func (a *Account) UniqueViewers() int {
	seen := make(map[string]struct{}, len(a.WhoView))
	for _, e := range a.WhoView {
		seen[e.ViewerID] = struct{}{}
	}
	return len(seen)
}

// RecentViewers returns up to n entries, one per viewer, newest first.
func (a *Account) RecentViewers(n int) []ViewEntry {
	latest := make(map[string]time.Time, len(a.WhoView))
	for _, e := range a.WhoView {
		if t, ok := latest[e.ViewerID]; !ok || e.ViewedAt.After(t) {
			latest[e.ViewerID] = e.ViewedAt
		}
	}
	out := make([]ViewEntry, 0, len(latest))
	for id, t := range latest {
		out = append(out, ViewEntry{ViewerID: id, ViewedAt: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ViewedAt.Equal(out[j].ViewedAt) {
			return out[i].ViewerID < out[j].ViewerID
		}
		return out[i].ViewedAt.After(out[j].ViewedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
