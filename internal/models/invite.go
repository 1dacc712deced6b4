package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	InviteTTL         = 7 * 24 * time.Hour
	DefaultInviteUses = 5
)

type Invite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code      string             `bson:"code" json:"code"`
	CreatedBy string             `bson:"created_by" json:"created_by"`
	MaxUses   int                `bson:"max_uses" json:"max_uses"`
	UsedBy    []string           `bson:"used_by" json:"used_by"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Redeemable reports whether the invite can take another signup at now.
func (i *Invite) Redeemable(now time.Time) bool {
	return now.Before(i.ExpiresAt) && len(i.UsedBy) < i.MaxUses
}
