package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RelationKind names one of the three per-owner friend relations.
type RelationKind string

const (
	RelationFriend   RelationKind = "friend"
	RelationSent     RelationKind = "sent"
	RelationReceived RelationKind = "received"
)

// FriendRelation is a single (owner, other, kind) edge. A friendship is two
// RelationFriend edges; a pending request is a RelationSent edge on the
// sender plus a RelationReceived edge on the target.
type FriendRelation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   string             `bson:"owner_id" json:"owner_id"`
	OtherID   string             `bson:"other_id" json:"other_id"`
	Kind      RelationKind       `bson:"kind" json:"kind"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// FriendStatus is the pair state as seen from one side.
type FriendStatus string

const (
	FriendStatusNone            FriendStatus = "none"
	FriendStatusRequestSent     FriendStatus = "request_sent"
	FriendStatusRequestReceived FriendStatus = "request_received"
	FriendStatusFriends         FriendStatus = "friends"
)
