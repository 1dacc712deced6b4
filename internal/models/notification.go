package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationFriendAdded   NotificationType = "friend_added"
	NotificationMessage       NotificationType = "message"
	NotificationComment       NotificationType = "comment"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Type      NotificationType   `bson:"type" json:"type"`
	ActorID   string             `bson:"actor_id" json:"actor_id"`
	RefID     string             `bson:"ref_id,omitempty" json:"ref_id,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
