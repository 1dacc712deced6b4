package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DirectMessage is stored one document per message, like the group chat
// history it replaced.
type DirectMessage struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID   string             `bson:"sender_id" json:"sender_id"`
	ReceiverID string             `bson:"receiver_id" json:"receiver_id"`
	Text       string             `bson:"text" json:"text"`
	Read       bool               `bson:"read" json:"read"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
