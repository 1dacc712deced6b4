package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Club holds the "who is going today" list, cleared once a day.
type Club struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Address    string             `bson:"address,omitempty" json:"address,omitempty"`
	GoingToday []string           `bson:"going_today" json:"-"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	ResetAt    time.Time          `bson:"reset_at" json:"reset_at"`
}

type School struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	MemberCount int64              `bson:"member_count" json:"member_count"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
