package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Votes is embedded in posts and comments.
type Votes struct {
	Up   []string `bson:"up" json:"-"`
	Down []string `bson:"down" json:"-"`
}

// Score is ups minus downs.
func (v Votes) Score() int {
	return len(v.Up) - len(v.Down)
}

// Toggle applies userID's vote: repeating a direction clears it, the other
// direction switches it.
func (v *Votes) Toggle(userID string, dir VoteDirection) {
	hadUp := contains(v.Up, userID)
	hadDown := contains(v.Down, userID)
	v.Up = without(v.Up, userID)
	v.Down = without(v.Down, userID)

	switch dir {
	case VoteUp:
		if !hadUp {
			v.Up = append(v.Up, userID)
		}
	case VoteDown:
		if !hadDown {
			v.Down = append(v.Down, userID)
		}
	}
}

// VoteOf returns the caller's current vote, or "".
func (v Votes) VoteOf(userID string) VoteDirection {
	switch {
	case contains(v.Up, userID):
		return VoteUp
	case contains(v.Down, userID):
		return VoteDown
	}
	return ""
}

type Post struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID     string             `bson:"author_id" json:"author_id"`
	Content      string             `bson:"content" json:"content"`
	Votes        Votes              `bson:"votes" json:"-"`
	CommentCount int64              `bson:"comment_count" json:"comment_count"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    primitive.ObjectID `bson:"post_id" json:"post_id"`
	AuthorID  string             `bson:"author_id" json:"author_id"`
	Content   string             `bson:"content" json:"content"`
	Votes     Votes              `bson:"votes" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func without(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
