package repository

import (
	"context"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ---- friend relations ----

func (s *MongoStore) HasRelation(ctx context.Context, ownerID, otherID string, kind models.RelationKind) (bool, error) {
	n, err := s.col(colRelations).CountDocuments(ctx,
		bson.M{"owner_id": ownerID, "other_id": otherID, "kind": kind},
		options.Count().SetLimit(1),
	)
	return n > 0, err
}

func (s *MongoStore) AddRelation(ctx context.Context, rel *models.FriendRelation) error {
	_, err := s.col(colRelations).InsertOne(ctx, rel)
	return duplicate(err, "relation already exists")
}

func (s *MongoStore) RemoveRelation(ctx context.Context, ownerID, otherID string, kind models.RelationKind) (bool, error) {
	res, err := s.col(colRelations).DeleteOne(ctx, bson.M{"owner_id": ownerID, "other_id": otherID, "kind": kind})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) ListRelations(ctx context.Context, ownerID string, kind models.RelationKind) ([]models.FriendRelation, error) {
	cur, err := s.col(colRelations).Find(ctx,
		bson.M{"owner_id": ownerID, "kind": kind},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.FriendRelation](ctx, cur)
}

// ---- posts ----

func (s *MongoStore) CreatePost(ctx context.Context, p *models.Post) error {
	_, err := s.col(colPosts).InsertOne(ctx, p)
	return err
}

func (s *MongoStore) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := s.col(colPosts).FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err, "post not found")
	}
	return &p, nil
}

func (s *MongoStore) ListPosts(ctx context.Context, authorID string, limit, skip int64) ([]models.Post, error) {
	filter := bson.M{}
	if authorID != "" {
		filter["author_id"] = authorID
	}
	cur, err := s.col(colPosts).Find(ctx, filter, pageOptions(limit, skip).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Post](ctx, cur)
}

func (s *MongoStore) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col(colPosts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("post not found")
	}
	_, err = s.col(colComments).DeleteMany(ctx, bson.M{"post_id": id})
	return err
}

func (s *MongoStore) setVotes(ctx context.Context, col string, id primitive.ObjectID, votes models.Votes, msg string) error {
	if votes.Up == nil {
		votes.Up = []string{}
	}
	if votes.Down == nil {
		votes.Down = []string{}
	}
	res, err := s.col(col).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"votes": votes}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(msg)
	}
	return nil
}

func (s *MongoStore) SetPostVotes(ctx context.Context, id primitive.ObjectID, votes models.Votes) error {
	return s.setVotes(ctx, colPosts, id, votes, "post not found")
}

func (s *MongoStore) CountPosts(ctx context.Context) (int64, error) {
	return s.col(colPosts).EstimatedDocumentCount(ctx)
}

// ---- comments ----

func (s *MongoStore) CreateComment(ctx context.Context, c *models.Comment) error {
	res, err := s.col(colPosts).UpdateOne(ctx,
		bson.M{"_id": c.PostID},
		bson.M{"$inc": bson.M{"comment_count": 1}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("post not found")
	}
	_, err = s.col(colComments).InsertOne(ctx, c)
	return err
}

func (s *MongoStore) GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	if err := s.col(colComments).FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, notFound(err, "comment not found")
	}
	return &c, nil
}

func (s *MongoStore) ListComments(ctx context.Context, postID primitive.ObjectID, limit, skip int64) ([]models.Comment, error) {
	cur, err := s.col(colComments).Find(ctx,
		bson.M{"post_id": postID},
		pageOptions(limit, skip).SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Comment](ctx, cur)
}

func (s *MongoStore) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	var c models.Comment
	if err := s.col(colComments).FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return notFound(err, "comment not found")
	}
	_, err := s.col(colPosts).UpdateOne(ctx,
		bson.M{"_id": c.PostID, "comment_count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"comment_count": -1}},
	)
	return err
}

func (s *MongoStore) SetCommentVotes(ctx context.Context, id primitive.ObjectID, votes models.Votes) error {
	return s.setVotes(ctx, colComments, id, votes, "comment not found")
}

// ---- direct messages ----

func (s *MongoStore) InsertMessage(ctx context.Context, m *models.DirectMessage) error {
	_, err := s.col(colMessages).InsertOne(ctx, m)
	return err
}

func (s *MongoStore) ListConversation(ctx context.Context, a, b string, before *time.Time, limit int64) ([]models.DirectMessage, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	if before != nil {
		filter["created_at"] = bson.M{"$lt": before.UTC()}
	}
	cur, err := s.col(colMessages).Find(ctx, filter, pageOptions(limit, 0).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.DirectMessage](ctx, cur)
}

func (s *MongoStore) MarkConversationRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	res, err := s.col(colMessages).UpdateMany(ctx,
		bson.M{"receiver_id": receiverID, "sender_id": senderID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) CountMessages(ctx context.Context) (int64, error) {
	return s.col(colMessages).EstimatedDocumentCount(ctx)
}

// ---- notifications ----

func (s *MongoStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.col(colNotifications).InsertOne(ctx, n)
	return err
}

func (s *MongoStore) ListNotifications(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	cur, err := s.col(colNotifications).Find(ctx,
		bson.M{"user_id": userID},
		pageOptions(limit, 0).SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Notification](ctx, cur)
}

func (s *MongoStore) MarkNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.col(colNotifications).UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
