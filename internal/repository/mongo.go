package repository

import (
	"context"
	"errors"

	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	colAccounts      = "accounts"
	colTransactions  = "coin_transactions"
	colRelations     = "friend_relations"
	colPosts         = "posts"
	colComments      = "comments"
	colMessages      = "direct_messages"
	colNotifications = "notifications"
	colClubs         = "clubs"
	colSchools       = "schools"
	colInvites       = "invites"
)

var _ Store = (*MongoStore)(nil)

// MongoStore implements Store on a single MongoDB database. Multi-document
// transactions need a replica set or sharded cluster.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{client: client, db: db}
}

func (s *MongoStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// already inside a session: join it
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// EnsureIndexes creates the indexes the queries rely on. Called on startup
// after Mongo has connected.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colAccounts: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetName("uniq_user_id").SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "instagram", Value: 1}},
				Options: options.Index().SetName("uniq_instagram").SetUnique(true).
					SetPartialFilterExpression(bson.M{"instagram": bson.M{"$type": "string", "$gt": ""}}),
			},
		},
		colTransactions: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_user_created"),
			},
		},
		colRelations: {
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "other_id", Value: 1}, {Key: "kind", Value: 1}},
				Options: options.Index().SetName("uniq_owner_other_kind").SetUnique(true),
			},
		},
		colPosts: {
			{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_created"),
			},
			{
				Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_author_created"),
			},
		},
		colComments: {
			{
				Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}},
				Options: options.Index().SetName("idx_post_created"),
			},
		},
		colMessages: {
			{
				Keys:    bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_pair_created"),
			},
		},
		colNotifications: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_user_created"),
			},
		},
		colClubs: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetName("uniq_name").SetUnique(true),
			},
		},
		colSchools: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetName("uniq_name").SetUnique(true),
			},
		},
		colInvites: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetName("uniq_code").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "created_by", Value: 1}},
				Options: options.Index().SetName("idx_created_by"),
			},
		},
	}

	for name, models := range indexes {
		if _, err := s.col(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// notFound maps mongo.ErrNoDocuments onto a NotFound error with msg.
func notFound(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(msg)
	}
	return err
}

// duplicate maps a unique index violation onto a Conflict error with msg.
func duplicate(err error, msg string) error {
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict(msg)
	}
	return err
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	defer cur.Close(ctx)
	out := []T{}
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, cur.Err()
}

func pageOptions(limit, skip int64) *options.FindOptions {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if skip > 0 {
		opts.SetSkip(skip)
	}
	return opts
}
