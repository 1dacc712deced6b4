package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ---- clubs ----

func (s *MongoStore) CreateClub(ctx context.Context, c *models.Club) error {
	if c.GoingToday == nil {
		c.GoingToday = []string{}
	}
	_, err := s.col(colClubs).InsertOne(ctx, c)
	return duplicate(err, "club already exists")
}

func (s *MongoStore) GetClub(ctx context.Context, id primitive.ObjectID) (*models.Club, error) {
	var c models.Club
	if err := s.col(colClubs).FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, notFound(err, "club not found")
	}
	return &c, nil
}

func (s *MongoStore) ListClubs(ctx context.Context) ([]models.Club, error) {
	cur, err := s.col(colClubs).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Club](ctx, cur)
}

func (s *MongoStore) AddGoing(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := s.col(colClubs).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$addToSet": bson.M{"going_today": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("club not found")
	}
	return nil
}

func (s *MongoStore) RemoveGoing(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := s.col(colClubs).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"going_today": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("club not found")
	}
	return nil
}

func (s *MongoStore) ResetGoing(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.col(colClubs).UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{
		"going_today": []string{},
		"reset_at":    now.UTC(),
	}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ---- schools ----

func (s *MongoStore) CreateSchool(ctx context.Context, sc *models.School) error {
	_, err := s.col(colSchools).InsertOne(ctx, sc)
	return duplicate(err, "school already exists")
}

func (s *MongoStore) GetSchool(ctx context.Context, id primitive.ObjectID) (*models.School, error) {
	var sc models.School
	if err := s.col(colSchools).FindOne(ctx, bson.M{"_id": id}).Decode(&sc); err != nil {
		return nil, notFound(err, "school not found")
	}
	return &sc, nil
}

func (s *MongoStore) ListSchools(ctx context.Context) ([]models.School, error) {
	cur, err := s.col(colSchools).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.School](ctx, cur)
}

func (s *MongoStore) IncSchoolMembers(ctx context.Context, id primitive.ObjectID, delta int64) error {
	res, err := s.col(colSchools).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"member_count": delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("school not found")
	}
	return nil
}

// ---- invites ----

func (s *MongoStore) CreateInvite(ctx context.Context, inv *models.Invite) error {
	if inv.UsedBy == nil {
		inv.UsedBy = []string{}
	}
	_, err := s.col(colInvites).InsertOne(ctx, inv)
	return duplicate(err, "invite code already exists")
}

func (s *MongoStore) GetInvite(ctx context.Context, code string) (*models.Invite, error) {
	var inv models.Invite
	if err := s.col(colInvites).FindOne(ctx, bson.M{"code": code}).Decode(&inv); err != nil {
		return nil, notFound(err, "invite not found")
	}
	return &inv, nil
}

func (s *MongoStore) ListInvites(ctx context.Context, createdBy string) ([]models.Invite, error) {
	cur, err := s.col(colInvites).Find(ctx,
		bson.M{"created_by": createdBy},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Invite](ctx, cur)
}

// RedeemInvite pushes userID only while the invite is unexpired and has a
// free slot, so two signups cannot both take the last use.
func (s *MongoStore) RedeemInvite(ctx context.Context, code, userID string, now time.Time) (*models.Invite, error) {
	filter := bson.M{
		"code":       code,
		"expires_at": bson.M{"$gt": now.UTC()},
		"$expr":      bson.M{"$lt": bson.A{bson.M{"$size": "$used_by"}, "$max_uses"}},
	}
	var inv models.Invite
	err := s.col(colInvites).FindOneAndUpdate(ctx,
		filter,
		bson.M{"$push": bson.M{"used_by": userID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&inv)
	if err == nil {
		return &inv, nil
	}
	if _, gerr := s.GetInvite(ctx, code); gerr != nil {
		return nil, gerr
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Validation("invite is expired or fully used")
	}
	return nil, err
}
