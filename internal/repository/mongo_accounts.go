package repository

import (
	"context"
	"errors"
	"math"
	"regexp"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) CreateAccount(ctx context.Context, acc *models.Account) error {
	_, err := s.col(colAccounts).InsertOne(ctx, acc)
	return duplicate(err, "account already exists")
}

func (s *MongoStore) DeleteAccount(ctx context.Context, userID string) error {
	_, err := s.col(colAccounts).DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}

func (s *MongoStore) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	var acc models.Account
	err := s.col(colAccounts).FindOne(ctx, bson.M{"user_id": userID}).Decode(&acc)
	if err != nil {
		return nil, notFound(err, "account not found")
	}
	if acc.LastViewedBy == nil {
		acc.LastViewedBy = map[string]time.Time{}
	}
	return &acc, nil
}

func (s *MongoStore) GetAccounts(ctx context.Context, userIDs []string) (map[string]*models.Account, error) {
	out := make(map[string]*models.Account, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cur, err := s.col(colAccounts).Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	accounts, err := decodeAll[models.Account](ctx, cur)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		out[accounts[i].UserID] = &accounts[i]
	}
	return out, nil
}

func (s *MongoStore) updateAccount(ctx context.Context, userID string, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.col(colAccounts).UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}

func (s *MongoStore) SaveViews(ctx context.Context, acc *models.Account) error {
	return s.updateAccount(ctx, acc.UserID, bson.M{
		"who_view":       acc.WhoView,
		"last_viewed_by": acc.LastViewedBy,
		"total_views":    acc.TotalViews,
	})
}

func (s *MongoStore) SetVIP(ctx context.Context, userID string, vip []models.VIPRecord) error {
	return s.updateAccount(ctx, userID, bson.M{"vip": vip})
}

func (s *MongoStore) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.Account, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}
	if upd.Biography != nil {
		set["biography"] = *upd.Biography
	}
	if upd.Instagram != nil {
		if *upd.Instagram == "" {
			unset["instagram"] = ""
		} else {
			set["instagram"] = *upd.Instagram
		}
	}
	if upd.Birthday != nil {
		set["birthday"] = upd.Birthday.UTC()
	}
	if upd.Interest != nil {
		set["interest"] = *upd.Interest
	}
	if upd.SchoolID != nil {
		set["school_id"] = *upd.SchoolID
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var acc models.Account
	err := s.col(colAccounts).FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&acc)
	if err != nil {
		return nil, duplicate(notFound(err, "account not found"), "instagram handle already in use")
	}
	return &acc, nil
}

func (s *MongoStore) InstagramTaken(ctx context.Context, instagram, exceptUserID string) (bool, error) {
	filter := bson.M{
		"instagram": bson.M{"$regex": "^" + regexp.QuoteMeta(instagram) + "$", "$options": "i"},
		"user_id":   bson.M{"$ne": exceptUserID},
	}
	n, err := s.col(colAccounts).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	return n > 0, err
}

func (s *MongoStore) SetAvatar(ctx context.Context, userID, url string) (string, error) {
	var before models.Account
	err := s.col(colAccounts).FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"avatar": url, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before).SetProjection(bson.M{"avatar": 1}),
	).Decode(&before)
	if err != nil {
		return "", notFound(err, "account not found")
	}
	return before.Avatar, nil
}

// AdjustBalance applies delta with a single guarded $inc so concurrent
// debits can never take the balance below zero and credits can never
// overflow it.
func (s *MongoStore) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	filter := bson.M{"user_id": userID}
	switch {
	case delta < 0:
		filter["coin_balance"] = bson.M{"$gte": -delta}
	case delta > 0:
		filter["coin_balance"] = bson.M{"$lte": math.MaxInt64 - delta}
	}

	var acc models.Account
	err := s.col(colAccounts).FindOneAndUpdate(ctx,
		filter,
		bson.M{"$inc": bson.M{"coin_balance": delta}, "$set": bson.M{"updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"coin_balance": 1}),
	).Decode(&acc)
	if err == nil {
		return acc.CoinBalance, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}

	// the guard failed or the account is missing
	n, cerr := s.col(colAccounts).CountDocuments(ctx, bson.M{"user_id": userID}, options.Count().SetLimit(1))
	if cerr != nil {
		return 0, cerr
	}
	if n == 0 {
		return 0, apperr.NotFound("account not found")
	}
	if delta > 0 {
		return 0, apperr.Validation("amount would overflow the balance")
	}
	return 0, apperr.InsufficientFunds("not enough coins")
}

func (s *MongoStore) TotalCoins(ctx context.Context) (int64, error) {
	cur, err := s.col(colAccounts).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$coin_balance"}}}},
	})
	if err != nil {
		return 0, err
	}
	rows, err := decodeAll[struct {
		Total int64 `bson:"total"`
	}](ctx, cur)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return rows[0].Total, nil
}

func (s *MongoStore) InsertTransaction(ctx context.Context, txn *models.CoinTransaction) error {
	_, err := s.col(colTransactions).InsertOne(ctx, txn)
	return err
}

func (s *MongoStore) ListTransactions(ctx context.Context, userID string, limit, skip int64) ([]models.CoinTransaction, error) {
	opts := pageOptions(limit, skip).SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.col(colTransactions).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.CoinTransaction](ctx, cur)
}
