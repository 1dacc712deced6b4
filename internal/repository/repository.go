// Package repository holds the persistence contracts used by the services
// together with their MongoDB and PostgreSQL implementations.
package repository

import (
	"context"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transactor runs fn as one unit: either every write inside fn is kept or
// none is. fn must use the ctx it is given.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository stores identities.
type UserRepository interface {
	// CreateUser inserts u and then runs then; u is only persisted when
	// then returns nil.
	CreateUser(ctx context.Context, u *models.User, then func(ctx context.Context) error) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	SetUserFlags(ctx context.Context, id string, admin, verified *bool) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	Biography *string
	Instagram *string
	Birthday  *time.Time
	Interest  *string
	SchoolID  *primitive.ObjectID
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, acc *models.Account) error
	DeleteAccount(ctx context.Context, userID string) error
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
	GetAccounts(ctx context.Context, userIDs []string) (map[string]*models.Account, error)
	// SaveViews persists WhoView, LastViewedBy and TotalViews.
	SaveViews(ctx context.Context, acc *models.Account) error
	SetVIP(ctx context.Context, userID string, vip []models.VIPRecord) error
	UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.Account, error)
	InstagramTaken(ctx context.Context, instagram, exceptUserID string) (bool, error)
	// SetAvatar stores url and returns the previous avatar.
	SetAvatar(ctx context.Context, userID, url string) (string, error)
	// AdjustBalance adds delta and returns the new balance. It fails with
	// an insufficient-funds error, without writing, when the result would
	// be negative.
	AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error)
	TotalCoins(ctx context.Context) (int64, error)
}

type LedgerRepository interface {
	InsertTransaction(ctx context.Context, txn *models.CoinTransaction) error
	ListTransactions(ctx context.Context, userID string, limit, skip int64) ([]models.CoinTransaction, error)
}

type FriendRepository interface {
	HasRelation(ctx context.Context, ownerID, otherID string, kind models.RelationKind) (bool, error)
	AddRelation(ctx context.Context, rel *models.FriendRelation) error
	// RemoveRelation reports whether an edge was removed.
	RemoveRelation(ctx context.Context, ownerID, otherID string, kind models.RelationKind) (bool, error)
	ListRelations(ctx context.Context, ownerID string, kind models.RelationKind) ([]models.FriendRelation, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	// ListPosts returns newest first; an empty authorID lists everyone.
	ListPosts(ctx context.Context, authorID string, limit, skip int64) ([]models.Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	SetPostVotes(ctx context.Context, id primitive.ObjectID, votes models.Votes) error
	CountPosts(ctx context.Context) (int64, error)

	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	// ListComments returns oldest first.
	ListComments(ctx context.Context, postID primitive.ObjectID, limit, skip int64) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id primitive.ObjectID) error
	SetCommentVotes(ctx context.Context, id primitive.ObjectID, votes models.Votes) error
}

type MessageRepository interface {
	InsertMessage(ctx context.Context, m *models.DirectMessage) error
	// ListConversation returns newest first.
	ListConversation(ctx context.Context, a, b string, before *time.Time, limit int64) ([]models.DirectMessage, error)
	MarkConversationRead(ctx context.Context, receiverID, senderID string) (int64, error)
	CountMessages(ctx context.Context) (int64, error)
}

type NotificationRepository interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int64) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context, userID string) (int64, error)
}

type ClubRepository interface {
	CreateClub(ctx context.Context, c *models.Club) error
	GetClub(ctx context.Context, id primitive.ObjectID) (*models.Club, error)
	ListClubs(ctx context.Context) ([]models.Club, error)
	AddGoing(ctx context.Context, id primitive.ObjectID, userID string) error
	RemoveGoing(ctx context.Context, id primitive.ObjectID, userID string) error
	// ResetGoing empties every club's list in one bulk write.
	ResetGoing(ctx context.Context, now time.Time) (int64, error)
}

type SchoolRepository interface {
	CreateSchool(ctx context.Context, s *models.School) error
	GetSchool(ctx context.Context, id primitive.ObjectID) (*models.School, error)
	ListSchools(ctx context.Context) ([]models.School, error)
	IncSchoolMembers(ctx context.Context, id primitive.ObjectID, delta int64) error
}

type InviteRepository interface {
	CreateInvite(ctx context.Context, inv *models.Invite) error
	GetInvite(ctx context.Context, code string) (*models.Invite, error)
	ListInvites(ctx context.Context, createdBy string) ([]models.Invite, error)
	// RedeemInvite records userID against code when the invite is still
	// redeemable at now.
	RedeemInvite(ctx context.Context, code, userID string, now time.Time) (*models.Invite, error)
}

// Store is the document-store side of the application.
type Store interface {
	Transactor
	AccountRepository
	LedgerRepository
	FriendRepository
	PostRepository
	MessageRepository
	NotificationRepository
	ClubRepository
	SchoolRepository
	InviteRepository
}
