package services

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/metrics"
	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoPendingRequest is returned by AcceptRequest when the requester has
// no outstanding request to the caller.
var ErrNoPendingRequest = apperr.NotFound("friend request not found")

// FriendService runs the friend state machine. Every transition happens
// inside one store transaction so both sides change together.
type FriendService struct {
	store    repository.Store
	dir      *Directory
	notifier *NotificationService
	now      func() time.Time
}

func NewFriendService(store repository.Store, dir *Directory, notifier *NotificationService) *FriendService {
	return &FriendService{store: store, dir: dir, notifier: notifier, now: time.Now}
}

// SendRequest moves the pair (from, to) from none to from→to pending.
func (s *FriendService) SendRequest(ctx context.Context, fromID, toID string) error {
	if fromID == toID {
		return apperr.Conflict("you cannot send a friend request to yourself")
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireAccounts(ctx, fromID, toID); err != nil {
			return err
		}
		status, err := s.Status(ctx, fromID, toID)
		if err != nil {
			return err
		}
		switch status {
		case models.FriendStatusFriends:
			return apperr.Conflict("you are already friends")
		case models.FriendStatusRequestSent, models.FriendStatusRequestReceived:
			return apperr.Conflict("friend request already exists")
		}

		now := s.now().UTC()
		if err := s.store.AddRelation(ctx, relation(fromID, toID, models.RelationSent, now)); err != nil {
			return err
		}
		return s.store.AddRelation(ctx, relation(toID, fromID, models.RelationReceived, now))
	})
	if err != nil {
		return err
	}

	metrics.RecordFriendEvent("request")
	s.notifier.notifyAfter(ctx, toID, models.NotificationFriendRequest, fromID, "")
	return nil
}

// AcceptRequest lets userID accept the pending request from requesterID.
func (s *FriendService) AcceptRequest(ctx context.Context, userID, requesterID string) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		pending, err := s.store.HasRelation(ctx, userID, requesterID, models.RelationReceived)
		if err != nil {
			return err
		}
		if !pending {
			return ErrNoPendingRequest
		}
		if err := s.requireAccounts(ctx, userID); err != nil {
			return err
		}
		// a request left behind by a deleted account can no longer be accepted
		if err := s.requireAccounts(ctx, requesterID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return ErrNoPendingRequest
			}
			return err
		}

		removed, err := s.store.RemoveRelation(ctx, userID, requesterID, models.RelationReceived)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNoPendingRequest
		}

		mirrored, err := s.store.RemoveRelation(ctx, requesterID, userID, models.RelationSent)
		if err != nil {
			return err
		}
		if !mirrored {
			log.WithFields(log.Fields{"user_id": userID, "requester_id": requesterID}).
				Warn("⚠️  accepting friend request with no matching sent entry")
		}

		now := s.now().UTC()
		for _, pair := range [][2]string{{userID, requesterID}, {requesterID, userID}} {
			exists, err := s.store.HasRelation(ctx, pair[0], pair[1], models.RelationFriend)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := s.store.AddRelation(ctx, relation(pair[0], pair[1], models.RelationFriend, now)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordFriendEvent("accept")
	s.notifier.notifyAfter(ctx, requesterID, models.NotificationFriendAdded, userID, "")
	return nil
}

// Unfriend removes both friend edges. Removing edges that do not exist is
// a no-op.
func (s *FriendService) Unfriend(ctx context.Context, userID, otherID string) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireAccounts(ctx, userID, otherID); err != nil {
			return err
		}
		if _, err := s.store.RemoveRelation(ctx, userID, otherID, models.RelationFriend); err != nil {
			return err
		}
		_, err := s.store.RemoveRelation(ctx, otherID, userID, models.RelationFriend)
		return err
	})
	if err != nil {
		return err
	}
	metrics.RecordFriendEvent("unfriend")
	return nil
}

// Status is the pair state as seen from userID.
func (s *FriendService) Status(ctx context.Context, userID, otherID string) (models.FriendStatus, error) {
	if userID == "" || userID == otherID {
		return models.FriendStatusNone, nil
	}
	checks := []struct {
		kind   models.RelationKind
		status models.FriendStatus
	}{
		{models.RelationFriend, models.FriendStatusFriends},
		{models.RelationSent, models.FriendStatusRequestSent},
		{models.RelationReceived, models.FriendStatusRequestReceived},
	}
	for _, c := range checks {
		ok, err := s.store.HasRelation(ctx, userID, otherID, c.kind)
		if err != nil {
			return "", err
		}
		if ok {
			return c.status, nil
		}
	}
	return models.FriendStatusNone, nil
}

// Friends lists userID's friends, most recent first.
func (s *FriendService) Friends(ctx context.Context, userID string) ([]models.UserSummary, error) {
	if _, err := s.store.GetAccount(ctx, userID); err != nil {
		return nil, err
	}
	return s.list(ctx, userID, models.RelationFriend)
}

// PendingRequests lists incoming and outgoing requests.
type PendingRequests struct {
	Incoming []models.UserSummary `json:"incoming"`
	Outgoing []models.UserSummary `json:"outgoing"`
}

func (s *FriendService) Requests(ctx context.Context, userID string) (*PendingRequests, error) {
	if _, err := s.store.GetAccount(ctx, userID); err != nil {
		return nil, err
	}
	in, err := s.list(ctx, userID, models.RelationReceived)
	if err != nil {
		return nil, err
	}
	out, err := s.list(ctx, userID, models.RelationSent)
	if err != nil {
		return nil, err
	}
	return &PendingRequests{Incoming: in, Outgoing: out}, nil
}

// CountFriends is used by the profile projection.
func (s *FriendService) CountFriends(ctx context.Context, userID string) (int, error) {
	rels, err := s.store.ListRelations(ctx, userID, models.RelationFriend)
	return len(rels), err
}

func (s *FriendService) list(ctx context.Context, userID string, kind models.RelationKind) ([]models.UserSummary, error) {
	rels, err := s.store.ListRelations(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rels))
	for i, r := range rels {
		ids[i] = r.OtherID
	}
	return s.dir.Summaries(ctx, ids)
}

func (s *FriendService) requireAccounts(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := s.store.GetAccount(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func relation(owner, other string, kind models.RelationKind, now time.Time) *models.FriendRelation {
	return &models.FriendRelation{
		ID:        primitive.NewObjectID(),
		OwnerID:   owner,
		OtherID:   other,
		Kind:      kind,
		CreatedAt: now,
	}
}
