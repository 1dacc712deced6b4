package services

import (
	"context"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

// NotificationService stores notifications and pushes them in realtime.
type NotificationService struct {
	store     repository.NotificationRepository
	publisher Publisher
	now       func() time.Time
}

func NewNotificationService(store repository.NotificationRepository, publisher Publisher) *NotificationService {
	return &NotificationService{store: store, publisher: publisher, now: time.Now}
}

// Notify stores a notification for userID and publishes it.
func (s *NotificationService) Notify(ctx context.Context, userID string, typ models.NotificationType, actorID, refID string) (*models.Notification, error) {
	n := &models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Type:      typ,
		ActorID:   actorID,
		RefID:     refID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertNotification(ctx, n); err != nil {
		return nil, err
	}
	s.push(ctx, userID, "notification", n)
	return n, nil
}

// Push publishes a transient event with no stored notification.
func (s *NotificationService) Push(ctx context.Context, userID, typ string, data interface{}) {
	s.push(ctx, userID, typ, data)
}

func (s *NotificationService) push(ctx context.Context, userID, typ string, data interface{}) {
	if s == nil || s.publisher == nil {
		return
	}
	ev, err := NewEvent(typ, userID, data)
	if err == nil {
		err = s.publisher.Publish(ctx, ev)
	}
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"user_id": userID, "type": typ}).Warn("failed to publish realtime event")
	}
}

// notifyAfter is used once the triggering write has committed; a failure
// is logged rather than failing a request whose main effect already
// happened.
func (s *NotificationService) notifyAfter(ctx context.Context, userID string, typ models.NotificationType, actorID, refID string) {
	if s == nil {
		return
	}
	if _, err := s.Notify(ctx, userID, typ, actorID, refID); err != nil {
		log.WithError(err).WithFields(log.Fields{"user_id": userID, "type": typ}).Warn("failed to store notification")
	}
}

func (s *NotificationService) List(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, clampLimit(limit, defaultNotificationLimit, maxNotificationLimit))
}

func (s *NotificationService) MarkRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkNotificationsRead(ctx, userID)
}

func clampLimit(limit, def, max int64) int64 {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
