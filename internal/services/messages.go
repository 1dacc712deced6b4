package services

import (
	"context"
	"strings"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/metrics"
	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/AnshRaj112/clubhub-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxMessageLength         = 1000
	defaultConversationLimit = 50
	maxConversationLimit     = 100
)

// MessageService sends coin-gated direct messages.
type MessageService struct {
	store    repository.Store
	users    repository.UserRepository
	ledger   *LedgerService
	notifier *NotificationService
	recent   *RecentMessages
	cost     int64
	now      func() time.Time
}

func NewMessageService(store repository.Store, users repository.UserRepository, ledger *LedgerService, notifier *NotificationService, recent *RecentMessages, cost int64) *MessageService {
	return &MessageService{
		store:    store,
		users:    users,
		ledger:   ledger,
		notifier: notifier,
		recent:   recent,
		cost:     cost,
		now:      time.Now,
	}
}

// SendResult is the stored message plus the sender's balance after paying.
type SendResult struct {
	Message *models.DirectMessage `json:"message"`
	Balance int64                 `json:"balance"`
}

// Send debits the message cost and stores the message in one transaction.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, text string) (*SendResult, error) {
	text = strings.TrimSpace(text)
	if err := utils.ValidateText("text", text, 1, MaxMessageLength); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, apperr.Validation("you cannot message yourself")
	}
	if _, err := s.users.GetUser(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &models.DirectMessage{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		CreatedAt:  s.now().UTC(),
	}

	res := &SendResult{Message: msg}
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetAccount(ctx, receiverID); err != nil {
			return err
		}
		if s.cost > 0 {
			txn, err := s.ledger.apply(ctx, senderID, -s.cost, models.TransactionSpend, models.ReasonMessage)
			if err != nil {
				return err
			}
			res.Balance = txn.BalanceAfter
		} else {
			acc, err := s.store.GetAccount(ctx, senderID)
			if err != nil {
				return err
			}
			res.Balance = acc.CoinBalance
		}
		return s.store.InsertMessage(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMessageSent()
	s.recent.Push(ctx, msg)
	s.notifier.Push(ctx, receiverID, "message", msg)
	s.notifier.notifyAfter(ctx, receiverID, models.NotificationMessage, senderID, msg.ID.Hex())
	return res, nil
}

// Conversation returns one page between userID and otherID, oldest first,
// and whether older messages remain.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID string, before *time.Time, limit int64) ([]models.DirectMessage, bool, error) {
	if _, err := s.users.GetUser(ctx, otherID); err != nil {
		return nil, false, err
	}
	limit = clampLimit(limit, defaultConversationLimit, maxConversationLimit)

	if before == nil {
		if cached, hasMore, ok := s.recent.Get(ctx, userID, otherID, limit); ok {
			return cached, hasMore, nil
		}
	}

	msgs, err := s.store.ListConversation(ctx, userID, otherID, before, limit+1)
	if err != nil {
		return nil, false, err
	}

	hasMore := int64(len(msgs)) > limit
	if hasMore {
		msgs = msgs[:len(msgs)-1]
	}

	// Reverse to oldest-first for the UI.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if before == nil {
		s.recent.Warm(ctx, userID, otherID, msgs, hasMore)
	}
	return msgs, hasMore, nil
}

// MarkRead marks everything otherID sent to userID as read.
func (s *MessageService) MarkRead(ctx context.Context, userID, otherID string) (int64, error) {
	n, err := s.store.MarkConversationRead(ctx, userID, otherID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.recent.Invalidate(ctx, userID, otherID)
	}
	return n, nil
}
