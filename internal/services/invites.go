package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/AnshRaj112/clubhub-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	inviteCodeLength = 8
	MaxInviteUses    = 50
	codeAttempts     = 3
)

type InviteService struct {
	store  repository.Store
	ledger *LedgerService
	bonus  int64
	now    func() time.Time
}

func NewInviteService(store repository.Store, ledger *LedgerService, bonus int64) *InviteService {
	return &InviteService{store: store, ledger: ledger, bonus: bonus, now: time.Now}
}

// Create issues a new code for userID. maxUses <= 0 means the default.
func (s *InviteService) Create(ctx context.Context, userID string, maxUses int) (*models.Invite, error) {
	if maxUses <= 0 {
		maxUses = models.DefaultInviteUses
	}
	if maxUses > MaxInviteUses {
		return nil, apperr.Validation("maxUses must be at most 50")
	}
	if _, err := s.store.GetAccount(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	for attempt := 0; ; attempt++ {
		code, err := utils.RandomCode(inviteCodeLength)
		if err != nil {
			return nil, err
		}
		inv := &models.Invite{
			ID:        primitive.NewObjectID(),
			Code:      code,
			CreatedBy: userID,
			MaxUses:   maxUses,
			UsedBy:    []string{},
			ExpiresAt: now.Add(models.InviteTTL),
			CreatedAt: now,
		}
		err = s.store.CreateInvite(ctx, inv)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, apperr.ErrConflict) || attempt+1 >= codeAttempts {
			return nil, err
		}
	}
}

func (s *InviteService) List(ctx context.Context, userID string) ([]models.Invite, error) {
	return s.store.ListInvites(ctx, userID)
}

// redeem records userID against code and credits the inviter. It must run
// inside the signup transaction.
func (s *InviteService) redeem(ctx context.Context, code, userID string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	inv, err := s.store.RedeemInvite(ctx, code, userID, s.now().UTC())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation("invite code is invalid")
		}
		return err
	}
	if s.bonus <= 0 || inv.CreatedBy == "" {
		return nil
	}
	_, err = s.ledger.apply(ctx, inv.CreatedBy, s.bonus, models.TransactionDeposit, models.ReasonInvite)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	return err
}
