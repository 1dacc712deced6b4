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
)

const (
	MaxVIPLevel     = 3
	vipStatusTTL    = 10 * time.Minute
	vipCacheKeyName = "vip"
)

type VIPService struct {
	store    repository.Store
	ledger   *LedgerService
	cache    Cache
	price    int64
	duration time.Duration
	now      func() time.Time
}

func NewVIPService(store repository.Store, ledger *LedgerService, cache Cache, price int64, duration time.Duration) *VIPService {
	return &VIPService{
		store:    store,
		ledger:   ledger,
		cache:    cache,
		price:    price,
		duration: duration,
		now:      time.Now,
	}
}

// VIPStatus is what GET /api/vip returns.
type VIPStatus struct {
	Active  bool               `json:"active"`
	Until   *time.Time         `json:"until,omitempty"`
	Records []models.VIPRecord `json:"records"`
}

// PurchaseResult reports the granted record and the debit that paid for it.
type PurchaseResult struct {
	Record      models.VIPRecord        `json:"record"`
	Transaction *models.CoinTransaction `json:"transaction,omitempty"`
	Balance     int64                   `json:"balance"`
}

// Purchase debits the price and grants or extends the tier in one
// transaction.
func (s *VIPService) Purchase(ctx context.Context, userID string, level int) (*PurchaseResult, error) {
	if level < 1 || level > MaxVIPLevel {
		return nil, apperr.Validation("level must be between 1 and 3")
	}

	var res PurchaseResult
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		acc, err := s.store.GetAccount(ctx, userID)
		if err != nil {
			return err
		}
		res.Balance = acc.CoinBalance

		if s.price > 0 {
			txn, err := s.ledger.apply(ctx, userID, -s.price, models.TransactionSpend, models.ReasonVIP)
			if err != nil {
				return err
			}
			res.Transaction = txn
			res.Balance = txn.BalanceAfter
		}

		res.Record = acc.GrantVIP(level, s.duration, s.now().UTC())
		return s.store.SetVIP(ctx, userID, acc.VIP)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	metrics.RecordVIPPurchase(level)
	return &res, nil
}

func (s *VIPService) Status(ctx context.Context, userID string) (*VIPStatus, error) {
	acc, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	st := &VIPStatus{Active: acc.IsVIP(now), Records: acc.VIP}
	if st.Active {
		until := acc.VIPUntil()
		st.Until = &until
	}
	if st.Records == nil {
		st.Records = []models.VIPRecord{}
	}
	return st, nil
}

type cachedVIP struct {
	Until time.Time `json:"until"`
}

// IsVIP reports whether userID holds any unexpired tier. The latest expiry
// is cached; a missing account counts as not VIP.
func (s *VIPService) IsVIP(ctx context.Context, userID string) (bool, error) {
	key := CacheKey(vipCacheKeyName, userID)

	var cached cachedVIP
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		log.WithError(err).Warn("vip cache read failed")
	} else if hit {
		return cached.Until.After(s.now()), nil
	}

	acc, err := s.store.GetAccount(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	cached.Until = acc.VIPUntil()
	if err := s.cache.Set(ctx, key, cached, vipStatusTTL); err != nil {
		log.WithError(err).Warn("vip cache write failed")
	}
	return acc.IsVIP(s.now()), nil
}

func (s *VIPService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, CacheKey(vipCacheKeyName, userID)); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("failed to invalidate vip cache")
	}
}
