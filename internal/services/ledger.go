package services

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/metrics"
	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/AnshRaj112/clubhub-backend/internal/repository"
	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// LedgerService is the only writer of coin balances.
type LedgerService struct {
	store repository.Store
	now   func() time.Time
}

func NewLedgerService(store repository.Store) *LedgerService {
	return &LedgerService{store: store, now: time.Now}
}

// Apply adjusts userID's balance by amount and appends the ledger entry,
// both in one transaction.
func (s *LedgerService) Apply(ctx context.Context, userID string, amount int64, typ models.TransactionType, reason string) (*models.CoinTransaction, error) {
	var txn *models.CoinTransaction
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		txn, err = s.apply(ctx, userID, amount, typ, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// apply must run inside a store transaction so that the entry and any
// bundled write commit together.
func (s *LedgerService) apply(ctx context.Context, userID string, amount int64, typ models.TransactionType, reason string) (*models.CoinTransaction, error) {
	txn, err := models.NewTransaction(userID, amount, typ, reason, s.now().UTC())
	if err != nil {
		return nil, err
	}

	balance, err := s.store.AdjustBalance(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, apperr.ErrInsufficientFunds) {
			metrics.RecordInsufficientFunds()
		}
		return nil, err
	}
	txn.BalanceAfter = balance

	if err := s.store.InsertTransaction(ctx, txn); err != nil {
		return nil, err
	}
	metrics.RecordCoinTransaction(string(typ), reason, amount)
	return txn, nil
}

// Grant credits amount coins.
func (s *LedgerService) Grant(ctx context.Context, userID string, amount int64, reason string) (*models.CoinTransaction, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	if reason == "" {
		reason = models.ReasonAdminGrant
	}
	return s.Apply(ctx, userID, amount, models.TransactionDeposit, reason)
}

// Spend debits cost coins.
func (s *LedgerService) Spend(ctx context.Context, userID string, cost int64, reason string) (*models.CoinTransaction, error) {
	if cost <= 0 {
		return nil, apperr.Validation("cost must be positive")
	}
	return s.Apply(ctx, userID, -cost, models.TransactionSpend, reason)
}

// Wallet is the balance plus one page of history.
type Wallet struct {
	Balance      int64                    `json:"balance"`
	Transactions []models.CoinTransaction `json:"transactions"`
}

func (s *LedgerService) Wallet(ctx context.Context, userID string, limit, skip int64) (*Wallet, error) {
	acc, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if skip < 0 {
		skip = 0
	}
	txns, err := s.store.ListTransactions(ctx, userID, clampLimit(limit, defaultHistoryLimit, maxHistoryLimit), skip)
	if err != nil {
		return nil, err
	}
	return &Wallet{Balance: acc.CoinBalance, Transactions: txns}, nil
}
