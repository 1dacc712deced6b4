package models

import (
	"math"
	"time"

	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionType string

const (
	TransactionDeposit TransactionType = "deposit"
	TransactionSpend   TransactionType = "spend"
)

// Reasons recorded on ledger entries.
const (
	ReasonAdminGrant = "admin_grant"
	ReasonMessage    = "message"
	ReasonVIP        = "vip"
	ReasonInvite     = "invite"
)

// CoinTransaction is an append-only ledger entry. Amount is positive for
// deposits and negative for spends.
type CoinTransaction struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       string             `bson:"user_id" json:"user_id"`
	Amount       int64              `bson:"amount" json:"amount"`
	Type         TransactionType    `bson:"type" json:"type"`
	Reason       string             `bson:"reason" json:"reason"`
	BalanceAfter int64              `bson:"balance_after" json:"balance_after"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// NewTransaction validates the sign of amount against typ and builds the entry.
func NewTransaction(userID string, amount int64, typ TransactionType, reason string, now time.Time) (*CoinTransaction, error) {
	switch typ {
	case TransactionDeposit:
		if amount <= 0 {
			return nil, apperr.Validation("deposit amount must be positive")
		}
	case TransactionSpend:
		if amount >= 0 {
			return nil, apperr.Validation("spend amount must be negative")
		}
	default:
		return nil, apperr.Validation("unknown transaction type")
	}
	return &CoinTransaction{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Amount:    amount,
		Type:      typ,
		Reason:    reason,
		CreatedAt: now,
	}, nil
}

// CheckBalance rejects a change that would take balance below zero or
// past the int64 range.
func CheckBalance(balance, amount int64) error {
	if amount > 0 && balance > math.MaxInt64-amount {
		return apperr.Validation("amount would overflow the balance")
	}
	if balance+amount < 0 {
		return apperr.InsufficientFunds("not enough coins")
	}
	return nil
}
