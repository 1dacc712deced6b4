package models

import (
	"errors"
	"math"
	"testing"

	"github.com/AnshRaj112/clubhub-backend/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction_SignMustMatchType(t *testing.T) {
	_, err := NewTransaction("u", -5, TransactionDeposit, ReasonAdminGrant, t0)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = NewTransaction("u", 5, TransactionSpend, ReasonMessage, t0)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = NewTransaction("u", 5, TransactionType("gift"), "", t0)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	txn, err := NewTransaction("u", -1, TransactionSpend, ReasonMessage, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), txn.Amount)
	assert.Equal(t, t0, txn.CreatedAt)
}

func TestCheckBalance(t *testing.T) {
	assert.NoError(t, CheckBalance(1, -1))
	assert.NoError(t, CheckBalance(0, 10))
	assert.True(t, errors.Is(CheckBalance(0, -1), apperr.ErrInsufficientFunds))

	assert.NoError(t, CheckBalance(0, math.MaxInt64))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(CheckBalance(1, math.MaxInt64)))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(CheckBalance(math.MaxInt64, 1)))
}
