package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("account not found")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("send: %w", Conflict("already exists"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestSentinelMatchesKind(t *testing.T) {
	err := fmt.Errorf("debit: %w", InsufficientFunds("not enough coins"))

	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "debit: not enough coins", err.Error())
}

func TestSpecificErrorsDoNotMatchEachOther(t *testing.T) {
	a := NotFound("user not found")
	b := NotFound("friend request not found")

	assert.False(t, errors.Is(a, b))
	assert.True(t, errors.Is(b, b))
	assert.True(t, errors.Is(a, ErrNotFound))
}
