package custody

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlockTransfer(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Fund("alice", 20))

	require.NoError(t, l.Lock("alice", 15))
	assert.Equal(t, Balance{Free: 5, Locked: 15}, l.Balance("alice"))
	assert.ErrorIs(t, l.Lock("alice", 6), ErrInsufficientFunds)
	assert.Equal(t, Balance{Free: 5, Locked: 15}, l.Balance("alice"))

	assert.ErrorIs(t, l.Unlock("alice", 16), ErrInsufficientLocked)
	require.NoError(t, l.Unlock("alice", 10))
	assert.Equal(t, Balance{Free: 15, Locked: 5}, l.Balance("alice"))

	assert.ErrorIs(t, l.Transfer("alice", "treasury", 16), ErrInsufficientFunds)
	require.NoError(t, l.Transfer("alice", "treasury", 15))
	assert.Equal(t, Balance{Locked: 5}, l.Balance("alice"))
	assert.Equal(t, Balance{Free: 15}, l.Balance("treasury"))

	require.NoError(t, l.Transfer("treasury", "treasury", 15))
	assert.Equal(t, Balance{Free: 15}, l.Balance("treasury"))
}

func TestOverflowAndRestore(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Fund("bob", math.MaxUint64))
	assert.ErrorIs(t, l.Fund("bob", 1), ErrOverflow)
	require.NoError(t, l.Fund("carol", 1))
	assert.ErrorIs(t, l.Transfer("carol", "bob", 1), ErrOverflow)

	other := NewLedger()
	other.Restore(l.GetMapped())
	assert.Equal(t, l.GetMapped(), other.GetMapped())
}
