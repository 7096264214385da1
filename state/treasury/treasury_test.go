package treasury

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreasury(t *testing.T) {
	tr := New("treasury")
	assert.Equal(t, "treasury", tr.Account())
	assert.Equal(t, Ratio{}, tr.Ratio())

	require.NoError(t, tr.Deposit(60))
	require.NoError(t, tr.Issue(60))
	assert.Equal(t, Ratio{PooledCapital: 60, SharesOutstanding: 60}, tr.Ratio())

	assert.ErrorIs(t, tr.Deposit(math.MaxUint64), ErrOverflow)
	assert.ErrorIs(t, tr.Issue(math.MaxUint64), ErrOverflow)
	assert.Equal(t, Ratio{PooledCapital: 60, SharesOutstanding: 60}, tr.Ratio())

	assert.ErrorIs(t, tr.Buyback(61, 1), ErrInsufficientTreasury)
	assert.ErrorIs(t, tr.Buyback(1, 61), ErrInsufficientTreasury)
	require.NoError(t, tr.Buyback(10, 10))
	assert.Equal(t, Ratio{PooledCapital: 50, SharesOutstanding: 50}, tr.Ratio())
}

func TestProRata(t *testing.T) {
	tr := New("treasury")
	assert.Equal(t, uint64(0), tr.ProRata(1), "nothing outstanding")

	tr.Restore(Ratio{PooledCapital: 100, SharesOutstanding: 30})
	assert.Equal(t, uint64(33), tr.ProRata(10))
	assert.Equal(t, uint64(100), tr.ProRata(30))
	assert.Equal(t, uint64(0), tr.ProRata(31))

	tr.Restore(Ratio{PooledCapital: math.MaxUint64, SharesOutstanding: math.MaxUint64})
	assert.Equal(t, uint64(math.MaxUint64-1), tr.ProRata(math.MaxUint64-1))
}
