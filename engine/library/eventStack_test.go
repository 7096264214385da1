package library

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackIsFirstInFirstOut(t *testing.T) {
	s := NewEventStack(1)
	var popped []int
	for i := 0; i < 10; i++ {
		s.Push(&nostr.Event{Kind: i})
		if i%3 == 0 {
			e, ok := s.Pop()
			require.True(t, ok)
			popped = append(popped, e.Kind)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3}, popped)
	assert.Equal(t, 6, s.Len())
	for want := 4; want < 10; want++ {
		e, ok := s.Pop()
		require.True(t, ok)
		assert.Equal(t, want, e.Kind)
	}
	_, ok := s.Pop()
	assert.False(t, ok)
}
