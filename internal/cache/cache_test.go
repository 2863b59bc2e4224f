package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_LoadBeforeStore(t *testing.T) {
	var s Snapshot[[]int]
	v, ok := s.Load()
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSnapshot_StoreReplaces(t *testing.T) {
	var s Snapshot[[]int]
	s.Store([]int{1, 2})
	v, ok := s.Load()
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2}, v)

	s.Store([]int{3})
	v, ok = s.Load()
	assert.True(t, ok)
	assert.Equal(t, []int{3}, v)
}

func TestSnapshot_EmptyValueCountsAsStored(t *testing.T) {
	// a stored nil slice is a loaded-but-empty state, not an absent one
	var s Snapshot[[]int]
	s.Store(nil)
	v, ok := s.Load()
	assert.True(t, ok)
	assert.Nil(t, v)
}
