package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	s := NewSet()
	for i := 0; i < 4; i++ {
		id := s.Add(&Centroid{Key: string(rune('a' + i))})
		assert.Equal(t, uint32(i), id)
	}
	assert.Equal(t, 4, s.Len())

	assert.True(t, s.Remove(1))
	assert.False(t, s.Remove(1))
	assert.False(t, s.Remove(42))
	assert.Equal(t, 3, s.Len())

	_, ok := s.Get(1)
	assert.False(t, ok)
	c, ok := s.Get(2)
	require.True(t, ok)
	assert.Equal(t, "c", c.Key)

	var keys []string
	for _, c := range s.Live() {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"a", "c", "d"}, keys)

	// Ids are never reused.
	assert.Equal(t, uint32(4), s.Add(&Centroid{Key: "e"}))
}
