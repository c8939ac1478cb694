package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyForIndicesOrderIndependent(t *testing.T) {
	a := keyForIndices([]int{3, 1, 2})
	b := keyForIndices([]int{2, 3, 1})
	assert.Equal(t, a, b)
}

func TestKeyForIndicesIgnoresDuplicates(t *testing.T) {
	a := keyForIndices([]int{1, 2, 2, 3})
	b := keyForIndices([]int{3, 2, 1})
	assert.Equal(t, a, b)
}

func TestKeyForIndicesDoesNotMutateInput(t *testing.T) {
	in := []int{3, 1, 2}
	keyForIndices(in)
	assert.Equal(t, []int{3, 1, 2}, in)
}

func TestKeyForIndicesDistinguishesSets(t *testing.T) {
	assert.NotEqual(t, keyForIndices([]int{1, 2}), keyForIndices([]int{1, 2, 3}))
	// String keys must not confuse {1, 23} with {12, 3}.
	assert.NotEqual(t, keyForIndices([]int{1, 23}), keyForIndices([]int{12, 3}))
}

func TestCacheHitAndMiss(t *testing.T) {
	c := newSliceCache(4)
	_, ok := c.Get(keyForIndices([]int{1}))
	assert.False(t, ok)

	c.Put(keyForIndices([]int{1, 2}), 7)
	idx, ok := c.Get(keyForIndices([]int{2, 1}))
	assert.True(t, ok)
	assert.Equal(t, 7, idx)
}

func TestCacheEvictsExactlyOldest(t *testing.T) {
	c := newSliceCache(2)
	c.Put("a", 0)
	c.Put("b", 1)
	c.Put("c", 2) // evicts "a" only

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCacheGetRefreshesRecency(t *testing.T) {
	c := newSliceCache(2)
	c.Put("a", 0)
	c.Put("b", 1)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Put("c", 2)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestCachePutExistingKeyUpdatesWithoutEviction(t *testing.T) {
	c := newSliceCache(2)
	c.Put("a", 0)
	c.Put("b", 1)
	c.Put("a", 5)

	idx, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 5, idx)
	_, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}
