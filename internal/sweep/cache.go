package sweep

import (
	"container/list"
	"sort"
	"strconv"
	"strings"
)

// membershipKey is the frozen, order-independent identity of a slice's
// index set. Two slices with the same members produce the same key
// regardless of index order or duplicates.
type membershipKey string

// keyForIndices builds the membership key for a slice. The input is not
// mutated.
func keyForIndices(indices []int) membershipKey {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)
	var sb strings.Builder
	prev := -1
	for i, idx := range sorted {
		if i > 0 && idx == prev {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(idx))
		prev = idx
	}
	return membershipKey(sb.String())
}

// sliceCache maps membership keys to the slice index whose result was
// already computed, with least-recently-used eviction. It exists for the
// lifetime of one evaluator pass only and is deliberately unsynchronized:
// the evaluator is its single owner.
type sliceCache struct {
	capacity int
	items    map[membershipKey]*list.Element
	order    *list.List // front = most recent, back = least recent
}

type cacheEntry struct {
	key        membershipKey
	sliceIndex int
}

func newSliceCache(capacity int) *sliceCache {
	return &sliceCache{
		capacity: capacity,
		items:    make(map[membershipKey]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the slice index cached for a membership key. A hit moves the
// entry to the most-recently-used position.
func (c *sliceCache) Get(key membershipKey) (int, bool) {
	elem, ok := c.items[key]
	if !ok {
		return 0, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).sliceIndex, true
}

// Put records that the given slice index holds the computed result for a
// membership key, then evicts the single least-recently-used entry if the
// cache has grown past its capacity.
func (c *sliceCache) Put(key membershipKey, sliceIndex int) {
	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheEntry).sliceIndex = sliceIndex
		c.order.MoveToFront(elem)
		return
	}
	elem := c.order.PushFront(&cacheEntry{key: key, sliceIndex: sliceIndex})
	c.items[key] = elem
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached entries.
func (c *sliceCache) Len() int {
	return c.order.Len()
}
