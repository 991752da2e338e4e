/*
 * Otree - Scalable Hash Tries and Sorted Maps
 *
 * Copyright Flow Foundation
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package otree

// lruEntry wraps a cached payload with the recency stamp it was last
// touched at. The stamp doubles as the sorted map's ordering key, so
// forward iteration runs from least to most recently touched.
type lruEntry struct {
	payload Value
	order   uint64
}

// LruCache is a SortedMap ordered by a monotonically increasing recency
// counter, with capacity-triggered batch eviction. The entry count may
// exceed the suggested size by up to 10% between evictions; a Set that
// crosses that slack evicts from the least recently touched end until the
// count is back at the suggested size.
type LruCache struct {
	entries       *SortedMap
	nextOrder     uint64
	suggestedSize uint64
	evictions     uint64
}

// NewLruCache creates an empty cache that aims to hold suggestedSize
// entries.
func NewLruCache(suggestedSize uint64) (*LruCache, error) {
	if suggestedSize == 0 {
		return nil, NewParameterError("suggestedSize is zero")
	}

	entries, err := NewSortedMapWithComparator(lruOrderingKey, compareRecency)
	if err != nil {
		return nil, err
	}

	return &LruCache{
		entries:       entries,
		suggestedSize: suggestedSize,
	}, nil
}

func lruOrderingKey(v Value) (Value, error) {
	return v.(*lruEntry).order, nil
}

func compareRecency(a Value, b Value) (int, error) {
	au, ok := a.(uint64)
	if !ok {
		return 0, NewCompareError(a, b)
	}
	bu, ok := b.(uint64)
	if !ok {
		return 0, NewCompareError(a, b)
	}
	switch {
	case au < bu:
		return -1, nil
	case au > bu:
		return 1, nil
	default:
		return 0, nil
	}
}

func (c *LruCache) stamp() uint64 {
	o := c.nextOrder
	c.nextOrder++
	return o
}

// Count returns the number of cached entries.
func (c *LruCache) Count() uint64 {
	return c.entries.Count()
}

// SuggestedSize returns the configured capacity target.
func (c *LruCache) SuggestedSize() uint64 {
	return c.suggestedSize
}

// Evictions returns the number of entries evicted so far.
func (c *LruCache) Evictions() uint64 {
	return c.evictions
}

// Has reports whether key is cached. It does not touch recency.
func (c *LruCache) Has(key Key) (bool, error) {
	return c.entries.Has(key)
}

// Set caches value for key as the most recently touched entry, then evicts
// in a batch if the count has outgrown the slack above the suggested size.
func (c *LruCache) Set(key Key, value Value) error {
	err := c.entries.Set(key, &lruEntry{payload: value, order: c.stamp()})
	if err != nil {
		return err
	}

	if c.entries.Count()*lruSlackDenominator <= c.suggestedSize*lruSlackNumerator {
		return nil
	}
	for c.entries.Count() > c.suggestedSize {
		key, _, ok, err := c.entries.First()
		if err != nil {
			return err
		}
		if !ok {
			return NewInconsistentStateError("cache is over capacity but has no first entry")
		}
		if _, err := c.entries.Remove(key); err != nil {
			return err
		}
		c.evictions++
	}
	return nil
}

// Get returns the cached value for key and marks it most recently touched.
func (c *LruCache) Get(key Key) (Value, bool, error) {
	v, found, err := c.entries.Update(key, func(v Value) (Value, error) {
		e := v.(*lruEntry)
		e.order = c.stamp()
		return e, nil
	})
	if err != nil || !found {
		return nil, false, err
	}
	return v.(*lruEntry).payload, true, nil
}

// Peek returns the cached value for key without touching recency.
func (c *LruCache) Peek(key Key) (Value, bool, error) {
	v, found, err := c.entries.Get(key)
	if err != nil || !found {
		return nil, false, err
	}
	return v.(*lruEntry).payload, true, nil
}

// Update applies fn to the cached payload, stores the result, and marks the
// entry most recently touched. Updating an absent key is a no-op.
func (c *LruCache) Update(key Key, fn UpdateFunc) (Value, bool, error) {
	v, found, err := c.entries.Update(key, func(v Value) (Value, error) {
		e := v.(*lruEntry)
		newPayload, err := fn(e.payload)
		if err != nil {
			return nil, err
		}
		e.payload = newPayload
		e.order = c.stamp()
		return e, nil
	})
	if err != nil || !found {
		return nil, false, err
	}
	return v.(*lruEntry).payload, true, nil
}

// Remove deletes key and reports whether an entry was removed. It does not
// count as an eviction.
func (c *LruCache) Remove(key Key) (bool, error) {
	return c.entries.Remove(key)
}

// Iterator returns a fresh traversal over entries from least to most
// recently touched.
func (c *LruCache) Iterator() EntryIterator {
	return &transformEntryIterator{
		base:      c.entries.Iterator(),
		transform: projectLruPayload,
	}
}

// DescendingIterator returns a fresh traversal over entries from most to
// least recently touched.
func (c *LruCache) DescendingIterator() EntryIterator {
	return &transformEntryIterator{
		base:      c.entries.DescendingIterator(),
		transform: projectLruPayload,
	}
}

func projectLruPayload(k Key, v Value) (Key, Value, error) {
	return k, v.(*lruEntry).payload, nil
}

// KeyIterator returns a fresh traversal over keys from least to most
// recently touched.
func (c *LruCache) KeyIterator() Iterator {
	return &entryKeyIterator{base: c.Iterator()}
}

// ValueIterator returns a fresh traversal over payloads from least to most
// recently touched.
func (c *LruCache) ValueIterator() Iterator {
	return &entryValueIterator{base: c.Iterator()}
}

// ReadOnlyView returns an associative view of the cache without mutators.
// Reads through the view do not touch recency.
func (c *LruCache) ReadOnlyView() ReadOnlyMap {
	return &lruCacheView{c: c}
}

// KeySetView returns a read-only set view of the cached keys in recency
// order.
func (c *LruCache) KeySetView() ReadOnlySet {
	return &lruCacheKeySetView{c: c}
}
