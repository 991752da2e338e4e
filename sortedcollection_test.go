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

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// testItem is a collection element whose ordering key can drift from its
// identity, the way SortedMap tuples do.
type testItem struct {
	id    int
	order int64
}

func testItemOrder(a Value, b Value) (int, error) {
	ao := a.(*testItem).order
	bo := b.(*testItem).order
	switch {
	case ao < bo:
		return -1, nil
	case ao > bo:
		return 1, nil
	default:
		return 0, nil
	}
}

func newInt64Collection(t *testing.T, maxItemsPerLevel uint32) *SortedCollection {
	c, err := NewSortedCollectionWithOptions(DefaultOrderComparator, nil, maxItemsPerLevel)
	require.NoError(t, err)
	return c
}

func requireAscending(t *testing.T, c *SortedCollection, want []int64) {
	got := drainIterator(t, c.Iterator())
	require.Len(t, got, len(want))
	for i, v := range got {
		require.Equal(t, want[i], v)
	}

	reversed := drainIterator(t, c.DescendingIterator())
	require.Len(t, reversed, len(want))
	for i, v := range reversed {
		require.Equal(t, want[len(want)-1-i], v)
	}
}

func TestSortedCollectionConstruction(t *testing.T) {
	var paramErr *ParameterError

	_, err := NewSortedCollectionWithOptions(DefaultOrderComparator, nil, 63)
	require.ErrorAs(t, err, &paramErr)

	_, err = NewSortedCollectionWithOptions(DefaultOrderComparator, nil, 2)
	require.ErrorAs(t, err, &paramErr)

	_, err = NewSortedCollection(nil)
	require.ErrorAs(t, err, &paramErr)

	c, err := NewSortedCollectionWithOptions(DefaultOrderComparator, nil, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(0), c.Count())

	_, ok := c.First()
	require.False(t, ok)
	_, ok = c.Last()
	require.False(t, ok)
}

func TestSortedCollectionInsert(t *testing.T) {

	for _, maxItemsPerLevel := range []uint32{4, 6, DefaultMaxItemsPerLevel} {

		t.Run("ascending", func(t *testing.T) {
			c := newInt64Collection(t, maxItemsPerLevel)

			var want []int64
			for i := int64(0); i < 1000; i++ {
				require.NoError(t, c.Insert(i))
				want = append(want, i)
			}

			require.NoError(t, VerifySortedCollection(c))
			require.Equal(t, uint64(1000), c.Count())
			requireAscending(t, c, want)
		})

		t.Run("descending", func(t *testing.T) {
			c := newInt64Collection(t, maxItemsPerLevel)

			var want []int64
			for i := int64(999); i >= 0; i-- {
				require.NoError(t, c.Insert(i))
			}
			for i := int64(0); i < 1000; i++ {
				want = append(want, i)
			}

			require.NoError(t, VerifySortedCollection(c))
			require.Equal(t, uint64(1000), c.Count())
			requireAscending(t, c, want)
		})

		t.Run("random", func(t *testing.T) {
			r := newRand(t)
			c := newInt64Collection(t, maxItemsPerLevel)

			var want []int64
			for i := 0; i < 1000; i++ {
				v := r.Int63n(10000)
				require.NoError(t, c.Insert(v))
				want = append(want, v)
			}
			sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

			require.NoError(t, VerifySortedCollection(c))
			require.Equal(t, uint64(1000), c.Count())
			requireAscending(t, c, want)
		})
	}
}

func TestSortedCollectionFirstLast(t *testing.T) {
	c := newInt64Collection(t, 4)

	for _, v := range []int64{5, 1, 9, 3, 7} {
		require.NoError(t, c.Insert(v))
	}

	first, ok := c.First()
	require.True(t, ok)
	require.Equal(t, int64(1), first)

	last, ok := c.Last()
	require.True(t, ok)
	require.Equal(t, int64(9), last)
}

func TestSortedCollectionRemove(t *testing.T) {

	t.Run("absent is a no-op", func(t *testing.T) {
		c := newInt64Collection(t, 4)
		require.NoError(t, c.Insert(int64(1)))

		removed, err := c.Remove(int64(2))
		require.NoError(t, err)
		require.False(t, removed)
		require.Equal(t, uint64(1), c.Count())
	})

	t.Run("drain ascending", func(t *testing.T) {
		c := newInt64Collection(t, 4)

		for i := int64(0); i < 500; i++ {
			require.NoError(t, c.Insert(i))
		}
		for i := int64(0); i < 500; i++ {
			removed, err := c.Remove(i)
			require.NoError(t, err)
			require.True(t, removed)
			require.NoError(t, VerifySortedCollection(c))
		}
		require.Equal(t, uint64(0), c.Count())
	})

	t.Run("random against oracle", func(t *testing.T) {
		r := newRand(t)
		c := newInt64Collection(t, 4)

		oracle := map[int64]int{} // multiset
		var live []int64

		for i := 0; i < 3000; i++ {
			if r.Intn(3) != 2 || len(live) == 0 {
				v := r.Int63n(500)
				require.NoError(t, c.Insert(v))
				oracle[v]++
				live = append(live, v)
			} else {
				idx := r.Intn(len(live))
				v := live[idx]
				removed, err := c.Remove(v)
				require.NoError(t, err)
				require.True(t, removed)
				oracle[v]--
				if oracle[v] == 0 {
					delete(oracle, v)
				}
				live[idx] = live[len(live)-1]
				live = live[:len(live)-1]
			}

			if i%200 == 0 {
				require.NoError(t, VerifySortedCollection(c))
			}
		}

		require.NoError(t, VerifySortedCollection(c))

		var want []int64
		for v, n := range oracle {
			for j := 0; j < n; j++ {
				want = append(want, v)
			}
		}
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

		require.Equal(t, uint64(len(want)), c.Count())
		requireAscending(t, c, want)
	})
}

func TestSortedCollectionDuplicates(t *testing.T) {

	t.Run("equal values occupy distinct positions", func(t *testing.T) {
		c := newInt64Collection(t, 4)

		for i := 0; i < 20; i++ {
			require.NoError(t, c.Insert(int64(7)))
		}
		require.Equal(t, uint64(20), c.Count())
		require.NoError(t, VerifySortedCollection(c))

		removed, err := c.Remove(int64(7))
		require.NoError(t, err)
		require.True(t, removed)
		require.Equal(t, uint64(19), c.Count())
		require.NoError(t, VerifySortedCollection(c))
	})

	t.Run("distinguished by equality comparer", func(t *testing.T) {
		c, err := NewSortedCollectionWithOptions(testItemOrder, nil, 4)
		require.NoError(t, err)

		const n = 200
		items := make([]*testItem, n)
		for i := 0; i < n; i++ {
			// Many items share each ordering key.
			items[i] = &testItem{id: i, order: int64(i / 10)}
			require.NoError(t, c.Insert(items[i]))
		}
		require.NoError(t, VerifySortedCollection(c))

		// Every item is found by identity even among order-equal neighbors.
		for _, item := range items {
			path, found, err := c.LookupValuePath(item)
			require.NoError(t, err)
			require.True(t, found)
			last := path[len(path)-1]
			require.Same(t, item, last.node.values[last.index])
		}

		// Removing one item leaves its order-equal neighbors in place.
		removed, err := c.Remove(items[42])
		require.NoError(t, err)
		require.True(t, removed)
		require.Equal(t, uint64(n-1), c.Count())

		_, found, err := c.LookupValuePath(items[42])
		require.NoError(t, err)
		require.False(t, found)

		for _, item := range []*testItem{items[40], items[41], items[43]} {
			_, found, err := c.LookupValuePath(item)
			require.NoError(t, err)
			require.True(t, found)
		}
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		c, err := NewSortedCollectionWithOptions(testItemOrder, nil, 4)
		require.NoError(t, err)

		const n = 50
		for i := 0; i < n; i++ {
			require.NoError(t, c.Insert(&testItem{id: i, order: 1}))
		}

		got := drainIterator(t, c.Iterator())
		require.Len(t, got, n)
		for i, v := range got {
			require.Equal(t, i, v.(*testItem).id)
		}
	})
}

func TestSortedCollectionEnsureSortedOrder(t *testing.T) {

	t.Run("unchanged ordering does nothing", func(t *testing.T) {
		c, err := NewSortedCollectionWithOptions(testItemOrder, nil, 4)
		require.NoError(t, err)

		items := make([]*testItem, 100)
		for i := range items {
			items[i] = &testItem{id: i, order: int64(i)}
			require.NoError(t, c.Insert(items[i]))
		}

		before := drainIterator(t, c.Iterator())

		path, found, err := c.LookupValuePath(items[50])
		require.NoError(t, err)
		require.True(t, found)
		require.NoError(t, c.EnsureSortedOrderOfNode(path))

		after := drainIterator(t, c.Iterator())
		require.Equal(t, before, after)
		require.Equal(t, uint64(100), c.Count())
	})

	t.Run("mutated ordering repositions", func(t *testing.T) {
		c, err := NewSortedCollectionWithOptions(testItemOrder, nil, 4)
		require.NoError(t, err)

		items := make([]*testItem, 100)
		for i := range items {
			items[i] = &testItem{id: i, order: int64(i)}
			require.NoError(t, c.Insert(items[i]))
		}

		path, found, err := c.LookupValuePath(items[10])
		require.NoError(t, err)
		require.True(t, found)

		items[10].order = 1000
		require.NoError(t, c.EnsureSortedOrderOfNode(path))
		require.NoError(t, VerifySortedCollection(c))
		require.Equal(t, uint64(100), c.Count())

		got := drainIterator(t, c.Iterator())
		require.Same(t, items[10], got[len(got)-1])
	})
}

func TestSortedCollectionUpdate(t *testing.T) {

	t.Run("replacement value", func(t *testing.T) {
		c, err := NewSortedCollectionWithOptions(testItemOrder, nil, 4)
		require.NoError(t, err)

		items := make([]*testItem, 50)
		for i := range items {
			items[i] = &testItem{id: i, order: int64(i)}
			require.NoError(t, c.Insert(items[i]))
		}

		replacement := &testItem{id: 20, order: -5}
		v, found, err := c.Update(items[20], func(old Value) (Value, error) {
			require.Same(t, items[20], old)
			return replacement, nil
		})
		require.NoError(t, err)
		require.True(t, found)
		require.Same(t, replacement, v)
		require.NoError(t, VerifySortedCollection(c))

		got := drainIterator(t, c.Iterator())
		require.Same(t, replacement, got[0])
	})

	t.Run("in-place mutation", func(t *testing.T) {
		c, err := NewSortedCollectionWithOptions(testItemOrder, nil, 4)
		require.NoError(t, err)

		items := make([]*testItem, 50)
		for i := range items {
			items[i] = &testItem{id: i, order: int64(i)}
			require.NoError(t, c.Insert(items[i]))
		}

		v, found, err := c.Update(items[30], func(old Value) (Value, error) {
			old.(*testItem).order = 100
			return old, nil
		})
		require.NoError(t, err)
		require.True(t, found)
		require.Same(t, items[30], v)
		require.NoError(t, VerifySortedCollection(c))

		got := drainIterator(t, c.Iterator())
		require.Same(t, items[30], got[len(got)-1])
	})

	t.Run("absent value", func(t *testing.T) {
		c, err := NewSortedCollectionWithOptions(testItemOrder, nil, 4)
		require.NoError(t, err)

		_, found, err := c.Update(&testItem{id: 1, order: 1}, func(old Value) (Value, error) {
			t.Fatal("callback invoked for absent value")
			return nil, nil
		})
		require.NoError(t, err)
		require.False(t, found)
	})
}

func TestSortedCollectionRestartableIteration(t *testing.T) {
	r := newRand(t)
	c := newInt64Collection(t, 6)

	for i := 0; i < 500; i++ {
		require.NoError(t, c.Insert(r.Int63n(100)))
	}

	first := drainIterator(t, c.Iterator())
	second := drainIterator(t, c.Iterator())
	require.Equal(t, first, second)
}
