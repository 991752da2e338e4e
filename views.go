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

// ReadOnlyMap is the standard associative view over a container, without
// mutators. Traversals run in the container's iteration order.
type ReadOnlyMap interface {
	Get(key Key) (Value, bool, error)
	Has(key Key) (bool, error)
	Count() uint64
	Iterator() EntryIterator
	Entries() EntryIterator
	Keys() Iterator
	Values() Iterator

	// ForEach invokes fn for every entry as (value, key, view).
	ForEach(fn func(value Value, key Key, view ReadOnlyMap) error) error
}

// ReadOnlySet is the standard set view over a container's keys, without
// mutators.
type ReadOnlySet interface {
	Has(key Key) (bool, error)
	Count() uint64
	Iterator() Iterator

	// ForEach invokes fn for every key as (key, key, view).
	ForEach(fn func(key Key, again Key, view ReadOnlySet) error) error
}

func forEachEntry(view ReadOnlyMap, fn func(value Value, key Key, view ReadOnlyMap) error) error {
	it := view.Iterator()
	for {
		k, v, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(v, k, view); err != nil {
			return err
		}
	}
}

func forEachKey(view ReadOnlySet, fn func(key Key, again Key, view ReadOnlySet) error) error {
	it := view.Iterator()
	for {
		k, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(k, k, view); err != nil {
			return err
		}
	}
}

// SortedMap views

type sortedMapView struct {
	m *SortedMap
}

var _ ReadOnlyMap = &sortedMapView{}

func (v *sortedMapView) Get(key Key) (Value, bool, error) { return v.m.Get(key) }
func (v *sortedMapView) Has(key Key) (bool, error) { return v.m.Has(key) }
func (v *sortedMapView) Count() uint64 { return v.m.Count() }
func (v *sortedMapView) Iterator() EntryIterator { return v.m.Iterator() }
func (v *sortedMapView) Entries() EntryIterator { return v.m.Iterator() }
func (v *sortedMapView) Keys() Iterator { return v.m.KeyIterator() }
func (v *sortedMapView) Values() Iterator { return v.m.ValueIterator() }

func (v *sortedMapView) ForEach(fn func(value Value, key Key, view ReadOnlyMap) error) error {
	return forEachEntry(v, fn)
}

type sortedMapKeySetView struct {
	m *SortedMap
}

var _ ReadOnlySet = &sortedMapKeySetView{}

func (v *sortedMapKeySetView) Has(key Key) (bool, error) { return v.m.Has(key) }
func (v *sortedMapKeySetView) Count() uint64 { return v.m.Count() }
func (v *sortedMapKeySetView) Iterator() Iterator { return v.m.KeyIterator() }

func (v *sortedMapKeySetView) ForEach(fn func(key Key, again Key, view ReadOnlySet) error) error {
	return forEachKey(v, fn)
}

// LruCache views

type lruCacheView struct {
	c *LruCache
}

var _ ReadOnlyMap = &lruCacheView{}

func (v *lruCacheView) Get(key Key) (Value, bool, error) { return v.c.Peek(key) }
func (v *lruCacheView) Has(key Key) (bool, error) { return v.c.Has(key) }
func (v *lruCacheView) Count() uint64 { return v.c.Count() }
func (v *lruCacheView) Iterator() EntryIterator { return v.c.Iterator() }
func (v *lruCacheView) Entries() EntryIterator { return v.c.Iterator() }
func (v *lruCacheView) Keys() Iterator { return v.c.KeyIterator() }
func (v *lruCacheView) Values() Iterator { return v.c.ValueIterator() }

func (v *lruCacheView) ForEach(fn func(value Value, key Key, view ReadOnlyMap) error) error {
	return forEachEntry(v, fn)
}

type lruCacheKeySetView struct {
	c *LruCache
}

var _ ReadOnlySet = &lruCacheKeySetView{}

func (v *lruCacheKeySetView) Has(key Key) (bool, error) { return v.c.Has(key) }
func (v *lruCacheKeySetView) Count() uint64 { return v.c.Count() }
func (v *lruCacheKeySetView) Iterator() Iterator { return v.c.KeyIterator() }

func (v *lruCacheKeySetView) ForEach(fn func(key Key, again Key, view ReadOnlySet) error) error {
	return forEachKey(v, fn)
}
