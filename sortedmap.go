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

// GetOrderingKey derives the ordering key a value is sorted by.
type GetOrderingKey func(value Value) (Value, error)

// mapTuple pairs a key with the ordering key its value had at the last
// successful set or update. Tuples are what the sorted collection stores;
// they order by the order field and are equal iff their keys are equal.
type mapTuple struct {
	key   Key
	order Value
}

// SortedMap combines a HashTrieMap for constant-time lookups with a
// SortedCollection of key/ordering-key tuples for ordered iteration.
// Keys are unique; the ordering key is derived from the value by a
// caller-supplied callback and may be shared by many keys.
type SortedMap struct {
	entries        *HashTrieMap
	order          *SortedCollection
	getOrderingKey GetOrderingKey
	orderComparer  OrderComparator
}

// NewSortedMap creates an empty map ordered by the natural order of the
// derived ordering keys.
func NewSortedMap(getOrderingKey GetOrderingKey) (*SortedMap, error) {
	return NewSortedMapWithComparator(getOrderingKey, DefaultOrderComparator)
}

// NewSortedMapWithComparator creates an empty map whose derived ordering
// keys are compared by orderComparer.
func NewSortedMapWithComparator(getOrderingKey GetOrderingKey, orderComparer OrderComparator) (*SortedMap, error) {
	if getOrderingKey == nil {
		return nil, NewParameterError("getOrderingKey is nil")
	}
	if orderComparer == nil {
		return nil, NewParameterError("orderComparer is nil")
	}

	tupleOrder := func(a Value, b Value) (int, error) {
		return orderComparer(a.(*mapTuple).order, b.(*mapTuple).order)
	}
	tupleEquality := func(a Value, b Value) (bool, error) {
		return keysEqual(a.(*mapTuple).key, b.(*mapTuple).key)
	}

	order, err := NewSortedCollectionWithOptions(tupleOrder, tupleEquality, DefaultMaxItemsPerLevel)
	if err != nil {
		return nil, err
	}

	return &SortedMap{
		entries:        NewHashTrieMap(),
		order:          order,
		getOrderingKey: getOrderingKey,
		orderComparer:  orderComparer,
	}, nil
}

// Count returns the number of entries. It is read from the sorted
// collection, which stays correct when the backing trie is shared.
func (m *SortedMap) Count() uint64 {
	return m.order.Count()
}

// Has reports whether key is present.
func (m *SortedMap) Has(key Key) (bool, error) {
	return m.entries.Has(key)
}

// Get returns the value stored for key, and whether the key is present.
func (m *SortedMap) Get(key Key) (Value, bool, error) {
	return m.entries.Get(key)
}

// Set stores value for key. A new key is inserted at the position its
// derived ordering key dictates; an existing key is updated in place,
// moving only if its ordering key changed.
func (m *SortedMap) Set(key Key, value Value) error {
	has, err := m.entries.Has(key)
	if err != nil {
		return err
	}
	if has {
		_, _, err = m.Update(key, func(Value) (Value, error) {
			return value, nil
		})
		return err
	}

	ord, err := m.getOrderingKey(value)
	if err != nil {
		return err
	}
	if err := m.order.Insert(&mapTuple{key: key, order: ord}); err != nil {
		return err
	}
	return m.entries.Set(key, value)
}

// Remove deletes key and reports whether an entry was removed.
func (m *SortedMap) Remove(key Key) (bool, error) {
	value, found, err := m.entries.Get(key)
	if err != nil || !found {
		return false, err
	}

	ord, err := m.getOrderingKey(value)
	if err != nil {
		return false, err
	}
	// The duplicate-aware collection lookup matches on the key field, so
	// the tuple is found even if the value's ordering key drifted since
	// the last update.
	if _, err := m.order.Remove(&mapTuple{key: key, order: ord}); err != nil {
		return false, err
	}
	if _, err := m.entries.Remove(key); err != nil {
		return false, err
	}
	return true, nil
}

// Update applies fn to the value stored for key, stores the result, and
// re-positions the entry if its derived ordering key changed. Updating an
// absent key is a no-op. fn may mutate the value through a pointer and
// return it unchanged, or return a replacement.
func (m *SortedMap) Update(key Key, fn UpdateFunc) (Value, bool, error) {
	existing, found, err := m.entries.Get(key)
	if err != nil || !found {
		return nil, false, err
	}

	ord, err := m.getOrderingKey(existing)
	if err != nil {
		return nil, false, err
	}
	path, found, err := m.order.LookupValuePath(&mapTuple{key: key, order: ord})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, NewInconsistentStateError("key %v is mapped but missing from the sorted collection", key)
	}

	newValue, err := fn(existing)
	if err != nil {
		return nil, false, err
	}
	if err := m.entries.Set(key, newValue); err != nil {
		return nil, false, err
	}

	newOrd, err := m.getOrderingKey(newValue)
	if err != nil {
		return nil, false, err
	}
	cmp, err := m.orderComparer(newOrd, ord)
	if err != nil {
		return nil, false, err
	}
	if cmp != 0 {
		last := path[len(path)-1]
		tuple := last.node.values[last.index].(*mapTuple)
		tuple.order = newOrd
		if err := m.order.EnsureSortedOrderOfNode(path); err != nil {
			return nil, false, err
		}
	}

	return newValue, true, nil
}

// First returns the entry with the smallest ordering key.
func (m *SortedMap) First() (Key, Value, bool, error) {
	tuple, ok := m.order.First()
	if !ok {
		return nil, nil, false, nil
	}
	return m.entryForTuple(tuple.(*mapTuple))
}

// Last returns the entry with the largest ordering key.
func (m *SortedMap) Last() (Key, Value, bool, error) {
	tuple, ok := m.order.Last()
	if !ok {
		return nil, nil, false, nil
	}
	return m.entryForTuple(tuple.(*mapTuple))
}

func (m *SortedMap) entryForTuple(tuple *mapTuple) (Key, Value, bool, error) {
	value, found, err := m.entries.Get(tuple.key)
	if err != nil {
		return nil, nil, false, err
	}
	if !found {
		return nil, nil, false, NewInconsistentStateError("key %v is ordered but missing from the map", tuple.key)
	}
	return tuple.key, value, true, nil
}

// sortedMapEntryIterator resolves each tuple produced by the collection
// iterator against the backing trie.
type sortedMapEntryIterator struct {
	m    *SortedMap
	base *SortedCollectionIterator
}

var _ EntryIterator = &sortedMapEntryIterator{}

func (it *sortedMapEntryIterator) Next() (Key, Value, bool, error) {
	v, ok, err := it.base.Next()
	if err != nil || !ok {
		return nil, nil, false, err
	}
	k, value, found, err := it.m.entryForTuple(v.(*mapTuple))
	if err != nil {
		return nil, nil, false, err
	}
	return k, value, found, nil
}

// Iterator returns a fresh traversal over entries in ascending ordering-key
// order.
func (m *SortedMap) Iterator() EntryIterator {
	return &sortedMapEntryIterator{m: m, base: m.order.Iterator()}
}

// DescendingIterator returns a fresh traversal over entries in descending
// ordering-key order.
func (m *SortedMap) DescendingIterator() EntryIterator {
	return &sortedMapEntryIterator{m: m, base: m.order.DescendingIterator()}
}

// KeyIterator returns a fresh traversal over keys in ascending ordering-key
// order.
func (m *SortedMap) KeyIterator() Iterator {
	return &entryKeyIterator{base: m.Iterator()}
}

// ValueIterator returns a fresh traversal over values in ascending
// ordering-key order.
func (m *SortedMap) ValueIterator() Iterator {
	return &entryValueIterator{base: m.Iterator()}
}

// DescendingKeyIterator returns a fresh traversal over keys in descending
// ordering-key order.
func (m *SortedMap) DescendingKeyIterator() Iterator {
	return &entryKeyIterator{base: m.DescendingIterator()}
}

// DescendingValueIterator returns a fresh traversal over values in
// descending ordering-key order.
func (m *SortedMap) DescendingValueIterator() Iterator {
	return &entryValueIterator{base: m.DescendingIterator()}
}

// ReadOnlyView returns an associative view of the map without mutators.
func (m *SortedMap) ReadOnlyView() ReadOnlyMap {
	return &sortedMapView{m: m}
}

// KeySetView returns a read-only set view of the map's keys in ordering-key
// order.
func (m *SortedMap) KeySetView() ReadOnlySet {
	return &sortedMapKeySetView{m: m}
}
