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

// Iterator is a single-pass traversal. Between calls to Next the traversal
// state sits dormant; there is no suspension and no goroutine behind it.
// Iterators assume the underlying container is not mutated while they live.
type Iterator interface {
	// Next returns the next value. ok is false once the sequence is exhausted.
	Next() (value Value, ok bool, err error)
}

// EntryIterator is a single-pass traversal over (key, value) pairs.
type EntryIterator interface {
	Next() (key Key, value Value, ok bool, err error)
}

// Iterable produces a fresh traversal on each request, so the same sequence
// can be walked any number of times.
type Iterable interface {
	Iterator() Iterator
}

// IterableFunc adapts a function returning fresh iterators to Iterable.
type IterableFunc func() Iterator

var _ Iterable = IterableFunc(nil)

func (f IterableFunc) Iterator() Iterator {
	return f()
}

type transformIterator struct {
	base      Iterator
	transform func(Value) (Value, error)
}

var _ Iterator = &transformIterator{}

// TransformIterator lazily applies transform to each element of base.
func TransformIterator(base Iterator, transform func(Value) (Value, error)) Iterator {
	return &transformIterator{base: base, transform: transform}
}

func (it *transformIterator) Next() (Value, bool, error) {
	v, ok, err := it.base.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	mapped, err := it.transform(v)
	if err != nil {
		return nil, false, err
	}
	return mapped, true, nil
}

// TransformIterable wraps base so every fresh traversal is transformed.
func TransformIterable(base Iterable, transform func(Value) (Value, error)) Iterable {
	return IterableFunc(func() Iterator {
		return TransformIterator(base.Iterator(), transform)
	})
}

type entryKeyIterator struct {
	base EntryIterator
}

var _ Iterator = &entryKeyIterator{}

func (it *entryKeyIterator) Next() (Value, bool, error) {
	k, _, ok, err := it.base.Next()
	return k, ok, err
}

type entryValueIterator struct {
	base EntryIterator
}

var _ Iterator = &entryValueIterator{}

func (it *entryValueIterator) Next() (Value, bool, error) {
	_, v, ok, err := it.base.Next()
	return v, ok, err
}

type transformEntryIterator struct {
	base      EntryIterator
	transform func(Key, Value) (Key, Value, error)
}

var _ EntryIterator = &transformEntryIterator{}

func (it *transformEntryIterator) Next() (Key, Value, bool, error) {
	k, v, ok, err := it.base.Next()
	if err != nil || !ok {
		return nil, nil, false, err
	}
	mk, mv, err := it.transform(k, v)
	if err != nil {
		return nil, nil, false, err
	}
	return mk, mv, true, nil
}
