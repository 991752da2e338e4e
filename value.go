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

// Package otree provides scalable in-memory containers for structural-sharing
// workloads: a hash-trie map, a B-tree sorted collection, a sorted map layered
// on both, and an LRU cache layered on the sorted map. Every mutation touches
// a bounded number of small nodes, and every node is a plain value owned by
// its parent, so an outer immutable-update framework can snapshot container
// state by shallow-copying only the touched nodes.
package otree

import (
	"bytes"
	"reflect"
	"strings"
)

// Value is an element stored in a container. Containers never inspect values
// except through caller-supplied callbacks.
type Value interface{}

// Key is a hash-trie key: an integer, a string, a byte slice, or a Hashable.
type Key interface{}

// OrderComparator reports the order of a relative to b: negative, zero,
// or positive. It must induce a total order over the values it is given.
type OrderComparator func(a Value, b Value) (int, error)

// EqualityComparator reports whether two values are the same element,
// independently of how they are ordered.
type EqualityComparator func(a Value, b Value) (bool, error)

// UpdateFunc maps the stored value to its replacement. Returning the argument
// unchanged (after mutating it in place through a pointer) and returning a
// fresh value are both accepted; the container stores whatever is returned.
type UpdateFunc func(Value) (Value, error)

// DefaultOrderComparator orders numeric values numerically (integer kinds and
// floats compare against each other) and strings lexicographically. Any other
// pairing returns a CompareError.
func DefaultOrderComparator(a Value, b Value) (int, error) {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), nil
		}
		return 0, NewCompareError(a, b)
	}

	if c, ok := compareNumeric(a, b); ok {
		return c, nil
	}
	return 0, NewCompareError(a, b)
}

// DefaultEqualityComparator treats values as equal iff they are the same
// element under Go interface equality. Byte slices are not comparable this
// way and always report false.
func DefaultEqualityComparator(a Value, b Value) (bool, error) {
	if !comparableValue(a) || !comparableValue(b) {
		return false, nil
	}
	return a == b, nil
}

func comparableValue(v Value) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

func intValue(v Value) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= 1<<63-1
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= 1<<63-1
	}
	return 0, false
}

func floatValue(v Value) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := intValue(v); ok {
		return float64(i), true
	}
	if u, ok := v.(uint64); ok {
		return float64(u), true
	}
	if u, ok := v.(uint); ok {
		return float64(u), true
	}
	return 0, false
}

// compareNumeric compares two numeric values, exactly when both fit in int64
// and through float64 widening otherwise.
func compareNumeric(a Value, b Value) (int, bool) {
	ai, aIsInt := intValue(a)
	bi, bIsInt := intValue(b)
	if aIsInt && bIsInt {
		switch {
		case ai < bi:
			return -1, true
		case ai > bi:
			return 1, true
		default:
			return 0, true
		}
	}

	af, aok := floatValue(a)
	bf, bok := floatValue(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

// keysEqual reports whether two trie keys identify the same entry.
// Numeric keys compare by value across integer kinds, strings by content,
// byte slices and Hashables by their hash input bytes.
func keysEqual(a Key, b Key) (bool, error) {
	switch ak := a.(type) {
	case string:
		bk, ok := b.(string)
		return ok && ak == bk, nil

	case []byte:
		return hashInputsEqual(byteSliceHashable(ak), b)

	case Hashable:
		return hashInputsEqual(ak, b)
	}

	if _, ok := floatValue(a); ok {
		if _, ok := floatValue(b); !ok {
			return false, nil
		}
		c, ok := compareNumeric(a, b)
		return ok && c == 0, nil
	}

	return false, NewKeyTypeError(a)
}

func hashInputsEqual(a Hashable, b Key) (bool, error) {
	var bh Hashable
	switch bk := b.(type) {
	case []byte:
		bh = byteSliceHashable(bk)
	case Hashable:
		bh = bk
	default:
		return false, nil
	}

	ai, err := a.GetHashInput()
	if err != nil {
		return false, NewHashError(err)
	}
	bi, err := bh.GetHashInput()
	if err != nil {
		return false, NewHashError(err)
	}
	return bytes.Equal(ai, bi), nil
}
