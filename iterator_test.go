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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type sliceIterator struct {
	values []Value
	index  int
}

func (it *sliceIterator) Next() (Value, bool, error) {
	if it.index >= len(it.values) {
		return nil, false, nil
	}
	v := it.values[it.index]
	it.index++
	return v, true, nil
}

func TestTransformIterator(t *testing.T) {
	base := &sliceIterator{values: []Value{1, 2, 3}}

	doubled := TransformIterator(base, func(v Value) (Value, error) {
		return v.(int) * 2, nil
	})

	require.Equal(t, []Value{2, 4, 6}, drainIterator(t, doubled))

	// Exhausted stays exhausted.
	_, ok, err := doubled.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTransformIteratorError(t *testing.T) {
	base := &sliceIterator{values: []Value{1, 2, 3}}
	wantErr := errors.New("bad element")

	it := TransformIterator(base, func(v Value) (Value, error) {
		if v.(int) == 2 {
			return nil, wantErr
		}
		return v, nil
	})

	_, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = it.Next()
	require.ErrorIs(t, err, wantErr)
}

func TestTransformIterable(t *testing.T) {
	values := []Value{10, 20, 30}
	base := IterableFunc(func() Iterator {
		return &sliceIterator{values: values}
	})

	halved := TransformIterable(base, func(v Value) (Value, error) {
		return v.(int) / 2, nil
	})

	// Every traversal request starts from a fresh position.
	first := drainIterator(t, halved.Iterator())
	second := drainIterator(t, halved.Iterator())
	require.Equal(t, []Value{5, 10, 15}, first)
	require.Equal(t, first, second)
}

func TestEntryProjectionIterators(t *testing.T) {
	m := newRecordMap(t)
	seedRecords(t, m, forwardIndices(5))

	keys := drainIterator(t, m.KeyIterator())
	require.Equal(t, []Value{"data 1", "data 2", "data 3", "data 4", "data 5"}, keys)

	values := drainIterator(t, m.ValueIterator())
	require.Len(t, values, 5)
	for i, v := range values {
		require.Equal(t, dataRange(1, 5)[i], v.(*testRecord).data)
	}

	descKeys := drainIterator(t, m.DescendingKeyIterator())
	require.Equal(t, []Value{"data 5", "data 4", "data 3", "data 2", "data 1"}, descKeys)

	descValues := drainIterator(t, m.DescendingValueIterator())
	require.Equal(t, "5", descValues[0].(*testRecord).data)
}
