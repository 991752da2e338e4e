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

// VerifySortedMap checks both halves of the map and their agreement: the
// backing trie and ordering collection hold the same keys and the same
// count, and each tuple's stored ordering key matches the one derived from
// the mapped value. It is meant for tests and debugging.
func VerifySortedMap(m *SortedMap) error {
	if err := VerifyHashTrieMap(m.entries); err != nil {
		return err
	}
	if err := VerifySortedCollection(m.order); err != nil {
		return err
	}

	if m.entries.Count() != m.order.Count() {
		return NewInconsistentStateError(
			"map holds %d entries but orders %d keys",
			m.entries.Count(), m.order.Count(),
		)
	}

	it := m.order.Iterator()
	for {
		v, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		tuple := v.(*mapTuple)

		value, found, err := m.entries.Get(tuple.key)
		if err != nil {
			return err
		}
		if !found {
			return NewInconsistentStateError("key %v is ordered but missing from the map", tuple.key)
		}

		ord, err := m.getOrderingKey(value)
		if err != nil {
			return err
		}
		cmp, err := m.orderComparer(ord, tuple.order)
		if err != nil {
			return err
		}
		if cmp != 0 {
			return NewInconsistentStateError(
				"key %v derives ordering key %v but is ordered by %v",
				tuple.key, ord, tuple.order,
			)
		}
	}
}
