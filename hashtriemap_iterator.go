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

type trieIteratorFrame struct {
	node  *trieNode
	index int
}

// HashTrieMapIterator walks slots in index order, descending into child
// nodes as they are encountered. The order is unspecified but identical
// across repeated traversals of an unchanged map.
type HashTrieMapIterator struct {
	stack      []trieIteratorFrame
	multi      *multiValueNode
	multiIndex int
}

var _ EntryIterator = &HashTrieMapIterator{}

// Iterator returns a fresh traversal over all entries.
func (m *HashTrieMap) Iterator() *HashTrieMapIterator {
	return &HashTrieMapIterator{
		stack: []trieIteratorFrame{{node: m.root}},
	}
}

// Next returns the next (key, value) pair. ok is false once all entries
// have been produced.
func (it *HashTrieMapIterator) Next() (Key, Value, bool, error) {
	if it.multi != nil {
		if it.multiIndex < len(it.multi.entries) {
			e := it.multi.entries[it.multiIndex]
			it.multiIndex++
			return e.key, e.value, true, nil
		}
		it.multi = nil
		it.multiIndex = 0
	}

	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if top.index >= trieSlotCount {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}

		payload := top.node.slots[top.index]
		top.index++

		switch p := payload.(type) {
		case nil:
			continue

		case *trieNode:
			it.stack = append(it.stack, trieIteratorFrame{node: p})

		case *singleValueNode:
			return p.key, p.value, true, nil

		case *multiValueNode:
			if len(p.entries) == 0 {
				continue
			}
			it.multi = p
			it.multiIndex = 1
			e := p.entries[0]
			return e.key, e.value, true, nil

		default:
			return nil, nil, false, NewInconsistentStateError("trie payload has unexpected type %T", p)
		}
	}

	return nil, nil, false, nil
}
