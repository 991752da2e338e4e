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

// VerifyHashTrieMap checks the trie's structural invariants: single-value
// payloads only above the maximum depth, multi-value payloads only at the
// maximum depth and never empty, every entry reachable at the slot its hash
// selects, and the stored count. It is meant for tests and debugging.
func VerifyHashTrieMap(m *HashTrieMap) error {
	counted := uint64(0)

	var walk func(n *trieNode, depth int) error
	walk = func(n *trieNode, depth int) error {
		if depth > trieMaxDepth {
			return NewInconsistentStateError("trie node at depth %d exceeds the maximum depth %d", depth, trieMaxDepth)
		}
		for i, payload := range n.slots {
			switch p := payload.(type) {
			case nil:
				continue

			case *trieNode:
				if err := walk(p, depth+1); err != nil {
					return err
				}

			case *singleValueNode:
				if depth >= trieMaxDepth {
					return NewInconsistentStateError("single-value payload at maximum depth %d", depth)
				}
				kd, err := m.hashKey(p.key)
				if err != nil {
					return err
				}
				if trieSlotIndex(kd.hash, depth) != i {
					return NewInconsistentStateError(
						"key %v sits in slot %d at depth %d but hashes to slot %d",
						p.key, i, depth, trieSlotIndex(kd.hash, depth),
					)
				}
				counted++

			case *multiValueNode:
				if depth != trieMaxDepth {
					return NewInconsistentStateError("multi-value payload at depth %d, want %d", depth, trieMaxDepth)
				}
				if len(p.entries) == 0 {
					return NewInconsistentStateError("empty multi-value payload at depth %d", depth)
				}
				for _, e := range p.entries {
					kd, err := m.hashKey(e.key)
					if err != nil {
						return err
					}
					if trieSlotIndex(kd.hash, depth) != i {
						return NewInconsistentStateError(
							"key %v sits in collision slot %d at depth %d but hashes to slot %d",
							e.key, i, depth, trieSlotIndex(kd.hash, depth),
						)
					}
					counted++
				}

			default:
				return NewInconsistentStateError("trie payload has unexpected type %T", p)
			}
		}
		return nil
	}

	if err := walk(m.root, 1); err != nil {
		return err
	}
	if counted != m.count {
		return NewInconsistentStateError("count is %d but trie holds %d entries", m.count, counted)
	}
	return nil
}
