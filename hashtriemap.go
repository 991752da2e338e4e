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

const (
	bitsPerTrieLevel = 4
	trieSlotCount    = 1 << bitsPerTrieLevel // 16
	trieSlotMask     = trieSlotCount - 1

	// trieMaxDepth is the deepest level a payload can sit at. Each level
	// consumes bitsPerTrieLevel bits of the 32-bit key hash; below the last
	// level all remaining collisions go into a multi-value node.
	trieMaxDepth = 32 / bitsPerTrieLevel // 8
)

// trieSlot is one occupied payload in a trie node's sparse slot array:
// a deeper trie node, a single-value node, or a multi-value collision node.
// Empty slots are nil.
type trieSlot interface {
	isTrieSlot()
}

type trieNode struct {
	slots [trieSlotCount]trieSlot
}

// singleValueNode holds exactly one entry. It is the payload used at
// depths that have not yet exhausted the hash bit budget.
type singleValueNode struct {
	key   Key
	value Value
}

// multiValueNode holds every entry whose full 32-bit hash collided.
// It appears only at trieMaxDepth. Entries keep insertion order so
// iteration over an unchanged map is stable.
type multiValueNode struct {
	entries []*mapEntry
}

type mapEntry struct {
	key    Key
	value  Value
	ext    Digest // extended digest, set for digester-hashed keys only
	hasExt bool
}

var _ trieSlot = &trieNode{}
var _ trieSlot = &singleValueNode{}
var _ trieSlot = &multiValueNode{}

func (*trieNode) isTrieSlot() {}

func (*singleValueNode) isTrieSlot() {}

func (*multiValueNode) isTrieSlot() {}

// keyDigest carries everything the trie needs to place and compare a key.
type keyDigest struct {
	hash   uint32
	ext    Digest
	hasExt bool
}

func newMapEntry(key Key, value Value, kd keyDigest) *mapEntry {
	return &mapEntry{key: key, value: value, ext: kd.ext, hasExt: kd.hasExt}
}

// lookupIndex returns the position of key in the collision node, or -1.
// The cached extended digest rules out most non-matches before the keys
// themselves are compared.
func (n *multiValueNode) lookupIndex(key Key, kd keyDigest) (int, error) {
	for i, e := range n.entries {
		if e.hasExt && kd.hasExt && e.ext != kd.ext {
			continue
		}
		eq, err := keysEqual(e.key, key)
		if err != nil {
			return -1, err
		}
		if eq {
			return i, nil
		}
	}
	return -1, nil
}

// HashTrieMap is an associative container with constant expected cost for
// Get, Set, and Remove. Iteration order is unspecified but stable for an
// unchanged map. Keys are integers, strings, byte slices, or Hashables.
type HashTrieMap struct {
	root            *trieNode
	count           uint64
	digesterBuilder DigesterBuilder

	// hashKey is swappable so tests can force collisions.
	hashKey func(Key) (keyDigest, error)
}

// NewHashTrieMap creates an empty map using the default byte-key digester.
func NewHashTrieMap() *HashTrieMap {
	return NewHashTrieMapWithDigesterBuilder(newDefaultDigesterBuilder())
}

// NewHashTrieMapWithDigesterBuilder creates an empty map whose byte-slice and
// Hashable keys are digested by the given builder. Integer and string keys
// always use the fixed contract hash regardless of the builder.
func NewHashTrieMapWithDigesterBuilder(digesterBuilder DigesterBuilder) *HashTrieMap {
	m := &HashTrieMap{
		root:            &trieNode{},
		digesterBuilder: digesterBuilder,
	}
	m.hashKey = m.defaultHashKey
	return m
}

func (m *HashTrieMap) defaultHashKey(key Key) (keyDigest, error) {
	switch k := key.(type) {
	case string:
		return keyDigest{hash: hashString(k)}, nil
	case int:
		return keyDigest{hash: hashInt64(int64(k))}, nil
	case int8:
		return keyDigest{hash: hashInt64(int64(k))}, nil
	case int16:
		return keyDigest{hash: hashInt64(int64(k))}, nil
	case int32:
		return keyDigest{hash: hashInt64(int64(k))}, nil
	case int64:
		return keyDigest{hash: hashInt64(k)}, nil
	case uint:
		return keyDigest{hash: hashUint64(uint64(k))}, nil
	case uint8:
		return keyDigest{hash: hashUint64(uint64(k))}, nil
	case uint16:
		return keyDigest{hash: hashUint64(uint64(k))}, nil
	case uint32:
		return keyDigest{hash: hashUint64(uint64(k))}, nil
	case uint64:
		return keyDigest{hash: hashUint64(k)}, nil
	case float32:
		return keyDigest{hash: hashFloat(float64(k))}, nil
	case float64:
		return keyDigest{hash: hashFloat(k)}, nil
	case []byte:
		return m.digestHashable(byteSliceHashable(k))
	case Hashable:
		return m.digestHashable(k)
	default:
		return keyDigest{}, NewKeyTypeError(key)
	}
}

func (m *HashTrieMap) digestHashable(h Hashable) (keyDigest, error) {
	d, err := m.digesterBuilder.Digest(h)
	if err != nil {
		return keyDigest{}, err
	}
	placement, err := d.Digest(0)
	if err != nil {
		return keyDigest{}, err
	}
	ext, err := d.Digest(1)
	if err != nil {
		return keyDigest{}, err
	}
	return keyDigest{hash: uint32(placement), ext: ext, hasExt: true}, nil
}

func (m *HashTrieMap) setHasher(hashKey func(Key) (keyDigest, error)) {
	m.hashKey = hashKey
}

func (m *HashTrieMap) getDigesterBuilder() DigesterBuilder {
	return m.digesterBuilder
}

func trieSlotIndex(hash uint32, depth int) int {
	return int((hash >> uint((depth-1)*bitsPerTrieLevel)) & trieSlotMask)
}

// walk descends from the root until it reaches a payload or an empty slot
// and returns the containing node, the 1-based depth, the slot index, and
// the payload (nil if the slot is empty).
func (m *HashTrieMap) walk(hash uint32) (node *trieNode, depth int, index int, payload trieSlot) {
	node = m.root
	depth = 1
	for {
		index = trieSlotIndex(hash, depth)
		payload = node.slots[index]
		child, ok := payload.(*trieNode)
		if !ok {
			return node, depth, index, payload
		}
		node = child
		depth++
	}
}

// Count returns the number of entries in the map.
func (m *HashTrieMap) Count() uint64 {
	return m.count
}

// Has reports whether key is present.
func (m *HashTrieMap) Has(key Key) (bool, error) {
	_, found, err := m.Get(key)
	return found, err
}

// Get returns the value stored for key, and whether the key is present.
func (m *HashTrieMap) Get(key Key) (Value, bool, error) {
	kd, err := m.hashKey(key)
	if err != nil {
		return nil, false, err
	}

	_, _, _, payload := m.walk(kd.hash)

	switch p := payload.(type) {
	case nil:
		return nil, false, nil

	case *singleValueNode:
		eq, err := keysEqual(p.key, key)
		if err != nil {
			return nil, false, err
		}
		if !eq {
			return nil, false, nil
		}
		return p.value, true, nil

	case *multiValueNode:
		i, err := p.lookupIndex(key, kd)
		if err != nil {
			return nil, false, err
		}
		if i < 0 {
			return nil, false, nil
		}
		return p.entries[i].value, true, nil

	default:
		return nil, false, NewInconsistentStateError("trie payload has unexpected type %T", payload)
	}
}

// Set stores value for key, overwriting any previous value.
func (m *HashTrieMap) Set(key Key, value Value) error {
	kd, err := m.hashKey(key)
	if err != nil {
		return err
	}

	node := m.root
	depth := 1
	for {
		index := trieSlotIndex(kd.hash, depth)

		switch p := node.slots[index].(type) {
		case nil:
			if depth < trieMaxDepth {
				node.slots[index] = &singleValueNode{key: key, value: value}
			} else {
				node.slots[index] = &multiValueNode{
					entries: []*mapEntry{newMapEntry(key, value, kd)},
				}
			}
			m.count++
			return nil

		case *trieNode:
			node = p
			depth++

		case *singleValueNode:
			eq, err := keysEqual(p.key, key)
			if err != nil {
				return err
			}
			if eq {
				p.value = value
				return nil
			}

			// Hash-prefix collision: push the resident entry one level down,
			// then retry the new key against the fresh child node.
			residentDigest, err := m.hashKey(p.key)
			if err != nil {
				return err
			}

			child := &trieNode{}
			residentIndex := trieSlotIndex(residentDigest.hash, depth+1)
			if depth+1 < trieMaxDepth {
				child.slots[residentIndex] = p
			} else {
				child.slots[residentIndex] = &multiValueNode{
					entries: []*mapEntry{newMapEntry(p.key, p.value, residentDigest)},
				}
			}
			node.slots[index] = child

			node = child
			depth++

		case *multiValueNode:
			i, err := p.lookupIndex(key, kd)
			if err != nil {
				return err
			}
			if i >= 0 {
				p.entries[i].value = value
				return nil
			}
			p.entries = append(p.entries, newMapEntry(key, value, kd))
			m.count++
			return nil

		default:
			return NewInconsistentStateError("trie payload has unexpected type %T", p)
		}
	}
}

// Remove deletes key and reports whether an entry was removed.
// Removing an absent key leaves the map unchanged. Trie nodes emptied by
// removal stay in place; only the payload slot is cleared.
func (m *HashTrieMap) Remove(key Key) (bool, error) {
	kd, err := m.hashKey(key)
	if err != nil {
		return false, err
	}

	node, _, index, payload := m.walk(kd.hash)

	switch p := payload.(type) {
	case nil:
		return false, nil

	case *singleValueNode:
		eq, err := keysEqual(p.key, key)
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
		node.slots[index] = nil
		m.count--
		return true, nil

	case *multiValueNode:
		i, err := p.lookupIndex(key, kd)
		if err != nil {
			return false, err
		}
		if i < 0 {
			return false, nil
		}
		p.entries = removeAt(p.entries, i)
		if len(p.entries) == 0 {
			node.slots[index] = nil
		}
		m.count--
		return true, nil

	default:
		return false, NewInconsistentStateError("trie payload has unexpected type %T", payload)
	}
}

// Update applies fn to the value stored for key and stores the result.
// It returns the resulting value and whether the key was present; updating
// an absent key is a no-op. fn may mutate the value through a pointer and
// return it unchanged, or return a replacement.
func (m *HashTrieMap) Update(key Key, fn UpdateFunc) (Value, bool, error) {
	kd, err := m.hashKey(key)
	if err != nil {
		return nil, false, err
	}

	_, _, _, payload := m.walk(kd.hash)

	switch p := payload.(type) {
	case nil:
		return nil, false, nil

	case *singleValueNode:
		eq, err := keysEqual(p.key, key)
		if err != nil {
			return nil, false, err
		}
		if !eq {
			return nil, false, nil
		}
		newValue, err := fn(p.value)
		if err != nil {
			return nil, false, err
		}
		p.value = newValue
		return newValue, true, nil

	case *multiValueNode:
		i, err := p.lookupIndex(key, kd)
		if err != nil {
			return nil, false, err
		}
		if i < 0 {
			return nil, false, nil
		}
		newValue, err := fn(p.entries[i].value)
		if err != nil {
			return nil, false, err
		}
		p.entries[i].value = newValue
		return newValue, true, nil

	default:
		return nil, false, NewInconsistentStateError("trie payload has unexpected type %T", payload)
	}
}
