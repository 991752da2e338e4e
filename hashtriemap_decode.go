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
	"math/bits"

	"github.com/fxamacker/cbor/v2"
)

// DecodeHashTrieMap rebuilds a map from bytes produced by Encode.
// Element values are decoded by decodeValue. The decoded trie is verified
// against its structural invariants before it is returned.
func DecodeHashTrieMap(data []byte, decodeValue ValueDecoder) (*HashTrieMap, error) {
	m := NewHashTrieMap()

	dec, err := decodeContainerHead(data, flagHashTrieMap)
	if err != nil {
		return nil, err
	}

	n, err := dec.DecodeArrayHead()
	if err != nil {
		return nil, NewDecodingError(err)
	}
	if n != 2 {
		return nil, NewDecodingErrorf("map header has %d elements, want 2", n)
	}

	count, err := dec.DecodeUint64()
	if err != nil {
		return nil, NewDecodingError(err)
	}

	tagNum, err := dec.DecodeTagNumber()
	if err != nil {
		return nil, NewDecodingError(err)
	}
	if tagNum != cborTagTrieNode {
		return nil, NewDecodingErrorf("root has tag number %d, want %d", tagNum, cborTagTrieNode)
	}

	root, counted, err := m.decodeTrieNode(dec, 1, decodeValue)
	if err != nil {
		return nil, err
	}
	if counted != count {
		return nil, NewDecodingErrorf("map encodes count %d but holds %d entries", count, counted)
	}

	m.root = root
	m.count = count

	if err := VerifyHashTrieMap(m); err != nil {
		return nil, NewDecodingError(err)
	}
	return m, nil
}

// decodeTrieNode decodes one trie node whose tag number has already been
// consumed, returning it and the number of entries beneath it.
func (m *HashTrieMap) decodeTrieNode(dec *cbor.StreamDecoder, depth int, decodeValue ValueDecoder) (*trieNode, uint64, error) {
	if depth > trieMaxDepth {
		return nil, 0, NewDecodingErrorf("trie node at depth %d exceeds the maximum depth %d", depth, trieMaxDepth)
	}

	n, err := dec.DecodeArrayHead()
	if err != nil {
		return nil, 0, NewDecodingError(err)
	}
	if n < 1 {
		return nil, 0, NewDecodingErrorf("trie node array is empty")
	}

	bitmap, err := dec.DecodeUint64()
	if err != nil {
		return nil, 0, NewDecodingError(err)
	}
	if bitmap > 0xFFFF {
		return nil, 0, NewDecodingErrorf("trie node bitmap %#x has more than %d slots", bitmap, trieSlotCount)
	}
	if occupied := bits.OnesCount64(bitmap); uint64(occupied) != n-1 {
		return nil, 0, NewDecodingErrorf("trie node bitmap has %d slots but array has %d payloads", occupied, n-1)
	}

	node := &trieNode{}
	counted := uint64(0)

	for i := 0; i < trieSlotCount; i++ {
		if bitmap&(1<<uint(i)) == 0 {
			continue
		}

		tagNum, err := dec.DecodeTagNumber()
		if err != nil {
			return nil, 0, NewDecodingError(err)
		}

		switch tagNum {
		case cborTagTrieNode:
			child, childCount, err := m.decodeTrieNode(dec, depth+1, decodeValue)
			if err != nil {
				return nil, 0, err
			}
			node.slots[i] = child
			counted += childCount

		case cborTagSingleValueNode:
			if depth >= trieMaxDepth {
				return nil, 0, NewDecodingErrorf("single-value payload at maximum depth %d", depth)
			}
			sn, err := m.decodeSingleValueNode(dec, decodeValue)
			if err != nil {
				return nil, 0, err
			}
			node.slots[i] = sn
			counted++

		case cborTagMultiValueNode:
			if depth != trieMaxDepth {
				return nil, 0, NewDecodingErrorf("multi-value payload at depth %d, want %d", depth, trieMaxDepth)
			}
			mn, err := m.decodeMultiValueNode(dec, decodeValue)
			if err != nil {
				return nil, 0, err
			}
			node.slots[i] = mn
			counted += uint64(len(mn.entries))

		default:
			return nil, 0, NewDecodingErrorf("trie payload has unknown tag number %d", tagNum)
		}
	}

	return node, counted, nil
}

func (m *HashTrieMap) decodeSingleValueNode(dec *cbor.StreamDecoder, decodeValue ValueDecoder) (*singleValueNode, error) {
	n, err := dec.DecodeArrayHead()
	if err != nil {
		return nil, NewDecodingError(err)
	}
	if n != 2 {
		return nil, NewDecodingErrorf("single-value payload has %d elements, want 2", n)
	}

	key, err := decodeKey(dec)
	if err != nil {
		return nil, err
	}
	value, err := decodeValue(dec)
	if err != nil {
		return nil, NewDecodingError(err)
	}
	return &singleValueNode{key: key, value: value}, nil
}

func (m *HashTrieMap) decodeMultiValueNode(dec *cbor.StreamDecoder, decodeValue ValueDecoder) (*multiValueNode, error) {
	n, err := dec.DecodeArrayHead()
	if err != nil {
		return nil, NewDecodingError(err)
	}
	if n == 0 || n%2 != 0 {
		return nil, NewDecodingErrorf("multi-value payload has %d elements, want a non-empty even number", n)
	}

	entries := make([]*mapEntry, 0, n/2)
	for j := uint64(0); j < n; j += 2 {
		key, err := decodeKey(dec)
		if err != nil {
			return nil, err
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, NewDecodingError(err)
		}
		kd, err := m.hashKey(key)
		if err != nil {
			return nil, err
		}
		entries = append(entries, newMapEntry(key, value, kd))
	}
	return &multiValueNode{entries: entries}, nil
}
