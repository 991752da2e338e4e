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

import "io"

// Encode writes the map's state as the 2-byte container prefix followed by
// one CBOR array [count, root]. A trie node encodes as a tagged array of a
// 16-bit occupancy bitmap and the occupied payloads in slot order; payloads
// encode as tagged key/value arrays. Element values are encoded by
// encodeValue; keys must be integers, strings, or byte slices.
func (m *HashTrieMap) Encode(w io.Writer, encodeValue ValueEncoder) error {
	enc := NewEncoder(w, encMode)

	if err := encodeContainerHead(enc, flagHashTrieMap); err != nil {
		return err
	}

	if err := enc.CBOR.EncodeArrayHead(2); err != nil {
		return NewEncodingError(err)
	}
	if err := enc.CBOR.EncodeUint64(m.count); err != nil {
		return NewEncodingError(err)
	}
	if err := encodeTrieNode(enc, m.root, encodeValue); err != nil {
		return err
	}

	if err := enc.CBOR.Flush(); err != nil {
		return NewEncodingError(err)
	}
	return nil
}

func encodeTrieNode(enc *Encoder, n *trieNode, encodeValue ValueEncoder) error {
	if err := encodeTagHead(enc, cborTagTrieNode); err != nil {
		return err
	}

	var bitmap uint64
	occupied := 0
	for i, payload := range n.slots {
		if payload != nil {
			bitmap |= 1 << uint(i)
			occupied++
		}
	}

	if err := enc.CBOR.EncodeArrayHead(uint64(1 + occupied)); err != nil {
		return NewEncodingError(err)
	}
	if err := enc.CBOR.EncodeUint64(bitmap); err != nil {
		return NewEncodingError(err)
	}

	for _, payload := range n.slots {
		switch p := payload.(type) {
		case nil:
			continue

		case *trieNode:
			if err := encodeTrieNode(enc, p, encodeValue); err != nil {
				return err
			}

		case *singleValueNode:
			if err := encodeTagHead(enc, cborTagSingleValueNode); err != nil {
				return err
			}
			if err := enc.CBOR.EncodeArrayHead(2); err != nil {
				return NewEncodingError(err)
			}
			if err := encodeKey(enc, p.key); err != nil {
				return err
			}
			if err := encodeValue(enc, p.value); err != nil {
				return err
			}

		case *multiValueNode:
			if err := encodeTagHead(enc, cborTagMultiValueNode); err != nil {
				return err
			}
			if err := enc.CBOR.EncodeArrayHead(uint64(2 * len(p.entries))); err != nil {
				return NewEncodingError(err)
			}
			for _, e := range p.entries {
				if err := encodeKey(enc, e.key); err != nil {
					return err
				}
				if err := encodeValue(enc, e.value); err != nil {
					return err
				}
			}

		default:
			return NewEncodingError(NewInconsistentStateError("trie payload has unexpected type %T", p))
		}
	}
	return nil
}
