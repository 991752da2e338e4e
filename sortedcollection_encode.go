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

// Encode writes the collection's state as the 2-byte container prefix
// followed by one CBOR array [maxItemsPerLevel, count, root]. A leaf node
// encodes as a tagged array of its values; an internal node as a tagged
// pair of its value array and child array. Values are encoded by
// encodeValue.
func (c *SortedCollection) Encode(w io.Writer, encodeValue ValueEncoder) error {
	enc := NewEncoder(w, encMode)

	if err := encodeContainerHead(enc, flagSortedCollection); err != nil {
		return err
	}

	if err := enc.CBOR.EncodeArrayHead(3); err != nil {
		return NewEncodingError(err)
	}
	if err := enc.CBOR.EncodeUint64(uint64(c.maxItemsPerLevel)); err != nil {
		return NewEncodingError(err)
	}
	if err := enc.CBOR.EncodeUint64(c.count); err != nil {
		return NewEncodingError(err)
	}
	if err := encodeBTreeNode(enc, c.root, encodeValue); err != nil {
		return err
	}

	if err := enc.CBOR.Flush(); err != nil {
		return NewEncodingError(err)
	}
	return nil
}

func encodeBTreeNode(enc *Encoder, n *btreeNode, encodeValue ValueEncoder) error {
	if n.isLeaf() {
		if err := encodeTagHead(enc, cborTagBTreeLeafNode); err != nil {
			return err
		}
		if err := enc.CBOR.EncodeArrayHead(uint64(len(n.values))); err != nil {
			return NewEncodingError(err)
		}
		for _, v := range n.values {
			if err := encodeValue(enc, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := encodeTagHead(enc, cborTagBTreeInnerNode); err != nil {
		return err
	}
	if err := enc.CBOR.EncodeArrayHead(2); err != nil {
		return NewEncodingError(err)
	}

	if err := enc.CBOR.EncodeArrayHead(uint64(len(n.values))); err != nil {
		return NewEncodingError(err)
	}
	for _, v := range n.values {
		if err := encodeValue(enc, v); err != nil {
			return err
		}
	}

	if err := enc.CBOR.EncodeArrayHead(uint64(len(n.children))); err != nil {
		return NewEncodingError(err)
	}
	for _, child := range n.children {
		if err := encodeBTreeNode(enc, child, encodeValue); err != nil {
			return err
		}
	}
	return nil
}
