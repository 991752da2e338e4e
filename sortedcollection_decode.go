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

import "github.com/fxamacker/cbor/v2"

// DecodeSortedCollection rebuilds a collection from bytes produced by
// Encode, using the same comparators the collection was built with.
// equalityComparer may be nil as in NewSortedCollectionWithOptions.
// The decoded tree is verified against its structural invariants before
// it is returned.
func DecodeSortedCollection(
	data []byte,
	orderComparer OrderComparator,
	equalityComparer EqualityComparator,
	decodeValue ValueDecoder,
) (*SortedCollection, error) {
	dec, err := decodeContainerHead(data, flagSortedCollection)
	if err != nil {
		return nil, err
	}

	n, err := dec.DecodeArrayHead()
	if err != nil {
		return nil, NewDecodingError(err)
	}
	if n != 3 {
		return nil, NewDecodingErrorf("collection header has %d elements, want 3", n)
	}

	maxItemsPerLevel, err := dec.DecodeUint64()
	if err != nil {
		return nil, NewDecodingError(err)
	}
	if maxItemsPerLevel > 1<<31 {
		return nil, NewDecodingErrorf("maxItemsPerLevel %d is out of range", maxItemsPerLevel)
	}

	c, err := NewSortedCollectionWithOptions(orderComparer, equalityComparer, uint32(maxItemsPerLevel))
	if err != nil {
		return nil, NewDecodingError(err)
	}

	count, err := dec.DecodeUint64()
	if err != nil {
		return nil, NewDecodingError(err)
	}

	root, err := decodeBTreeNode(dec, decodeValue)
	if err != nil {
		return nil, err
	}
	root.isRoot = true

	c.root = root
	c.count = count

	if err := VerifySortedCollection(c); err != nil {
		return nil, NewDecodingError(err)
	}
	return c, nil
}

func decodeBTreeNode(dec *cbor.StreamDecoder, decodeValue ValueDecoder) (*btreeNode, error) {
	tagNum, err := dec.DecodeTagNumber()
	if err != nil {
		return nil, NewDecodingError(err)
	}

	switch tagNum {
	case cborTagBTreeLeafNode:
		values, err := decodeBTreeValues(dec, decodeValue)
		if err != nil {
			return nil, err
		}
		return &btreeNode{values: values}, nil

	case cborTagBTreeInnerNode:
		n, err := dec.DecodeArrayHead()
		if err != nil {
			return nil, NewDecodingError(err)
		}
		if n != 2 {
			return nil, NewDecodingErrorf("internal node has %d elements, want 2", n)
		}

		values, err := decodeBTreeValues(dec, decodeValue)
		if err != nil {
			return nil, err
		}

		childCount, err := dec.DecodeArrayHead()
		if err != nil {
			return nil, NewDecodingError(err)
		}
		if childCount != uint64(len(values))+1 {
			return nil, NewDecodingErrorf(
				"internal node has %d children for %d values",
				childCount, len(values),
			)
		}

		children := make([]*btreeNode, 0, childCount)
		for j := uint64(0); j < childCount; j++ {
			child, err := decodeBTreeNode(dec, decodeValue)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return &btreeNode{values: values, children: children}, nil

	default:
		return nil, NewDecodingErrorf("tree node has unknown tag number %d", tagNum)
	}
}

func decodeBTreeValues(dec *cbor.StreamDecoder, decodeValue ValueDecoder) ([]Value, error) {
	n, err := dec.DecodeArrayHead()
	if err != nil {
		return nil, NewDecodingError(err)
	}

	values := make([]Value, 0, n)
	for j := uint64(0); j < n; j++ {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, NewDecodingError(err)
		}
		values = append(values, v)
	}
	return values, nil
}
