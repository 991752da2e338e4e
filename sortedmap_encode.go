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
	"bytes"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Encode writes the map's state as the 2-byte container prefix followed by
// one CBOR array of the encoded backing trie and the encoded ordering
// collection, each nested as a byte string with its own prefix. Values are
// encoded by encodeValue, derived ordering keys by encodeOrderingKey.
func (m *SortedMap) Encode(w io.Writer, encodeValue ValueEncoder, encodeOrderingKey ValueEncoder) error {
	var entriesBuf, orderBuf bytes.Buffer

	if err := m.entries.Encode(&entriesBuf, encodeValue); err != nil {
		return err
	}
	if err := m.order.Encode(&orderBuf, encodeMapTuple(encodeOrderingKey)); err != nil {
		return err
	}

	enc := NewEncoder(w, encMode)
	if err := encodeContainerHead(enc, flagSortedMap); err != nil {
		return err
	}
	if err := enc.CBOR.EncodeArrayHead(2); err != nil {
		return NewEncodingError(err)
	}
	if err := enc.CBOR.EncodeBytes(entriesBuf.Bytes()); err != nil {
		return NewEncodingError(err)
	}
	if err := enc.CBOR.EncodeBytes(orderBuf.Bytes()); err != nil {
		return NewEncodingError(err)
	}

	if err := enc.CBOR.Flush(); err != nil {
		return NewEncodingError(err)
	}
	return nil
}

func encodeMapTuple(encodeOrderingKey ValueEncoder) ValueEncoder {
	return func(enc *Encoder, v Value) error {
		t := v.(*mapTuple)
		if err := enc.CBOR.EncodeArrayHead(2); err != nil {
			return NewEncodingError(err)
		}
		if err := encodeKey(enc, t.key); err != nil {
			return err
		}
		return encodeOrderingKey(enc, t.order)
	}
}

func decodeMapTuple(decodeOrderingKey ValueDecoder) ValueDecoder {
	return func(dec *cbor.StreamDecoder) (Value, error) {
		n, err := dec.DecodeArrayHead()
		if err != nil {
			return nil, NewDecodingError(err)
		}
		if n != 2 {
			return nil, NewDecodingErrorf("ordering tuple has %d elements, want 2", n)
		}
		key, err := decodeKey(dec)
		if err != nil {
			return nil, err
		}
		order, err := decodeOrderingKey(dec)
		if err != nil {
			return nil, NewDecodingError(err)
		}
		return &mapTuple{key: key, order: order}, nil
	}
}

// DecodeSortedMap rebuilds a map from bytes produced by Encode, using the
// same callbacks the map was built with. Both halves are decoded and
// cross-checked: every ordered key must be present in the backing trie.
func DecodeSortedMap(
	data []byte,
	getOrderingKey GetOrderingKey,
	orderComparer OrderComparator,
	decodeValue ValueDecoder,
	decodeOrderingKey ValueDecoder,
) (*SortedMap, error) {
	m, err := NewSortedMapWithComparator(getOrderingKey, orderComparer)
	if err != nil {
		return nil, err
	}

	dec, err := decodeContainerHead(data, flagSortedMap)
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

	entriesBytes, err := dec.DecodeBytes()
	if err != nil {
		return nil, NewDecodingError(err)
	}
	orderBytes, err := dec.DecodeBytes()
	if err != nil {
		return nil, NewDecodingError(err)
	}

	entries, err := DecodeHashTrieMap(entriesBytes, decodeValue)
	if err != nil {
		return nil, err
	}
	order, err := DecodeSortedCollection(
		orderBytes,
		m.order.orderComparer,
		m.order.equalityComparer,
		decodeMapTuple(decodeOrderingKey),
	)
	if err != nil {
		return nil, err
	}

	if entries.Count() != order.Count() {
		return nil, NewDecodingErrorf(
			"map holds %d entries but orders %d keys",
			entries.Count(), order.Count(),
		)
	}

	it := order.Iterator()
	for {
		v, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		tuple := v.(*mapTuple)
		has, err := entries.Has(tuple.key)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, NewDecodingErrorf("ordered key %v is missing from the map", tuple.key)
		}
	}

	m.entries = entries
	m.order = order
	return m, nil
}

// Encode writes the cache's state as the 2-byte container prefix followed
// by one CBOR array [suggestedSize, nextOrder, sortedMap]. Payloads are
// encoded by encodeValue; recency stamps are encoded as unsigned integers.
func (c *LruCache) Encode(w io.Writer, encodeValue ValueEncoder) error {
	var entriesBuf bytes.Buffer
	err := c.entries.Encode(&entriesBuf, encodeLruEntry(encodeValue), encodeRecency)
	if err != nil {
		return err
	}

	enc := NewEncoder(w, encMode)
	if err := encodeContainerHead(enc, flagLruCache); err != nil {
		return err
	}
	if err := enc.CBOR.EncodeArrayHead(3); err != nil {
		return NewEncodingError(err)
	}
	if err := enc.CBOR.EncodeUint64(c.suggestedSize); err != nil {
		return NewEncodingError(err)
	}
	if err := enc.CBOR.EncodeUint64(c.nextOrder); err != nil {
		return NewEncodingError(err)
	}
	if err := enc.CBOR.EncodeBytes(entriesBuf.Bytes()); err != nil {
		return NewEncodingError(err)
	}

	if err := enc.CBOR.Flush(); err != nil {
		return NewEncodingError(err)
	}
	return nil
}

func encodeLruEntry(encodeValue ValueEncoder) ValueEncoder {
	return func(enc *Encoder, v Value) error {
		e := v.(*lruEntry)
		if err := enc.CBOR.EncodeArrayHead(2); err != nil {
			return NewEncodingError(err)
		}
		if err := encodeValue(enc, e.payload); err != nil {
			return err
		}
		if err := enc.CBOR.EncodeUint64(e.order); err != nil {
			return NewEncodingError(err)
		}
		return nil
	}
}

func encodeRecency(enc *Encoder, v Value) error {
	if err := enc.CBOR.EncodeUint64(v.(uint64)); err != nil {
		return NewEncodingError(err)
	}
	return nil
}

func decodeLruEntry(decodeValue ValueDecoder) ValueDecoder {
	return func(dec *cbor.StreamDecoder) (Value, error) {
		n, err := dec.DecodeArrayHead()
		if err != nil {
			return nil, NewDecodingError(err)
		}
		if n != 2 {
			return nil, NewDecodingErrorf("cache entry has %d elements, want 2", n)
		}
		payload, err := decodeValue(dec)
		if err != nil {
			return nil, NewDecodingError(err)
		}
		order, err := dec.DecodeUint64()
		if err != nil {
			return nil, NewDecodingError(err)
		}
		return &lruEntry{payload: payload, order: order}, nil
	}
}

func decodeRecency(dec *cbor.StreamDecoder) (Value, error) {
	u, err := dec.DecodeUint64()
	if err != nil {
		return nil, NewDecodingError(err)
	}
	return u, nil
}

// DecodeLruCache rebuilds a cache from bytes produced by Encode. Payloads
// are decoded by decodeValue.
func DecodeLruCache(data []byte, decodeValue ValueDecoder) (*LruCache, error) {
	dec, err := decodeContainerHead(data, flagLruCache)
	if err != nil {
		return nil, err
	}

	n, err := dec.DecodeArrayHead()
	if err != nil {
		return nil, NewDecodingError(err)
	}
	if n != 3 {
		return nil, NewDecodingErrorf("cache header has %d elements, want 3", n)
	}

	suggestedSize, err := dec.DecodeUint64()
	if err != nil {
		return nil, NewDecodingError(err)
	}
	nextOrder, err := dec.DecodeUint64()
	if err != nil {
		return nil, NewDecodingError(err)
	}
	entriesBytes, err := dec.DecodeBytes()
	if err != nil {
		return nil, NewDecodingError(err)
	}

	c, err := NewLruCache(suggestedSize)
	if err != nil {
		return nil, NewDecodingError(err)
	}

	entries, err := DecodeSortedMap(
		entriesBytes,
		lruOrderingKey,
		compareRecency,
		decodeLruEntry(decodeValue),
		decodeRecency,
	)
	if err != nil {
		return nil, err
	}

	c.entries = entries
	c.nextOrder = nextOrder
	return c, nil
}
