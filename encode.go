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
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// Encoder writes encoded container state to an io.Writer.
type Encoder struct {
	io.Writer
	CBOR    *cbor.StreamEncoder
	Scratch [64]byte
}

func NewEncoder(w io.Writer, encMode cbor.EncMode) *Encoder {
	streamEncoder := encMode.NewStreamEncoder(w)
	return &Encoder{
		Writer: w,
		CBOR:   streamEncoder,
	}
}

// ValueEncoder encodes one container element as a single CBOR data item.
type ValueEncoder func(enc *Encoder, value Value) error

// ValueDecoder decodes one container element from a single CBOR data item.
type ValueDecoder func(dec *cbor.StreamDecoder) (Value, error)

// encodeContainerHead writes the 2-byte version+kind prefix.
func encodeContainerHead(enc *Encoder, kind byte) error {
	head := containerHead(kind)
	_, err := enc.Write(head[:])
	if err != nil {
		return NewEncodingError(err)
	}
	return nil
}

// decodeContainerHead validates the 2-byte prefix and returns a stream
// decoder over the remaining CBOR payload.
func decodeContainerHead(data []byte, wantKind byte) (*cbor.StreamDecoder, error) {
	if len(data) < 2 {
		return nil, NewDecodingErrorf("data is too short for a container header")
	}
	if v := versionOf(data[0]); v != encodingVersion {
		return nil, NewDecodingErrorf("unsupported encoding version %d", v)
	}
	if data[1] != wantKind {
		return nil, NewDecodingErrorf("container kind is %#02x, want %#02x", data[1], wantKind)
	}
	return decMode.NewByteStreamDecoder(data[2:]), nil
}

func encodeTagHead(enc *Encoder, tagNum byte) error {
	enc.Scratch[0] = 0xd8 // tag head, one-byte tag number follows
	enc.Scratch[1] = tagNum
	err := enc.CBOR.EncodeRawBytes(enc.Scratch[:2])
	if err != nil {
		return NewEncodingError(err)
	}
	return nil
}

// encodeKey encodes a trie key. Strings encode as plain text strings;
// numeric and byte-slice keys are tagged with their kind. Hashable keys
// have no canonical byte form here and are rejected.
func encodeKey(enc *Encoder, key Key) error {
	switch k := key.(type) {
	case string:
		return enc.CBOR.EncodeString(k)

	case []byte:
		if err := encodeTagHead(enc, cborTagBytesKey); err != nil {
			return err
		}
		return enc.CBOR.EncodeBytes(k)

	case float32:
		return encodeFloatKey(enc, float64(k))
	case float64:
		return encodeFloatKey(enc, k)

	case uint64:
		if k > math.MaxInt64 {
			if err := encodeTagHead(enc, cborTagUintKey); err != nil {
				return err
			}
			return enc.CBOR.EncodeUint64(k)
		}
		return encodeIntKey(enc, int64(k))

	case uint:
		return encodeKey(enc, uint64(k))
	}

	if i, ok := intValue(key); ok {
		return encodeIntKey(enc, i)
	}
	return NewEncodingError(NewKeyTypeError(key))
}

func encodeIntKey(enc *Encoder, i int64) error {
	if err := encodeTagHead(enc, cborTagIntKey); err != nil {
		return err
	}
	return enc.CBOR.EncodeInt64(i)
}

func encodeFloatKey(enc *Encoder, f float64) error {
	if err := encodeTagHead(enc, cborTagFloatKey); err != nil {
		return err
	}
	return enc.CBOR.EncodeUint64(math.Float64bits(f))
}

// decodeKey reverses encodeKey. Integer keys come back as int64 (or uint64
// when out of int64 range), floats as float64.
func decodeKey(dec *cbor.StreamDecoder) (Key, error) {
	t, err := dec.NextType()
	if err != nil {
		return nil, NewDecodingError(err)
	}

	switch t {
	case cbor.TextStringType:
		s, err := dec.DecodeString()
		if err != nil {
			return nil, NewDecodingError(err)
		}
		return s, nil

	case cbor.TagType:
		tagNum, err := dec.DecodeTagNumber()
		if err != nil {
			return nil, NewDecodingError(err)
		}
		switch tagNum {
		case cborTagIntKey:
			i, err := dec.DecodeInt64()
			if err != nil {
				return nil, NewDecodingError(err)
			}
			return i, nil

		case cborTagUintKey:
			u, err := dec.DecodeUint64()
			if err != nil {
				return nil, NewDecodingError(err)
			}
			return u, nil

		case cborTagFloatKey:
			bits, err := dec.DecodeUint64()
			if err != nil {
				return nil, NewDecodingError(err)
			}
			return math.Float64frombits(bits), nil

		case cborTagBytesKey:
			b, err := dec.DecodeBytes()
			if err != nil {
				return nil, NewDecodingError(err)
			}
			return b, nil

		default:
			return nil, NewDecodingErrorf("key has unknown tag number %d", tagNum)
		}

	default:
		return nil, NewDecodingErrorf("key has unexpected CBOR type %s", t)
	}
}
