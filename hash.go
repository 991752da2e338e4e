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
	"encoding/binary"
	"errors"
	"math"

	"github.com/dchest/siphash"
	"github.com/fxamacker/circlehash"
	"github.com/zeebo/blake3"
)

var errDigestLevelOutOfBounds = errors.New("digest level out of bounds")

// Hashable lets user-defined key types participate in the hash trie.
// GetHashInput returns the bytes that identify the key; two keys are
// equal iff their hash inputs are equal.
type Hashable interface {
	GetHashInput() ([]byte, error)
}

type Digest uint64

// Digester computes digests of a byte-slice or Hashable key.
//
// Level 0 is the placement digest: its low 32 bits position the key in the
// trie, consumed 4 bits at a time from low order to high order.
// Level 1 is the extended digest used to group keys inside a collision node
// once the placement bits are exhausted.
type Digester interface {
	// Digest returns digest at specified level.
	Digest(level int) (Digest, error)

	Levels() int
}

type DigesterBuilder interface {
	SetSeed(k0 uint64, k1 uint64)
	Digest(Hashable) (Digester, error)
}

// circleHashSeed is an arbitrary non-zero seed for the unseeded digest path.
const circleHashSeed = uint64(0x7c17_88cc_7c17_88cc)

type basicDigesterBuilder struct {
	k0 uint64
	k1 uint64
}

var _ DigesterBuilder = &basicDigesterBuilder{}

type basicDigester struct {
	k0         uint64
	k1         uint64
	circleHash uint64
	sipHash    [2]uint64
	blake3Hash [4]uint64
	msg        []byte
}

var (
	emptySipHash    [2]uint64
	emptyBlake3Hash [4]uint64
)

var _ Digester = &basicDigester{}

func newDefaultDigesterBuilder() DigesterBuilder {
	return newBasicDigesterBuilder()
}

func newBasicDigesterBuilder() *basicDigesterBuilder {
	return &basicDigesterBuilder{}
}

func (bdb *basicDigesterBuilder) SetSeed(k0 uint64, k1 uint64) {
	bdb.k0 = k0
	bdb.k1 = k1
}

func (bdb *basicDigesterBuilder) Digest(hashable Hashable) (Digester, error) {
	msg, err := hashable.GetHashInput()
	if err != nil {
		return nil, NewHashError(err)
	}
	return &basicDigester{k0: bdb.k0, k1: bdb.k1, msg: msg}, nil
}

func (bd *basicDigester) seeded() bool {
	return bd.k0 != 0 || bd.k1 != 0
}

func (bd *basicDigester) Digest(level int) (Digest, error) {
	if level < 0 || level >= bd.Levels() {
		return 0, NewHashError(errDigestLevelOutOfBounds)
	}

	switch level {
	case 0:
		if bd.seeded() {
			if bd.sipHash == emptySipHash {
				bd.sipHash[0], bd.sipHash[1] = siphash.Hash128(bd.k0, bd.k1, bd.msg)
			}
			return Digest(bd.sipHash[0]), nil
		}
		if bd.circleHash == 0 {
			bd.circleHash = circlehash.Hash64(bd.msg, circleHashSeed)
		}
		return Digest(bd.circleHash), nil

	default:
		if bd.blake3Hash == emptyBlake3Hash {
			sum := blake3.Sum256(bd.msg)
			bd.blake3Hash[0] = binary.BigEndian.Uint64(sum[:])
			bd.blake3Hash[1] = binary.BigEndian.Uint64(sum[8:])
			bd.blake3Hash[2] = binary.BigEndian.Uint64(sum[16:])
			bd.blake3Hash[3] = binary.BigEndian.Uint64(sum[24:])
		}
		return Digest(bd.blake3Hash[level-1]), nil
	}
}

func (bd *basicDigester) Levels() int {
	return 2
}

// byteSliceHashable adapts plain []byte keys to the digester.
type byteSliceHashable []byte

var _ Hashable = byteSliceHashable(nil)

func (b byteSliceHashable) GetHashInput() ([]byte, error) {
	return b, nil
}

// hashString accumulates h = (31 * h + ch) | 0 over the UTF-16 code units of s.
// This matches the distribution contract for string keys and must not change:
// a different accumulator would re-shard every string key.
func hashString(s string) uint32 {
	var h int32
	for _, r := range s {
		if r < 0x10000 {
			h = 31*h + int32(r)
		} else {
			r -= 0x10000
			h = 31*h + int32(0xD800+(r>>10))
			h = 31*h + int32(0xDC00+(r&0x3FF))
		}
	}
	return uint32(h)
}

// hashUint64 folds u to 32 bits, XOR-folding the upper words so large keys
// still spread across all trie levels.
func hashUint64(u uint64) uint32 {
	h := uint32(u)
	for u >>= 32; u != 0; u >>= 32 {
		h ^= uint32(u)
	}
	return h
}

func hashInt64(v int64) uint32 {
	if v >= 0 {
		return hashUint64(uint64(v))
	}
	// Negative keys hash to the two's complement of their magnitude's hash,
	// so small negatives keep their familiar 32-bit pattern.
	return uint32(-int32(hashUint64(uint64(-v))))
}

// hashFloat hashes the integral part of f. NaN and infinities hash to 0.
func hashFloat(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	neg := math.Signbit(f)
	a := math.Trunc(math.Abs(f))

	var h uint32
	for a >= 1 {
		h ^= uint32(uint64(math.Mod(a, 1<<32)))
		a = math.Trunc(a / (1 << 32))
	}

	if neg {
		h = uint32(-int32(h))
	}
	return h
}
