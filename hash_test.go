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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// Expected digests follow the h = (31*h + ch) | 0 contract over UTF-16
// code units. Changing the accumulator re-shards every string key, so
// these values are load-bearing.
func TestHashStringContract(t *testing.T) {
	testCases := []struct {
		s    string
		want uint32
	}{
		{"", 0},
		{"a", 97},
		{"ab", 3105},
		{"abc", 96354},
		{"hello", 99162322},
		{"€", 8364},
		{"data 1", 2956046651},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, hashString(tc.s), "hashString(%q)", tc.s)
	}
}

func TestHashStringSurrogatePairs(t *testing.T) {
	// U+1D11E (musical G clef) encodes as the surrogate pair D834 DD1E.
	want := 31*uint32(0xD834) + uint32(0xDD1E)
	require.Equal(t, want, hashString("\U0001D11E"))
}

func TestHashInteger(t *testing.T) {
	require.Equal(t, uint32(0), hashUint64(0))
	require.Equal(t, uint32(5), hashUint64(5))
	require.Equal(t, uint32(math.MaxUint32), hashUint64(math.MaxUint32))

	// Upper 32 bits fold in by XOR.
	require.Equal(t, uint32(7^1), hashUint64(1<<32|7))

	// Negative keys keep the familiar two's complement pattern.
	require.Equal(t, uint32(0xFFFFFFFB), hashInt64(-5))
	require.Equal(t, hashUint64(9), hashInt64(9))
}

func TestHashFloat(t *testing.T) {
	require.Equal(t, uint32(0), hashFloat(math.NaN()))
	require.Equal(t, uint32(0), hashFloat(math.Inf(1)))
	require.Equal(t, uint32(0), hashFloat(math.Inf(-1)))

	require.Equal(t, uint32(10), hashFloat(10))
	require.Equal(t, uint32(10), hashFloat(10.5), "fraction is discarded")
	require.Equal(t, hashInt64(-3), hashFloat(-3))

	// Integral floats hash the same as the equivalent integer key.
	require.Equal(t, hashUint64(1<<40|12), hashFloat(float64(1<<40|12)))
}

func TestBasicDigesterDeterminism(t *testing.T) {
	builder := newBasicDigesterBuilder()

	d1, err := builder.Digest(byteSliceHashable([]byte("payload")))
	require.NoError(t, err)
	d2, err := builder.Digest(byteSliceHashable([]byte("payload")))
	require.NoError(t, err)

	for level := 0; level < d1.Levels(); level++ {
		h1, err := d1.Digest(level)
		require.NoError(t, err)
		h2, err := d2.Digest(level)
		require.NoError(t, err)
		require.Equal(t, h1, h2)
	}
}

func TestBasicDigesterSeedChangesPlacement(t *testing.T) {
	unseeded := newBasicDigesterBuilder()
	seeded := newBasicDigesterBuilder()
	seeded.SetSeed(0x1234, 0x5678)

	du, err := unseeded.Digest(byteSliceHashable([]byte("payload")))
	require.NoError(t, err)
	ds, err := seeded.Digest(byteSliceHashable([]byte("payload")))
	require.NoError(t, err)

	hu, err := du.Digest(0)
	require.NoError(t, err)
	hs, err := ds.Digest(0)
	require.NoError(t, err)
	require.NotEqual(t, hu, hs)

	// The extended level is seed-independent blake3.
	eu, err := du.Digest(1)
	require.NoError(t, err)
	es, err := ds.Digest(1)
	require.NoError(t, err)
	require.Equal(t, eu, es)
}

func TestBasicDigesterLevelBounds(t *testing.T) {
	builder := newBasicDigesterBuilder()
	d, err := builder.Digest(byteSliceHashable([]byte("payload")))
	require.NoError(t, err)

	require.Equal(t, 2, d.Levels())

	_, err = d.Digest(-1)
	require.Error(t, err)
	_, err = d.Digest(2)
	require.Error(t, err)

	var hashErr *HashError
	require.ErrorAs(t, err, &hashErr)
	require.True(t, hashErr.IsFatal())
}
