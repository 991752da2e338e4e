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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashTrieMapSetAndGet(t *testing.T) {

	t.Run("unique string keys", func(t *testing.T) {
		const mapSize = 16 * 1024

		r := newRand(t)

		uniqueKeyValues := make(map[string]uint64, mapSize)
		for i := uint64(0); len(uniqueKeyValues) < mapSize; i++ {
			uniqueKeyValues[randStr(r, 16)] = i
		}

		m := NewHashTrieMap()
		for k, v := range uniqueKeyValues {
			require.NoError(t, m.Set(k, v))
		}

		require.NoError(t, VerifyHashTrieMap(m))
		require.Equal(t, uint64(len(uniqueKeyValues)), m.Count())

		for k, v := range uniqueKeyValues {
			got, found, err := m.Get(k)
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, v, got)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		m := NewHashTrieMap()

		require.NoError(t, m.Set("k", uint64(1)))
		require.NoError(t, m.Set("k", uint64(2)))
		require.Equal(t, uint64(1), m.Count())

		got, found, err := m.Get("k")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, uint64(2), got)
	})

	t.Run("integer keys", func(t *testing.T) {
		m := NewHashTrieMap()

		for i := int64(-500); i < 500; i++ {
			require.NoError(t, m.Set(i, i*2))
		}
		require.NoError(t, VerifyHashTrieMap(m))
		require.Equal(t, uint64(1000), m.Count())

		for i := int64(-500); i < 500; i++ {
			got, found, err := m.Get(i)
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, i*2, got)
		}

		// Numeric keys compare by value across kinds.
		got, found, err := m.Get(int32(42))
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, int64(84), got)
	})

	t.Run("byte slice keys", func(t *testing.T) {
		m := NewHashTrieMap()

		require.NoError(t, m.Set([]byte{1, 2, 3}, "a"))
		require.NoError(t, m.Set([]byte{1, 2, 4}, "b"))
		require.NoError(t, VerifyHashTrieMap(m))

		got, found, err := m.Get([]byte{1, 2, 3})
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "a", got)

		_, found, err = m.Get([]byte{1, 2, 5})
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("invalid key type", func(t *testing.T) {
		m := NewHashTrieMap()

		err := m.Set(struct{ x int }{1}, "v")
		var keyTypeErr *KeyTypeError
		require.ErrorAs(t, err, &keyTypeErr)
		require.True(t, keyTypeErr.IsFatal())
	})
}

func TestHashTrieMapRemove(t *testing.T) {

	t.Run("present and absent", func(t *testing.T) {
		m := NewHashTrieMap()

		require.NoError(t, m.Set("a", 1))
		require.NoError(t, m.Set("b", 2))

		removed, err := m.Remove("a")
		require.NoError(t, err)
		require.True(t, removed)
		require.Equal(t, uint64(1), m.Count())

		// Removing an absent key is a no-op and does not change size.
		removed, err = m.Remove("a")
		require.NoError(t, err)
		require.False(t, removed)
		require.Equal(t, uint64(1), m.Count())

		_, found, err := m.Get("a")
		require.NoError(t, err)
		require.False(t, found)

		require.NoError(t, VerifyHashTrieMap(m))
	})

	t.Run("random", func(t *testing.T) {
		const mapSize = 4 * 1024

		r := newRand(t)

		m := NewHashTrieMap()
		oracle := make(map[int64]int, mapSize)

		for i := 0; i < mapSize; i++ {
			k := r.Int63()
			oracle[k] = i
			require.NoError(t, m.Set(k, i))
		}

		removed := 0
		for k := range oracle {
			if removed == len(oracle)/2 {
				break
			}
			ok, err := m.Remove(k)
			require.NoError(t, err)
			require.True(t, ok)
			delete(oracle, k)
			removed++
		}

		require.NoError(t, VerifyHashTrieMap(m))
		require.Equal(t, uint64(len(oracle)), m.Count())

		for k, v := range oracle {
			got, found, err := m.Get(k)
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, v, got)
		}
	})
}

func TestHashTrieMapUpdate(t *testing.T) {
	m := NewHashTrieMap()

	require.NoError(t, m.Set("k", 10))

	v, found, err := m.Update("k", func(old Value) (Value, error) {
		return old.(int) + 1, nil
	})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 11, v)

	got, _, err := m.Get("k")
	require.NoError(t, err)
	require.Equal(t, 11, got)

	// Updating an absent key is a no-op.
	_, found, err = m.Update("missing", func(old Value) (Value, error) {
		t.Fatal("callback invoked for absent key")
		return nil, nil
	})
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, uint64(1), m.Count())
}

// constantHasher forces every key into the same slot chain so collisions
// go through the push-down path and, at the bottom, the multi-value node.
func constantHasher(hash uint32) func(Key) (keyDigest, error) {
	return func(Key) (keyDigest, error) {
		return keyDigest{hash: hash}, nil
	}
}

func TestHashTrieMapFullHashCollision(t *testing.T) {

	t.Run("set get remove", func(t *testing.T) {
		m := NewHashTrieMap()
		SetHashTrieMapHasher(m, constantHasher(0))

		require.NoError(t, m.Set(0, "v1"))
		require.NoError(t, m.Set(1, "v2"))
		require.Equal(t, uint64(2), m.Count())
		require.NoError(t, VerifyHashTrieMap(m))

		got, found, err := m.Get(0)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "v1", got)

		got, found, err = m.Get(1)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "v2", got)

		removed, err := m.Remove(0)
		require.NoError(t, err)
		require.True(t, removed)
		require.Equal(t, uint64(1), m.Count())

		_, found, err = m.Get(0)
		require.NoError(t, err)
		require.False(t, found)

		removed, err = m.Remove(1)
		require.NoError(t, err)
		require.True(t, removed)
		require.Equal(t, uint64(0), m.Count())
		require.NoError(t, VerifyHashTrieMap(m))
	})

	t.Run("many colliding keys", func(t *testing.T) {
		const collisions = 64

		m := NewHashTrieMap()
		SetHashTrieMapHasher(m, constantHasher(0xABCD_1234))

		for i := 0; i < collisions; i++ {
			require.NoError(t, m.Set(int64(i), fmt.Sprintf("v%d", i)))
		}
		require.Equal(t, uint64(collisions), m.Count())
		require.NoError(t, VerifyHashTrieMap(m))

		for i := 0; i < collisions; i++ {
			got, found, err := m.Get(int64(i))
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, fmt.Sprintf("v%d", i), got)
		}

		for i := 0; i < collisions; i += 2 {
			removed, err := m.Remove(int64(i))
			require.NoError(t, err)
			require.True(t, removed)
		}
		require.Equal(t, uint64(collisions/2), m.Count())
		require.NoError(t, VerifyHashTrieMap(m))
	})

	t.Run("prefix collision pushes down", func(t *testing.T) {
		m := NewHashTrieMap()

		// Same low nibbles for three levels, then diverging.
		hashes := map[int64]uint32{
			1: 0x0000_0111,
			2: 0x0000_1111,
			3: 0x0000_2111,
		}
		SetHashTrieMapHasher(m, func(k Key) (keyDigest, error) {
			i, _ := intValue(k)
			return keyDigest{hash: hashes[i]}, nil
		})

		for k := range hashes {
			require.NoError(t, m.Set(k, k))
		}
		require.Equal(t, uint64(3), m.Count())
		require.NoError(t, VerifyHashTrieMap(m))

		for k := range hashes {
			got, found, err := m.Get(k)
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, k, got)
		}
	})
}

func TestHashTrieMapIterate(t *testing.T) {

	t.Run("stable order", func(t *testing.T) {
		const mapSize = 2 * 1024

		r := newRand(t)

		m := NewHashTrieMap()
		for i := 0; i < mapSize; i++ {
			require.NoError(t, m.Set(randStr(r, 8), i))
		}

		keys1, values1 := drainEntryIterator(t, m.Iterator())
		keys2, values2 := drainEntryIterator(t, m.Iterator())

		require.Equal(t, keys1, keys2)
		require.Equal(t, values1, values2)
		require.Equal(t, int(m.Count()), len(keys1))
	})

	t.Run("covers all entries", func(t *testing.T) {
		m := NewHashTrieMap()
		expected := make(map[int64]int)

		for i := 0; i < 1000; i++ {
			expected[int64(i)] = i
			require.NoError(t, m.Set(int64(i), i))
		}

		seen := make(map[int64]int)
		keys, values := drainEntryIterator(t, m.Iterator())
		for i, k := range keys {
			seen[k.(int64)] = values[i].(int)
		}
		require.Equal(t, expected, seen)
	})

	t.Run("collision entries keep insertion order", func(t *testing.T) {
		m := NewHashTrieMap()
		SetHashTrieMapHasher(m, constantHasher(7))

		for i := 0; i < 10; i++ {
			require.NoError(t, m.Set(int64(i), i))
		}

		keys, _ := drainEntryIterator(t, m.Iterator())
		require.Len(t, keys, 10)
		for i, k := range keys {
			require.Equal(t, int64(i), k)
		}
	})
}
