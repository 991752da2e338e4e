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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainerHead(t *testing.T) {
	head := containerHead(flagHashTrieMap)
	require.Equal(t, encodingVersion, versionOf(head[0]))
	require.Equal(t, flagHashTrieMap, head[1])

	for _, kind := range []byte{flagHashTrieMap, flagSortedCollection, flagSortedMap, flagLruCache} {
		head := containerHead(kind)
		require.Equal(t, kind, head[1])
	}
}

func TestContainerKindsAreDistinct(t *testing.T) {
	kinds := []byte{flagHashTrieMap, flagSortedCollection, flagSortedMap, flagLruCache}
	seen := map[byte]bool{}
	for _, k := range kinds {
		require.False(t, seen[k])
		seen[k] = true
	}

	tags := []int{
		cborTagTrieNode, cborTagSingleValueNode, cborTagMultiValueNode,
		cborTagBTreeLeafNode, cborTagBTreeInnerNode,
		cborTagIntKey, cborTagUintKey, cborTagFloatKey, cborTagBytesKey,
	}
	seenTags := map[int]bool{}
	for _, tag := range tags {
		require.False(t, seenTags[tag])
		seenTags[tag] = true
	}
}
