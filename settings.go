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

const (
	// DefaultMaxItemsPerLevel is the branching factor used by NewSortedCollection.
	// Nodes are split only once they reach this occupancy, so a B-tree leaf
	// holds at most DefaultMaxItemsPerLevel values and an internal node at
	// most DefaultMaxItemsPerLevel children.
	DefaultMaxItemsPerLevel = 64

	// MinAllowedMaxItemsPerLevel is the smallest accepted branching factor.
	// The rebalancer's min/max arithmetic requires an even value of at least 4.
	MinAllowedMaxItemsPerLevel = 4
)

// Eviction slack for LruCache: eviction triggers only once the entry count
// exceeds suggestedSize * lruSlackNumerator / lruSlackDenominator, so a burst
// of inserts pays for one batched eviction instead of one per insert.
const (
	lruSlackNumerator   = 11
	lruSlackDenominator = 10
)

func validMaxItemsPerLevel(maxItemsPerLevel uint32) error {
	if maxItemsPerLevel < MinAllowedMaxItemsPerLevel {
		return NewParameterErrorf(
			"maxItemsPerLevel %d is below the minimum %d",
			maxItemsPerLevel,
			MinAllowedMaxItemsPerLevel,
		)
	}
	if maxItemsPerLevel%2 != 0 {
		return NewParameterErrorf("maxItemsPerLevel %d is odd", maxItemsPerLevel)
	}
	return nil
}
