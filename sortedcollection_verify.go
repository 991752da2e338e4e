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

import "fmt"

// VerifySortedCollection checks the collection's structural invariants:
// all leaves at equal depth, per-node occupancy within bounds, values in
// non-decreasing order across the whole tree, separator/children shape of
// internal nodes, and the stored count. It is meant for tests and debugging.
func VerifySortedCollection(c *SortedCollection) error {
	if !c.root.isRoot {
		return NewInconsistentStateError("root node is missing the root marker")
	}

	leafDepth := -1
	counted := uint64(0)
	var prev Value
	havePrev := false

	var walk func(n *btreeNode, depth int) error
	walk = func(n *btreeNode, depth int) error {
		if !n.isRoot {
			// Splits trigger at maxItemsPerLevel, so a node touched by an
			// insert can sit at exactly that occupancy until the next
			// descent through it.
			occ := n.occupancy()
			if occ < c.minItemsPerLevel || occ > c.maxItemsPerLevel {
				return NewInconsistentStateError(
					"node at depth %d has occupancy %d, want %d..%d",
					depth, occ, c.minItemsPerLevel, c.maxItemsPerLevel,
				)
			}
		}
		if n != c.root && n.isRoot {
			return NewInconsistentStateError("non-root node at depth %d carries the root marker", depth)
		}

		if n.isLeaf() {
			if leafDepth == -1 {
				leafDepth = depth
			} else if leafDepth != depth {
				return NewInconsistentStateError("leaf at depth %d, want %d", depth, leafDepth)
			}
			for _, v := range n.values {
				if err := checkOrder(c, &prev, &havePrev, v); err != nil {
					return err
				}
				counted++
			}
			return nil
		}

		if len(n.children) != len(n.values)+1 {
			return NewInconsistentStateError(
				"internal node at depth %d has %d children for %d values",
				depth, len(n.children), len(n.values),
			)
		}
		for i, child := range n.children {
			if child == nil {
				return NewInconsistentStateError("internal node at depth %d has nil child %d", depth, i)
			}
			if err := walk(child, depth+1); err != nil {
				return err
			}
			if i < len(n.values) {
				if err := checkOrder(c, &prev, &havePrev, n.values[i]); err != nil {
					return err
				}
				counted++
			}
		}
		return nil
	}

	if err := walk(c.root, 1); err != nil {
		return err
	}
	if counted != c.count {
		return NewInconsistentStateError("count is %d but tree holds %d values", c.count, counted)
	}
	return nil
}

func checkOrder(c *SortedCollection, prev *Value, havePrev *bool, v Value) error {
	if *havePrev {
		cmp, err := c.orderComparer(*prev, v)
		if err != nil {
			return err
		}
		if cmp > 0 {
			return NewInconsistentStateError("values %v and %v are out of order", *prev, v)
		}
	}
	*prev = v
	*havePrev = true
	return nil
}

func (n *btreeNode) String() string {
	if n.isLeaf() {
		return fmt.Sprintf("leaf%v", n.values)
	}
	return fmt.Sprintf("node(values=%v children=%d)", n.values, len(n.children))
}
