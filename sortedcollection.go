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

// btreeNode is one level of the collection's B-tree. A leaf holds only
// values; an internal node additionally holds len(values)+1 children, with
// values[i] separating children[i] and children[i+1]. The root carries a
// marker flag so the rebalancer can stop without consulting a parent.
type btreeNode struct {
	values   []Value
	children []*btreeNode // nil for a leaf
	isRoot   bool
}

func (n *btreeNode) isLeaf() bool {
	return n.children == nil
}

// occupancy is the quantity bounded by the branching factor: child count
// for internal nodes, value count for leaves.
func (n *btreeNode) occupancy() int {
	if n.children != nil {
		return len(n.children)
	}
	return len(n.values)
}

// pathStep addresses one frame on a root-to-value path. For every step but
// the last, index is the child slot the search descended into; for the last
// step it is the value's position within its node.
type pathStep struct {
	node  *btreeNode
	index int
}

// ValuePath is the result of LookupValuePath: the frames from the root to
// the node holding the value. A path is only valid until the next mutation
// of the collection.
type ValuePath []pathStep

// SortedCollection is a B-tree of values totally ordered by an
// OrderComparator. Duplicate ordering keys are allowed; elements that
// compare equal are told apart by an EqualityComparator. Insertion order
// breaks ordering ties to the right.
type SortedCollection struct {
	root             *btreeNode
	count            uint64
	orderComparer    OrderComparator
	equalityComparer EqualityComparator
	maxItemsPerLevel int
	minItemsPerLevel int
}

// NewSortedCollection creates an empty collection ordered by orderComparer,
// with interface-identity equality and the default branching factor.
func NewSortedCollection(orderComparer OrderComparator) (*SortedCollection, error) {
	return NewSortedCollectionWithOptions(orderComparer, nil, DefaultMaxItemsPerLevel)
}

// NewSortedCollectionWithOptions creates an empty collection.
// equalityComparer may be nil, in which case values are equal iff they are
// the same value under Go interface equality. maxItemsPerLevel must be even
// and at least MinAllowedMaxItemsPerLevel.
func NewSortedCollectionWithOptions(
	orderComparer OrderComparator,
	equalityComparer EqualityComparator,
	maxItemsPerLevel uint32,
) (*SortedCollection, error) {
	if orderComparer == nil {
		return nil, NewParameterError("orderComparer is nil")
	}
	if err := validMaxItemsPerLevel(maxItemsPerLevel); err != nil {
		return nil, err
	}
	if equalityComparer == nil {
		equalityComparer = DefaultEqualityComparator
	}
	return &SortedCollection{
		root:             &btreeNode{isRoot: true},
		orderComparer:    orderComparer,
		equalityComparer: equalityComparer,
		maxItemsPerLevel: int(maxItemsPerLevel),
		minItemsPerLevel: int(maxItemsPerLevel) / 2,
	}, nil
}

// Count returns the number of values in the collection.
func (c *SortedCollection) Count() uint64 {
	return c.count
}

func (c *SortedCollection) isFull(n *btreeNode) bool {
	return n.occupancy() >= c.maxItemsPerLevel
}

// insertionIndex returns the position at which value splices into values,
// with equal values piling up to the right so insertion is stable. The two
// endpoint checks keep monotonically increasing and decreasing insertion
// sequences from paying for a full binary search.
func (c *SortedCollection) insertionIndex(values []Value, value Value) (int, error) {
	n := len(values)
	if n == 0 {
		return 0, nil
	}

	cmp, err := c.orderComparer(value, values[0])
	if err != nil {
		return 0, err
	}
	if cmp < 0 {
		return 0, nil
	}

	cmp, err = c.orderComparer(value, values[n-1])
	if err != nil {
		return 0, err
	}
	if cmp >= 0 {
		return n, nil
	}

	// First index whose value is strictly greater, in [1, n-1].
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi) / 2
		cmp, err := c.orderComparer(value, values[mid])
		if err != nil {
			return 0, err
		}
		if cmp < 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, nil
}

// lowerBound returns the first index whose value is not less than value.
func (c *SortedCollection) lowerBound(values []Value, value Value) (int, error) {
	lo, hi := 0, len(values)
	for lo < hi {
		mid := (lo + hi) / 2
		cmp, err := c.orderComparer(values[mid], value)
		if err != nil {
			return 0, err
		}
		if cmp < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// splitShape returns the separator index for splitting a full child at
// childIdx of a parent with childCount children. A rightmost leaf splits
// left-heavy and a leftmost leaf right-heavy, so runs of in-order (or
// reverse-order) insertions keep filling nearly-full nodes instead of
// leaving half-empty ones behind. Rightmost-ness is judged against the
// immediate parent only. Internal nodes always split at the midpoint.
func splitShape(child *btreeNode, childIdx int, childCount int) int {
	if child.isLeaf() {
		switch {
		case childIdx == childCount-1:
			return len(child.values) - 2 // left-heavy
		case childIdx == 0:
			return 1 // right-heavy
		}
	}
	return len(child.values) / 2 // balanced
}

// splitNode splits node at the separator index midIdx. node keeps the left
// half; the separator and a fresh right node are returned.
func splitNode(node *btreeNode, midIdx int) (Value, *btreeNode) {
	leftValues, sep, rightValues := splitAroundSeparator(node.values, midIdx)
	node.values = leftValues

	right := &btreeNode{values: rightValues}
	if node.children != nil {
		leftChildren, rightChildren := split(node.children, midIdx+1)
		node.children = leftChildren
		right.children = rightChildren
	}
	return sep, right
}

// splitChild splits the full child at childIdx of parent, splicing the
// separator and the new right sibling into the parent.
func (c *SortedCollection) splitChild(parent *btreeNode, childIdx int) {
	child := parent.children[childIdx]
	midIdx := splitShape(child, childIdx, len(parent.children))

	sep, right := splitNode(child, midIdx)
	parent.values = insertAt(parent.values, childIdx, sep)
	parent.children = insertAt(parent.children, childIdx+1, right)
}

// splitRoot splits the full root in place, preserving the root marker:
// the root's contents move into a fresh left node and the root keeps only
// the separator and the two halves as children.
func (c *SortedCollection) splitRoot() {
	root := c.root

	left := &btreeNode{values: root.values, children: root.children}
	sep, right := splitNode(left, len(left.values)/2)

	root.values = []Value{sep}
	root.children = []*btreeNode{left, right}
}

// Insert adds value to the collection. Insertion is top-down: any full node
// met on the way to the leaf is split preemptively and the descent restarts
// from its parent, so a split never propagates back upward.
func (c *SortedCollection) Insert(value Value) error {
	node := c.root
	var path []pathStep

	for {
		if c.isFull(node) {
			if node.isRoot {
				c.splitRoot()
				continue
			}
			parentStep := path[len(path)-1]
			c.splitChild(parentStep.node, parentStep.index)
			path = path[:len(path)-1]
			node = parentStep.node
			continue
		}

		idx, err := c.insertionIndex(node.values, value)
		if err != nil {
			return err
		}

		if node.isLeaf() {
			node.values = insertAt(node.values, idx, value)
			c.count++
			return nil
		}

		path = append(path, pathStep{node: node, index: idx})
		node = node.children[idx]
	}
}

// LookupValuePath finds a value equal to the argument under the equality
// comparer and returns the path to it. Because duplicates share an ordering
// key, the search widens from the lower bound across every order-equal
// position (and the subtrees between them) until the equality comparer
// accepts one.
func (c *SortedCollection) LookupValuePath(value Value) (ValuePath, bool, error) {
	if c.count == 0 {
		return nil, false, nil
	}
	return c.lookupInNode(c.root, value, nil)
}

func (c *SortedCollection) lookupInNode(node *btreeNode, value Value, prefix ValuePath) (ValuePath, bool, error) {
	idx, err := c.lowerBound(node.values, value)
	if err != nil {
		return nil, false, err
	}

	// Forward over order-equal positions, descending into the subtree to
	// the left of each one.
	for i := idx; ; i++ {
		if !node.isLeaf() {
			path, found, err := c.lookupInNode(node.children[i], value, append(prefix, pathStep{node: node, index: i}))
			if err != nil {
				return nil, false, err
			}
			if found {
				return path, true, nil
			}
		}
		if i >= len(node.values) {
			break
		}
		cmp, err := c.orderComparer(value, node.values[i])
		if err != nil {
			return nil, false, err
		}
		if cmp != 0 {
			break
		}
		eq, err := c.equalityComparer(node.values[i], value)
		if err != nil {
			return nil, false, err
		}
		if eq {
			return append(prefix, pathStep{node: node, index: i}), true, nil
		}
	}

	// Backward symmetrically from the lower bound.
	for i := idx - 1; i >= 0; i-- {
		cmp, err := c.orderComparer(value, node.values[i])
		if err != nil {
			return nil, false, err
		}
		if cmp != 0 {
			break
		}
		eq, err := c.equalityComparer(node.values[i], value)
		if err != nil {
			return nil, false, err
		}
		if eq {
			return append(prefix, pathStep{node: node, index: i}), true, nil
		}
		if !node.isLeaf() {
			path, found, err := c.lookupInNode(node.children[i], value, append(prefix, pathStep{node: node, index: i}))
			if err != nil {
				return nil, false, err
			}
			if found {
				return path, true, nil
			}
		}
	}

	return nil, false, nil
}

// Remove deletes one occurrence of value and reports whether one was found.
func (c *SortedCollection) Remove(value Value) (bool, error) {
	path, found, err := c.LookupValuePath(value)
	if err != nil || !found {
		return false, err
	}
	return true, c.removeAtPath(path)
}

// removeAtPath splices the value addressed by path out of the tree.
// An internal removal is converted into a leaf removal by pulling up the
// in-order predecessor (or, defensively, the successor); rebalancing then
// starts from the leaf the donor left.
func (c *SortedCollection) removeAtPath(path ValuePath) error {
	last := path[len(path)-1]
	node, valueIdx := last.node, last.index

	ancestors := make([]pathStep, len(path)-1, len(path)+4)
	copy(ancestors, path[:len(path)-1])

	if node.isLeaf() {
		node.values = removeAt(node.values, valueIdx)
		c.count--
		return c.rebalance(ancestors, node)
	}

	donorLeaf := node.children[valueIdx]
	if len(donorLeaf.values) > 0 {
		// Rightmost value of the left subtree.
		ancestors = append(ancestors, pathStep{node: node, index: valueIdx})
		for !donorLeaf.isLeaf() {
			ancestors = append(ancestors, pathStep{node: donorLeaf, index: len(donorLeaf.children) - 1})
			donorLeaf = donorLeaf.children[len(donorLeaf.children)-1]
		}
		var donor Value
		donor, donorLeaf.values = popLast(donorLeaf.values)
		node.values[valueIdx] = donor
	} else {
		// Left subtree was drained by an earlier rebalance; take the
		// leftmost value of the right subtree instead.
		ancestors = append(ancestors, pathStep{node: node, index: valueIdx + 1})
		donorLeaf = node.children[valueIdx+1]
		for !donorLeaf.isLeaf() {
			ancestors = append(ancestors, pathStep{node: donorLeaf, index: 0})
			donorLeaf = donorLeaf.children[0]
		}
		var donor Value
		donor, donorLeaf.values = shiftFirst(donorLeaf.values)
		node.values[valueIdx] = donor
	}

	c.count--
	return c.rebalance(ancestors, donorLeaf)
}

// rebalance restores the minimum-occupancy invariant from node upward.
// Rotation from a sibling with slack is preferred; otherwise the node is
// merged with a sibling and the deficit moves to the parent.
func (c *SortedCollection) rebalance(ancestors []pathStep, node *btreeNode) error {
	for {
		if node.isRoot || node.occupancy() >= c.minItemsPerLevel {
			return nil
		}

		parentStep := ancestors[len(ancestors)-1]
		parent, childIdx := parentStep.node, parentStep.index

		var leftSibling, rightSibling *btreeNode
		if childIdx > 0 {
			leftSibling = parent.children[childIdx-1]
		}
		if childIdx+1 < len(parent.children) {
			rightSibling = parent.children[childIdx+1]
		}

		if rightSibling != nil && rightSibling.occupancy() > c.minItemsPerLevel {
			// Rotate from right: the parent separator comes down to the
			// node's right end and the sibling's first value replaces it.
			node.values = append(node.values, parent.values[childIdx])
			var first Value
			first, rightSibling.values = shiftFirst(rightSibling.values)
			parent.values[childIdx] = first
			if node.children != nil {
				var firstChild *btreeNode
				firstChild, rightSibling.children = shiftFirst(rightSibling.children)
				node.children = append(node.children, firstChild)
			}
			return nil
		}

		if leftSibling != nil && leftSibling.occupancy() > c.minItemsPerLevel {
			node.values = insertAt(node.values, 0, parent.values[childIdx-1])
			var last Value
			last, leftSibling.values = popLast(leftSibling.values)
			parent.values[childIdx-1] = last
			if node.children != nil {
				var lastChild *btreeNode
				lastChild, leftSibling.children = popLast(leftSibling.children)
				node.children = insertAt(node.children, 0, lastChild)
			}
			return nil
		}

		// No sibling has slack: merge. The left sibling survives when there
		// is one; otherwise the node absorbs its right sibling.
		var survivor *btreeNode
		if leftSibling != nil {
			leftSibling.values = append(leftSibling.values, parent.values[childIdx-1])
			leftSibling.values = merge(leftSibling.values, node.values)
			if node.children != nil {
				leftSibling.children = merge(leftSibling.children, node.children)
			}
			parent.values = removeAt(parent.values, childIdx-1)
			parent.children = removeAt(parent.children, childIdx)
			survivor = leftSibling
		} else {
			node.values = append(node.values, parent.values[childIdx])
			node.values = merge(node.values, rightSibling.values)
			if node.children != nil {
				node.children = merge(node.children, rightSibling.children)
			}
			parent.values = removeAt(parent.values, childIdx)
			parent.children = removeAt(parent.children, childIdx+1)
			survivor = node
		}

		if parent.isRoot && len(parent.values) == 0 {
			// The root lost its last separator: the survivor becomes the
			// new root, keeping the marker on the root node itself.
			parent.values = survivor.values
			parent.children = survivor.children
			return nil
		}

		node = parent
		ancestors = ancestors[:len(ancestors)-1]
	}
}

// precedingValue returns the in-order predecessor of the value addressed by
// path, if any.
func (c *SortedCollection) precedingValue(path ValuePath) (Value, bool) {
	last := path[len(path)-1]
	node, valueIdx := last.node, last.index

	if !node.isLeaf() {
		pred := node.children[valueIdx]
		for !pred.isLeaf() {
			pred = pred.children[len(pred.children)-1]
		}
		if len(pred.values) == 0 {
			return nil, false
		}
		return pred.values[len(pred.values)-1], true
	}

	if valueIdx > 0 {
		return node.values[valueIdx-1], true
	}
	for i := len(path) - 2; i >= 0; i-- {
		if path[i].index > 0 {
			return path[i].node.values[path[i].index-1], true
		}
	}
	return nil, false
}

// succeedingValue returns the in-order successor of the value addressed by
// path, if any.
func (c *SortedCollection) succeedingValue(path ValuePath) (Value, bool) {
	last := path[len(path)-1]
	node, valueIdx := last.node, last.index

	if !node.isLeaf() {
		succ := node.children[valueIdx+1]
		for !succ.isLeaf() {
			succ = succ.children[0]
		}
		if len(succ.values) == 0 {
			return nil, false
		}
		return succ.values[0], true
	}

	if valueIdx < len(node.values)-1 {
		return node.values[valueIdx+1], true
	}
	for i := len(path) - 2; i >= 0; i-- {
		step := path[i]
		if step.index < len(step.node.values) {
			return step.node.values[step.index], true
		}
	}
	return nil, false
}

// EnsureSortedOrderOfNode restores the ordering invariant for a value whose
// ordering key may have been mutated in place. The value is re-inserted only
// when it has escaped the window between its in-order neighbors, so an
// update that does not change the ordering costs two comparisons.
func (c *SortedCollection) EnsureSortedOrderOfNode(path ValuePath) error {
	if len(path) == 0 {
		return nil
	}
	last := path[len(path)-1]
	value := last.node.values[last.index]

	inOrder := true

	if pred, ok := c.precedingValue(path); ok {
		cmp, err := c.orderComparer(value, pred)
		if err != nil {
			return err
		}
		if cmp < 0 {
			inOrder = false
		}
	}
	if inOrder {
		if succ, ok := c.succeedingValue(path); ok {
			cmp, err := c.orderComparer(value, succ)
			if err != nil {
				return err
			}
			if cmp > 0 {
				inOrder = false
			}
		}
	}
	if inOrder {
		return nil
	}

	if err := c.removeAtPath(path); err != nil {
		return err
	}
	return c.Insert(value)
}

// Update applies fn to the stored value equal to the argument, stores the
// result, and restores ordering if fn changed the ordering key. It returns
// the resulting value and whether the value was found.
func (c *SortedCollection) Update(value Value, fn UpdateFunc) (Value, bool, error) {
	path, found, err := c.LookupValuePath(value)
	if err != nil || !found {
		return nil, false, err
	}

	last := path[len(path)-1]
	newValue, err := fn(last.node.values[last.index])
	if err != nil {
		return nil, false, err
	}
	last.node.values[last.index] = newValue

	if err := c.EnsureSortedOrderOfNode(path); err != nil {
		return nil, false, err
	}
	return newValue, true, nil
}

// First returns the smallest value, or false for an empty collection.
func (c *SortedCollection) First() (Value, bool) {
	if c.count == 0 {
		return nil, false
	}
	node := c.root
	for !node.isLeaf() {
		node = node.children[0]
	}
	return node.values[0], true
}

// Last returns the largest value, or false for an empty collection.
func (c *SortedCollection) Last() (Value, bool) {
	if c.count == 0 {
		return nil, false
	}
	node := c.root
	for !node.isLeaf() {
		node = node.children[len(node.children)-1]
	}
	return node.values[len(node.values)-1], true
}
