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

// btreeIteratorFrame is one suspended level of an in-order traversal.
// index is the next value to produce; onChildren marks that the subtree
// on the near side of that value has not been entered yet.
type btreeIteratorFrame struct {
	node       *btreeNode
	index      int
	onChildren bool
}

// SortedCollectionIterator is a resumable in-order (or reverse in-order)
// traversal holding an explicit stack of frames. Creating a new iterator
// from an unchanged collection always replays the same sequence.
type SortedCollectionIterator struct {
	stack      []btreeIteratorFrame
	descending bool
}

var _ Iterator = &SortedCollectionIterator{}

// Iterator returns a fresh forward traversal producing values in
// non-decreasing order.
func (c *SortedCollection) Iterator() *SortedCollectionIterator {
	return &SortedCollectionIterator{
		stack: []btreeIteratorFrame{{
			node:       c.root,
			index:      0,
			onChildren: !c.root.isLeaf(),
		}},
	}
}

// DescendingIterator returns a fresh backward traversal producing values in
// non-increasing order.
func (c *SortedCollection) DescendingIterator() *SortedCollectionIterator {
	return &SortedCollectionIterator{
		stack: []btreeIteratorFrame{{
			node:       c.root,
			index:      len(c.root.values) - 1,
			onChildren: !c.root.isLeaf(),
		}},
		descending: true,
	}
}

// Next returns the next value in traversal order. ok is false once the
// collection is exhausted.
func (it *SortedCollectionIterator) Next() (Value, bool, error) {
	if it.descending {
		return it.nextDescending()
	}
	return it.nextAscending()
}

func (it *SortedCollectionIterator) nextAscending() (Value, bool, error) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		if top.node.isLeaf() {
			if top.index < len(top.node.values) {
				v := top.node.values[top.index]
				top.index++
				return v, true, nil
			}
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}

		if top.onChildren {
			top.onChildren = false
			child := top.node.children[top.index]
			it.stack = append(it.stack, btreeIteratorFrame{
				node:       child,
				index:      0,
				onChildren: !child.isLeaf(),
			})
			continue
		}

		if top.index < len(top.node.values) {
			v := top.node.values[top.index]
			top.index++
			top.onChildren = true
			return v, true, nil
		}

		it.stack = it.stack[:len(it.stack)-1]
	}
	return nil, false, nil
}

func (it *SortedCollectionIterator) nextDescending() (Value, bool, error) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		if top.node.isLeaf() {
			if top.index >= 0 {
				v := top.node.values[top.index]
				top.index--
				return v, true, nil
			}
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}

		if top.onChildren {
			top.onChildren = false
			child := top.node.children[top.index+1]
			it.stack = append(it.stack, btreeIteratorFrame{
				node:       child,
				index:      len(child.values) - 1,
				onChildren: !child.isLeaf(),
			})
			continue
		}

		if top.index >= 0 {
			v := top.node.values[top.index]
			top.index--
			top.onChildren = true
			return v, true, nil
		}

		it.stack = it.stack[:len(it.stack)-1]
	}
	return nil, false, nil
}
