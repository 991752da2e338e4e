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
	"strings"
)

func (m *HashTrieMap) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "HashTrieMap(count=%d)\n", m.count)
	dumpTrieNode(&sb, m.root, 1)
	return sb.String()
}

func dumpTrieNode(sb *strings.Builder, n *trieNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, payload := range n.slots {
		switch p := payload.(type) {
		case nil:
			continue
		case *trieNode:
			fmt.Fprintf(sb, "%s[%x] node\n", indent, i)
			dumpTrieNode(sb, p, depth+1)
		case *singleValueNode:
			fmt.Fprintf(sb, "%s[%x] %v: %v\n", indent, i, p.key, p.value)
		case *multiValueNode:
			fmt.Fprintf(sb, "%s[%x] collisions(%d)\n", indent, i, len(p.entries))
			for _, e := range p.entries {
				fmt.Fprintf(sb, "%s  %v: %v\n", indent, e.key, e.value)
			}
		}
	}
}

func (c *SortedCollection) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SortedCollection(count=%d)\n", c.count)
	dumpBTreeNode(&sb, c.root, 1)
	return sb.String()
}

func dumpBTreeNode(sb *strings.Builder, n *btreeNode, depth int) {
	fmt.Fprintf(sb, "%s%s\n", strings.Repeat("  ", depth), n)
	for _, child := range n.children {
		dumpBTreeNode(sb, child, depth+1)
	}
}
