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

// Command smoke drives randomized operation streams against the containers
// and cross-checks every result against in-process oracles. The stream is
// derived from a blake3 keystream over -seed, so a failing run is
// reproducible by rerunning with the same flags.
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	containerType = flag.String("type", "all", "container to exercise: hashtriemap, sortedmap, lru, or all")
	ops           = flag.Int("ops", 1_000_000, "number of operations per container")
	seed          = flag.String("seed", "otree-smoke", "keystream seed; equal seeds replay equal runs")
	keySpace      = flag.Int("keys", 1<<16, "distinct key space")
	checkInterval = flag.Int("check-interval", 100_000, "operations between full oracle checks")
	cacheSize     = flag.Int("cache-size", 1024, "suggested size of the LRU cache under test")
)

func main() {
	flag.Parse()

	run := func(name string, smoke func() error) {
		fmt.Printf("smoking %s: %d ops, key space %d, seed %q\n", name, *ops, *keySpace, *seed)
		if err := smoke(); err != nil {
			fmt.Fprintf(os.Stderr, "%s FAILED: %s\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("%s OK\n", name)
	}

	switch *containerType {
	case "hashtriemap":
		run("hashtriemap", smokeHashTrieMap)
	case "sortedmap":
		run("sortedmap", smokeSortedMap)
	case "lru":
		run("lru", smokeLruCache)
	case "all":
		run("hashtriemap", smokeHashTrieMap)
		run("sortedmap", smokeSortedMap)
		run("lru", smokeLruCache)
	default:
		fmt.Fprintf(os.Stderr, "unknown container type %q\n", *containerType)
		os.Exit(2)
	}
}
