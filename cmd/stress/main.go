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

// Command stress runs an open-ended mixed workload against one container,
// reporting throughput and re-checking structural invariants at intervals.
// Unlike smoke it favors volume over oracle precision; use it to soak the
// containers for hours.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/onflow/otree"
)

var (
	containerType  = flag.String("type", "sortedmap", "container to stress: hashtriemap, sortedmap, or lru")
	duration       = flag.Duration("duration", 0, "how long to run; 0 runs until interrupted")
	keySpace       = flag.Int("keys", 1<<20, "distinct key space")
	reportInterval = flag.Duration("report-interval", 10*time.Second, "time between progress reports")
	verifyOps      = flag.Int("verify-ops", 1_000_000, "operations between invariant checks")
	cacheSize      = flag.Int("cache-size", 64*1024, "suggested size of the LRU cache under test")
	randSeed       = flag.Int64("seed", 0, "seed for the random source; 0 picks one from the clock")
)

func main() {
	flag.Parse()

	if *randSeed == 0 {
		*randSeed = time.Now().UnixNano()
	}
	fmt.Printf("stressing %s: key space %d, seed %d\n", *containerType, *keySpace, *randSeed)
	r := rand.New(rand.NewSource(*randSeed))

	var step func() error
	var verify func() error
	var status func() string

	switch *containerType {
	case "hashtriemap":
		m := otree.NewHashTrieMap()
		step = func() error {
			k := uint32(r.Intn(*keySpace))
			if r.Intn(3) != 2 {
				return m.Set(k, uint64(k))
			}
			_, err := m.Remove(k)
			return err
		}
		verify = func() error { return otree.VerifyHashTrieMap(m) }
		status = func() string { return fmt.Sprintf("%d live entries", m.Count()) }

	case "sortedmap":
		m, err := otree.NewSortedMap(func(v otree.Value) (otree.Value, error) {
			return v.(uint32), nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		step = func() error {
			k := uint32(r.Intn(*keySpace))
			switch r.Intn(3) {
			case 0, 1:
				return m.Set(k, k)
			default:
				_, err := m.Remove(k)
				return err
			}
		}
		verify = func() error { return otree.VerifySortedMap(m) }
		status = func() string { return fmt.Sprintf("%d live entries", m.Count()) }

	case "lru":
		c, err := otree.NewLruCache(uint64(*cacheSize))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		step = func() error {
			k := uint32(r.Intn(*keySpace))
			switch r.Intn(4) {
			case 0, 1:
				return c.Set(k, uint64(k))
			case 2:
				_, _, err := c.Get(k)
				return err
			default:
				_, _, err := c.Peek(k)
				return err
			}
		}
		verify = func() error {
			limit := uint64(*cacheSize) + uint64(*cacheSize)/10
			if c.Count() > limit {
				return fmt.Errorf("count %d exceeds the slack limit %d", c.Count(), limit)
			}
			return nil
		}
		status = func() string {
			return fmt.Sprintf("%d cached, %d evictions", c.Count(), c.Evictions())
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown container type %q\n", *containerType)
		os.Exit(2)
	}

	start := time.Now()
	lastReport := start
	opsSinceReport := 0
	totalOps := 0

	for {
		if err := step(); err != nil {
			fmt.Fprintf(os.Stderr, "FAILED after %d ops: %s\n", totalOps, err)
			os.Exit(1)
		}
		opsSinceReport++
		totalOps++

		if totalOps%*verifyOps == 0 {
			if err := verify(); err != nil {
				fmt.Fprintf(os.Stderr, "INVARIANT VIOLATION after %d ops: %s\n", totalOps, err)
				os.Exit(1)
			}
		}

		if now := time.Now(); now.Sub(lastReport) >= *reportInterval {
			elapsed := now.Sub(lastReport).Seconds()
			fmt.Printf("%s: %d ops total, %.0f ops/sec, %s\n",
				time.Since(start).Round(time.Second), totalOps,
				float64(opsSinceReport)/elapsed, status())
			lastReport = now
			opsSinceReport = 0
		}

		if *duration > 0 && time.Since(start) >= *duration {
			fmt.Printf("done: %d ops in %s, %s\n", totalOps, time.Since(start).Round(time.Second), status())
			return
		}
	}
}
