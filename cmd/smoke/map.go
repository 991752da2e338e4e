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

package main

import (
	"fmt"

	"github.com/onflow/otree"
)

func smokeHashTrieMap() error {
	ks := newKeystream(*seed + "/hashtriemap")

	m := otree.NewHashTrieMap()
	oracle := make(map[uint32]uint64)

	check := func() error {
		if err := otree.VerifyHashTrieMap(m); err != nil {
			return err
		}
		if m.Count() != uint64(len(oracle)) {
			return fmt.Errorf("count is %d, oracle has %d", m.Count(), len(oracle))
		}
		for k, want := range oracle {
			got, found, err := m.Get(k)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("key %d is missing", k)
			}
			if got != want {
				return fmt.Errorf("key %d is %v, want %d", k, got, want)
			}
		}
		seen := 0
		it := m.Iterator()
		for {
			_, _, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			seen++
		}
		if seen != len(oracle) {
			return fmt.Errorf("iteration produced %d entries, oracle has %d", seen, len(oracle))
		}
		return nil
	}

	for i := 0; i < *ops; i++ {
		k := ks.key(*keySpace)
		if ks.op() != opRemove {
			v := ks.next()
			if err := m.Set(k, v); err != nil {
				return err
			}
			oracle[k] = v
		} else {
			removed, err := m.Remove(k)
			if err != nil {
				return err
			}
			_, inOracle := oracle[k]
			if removed != inOracle {
				return fmt.Errorf("remove of key %d reported %t, oracle says %t", k, removed, inOracle)
			}
			delete(oracle, k)
		}

		if (i+1)%*checkInterval == 0 {
			if err := check(); err != nil {
				return fmt.Errorf("after %d ops: %w", i+1, err)
			}
			fmt.Printf("  %d ops, %d live entries\n", i+1, m.Count())
		}
	}
	return check()
}

type smokeRecord struct {
	payload uint64
	order   uint32
}

func smokeSortedMap() error {
	ks := newKeystream(*seed + "/sortedmap")

	m, err := otree.NewSortedMap(func(v otree.Value) (otree.Value, error) {
		return v.(*smokeRecord).order, nil
	})
	if err != nil {
		return err
	}

	oracle := make(map[uint32]*smokeRecord)

	check := func() error {
		if err := otree.VerifySortedMap(m); err != nil {
			return err
		}
		if m.Count() != uint64(len(oracle)) {
			return fmt.Errorf("count is %d, oracle has %d", m.Count(), len(oracle))
		}
		for k, want := range oracle {
			got, found, err := m.Get(k)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("key %d is missing", k)
			}
			if got.(*smokeRecord) != want {
				return fmt.Errorf("key %d resolves to the wrong record", k)
			}
		}

		// Ordering keys mirror the unique map keys, so iteration must be
		// strictly increasing and cover the oracle exactly.
		it := m.Iterator()
		seen := 0
		prev := int64(-1)
		for {
			k, v, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			ord := int64(v.(*smokeRecord).order)
			if ord <= prev {
				return fmt.Errorf("ordering key %d out of order after %d", ord, prev)
			}
			prev = ord
			if oracle[k.(uint32)] != v.(*smokeRecord) {
				return fmt.Errorf("iteration resolves key %v to the wrong record", k)
			}
			seen++
		}
		if seen != len(oracle) {
			return fmt.Errorf("iteration produced %d entries, oracle has %d", seen, len(oracle))
		}
		return nil
	}

	for i := 0; i < *ops; i++ {
		k := ks.key(*keySpace)
		if ks.op() != opRemove {
			rec := &smokeRecord{payload: ks.next(), order: k}
			if err := m.Set(k, rec); err != nil {
				return err
			}
			oracle[k] = rec
		} else {
			if _, err := m.Remove(k); err != nil {
				return err
			}
			delete(oracle, k)
		}

		if (i+1)%*checkInterval == 0 {
			if err := check(); err != nil {
				return fmt.Errorf("after %d ops: %w", i+1, err)
			}
			fmt.Printf("  %d ops, %d live entries\n", i+1, m.Count())
		}
	}
	return check()
}

func smokeLruCache() error {
	ks := newKeystream(*seed + "/lru")

	c, err := otree.NewLruCache(uint64(*cacheSize))
	if err != nil {
		return err
	}

	touched := make(map[uint32]int)
	seq := 0

	check := func() error {
		limit := uint64(*cacheSize) + uint64(*cacheSize)/10
		if c.Count() > limit {
			return fmt.Errorf("count %d exceeds the slack limit %d", c.Count(), limit)
		}

		// Iteration runs from least to most recently touched.
		it := c.Iterator()
		prev := -1
		seen := 0
		for {
			k, _, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			s, live := touched[k.(uint32)]
			if !live {
				return fmt.Errorf("iterated key %v was never touched", k)
			}
			if s <= prev {
				return fmt.Errorf("recency %d out of order after %d", s, prev)
			}
			prev = s
			seen++
		}
		if seen != int(c.Count()) {
			return fmt.Errorf("iteration produced %d entries, count is %d", seen, c.Count())
		}
		return nil
	}

	for i := 0; i < *ops; i++ {
		k := ks.key(*keySpace)
		seq++
		switch ks.op() {
		case 0:
			if err := c.Set(k, ks.next()); err != nil {
				return err
			}
			touched[k] = seq
		case 1:
			_, found, err := c.Get(k)
			if err != nil {
				return err
			}
			if found {
				touched[k] = seq
			}
		default:
			_, found, err := c.Update(k, func(v otree.Value) (otree.Value, error) {
				return v, nil
			})
			if err != nil {
				return err
			}
			if found {
				touched[k] = seq
			}
		}

		if (i+1)%*checkInterval == 0 {
			if err := check(); err != nil {
				return fmt.Errorf("after %d ops: %w", i+1, err)
			}
			fmt.Printf("  %d ops, %d cached, %d evictions\n", i+1, c.Count(), c.Evictions())
		}
	}
	return check()
}
