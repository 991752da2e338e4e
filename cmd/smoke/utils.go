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
	"encoding/binary"
	"io"

	"github.com/zeebo/blake3"
)

// keystream is a deterministic stream of random-looking integers expanded
// from a string seed with the blake3 XOF.
type keystream struct {
	xof io.Reader
	buf [8]byte
}

func newKeystream(seed string) *keystream {
	h := blake3.New()
	_, _ = h.Write([]byte(seed))
	return &keystream{xof: h.Digest()}
}

func (k *keystream) next() uint64 {
	if _, err := io.ReadFull(k.xof, k.buf[:]); err != nil {
		panic(err) // the XOF never runs dry
	}
	return binary.LittleEndian.Uint64(k.buf[:])
}

func (k *keystream) key(space int) uint32 {
	return uint32(k.next() % uint64(space))
}

// Inserts are twice as likely as removes, matching the insert-heavy
// workloads these containers are built for.
const opRemove = 2

func (k *keystream) op() uint64 {
	return k.next() % 3
}
