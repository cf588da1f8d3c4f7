// Copyright 2022 the Fastbloom authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fastbloom

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// The two xxh3-64 seeds. Filters exchanged between processes rely on
// these exact values; changing either is a format break.
const (
	hashSeed1 = 0
	hashSeed2 = 32
)

// doubleHash computes the two base hashes of an element, each reduced
// modulo m. The k bit positions of the element are h1 + i*h2 mod m for
// i in [0, k), following Kirsch and Mitzenmacher,
// https://www.eecs.harvard.edu/~michaelm/postscripts/rsa2008.pdf.
func doubleHash(element []byte, m uint64) (h1, h2 uint64) {
	h1 = xxh3.HashSeed(element, hashSeed1) % m
	h2 = xxh3.HashSeed(element, hashSeed2) % m
	return h1, h2
}

// setBits sets the k bit positions of element in v.
func setBits(v *bitvec, element []byte, m uint64, k uint32) {
	h1, h2 := doubleHash(element, m)
	for i := uint64(1); i < uint64(k); i++ {
		v.set((h1 + i*h2) % m)
	}
	v.set(h1)
}

// checkBits reports whether all k bit positions of element are set in v.
func checkBits(v *bitvec, element []byte, m uint64, k uint32) bool {
	h1, h2 := doubleHash(element, m)
	if !v.get(h1) {
		return false
	}
	for i := uint64(1); i < uint64(k); i++ {
		if !v.get((h1 + i*h2) % m) {
			return false
		}
	}
	return true
}

// hashIndices returns the ordered k-tuple of positions of element in a
// filter of size m.
func hashIndices(element []byte, m uint64, k uint32) []uint64 {
	h1, h2 := doubleHash(element, m)
	indices := make([]uint64, k)
	indices[0] = h1
	for i := uint64(1); i < uint64(k); i++ {
		indices[i] = (h1 + i*h2) % m
	}
	return indices
}

// Int32Bytes returns the little-endian encoding of v, the element
// representation used for 32-bit integer keys on all platforms.
func Int32Bytes(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

// Int64Bytes returns the little-endian encoding of v, the element
// representation used for 64-bit integer keys on all platforms.
func Int64Bytes(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}
