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
	"errors"
	"math"
)

var (
	// ErrExpectedElements is returned when the expected number of
	// elements is zero.
	ErrExpectedElements = errors.New("fastbloom: expected elements must be greater than zero")

	// ErrFalsePositive is returned when the false-positive probability
	// is outside the open interval (0, 1).
	ErrFalsePositive = errors.New("fastbloom: false-positive probability must be in the open interval (0, 1)")

	// ErrSize is returned when an explicit filter size is zero or not a
	// multiple of 64 bits.
	ErrSize = errors.New("fastbloom: size must be a positive multiple of 64 bits")

	// ErrHashes is returned when the number of hash functions is zero.
	ErrHashes = errors.New("fastbloom: number of hashes must be greater than zero")
)

// A FilterBuilder holds the parameters of a filter: the expected number
// of elements n, the tolerable false-positive probability p, the size of
// the filter in bits m and the number of hash functions k. Missing
// parameters are inferred when a filter is built: either (m, k) from
// (n, p), or (n, p) from (m, k).
type FilterBuilder struct {
	expectedElements         uint64
	falsePositiveProbability float64
	size                     uint64
	hashes                   uint32
	enableRepeatInsert       bool
	done                     bool
}

// optimalM calculates the optimal size m of the filter in bits given n
// (expected number of elements) and p (tolerable false-positive rate),
// rounded up so that m is a multiple of the word size.
func optimalM(n uint64, p float64) uint64 {
	m := uint64(math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)))
	if m&wordSuffix != 0 {
		m = m&^wordSuffix + wordBits
	}
	return m
}

// optimalK calculates the optimal number of hash functions given n and m.
func optimalK(n, m uint64) uint32 {
	return uint32(math.Ceil(float64(m) * math.Ln2 / float64(n)))
}

// optimalN calculates the number of elements for which a configuration
// of size m and k hashes is optimal.
func optimalN(k uint32, m uint64) uint64 {
	return uint64(math.Ceil(math.Ln2 * float64(m) / float64(k)))
}

// optimalP calculates the best-case false positive probability for k
// hashes, m bits and n inserted elements.
func optimalP(k uint32, m, n uint64) float64 {
	return math.Pow(1-math.Exp(-float64(k)*float64(n)/float64(m)), float64(k))
}

// NewFilterBuilder constructs a builder from the expected number of
// elements and the tolerable false-positive probability. The size of
// the filter in bits and the number of hash functions are inferred
// when a filter is built.
//
// Repeat insertion for counting filters defaults to enabled.
func NewFilterBuilder(expectedElements uint64, falsePositiveProbability float64) (*FilterBuilder, error) {
	if expectedElements == 0 {
		return nil, ErrExpectedElements
	}
	if falsePositiveProbability <= 0 || falsePositiveProbability >= 1 {
		return nil, ErrFalsePositive
	}

	return &FilterBuilder{
		expectedElements:         expectedElements,
		falsePositiveProbability: falsePositiveProbability,
		enableRepeatInsert:       true,
	}, nil
}

// FromSizeAndHashes constructs a builder from the size of the filter in
// bits and the number of hash functions. The expected number of elements
// and the false-positive probability are inferred from these. The size
// must be a positive multiple of 64.
func FromSizeAndHashes(size uint64, hashes uint32) (*FilterBuilder, error) {
	if size == 0 || size&wordSuffix != 0 {
		return nil, ErrSize
	}
	if hashes == 0 {
		return nil, ErrHashes
	}

	n := optimalN(hashes, size)
	return &FilterBuilder{
		expectedElements:         n,
		falsePositiveProbability: optimalP(hashes, size, n),
		size:                     size,
		hashes:                   hashes,
		enableRepeatInsert:       true,
		done:                     true,
	}, nil
}

// SetExpectedElements updates the expected number of elements. It has
// no effect on a builder whose size and hashes are already fixed.
func (b *FilterBuilder) SetExpectedElements(n uint64) error {
	if n == 0 {
		return ErrExpectedElements
	}
	b.expectedElements = n
	return nil
}

// SetFalsePositiveProbability updates the tolerable false-positive
// probability. It has no effect on a builder whose size and hashes are
// already fixed.
func (b *FilterBuilder) SetFalsePositiveProbability(p float64) error {
	if p <= 0 || p >= 1 {
		return ErrFalsePositive
	}
	b.falsePositiveProbability = p
	return nil
}

// SetEnableRepeatInsert controls whether a counting filter built from b
// counts repeated insertions of an element that is already present.
func (b *FilterBuilder) SetEnableRepeatInsert(enable bool) {
	b.enableRepeatInsert = enable
}

// ExpectedElements returns the expected number of elements n.
func (b *FilterBuilder) ExpectedElements() uint64 { return b.expectedElements }

// FalsePositiveProbability returns the false-positive probability p.
func (b *FilterBuilder) FalsePositiveProbability() float64 { return b.falsePositiveProbability }

// Size returns the size of the filter in bits. It is zero until the
// builder has been completed by building a filter.
func (b *FilterBuilder) Size() uint64 { return b.size }

// Hashes returns the number of hash functions. It is zero until the
// builder has been completed by building a filter.
func (b *FilterBuilder) Hashes() uint32 { return b.hashes }

// EnableRepeatInsert reports whether counting filters built from b count
// repeated insertions.
func (b *FilterBuilder) EnableRepeatInsert() bool { return b.enableRepeatInsert }

// complete infers the missing parameters. Once the size and hashes are
// fixed, completing again does not recompute them.
func (b *FilterBuilder) complete() {
	if !b.done {
		if b.size == 0 {
			b.size = optimalM(b.expectedElements, b.falsePositiveProbability)
			b.hashes = optimalK(b.expectedElements, b.size)
		}
		b.done = true
	}
}

// BuildBloomFilter completes the builder and constructs a Bloom filter
// from it.
func (b *FilterBuilder) BuildBloomFilter() *BloomFilter {
	b.complete()
	return newBloomFilter(*b)
}

// BuildCountingBloomFilter completes the builder and constructs a
// counting Bloom filter from it.
func (b *FilterBuilder) BuildCountingBloomFilter() *CountingBloomFilter {
	b.complete()
	return newCountingBloomFilter(*b)
}

// isCompatibleTo reports whether two configurations can be combined with
// union and intersect: the sizes and hash counts must be identical. The
// expected elements and false-positive probability are informational
// only.
func (b *FilterBuilder) isCompatibleTo(other *FilterBuilder) bool {
	return b.size == other.size && b.hashes == other.hashes
}
