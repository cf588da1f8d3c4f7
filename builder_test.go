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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimalParameters(t *testing.T) {
	t.Parallel()

	m := optimalM(100_000_000, 0.01)
	k := optimalK(100_000_000, m)
	assert.EqualValues(t, 958_505_856, m)
	assert.EqualValues(t, 7, k)

	n := optimalN(k, m)
	p := optimalP(k, m, n)
	assert.Greater(t, p, 0.0)
	assert.Less(t, p, 1.0)
}

func TestOptimalMWordAligned(t *testing.T) {
	t.Parallel()

	for _, n := range []uint64{1, 10, 1000, 10_000, 123_456} {
		for _, p := range []float64{0.5, 0.1, 0.01, 0.001, 1e-6} {
			m := optimalM(n, p)
			assert.Zero(t, m%wordBits, "n=%d p=%g m=%d", n, p, m)
			assert.NotZero(t, m)
		}
	}
}

// For fixed n, a stricter false-positive rate can only grow the filter.
func TestParameterMonotonicity(t *testing.T) {
	t.Parallel()

	const n = 10_000
	var prevM, prevK = uint64(0), uint32(0)
	for _, p := range []float64{0.1, 0.01, 0.001, 0.0001} {
		m := optimalM(n, p)
		k := optimalK(n, m)
		assert.GreaterOrEqual(t, m, prevM)
		assert.GreaterOrEqual(t, k, prevK)
		prevM, prevK = m, k
	}
}

func TestNewFilterBuilderValidation(t *testing.T) {
	t.Parallel()

	_, err := NewFilterBuilder(0, 0.01)
	assert.ErrorIs(t, err, ErrExpectedElements)

	for _, p := range []float64{0, 1, -0.5, 1.5} {
		_, err := NewFilterBuilder(1000, p)
		assert.ErrorIs(t, err, ErrFalsePositive, "p=%g", p)
	}

	b, err := NewFilterBuilder(1000, 0.01)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, b.ExpectedElements())
	assert.Equal(t, 0.01, b.FalsePositiveProbability())
	assert.True(t, b.EnableRepeatInsert())
	assert.Zero(t, b.Size())
	assert.Zero(t, b.Hashes())
}

func TestFromSizeAndHashes(t *testing.T) {
	t.Parallel()

	_, err := FromSizeAndHashes(0, 4)
	assert.ErrorIs(t, err, ErrSize)
	_, err = FromSizeAndHashes(1000, 4) // not a multiple of 64
	assert.ErrorIs(t, err, ErrSize)
	_, err = FromSizeAndHashes(1024, 0)
	assert.ErrorIs(t, err, ErrHashes)

	b, err := FromSizeAndHashes(1024, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 1024, b.Size())
	assert.EqualValues(t, 4, b.Hashes())
	assert.EqualValues(t, 178, b.ExpectedElements())
	assert.InDelta(t, 0.063, b.FalsePositiveProbability(), 0.001)
}

func TestBuilderCompleteIdempotent(t *testing.T) {
	t.Parallel()

	b, err := NewFilterBuilder(10_000, 0.01)
	require.NoError(t, err)
	f := b.BuildBloomFilter()
	m, k := b.Size(), b.Hashes()
	assert.NotZero(t, m)
	assert.NotZero(t, k)

	// Building again does not recompute the parameters, even after the
	// informational fields change.
	require.NoError(t, b.SetExpectedElements(999))
	require.NoError(t, b.SetFalsePositiveProbability(0.5))
	g := b.BuildBloomFilter()
	assert.Equal(t, m, b.Size())
	assert.Equal(t, k, b.Hashes())
	assert.Equal(t, f.NumBits(), g.NumBits())
}

func TestBuilderSetterValidation(t *testing.T) {
	t.Parallel()

	b, err := NewFilterBuilder(1000, 0.01)
	require.NoError(t, err)

	assert.ErrorIs(t, b.SetExpectedElements(0), ErrExpectedElements)
	assert.ErrorIs(t, b.SetFalsePositiveProbability(1), ErrFalsePositive)

	b.SetEnableRepeatInsert(false)
	assert.False(t, b.EnableRepeatInsert())
}

func TestBuilderCompatibility(t *testing.T) {
	t.Parallel()

	a, err := NewFilterBuilder(10_000, 0.01)
	require.NoError(t, err)
	b, err := NewFilterBuilder(10_000, 0.01)
	require.NoError(t, err)
	a.complete()
	b.complete()
	assert.True(t, a.isCompatibleTo(b))

	// Differing n and p are informational only.
	c, err := FromSizeAndHashes(a.Size(), a.Hashes())
	require.NoError(t, err)
	assert.True(t, a.isCompatibleTo(c))

	d, err := FromSizeAndHashes(a.Size(), a.Hashes()+1)
	require.NoError(t, err)
	assert.False(t, a.isCompatibleTo(d))

	e, err := FromSizeAndHashes(a.Size()+wordBits, a.Hashes())
	require.NoError(t, err)
	assert.False(t, a.isCompatibleTo(e))
}

func TestBuildBothKindsFromOneBuilder(t *testing.T) {
	t.Parallel()

	b, err := NewFilterBuilder(1000, 0.01)
	require.NoError(t, err)

	bloom := b.BuildBloomFilter()
	counting := b.BuildCountingBloomFilter()

	// Both filters share (m, k), so they index identically.
	assert.Equal(t, bloom.NumBits(), counting.NumSlots())
	assert.Equal(t, bloom.Hashes(), counting.Hashes())
	assert.Equal(t,
		bloom.GetHashIndices([]byte("hello")),
		counting.GetHashIndices([]byte("hello")))
}
