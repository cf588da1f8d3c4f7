// Copyright 2023 the Fastbloom authors
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
	"unsafe"
)

// ErrIncompatibleSize is returned when a filter is reconstructed from a
// buffer whose bit length is not a positive multiple of 64.
var ErrIncompatibleSize = errors.New("fastbloom: incompatible size")

// The view functions reinterpret the word storage in place. The views
// depend on the host's byte order; for interchange across hosts, use the
// byte view, which is the filter's canonical image. Treat views as
// read-only: they alias the filter's memory and are invalidated by
// mutation.

func viewBytes(words []uint64) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), wordSize*len(words))
}

func viewU16(words []uint64) []uint16 {
	return unsafe.Slice((*uint16)(unsafe.Pointer(unsafe.SliceData(words))), 4*len(words))
}

func viewU32(words []uint64) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(unsafe.SliceData(words))), 2*len(words))
}

// wordSize is the byte size of a storage word.
const wordSize = wordBits / 8

// GetU8Array returns the filter's backing storage viewed as bytes,
// without copying. This is the canonical image for interchange.
func (f *BloomFilter) GetU8Array() []byte {
	return viewBytes(f.bits.storage)
}

// GetU16Array returns the filter's backing storage viewed as uint16
// words, without copying.
func (f *BloomFilter) GetU16Array() []uint16 {
	return viewU16(f.bits.storage)
}

// GetU32Array returns the filter's backing storage viewed as uint32
// words, without copying.
func (f *BloomFilter) GetU32Array() []uint32 {
	return viewU32(f.bits.storage)
}

// GetU64Array returns the filter's backing storage, without copying.
func (f *BloomFilter) GetU64Array() []uint64 {
	return f.bits.storage
}

// fromImage reconstructs a Bloom filter from an exported image of nbits
// bits with the given number of hash functions.
func fromImage(image []byte, nbits uint64, hashes uint32) (*BloomFilter, error) {
	config, err := FromSizeAndHashes(nbits, hashes)
	if err != nil {
		if errors.Is(err, ErrSize) {
			err = ErrIncompatibleSize
		}
		return nil, err
	}
	f := config.BuildBloomFilter()
	copy(viewBytes(f.bits.storage), image)
	return f, nil
}

// FromU8Array reconstructs a Bloom filter from a byte image previously
// obtained with GetU8Array. The image is copied; the filter shares no
// state with the buffer. The bit length of the buffer must be a
// positive multiple of 64.
func FromU8Array(array []byte, hashes uint32) (*BloomFilter, error) {
	return fromImage(array, 8*uint64(len(array)), hashes)
}

// FromU16Array reconstructs a Bloom filter from a uint16 image
// previously obtained with GetU16Array on a host of the same byte
// order.
func FromU16Array(array []uint16, hashes uint32) (*BloomFilter, error) {
	image := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(array))), 2*len(array))
	return fromImage(image, 16*uint64(len(array)), hashes)
}

// FromU32Array reconstructs a Bloom filter from a uint32 image
// previously obtained with GetU32Array on a host of the same byte
// order.
func FromU32Array(array []uint32, hashes uint32) (*BloomFilter, error) {
	image := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(array))), 4*len(array))
	return fromImage(image, 32*uint64(len(array)), hashes)
}

// FromU64Array reconstructs a Bloom filter from a word image previously
// obtained with GetU64Array on a host of the same byte order.
func FromU64Array(array []uint64, hashes uint32) (*BloomFilter, error) {
	image := viewBytes(array)
	return fromImage(image, 64*uint64(len(array)), hashes)
}

// GetU8Array returns the filter's counter storage viewed as bytes,
// without copying: two counters per byte. This is the canonical image
// for interchange.
func (f *CountingBloomFilter) GetU8Array() []byte {
	return viewBytes(f.counters.storage)
}

// GetU16Array returns the filter's counter storage viewed as uint16
// words, without copying.
func (f *CountingBloomFilter) GetU16Array() []uint16 {
	return viewU16(f.counters.storage)
}

// GetU32Array returns the filter's counter storage viewed as uint32
// words, without copying.
func (f *CountingBloomFilter) GetU32Array() []uint32 {
	return viewU32(f.counters.storage)
}

// GetU64Array returns the filter's counter storage, without copying.
func (f *CountingBloomFilter) GetU64Array() []uint64 {
	return f.counters.storage
}

// countingFromImage reconstructs a counting filter from an exported
// counter image holding nslots 4-bit counters.
func countingFromImage(image []byte, nslots uint64, hashes uint32) (*CountingBloomFilter, error) {
	config, err := FromSizeAndHashes(nslots, hashes)
	if err != nil {
		if errors.Is(err, ErrSize) {
			err = ErrIncompatibleSize
		}
		return nil, err
	}
	f := config.BuildCountingBloomFilter()
	copy(viewBytes(f.counters.storage), image)
	return f, nil
}

// CountingFromU8Array reconstructs a counting Bloom filter from a byte
// image previously obtained with GetU8Array. Each byte holds two
// counters, so the buffer describes 2*len(array) slots; that count must
// be a positive multiple of 64. The image is copied. Repeat insertion
// is enabled on the result, matching a fresh builder.
func CountingFromU8Array(array []byte, hashes uint32) (*CountingBloomFilter, error) {
	return countingFromImage(array, 2*uint64(len(array)), hashes)
}

// CountingFromU16Array reconstructs a counting Bloom filter from a
// uint16 image previously obtained with GetU16Array on a host of the
// same byte order.
func CountingFromU16Array(array []uint16, hashes uint32) (*CountingBloomFilter, error) {
	image := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(array))), 2*len(array))
	return countingFromImage(image, 4*uint64(len(array)), hashes)
}

// CountingFromU32Array reconstructs a counting Bloom filter from a
// uint32 image previously obtained with GetU32Array on a host of the
// same byte order.
func CountingFromU32Array(array []uint32, hashes uint32) (*CountingBloomFilter, error) {
	image := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(array))), 4*len(array))
	return countingFromImage(image, 8*uint64(len(array)), hashes)
}

// CountingFromU64Array reconstructs a counting Bloom filter from a word
// image previously obtained with GetU64Array on a host of the same byte
// order.
func CountingFromU64Array(array []uint64, hashes uint32) (*CountingBloomFilter, error) {
	image := viewBytes(array)
	return countingFromImage(image, 16*uint64(len(array)), hashes)
}
