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
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// The byte image of a filter does not carry its parameters; they must
// travel out of band. Dump and Loader implement the self-describing
// variant for durable storage: a fixed-width header carrying the hash
// count and a comment, followed by the canonical byte image.
//
// Dump file layout, all integers big-endian:
//
//	offset  size  field
//	     0     8  magic "fastblm\x00"
//	     8     2  format version, currently 1
//	    10     2  flags; bit 0 set for a counting-filter payload
//	    12     4  number of hash functions
//	    16    64  comment, UTF-8, zero-padded
//	    80     -  byte image of the filter

const (
	dumpMagic       = "fastblm\x00"
	dumpVersion     = 1
	dumpHeaderSize  = 80
	dumpCommentSize = 64

	flagCounting = 1 << 0
)

var (
	// ErrFileFormat is returned by NewLoader and Load when the input is
	// not a fastbloom dump of the requested kind.
	ErrFileFormat = errors.New("fastbloom: not a valid fastbloom dump")

	// ErrComment is returned by Dump when the comment does not fit the
	// header: longer than 64 bytes, not valid UTF-8, or containing a
	// zero byte.
	ErrComment = errors.New("fastbloom: comment must be valid UTF-8 of at most 64 bytes without zero bytes")
)

func dumpHeader(hashes uint32, flags uint16, comment string) ([]byte, error) {
	if len(comment) > dumpCommentSize || !utf8.ValidString(comment) ||
		strings.ContainsRune(comment, 0) {
		return nil, ErrComment
	}

	h := make([]byte, dumpHeaderSize)
	copy(h, dumpMagic)
	binary.BigEndian.PutUint16(h[8:], dumpVersion)
	binary.BigEndian.PutUint16(h[10:], flags)
	binary.BigEndian.PutUint32(h[12:], hashes)
	copy(h[16:], comment)
	return h, nil
}

// Dump writes f to w in the self-describing dump format, with a comment
// of at most 64 bytes of UTF-8 stored in the header. It returns the
// number of bytes written.
func Dump(w io.Writer, f *BloomFilter, comment string) (int64, error) {
	h, err := dumpHeader(f.Hashes(), 0, comment)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(h)
	if err != nil {
		return int64(n), err
	}
	n2, err := w.Write(f.GetU8Array())
	return int64(n) + int64(n2), err
}

// DumpCounting writes f to w in the self-describing dump format. The
// payload is the counter image, two counters per byte, and the header
// is flagged so that a Loader cannot confuse it with a plain filter.
func DumpCounting(w io.Writer, f *CountingBloomFilter, comment string) (int64, error) {
	h, err := dumpHeader(f.Hashes(), flagCounting, comment)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(h)
	if err != nil {
		return int64(n), err
	}
	n2, err := w.Write(f.GetU8Array())
	return int64(n) + int64(n2), err
}

// A Loader reads a filter dump from a stream.
type Loader struct {
	// Comment is the comment string stored in the dump's header.
	Comment string

	// Hashes is the number of hash functions stored in the header.
	Hashes uint32

	r        io.Reader
	counting bool
}

// NewLoader parses the header of a dump from r. The payload is not read
// until Load or LoadCounting is called.
func NewLoader(r io.Reader) (*Loader, error) {
	h := make([]byte, dumpHeaderSize)
	if _, err := io.ReadFull(r, h); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			err = ErrFileFormat
		}
		return nil, err
	}

	if string(h[:8]) != dumpMagic {
		return nil, ErrFileFormat
	}
	if binary.BigEndian.Uint16(h[8:]) != dumpVersion {
		return nil, ErrFileFormat
	}
	flags := binary.BigEndian.Uint16(h[10:])
	if flags&^uint16(flagCounting) != 0 {
		return nil, ErrFileFormat
	}
	hashes := binary.BigEndian.Uint32(h[12:])
	if hashes == 0 {
		return nil, ErrFileFormat
	}

	comment := h[16:dumpHeaderSize]
	comment = comment[:len(comment)-zeroPadding(comment)]
	if !utf8.Valid(comment) || bytes.IndexByte(comment, 0) != -1 {
		return nil, ErrFileFormat
	}

	return &Loader{
		Comment:  string(comment),
		Hashes:   hashes,
		r:        r,
		counting: flags&flagCounting != 0,
	}, nil
}

// zeroPadding returns the length of the run of zero bytes at the end
// of b.
func zeroPadding(b []byte) int {
	n := 0
	for n < len(b) && b[len(b)-1-n] == 0 {
		n++
	}
	return n
}

// Counting reports whether the dump holds a counting-filter payload.
func (l *Loader) Counting() bool {
	return l.counting
}

// Load reads the payload and reconstructs the Bloom filter. It fails
// with ErrFileFormat if the dump holds a counting payload and with
// ErrIncompatibleSize if the payload is not a positive multiple of 64
// bits.
func (l *Loader) Load() (*BloomFilter, error) {
	if l.counting {
		return nil, ErrFileFormat
	}
	image, err := io.ReadAll(l.r)
	if err != nil {
		return nil, err
	}
	return FromU8Array(image, l.Hashes)
}

// LoadCounting reads the payload and reconstructs the counting Bloom
// filter. It fails with ErrFileFormat if the dump holds a plain
// payload and with ErrIncompatibleSize if the payload does not describe
// a positive multiple of 64 counters.
func (l *Loader) LoadCounting() (*CountingBloomFilter, error) {
	if !l.counting {
		return nil, ErrFileFormat
	}
	image, err := io.ReadAll(l.r)
	if err != nil {
		return nil, err
	}
	return CountingFromU8Array(image, l.Hashes)
}
