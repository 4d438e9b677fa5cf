// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package n_bits

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"iter"
	"math/bits"
)

var (
	errBitSetLen   = errors.New("BitSet length mismatch")
	errCountSetLen = errors.New("CountSet length mismatch")
	errBitSetData  = errors.New("invalid BitSet encoding")
)

// BitSet records which bit patterns of a format were seen. Bit i is set
// when pattern i occurred at least once.
//
// Its JSON form is a single base64 string.
type BitSet struct {
	Len  int
	Bits []uint64
}

// Resize changes the number of patterns tracked. Patterns below the new
// length keep their state.
func (b *BitSet) Resize(l int) {
	words := make([]uint64, (l+63)/64)
	copy(words, b.Bits)
	if tail := l % 64; tail != 0 {
		words[len(words)-1] &= 1<<tail - 1
	}
	b.Len = l
	b.Bits = words
}

func (b *BitSet) Set(i int) {
	b.Bits[i>>6] |= 1 << (i & 63)
}

func (b *BitSet) Get(i int) bool {
	return b.Bits[i>>6]>>(i&63)&1 != 0
}

// Union adds the patterns seen by o.
func (b *BitSet) Union(o *BitSet) error {
	if b.Len != o.Len {
		return errBitSetLen
	}
	for i := range b.Bits {
		b.Bits[i] |= o.Bits[i]
	}
	return nil
}

// Indexes yields the set patterns in increasing order.
func (b *BitSet) Indexes() iter.Seq[int] {
	return func(yield func(int) bool) {
		for w, v := range b.Bits {
			for v != 0 {
				if !yield(w*64 + bits.TrailingZeros64(v)) {
					return
				}
				v &= v - 1
			}
		}
	}
}

// Effective returns the number of distinct patterns seen.
func (b *BitSet) Effective() int32 {
	n := 0
	for _, v := range b.Bits {
		n += bits.OnesCount64(v)
	}
	return int32(n)
}

// MarshalJSON implements json.Marshaler.
//
// The payload is one byte holding Len%64 followed by the little endian
// words.
func (b *BitSet) MarshalJSON() ([]byte, error) {
	if b.Len == 0 {
		return marshalBase64(nil)
	}
	raw := append(make([]byte, 0, 1+8*len(b.Bits)), byte(b.Len%64))
	for _, v := range b.Bits {
		raw = binary.LittleEndian.AppendUint64(raw, v)
	}
	return marshalBase64(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BitSet) UnmarshalJSON(data []byte) error {
	raw, err := unmarshalBase64(data)
	if err != nil {
		return err
	}
	if raw == nil {
		*b = BitSet{}
		return nil
	}
	if len(raw) < 9 || (len(raw)-1)%8 != 0 || raw[0] > 63 {
		return errBitSetData
	}
	words := make([]uint64, (len(raw)-1)/8)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(raw[1+8*i:])
	}
	tail := int(raw[0])
	if tail == 0 {
		tail = 64
	}
	*b = BitSet{Len: 64*(len(words)-1) + tail, Bits: words}
	return nil
}

// CountSet counts how often each value of a field occurred, saturating at
// 255.
//
// Its JSON form is the base64 encoded counts.
type CountSet struct {
	Counts []uint8
}

// Resize changes the number of values tracked, keeping existing counts.
func (c *CountSet) Resize(l int) {
	counts := make([]uint8, l)
	copy(counts, c.Counts)
	c.Counts = counts
}

func (c *CountSet) Add(i int) {
	c.Counts[i] = saturatingAdd(c.Counts[i], 1)
}

func (c *CountSet) Get(i int) uint8 {
	return c.Counts[i]
}

// Merge adds the counts of o.
func (c *CountSet) Merge(o *CountSet) error {
	if len(c.Counts) != len(o.Counts) {
		return errCountSetLen
	}
	for i, v := range o.Counts {
		c.Counts[i] = saturatingAdd(c.Counts[i], v)
	}
	return nil
}

// Effective returns the number of values seen at least once.
func (c *CountSet) Effective() int32 {
	n := int32(0)
	for _, v := range c.Counts {
		if v != 0 {
			n++
		}
	}
	return n
}

// MarshalJSON implements json.Marshaler.
func (c *CountSet) MarshalJSON() ([]byte, error) {
	return marshalBase64(c.Counts)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *CountSet) UnmarshalJSON(data []byte) error {
	raw, err := unmarshalBase64(data)
	if err == nil {
		c.Counts = raw
	}
	return err
}

func saturatingAdd(a, b uint8) uint8 {
	if s := a + b; s >= a {
		return s
	}
	return 0xFF
}

func marshalBase64(raw []byte) ([]byte, error) {
	return json.Marshal(base64.RawStdEncoding.EncodeToString(raw))
}

// unmarshalBase64 returns nil for an empty string.
func unmarshalBase64(data []byte) ([]byte, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		return nil, err
	}
	return base64.RawStdEncoding.DecodeString(s)
}
