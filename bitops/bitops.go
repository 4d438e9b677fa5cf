// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitops implements bitfield extraction, insertion and reversal
// over integers of any width.
//
// Bits are numbered from the least significant one. Passing offset+count
// larger than the width of the type is undefined and not checked: these
// run in tight loops computing reference results.
package bitops

import (
	"math/bits"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// BitWidth returns the number of bits of T.
func BitWidth[T constraints.Integer]() uint32 {
	var v T
	return uint32(unsafe.Sizeof(v)) * 8
}

// SetBit returns n with the bit at offset set to bit, which must be 0 or 1.
func SetBit(n uint64, offset uint32, bit uint64) uint64 {
	mask := uint64(1) << offset
	return (n &^ mask) | ((bit << offset) & mask)
}

// BitfieldExtractSigned returns the count bits of base starting at offset,
// sign extended from the bit offset+count-1.
func BitfieldExtractSigned[T constraints.Integer](base T, offset, count uint32) int64 {
	if count == 0 {
		return 0
	}
	v := field(base, offset, count)
	if count < 64 && v&(uint64(1)<<(count-1)) != 0 {
		v |= ^uint64(0) << count
	}
	return int64(v)
}

// BitfieldExtractUnsigned returns the count bits of base starting at
// offset, zero extended.
func BitfieldExtractUnsigned[T constraints.Integer](base T, offset, count uint32) uint64 {
	if count == 0 {
		return 0
	}
	return field(base, offset, count)
}

// BitReverse reverses the order of all the bits of base.
func BitReverse[T constraints.Integer](base T) T {
	w := BitWidth[T]()
	return T(bits.Reverse64(raw(base)) >> (64 - w))
}

// BitfieldInsert returns base with the bits [offset, offset+count) replaced
// by the low count bits of insert.
func BitfieldInsert[T constraints.Integer](base, insert T, offset, count uint32) T {
	if count == 0 {
		return base
	}
	m := lowMask(count) << offset
	return T((raw(base) &^ m) | ((raw(insert) << offset) & m))
}

// raw returns the two's complement pattern of v, without sign extension.
func raw[T constraints.Integer](v T) uint64 {
	return uint64(v) & lowMask(BitWidth[T]())
}

func field[T constraints.Integer](base T, offset, count uint32) uint64 {
	return (raw(base) >> offset) & lowMask(count)
}

func lowMask(count uint32) uint64 {
	if count >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<count - 1
}
