// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package floatx

import (
	"encoding/binary"
	"math"
)

// Bfloat16 represents a google brain 16 float: the 16 high bits of a
// float32 with round-to-nearest-even.
//
// Data layout: 1 sign bit, 8 exponent bits, 7 mantissa bits.
//
// See https://en.wikipedia.org/wiki/Bfloat16_floating-point_format
type Bfloat16 uint16

// Bfloat16 special values.
const (
	Bfloat16Zero      Bfloat16 = 0x0000
	Bfloat16NegZero   Bfloat16 = 0x8000
	Bfloat16One       Bfloat16 = 0x3f80
	Bfloat16Min       Bfloat16 = 0x0080 // Smallest positive normal.
	Bfloat16Max       Bfloat16 = 0x7f7f
	Bfloat16Lowest    Bfloat16 = 0xff7f
	Bfloat16Epsilon   Bfloat16 = 0x3c00
	Bfloat16Inf       Bfloat16 = 0x7f80
	Bfloat16NegInf    Bfloat16 = 0xff80
	Bfloat16NaN       Bfloat16 = 0x7f81
	Bfloat16DenormMin Bfloat16 = 0x0001
)

var bfloat16Format = format[uint16]{
	width:         16,
	shift:         16,
	mantissaBits:  7,
	remainderMask: 0x0000ffff,
	signMask:      0x8000,
	exponentMask:  0x7f80,
	mantissaMask:  0x007f,
	lsb:           1,
	step:          stepBits,
}

// NewBfloat16 converts a float32 to the nearest Bfloat16, ties to even.
func NewBfloat16(f float32) Bfloat16 {
	return Bfloat16(bfloat16Format.encode(f))
}

// NewBfloat16FromFloat64 converts through float32.
func NewBfloat16FromFloat64(f float64) Bfloat16 {
	return NewBfloat16(float32(f))
}

// Bfloat16FromBits returns the value with this exact bit pattern.
func Bfloat16FromBits(b uint16) Bfloat16 {
	return Bfloat16(b)
}

// DecodeBfloat16 decode a little endian value.
func DecodeBfloat16(b []byte) Bfloat16 {
	return Bfloat16(binary.LittleEndian.Uint16(b))
}

// Bits returns the raw pattern.
func (b Bfloat16) Bits() uint16 {
	return uint16(b)
}

// Float32 returns the float32 equivalent. It is exact.
func (b Bfloat16) Float32() float32 {
	return bfloat16Format.decode(uint16(b))
}

// Float64 returns the float64 equivalent.
func (b Bfloat16) Float64() float64 {
	return float64(b.Float32())
}

// Components returns the sign, exponent and mantissa bits separated.
func (b Bfloat16) Components() (uint8, uint8, uint16) {
	return bfloat16Format.components(uint16(b))
}

// IsNaN looks at the raw bits, so payload only NaNs are detected.
func (b Bfloat16) IsNaN() bool {
	return bfloat16Format.isNaN(uint16(b))
}

// IsInf returns true for both infinities.
func (b Bfloat16) IsInf() bool {
	return bfloat16Format.isInf(uint16(b))
}

// IsZero returns true for both zeros.
func (b Bfloat16) IsZero() bool {
	return bfloat16Format.isZero(uint16(b))
}

// Signbit returns true if the sign bit is set.
func (b Bfloat16) Signbit() bool {
	return uint16(b)&bfloat16Format.signMask != 0
}

// String returns the bit pattern as "0x%04x". It is not a decimal value.
func (b Bfloat16) String() string {
	return bfloat16Format.hex(uint16(b))
}

func (b Bfloat16) Add(o Bfloat16) Bfloat16 { return NewBfloat16(b.Float32() + o.Float32()) }
func (b Bfloat16) Sub(o Bfloat16) Bfloat16 { return NewBfloat16(b.Float32() - o.Float32()) }
func (b Bfloat16) Mul(o Bfloat16) Bfloat16 { return NewBfloat16(b.Float32() * o.Float32()) }
func (b Bfloat16) Div(o Bfloat16) Bfloat16 { return NewBfloat16(b.Float32() / o.Float32()) }

// Pos is unary plus; the pattern is returned untouched.
func (b Bfloat16) Pos() Bfloat16 {
	return b
}

// Neg flips the sign bit.
func (b Bfloat16) Neg() Bfloat16 {
	return b ^ Bfloat16(bfloat16Format.signMask)
}

// Abs clears the sign bit.
func (b Bfloat16) Abs() Bfloat16 {
	return b &^ Bfloat16(bfloat16Format.signMask)
}

// Sqrt is computed in float32 and rounded back.
func (b Bfloat16) Sqrt() Bfloat16 {
	return NewBfloat16(float32(math.Sqrt(float64(b.Float32()))))
}

// Equal uses float32 semantics: NaN is never equal and -0 == +0.
func (b Bfloat16) Equal(o Bfloat16) bool        { return b.Float32() == o.Float32() }
func (b Bfloat16) Less(o Bfloat16) bool         { return b.Float32() < o.Float32() }
func (b Bfloat16) LessEqual(o Bfloat16) bool    { return b.Float32() <= o.Float32() }
func (b Bfloat16) Greater(o Bfloat16) bool      { return b.Float32() > o.Float32() }
func (b Bfloat16) GreaterEqual(o Bfloat16) bool { return b.Float32() >= o.Float32() }

// NaNSensitiveEqual returns true if both are NaN, whatever their payload,
// or if both have the same bit pattern.
func (b Bfloat16) NaNSensitiveEqual(o Bfloat16) bool {
	return bfloat16Format.nanSensitiveEqual(uint16(b), uint16(o))
}

// NextAfterBfloat16 returns the next representable value after from in the
// direction of to.
//
// It steps the bit pattern directly. Stepping in float32 then rounding
// would land back on from.
func NextAfterBfloat16(from, to Bfloat16) Bfloat16 {
	return Bfloat16(bfloat16Format.nextAfter(uint16(from), uint16(to)))
}
