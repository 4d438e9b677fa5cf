// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package floatx

import (
	"encoding/binary"
	"math"
)

// Bfloat has the same layout and encoding as Bfloat16 but NextAfterBfloat
// steps through float32 arithmetic instead of incrementing the pattern.
//
// Data layout: 1 sign bit, 8 exponent bits, 7 mantissa bits.
//
// See https://en.wikipedia.org/wiki/Bfloat16_floating-point_format
type Bfloat uint16

// Bfloat special values.
const (
	BfloatZero      Bfloat = 0x0000
	BfloatNegZero   Bfloat = 0x8000
	BfloatOne       Bfloat = 0x3f80
	BfloatMin       Bfloat = 0x0080 // Smallest positive normal.
	BfloatMax       Bfloat = 0x7f7f
	BfloatLowest    Bfloat = 0xff7f
	BfloatEpsilon   Bfloat = 0x3400 // float32 epsilon, rounded.
	BfloatInf       Bfloat = 0x7f80
	BfloatNegInf    Bfloat = 0xff80
	BfloatNaN       Bfloat = 0x7f81
	BfloatDenormMin Bfloat = 0x0001
)

var bfloatFormat = format[uint16]{
	width:         16,
	shift:         16,
	mantissaBits:  7,
	remainderMask: 0x0000ffff,
	signMask:      0x8000,
	exponentMask:  0x7f80,
	mantissaMask:  0x007f,
	lsb:           1,
	step:          stepPromote,
}

// NewBfloat converts a float32 to the nearest Bfloat, ties to even.
func NewBfloat(f float32) Bfloat {
	return Bfloat(bfloatFormat.encode(f))
}

// NewBfloatFromFloat64 converts through float32.
func NewBfloatFromFloat64(f float64) Bfloat {
	return NewBfloat(float32(f))
}

// BfloatFromBits returns the value with this exact bit pattern.
func BfloatFromBits(b uint16) Bfloat {
	return Bfloat(b)
}

// DecodeBfloat decode a little endian value.
func DecodeBfloat(b []byte) Bfloat {
	return Bfloat(binary.LittleEndian.Uint16(b))
}

// Bits returns the raw pattern.
func (b Bfloat) Bits() uint16 {
	return uint16(b)
}

// Float32 returns the float32 equivalent. It is exact.
func (b Bfloat) Float32() float32 {
	return bfloatFormat.decode(uint16(b))
}

// Float64 returns the float64 equivalent.
func (b Bfloat) Float64() float64 {
	return float64(b.Float32())
}

// Components returns the sign, exponent and mantissa bits separated.
func (b Bfloat) Components() (uint8, uint8, uint16) {
	return bfloatFormat.components(uint16(b))
}

// IsNaN looks at the raw bits, so payload only NaNs are detected.
func (b Bfloat) IsNaN() bool {
	return bfloatFormat.isNaN(uint16(b))
}

// IsInf returns true for both infinities.
func (b Bfloat) IsInf() bool {
	return bfloatFormat.isInf(uint16(b))
}

// IsZero returns true for both zeros.
func (b Bfloat) IsZero() bool {
	return bfloatFormat.isZero(uint16(b))
}

// Signbit returns true if the sign bit is set.
func (b Bfloat) Signbit() bool {
	return uint16(b)&bfloatFormat.signMask != 0
}

// String returns the bit pattern as "0x%04x". It is not a decimal value.
func (b Bfloat) String() string {
	return bfloatFormat.hex(uint16(b))
}

func (b Bfloat) Add(o Bfloat) Bfloat { return NewBfloat(b.Float32() + o.Float32()) }
func (b Bfloat) Sub(o Bfloat) Bfloat { return NewBfloat(b.Float32() - o.Float32()) }
func (b Bfloat) Mul(o Bfloat) Bfloat { return NewBfloat(b.Float32() * o.Float32()) }
func (b Bfloat) Div(o Bfloat) Bfloat { return NewBfloat(b.Float32() / o.Float32()) }

// Pos is unary plus; the pattern is returned untouched.
func (b Bfloat) Pos() Bfloat {
	return b
}

// Neg flips the sign bit.
func (b Bfloat) Neg() Bfloat {
	return b ^ Bfloat(bfloatFormat.signMask)
}

// Abs clears the sign bit.
func (b Bfloat) Abs() Bfloat {
	return b &^ Bfloat(bfloatFormat.signMask)
}

// Sqrt is computed in float32 and rounded back.
func (b Bfloat) Sqrt() Bfloat {
	return NewBfloat(float32(math.Sqrt(float64(b.Float32()))))
}

// Equal uses float32 semantics: NaN is never equal and -0 == +0.
func (b Bfloat) Equal(o Bfloat) bool        { return b.Float32() == o.Float32() }
func (b Bfloat) Less(o Bfloat) bool         { return b.Float32() < o.Float32() }
func (b Bfloat) LessEqual(o Bfloat) bool    { return b.Float32() <= o.Float32() }
func (b Bfloat) Greater(o Bfloat) bool      { return b.Float32() > o.Float32() }
func (b Bfloat) GreaterEqual(o Bfloat) bool { return b.Float32() >= o.Float32() }

// NaNSensitiveEqual returns true if both are NaN, whatever their payload,
// or if both have the same bit pattern.
func (b Bfloat) NaNSensitiveEqual(o Bfloat) bool {
	return bfloatFormat.nanSensitiveEqual(uint16(b), uint16(o))
}

// NextAfterBfloat returns the next representable value after from in the
// direction of to.
//
// The neighbor is computed in float32 by adding one Bfloat ULP.
func NextAfterBfloat(from, to Bfloat) Bfloat {
	return Bfloat(bfloatFormat.nextAfter(uint16(from), uint16(to)))
}
