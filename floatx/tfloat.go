// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package floatx

import (
	"encoding/binary"
	"math"
)

// Tfloat represents a TensorFloat-32: the 19 high bits of a float32 stored
// in a 32 bits container, the 13 low bits being zero.
//
// Data layout: 1 sign bit, 8 exponent bits, 10 mantissa bits, 13 unused
// bits.
//
// See https://en.wikipedia.org/wiki/TensorFloat-32
type Tfloat uint32

// Tfloat special values.
const (
	TfloatZero      Tfloat = 0x00000000
	TfloatNegZero   Tfloat = 0x80000000
	TfloatOne       Tfloat = 0x3f800000
	TfloatMin       Tfloat = 0x00800000 // Smallest positive normal.
	TfloatMax       Tfloat = 0x7f7fe000
	TfloatLowest    Tfloat = 0xff7fe000
	TfloatEpsilon   Tfloat = 0x3a800000
	TfloatInf       Tfloat = 0x7f800000
	TfloatNegInf    Tfloat = 0xff800000
	TfloatNaN       Tfloat = 0x7f802000
	TfloatDenormMin Tfloat = 0x00002000
)

var tfloatFormat = format[uint32]{
	width:         32,
	shift:         0,
	mantissaBits:  10,
	remainderMask: 0x00001fff,
	signMask:      0x80000000,
	exponentMask:  0x7f800000,
	mantissaMask:  0x007fe000,
	lsb:           0x00002000,
	maxFinite:     0x7f7fe000,
	step:          stepPromote,
}

// NewTfloat converts a float32 to the nearest Tfloat, ties to even.
func NewTfloat(f float32) Tfloat {
	return Tfloat(tfloatFormat.encode(f))
}

// NewTfloatFromFloat64 converts through float32.
func NewTfloatFromFloat64(f float64) Tfloat {
	return NewTfloat(float32(f))
}

// TfloatFromBits returns the value with this exact bit pattern. The low 13
// bits are kept as is and show up in Float32().
func TfloatFromBits(b uint32) Tfloat {
	return Tfloat(b)
}

// DecodeTfloat decode a little endian value.
func DecodeTfloat(b []byte) Tfloat {
	return Tfloat(binary.LittleEndian.Uint32(b))
}

// Bits returns the raw pattern.
func (t Tfloat) Bits() uint32 {
	return uint32(t)
}

// Float32 returns the float32 equivalent. It is exact.
func (t Tfloat) Float32() float32 {
	return tfloatFormat.decode(uint32(t))
}

// Float64 returns the float64 equivalent.
func (t Tfloat) Float64() float64 {
	return float64(t.Float32())
}

// Components returns the sign, exponent and mantissa bits separated.
func (t Tfloat) Components() (uint8, uint8, uint16) {
	return tfloatFormat.components(uint32(t))
}

// IsNaN looks at the raw bits, so payload only NaNs are detected.
func (t Tfloat) IsNaN() bool {
	return tfloatFormat.isNaN(uint32(t))
}

// IsInf returns true for both infinities.
func (t Tfloat) IsInf() bool {
	return tfloatFormat.isInf(uint32(t))
}

// IsZero returns true for both zeros.
func (t Tfloat) IsZero() bool {
	return tfloatFormat.isZero(uint32(t))
}

// Signbit returns true if the sign bit is set.
func (t Tfloat) Signbit() bool {
	return uint32(t)&tfloatFormat.signMask != 0
}

// String returns the bit pattern as "0x%08x". It is not a decimal value.
func (t Tfloat) String() string {
	return tfloatFormat.hex(uint32(t))
}

func (t Tfloat) Add(o Tfloat) Tfloat { return NewTfloat(t.Float32() + o.Float32()) }
func (t Tfloat) Sub(o Tfloat) Tfloat { return NewTfloat(t.Float32() - o.Float32()) }
func (t Tfloat) Mul(o Tfloat) Tfloat { return NewTfloat(t.Float32() * o.Float32()) }
func (t Tfloat) Div(o Tfloat) Tfloat { return NewTfloat(t.Float32() / o.Float32()) }

// Pos is unary plus; the pattern is returned untouched.
func (t Tfloat) Pos() Tfloat {
	return t
}

// Neg flips the sign bit.
func (t Tfloat) Neg() Tfloat {
	return t ^ Tfloat(tfloatFormat.signMask)
}

// Abs clears the sign bit.
func (t Tfloat) Abs() Tfloat {
	return t &^ Tfloat(tfloatFormat.signMask)
}

// Sqrt is computed in float32 and rounded back.
func (t Tfloat) Sqrt() Tfloat {
	return NewTfloat(float32(math.Sqrt(float64(t.Float32()))))
}

// Equal uses float32 semantics: NaN is never equal and -0 == +0.
func (t Tfloat) Equal(o Tfloat) bool        { return t.Float32() == o.Float32() }
func (t Tfloat) Less(o Tfloat) bool         { return t.Float32() < o.Float32() }
func (t Tfloat) LessEqual(o Tfloat) bool    { return t.Float32() <= o.Float32() }
func (t Tfloat) Greater(o Tfloat) bool      { return t.Float32() > o.Float32() }
func (t Tfloat) GreaterEqual(o Tfloat) bool { return t.Float32() >= o.Float32() }

// NaNSensitiveEqual returns true if both are NaN, whatever their payload,
// or if their 19 significant bits match. The unused low bits are ignored.
func (t Tfloat) NaNSensitiveEqual(o Tfloat) bool {
	return tfloatFormat.nanSensitiveEqual(uint32(t), uint32(o))
}

// NextAfterTfloat returns the next representable value after from in the
// direction of to.
//
// The neighbor is computed in float32 by adding one Tfloat ULP.
func NextAfterTfloat(from, to Tfloat) Tfloat {
	return Tfloat(tfloatFormat.nextAfter(uint32(from), uint32(to)))
}
