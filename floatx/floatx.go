// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package floatx implements reduced precision floating point formats that
// are float32 truncated to their high bits: Bfloat, Bfloat16 and Tfloat.
//
// Conversions from float32 round to nearest even and never lose a NaN.
// Arithmetic is done in float32 and rounded back, which approximates but
// does not model hardware that computes natively in these formats.
package floatx

import (
	"encoding/binary"
	"math"
)

// Reduced is any of the reduced precision formats.
type Reduced interface {
	Bfloat | Bfloat16 | Tfloat
	Float32() float32
	Components() (uint8, uint8, uint16)
	IsNaN() bool
	String() string
}

// Float is any type NaNSensitiveEqual accepts.
type Float interface {
	float32 | float64 | Bfloat | Bfloat16 | Tfloat
}

// FromFloat32 converts f to the reduced format T.
func FromFloat32[T Reduced](f float32) T {
	var out T
	switch p := any(&out).(type) {
	case *Bfloat:
		*p = NewBfloat(f)
	case *Bfloat16:
		*p = NewBfloat16(f)
	case *Tfloat:
		*p = NewTfloat(f)
	}
	return out
}

// NextAfter dispatches to the format specific nextafter.
func NextAfter[T Reduced](from, to T) T {
	switch f := any(from).(type) {
	case Bfloat:
		return any(NextAfterBfloat(f, any(to).(Bfloat))).(T)
	case Bfloat16:
		return any(NextAfterBfloat16(f, any(to).(Bfloat16))).(T)
	case Tfloat:
		return any(NextAfterTfloat(f, any(to).(Tfloat))).(T)
	}
	panic("unreachable")
}

// NaNSensitiveEqual returns true if a and b are both NaN, with any sign or
// payload, or if they have the same bit pattern.
//
// Unlike ==, NaN equals NaN and -0 differs from +0.
func NaNSensitiveEqual[T Float](a, b T) bool {
	switch x := any(a).(type) {
	case float32:
		y := any(b).(float32)
		if isNaN32(x) && isNaN32(y) {
			return true
		}
		return math.Float32bits(x) == math.Float32bits(y)
	case float64:
		y := any(b).(float64)
		if isNaN64(x) && isNaN64(y) {
			return true
		}
		return math.Float64bits(x) == math.Float64bits(y)
	case Bfloat:
		return x.NaNSensitiveEqual(any(b).(Bfloat))
	case Bfloat16:
		return x.NaNSensitiveEqual(any(b).(Bfloat16))
	case Tfloat:
		return x.NaNSensitiveEqual(any(b).(Tfloat))
	}
	panic("unreachable")
}

// IsNaN checks the raw bits for reduced formats and uses math.IsNaN for
// native ones.
func IsNaN[T Float](v T) bool {
	switch x := any(v).(type) {
	case float32:
		return isNaN32(x)
	case float64:
		return isNaN64(x)
	case Bfloat:
		return x.IsNaN()
	case Bfloat16:
		return x.IsNaN()
	case Tfloat:
		return x.IsNaN()
	}
	panic("unreachable")
}

func isNaN32(f float32) bool {
	const exponentMask = 0x7f800000
	const mantissaMask = 0x007fffff
	b := math.Float32bits(f)
	return b&exponentMask == exponentMask && b&mantissaMask != 0
}

func isNaN64(f float64) bool {
	const exponentMask = 0x7ff0000000000000
	const mantissaMask = 0x000fffffffffffff
	b := math.Float64bits(f)
	return b&exponentMask == exponentMask && b&mantissaMask != 0
}

// Buffers are exchanged little endian, the way devices lay them out.

// Bfloat16s decodes a little endian buffer. A trailing odd byte is ignored.
func Bfloat16s(b []byte) []Bfloat16 {
	out := make([]Bfloat16, len(b)/2)
	for i := range out {
		out[i] = DecodeBfloat16(b[2*i:])
	}
	return out
}

// PutBfloat16s encodes src into dst which must be at least 2*len(src) long.
func PutBfloat16s(dst []byte, src []Bfloat16) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
	}
}

// Bfloats decodes a little endian buffer. A trailing odd byte is ignored.
func Bfloats(b []byte) []Bfloat {
	out := make([]Bfloat, len(b)/2)
	for i := range out {
		out[i] = DecodeBfloat(b[2*i:])
	}
	return out
}

// PutBfloats encodes src into dst which must be at least 2*len(src) long.
func PutBfloats(dst []byte, src []Bfloat) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
	}
}

// Tfloats decodes a little endian buffer of 32 bits containers.
func Tfloats(b []byte) []Tfloat {
	out := make([]Tfloat, len(b)/4)
	for i := range out {
		out[i] = DecodeTfloat(b[4*i:])
	}
	return out
}

// PutTfloats encodes src into dst which must be at least 4*len(src) long.
func PutTfloats(dst []byte, src []Tfloat) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[4*i:], uint32(v))
	}
}
