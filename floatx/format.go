// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package floatx

import (
	"fmt"
	"math"
)

const (
	// https://en.wikipedia.org/wiki/Single-precision_floating-point_format
	f32SignOffset     = 31
	f32ExponentOffset = 23
	f32ExponentBias   = 127
	f32ExponentMask   = (1 << (f32SignOffset - f32ExponentOffset)) - 1
)

// stepping selects how nextafter walks a format.
type stepping int

const (
	// stepPromote computes the neighbor in float32 space then re-encodes.
	stepPromote stepping = iota
	// stepBits increments or decrements the stored pattern as a signed
	// integer.
	stepBits
)

// format describes a float32 truncated to its high bits.
//
// Every reduced type keeps the 8 bits exponent of float32. The stored
// pattern is either the float32 shifted right (16 bits containers) or the
// float32 with the low bits cleared (32 bits container).
type format[S uint16 | uint32] struct {
	// width is the container width in bits.
	width uint
	// shift is how much the float32 bits are shifted right to get the stored
	// pattern.
	shift uint
	// mantissaBits is the number of significant stored mantissa bits.
	mantissaBits uint
	// remainderMask covers the float32 bits dropped by the encoding.
	remainderMask uint32
	signMask      S
	exponentMask  S
	mantissaMask  S
	// lsb is one ULP in stored units.
	lsb S
	// maxFinite is the largest finite magnitude. When set, a tie at this
	// magnitude rounds down instead of to even.
	maxFinite S
	step      stepping
}

// encode truncates v with round-to-nearest-even.
//
// NaN payloads living only in the dropped bits force the mantissa field to
// all ones so the result stays a NaN.
func (f *format[S]) encode(v float32) S {
	bits := math.Float32bits(v)
	remainder := bits & f.remainderMask
	kept := S((bits &^ f.remainderMask) >> f.shift)
	if kept&f.exponentMask == f.exponentMask {
		// Either Inf or NaN.
		if remainder != 0 {
			kept |= f.mantissaMask
		}
		return kept
	}
	half := (f.remainderMask >> 1) + 1
	if remainder > half {
		return kept + f.lsb
	}
	if remainder == half && kept&f.lsb != 0 {
		if f.maxFinite != 0 && kept&^f.signMask == f.maxFinite {
			return kept
		}
		return kept + f.lsb
	}
	return kept
}

// decode is exact: it only zero fills the dropped bits.
func (f *format[S]) decode(s S) float32 {
	return math.Float32frombits(uint32(s) << f.shift)
}

// components returns the sign, exponent and mantissa bits separated.
func (f *format[S]) components(s S) (uint8, uint8, uint16) {
	sign := (s & f.signMask) >> (f.width - 1)
	exponent := (s & f.exponentMask) >> (f32ExponentOffset - f.shift)
	mantissa := (s & f.mantissaMask) >> (f32ExponentOffset - f.shift - f.mantissaBits)
	return uint8(sign), uint8(exponent), uint16(mantissa)
}

// significant masks out the container bits that carry no information.
func (f *format[S]) significant(s S) S {
	return s & S(^f.remainderMask>>f.shift)
}

func (f *format[S]) isNaN(s S) bool {
	return s&f.exponentMask == f.exponentMask && s&f.mantissaMask != 0
}

func (f *format[S]) isInf(s S) bool {
	return s&f.exponentMask == f.exponentMask && s&f.mantissaMask == 0
}

func (f *format[S]) isZero(s S) bool {
	return s&(f.exponentMask|f.mantissaMask) == 0
}

func (f *format[S]) nanSensitiveEqual(a, b S) bool {
	if f.isNaN(a) && f.isNaN(b) {
		return true
	}
	return f.significant(a) == f.significant(b)
}

// hex dumps the raw pattern, zero padded to the container width.
func (f *format[S]) hex(s S) string {
	return fmt.Sprintf("0x%0*x", int(f.width/4), s)
}

// nextAfter returns the representable neighbor of from in the direction of
// to.
func (f *format[S]) nextAfter(from, to S) S {
	if f.isNaN(from) || f.isNaN(to) {
		return f.encode(f.decode(from) + f.decode(to))
	}
	ff := f.decode(from)
	tf := f.decode(to)
	if ff == tf {
		return to
	}
	if f.step == stepBits {
		return f.stepBits(from, to, ff, tf)
	}
	return f.stepPromote(from, ff, tf)
}

// stepBits walks the stored pattern read as a two's complement integer.
//
// Zero is special cased since the pattern of the smallest denormal is not
// adjacent to negative zero.
func (f *format[S]) stepBits(from, to S, ff, tf float32) S {
	if ff == 0 {
		if tf > 0 {
			return f.lsb
		}
		return f.signMask | f.lsb
	}
	fi := f.signed(from)
	ti := f.signed(to)
	if fi >= 0 {
		if ti >= fi {
			fi++
		} else {
			fi--
		}
	} else {
		if ti >= fi && ti < 0 {
			fi++
		} else {
			fi--
		}
	}
	return S(fi) * f.lsb
}

// signed sign extends the stored pattern, counted in ULPs.
func (f *format[S]) signed(s S) int64 {
	v := int64(s / f.lsb)
	if s&f.signMask != 0 {
		v -= int64(1) << (f.width - f.bitsLost())
	}
	return v
}

// bitsLost is the number of always zero low bits of the container.
func (f *format[S]) bitsLost() uint {
	if f.shift != 0 {
		return 0
	}
	return uint(f32ExponentOffset) - f.mantissaBits
}

// stepPromote adds or subtracts one ULP of the reduced format in float32
// space. The sum is exact in float32 so the re-encode lands on the
// neighbor.
func (f *format[S]) stepPromote(from S, ff, tf float32) S {
	if f.isInf(from) {
		// Largest finite value of the same sign.
		return from - f.lsb
	}
	up := tf > ff
	bits := math.Float32bits(ff)
	exponent := int((bits >> f32ExponentOffset) & f32ExponentMask)
	scale := exponent - f32ExponentBias - int(f.mantissaBits)
	if exponent == 0 {
		scale = 1 - f32ExponentBias - int(f.mantissaBits)
	} else if up == (ff < 0) && bits&((1<<f32ExponentOffset)-1) == 0 && exponent > 1 {
		// Moving toward zero from a power of two: the gap below is half.
		scale--
	}
	ulp := float32(math.Ldexp(1, scale))
	if up {
		return f.encode(ff + ulp)
	}
	return f.encode(ff - ulp)
}
