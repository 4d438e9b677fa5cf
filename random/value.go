// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package random

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/maruel/testvalues/floatx"
	"golang.org/x/exp/constraints"
)

// Scalar is any type Value can generate.
type Scalar interface {
	int8 | int16 | int32 | int64 | int |
		uint8 | uint16 | uint32 | uint64 | uint |
		float32 | float64 |
		floatx.Bfloat | floatx.Bfloat16 | floatx.Tfloat
}

// Value returns a value in [min, max].
//
// Integers are uniform over the inclusive range. Floats are uniform over
// [min, max) except when min == max, in which case min is returned without
// drawing. Reduced formats are sampled as float32 and rounded back, so max
// can be returned.
func Value[T Scalar](g *Generator, min, max T, seed int64) (T, error) {
	var out T
	var err error
	switch p := any(&out).(type) {
	case *int8:
		var v int32
		v, err = uniformInt(g, streamInt32, int32(any(min).(int8)), int32(any(max).(int8)), seed)
		*p = int8(v)
	case *int16:
		*p, err = uniformInt(g, streamInt16, any(min).(int16), any(max).(int16), seed)
	case *int32:
		*p, err = uniformInt(g, streamInt32, any(min).(int32), any(max).(int32), seed)
	case *int64:
		*p, err = uniformInt(g, streamInt64, any(min).(int64), any(max).(int64), seed)
	case *int:
		*p, err = uniformInt(g, streamInt, any(min).(int), any(max).(int), seed)
	case *uint8:
		var v uint32
		v, err = uniformInt(g, streamUint32, uint32(any(min).(uint8)), uint32(any(max).(uint8)), seed)
		*p = uint8(v)
	case *uint16:
		*p, err = uniformInt(g, streamUint16, any(min).(uint16), any(max).(uint16), seed)
	case *uint32:
		*p, err = uniformInt(g, streamUint32, any(min).(uint32), any(max).(uint32), seed)
	case *uint64:
		*p, err = uniformInt(g, streamUint64, any(min).(uint64), any(max).(uint64), seed)
	case *uint:
		*p, err = uniformInt(g, streamUint, any(min).(uint), any(max).(uint), seed)
	case *float32:
		*p, err = uniformFloat32(g, any(min).(float32), any(max).(float32), seed)
	case *float64:
		*p, err = uniformFloat64(g, any(min).(float64), any(max).(float64), seed)
	case *floatx.Bfloat:
		var v float32
		v, err = uniformFloat32(g, any(min).(floatx.Bfloat).Float32(), any(max).(floatx.Bfloat).Float32(), seed)
		*p = floatx.NewBfloat(v)
	case *floatx.Bfloat16:
		var v float32
		v, err = uniformFloat32(g, any(min).(floatx.Bfloat16).Float32(), any(max).(floatx.Bfloat16).Float32(), seed)
		*p = floatx.NewBfloat16(v)
	case *floatx.Tfloat:
		var v float32
		v, err = uniformFloat32(g, any(min).(floatx.Tfloat).Float32(), any(max).(floatx.Tfloat).Float32(), seed)
		*p = floatx.NewTfloat(v)
	}
	return out, err
}

// ValueExcept returns a value in [min, max] that is not in except.
//
// Values are compared with ==, so for native floats a NaN is never
// excluded and -0 is excluded by 0. Reduced formats compare bit patterns.
//
// It returns ErrExhausted after MaxAttempts rejected draws.
func ValueExcept[T Scalar](g *Generator, min, max T, seed int64, except []T) (T, error) {
	v, err := Value(g, min, max, seed)
	if err != nil || len(except) == 0 {
		return v, err
	}
	for range MaxAttempts {
		if !slices.Contains(except, v) {
			return v, nil
		}
		if v, err = Value(g, min, max, seed); err != nil {
			return v, err
		}
	}
	var zero T
	return zero, fmt.Errorf("value in [%v, %v] not in %v: %w", min, max, except, ErrExhausted)
}

// FullRange returns a value over the limits of T.
//
// For integers that is every value of T. For floats it is from the
// smallest positive normal value to the largest finite one, so negative
// values, zero and denormals are never generated.
func FullRange[T Scalar](g *Generator, seed int64) (T, error) {
	min, max := Limits[T]()
	return Value(g, min, max, seed)
}

// Limits returns the bounds FullRange uses for T.
func Limits[T Scalar]() (T, T) {
	var min, max T
	switch p := any(&min).(type) {
	case *int8:
		*p = math.MinInt8
		max = any(int8(math.MaxInt8)).(T)
	case *int16:
		*p = math.MinInt16
		max = any(int16(math.MaxInt16)).(T)
	case *int32:
		*p = math.MinInt32
		max = any(int32(math.MaxInt32)).(T)
	case *int64:
		*p = math.MinInt64
		max = any(int64(math.MaxInt64)).(T)
	case *int:
		*p = math.MinInt
		max = any(int(math.MaxInt)).(T)
	case *uint8:
		max = any(uint8(math.MaxUint8)).(T)
	case *uint16:
		max = any(uint16(math.MaxUint16)).(T)
	case *uint32:
		max = any(uint32(math.MaxUint32)).(T)
	case *uint64:
		max = any(uint64(math.MaxUint64)).(T)
	case *uint:
		max = any(uint(math.MaxUint)).(T)
	case *float32:
		*p = smallestNormal32
		max = any(float32(math.MaxFloat32)).(T)
	case *float64:
		*p = smallestNormal64
		max = any(float64(math.MaxFloat64)).(T)
	case *floatx.Bfloat:
		*p = floatx.BfloatMin
		max = any(floatx.BfloatMax).(T)
	case *floatx.Bfloat16:
		*p = floatx.Bfloat16Min
		max = any(floatx.Bfloat16Max).(T)
	case *floatx.Tfloat:
		*p = floatx.TfloatMin
		max = any(floatx.TfloatMax).(T)
	}
	return min, max
}

const (
	smallestNormal32 = 0x1p-126
	smallestNormal64 = 0x1p-1022
)

func uniformInt[I constraints.Integer](g *Generator, s stream, min, max I, seed int64) (I, error) {
	if min > max {
		return 0, fmt.Errorf("min %d > max %d: %w", min, max, ErrInvalidArgument)
	}
	// The difference is computed modulo 2^64, which is also correct for
	// signed types.
	span := uint64(max) - uint64(min)
	var off uint64
	g.with(s, seed, func(r *rand.Rand) {
		if span == math.MaxUint64 {
			off = r.Uint64()
		} else {
			off = r.Uint64N(span + 1)
		}
	})
	return I(uint64(min) + off), nil
}

func checkBounds(min, max float64) error {
	switch {
	case math.IsNaN(min):
		return fmt.Errorf("min is NaN: %w", ErrInvalidArgument)
	case math.IsNaN(max):
		return fmt.Errorf("max is NaN: %w", ErrInvalidArgument)
	case math.IsInf(min, 0):
		return fmt.Errorf("min is %g: %w", min, ErrInvalidArgument)
	case math.IsInf(max, 0):
		return fmt.Errorf("max is %g: %w", max, ErrInvalidArgument)
	case min > max:
		return fmt.Errorf("min %g > max %g: %w", min, max, ErrInvalidArgument)
	}
	return nil
}

func uniformFloat32(g *Generator, min, max float32, seed int64) (float32, error) {
	if err := checkBounds(float64(min), float64(max)); err != nil {
		return 0, err
	}
	if min == max {
		return min, nil
	}
	var x uint32
	g.with(streamFloat32, seed, func(r *rand.Rand) {
		x = r.Uint32()
	})
	return lerp32(float32(x>>8)*0x1p-24, min, max), nil
}

func uniformFloat64(g *Generator, min, max float64, seed int64) (float64, error) {
	if err := checkBounds(min, max); err != nil {
		return 0, err
	}
	if min == max {
		return min, nil
	}
	var x uint64
	g.with(streamFloat64, seed, func(r *rand.Rand) {
		x = r.Uint64()
	})
	return lerp64(float64(x>>11)*0x1p-53, min, max), nil
}

// lerp32 maps u in [0, 1) to [min, max).
//
// When the range straddles zero the two halves are weighted separately,
// which keeps max-min from overflowing and the relative error low on both
// sides. The explicit conversions prevent fused multiply-add so results
// are identical on all architectures.
func lerp32(u, min, max float32) float32 {
	if min < 0 && 0 < max {
		return float32(u*max) + float32((1-u)*min)
	}
	return min + float32(u*(max-min))
}

func lerp64(u, min, max float64) float64 {
	if min < 0 && 0 < max {
		return float64(u*max) + float64((1-u)*min)
	}
	return min + float64(u*(max-min))
}
