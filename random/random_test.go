// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package random

import (
	"cmp"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/maruel/testvalues/floatx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Degenerate(t *testing.T) {
	g := New()
	for seed := range int64(100) {
		v, err := Value[int32](g, 5, 5, seed)
		require.NoError(t, err)
		assert.Equal(t, int32(5), v)
	}
	f, err := Value[float32](g, 2.5, 2.5, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), f)
	d, err := Value(g, -1e300, -1e300, 0)
	require.NoError(t, err)
	assert.Equal(t, -1e300, d)
	b, err := Value(g, floatx.Bfloat16One, floatx.Bfloat16One, 0)
	require.NoError(t, err)
	assert.Equal(t, floatx.Bfloat16One, b)
}

func TestValue_InvalidArgument(t *testing.T) {
	nan32 := float32(math.NaN())
	inf32 := float32(math.Inf(1))
	data := []struct {
		min, max float32
	}{
		{nan32, 1},
		{0, nan32},
		{-inf32, 1},
		{0, inf32},
		{2, 1},
	}
	g := New()
	for i, line := range data {
		t.Run(fmt.Sprintf("#%d: [%g, %g]", i, line.min, line.max), func(t *testing.T) {
			_, err := Value(g, line.min, line.max, 0)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			_, err = Value(g, float64(line.min), float64(line.max), 0)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			_, err = Value(g, floatx.NewBfloat16(line.min), floatx.NewBfloat16(line.max), 0)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			_, err = Value(g, floatx.NewTfloat(line.min), floatx.NewTfloat(line.max), 0)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
	_, err := Value[int16](g, 2, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Value[float32](g, float32(math.NaN()), 1, 0)
	assert.ErrorContains(t, err, "min is NaN")
}

func TestValueExcept(t *testing.T) {
	g := New()
	for seed := range int64(100) {
		v, err := ValueExcept[int32](g, 0, 1, seed, []int32{0})
		require.NoError(t, err)
		assert.Equal(t, int32(1), v)
	}
	for range 100 {
		v, err := ValueExcept(g, floatx.BfloatZero, floatx.BfloatOne, 0, []floatx.Bfloat{floatx.BfloatZero})
		require.NoError(t, err)
		assert.NotEqual(t, floatx.BfloatZero, v)
	}
	// An empty list is a single draw.
	g1, g2 := New(), New()
	v1, err := ValueExcept[uint64](g1, 0, 1000, 3, nil)
	require.NoError(t, err)
	v2, err := Value[uint64](g2, 0, 1000, 3)
	require.NoError(t, err)
	assert.Equal(t, v2, v1)
}

func TestValueExcept_Exhausted(t *testing.T) {
	_, err := ValueExcept[int8](New(), 7, 7, 0, []int8{7})
	assert.ErrorIs(t, err, ErrExhausted)
	_, err = ValueExcept[float32](New(), 2, 1, 0, []float32{1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func checkRange[T Scalar](t *testing.T, min, max T, less func(a, b T) bool) {
	t.Helper()
	g := New()
	for i := range 1000 {
		v, err := Value(g, min, max, 42)
		require.NoError(t, err)
		if less(v, min) || less(max, v) {
			t.Fatalf("#%d: %v not in [%v, %v]", i, v, min, max)
		}
	}
}

func TestValue_InRange(t *testing.T) {
	checkRange(t, int8(-3), int8(3), cmp.Less[int8])
	checkRange(t, int16(-300), int16(-200), cmp.Less[int16])
	checkRange(t, int32(math.MinInt32), int32(math.MaxInt32), cmp.Less[int32])
	checkRange(t, int64(math.MinInt64), int64(math.MaxInt64), cmp.Less[int64])
	checkRange(t, -10, 10, cmp.Less[int])
	checkRange(t, uint8(250), uint8(255), cmp.Less[uint8])
	checkRange(t, uint16(0), uint16(1), cmp.Less[uint16])
	checkRange(t, uint32(1<<31), uint32(math.MaxUint32), cmp.Less[uint32])
	checkRange(t, uint64(0), uint64(math.MaxUint64), cmp.Less[uint64])
	checkRange(t, uint(5), uint(6), cmp.Less[uint])
	checkRange(t, float32(-1), float32(1), cmp.Less[float32])
	checkRange(t, float32(-math.MaxFloat32), float32(math.MaxFloat32), cmp.Less[float32])
	checkRange(t, 1e-300, 1e-299, cmp.Less[float64])
	checkRange(t, -math.MaxFloat64, math.MaxFloat64, cmp.Less[float64])
	checkRange(t, floatx.NewBfloat(-2), floatx.NewBfloat(0.5), floatx.Bfloat.Less)
	checkRange(t, floatx.NewBfloat16(1), floatx.NewBfloat16(1000), floatx.Bfloat16.Less)
	checkRange(t, floatx.NewTfloat(-1e10), floatx.NewTfloat(-1e9), floatx.Tfloat.Less)
}

func TestValue_Reduced(t *testing.T) {
	g := New()
	for range 1000 {
		b, err := Value(g, floatx.NewBfloat16(-1), floatx.NewBfloat16(1), 1)
		require.NoError(t, err)
		assert.Equal(t, b, floatx.NewBfloat16(b.Float32()), "%s is not canonical", b)
		tf, err := Value(g, floatx.NewTfloat(-1), floatx.NewTfloat(1), 1)
		require.NoError(t, err)
		assert.Zero(t, tf.Bits()&0x1fff, "%s has low bits set", tf)
	}
}

func TestValue_NarrowInt(t *testing.T) {
	// 8-bit values are drawn by the engine of the 32-bit type.
	g1, g2 := New(), New()
	for range 100 {
		v8, err := Value[int8](g1, -100, 100, 5)
		require.NoError(t, err)
		v32, err := Value[int32](g2, -100, 100, 5)
		require.NoError(t, err)
		assert.Equal(t, v32, int32(v8))
		u8, err := Value[uint8](g1, 0, 255, 5)
		require.NoError(t, err)
		u32, err := Value[uint32](g2, 0, 255, 5)
		require.NoError(t, err)
		assert.Equal(t, u32, uint32(u8))
	}
}

func TestValue_ReducedShareFloat32(t *testing.T) {
	g1, g2 := New(), New()
	for range 100 {
		b, err := Value(g1, floatx.NewBfloat(-4), floatx.NewBfloat(4), 9)
		require.NoError(t, err)
		f, err := Value[float32](g2, -4, 4, 9)
		require.NoError(t, err)
		assert.Equal(t, floatx.NewBfloat(f), b)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	g1, g2 := New(), New()
	a, err := Slice[float64](g1, 100, -1, 1, 1234)
	require.NoError(t, err)
	b, err := Slice[float64](g2, 100, -1, 1, 1234)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	c, err := Slice[float64](New(), 100, -1, 1, 1235)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGenerator_SeedOnce(t *testing.T) {
	g1, g2 := New(), New()
	_, err := Value[uint16](g1, 0, 1000, 1)
	require.NoError(t, err)
	_, err = Value[uint16](g2, 0, 1000, 1)
	require.NoError(t, err)
	// The engine already exists, the new seed is ignored.
	v1, err := Value[uint16](g1, 0, 1000, 2)
	require.NoError(t, err)
	v2, err := Value[uint16](g2, 0, 1000, 1)
	require.NoError(t, err)
	assert.Equal(t, v2, v1)
	// Other types have their own engine.
	i1, err := Value[int16](g1, 0, 1000, 2)
	require.NoError(t, err)
	i2, err := Value[int16](New(), 0, 1000, 2)
	require.NoError(t, err)
	assert.Equal(t, i2, i1)
}

func TestGenerator_Reset(t *testing.T) {
	g := New()
	a, err := Slice[int64](g, 10, 0, 1<<40, 7)
	require.NoError(t, err)
	g.Reset()
	b, err := Slice[int64](g, 10, 0, 1<<40, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	var zero Generator
	c, err := Slice[int64](&zero, 10, 0, 1<<40, 7)
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestGenerator_Concurrent(t *testing.T) {
	g := New()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				if _, err := Value[float32](g, -1, 1, 3); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestLerp(t *testing.T) {
	assert.Equal(t, float32(-1), lerp32(0, -1, 1))
	assert.Equal(t, float32(0), lerp32(0.5, -1, 1))
	assert.Equal(t, float32(2.5), lerp32(0.25, 2, 4))
	assert.Equal(t, float32(-3.5), lerp32(0.25, -4, -2))
	// max-min overflows float32 but each half is finite.
	assert.Equal(t, float32(0), lerp32(0.5, -math.MaxFloat32, math.MaxFloat32))
	assert.Equal(t, float32(-math.MaxFloat32), lerp32(0, -math.MaxFloat32, math.MaxFloat32))
	assert.Equal(t, 0., lerp64(0.5, -math.MaxFloat64, math.MaxFloat64))
	assert.Equal(t, 1.5, lerp64(0.25, 1, 3))
}

func TestFullRange(t *testing.T) {
	g := New()
	for range 1000 {
		f, err := FullRange[float32](g, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, f, float32(smallestNormal32))
		assert.False(t, math.IsInf(float64(f), 0))
		b, err := FullRange[floatx.Bfloat16](g, 0)
		require.NoError(t, err)
		assert.True(t, b.GreaterEqual(floatx.Bfloat16Min), "%s", b)
		assert.True(t, b.LessEqual(floatx.Bfloat16Max), "%s", b)
		tf, err := FullRange[floatx.Tfloat](g, 0)
		require.NoError(t, err)
		assert.True(t, tf.GreaterEqual(floatx.TfloatMin), "%s", tf)
		assert.False(t, tf.IsInf(), "%s", tf)
	}
	min, max := Limits[int8]()
	assert.Equal(t, int8(math.MinInt8), min)
	assert.Equal(t, int8(math.MaxInt8), max)
	umin, umax := Limits[uint]()
	assert.Equal(t, uint(0), umin)
	assert.Equal(t, uint(math.MaxUint), umax)
	v, err := SliceFullRange[uint8](g, 300, 0)
	require.NoError(t, err)
	assert.Len(t, v, 300)
}

func TestVector(t *testing.T) {
	g := New()
	for _, lanes := range []int{1, 2, 3, 4, 8, 16} {
		v, err := Vec[int32](g, lanes, -5, 5, 0)
		require.NoError(t, err)
		assert.Equal(t, lanes, v.Lanes())
		want := lanes
		if lanes == 3 {
			want = 4
		}
		assert.Equal(t, want, v.SizeInMemory())
	}
	_, err := Vec[int32](g, 0, -5, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Vec[float32](g, 4, 1, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	v, err := VecExcept(g, 4, floatx.Bfloat16Zero, floatx.Bfloat16FromBits(0x0001), 0, []floatx.Bfloat16{floatx.Bfloat16Zero})
	require.NoError(t, err)
	for _, l := range v {
		assert.NotEqual(t, floatx.Bfloat16Zero, l)
	}

	s, err := SliceVec[uint16](g, 10, 3, 100, 200, 0)
	require.NoError(t, err)
	require.Len(t, s, 10)
	for _, v := range s {
		require.Equal(t, 3, v.Lanes())
		for _, l := range v {
			assert.GreaterOrEqual(t, l, uint16(100))
			assert.LessOrEqual(t, l, uint16(200))
		}
	}
	_, err = SliceVec[uint16](g, -1, 3, 100, 200, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Slice[uint16](g, -1, 100, 200, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
